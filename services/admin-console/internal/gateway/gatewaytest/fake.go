// Package gatewaytest provides an in-memory gateway.Gateway with failure
// injection for component tests.
package gatewaytest

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/utiibeauty/parlour/libs/model"
	"github.com/utiibeauty/parlour/services/admin-console/internal/gateway"
)

// Fake behaves like parlour-api backed by memory. Session listeners and
// shop-status subscribers run synchronously on the mutating goroutine.
type Fake struct {
	mu sync.Mutex

	// ReviewAutoApprove mirrors the backend option of the same name.
	ReviewAutoApprove bool

	credentials map[string]string
	session     *gateway.Session
	listeners   map[int]gateway.SessionListener
	shopSubs    map[int]func(model.ShopStatusChange)
	nextID      int

	shopStatus *model.ShopStatus
	bookings   []model.Booking
	reviews    []model.Review

	failures map[string]error
	calls    map[string]int
	clock    time.Time
	seq      int
}

var _ gateway.Gateway = (*Fake)(nil)

func New() *Fake {
	return &Fake{
		credentials: map[string]string{},
		listeners:   map[int]gateway.SessionListener{},
		shopSubs:    map[int]func(model.ShopStatusChange){},
		failures:    map[string]error{},
		calls:       map[string]int{},
		clock:       time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC),
	}
}

// AddAdmin registers credentials accepted by SignIn.
func (f *Fake) AddAdmin(email, password string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.credentials[email] = password
}

// Fail makes op return err until Recover(op) is called.
func (f *Fake) Fail(op string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[op] = err
}

func (f *Fake) Recover(op string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.failures, op)
}

// Failure builds the error the real client returns for a server-side failure.
func Failure(op, message string) error {
	return &gateway.Error{Op: op, Status: http.StatusInternalServerError, Message: message}
}

// Calls is how many times op has been invoked, failed calls included.
func (f *Fake) Calls(op string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[op]
}

// begin records a call and returns the injected failure for op.
func (f *Fake) begin(op string) error {
	f.calls[op]++
	return f.failures[op]
}

func (f *Fake) tick() time.Time {
	f.clock = f.clock.Add(time.Minute)
	return f.clock
}

func (f *Fake) nextRowID(prefix string) string {
	f.seq++
	return fmt.Sprintf("%s-%d", prefix, f.seq)
}

func (f *Fake) SignIn(_ context.Context, email, password string) (*gateway.Session, error) {
	f.mu.Lock()
	if err := f.begin(gateway.OpSignIn); err != nil {
		f.mu.Unlock()
		return nil, err
	}
	if email == "" || password == "" || f.credentials[email] != password {
		f.mu.Unlock()
		return nil, &gateway.Error{Op: gateway.OpSignIn, Status: http.StatusUnauthorized, Message: "invalid login credentials"}
	}
	s := &gateway.Session{
		AccessToken:  f.nextRowID("access"),
		RefreshToken: f.nextRowID("refresh"),
		Email:        email,
		ExpiresAt:    f.clock.Add(time.Hour),
	}
	f.session = s
	listeners := f.sessionListeners()
	f.mu.Unlock()

	for _, fn := range listeners {
		fn(copySession(s))
	}
	return copySession(s), nil
}

func (f *Fake) CurrentSession(context.Context) (*gateway.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin(gateway.OpCurrentSession); err != nil {
		return nil, err
	}
	return copySession(f.session), nil
}

func (f *Fake) OnSessionChange(fn gateway.SessionListener) gateway.Subscription {
	f.mu.Lock()
	id := f.nextID
	f.nextID++
	f.listeners[id] = fn
	f.mu.Unlock()

	var once sync.Once
	return gateway.SubscriptionFunc(func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.listeners, id)
			f.mu.Unlock()
		})
	})
}

// SessionListeners is the number of registered session listeners.
func (f *Fake) SessionListeners() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.listeners)
}

func (f *Fake) SignOut(context.Context) error {
	f.mu.Lock()
	if err := f.begin(gateway.OpSignOut); err != nil {
		f.mu.Unlock()
		return err
	}
	f.session = nil
	listeners := f.sessionListeners()
	f.mu.Unlock()

	for _, fn := range listeners {
		fn(nil)
	}
	return nil
}

// ExpireSession simulates the backend dropping the session.
func (f *Fake) ExpireSession() {
	f.mu.Lock()
	f.session = nil
	listeners := f.sessionListeners()
	f.mu.Unlock()
	for _, fn := range listeners {
		fn(nil)
	}
}

func (f *Fake) sessionListeners() []gateway.SessionListener {
	out := make([]gateway.SessionListener, 0, len(f.listeners))
	for _, fn := range f.listeners {
		out = append(out, fn)
	}
	return out
}

func (f *Fake) CurrentShopStatus(context.Context) (*model.ShopStatus, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin(gateway.OpCurrentShopStatus); err != nil {
		return nil, err
	}
	if f.shopStatus == nil {
		return nil, nil
	}
	s := *f.shopStatus
	return &s, nil
}

func (f *Fake) UpdateShopStatus(_ context.Context, id string, patch model.ShopStatusPatch) (model.ShopStatus, error) {
	f.mu.Lock()
	if err := f.begin(gateway.OpUpdateShopStatus); err != nil {
		f.mu.Unlock()
		return model.ShopStatus{}, err
	}
	if f.shopStatus == nil || f.shopStatus.ID != id {
		f.mu.Unlock()
		return model.ShopStatus{}, &gateway.Error{Op: gateway.OpUpdateShopStatus, Status: http.StatusNotFound, Message: "shop status not found"}
	}
	f.shopStatus.IsOpen = patch.IsOpen
	f.shopStatus.UpdatedAt = patch.UpdatedAt
	f.shopStatus.UpdatedBy = patch.UpdatedBy
	s := *f.shopStatus
	subs := f.shopSubscribers()
	f.mu.Unlock()

	notify(subs, s)
	return s, nil
}

func (f *Fake) SubscribeShopStatus(_ context.Context, fn func(model.ShopStatusChange)) (gateway.Subscription, error) {
	f.mu.Lock()
	if err := f.begin(gateway.OpSubscribeShopStatus); err != nil {
		f.mu.Unlock()
		return nil, err
	}
	id := f.nextID
	f.nextID++
	f.shopSubs[id] = fn
	f.mu.Unlock()

	var once sync.Once
	return gateway.SubscriptionFunc(func() {
		once.Do(func() {
			f.mu.Lock()
			delete(f.shopSubs, id)
			f.mu.Unlock()
		})
	}), nil
}

// ShopStatusSubscribers is the number of live change subscriptions.
func (f *Fake) ShopStatusSubscribers() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.shopSubs)
}

// SetShopStatus provisions (or with nil removes) the singleton row without
// notifying subscribers.
func (f *Fake) SetShopStatus(s *model.ShopStatus) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if s == nil {
		f.shopStatus = nil
		return
	}
	cp := *s
	f.shopStatus = &cp
}

// ShopStatus returns a copy of the stored row.
func (f *Fake) ShopStatus() *model.ShopStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.shopStatus == nil {
		return nil
	}
	cp := *f.shopStatus
	return &cp
}

// PushShopStatus writes s as if another admin changed it and notifies subscribers.
func (f *Fake) PushShopStatus(s model.ShopStatus) {
	f.mu.Lock()
	cp := s
	f.shopStatus = &cp
	subs := f.shopSubscribers()
	f.mu.Unlock()
	notify(subs, s)
}

func (f *Fake) shopSubscribers() []func(model.ShopStatusChange) {
	out := make([]func(model.ShopStatusChange), 0, len(f.shopSubs))
	for _, fn := range f.shopSubs {
		out = append(out, fn)
	}
	return out
}

func notify(subs []func(model.ShopStatusChange), s model.ShopStatus) {
	change := model.ShopStatusChange{Event: model.EventUpdate, Table: model.TableShopStatus, New: s}
	for _, fn := range subs {
		fn(change)
	}
}

func (f *Fake) ListBookings(context.Context) ([]model.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin(gateway.OpListBookings); err != nil {
		return nil, err
	}
	out := append([]model.Booking(nil), f.bookings...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *Fake) InsertBookings(_ context.Context, rows []model.NewBooking) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin(gateway.OpInsertBookings); err != nil {
		return err
	}
	for _, nb := range rows {
		f.insertBooking(nb)
	}
	return nil
}

func (f *Fake) SubmitBooking(_ context.Context, nb model.NewBooking) (model.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin(gateway.OpSubmitBooking); err != nil {
		return model.Booking{}, err
	}
	nb.Status = model.BookingPending
	nb.DepositAmount = model.DefaultDeposit
	nb.DepositPaid = false
	return f.insertBooking(nb), nil
}

func (f *Fake) insertBooking(nb model.NewBooking) model.Booking {
	if nb.Status == "" {
		nb.Status = model.BookingPending
	}
	b := model.Booking{
		ID:            f.nextRowID("booking"),
		CustomerName:  nb.CustomerName,
		Phone:         nb.Phone,
		Service:       nb.Service,
		PreferredDate: nb.PreferredDate,
		PreferredTime: nb.PreferredTime,
		Notes:         nb.Notes,
		DepositAmount: nb.DepositAmount,
		DepositPaid:   nb.DepositPaid,
		Status:        nb.Status,
		CreatedAt:     f.tick(),
	}
	f.bookings = append(f.bookings, b)
	return b
}

// AddBooking stores b as is.
func (f *Fake) AddBooking(b model.Booking) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if b.CreatedAt.IsZero() {
		b.CreatedAt = f.tick()
	}
	f.bookings = append(f.bookings, b)
}

// Bookings returns the stored rows in insertion order.
func (f *Fake) Bookings() []model.Booking {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.Booking(nil), f.bookings...)
}

func (f *Fake) UpdateBookingStatus(_ context.Context, id string, status model.BookingStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin(gateway.OpUpdateBookingStatus); err != nil {
		return err
	}
	for i := range f.bookings {
		if f.bookings[i].ID == id {
			f.bookings[i].Status = status
			return nil
		}
	}
	return &gateway.Error{Op: gateway.OpUpdateBookingStatus, Status: http.StatusNotFound, Message: "booking not found"}
}

func (f *Fake) DeleteBooking(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin(gateway.OpDeleteBooking); err != nil {
		return err
	}
	for i := range f.bookings {
		if f.bookings[i].ID == id {
			f.bookings = append(f.bookings[:i], f.bookings[i+1:]...)
			return nil
		}
	}
	return &gateway.Error{Op: gateway.OpDeleteBooking, Status: http.StatusNotFound, Message: "booking not found"}
}

func (f *Fake) ListReviews(_ context.Context, filter model.ReviewFilter) ([]model.Review, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin(gateway.OpListReviews); err != nil {
		return nil, err
	}
	out := []model.Review{}
	for _, r := range f.reviews {
		if filter.ApprovedOnly && !r.IsApproved {
			continue
		}
		out = append(out, r)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *Fake) SubmitReview(_ context.Context, nr model.NewReview) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin(gateway.OpSubmitReview); err != nil {
		return err
	}
	f.reviews = append(f.reviews, model.Review{
		ID:           f.nextRowID("review"),
		CustomerName: nr.CustomerName,
		Rating:       nr.Rating,
		ReviewText:   nr.ReviewText,
		IsApproved:   f.ReviewAutoApprove,
		CreatedAt:    f.tick(),
	})
	return nil
}

// AddReview stores r as is.
func (f *Fake) AddReview(r model.Review) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if r.CreatedAt.IsZero() {
		r.CreatedAt = f.tick()
	}
	f.reviews = append(f.reviews, r)
}

// Reviews returns the stored rows in insertion order.
func (f *Fake) Reviews() []model.Review {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]model.Review(nil), f.reviews...)
}

func (f *Fake) DeleteReview(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.begin(gateway.OpDeleteReview); err != nil {
		return err
	}
	for i := range f.reviews {
		if f.reviews[i].ID == id {
			f.reviews = append(f.reviews[:i], f.reviews[i+1:]...)
			return nil
		}
	}
	return &gateway.Error{Op: gateway.OpDeleteReview, Status: http.StatusNotFound, Message: "review not found"}
}

func copySession(s *gateway.Session) *gateway.Session {
	if s == nil {
		return nil
	}
	cp := *s
	return &cp
}
