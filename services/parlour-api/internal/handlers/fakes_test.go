package handlers

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/utiibeauty/parlour/libs/model"
	"github.com/utiibeauty/parlour/services/parlour-api/internal/audit"
	"github.com/utiibeauty/parlour/services/parlour-api/internal/sessions"
	"github.com/utiibeauty/parlour/services/parlour-api/internal/storage"
	"golang.org/x/crypto/bcrypt"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

type fakeAdmins struct {
	byEmail map[string]storage.Admin
}

func newFakeAdmins(email, password string) *fakeAdmins {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	return &fakeAdmins{byEmail: map[string]storage.Admin{
		email: {ID: "admin-1", Email: email, PasswordHash: string(hash)},
	}}
}

func (f *fakeAdmins) GetByEmail(_ context.Context, email string) (storage.Admin, error) {
	a, ok := f.byEmail[email]
	if !ok {
		return storage.Admin{}, pgx.ErrNoRows
	}
	return a, nil
}

func (f *fakeAdmins) GetByID(_ context.Context, id string) (storage.Admin, error) {
	for _, a := range f.byEmail {
		if a.ID == id {
			return a, nil
		}
	}
	return storage.Admin{}, pgx.ErrNoRows
}

type fakeRefresh struct {
	mu     sync.Mutex
	tokens map[string]*sessions.RefreshToken
	// staleReads makes GetByHash report tokens as unrevoked, the view a
	// concurrent caller has before the other one revokes.
	staleReads bool
}

func newFakeRefresh() *fakeRefresh {
	return &fakeRefresh{tokens: map[string]*sessions.RefreshToken{}}
}

func (f *fakeRefresh) Create(_ context.Context, adminID, raw string, expiresAt time.Time) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	hash := sessions.HashToken(raw)
	id := "rt-" + hash[:8]
	f.tokens[hash] = &sessions.RefreshToken{ID: id, AdminID: adminID, Hash: hash, ExpiresAt: expiresAt}
	return id, nil
}

func (f *fakeRefresh) GetByHash(_ context.Context, hash string) (sessions.RefreshToken, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tokens[hash]
	if !ok {
		return sessions.RefreshToken{}, pgx.ErrNoRows
	}
	got := *t
	if f.staleReads {
		got.RevokedAt = nil
	}
	return got, nil
}

func (f *fakeRefresh) Revoke(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.tokens {
		if t.ID != id {
			continue
		}
		if t.RevokedAt != nil {
			return sessions.ErrAlreadyRevoked
		}
		now := time.Now()
		t.RevokedAt = &now
	}
	return nil
}

type fakeAudit struct {
	mu     sync.Mutex
	events []string
}

func (f *fakeAudit) Record(_ context.Context, eventType, _ string, _ map[string]any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, eventType)
	return nil
}

func (f *fakeAudit) ListRecent(_ context.Context, limit int) ([]audit.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := []audit.Event{}
	for i := len(f.events) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, audit.Event{ID: int64(i + 1), EventType: f.events[i]})
	}
	return out, nil
}

type fakeShopStatus struct {
	row *model.ShopStatus
}

func (f *fakeShopStatus) Current(context.Context) (model.ShopStatus, error) {
	if f.row == nil {
		return model.ShopStatus{}, pgx.ErrNoRows
	}
	return *f.row, nil
}

func (f *fakeShopStatus) Update(_ context.Context, id string, patch model.ShopStatusPatch) (model.ShopStatus, error) {
	if f.row == nil || f.row.ID != id {
		return model.ShopStatus{}, storage.ErrNotFound
	}
	f.row.IsOpen = patch.IsOpen
	f.row.UpdatedAt = patch.UpdatedAt
	f.row.UpdatedBy = patch.UpdatedBy
	return *f.row, nil
}

type captureBroadcast struct {
	got []model.ShopStatus
}

func (c *captureBroadcast) PublishShopStatus(s model.ShopStatus) {
	c.got = append(c.got, s)
}

type fakeBookings struct {
	rows []model.Booking
	seq  int
}

func (f *fakeBookings) List(context.Context) ([]model.Booking, error) {
	out := append([]model.Booking(nil), f.rows...)
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (f *fakeBookings) Create(_ context.Context, rows []model.NewBooking) ([]model.Booking, error) {
	var created []model.Booking
	for _, nb := range rows {
		f.seq++
		b := model.Booking{
			ID:            "b" + string(rune('0'+f.seq)),
			CustomerName:  nb.CustomerName,
			Phone:         nb.Phone,
			Service:       nb.Service,
			PreferredDate: nb.PreferredDate,
			PreferredTime: nb.PreferredTime,
			Notes:         nb.Notes,
			DepositAmount: nb.DepositAmount,
			DepositPaid:   nb.DepositPaid,
			Status:        nb.Status,
			CreatedAt:     time.Unix(int64(f.seq), 0),
		}
		f.rows = append(f.rows, b)
		created = append(created, b)
	}
	return created, nil
}

func (f *fakeBookings) UpdateStatus(_ context.Context, id string, status model.BookingStatus) (model.Booking, error) {
	for i := range f.rows {
		if f.rows[i].ID == id {
			f.rows[i].Status = status
			return f.rows[i], nil
		}
	}
	return model.Booking{}, storage.ErrNotFound
}

func (f *fakeBookings) Delete(_ context.Context, id string) error {
	for i := range f.rows {
		if f.rows[i].ID == id {
			f.rows = append(f.rows[:i], f.rows[i+1:]...)
			return nil
		}
	}
	return storage.ErrNotFound
}

type fakeReviews struct {
	rows       []model.Review
	lastFilter model.ReviewFilter
}

func (f *fakeReviews) List(_ context.Context, filter model.ReviewFilter) ([]model.Review, error) {
	f.lastFilter = filter
	out := []model.Review{}
	for _, r := range f.rows {
		if filter.ApprovedOnly && !r.IsApproved {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func (f *fakeReviews) Create(_ context.Context, nr model.NewReview, approved bool) (model.Review, error) {
	r := model.Review{
		ID:           "r" + string(rune('0'+len(f.rows)+1)),
		CustomerName: nr.CustomerName,
		Rating:       nr.Rating,
		ReviewText:   nr.ReviewText,
		IsApproved:   approved,
		CreatedAt:    time.Now(),
	}
	f.rows = append(f.rows, r)
	return r, nil
}

func (f *fakeReviews) Delete(_ context.Context, id string) error {
	for i := range f.rows {
		if f.rows[i].ID == id {
			f.rows = append(f.rows[:i], f.rows[i+1:]...)
			return nil
		}
	}
	return storage.ErrNotFound
}
