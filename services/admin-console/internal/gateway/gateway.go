// Package gateway is the console's only path to the parlour backend. Every
// component talks to a Gateway so tests can swap in gatewaytest.Fake.
package gateway

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/utiibeauty/parlour/libs/model"
)

// Session is an authenticated admin session.
type Session struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	Email        string    `json:"email"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// Expired reports whether the access token is unusable at now.
func (s *Session) Expired(now time.Time) bool {
	return s == nil || (!s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt))
}

// Subscription is a disposable listener registration.
type Subscription interface {
	Unsubscribe()
}

// SubscriptionFunc adapts a func to Subscription.
type SubscriptionFunc func()

func (f SubscriptionFunc) Unsubscribe() { f() }

// SessionListener receives the new session, nil after sign-out or expiry.
type SessionListener func(*Session)

type Auth interface {
	SignIn(ctx context.Context, email, password string) (*Session, error)
	// CurrentSession returns nil, nil when nobody is signed in.
	CurrentSession(ctx context.Context) (*Session, error)
	OnSessionChange(fn SessionListener) Subscription
	SignOut(ctx context.Context) error
}

type ShopStatuses interface {
	// CurrentShopStatus returns nil, nil when the row has not been provisioned.
	CurrentShopStatus(ctx context.Context) (*model.ShopStatus, error)
	UpdateShopStatus(ctx context.Context, id string, patch model.ShopStatusPatch) (model.ShopStatus, error)
	SubscribeShopStatus(ctx context.Context, fn func(model.ShopStatusChange)) (Subscription, error)
}

type Bookings interface {
	ListBookings(ctx context.Context) ([]model.Booking, error)
	InsertBookings(ctx context.Context, rows []model.NewBooking) error
	SubmitBooking(ctx context.Context, booking model.NewBooking) (model.Booking, error)
	UpdateBookingStatus(ctx context.Context, id string, status model.BookingStatus) error
	DeleteBooking(ctx context.Context, id string) error
}

type Reviews interface {
	ListReviews(ctx context.Context, filter model.ReviewFilter) ([]model.Review, error)
	SubmitReview(ctx context.Context, review model.NewReview) error
	DeleteReview(ctx context.Context, id string) error
}

type Gateway interface {
	Auth
	ShopStatuses
	Bookings
	Reviews
}

// Operation names carried in Error.Op.
const (
	OpSignIn              = "sign in"
	OpCurrentSession      = "current session"
	OpSignOut             = "sign out"
	OpCurrentShopStatus   = "read shop status"
	OpUpdateShopStatus    = "update shop status"
	OpSubscribeShopStatus = "subscribe shop status"
	OpListBookings        = "list bookings"
	OpInsertBookings      = "insert bookings"
	OpSubmitBooking       = "submit booking"
	OpUpdateBookingStatus = "update booking status"
	OpDeleteBooking       = "delete booking"
	OpListReviews         = "list reviews"
	OpSubmitReview        = "submit review"
	OpDeleteReview        = "delete review"
)

// Error is a failed gateway call. Its text is the backend's message so it
// can be shown to the admin as is.
type Error struct {
	Op      string
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Op + " failed"
}

func (e *Error) Unwrap() error { return e.Err }

// IsUnauthorized reports a 401 from the backend.
func IsUnauthorized(err error) bool {
	var ge *Error
	return errors.As(err, &ge) && ge.Status == http.StatusUnauthorized
}

// IsNotFound reports a 404 from the backend.
func IsNotFound(err error) bool {
	var ge *Error
	return errors.As(err, &ge) && ge.Status == http.StatusNotFound
}
