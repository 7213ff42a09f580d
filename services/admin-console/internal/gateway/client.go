package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/utiibeauty/parlour/libs/model"
	"github.com/utiibeauty/parlour/services/admin-console/internal/kvstore"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// SessionKey is the kvstore key holding the persisted session.
const SessionKey = "auth.session"

// refreshSkew refreshes access tokens slightly before they expire.
const refreshSkew = 30 * time.Second

type Config struct {
	BaseURL    string
	HTTPClient *http.Client
	// Store persists the session across console runs. Nil keeps it in memory.
	Store  kvstore.Store
	Logger *slog.Logger
	Now    func() time.Time
}

// Client implements Gateway against parlour-api.
type Client struct {
	base   *url.URL
	http   *http.Client
	store  kvstore.Store
	logger *slog.Logger
	now    func() time.Time

	mu        sync.Mutex
	session   *Session
	loaded    bool
	listeners map[int]SessionListener
	nextID    int

	// refreshMu serializes token refreshes.
	refreshMu sync.Mutex
}

var _ Gateway = (*Client)(nil)

func New(cfg Config) (*Client, error) {
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("gateway: parse base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("gateway: base url must be http or https, got %q", cfg.BaseURL)
	}
	c := &Client{
		base:      base,
		http:      cfg.HTTPClient,
		store:     cfg.Store,
		logger:    cfg.Logger,
		now:       cfg.Now,
		listeners: map[int]SessionListener{},
	}
	if c.http == nil {
		c.http = &http.Client{
			Timeout:   15 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		}
	}
	if c.store == nil {
		c.store = kvstore.NewMemory()
	}
	if c.logger == nil {
		c.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c, nil
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type tokenResponse struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	Email        string    `json:"email"`
}

func (t tokenResponse) session() *Session {
	return &Session{
		AccessToken:  t.AccessToken,
		RefreshToken: t.RefreshToken,
		Email:        t.Email,
		ExpiresAt:    t.ExpiresAt,
	}
}

func (c *Client) SignIn(ctx context.Context, email, password string) (*Session, error) {
	var resp tokenResponse
	err := c.send(ctx, OpSignIn, http.MethodPost, "/api/v1/auth/login", "", loginRequest{Email: email, Password: password}, &resp)
	if err != nil {
		return nil, err
	}
	s := resp.session()
	c.setSession(s)
	return copySession(s), nil
}

func (c *Client) CurrentSession(ctx context.Context) (*Session, error) {
	s := c.loadSession()
	if s == nil {
		return nil, nil
	}
	if !s.Expired(c.now().Add(refreshSkew)) {
		return copySession(s), nil
	}
	fresh, err := c.refresh(ctx, s)
	if err != nil {
		if IsUnauthorized(err) {
			return nil, nil
		}
		return nil, err
	}
	return copySession(fresh), nil
}

// OnSessionChange registers fn for every session change. Listeners run on
// the goroutine that caused the change, after the client's state is updated.
func (c *Client) OnSessionChange(fn SessionListener) Subscription {
	c.mu.Lock()
	id := c.nextID
	c.nextID++
	c.listeners[id] = fn
	c.mu.Unlock()

	var once sync.Once
	return SubscriptionFunc(func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.listeners, id)
			c.mu.Unlock()
		})
	})
}

// SignOut revokes the refresh token and clears the local session. A failed
// revoke is logged; the local session is cleared regardless.
func (c *Client) SignOut(ctx context.Context) error {
	s := c.loadSession()
	if s == nil {
		return nil
	}
	if s.RefreshToken != "" {
		err := c.send(ctx, OpSignOut, http.MethodPost, "/api/v1/auth/logout", "", refreshRequest{RefreshToken: s.RefreshToken}, nil)
		if err != nil {
			c.logger.Warn("remote sign out failed", "err", err)
		}
	}
	c.setSession(nil)
	return nil
}

// CurrentShopStatus returns nil without error only when the backend reports
// the row as not configured.
func (c *Client) CurrentShopStatus(ctx context.Context) (*model.ShopStatus, error) {
	var status model.ShopStatus
	err := c.send(ctx, OpCurrentShopStatus, http.MethodGet, "/api/v1/shop-status", "", nil, &status)
	if err != nil {
		if notConfigured(err) {
			return nil, nil
		}
		return nil, err
	}
	return &status, nil
}

func notConfigured(err error) bool {
	var ge *Error
	return errors.As(err, &ge) && ge.Status == http.StatusNotFound && ge.Message == model.ShopStatusNotConfigured
}

type shopStatusUpdate struct {
	ID        string    `json:"id"`
	IsOpen    bool      `json:"is_open"`
	UpdatedAt time.Time `json:"updated_at"`
	UpdatedBy string    `json:"updated_by"`
}

func (c *Client) UpdateShopStatus(ctx context.Context, id string, patch model.ShopStatusPatch) (model.ShopStatus, error) {
	var status model.ShopStatus
	err := c.authed(ctx, OpUpdateShopStatus, http.MethodPut, "/api/v1/shop-status", shopStatusUpdate{
		ID:        id,
		IsOpen:    patch.IsOpen,
		UpdatedAt: patch.UpdatedAt,
		UpdatedBy: patch.UpdatedBy,
	}, &status)
	return status, err
}

func (c *Client) ListBookings(ctx context.Context) ([]model.Booking, error) {
	var bookings []model.Booking
	if err := c.authed(ctx, OpListBookings, http.MethodGet, "/api/v1/bookings", nil, &bookings); err != nil {
		return nil, err
	}
	return bookings, nil
}

func (c *Client) InsertBookings(ctx context.Context, rows []model.NewBooking) error {
	return c.authed(ctx, OpInsertBookings, http.MethodPost, "/api/v1/bookings", rows, nil)
}

func (c *Client) SubmitBooking(ctx context.Context, booking model.NewBooking) (model.Booking, error) {
	var created model.Booking
	err := c.send(ctx, OpSubmitBooking, http.MethodPost, "/api/v1/public/bookings", "", booking, &created)
	return created, err
}

type idRequest struct {
	ID string `json:"id"`
}

type bookingStatusRequest struct {
	ID     string              `json:"id"`
	Status model.BookingStatus `json:"status"`
}

func (c *Client) UpdateBookingStatus(ctx context.Context, id string, status model.BookingStatus) error {
	return c.authed(ctx, OpUpdateBookingStatus, http.MethodPost, "/api/v1/bookings/status", bookingStatusRequest{ID: id, Status: status}, nil)
}

func (c *Client) DeleteBooking(ctx context.Context, id string) error {
	return c.authed(ctx, OpDeleteBooking, http.MethodPost, "/api/v1/bookings/delete", idRequest{ID: id}, nil)
}

// ListReviews reads the public approved list for ApprovedOnly filters and the
// admin list otherwise.
func (c *Client) ListReviews(ctx context.Context, filter model.ReviewFilter) ([]model.Review, error) {
	var reviews []model.Review
	if filter.ApprovedOnly {
		if err := c.send(ctx, OpListReviews, http.MethodGet, "/api/v1/public/reviews", "", nil, &reviews); err != nil {
			return nil, err
		}
		return reviews, nil
	}
	if err := c.authed(ctx, OpListReviews, http.MethodGet, "/api/v1/reviews", nil, &reviews); err != nil {
		return nil, err
	}
	return reviews, nil
}

func (c *Client) SubmitReview(ctx context.Context, review model.NewReview) error {
	return c.send(ctx, OpSubmitReview, http.MethodPost, "/api/v1/public/reviews", "", review, nil)
}

func (c *Client) DeleteReview(ctx context.Context, id string) error {
	return c.authed(ctx, OpDeleteReview, http.MethodPost, "/api/v1/reviews/delete", idRequest{ID: id}, nil)
}

// authed sends with the session's access token. A 401 triggers one refresh
// and retry; if the refresh is refused the session is cleared.
func (c *Client) authed(ctx context.Context, op, method, path string, body, out any) error {
	s := c.loadSession()
	if s == nil {
		return &Error{Op: op, Status: http.StatusUnauthorized, Message: "not signed in"}
	}
	if s.Expired(c.now().Add(refreshSkew)) {
		fresh, err := c.refresh(ctx, s)
		if err != nil {
			return err
		}
		s = fresh
	}
	err := c.send(ctx, op, method, path, s.AccessToken, body, out)
	if !IsUnauthorized(err) {
		return err
	}
	fresh, rerr := c.refresh(ctx, s)
	if rerr != nil {
		return err
	}
	return c.send(ctx, op, method, path, fresh.AccessToken, body, out)
}

// refresh exchanges stale's refresh token. When another caller already
// replaced stale, the newer session is returned instead.
func (c *Client) refresh(ctx context.Context, stale *Session) (*Session, error) {
	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	current := c.loadSession()
	if current == nil {
		return nil, &Error{Op: OpCurrentSession, Status: http.StatusUnauthorized, Message: "not signed in"}
	}
	if current.AccessToken != stale.AccessToken && !current.Expired(c.now().Add(refreshSkew)) {
		return current, nil
	}

	var resp tokenResponse
	err := c.send(ctx, OpCurrentSession, http.MethodPost, "/api/v1/auth/refresh", "", refreshRequest{RefreshToken: current.RefreshToken}, &resp)
	if err != nil {
		if IsUnauthorized(err) {
			c.logger.Info("session expired", "email", current.Email)
			c.setSession(nil)
		}
		return nil, err
	}
	s := resp.session()
	c.setSession(s)
	return s, nil
}

func (c *Client) send(ctx context.Context, op, method, path, token string, body, out any) error {
	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return &Error{Op: op, Message: "failed to encode request", Err: err}
		}
		reader = bytes.NewReader(raw)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base.String()+path, reader)
	if err != nil {
		return &Error{Op: op, Message: err.Error(), Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &Error{Op: op, Message: transportMessage(err), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4<<10))
		msg := strings.TrimSpace(string(raw))
		if msg == "" {
			msg = strings.ToLower(http.StatusText(resp.StatusCode))
		}
		return &Error{Op: op, Status: resp.StatusCode, Message: msg}
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &Error{Op: op, Status: resp.StatusCode, Message: "invalid response from server", Err: err}
	}
	return nil
}

func transportMessage(err error) string {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		err = uerr.Err
	}
	if errors.Is(err, context.Canceled) {
		return "request cancelled"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "request timed out"
	}
	return "network error: " + err.Error()
}

func (c *Client) loadSession() *Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.loaded {
		c.loaded = true
		raw, ok, err := c.store.Get(SessionKey)
		if err != nil {
			c.logger.Warn("session load failed", "err", err)
		}
		if ok && raw != "" {
			var s Session
			if err := json.Unmarshal([]byte(raw), &s); err != nil {
				c.logger.Warn("discarding unreadable session", "err", err)
			} else if s.AccessToken != "" {
				c.session = &s
			}
		}
	}
	return c.session
}

func (c *Client) setSession(s *Session) {
	c.mu.Lock()
	c.loaded = true
	c.session = s
	if s == nil {
		if err := c.store.Delete(SessionKey); err != nil {
			c.logger.Warn("session clear failed", "err", err)
		}
	} else if raw, err := json.Marshal(s); err == nil {
		if err := c.store.Set(SessionKey, string(raw)); err != nil {
			c.logger.Warn("session persist failed", "err", err)
		}
	}
	listeners := make([]SessionListener, 0, len(c.listeners))
	for _, fn := range c.listeners {
		listeners = append(listeners, fn)
	}
	c.mu.Unlock()

	for _, fn := range listeners {
		fn(copySession(s))
	}
}

func copySession(s *Session) *Session {
	if s == nil {
		return nil
	}
	cp := *s
	return &cp
}
