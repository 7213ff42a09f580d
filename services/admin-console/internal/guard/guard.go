// Package guard gates the admin dashboard behind an authenticated session.
package guard

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/utiibeauty/parlour/services/admin-console/internal/gateway"
)

type View int

const (
	ViewLoading View = iota
	ViewLogin
	ViewDashboard
)

func (v View) String() string {
	switch v {
	case ViewLoading:
		return "loading"
	case ViewLogin:
		return "login"
	case ViewDashboard:
		return "dashboard"
	}
	return "unknown"
}

// Form is the login form state.
type Form struct {
	Email    string
	Password string
	Error    string
}

// Dashboard is what the guard reveals once signed in.
type Dashboard interface {
	Close()
}

// DashboardFactory builds the dashboard, handing it the guard's logout path.
type DashboardFactory func(logout func(ctx context.Context) error) Dashboard

type Guard struct {
	auth    gateway.Auth
	factory DashboardFactory
	logger  *slog.Logger

	mu        sync.Mutex
	loading   bool
	session   *gateway.Session
	form      Form
	dashboard Dashboard
	// notified is set once the listener has delivered a session; a slower
	// mount-time read must not overwrite it.
	notified bool
	sub      gateway.Subscription
	unsub    sync.Once
}

func New(auth gateway.Auth, factory DashboardFactory, logger *slog.Logger) *Guard {
	return &Guard{auth: auth, factory: factory, logger: logger, loading: true}
}

// Mount subscribes to session changes and then resolves the current session.
// View is ViewLoading until this returns.
func (g *Guard) Mount(ctx context.Context) {
	sub := g.auth.OnSessionChange(g.onSessionChange)
	g.mu.Lock()
	g.sub = sub
	g.mu.Unlock()

	s, err := g.auth.CurrentSession(ctx)
	if err != nil {
		g.logger.Warn("session lookup failed", "err", err)
		s = nil
	}

	g.mu.Lock()
	if !g.notified {
		g.session = s
	}
	g.loading = false
	g.mu.Unlock()
}

// Unmount drops the session listener and closes the dashboard. Safe to call
// more than once.
func (g *Guard) Unmount() {
	g.unsub.Do(func() {
		g.mu.Lock()
		sub := g.sub
		dash := g.dashboard
		g.dashboard = nil
		g.mu.Unlock()
		if sub != nil {
			sub.Unsubscribe()
		}
		if dash != nil {
			dash.Close()
		}
	})
}

func (g *Guard) onSessionChange(s *gateway.Session) {
	g.mu.Lock()
	g.notified = true
	g.session = s
	var stale Dashboard
	if s == nil {
		stale = g.dashboard
		g.dashboard = nil
	}
	g.mu.Unlock()
	if stale != nil {
		stale.Close()
	}
}

// View is exactly one of loading, login or dashboard.
func (g *Guard) View() View {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.viewLocked()
}

func (g *Guard) viewLocked() View {
	switch {
	case g.loading:
		return ViewLoading
	case g.session != nil:
		return ViewDashboard
	default:
		return ViewLogin
	}
}

// Session returns the active session, nil outside ViewDashboard.
func (g *Guard) Session() *gateway.Session {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.session == nil {
		return nil
	}
	cp := *g.session
	return &cp
}

func (g *Guard) Form() Form {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.form
}

func (g *Guard) SetCredentials(email, password string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.form.Email = email
	g.form.Password = password
}

// Login submits the form. It never sets the session itself; the session
// listener moves the guard to the dashboard. On failure the backend's message
// is shown and the credentials are kept.
func (g *Guard) Login(ctx context.Context) {
	g.mu.Lock()
	g.form.Error = ""
	email := strings.TrimSpace(g.form.Email)
	password := g.form.Password
	g.mu.Unlock()

	if email == "" || password == "" {
		g.setFormError("Email and password are required.")
		return
	}
	if _, err := g.auth.SignIn(ctx, email, password); err != nil {
		g.logger.Info("admin sign in failed", "err", err)
		g.setFormError(err.Error())
	}
}

func (g *Guard) setFormError(msg string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.form.Error = msg
}

// Logout signs out; the listener returns the guard to the login view.
func (g *Guard) Logout(ctx context.Context) error {
	if err := g.auth.SignOut(ctx); err != nil {
		g.logger.Error("sign out failed", "err", err)
		return err
	}
	g.mu.Lock()
	g.form.Password = ""
	g.mu.Unlock()
	return nil
}

// Dashboard returns the dashboard for the current session, building it on
// first use. It is nil unless View is ViewDashboard.
func (g *Guard) Dashboard() Dashboard {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.viewLocked() != ViewDashboard {
		return nil
	}
	if g.dashboard == nil && g.factory != nil {
		g.dashboard = g.factory(g.Logout)
	}
	return g.dashboard
}
