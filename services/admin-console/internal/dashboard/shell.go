// Package dashboard is the signed-in admin shell: section navigation and the
// shared header actions.
package dashboard

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/utiibeauty/parlour/services/admin-console/internal/kvstore"
	"github.com/utiibeauty/parlour/services/admin-console/internal/ui"
)

// SectionKey is where the active section survives restarts.
const SectionKey = "admin.activeSection"

const LogoutPrompt = "Are you sure you want to log out?"

type Section string

const (
	SectionOverview Section = "overview"
	SectionReviews  Section = "reviews"
	SectionBookings Section = "bookings"
)

var sectionOrder = []struct {
	id    Section
	label string
}{
	{SectionOverview, "Overview"},
	{SectionReviews, "Reviews"},
	{SectionBookings, "Bookings"},
}

func (s Section) Valid() bool {
	switch s {
	case SectionOverview, SectionReviews, SectionBookings:
		return true
	}
	return false
}

// Loader is the data behind a section.
type Loader interface {
	Fetch(ctx context.Context)
}

type Config struct {
	Store     kvstore.Store
	Confirmer ui.Confirmer
	Opener    ui.Opener
	SiteURL   string
	// Logout ends the session. Nil hides the logout action.
	Logout   func(ctx context.Context) error
	Sections map[Section]Loader
	Logger   *slog.Logger
}

type Shell struct {
	store     kvstore.Store
	confirmer ui.Confirmer
	opener    ui.Opener
	siteURL   string
	logout    func(ctx context.Context) error
	sections  map[Section]Loader
	logger    *slog.Logger

	mu     sync.Mutex
	active Section
	closed bool
}

// New restores the last active section; anything unreadable or unknown
// falls back to the overview.
func New(cfg Config) *Shell {
	s := &Shell{
		store:     cfg.Store,
		confirmer: cfg.Confirmer,
		opener:    cfg.Opener,
		siteURL:   cfg.SiteURL,
		logout:    cfg.Logout,
		sections:  cfg.Sections,
		logger:    cfg.Logger,
		active:    SectionOverview,
	}
	if s.store == nil {
		s.store = kvstore.NewMemory()
	}
	raw, ok, err := s.store.Get(SectionKey)
	switch {
	case err != nil:
		s.logger.Warn("read active section failed", "err", err)
	case ok && Section(raw).Valid():
		s.active = Section(raw)
	}
	return s
}

func (s *Shell) ActiveSection() Section {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// SetSection switches sections, persists the choice and loads the new one.
func (s *Shell) SetSection(ctx context.Context, section Section) error {
	if !section.Valid() {
		return fmt.Errorf("unknown section %q", section)
	}
	s.mu.Lock()
	s.active = section
	s.mu.Unlock()

	if err := s.store.Set(SectionKey, string(section)); err != nil {
		s.logger.Warn("persist active section failed", "section", section, "err", err)
	}
	s.load(ctx, section)
	return nil
}

// Open loads the active section.
func (s *Shell) Open(ctx context.Context) {
	s.load(ctx, s.ActiveSection())
}

// Refresh re-reads the active section.
func (s *Shell) Refresh(ctx context.Context) {
	s.load(ctx, s.ActiveSection())
}

func (s *Shell) load(ctx context.Context, section Section) {
	s.mu.Lock()
	closed := s.closed
	s.mu.Unlock()
	if closed {
		return
	}
	if l := s.sections[section]; l != nil {
		l.Fetch(ctx)
	}
}

type NavItem struct {
	Section Section
	Label   string
	Active  bool
}

// Nav is the header model.
type Nav struct {
	Brand     string
	Title     string
	Items     []NavItem
	SiteLabel string
	SiteURL   string
	CanLogout bool
}

func (s *Shell) Nav() Nav {
	active := s.ActiveSection()
	items := make([]NavItem, 0, len(sectionOrder))
	for _, sec := range sectionOrder {
		items = append(items, NavItem{Section: sec.id, Label: sec.label, Active: sec.id == active})
	}
	return Nav{
		Brand:     "UTI Beauty",
		Title:     "Admin Dashboard",
		Items:     items,
		SiteLabel: "View Website",
		SiteURL:   s.siteURL,
		CanLogout: s.logout != nil,
	}
}

// RequestLogout asks for confirmation and only then ends the session. It
// reports whether logout happened.
func (s *Shell) RequestLogout(ctx context.Context) (bool, error) {
	if s.logout == nil {
		return false, nil
	}
	if !s.confirmer.Confirm(LogoutPrompt) {
		return false, nil
	}
	if err := s.logout(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// BackToSite opens the public site.
func (s *Shell) BackToSite() error {
	return s.opener.Open(s.siteURL)
}

// Close stops loading and closes every section that can be closed.
func (s *Shell) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.mu.Unlock()

	for _, l := range s.sections {
		if c, ok := l.(interface{ Close() }); ok {
			c.Close()
		}
	}
}
