package dashboard

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/utiibeauty/parlour/services/admin-console/internal/kvstore"
	"github.com/utiibeauty/parlour/services/admin-console/internal/ui/uitest"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

type countingLoader struct {
	fetches int
	closed  bool
}

func (l *countingLoader) Fetch(context.Context) { l.fetches++ }
func (l *countingLoader) Close()                { l.closed = true }

func loaders() (map[Section]Loader, map[Section]*countingLoader) {
	raw := map[Section]*countingLoader{
		SectionOverview: {},
		SectionReviews:  {},
		SectionBookings: {},
	}
	out := map[Section]Loader{}
	for k, v := range raw {
		out[k] = v
	}
	return out, raw
}

func TestSectionSurvivesRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.yaml")
	store, err := kvstore.OpenFile(path)
	require.NoError(t, err)

	sections, _ := loaders()
	s := New(Config{Store: store, Sections: sections, Logger: discard})
	assert.Equal(t, SectionOverview, s.ActiveSection())
	require.NoError(t, s.SetSection(context.Background(), SectionBookings))

	reopened, err := kvstore.OpenFile(path)
	require.NoError(t, err)
	restored := New(Config{Store: reopened, Sections: sections, Logger: discard})
	assert.Equal(t, SectionBookings, restored.ActiveSection())
}

func TestInvalidStoredSectionFallsBack(t *testing.T) {
	store := kvstore.NewMemory()
	require.NoError(t, store.Set(SectionKey, "settings"))

	s := New(Config{Store: store, Logger: discard})
	assert.Equal(t, SectionOverview, s.ActiveSection())
}

func TestSetSectionRejectsUnknown(t *testing.T) {
	store := kvstore.NewMemory()
	s := New(Config{Store: store, Logger: discard})

	assert.Error(t, s.SetSection(context.Background(), Section("settings")))
	_, ok, err := store.Get(SectionKey)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestOpenAndRefreshLoadActiveSection(t *testing.T) {
	sections, raw := loaders()
	s := New(Config{Sections: sections, Logger: discard})

	s.Open(context.Background())
	require.NoError(t, s.SetSection(context.Background(), SectionReviews))
	s.Refresh(context.Background())

	assert.Equal(t, 1, raw[SectionOverview].fetches)
	assert.Equal(t, 2, raw[SectionReviews].fetches)
	assert.Zero(t, raw[SectionBookings].fetches)
}

func TestNavMarksActiveSection(t *testing.T) {
	s := New(Config{SiteURL: "https://utibeauty.com", Logout: func(context.Context) error { return nil }, Logger: discard})
	require.NoError(t, s.SetSection(context.Background(), SectionReviews))

	nav := s.Nav()
	require.Len(t, nav.Items, 3)
	assert.Equal(t, []string{"Overview", "Reviews", "Bookings"}, []string{nav.Items[0].Label, nav.Items[1].Label, nav.Items[2].Label})
	assert.False(t, nav.Items[0].Active)
	assert.True(t, nav.Items[1].Active)
	assert.Equal(t, "https://utibeauty.com", nav.SiteURL)
	assert.True(t, nav.CanLogout)
}

func TestRequestLogoutNeedsConfirmation(t *testing.T) {
	calls := 0
	rec := &uitest.Recorder{Answer: false}
	s := New(Config{Confirmer: rec, Logout: func(context.Context) error { calls++; return nil }, Logger: discard})

	done, err := s.RequestLogout(context.Background())
	require.NoError(t, err)
	assert.False(t, done)
	assert.Zero(t, calls)
	assert.Equal(t, []string{LogoutPrompt}, rec.Prompts())

	rec.Answer = true
	done, err = s.RequestLogout(context.Background())
	require.NoError(t, err)
	assert.True(t, done)
	assert.Equal(t, 1, calls)
}

func TestRequestLogoutReportsFailure(t *testing.T) {
	rec := &uitest.Recorder{Answer: true}
	s := New(Config{Confirmer: rec, Logout: func(context.Context) error { return errors.New("network down") }, Logger: discard})

	done, err := s.RequestLogout(context.Background())
	assert.False(t, done)
	assert.EqualError(t, err, "network down")
}

func TestBackToSiteOpensSiteURL(t *testing.T) {
	rec := &uitest.Recorder{}
	s := New(Config{Opener: rec, SiteURL: "https://utibeauty.com", Logger: discard})

	require.NoError(t, s.BackToSite())
	assert.Equal(t, []string{"https://utibeauty.com"}, rec.Opened())
}

func TestCloseStopsLoading(t *testing.T) {
	sections, raw := loaders()
	s := New(Config{Sections: sections, Logger: discard})
	s.Close()
	s.Open(context.Background())

	for _, l := range raw {
		assert.True(t, l.closed)
		assert.Zero(t, l.fetches)
	}
}
