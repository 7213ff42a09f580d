// Package bookings lists and manages appointment requests, and turns public
// booking forms into WhatsApp conversations.
package bookings

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/utiibeauty/parlour/libs/model"
	"github.com/utiibeauty/parlour/services/admin-console/internal/gateway"
	"github.com/utiibeauty/parlour/services/admin-console/internal/resync"
	"github.com/utiibeauty/parlour/services/admin-console/internal/ui"
	"github.com/utiibeauty/parlour/services/admin-console/internal/whatsapp"
)

const (
	DeletePrompt        = "Delete this booking?"
	loadFailedMessage   = "Could not load bookings."
	statusFailurePrefix = "Failed to update booking status"
	deleteFailurePrefix = "Failed to delete booking"
)

type State struct {
	Bookings []model.Booking
	Loading  bool
	Error    string
}

type Manager struct {
	gw       gateway.Bookings
	pipeline *resync.Pipeline
	opener   ui.Opener
	logger   *slog.Logger
	now      func() time.Time

	mu       sync.Mutex
	bookings []model.Booking
	loading  bool
	err      string
	closed   bool
}

func NewManager(gw gateway.Bookings, pipeline *resync.Pipeline, opener ui.Opener, logger *slog.Logger) *Manager {
	return &Manager{gw: gw, pipeline: pipeline, opener: opener, logger: logger, now: time.Now}
}

func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return State{
		Bookings: append([]model.Booking(nil), m.bookings...),
		Loading:  m.loading,
		Error:    m.err,
	}
}

// Fetch replaces the collection with the backend's rows, newest first. A
// failed read empties it.
func (m *Manager) Fetch(ctx context.Context) {
	if !m.begin() {
		return
	}
	rows, err := m.gw.ListBookings(ctx)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.loading = false
	if err != nil {
		m.logger.Error("list bookings failed", "err", err)
		m.bookings = nil
		m.err = loadFailedMessage
		return
	}
	m.bookings = rows
	m.err = ""
}

func (m *Manager) begin() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return false
	}
	m.loading = true
	return true
}

// UpdateStatus writes a new status. Any status may follow any other.
func (m *Manager) UpdateStatus(ctx context.Context, id string, status model.BookingStatus) resync.Outcome {
	return m.pipeline.Run(ctx, resync.Mutation{
		Op:            gateway.OpUpdateBookingStatus,
		FailurePrefix: statusFailurePrefix,
		Mutate: func(ctx context.Context) error {
			s, err := model.ParseBookingStatus(string(status))
			if err != nil {
				return err
			}
			return m.gw.UpdateBookingStatus(ctx, id, s)
		},
		Resync: m.Fetch,
	})
}

func (m *Manager) Delete(ctx context.Context, id string) resync.Outcome {
	return m.pipeline.Run(ctx, resync.Mutation{
		Op:            gateway.OpDeleteBooking,
		Confirm:       DeletePrompt,
		FailurePrefix: deleteFailurePrefix,
		Mutate: func(ctx context.Context) error {
			return m.gw.DeleteBooking(ctx, id)
		},
		Resync: m.Fetch,
	})
}

// ContactCustomer opens a WhatsApp chat with the customer. It does not touch
// manager state.
func (m *Manager) ContactCustomer(phone, name string) (string, error) {
	link := whatsapp.Link(phone, whatsapp.ContactMessage(name))
	if err := m.opener.Open(link); err != nil {
		m.logger.Warn("open whatsapp link failed", "err", err)
		return link, err
	}
	return link, nil
}

// Seed inserts one sample booking when the backend has none, so a fresh
// install has something to show.
func (m *Manager) Seed(ctx context.Context) resync.Outcome {
	return m.pipeline.Run(ctx, resync.Mutation{
		Op: gateway.OpInsertBookings,
		Mutate: func(ctx context.Context) error {
			rows, err := m.gw.ListBookings(ctx)
			if err != nil {
				return err
			}
			if len(rows) > 0 {
				return nil
			}
			return m.gw.InsertBookings(ctx, []model.NewBooking{m.sampleBooking()})
		},
		Resync: m.Fetch,
	})
}

func (m *Manager) sampleBooking() model.NewBooking {
	return model.NewBooking{
		CustomerName:  "Sample Customer",
		Phone:         "+91 9346163673",
		Service:       model.Services[0],
		PreferredDate: m.now().AddDate(0, 0, 1).Format(time.DateOnly),
		PreferredTime: "11:00",
		Notes:         "Sample booking",
		DepositAmount: model.DefaultDeposit,
		Status:        model.BookingPending,
	}
}

// Close detaches the manager; results of calls still in flight are dropped.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
}
