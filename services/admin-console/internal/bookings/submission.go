package bookings

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/utiibeauty/parlour/libs/model"
	"github.com/utiibeauty/parlour/services/admin-console/internal/gateway"
	"github.com/utiibeauty/parlour/services/admin-console/internal/ui"
	"github.com/utiibeauty/parlour/services/admin-console/internal/whatsapp"
)

var DepositAlert = fmt.Sprintf("Please accept the pre-booking deposit of ₹%d.", model.DefaultDeposit)

// ErrDepositNotAccepted is returned by Submit before anything is sent.
var ErrDepositNotAccepted = errors.New("pre-booking deposit not accepted")

// Form is the public booking form.
type Form struct {
	Name            string
	Phone           string
	Service         string
	Date            string
	Time            string
	Notes           string
	DepositAccepted bool
}

func (f Form) validate() error {
	required := []struct{ name, value string }{
		{"name", f.Name},
		{"phone", f.Phone},
		{"service", f.Service},
		{"date", f.Date},
		{"time", f.Time},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return fmt.Errorf("%s is required", r.name)
		}
	}
	if !model.IsKnownService(f.Service) {
		return fmt.Errorf("unknown service %q", f.Service)
	}
	return nil
}

func (f Form) request() whatsapp.BookingRequest {
	return whatsapp.BookingRequest{
		Name:    f.Name,
		Phone:   f.Phone,
		Service: f.Service,
		Date:    f.Date,
		Time:    f.Time,
		Notes:   f.Notes,
	}
}

// Submission sends a booking request. Saving it to the backend is best
// effort; the WhatsApp chat with the shop is what confirms the booking.
type Submission struct {
	gw         gateway.Bookings
	notifier   ui.Notifier
	opener     ui.Opener
	shopNumber string
	logger     *slog.Logger

	mu   sync.Mutex
	form Form
}

func NewSubmission(gw gateway.Bookings, notifier ui.Notifier, opener ui.Opener, shopNumber string, logger *slog.Logger) *Submission {
	return &Submission{gw: gw, notifier: notifier, opener: opener, shopNumber: shopNumber, logger: logger}
}

// Set replaces the form fields, keeping the deposit checkbox.
func (s *Submission) Set(f Form) {
	s.mu.Lock()
	defer s.mu.Unlock()
	accepted := s.form.DepositAccepted
	s.form = f
	s.form.DepositAccepted = accepted
}

func (s *Submission) AcceptDeposit(accepted bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.form.DepositAccepted = accepted
}

func (s *Submission) Form() Form {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.form
}

// Submit validates the form, tries to save it, then opens the WhatsApp link
// and resets the form. It returns the link that was opened.
func (s *Submission) Submit(ctx context.Context) (string, error) {
	f := s.Form()
	if !f.DepositAccepted {
		s.notifier.Alert(DepositAlert)
		return "", ErrDepositNotAccepted
	}
	if err := f.validate(); err != nil {
		return "", err
	}

	_, err := s.gw.SubmitBooking(ctx, model.NewBooking{
		CustomerName:  f.Name,
		Phone:         f.Phone,
		Service:       f.Service,
		PreferredDate: f.Date,
		PreferredTime: f.Time,
		Notes:         f.Notes,
		DepositAmount: model.DefaultDeposit,
		DepositPaid:   false,
		Status:        model.BookingPending,
	})
	if err != nil {
		s.logger.Warn("booking not saved", "err", err)
		s.notifier.Alert("Warning: booking could not be saved to server: " + err.Error() +
			"\nWhatsApp will still open so you can confirm with us.")
	}

	link := whatsapp.Link(s.shopNumber, f.request().Message())
	openErr := s.opener.Open(link)
	if openErr != nil {
		s.logger.Warn("open whatsapp link failed", "err", openErr)
	}

	s.mu.Lock()
	s.form = Form{}
	s.mu.Unlock()
	return link, openErr
}
