package bookings

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/utiibeauty/parlour/libs/model"
	"github.com/utiibeauty/parlour/services/admin-console/internal/gateway"
	"github.com/utiibeauty/parlour/services/admin-console/internal/gateway/gatewaytest"
	"github.com/utiibeauty/parlour/services/admin-console/internal/resync"
	"github.com/utiibeauty/parlour/services/admin-console/internal/ui/uitest"
	"github.com/utiibeauty/parlour/services/admin-console/internal/whatsapp"
)

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

func newManager(fake *gatewaytest.Fake, rec *uitest.Recorder) *Manager {
	m := NewManager(fake, resync.New(rec, rec, discard), rec, discard)
	m.now = func() time.Time { return time.Date(2026, 10, 2, 9, 0, 0, 0, time.UTC) }
	return m
}

func withBookings(n int) *gatewaytest.Fake {
	fake := gatewaytest.New()
	for i := 0; i < n; i++ {
		_, _ = fake.SubmitBooking(context.Background(), model.NewBooking{
			CustomerName:  "Customer",
			Phone:         "+91 9346163673",
			Service:       "Hair Spa",
			PreferredDate: "2026-10-20",
			PreferredTime: "15:00",
		})
	}
	return fake
}

func TestFetchNewestFirst(t *testing.T) {
	fake := withBookings(3)
	m := newManager(fake, &uitest.Recorder{})
	m.Fetch(context.Background())

	st := m.State()
	require.Len(t, st.Bookings, 3)
	assert.Equal(t, "booking-3", st.Bookings[0].ID)
	assert.Equal(t, "booking-1", st.Bookings[2].ID)
	assert.False(t, st.Loading)
	assert.Empty(t, st.Error)
}

func TestFetchFailureEmptiesCollection(t *testing.T) {
	fake := withBookings(2)
	m := newManager(fake, &uitest.Recorder{})
	m.Fetch(context.Background())
	require.Len(t, m.State().Bookings, 2)

	fake.Fail(gateway.OpListBookings, errors.New("connection refused"))
	m.Fetch(context.Background())

	st := m.State()
	assert.Empty(t, st.Bookings)
	assert.Equal(t, loadFailedMessage, st.Error)
	assert.False(t, st.Loading)
}

func TestUpdateStatusResyncs(t *testing.T) {
	fake := withBookings(1)
	m := newManager(fake, &uitest.Recorder{})
	m.Fetch(context.Background())

	out := m.UpdateStatus(context.Background(), "booking-1", model.BookingConfirmed)

	assert.Equal(t, resync.Applied, out)
	assert.Equal(t, model.BookingConfirmed, m.State().Bookings[0].Status)
	assert.Equal(t, 2, fake.Calls(gateway.OpListBookings))
}

func TestUpdateStatusFailureAlertsWithoutDrift(t *testing.T) {
	fake := withBookings(1)
	rec := &uitest.Recorder{}
	m := newManager(fake, rec)
	m.Fetch(context.Background())
	before := m.State()
	fake.Fail(gateway.OpUpdateBookingStatus, gatewaytest.Failure(gateway.OpUpdateBookingStatus, "row level security"))

	out := m.UpdateStatus(context.Background(), "booking-1", model.BookingCancelled)

	assert.Equal(t, resync.Failed, out)
	assert.Equal(t, before, m.State())
	assert.Equal(t, []string{"Failed to update booking status: row level security"}, rec.Alerts())
	assert.Equal(t, 1, fake.Calls(gateway.OpListBookings))
}

func TestUpdateStatusRejectsUnknownStatus(t *testing.T) {
	fake := withBookings(1)
	rec := &uitest.Recorder{}
	m := newManager(fake, rec)

	out := m.UpdateStatus(context.Background(), "booking-1", model.BookingStatus("done"))

	assert.Equal(t, resync.Failed, out)
	assert.Zero(t, fake.Calls(gateway.OpUpdateBookingStatus))
	require.Len(t, rec.Alerts(), 1)
	assert.True(t, strings.HasPrefix(rec.Alerts()[0], "Failed to update booking status: "))
}

func TestDeleteRequiresConfirmation(t *testing.T) {
	fake := withBookings(1)
	rec := &uitest.Recorder{Answer: false}
	m := newManager(fake, rec)

	out := m.Delete(context.Background(), "booking-1")

	assert.Equal(t, resync.Declined, out)
	assert.Equal(t, []string{DeletePrompt}, rec.Prompts())
	assert.Zero(t, fake.Calls(gateway.OpDeleteBooking))
	assert.Len(t, fake.Bookings(), 1)
}

func TestDeleteConfirmedResyncs(t *testing.T) {
	fake := withBookings(2)
	m := newManager(fake, &uitest.Recorder{Answer: true})
	m.Fetch(context.Background())

	out := m.Delete(context.Background(), "booking-2")

	assert.Equal(t, resync.Applied, out)
	st := m.State()
	require.Len(t, st.Bookings, 1)
	assert.Equal(t, "booking-1", st.Bookings[0].ID)
}

func TestDeleteFailureAlerts(t *testing.T) {
	fake := withBookings(1)
	rec := &uitest.Recorder{Answer: true}
	m := newManager(fake, rec)
	fake.Fail(gateway.OpDeleteBooking, gatewaytest.Failure(gateway.OpDeleteBooking, "booking not found"))

	m.Delete(context.Background(), "booking-1")

	assert.Equal(t, []string{"Failed to delete booking: booking not found"}, rec.Alerts())
}

func TestContactCustomerOpensLink(t *testing.T) {
	rec := &uitest.Recorder{}
	m := newManager(gatewaytest.New(), rec)

	link, err := m.ContactCustomer("+91 93461-63673", "Asha")

	require.NoError(t, err)
	assert.Equal(t, "https://wa.me/919346163673?text=Hello%20Asha!%20This%20is%20UTII%20Beauty%20Parlour%20regarding%20your%20appointment%20booking.", link)
	assert.Equal(t, []string{link}, rec.Opened())
	assert.Equal(t, State{}, m.State())
}

func TestSeedOnlyWhenEmpty(t *testing.T) {
	fake := gatewaytest.New()
	m := newManager(fake, &uitest.Recorder{})

	assert.Equal(t, resync.Applied, m.Seed(context.Background()))
	assert.Equal(t, resync.Applied, m.Seed(context.Background()))

	rows := fake.Bookings()
	require.Len(t, rows, 1)
	assert.Equal(t, "2026-10-03", rows[0].PreferredDate)
	assert.Equal(t, model.BookingPending, rows[0].Status)
	assert.Len(t, m.State().Bookings, 1)
}

func TestClosedManagerDropsFetch(t *testing.T) {
	fake := withBookings(1)
	m := newManager(fake, &uitest.Recorder{})
	m.Close()
	m.Fetch(context.Background())
	assert.Empty(t, m.State().Bookings)
	assert.Zero(t, fake.Calls(gateway.OpListBookings))
}

func filledForm() Form {
	return Form{
		Name:    "Asha",
		Phone:   "+91 9346163673",
		Service: "Bridal Makeup",
		Date:    "2026-11-02",
		Time:    "10:30",
	}
}

func TestSubmitPersistsAndOpensShopChat(t *testing.T) {
	fake := gatewaytest.New()
	rec := &uitest.Recorder{}
	s := NewSubmission(fake, rec, rec, "1234567890", discard)
	s.Set(filledForm())
	s.AcceptDeposit(true)

	link, err := s.Submit(context.Background())
	require.NoError(t, err)

	want := whatsapp.Link("1234567890", whatsapp.BookingRequest{
		Name: "Asha", Phone: "+91 9346163673", Service: "Bridal Makeup", Date: "2026-11-02", Time: "10:30",
	}.Message())
	assert.Equal(t, want, link)
	assert.Contains(t, link, "Notes%3A%20None")
	assert.Equal(t, []string{want}, rec.Opened())
	assert.Empty(t, rec.Alerts())

	rows := fake.Bookings()
	require.Len(t, rows, 1)
	assert.Equal(t, model.BookingPending, rows[0].Status)
	assert.Equal(t, model.DefaultDeposit, rows[0].DepositAmount)
	assert.False(t, rows[0].DepositPaid)
	assert.Equal(t, Form{}, s.Form())
}

func TestSubmitWarnsButStillOpensOnSaveFailure(t *testing.T) {
	fake := gatewaytest.New()
	fake.Fail(gateway.OpSubmitBooking, gatewaytest.Failure(gateway.OpSubmitBooking, "too many requests"))
	rec := &uitest.Recorder{}
	s := NewSubmission(fake, rec, rec, "1234567890", discard)
	s.Set(filledForm())
	s.AcceptDeposit(true)

	_, err := s.Submit(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{
		"Warning: booking could not be saved to server: too many requests\nWhatsApp will still open so you can confirm with us.",
	}, rec.Alerts())
	assert.Len(t, rec.Opened(), 1)
	assert.Equal(t, Form{}, s.Form())
}

func TestSubmitRequiresDeposit(t *testing.T) {
	fake := gatewaytest.New()
	rec := &uitest.Recorder{}
	s := NewSubmission(fake, rec, rec, "1234567890", discard)
	s.Set(filledForm())

	_, err := s.Submit(context.Background())

	assert.ErrorIs(t, err, ErrDepositNotAccepted)
	assert.Equal(t, []string{"Please accept the pre-booking deposit of ₹100."}, rec.Alerts())
	assert.Empty(t, rec.Opened())
	assert.Zero(t, fake.Calls(gateway.OpSubmitBooking))
	assert.Equal(t, "Asha", s.Form().Name)
}

func TestSubmitValidatesFields(t *testing.T) {
	fake := gatewaytest.New()
	rec := &uitest.Recorder{}
	s := NewSubmission(fake, rec, rec, "1234567890", discard)
	f := filledForm()
	f.Time = " "
	s.Set(f)
	s.AcceptDeposit(true)

	_, err := s.Submit(context.Background())

	assert.EqualError(t, err, "time is required")
	assert.Empty(t, rec.Opened())
	assert.Zero(t, fake.Calls(gateway.OpSubmitBooking))
}
