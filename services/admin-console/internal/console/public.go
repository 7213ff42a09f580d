package console

import (
	"context"
	"log/slog"

	"github.com/utiibeauty/parlour/services/admin-console/internal/bookings"
	"github.com/utiibeauty/parlour/services/admin-console/internal/gateway"
	"github.com/utiibeauty/parlour/services/admin-console/internal/resync"
	"github.com/utiibeauty/parlour/services/admin-console/internal/reviews"
	"github.com/utiibeauty/parlour/services/admin-console/internal/shopstatus"
	"github.com/utiibeauty/parlour/services/admin-console/internal/ui"
)

// WatchShopStatus prints the public indicator and every change until ctx is
// cancelled.
func WatchShopStatus(ctx context.Context, gw gateway.ShopStatuses, t *ui.Terminal, logger *slog.Logger) error {
	w := shopstatus.NewWatcher(gw, logger)
	w.OnChange = func(st shopstatus.State) { RenderShopStatus(t, st) }
	if err := w.Start(ctx); err != nil {
		return err
	}
	defer w.Stop()
	<-ctx.Done()
	return nil
}

// ShowReviews prints the approved reviews with their average rating.
func ShowReviews(ctx context.Context, gw gateway.Reviews, t *ui.Terminal, logger *slog.Logger) {
	list := reviews.NewPublicList(gw, logger)
	list.Fetch(ctx)
	st := list.State()
	if st.Error != "" {
		t.Printf("%s\n", st.Error)
		return
	}
	if len(st.Reviews) > 0 {
		t.Printf("Average rating %.1f from %d reviews\n", list.Average(), len(st.Reviews))
	}
	RenderReviews(t, st.Reviews, false)
}

// SubmitReview sends one review through the public form.
func SubmitReview(ctx context.Context, gw gateway.Reviews, t *ui.Terminal, form reviews.Form, logger *slog.Logger) (resync.Outcome, error) {
	pipeline := resync.New(t, t, logger)
	s := reviews.NewSubmission(gw, pipeline, t, reviews.NewPublicList(gw, logger))
	s.Open()
	s.SetName(form.Name)
	s.SetText(form.ReviewText)
	if err := s.SetRating(form.Rating); err != nil {
		return resync.Failed, err
	}
	return s.Submit(ctx), nil
}

// SubmitBooking sends a booking request to the shop's WhatsApp number and
// returns the link opened.
func SubmitBooking(ctx context.Context, gw gateway.Bookings, t *ui.Terminal, opener ui.Opener, shopNumber string, form bookings.Form, logger *slog.Logger) (string, error) {
	s := bookings.NewSubmission(gw, t, opener, shopNumber, logger)
	s.Set(form)
	s.AcceptDeposit(form.DepositAccepted)
	return s.Submit(ctx)
}
