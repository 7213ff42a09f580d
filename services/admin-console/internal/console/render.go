package console

import (
	"strings"

	"github.com/utiibeauty/parlour/libs/model"
	"github.com/utiibeauty/parlour/services/admin-console/internal/dashboard"
	"github.com/utiibeauty/parlour/services/admin-console/internal/shopstatus"
	"github.com/utiibeauty/parlour/services/admin-console/internal/ui"
)

func (c *Console) render(w *workspace) {
	renderNav(c.term, w.shell.Nav())
	switch w.shell.ActiveSection() {
	case dashboard.SectionOverview:
		RenderShopStatus(c.term, w.status.State())
	case dashboard.SectionBookings:
		st := w.bookings.State()
		if st.Error != "" {
			c.term.Printf("%s\n", st.Error)
			return
		}
		renderBookings(c.term, st.Bookings)
	case dashboard.SectionReviews:
		st := w.reviews.State()
		if st.Error != "" {
			c.term.Printf("%s\n", st.Error)
			return
		}
		RenderReviews(c.term, st.Reviews, true)
	}
}

func renderNav(t *ui.Terminal, nav dashboard.Nav) {
	labels := make([]string, 0, len(nav.Items))
	for _, it := range nav.Items {
		if it.Active {
			labels = append(labels, "["+it.Label+"]")
			continue
		}
		labels = append(labels, it.Label)
	}
	t.Printf("\n%s | %s\n%s    %s: %s\n", nav.Brand, nav.Title, strings.Join(labels, "  "), nav.SiteLabel, nav.SiteURL)
}

// RenderShopStatus prints the open/closed indicator.
func RenderShopStatus(t *ui.Terminal, st shopstatus.State) {
	switch {
	case st.Loading:
		t.Printf("Loading shop status...\n")
		return
	case st.Error != "":
		t.Printf("%s\n", st.Error)
	case st.NotConfigured:
		t.Printf("%s\n", shopstatus.NotConfiguredMessage)
	}
	if st.IsOpen {
		t.Printf("Shop is OPEN\n")
	} else {
		t.Printf("Shop is CLOSED\n")
	}
}

func renderBookings(t *ui.Terminal, rows []model.Booking) {
	if len(rows) == 0 {
		t.Printf("No bookings yet.\n")
		return
	}
	for i, b := range rows {
		paid := "deposit due"
		if b.DepositPaid {
			paid = "deposit paid"
		}
		t.Printf("%d. %s  %s  %s %s  %s  [%s]  %s\n",
			i+1, b.CustomerName, b.Service, b.PreferredDate, b.PreferredTime, b.Phone, b.Status, paid)
		if b.Notes != "" {
			t.Printf("   notes: %s\n", b.Notes)
		}
	}
}

// RenderReviews prints reviews newest first; moderation shows approval state.
func RenderReviews(t *ui.Terminal, rows []model.Review, moderation bool) {
	if len(rows) == 0 {
		t.Printf("No reviews yet.\n")
		return
	}
	for i, r := range rows {
		line := stars(r.Rating)
		state := ""
		if moderation {
			state = "  (pending)"
			if r.IsApproved {
				state = "  (approved)"
			}
		}
		t.Printf("%d. %s %s%s\n   %s\n", i+1, line, r.CustomerName, state, r.ReviewText)
	}
}

func stars(rating int) string {
	rating = max(model.MinRating, min(rating, model.MaxRating))
	return strings.Repeat("*", rating) + strings.Repeat(".", model.MaxRating-rating)
}
