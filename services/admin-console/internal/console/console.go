// Package console is the interactive admin session: login, then a command
// loop over the dashboard sections.
package console

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"

	"github.com/utiibeauty/parlour/libs/model"
	"github.com/utiibeauty/parlour/services/admin-console/internal/bookings"
	"github.com/utiibeauty/parlour/services/admin-console/internal/dashboard"
	"github.com/utiibeauty/parlour/services/admin-console/internal/gateway"
	"github.com/utiibeauty/parlour/services/admin-console/internal/guard"
	"github.com/utiibeauty/parlour/services/admin-console/internal/kvstore"
	"github.com/utiibeauty/parlour/services/admin-console/internal/resync"
	"github.com/utiibeauty/parlour/services/admin-console/internal/reviews"
	"github.com/utiibeauty/parlour/services/admin-console/internal/shopstatus"
	"github.com/utiibeauty/parlour/services/admin-console/internal/ui"
)

type Config struct {
	Gateway  gateway.Gateway
	Terminal *ui.Terminal
	Opener   ui.Opener
	Store    kvstore.Store
	SiteURL  string
	// ReadPassword reads without echo. Nil reads a plain line.
	ReadPassword func(prompt string) (string, error)
	Logger       *slog.Logger
}

type Console struct {
	cfg      Config
	term     *ui.Terminal
	pipeline *resync.Pipeline
	guard    *guard.Guard
	logger   *slog.Logger
}

func New(cfg Config) *Console {
	c := &Console{
		cfg:      cfg,
		term:     cfg.Terminal,
		pipeline: resync.New(cfg.Terminal, cfg.Terminal, cfg.Logger),
		logger:   cfg.Logger,
	}
	c.guard = guard.New(cfg.Gateway, c.newWorkspace, cfg.Logger)
	return c
}

// workspace is one signed-in dashboard with its section managers.
type workspace struct {
	shell    *dashboard.Shell
	status   *shopstatus.Controller
	bookings *bookings.Manager
	reviews  *reviews.Manager
	opened   bool
}

func (w *workspace) Close() { w.shell.Close() }

func (c *Console) newWorkspace(logout func(ctx context.Context) error) guard.Dashboard {
	w := &workspace{
		status:   shopstatus.NewController(c.cfg.Gateway, c.pipeline, c.logger),
		bookings: bookings.NewManager(c.cfg.Gateway, c.pipeline, c.cfg.Opener, c.logger),
		reviews:  reviews.NewManager(c.cfg.Gateway, c.pipeline, c.logger),
	}
	w.shell = dashboard.New(dashboard.Config{
		Store:     c.cfg.Store,
		Confirmer: c.cfg.Terminal,
		Opener:    c.cfg.Opener,
		SiteURL:   c.cfg.SiteURL,
		Logout:    logout,
		Sections: map[dashboard.Section]dashboard.Loader{
			dashboard.SectionOverview: w.status,
			dashboard.SectionBookings: w.bookings,
			dashboard.SectionReviews:  w.reviews,
		},
		Logger: c.logger,
	})
	return w
}

// Run drives the session until input ends, the admin quits or ctx is done.
func (c *Console) Run(ctx context.Context) error {
	c.guard.Mount(ctx)
	defer c.guard.Unmount()

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		var err error
		switch c.guard.View() {
		case guard.ViewLogin:
			err = c.login(ctx)
		case guard.ViewDashboard:
			w, _ := c.guard.Dashboard().(*workspace)
			if w == nil {
				continue
			}
			err = c.dashboardStep(ctx, w)
		default:
			continue
		}
		if errors.Is(err, errQuit) || errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
	}
}

var errQuit = errors.New("quit")

func (c *Console) login(ctx context.Context) error {
	c.term.Printf("\nUTII Beauty Parlour admin login\n")
	email, err := c.term.ReadLine("Email: ")
	if err != nil {
		return err
	}
	password, err := c.readPassword("Password: ")
	if err != nil {
		return err
	}
	c.guard.SetCredentials(email, password)
	c.guard.Login(ctx)
	if msg := c.guard.Form().Error; msg != "" {
		c.term.Printf("Login failed: %s\n", msg)
	}
	return nil
}

func (c *Console) readPassword(prompt string) (string, error) {
	if c.cfg.ReadPassword != nil {
		return c.cfg.ReadPassword(prompt)
	}
	return c.term.ReadLine(prompt)
}

func (c *Console) dashboardStep(ctx context.Context, w *workspace) error {
	if !w.opened {
		w.shell.Open(ctx)
		w.opened = true
		c.render(w)
	}
	line, err := c.term.ReadLine(prompt(w.shell.ActiveSection()))
	if err != nil {
		return err
	}
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	return c.dispatch(ctx, w, fields[0], fields[1:])
}

func prompt(s dashboard.Section) string {
	return fmt.Sprintf("admin/%s> ", s)
}

func (c *Console) dispatch(ctx context.Context, w *workspace, cmd string, args []string) error {
	switch cmd {
	case "quit", "exit":
		return errQuit
	case "help", "?":
		c.term.Printf("%s", helpText)
	case "overview", "reviews", "bookings":
		if err := w.shell.SetSection(ctx, dashboard.Section(cmd)); err != nil {
			return err
		}
		c.render(w)
	case "refresh", "ls":
		w.shell.Refresh(ctx)
		c.render(w)
	case "toggle":
		w.status.Toggle(ctx)
		c.render(w)
	case "pending", "confirm", "cancel":
		b, ok := c.pickBooking(w, args)
		if !ok {
			return nil
		}
		w.bookings.UpdateStatus(ctx, b.ID, statusFor(cmd))
		c.render(w)
	case "delete", "rm":
		c.delete(ctx, w, args)
		c.render(w)
	case "contact":
		b, ok := c.pickBooking(w, args)
		if !ok {
			return nil
		}
		link, err := w.bookings.ContactCustomer(b.Phone, b.CustomerName)
		if err != nil {
			c.term.Printf("Could not open WhatsApp. Link: %s\n", link)
		}
	case "seed":
		w.bookings.Seed(ctx)
		c.render(w)
	case "site":
		if err := w.shell.BackToSite(); err != nil {
			c.term.Printf("Could not open %s: %v\n", c.cfg.SiteURL, err)
		}
	case "logout":
		if _, err := w.shell.RequestLogout(ctx); err != nil {
			c.term.Printf("Logout failed: %v\n", err)
		}
	default:
		c.term.Printf("unknown command %q, type help\n", cmd)
	}
	return nil
}

func statusFor(cmd string) model.BookingStatus {
	switch cmd {
	case "confirm":
		return model.BookingConfirmed
	case "cancel":
		return model.BookingCancelled
	}
	return model.BookingPending
}

func (c *Console) delete(ctx context.Context, w *workspace, args []string) {
	switch w.shell.ActiveSection() {
	case dashboard.SectionBookings:
		if b, ok := c.pickBooking(w, args); ok {
			w.bookings.Delete(ctx, b.ID)
		}
	case dashboard.SectionReviews:
		if r, ok := c.pickReview(w, args); ok {
			w.reviews.Delete(ctx, r.ID)
		}
	default:
		c.term.Printf("switch to bookings or reviews to delete\n")
	}
}

// pickBooking resolves a 1-based row number from the last listing.
func (c *Console) pickBooking(w *workspace, args []string) (model.Booking, bool) {
	rows := w.bookings.State().Bookings
	i, ok := c.rowIndex(args, len(rows))
	if !ok {
		return model.Booking{}, false
	}
	return rows[i], true
}

func (c *Console) pickReview(w *workspace, args []string) (model.Review, bool) {
	rows := w.reviews.State().Reviews
	i, ok := c.rowIndex(args, len(rows))
	if !ok {
		return model.Review{}, false
	}
	return rows[i], true
}

func (c *Console) rowIndex(args []string, n int) (int, bool) {
	if len(args) != 1 {
		c.term.Printf("expected a row number\n")
		return 0, false
	}
	i, err := strconv.Atoi(args[0])
	if err != nil || i < 1 || i > n {
		c.term.Printf("no row %q\n", args[0])
		return 0, false
	}
	return i - 1, true
}

const helpText = `commands:
  overview | reviews | bookings   switch section
  refresh                         reload the current section
  toggle                          open or close the shop (overview)
  pending|confirm|cancel <n>      set booking status (bookings)
  contact <n>                     message the customer on WhatsApp (bookings)
  seed                            add a sample booking when there are none
  delete <n>                      delete a booking or review
  site                            open the public website
  logout                          sign out
  quit                            leave the console
`
