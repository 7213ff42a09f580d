package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/alecthomas/kong"
	"golang.org/x/term"

	"github.com/utiibeauty/parlour/libs/model"
	otelx "github.com/utiibeauty/parlour/libs/otel"
	"github.com/utiibeauty/parlour/libs/runtime"
	"github.com/utiibeauty/parlour/services/admin-console/internal/bookings"
	"github.com/utiibeauty/parlour/services/admin-console/internal/console"
	"github.com/utiibeauty/parlour/services/admin-console/internal/gateway"
	"github.com/utiibeauty/parlour/services/admin-console/internal/kvstore"
	"github.com/utiibeauty/parlour/services/admin-console/internal/resync"
	"github.com/utiibeauty/parlour/services/admin-console/internal/reviews"
	"github.com/utiibeauty/parlour/services/admin-console/internal/ui"
)

const serviceName = "parlour-admin"

type cli struct {
	Console consoleCmd `cmd:"" default:"1" help:"Sign in and manage shop status, bookings and reviews."`
	Status  statusCmd  `cmd:"" help:"Watch the public open/closed indicator."`
	Reviews reviewsCmd `cmd:"" help:"List approved reviews."`
	Review  reviewCmd  `cmd:"" help:"Submit a customer review."`
	Book    bookCmd    `cmd:"" help:"Request an appointment over WhatsApp."`
	Logout  logoutCmd  `cmd:"" help:"Sign out and forget the saved session."`
}

// app is bound into every command's Run.
type app struct {
	ctx    context.Context
	cfg    adminConfig
	logger *slog.Logger
	gw     *gateway.Client
	store  kvstore.Store
	term   *ui.Terminal
	opener ui.Opener
}

func main() {
	var c cli
	kctx := kong.Parse(&c,
		kong.Name(serviceName),
		kong.Description("Admin console for the UTII Beauty Parlour site."),
		kong.UsageOnError(),
	)

	logger := runtime.NewConsoleLogger(serviceName)
	if err := run(kctx, logger); err != nil {
		logger.Error("command failed", "command", kctx.Command(), "err", err)
		os.Exit(1)
	}
}

func run(kctx *kong.Context, logger *slog.Logger) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := runtime.SignalContext(context.Background())
	defer stop()

	otelShutdown, err := otelx.Setup(ctx, cfg.Tracing)
	if err != nil {
		logger.Warn("otel setup failed", "err", err)
	} else {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = otelShutdown(shutdownCtx)
		}()
	}

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	return kctx.Run(a)
}

func newApp(ctx context.Context, cfg adminConfig, logger *slog.Logger) (*app, error) {
	store, err := kvstore.OpenFile(cfg.StateFile)
	if err != nil {
		return nil, err
	}
	gw, err := gateway.New(gateway.Config{
		BaseURL: cfg.APIURL,
		Store:   store,
		Logger:  logger,
	})
	if err != nil {
		return nil, err
	}
	return &app{
		ctx:    ctx,
		cfg:    cfg,
		logger: logger,
		gw:     gw,
		store:  store,
		term:   ui.NewTerminal(os.Stdin, os.Stdout),
		opener: ui.BrowserOpener{Fallback: os.Stdout},
	}, nil
}

// readPassword reads without echo when stdin is a terminal.
func (a *app) readPassword() func(string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return nil
	}
	return func(prompt string) (string, error) {
		a.term.Printf("%s", prompt)
		raw, err := term.ReadPassword(fd)
		a.term.Printf("\n")
		if err != nil {
			return "", fmt.Errorf("read password: %w", err)
		}
		return string(raw), nil
	}
}

type consoleCmd struct{}

func (consoleCmd) Run(a *app) error {
	return console.New(console.Config{
		Gateway:      a.gw,
		Terminal:     a.term,
		Opener:       a.opener,
		Store:        a.store,
		SiteURL:      a.cfg.SiteURL,
		ReadPassword: a.readPassword(),
		Logger:       a.logger,
	}).Run(a.ctx)
}

type statusCmd struct{}

func (statusCmd) Run(a *app) error {
	return console.WatchShopStatus(a.ctx, a.gw, a.term, a.logger)
}

type reviewsCmd struct{}

func (reviewsCmd) Run(a *app) error {
	console.ShowReviews(a.ctx, a.gw, a.term, a.logger)
	return nil
}

type reviewCmd struct {
	Name   string `required:"" help:"Your name."`
	Rating int    `default:"5" help:"Stars from 1 to 5."`
	Text   string `required:"" help:"Your review."`
}

func (cmd *reviewCmd) Run(a *app) error {
	out, err := console.SubmitReview(a.ctx, a.gw, a.term, reviews.Form{
		Name:       cmd.Name,
		Rating:     cmd.Rating,
		ReviewText: cmd.Text,
	}, a.logger)
	if err != nil {
		return err
	}
	if out != resync.Applied {
		return errors.New("review not submitted")
	}
	return nil
}

type bookCmd struct {
	Name          string `required:"" help:"Your name."`
	Phone         string `required:"" help:"Phone number with country code."`
	Service       string `required:"" help:"Service to book (see the services menu)."`
	Date          string `required:"" help:"Preferred date, YYYY-MM-DD."`
	Time          string `required:"" help:"Preferred time, e.g. 15:30."`
	Notes         string `help:"Anything the parlour should know."`
	AcceptDeposit bool   `name:"accept-deposit" help:"Accept the ₹100 pre-booking deposit."`
}

func (cmd *bookCmd) Validate() error {
	if !model.IsKnownService(cmd.Service) {
		return fmt.Errorf("unknown service %q, choose one of %q", cmd.Service, model.Services)
	}
	return nil
}

func (cmd *bookCmd) Run(a *app) error {
	link, err := console.SubmitBooking(a.ctx, a.gw, a.term, a.opener, a.cfg.WhatsAppNumber, bookings.Form{
		Name:            cmd.Name,
		Phone:           cmd.Phone,
		Service:         cmd.Service,
		Date:            cmd.Date,
		Time:            cmd.Time,
		Notes:           cmd.Notes,
		DepositAccepted: cmd.AcceptDeposit,
	}, a.logger)
	if err != nil {
		return err
	}
	a.term.Printf("WhatsApp opened: %s\n", link)
	return nil
}

type logoutCmd struct{}

func (logoutCmd) Run(a *app) error {
	if err := a.gw.SignOut(a.ctx); err != nil {
		return err
	}
	a.term.Printf("Signed out.\n")
	return nil
}
