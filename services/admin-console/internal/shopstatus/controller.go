// Package shopstatus shows and toggles the storefront open/closed flag.
package shopstatus

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/utiibeauty/parlour/libs/model"
	"github.com/utiibeauty/parlour/services/admin-console/internal/gateway"
	"github.com/utiibeauty/parlour/services/admin-console/internal/resync"
)

// User-facing messages.
const (
	NotConfiguredMessage = "Shop status has not been set up yet."
	loadFailedMessage    = "Could not load shop status."
)

// State is a snapshot of the controller.
type State struct {
	IsOpen        bool
	Loading       bool
	Updating      bool
	NotConfigured bool
	Error         string
}

// Controller is the admin toggle. Local IsOpen only changes by re-reading the
// backend.
type Controller struct {
	gw       gateway.ShopStatuses
	pipeline *resync.Pipeline
	logger   *slog.Logger
	now      func() time.Time

	mu     sync.Mutex
	state  State
	closed bool
}

func NewController(gw gateway.ShopStatuses, pipeline *resync.Pipeline, logger *slog.Logger) *Controller {
	return &Controller{
		gw:       gw,
		pipeline: pipeline,
		logger:   logger,
		now:      time.Now,
		state:    State{IsOpen: true, Loading: true},
	}
}

func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Fetch reads the singleton row. A missing row is not an error.
func (c *Controller) Fetch(ctx context.Context) {
	c.update(func(s *State) { s.Loading = true })

	row, err := c.gw.CurrentShopStatus(ctx)
	c.update(func(s *State) {
		s.Loading = false
		switch {
		case err != nil:
			s.Error = loadFailedMessage
		case row == nil:
			s.NotConfigured = true
			s.Error = ""
		default:
			s.IsOpen = row.IsOpen
			s.NotConfigured = false
			s.Error = ""
		}
	})
	if err != nil {
		c.logger.Error("fetch shop status failed", "err", err)
	}
}

// Toggle flips the stored flag. The row is re-read first so the write is
// based on the backend's value, not on what is displayed.
func (c *Controller) Toggle(ctx context.Context) {
	c.update(func(s *State) { s.Updating = true })
	defer c.update(func(s *State) { s.Updating = false })

	row, err := c.gw.CurrentShopStatus(ctx)
	if err != nil {
		c.logger.Error("re-read shop status failed", "err", err)
		c.update(func(s *State) { s.Error = loadFailedMessage })
		return
	}
	if row == nil {
		c.update(func(s *State) {
			s.NotConfigured = true
			s.Error = ""
		})
		return
	}

	c.pipeline.Run(ctx, resync.Mutation{
		Op: gateway.OpUpdateShopStatus,
		Mutate: func(ctx context.Context) error {
			_, err := c.gw.UpdateShopStatus(ctx, row.ID, model.ShopStatusPatch{
				IsOpen:    !row.IsOpen,
				UpdatedAt: c.now().UTC(),
				UpdatedBy: model.UpdatedByAdmin,
			})
			return err
		},
		Resync: c.Fetch,
	})
}

// Close detaches the controller; later results are dropped.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
}

func (c *Controller) update(fn func(*State)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	fn(&c.state)
}
