package shopstatus

import (
	"context"
	"log/slog"
	"sync"

	"github.com/utiibeauty/parlour/libs/model"
	"github.com/utiibeauty/parlour/services/admin-console/internal/gateway"
)

// Watcher is the public indicator. After the initial read it follows change
// notifications and takes is_open straight from their payload.
type Watcher struct {
	gw     gateway.ShopStatuses
	logger *slog.Logger

	// OnChange, when set, receives every new state. Set before Start.
	OnChange func(State)

	mu      sync.Mutex
	state   State
	sub     gateway.Subscription
	stopped bool
	stop    sync.Once
}

func NewWatcher(gw gateway.ShopStatuses, logger *slog.Logger) *Watcher {
	return &Watcher{gw: gw, logger: logger, state: State{IsOpen: true, Loading: true}}
}

func (w *Watcher) State() State {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.state
}

// Start reads the current row once and subscribes to changes. A failed
// subscription leaves the initial value in place.
func (w *Watcher) Start(ctx context.Context) error {
	row, err := w.gw.CurrentShopStatus(ctx)
	w.apply(func(s *State) {
		s.Loading = false
		switch {
		case err != nil:
			s.Error = loadFailedMessage
		case row == nil:
			s.NotConfigured = true
		default:
			s.IsOpen = row.IsOpen
		}
	})
	if err != nil {
		w.logger.Warn("initial shop status read failed", "err", err)
	}

	sub, err := w.gw.SubscribeShopStatus(ctx, w.onChange)
	if err != nil {
		w.logger.Warn("shop status subscription failed", "err", err)
		return err
	}
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		sub.Unsubscribe()
		return nil
	}
	w.sub = sub
	w.mu.Unlock()
	return nil
}

func (w *Watcher) onChange(change model.ShopStatusChange) {
	if change.Event != model.EventUpdate || change.Table != model.TableShopStatus {
		return
	}
	w.apply(func(s *State) {
		s.IsOpen = change.New.IsOpen
		s.NotConfigured = false
		s.Error = ""
	})
}

// Stop unsubscribes. Safe to call more than once.
func (w *Watcher) Stop() {
	w.stop.Do(func() {
		w.mu.Lock()
		w.stopped = true
		sub := w.sub
		w.sub = nil
		w.mu.Unlock()
		if sub != nil {
			sub.Unsubscribe()
		}
	})
}

func (w *Watcher) apply(fn func(*State)) {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return
	}
	fn(&w.state)
	snapshot := w.state
	cb := w.OnChange
	w.mu.Unlock()
	if cb != nil {
		cb(snapshot)
	}
}
