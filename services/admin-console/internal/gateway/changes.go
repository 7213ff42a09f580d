package gateway

import (
	"context"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/utiibeauty/parlour/libs/model"
)

const (
	minBackoff = 500 * time.Millisecond
	maxBackoff = 30 * time.Second
)

// SubscribeShopStatus streams shop-status UPDATE notifications to fn until
// the subscription is cancelled or ctx ends. Dropped connections are redialed
// with backoff, and after each redial the current row is read and delivered
// as an UPDATE so changes missed while disconnected are not lost.
//
// fn runs on a single delivery goroutine and is never called after
// Unsubscribe returns. Unsubscribe waits for that goroutine, so fn must not
// call it; doing so deadlocks.
func (c *Client) SubscribeShopStatus(ctx context.Context, fn func(model.ShopStatusChange)) (Subscription, error) {
	wsURL := *c.base
	switch wsURL.Scheme {
	case "https":
		wsURL.Scheme = "wss"
	default:
		wsURL.Scheme = "ws"
	}
	wsURL.Path = wsURL.Path + "/api/v1/shop-status/changes"
	target := wsURL.String()

	subCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		backoff := minBackoff
		connected := false
		for {
			conn, _, err := websocket.DefaultDialer.DialContext(subCtx, target, http.Header{})
			if err != nil {
				if subCtx.Err() != nil {
					return
				}
				c.logger.Warn("shop status subscription dial failed", "err", err, "retry_in", backoff)
				select {
				case <-subCtx.Done():
					return
				case <-time.After(backoff):
				}
				backoff = min(backoff*2, maxBackoff)
				continue
			}
			backoff = minBackoff
			if connected {
				c.resync(subCtx, fn)
			}
			connected = true
			c.readChanges(subCtx, conn, fn)
			if subCtx.Err() != nil {
				return
			}
		}
	}()

	var once sync.Once
	return SubscriptionFunc(func() {
		once.Do(func() {
			cancel()
			<-done
		})
	}), nil
}

// resync delivers the stored row after a reconnect. A missing row or a failed
// read is logged and skipped; the stream carries on either way.
func (c *Client) resync(ctx context.Context, fn func(model.ShopStatusChange)) {
	row, err := c.CurrentShopStatus(ctx)
	if err != nil {
		if ctx.Err() == nil {
			c.logger.Warn("shop status resync failed", "err", err)
		}
		return
	}
	if row == nil || ctx.Err() != nil {
		return
	}
	fn(model.ShopStatusChange{Event: model.EventUpdate, Table: model.TableShopStatus, New: *row})
}

func (c *Client) readChanges(ctx context.Context, conn *websocket.Conn, fn func(model.ShopStatusChange)) {
	stop := make(chan struct{})
	defer close(stop)
	go func() {
		select {
		case <-ctx.Done():
		case <-stop:
		}
		_ = conn.Close()
	}()

	for {
		var change model.ShopStatusChange
		if err := conn.ReadJSON(&change); err != nil {
			if ctx.Err() == nil {
				c.logger.Info("shop status subscription dropped", "err", err)
			}
			return
		}
		if ctx.Err() != nil {
			return
		}
		if change.Table != model.TableShopStatus || change.Event != model.EventUpdate {
			continue
		}
		fn(change)
	}
}
