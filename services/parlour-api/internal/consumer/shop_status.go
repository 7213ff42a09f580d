package consumer

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"
	"github.com/utiibeauty/parlour/libs/model"
)

// ShopStatusPublisher receives decoded shop-status changes.
type ShopStatusPublisher interface {
	PublishShopStatus(status model.ShopStatus)
}

// ShopStatusHandler relays shop_status UPDATE events to pub.
func ShopStatusHandler(pub ShopStatusPublisher) Handler {
	return func(_ context.Context, msg kafka.Message) error {
		var change model.ShopStatusChange
		if err := json.Unmarshal(msg.Value, &change); err != nil {
			return fmt.Errorf("decode shop status change: %w", err)
		}
		if change.Table != model.TableShopStatus || change.Event != model.EventUpdate {
			return nil
		}
		pub.PublishShopStatus(change.New)
		return nil
	}
}
