package outbox

import "encoding/json"

// Event is the domain event envelope written to the outbox table.
// The Kafka topic name equals EventType.
type Event struct {
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}

const (
	TopicShopStatusUpdated    = "parlour.shop_status.updated.v1"
	TopicBookingSubmitted     = "parlour.booking.submitted.v1"
	TopicBookingStatusChanged = "parlour.booking.status_changed.v1"
	TopicBookingDeleted       = "parlour.booking.deleted.v1"
	TopicReviewSubmitted      = "parlour.review.submitted.v1"
	TopicReviewDeleted        = "parlour.review.deleted.v1"
)

// NewEvent marshals payload into an Event.
func NewEvent(aggregateType, aggregateID, eventType string, payload any) (Event, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}
	return Event{
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		EventType:     eventType,
		Payload:       raw,
	}, nil
}
