package events

import (
	"context"
	"encoding/json"
	"time"
)

const (
	CartMerged             = "cart.merged"
	OrderCreated           = "order.created"
	OrderStatusChanged     = "order.status_changed"
	OrderPersistenceFailed = "order.persistence_failed"
)

// Event is a fact about the storefront. Key orders events of the same
// aggregate (an order number or cart id) on one partition.
type Event struct {
	Type       string          `json:"type"`
	Key        string          `json:"key"`
	Payload    json.RawMessage `json:"payload"`
	OccurredAt time.Time       `json:"occurredAt"`
}

// New marshals payload into an event stamped with the current time.
func New(eventType, key string, payload any) (Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}
	return Event{Type: eventType, Key: key, Payload: data, OccurredAt: time.Now().UTC()}, nil
}

type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}
