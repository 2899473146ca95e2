package events

import "context"

// Event types
const (
	EventPaymentReceived = "payment_received"
)

// StreamPayments carries issuance events to dashboard subscribers.
const StreamPayments = "events:payments"

type Event struct {
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload"`
}

type Publisher interface {
	Publish(ctx context.Context, stream string, event Event) error
}

type Subscriber interface {
	Subscribe(ctx context.Context, stream string, handler func(Event)) error
}
