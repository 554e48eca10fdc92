package events

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Event is the envelope every broker receives.
type Event struct {
	EventType  string          `json:"event_type"`
	OccurredAt time.Time       `json:"occurred_at"`
	Data       json.RawMessage `json:"data"`
}

type Publisher interface {
	Publish(ctx context.Context, subject string, v any) error
	Close() error
}

func Encode(subject string, v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal %s payload: %w", subject, err)
	}
	return json.Marshal(Event{EventType: subject, OccurredAt: time.Now().UTC(), Data: data})
}

type Options struct {
	Broker           string
	RabbitMQURL      string
	RabbitMQExchange string
	NatsURL          string
}

// New connects to the configured broker. "none" or an empty broker yields a
// publisher that discards events.
func New(opts Options) (Publisher, error) {
	switch strings.ToLower(strings.TrimSpace(opts.Broker)) {
	case "", "none":
		return NoopPublisher{}, nil
	case "rabbitmq":
		return NewRabbitPublisher(opts.RabbitMQURL, opts.RabbitMQExchange)
	case "nats":
		return NewNatsPublisher(opts.NatsURL)
	default:
		return nil, fmt.Errorf("unknown event broker %q", opts.Broker)
	}
}

type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, string, any) error { return nil }

func (NoopPublisher) Close() error { return nil }
