package events

import (
	"context"
	"log/slog"

	"github.com/nats-io/nats.go"
)

type NatsPublisher struct {
	conn *nats.Conn
}

func NewNatsPublisher(url string) (*NatsPublisher, error) {
	nc, err := nats.Connect(url, nats.Name("mixlab-api"))
	if err != nil {
		return nil, err
	}
	slog.Info("connected to nats", "url", nc.ConnectedUrl())
	return &NatsPublisher{conn: nc}, nil
}

func (p *NatsPublisher) Publish(ctx context.Context, subject string, v any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	body, err := Encode(subject, v)
	if err != nil {
		return err
	}
	if err := p.conn.Publish(subject, body); err != nil {
		slog.WarnContext(ctx, "error publishing to nats", "subject", subject, "error", err)
		return err
	}
	return nil
}

func (p *NatsPublisher) Close() error {
	if p.conn != nil {
		return p.conn.Drain()
	}
	return nil
}
