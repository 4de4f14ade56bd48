package receipt

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/c360studio/knowhook/hooks"
)

// Subject receipts are published on.
const EvaluationSubject = "knowhook.receipt.evaluation"

// Publisher publishes evaluation receipts to NATS so downstream
// consumers (dashboards, audit stores) can ingest them.
type Publisher struct {
	nc      *nats.Conn
	subject string
}

// NewPublisher creates a publisher. A nil connection yields a no-op
// publisher, so callers without NATS configured degrade gracefully.
func NewPublisher(nc *nats.Conn, subject string) *Publisher {
	if subject == "" {
		subject = EvaluationSubject
	}
	return &Publisher{nc: nc, subject: subject}
}

// Record publishes the receipt.
func (p *Publisher) Record(ctx context.Context, res *hooks.EvaluationResult) error {
	if p.nc == nil {
		return nil
	}

	data, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("marshal receipt: %w", err)
	}
	if err := p.nc.Publish(p.subject, data); err != nil {
		return fmt.Errorf("publish receipt: %w", err)
	}
	return nil
}
