package amqp

import (
	"context"
	"encoding/json"
	"sync"

	perr "helix/internal/platform/errors"
	"helix/internal/services/ingest/domain"

	amqp091 "github.com/rabbitmq/amqp091-go"
)

// Publisher sends notes to the queue. It is used by tooling and integration tests
type Publisher struct {
	opts Options
	mu   sync.Mutex
	conn *amqp091.Connection
	ch   *amqp091.Channel
}

// NewPublisher dials the broker and declares the queue
func NewPublisher(ctx context.Context, o Options) (*Publisher, error) {
	o = o.withDefaults()
	conn, ch, err := open(ctx, o)
	if err != nil {
		return nil, err
	}
	return &Publisher{opts: o, conn: conn, ch: ch}, nil
}

// PublishNote encodes and publishes one note
func (p *Publisher) PublishNote(ctx context.Context, text string, ts float64) error {
	b, err := json.Marshal(domain.Note{Note: &text, Timestamp: &ts})
	if err != nil {
		return perr.Wrap(err, perr.ErrorCodeJSON, "encode note")
	}
	return p.Publish(ctx, b)
}

// Publish sends a raw body to the queue via the default exchange
func (p *Publisher) Publish(ctx context.Context, body []byte) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	mode := amqp091.Transient
	if p.opts.Durable {
		mode = amqp091.Persistent
	}
	err := p.ch.PublishWithContext(ctx, "", p.opts.Queue, false, false, amqp091.Publishing{
		ContentType:  "application/json",
		DeliveryMode: mode,
		Body:         body,
	})
	return perr.WrapIf(err, perr.ErrorCodeUnavailable, "publish note")
}

// Close releases the channel and connection
func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	closeAll(p.ch, p.conn)
	return nil
}
