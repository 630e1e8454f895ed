package domain

import "context"

// Message is one broker delivery
type Message interface {
	Body() []byte
	Redelivered() bool
	Ack() error
	Nack(requeue bool) error
}

// Session is an open consuming channel on a declared queue
type Session interface {
	// Next blocks for the next delivery. A lost connection returns an Unavailable error;
	// a done ctx returns ctx.Err()
	Next(ctx context.Context) (Message, error)
	Close() error
}

// Source opens sessions
type Source interface {
	// Connect dials, declares the queue and starts consuming
	Connect(ctx context.Context) (Session, error)
}

// StatePort exposes consumer progress to health endpoints
type StatePort interface {
	State() State
	Stats() Stats
}
