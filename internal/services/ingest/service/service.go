// Package service runs the stream consumer: receive, redact, extract, persist, ack
package service

import (
	"context"
	"sync/atomic"
	"time"

	"helix/internal/core/extract"
	perr "helix/internal/platform/errors"
	"helix/internal/platform/logger"
	"helix/internal/platform/net/http/bind"
	"helix/internal/services/ingest/domain"
	records "helix/internal/services/records/domain"

	"github.com/google/uuid"
)

// Redactor masks identifiers in a note
type Redactor interface {
	Deidentify(text string) string
}

// Extractor finds clinical entities in redacted text
type Extractor interface {
	Extract(ctx context.Context, text string) ([]extract.Entity, error)
}

// Config tunes the consumer loop
type Config struct {
	RetryDelay time.Duration
	MaxBytes   int64
}

// Svc is a single serial consumer
type Svc struct {
	src      domain.Source
	redactor Redactor
	extract  Extractor
	appender records.AppenderPort
	cfg      Config
	log      logger.Logger

	state     atomic.Int32
	received  atomic.Int64
	persisted atomic.Int64
	dropped   atomic.Int64
	connects  atomic.Int64

	sleep func(ctx context.Context, d time.Duration) bool
	newID func() string
}

var _ domain.StatePort = (*Svc)(nil)

// New wires the consumer
func New(src domain.Source, r Redactor, x Extractor, app records.AppenderPort, cfg Config) *Svc {
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = 5 * time.Second
	}
	if cfg.MaxBytes <= 0 {
		cfg.MaxBytes = 1 << 20
	}
	return &Svc{
		src:      src,
		redactor: r,
		extract:  x,
		appender: app,
		cfg:      cfg,
		log:      *logger.Named("ingest"),
		sleep:    sleepCtx,
		newID:    uuid.NewString,
	}
}

// State returns the current lifecycle position
func (s *Svc) State() domain.State { return domain.State(s.state.Load()) }

// Stats returns a snapshot of the counters
func (s *Svc) Stats() domain.Stats {
	return domain.Stats{
		State:     s.State().String(),
		Received:  s.received.Load(),
		Persisted: s.persisted.Load(),
		Dropped:   s.dropped.Load(),
		Connects:  s.connects.Load(),
	}
}

func (s *Svc) set(st domain.State) {
	if prev := domain.State(s.state.Swap(int32(st))); prev != st {
		s.log.Debug().Str("from", prev.String()).Str("to", st.String()).Msg("consumer state")
	}
}

// Run consumes until ctx is done (returns nil) or a record cannot be persisted (returns the error).
// Connection failures are retried forever after a fixed delay
func (s *Svc) Run(ctx context.Context) error {
	defer s.set(domain.Disconnected)
	for {
		if ctx.Err() != nil {
			return nil
		}
		s.set(domain.Connecting)
		sess, err := s.src.Connect(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			s.log.Warn().Err(err).Dur("retry_in", s.cfg.RetryDelay).Msg("broker unavailable")
			if !s.sleep(ctx, s.cfg.RetryDelay) {
				return nil
			}
			continue
		}
		s.connects.Add(1)
		s.log.Info().Msg("consuming")

		err = s.receive(ctx, sess)
		if cerr := sess.Close(); cerr != nil {
			s.log.Debug().Err(cerr).Msg("close session")
		}
		switch {
		case err == nil:
			return nil
		case perr.IsCode(err, perr.ErrorCodePersist):
			s.log.Error().Err(err).Msg("persist failed; stopping without ack")
			return err
		default:
			s.log.Warn().Err(err).Msg("connection lost; reconnecting")
		}
	}
}

func (s *Svc) receive(ctx context.Context, sess domain.Session) error {
	for {
		s.set(domain.Receiving)
		msg, err := sess.Next(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		s.set(domain.Processing)
		// the current message finishes even if shutdown starts now
		if err := s.Handle(context.WithoutCancel(ctx), msg); err != nil {
			return err
		}
		s.set(domain.Persisted)
	}
}

// Handle processes one delivery. Bad payloads and extraction failures are acked and dropped.
// A persist failure leaves the delivery unacked and is returned
func (s *Svc) Handle(ctx context.Context, msg domain.Message) error {
	s.received.Add(1)
	ctx = logger.WithDelivery(ctx, s.newID())
	log := logger.C(ctx).With().Str("component", "ingest").Logger()
	body := msg.Body()

	note, err := bind.Bytes[domain.Note](body, bind.Options{MaxBytes: s.cfg.MaxBytes})
	if err != nil {
		log.Warn().Err(err).Int("bytes", len(body)).Bool("redelivered", msg.Redelivered()).Msg("dropping undecodable note")
		return s.drop(msg)
	}

	masked := s.redactor.Deidentify(*note.Note)
	ents, err := s.extract.Extract(ctx, masked)
	if err != nil {
		log.Warn().Err(err).Int("chars", len(masked)).Msg("dropping note after extraction failure")
		return s.drop(msg)
	}

	rec := records.NewRecord(*note.Timestamp, masked, ents)
	if err := s.appender.Append(ctx, rec); err != nil {
		return perr.Wrap(err, perr.ErrorCodePersist, "append record")
	}
	if err := msg.Ack(); err != nil {
		// record is durable; the broker will redeliver and the log gets a duplicate
		return err
	}
	s.persisted.Add(1)
	log.Debug().Int("entities", len(ents)).Msg("note persisted")
	return nil
}

func (s *Svc) drop(msg domain.Message) error {
	s.dropped.Add(1)
	return msg.Ack()
}

// sleepCtx waits d or until ctx is done; false means ctx ended first
func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
