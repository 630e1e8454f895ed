// Package service mirrors the processed log into Postgres and, when configured, ClickHouse
package service

import (
	"context"
	"time"

	perr "helix/internal/platform/errors"
	"helix/internal/platform/logger"
	"helix/internal/platform/store"
	"helix/internal/services/archive/domain"
	records "helix/internal/services/records/domain"

	"github.com/google/uuid"
)

// Binder binds archive storage to a querier or transaction
type Binder func(q store.RowQuerier) domain.Storage

// Config tunes the archive loop
type Config struct {
	Reader   string
	Batch    int
	Interval time.Duration
}

// Svc is a Tailer-side consumer with a cursor persisted next to the rows it covers
type Svc struct {
	tailer   records.TailerPort
	notifier records.NotifierPort
	db       store.TxRunner
	bind     Binder
	ch       domain.Analytics
	cfg      Config
	log      logger.Logger
	newID    func() uuid.UUID

	cur    records.Cursor
	loaded bool
}

// New wires the archive; notifier and ch may be nil
func New(t records.TailerPort, n records.NotifierPort, db store.TxRunner, bind Binder, ch domain.Analytics, cfg Config) *Svc {
	if cfg.Reader == "" {
		cfg.Reader = "archive"
	}
	if cfg.Batch <= 0 {
		cfg.Batch = 256
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 2 * time.Second
	}
	return &Svc{
		tailer:   t,
		notifier: n,
		db:       db,
		bind:     bind,
		ch:       ch,
		cfg:      cfg,
		log:      *logger.Named("archive"),
		newID:    uuid.New,
	}
}

// Cursor returns the last committed cursor
func (s *Svc) Cursor() records.Cursor { return s.cur }

// Prepare creates tables and loads the persisted cursor
func (s *Svc) Prepare(ctx context.Context) error {
	st := s.bind(s.db)
	if err := st.EnsureSchema(ctx); err != nil {
		return err
	}
	if s.ch != nil {
		if err := s.ch.EnsureSchema(ctx); err != nil {
			return err
		}
	}
	cur, err := st.LoadCursor(ctx, s.cfg.Reader)
	if err != nil {
		return err
	}
	s.cur, s.loaded = cur, true
	s.log.Info().Str("reader", s.cfg.Reader).Int64("cursor", cur.Offset).Msg("archive resuming")
	return nil
}

// Run mirrors until ctx is done. Retryable database errors are retried on the next tick;
// anything else stops the loop
func (s *Svc) Run(ctx context.Context) error {
	if !s.loaded {
		if err := s.Prepare(ctx); err != nil {
			return err
		}
	}

	var wake <-chan struct{}
	if s.notifier != nil {
		if ch, err := s.notifier.Subscribe(ctx); err != nil {
			s.log.Warn().Err(err).Msg("log watch unavailable; polling only")
		} else {
			wake = ch
		}
	}
	t := time.NewTicker(s.cfg.Interval)
	defer t.Stop()

	for {
		n, err := s.Step(ctx)
		switch {
		case ctx.Err() != nil:
			return nil
		case err != nil && perr.Retryable(err):
			s.log.Warn().Err(err).Msg("archive step failed; will retry")
		case err != nil:
			return err
		case n >= s.cfg.Batch:
			// more is probably waiting
			continue
		}

		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
		case _, ok := <-wake:
			if !ok {
				wake = nil
			}
		}
	}
}

// Step archives at most one batch and returns how many records it committed
func (s *Svc) Step(ctx context.Context) (int, error) {
	recs, next, err := s.tailer.TailN(ctx, s.cur, s.cfg.Batch)
	if err != nil {
		return 0, err
	}
	if len(recs) == 0 && next == s.cur {
		return 0, nil
	}

	rows := make([]domain.ArchivedRecord, 0, len(recs))
	for _, r := range recs {
		rows = append(rows, domain.ArchivedRecord{
			ID:        s.newID(),
			Reader:    s.cfg.Reader,
			Timestamp: r.Timestamp,
			Text:      r.Text,
			Entities:  r.Entities,
		})
	}

	err = s.db.Tx(ctx, func(q store.RowQuerier) error {
		st := s.bind(q)
		if err := st.InsertRecords(ctx, rows); err != nil {
			return err
		}
		return st.SaveCursor(ctx, s.cfg.Reader, next)
	})
	if err != nil {
		return 0, err
	}
	s.cur = next

	if s.ch != nil && len(rows) > 0 {
		var ms []domain.Mention
		for _, r := range rows {
			ms = append(ms, r.Mentions(s.newID)...)
		}
		// postgres is the source of truth; a lost analytics batch is logged, not retried
		if err := s.ch.InsertMentions(ctx, ms); err != nil {
			s.log.Error().Err(err).Int("mentions", len(ms)).Msg("clickhouse insert failed")
		}
	}

	s.log.Debug().Int("records", len(rows)).Int64("cursor", next.Offset).Msg("archived batch")
	return len(rows), nil
}
