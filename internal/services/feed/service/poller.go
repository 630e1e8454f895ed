package service

import (
	"context"
	"sync"
	"time"

	"helix/internal/platform/logger"
	"helix/internal/services/feed/domain"
	records "helix/internal/services/records/domain"
)

// Config tunes the poll loop
type Config struct {
	Interval time.Duration
	Watch    bool
	Batch    int
}

// Svc tails the processed log into a Session and pages it for HTTP readers
type Svc struct {
	tailer   records.TailerPort
	notifier records.NotifierPort
	session  *Session
	cfg      Config
	log      logger.Logger

	mu  sync.Mutex
	cur records.Cursor
}

var (
	_ domain.StatsPort   = (*Svc)(nil)
	_ domain.RecordsPort = (*Svc)(nil)
)

// New wires the feed service; notifier may be nil
func New(t records.TailerPort, n records.NotifierPort, s *Session, cfg Config) *Svc {
	if cfg.Interval <= 0 {
		cfg.Interval = 800 * time.Millisecond
	}
	if cfg.Batch <= 0 {
		cfg.Batch = 500
	}
	return &Svc{tailer: t, notifier: n, session: s, cfg: cfg, log: *logger.Named("feed")}
}

// Run polls until ctx is done. Filesystem events wake it early
func (s *Svc) Run(ctx context.Context) error {
	var wake <-chan struct{}
	if s.cfg.Watch && s.notifier != nil {
		ch, err := s.notifier.Subscribe(ctx)
		if err != nil {
			s.log.Warn().Err(err).Msg("log watch unavailable; polling only")
		} else {
			wake = ch
		}
	}

	t := time.NewTicker(s.cfg.Interval)
	defer t.Stop()

	s.Poll(ctx)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-t.C:
		case _, ok := <-wake:
			if !ok {
				wake = nil
				continue
			}
		}
		s.Poll(ctx)
	}
}

// Poll drains everything currently complete in the log into the session
func (s *Svc) Poll(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for {
		recs, next, err := s.tailer.TailN(ctx, s.cur, s.cfg.Batch)
		if err != nil {
			s.log.Warn().Err(err).Int64("cursor", s.cur.Offset).Msg("tail failed")
			return
		}
		s.cur = next
		if len(recs) > 0 {
			s.session.Observe(recs, next)
			s.log.Debug().Int("records", len(recs)).Int64("cursor", next.Offset).Msg("feed advanced")
		}
		if len(recs) < s.cfg.Batch || ctx.Err() != nil {
			return
		}
	}
}

// Snapshot satisfies domain.StatsPort
func (s *Svc) Snapshot() domain.Snapshot { return s.session.Snapshot() }

// Recent satisfies domain.StatsPort
func (s *Svc) Recent(q domain.RecentQuery) []domain.DisplayRecord { return s.session.Recent(q) }

// Reset satisfies domain.StatsPort
func (s *Svc) Reset() { s.session.Reset() }

// Page reads one page of the log from an explicit cursor. It shares nothing with the poll loop
func (s *Svc) Page(ctx context.Context, q domain.RecordsQuery) ([]records.Record, records.Cursor, error) {
	return s.tailer.TailN(ctx, records.Cursor{Offset: q.Cursor}, q.Limit)
}
