// Package repo stores processed records in an append-only JSON lines file
package repo

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
	"time"

	perr "helix/internal/platform/errors"
	"helix/internal/services/records/domain"

	"github.com/gofrs/flock"
)

const lockRetry = 25 * time.Millisecond

// Appender writes records as single O_APPEND writes, each fsynced before returning.
// With Lock set, every write holds an exclusive advisory lock on <path>.lock so
// appenders in separate processes never interleave lines
type Appender struct {
	path string
	mu   sync.Mutex
	fl   *flock.Flock
}

var _ domain.AppenderPort = (*Appender)(nil)

// NewAppender prepares the parent directory; the log itself is created on first append
func NewAppender(path string, lock bool) (*Appender, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodePersist, "create records dir for %s", path)
	}
	a := &Appender{path: path}
	if lock {
		a.fl = flock.New(path + ".lock")
	}
	return a, nil
}

// Path returns the log path
func (a *Appender) Path() string { return a.path }

// Append encodes r as one line and makes it durable
func (a *Appender) Append(ctx context.Context, r domain.Record) error {
	b, err := json.Marshal(r.Normalized())
	if err != nil {
		return perr.Wrap(err, perr.ErrorCodePersist, "encode record")
	}
	b = append(b, '\n')

	a.mu.Lock()
	defer a.mu.Unlock()

	if a.fl != nil {
		ok, err := a.fl.TryLockContext(ctx, lockRetry)
		if err != nil || !ok {
			return perr.WrapIf(orCtx(ctx, err), perr.ErrorCodePersist, "lock records log")
		}
		defer func() { _ = a.fl.Unlock() }()
	}

	f, err := os.OpenFile(a.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return perr.Wrap(err, perr.ErrorCodePersist, "open records log")
	}
	if _, err := f.Write(b); err != nil {
		_ = f.Close()
		return perr.Wrap(err, perr.ErrorCodePersist, "write record")
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return perr.Wrap(err, perr.ErrorCodePersist, "fsync records log")
	}
	if err := f.Close(); err != nil {
		return perr.Wrap(err, perr.ErrorCodePersist, "close records log")
	}
	return nil
}

// orCtx returns err, or the context error when the lock attempt gave up without one
func orCtx(ctx context.Context, err error) error {
	if err != nil {
		return err
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return context.DeadlineExceeded
}
