package repo

import (
	"context"
	"os"
	"path/filepath"

	perr "helix/internal/platform/errors"
	"helix/internal/platform/logger"
	"helix/internal/services/records/domain"

	"github.com/fsnotify/fsnotify"
)

// Notifier turns filesystem events on the log into wake-ups for poll loops.
// It watches the parent directory so the log may be created or replaced after Subscribe
type Notifier struct {
	path string
	log  logger.Logger
}

var _ domain.NotifierPort = (*Notifier)(nil)

// NewNotifier watches path
func NewNotifier(path string) *Notifier {
	return &Notifier{path: filepath.Clean(path), log: *logger.Named("records.watch")}
}

// Subscribe starts a watcher bound to ctx. Signals coalesce: at most one is pending
func (n *Notifier) Subscribe(ctx context.Context) (<-chan struct{}, error) {
	dir := filepath.Dir(n.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeUnavailable, "create watch dir %s", dir)
	}
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeUnavailable, "create fs watcher")
	}
	if err := w.Add(dir); err != nil {
		_ = w.Close()
		return nil, perr.Wrapf(err, perr.ErrorCodeUnavailable, "watch %s", dir)
	}

	out := make(chan struct{}, 1)
	go func() {
		defer close(out)
		defer func() { _ = w.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-w.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) != n.path {
					continue
				}
				if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Rename) && !ev.Has(fsnotify.Remove) {
					continue
				}
				select {
				case out <- struct{}{}:
				default:
				}
			case err, ok := <-w.Errors:
				if !ok {
					return
				}
				n.log.Warn().Err(err).Msg("fs watcher error")
			}
		}
	}()
	return out, nil
}
