package module

import (
	"time"

	"helix/internal/platform/config"
)

// Options holds configuration settings for the archive module.
// Connection URLs are read by store.FromConfig under the same prefix
type Options struct {
	Reader       string
	Batch        int
	PollInterval time.Duration
	Watch        bool
}

// FromConfig reads ARCHIVE_ settings
func FromConfig(cfg config.Conf) Options {
	ac := cfg.Prefix("ARCHIVE_")
	return Options{
		Reader:       ac.MayString("READER", "archive"),
		Batch:        ac.MayInt("BATCH", 256),
		PollInterval: ac.MayDuration("POLL_INTERVAL", 2*time.Second),
		Watch:        ac.MayBool("WATCH", true),
	}
}
