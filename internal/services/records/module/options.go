package module

import (
	"helix/internal/platform/config"
	"helix/internal/services/records/repo"
)

// Options holds configuration settings for the records module
type Options struct {
	Path         string
	Lock         bool
	MaxLineBytes int
}

// FromConfig reads RECORDS_ settings
func FromConfig(cfg config.Conf) Options {
	rc := cfg.Prefix("RECORDS_")
	return Options{
		Path:         rc.MayString("PATH", "data/processed_notes.jsonl"),
		Lock:         rc.MayBool("LOCK", true),
		MaxLineBytes: rc.MayInt("MAX_LINE_BYTES", repo.DefaultMaxLineBytes),
	}
}

func (o Options) merge(over Options) Options {
	if over.Path != "" {
		o.Path = over.Path
	}
	if over.MaxLineBytes > 0 {
		o.MaxLineBytes = over.MaxLineBytes
	}
	return o
}
