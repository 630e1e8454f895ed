package module

import (
	"time"

	"helix/internal/platform/config"
	"helix/internal/services/feed/domain"
)

// Options holds configuration settings for the feed module
type Options struct {
	Port         string
	PollInterval time.Duration
	Watch        bool
	Recent       int
	Keep         int
	Critical     []string
	CORSOrigins  []string
}

// FromConfig reads FEED_ settings
func FromConfig(cfg config.Conf) Options {
	fc := cfg.Prefix("FEED_")
	return Options{
		Port:         fc.MayString("PORT", ":4100"),
		PollInterval: fc.MayDuration("POLL_INTERVAL", 800*time.Millisecond),
		Watch:        fc.MayBool("WATCH", true),
		Recent:       fc.MayInt("RECENT", 15),
		Keep:         fc.MayInt("KEEP", 200),
		Critical:     fc.MayCSV("CRITICAL", domain.DefaultCritical),
		CORSOrigins:  fc.MayCSV("CORS_ORIGINS", []string{"*"}),
	}
}
