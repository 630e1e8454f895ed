package store

import (
	"time"

	"helix/internal/platform/config"
)

// Config aggregates per backend configuration
type Config struct {
	AppName string

	PG PGConfig
	CH CHConfig
}

// PGConfig configures postgres connectivity and tracing
type PGConfig struct {
	Enabled     bool
	URL         string
	MaxConns    int32
	LogSQL      bool
	SlowQueryMs int

	ConnectRetries int           // default 20
	PingTimeout    time.Duration // default 3s
}

// CHConfig configures clickhouse connectivity
type CHConfig struct {
	Enabled bool
	URL     string
	Role    string
}

// FromConfig reads PG_* and CH_* keys under cfg's prefix; a backend is enabled when its URL is set
func FromConfig(cfg config.Conf, appName string) Config {
	pgURL := cfg.MayString("PG_URL", "")
	chURL := cfg.MayString("CH_URL", "")
	return Config{
		AppName: appName,
		PG: PGConfig{
			Enabled:        pgURL != "",
			URL:            pgURL,
			MaxConns:       int32(cfg.MayInt("PG_MAX_CONNS", 4)),
			LogSQL:         cfg.MayBool("PG_LOG_SQL", false),
			SlowQueryMs:    cfg.MayInt("PG_SLOW_MS", 250),
			ConnectRetries: cfg.MayInt("PG_CONNECT_RETRIES", 20),
			PingTimeout:    cfg.MayDuration("PG_PING_TIMEOUT", 3*time.Second),
		},
		CH: CHConfig{
			Enabled: chURL != "",
			URL:     chURL,
			Role:    appName,
		},
	}
}
