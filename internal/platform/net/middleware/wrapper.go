// Package middleware provides thin adapters over chi middleware plus in-house handlers
package middleware

import (
	"compress/flate"
	"net/http"
	"time"

	pstrings "helix/internal/platform/strings"

	chimw "github.com/go-chi/chi/v5/middleware"
	chicors "github.com/go-chi/cors"
)

// RequestID attaches or propagates X-Request-ID and stores it on context
func RequestID() func(http.Handler) http.Handler { return chimw.RequestID }

// RealIP sets RemoteAddr to the upstream IP based on X-Forwarded-For headers
func RealIP() func(http.Handler) http.Handler { return chimw.RealIP }

// Timeout cancels the request context after d
func Timeout(d time.Duration) func(http.Handler) http.Handler { return chimw.Timeout(d) }

// NoCache sets headers to disable client and proxy caching
func NoCache() func(http.Handler) http.Handler { return chimw.NoCache }

// Compress wraps chi's compressor. level usually flate.DefaultCompression or flate.BestSpeed
func Compress(level int) func(http.Handler) http.Handler {
	c := chimw.NewCompressor(level)
	return func(next http.Handler) http.Handler { return c.Handler(next) }
}

// Heartbeat replies with 200 OK to GET/HEAD path, useful for LB health checks
func Heartbeat(path string) func(http.Handler) http.Handler { return chimw.Heartbeat(path) }

// CORSOptions is a narrow surface over go-chi/cors
type CORSOptions struct {
	AllowedOrigins []string
	MaxAge         int
}

// CORS wraps go-chi/cors for JSON endpoints
func CORS(o CORSOptions) func(http.Handler) http.Handler {
	origins := pstrings.IfEmpty(o.AllowedOrigins, []string{"*"})
	return chicors.Handler(chicors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodHead, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         o.MaxAge,
	})
}

// StackOptions tunes Stack
type StackOptions struct {
	CORS    CORSOptions
	Slow    time.Duration
	Timeout time.Duration
	Health  string
}

// Stack returns the baseline middleware chain for helix HTTP surfaces
func Stack(o StackOptions) []func(http.Handler) http.Handler {
	if o.Timeout <= 0 {
		o.Timeout = 30 * time.Second
	}
	if o.Health == "" {
		o.Health = "/health"
	}
	return []func(http.Handler) http.Handler{
		RequestID(),
		RealIP(),
		RecoverJSON,
		AccessLogZerolog(AccessLogOptions{Slow: o.Slow}),
		NoCache(),
		CORS(o.CORS),
		Compress(flate.BestSpeed),
		Heartbeat(o.Health),
		Timeout(o.Timeout),
	}
}
