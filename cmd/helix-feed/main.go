package main

import (
	"context"
	"encoding/json"
	"flag"
	"os"
	"os/signal"
	"syscall"

	"helix/internal/core/version"
	"helix/internal/modkit"
	"helix/internal/modkit/module"
	"helix/internal/platform/config"
	"helix/internal/platform/logger"
	phttp "helix/internal/platform/net/http"
	"helix/internal/platform/net/middleware"

	feedmod "helix/internal/services/feed/module"
	recmod "helix/internal/services/records/module"

	"github.com/go-chi/chi/v5"
	"golang.org/x/sync/errgroup"
)

func mustSetEnv(key, val string) {
	if val != "" {
		_ = os.Setenv(key, val)
	}
}

func main() {
	var (
		fLog      = flag.String("log", "", "processed log path (RECORDS_PATH)")
		fPort     = flag.String("port", "", "listen addr, e.g. :4100 (FEED_PORT)")
		fInterval = flag.String("interval", "", "poll interval, e.g. 800ms (FEED_POLL_INTERVAL)")
		fVersion  = flag.Bool("version", false, "print build info and exit")
	)
	flag.Parse()

	if *fVersion {
		_ = json.NewEncoder(os.Stdout).Encode(version.Info("helix-feed"))
		return
	}

	mustSetEnv("RECORDS_PATH", *fLog)
	mustSetEnv("FEED_PORT", *fPort)
	mustSetEnv("FEED_POLL_INTERVAL", *fInterval)

	root := config.New()
	l := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps := modkit.Deps{Cfg: root, Log: *l}

	rec, err := recmod.New(deps, recmod.Options{})
	if err != nil {
		l.Fatal().Err(err).Msg("records module failed")
	}
	module.Register(rec.Name(), rec.Ports())
	rp := module.MustPortsOf[recmod.Ports](rec)

	fm, err := feedmod.New(deps, modkit.WithPorts(feedmod.Needs{
		Tailer:   rp.Tailer,
		Notifier: rp.Notifier,
	}))
	if err != nil {
		l.Fatal().Err(err).Msg("feed module failed")
	}
	module.Register(fm.Name(), fm.Ports())
	fp := module.MustPortsOf[feedmod.Ports](fm)

	o := fm.Options()
	srv := phttp.NewServer(root.Prefix("FEED_"), o.Port, func(m *chi.Mux) {
		m.Use(middleware.Stack(middleware.StackOptions{
			CORS: middleware.CORSOptions{AllowedOrigins: o.CORSOrigins, MaxAge: 300},
		})...)
	})
	fm.MountRoutes(srv.Router())

	bi := version.Info("helix-feed")
	l.Info().
		Str("version", bi.Version).
		Strs("modules", module.Names()).
		Str("log", rec.Path()).
		Dur("poll_interval", o.PollInterval).
		Msg("feed starting")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return fp.Runner.Run(gctx) })
	g.Go(func() error { return srv.Run(gctx) })

	if err := g.Wait(); err != nil {
		l.Fatal().Err(err).Msg("feed stopped")
	}
}
