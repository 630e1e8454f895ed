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

	ingestmod "helix/internal/services/ingest/module"
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
		fLog        = flag.String("log", "", "processed log path (RECORDS_PATH)")
		fAMQP       = flag.String("amqp", "", "broker url (INGEST_AMQP_URL)")
		fQueue      = flag.String("queue", "", "queue name (INGEST_QUEUE)")
		fClassifier = flag.String("classifier", "", "lexicon | inference (EXTRACT_CLASSIFIER)")
		fAveraging  = flag.String("averaging", "", "mean | pairwise | length_weighted (EXTRACT_AVERAGING)")
		fHealth     = flag.String("health", "", "serve /health and /v1/worker/state on this addr (INGEST_HEALTH_PORT)")
		fVersion    = flag.Bool("version", false, "print build info and exit")
	)
	flag.Parse()

	if *fVersion {
		_ = json.NewEncoder(os.Stdout).Encode(version.Info("helix-worker"))
		return
	}

	// flags win over env; modules read their own config
	mustSetEnv("RECORDS_PATH", *fLog)
	mustSetEnv("INGEST_AMQP_URL", *fAMQP)
	mustSetEnv("INGEST_QUEUE", *fQueue)
	mustSetEnv("EXTRACT_CLASSIFIER", *fClassifier)
	mustSetEnv("EXTRACT_AVERAGING", *fAveraging)
	mustSetEnv("INGEST_HEALTH_PORT", *fHealth)

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

	ing, err := ingestmod.New(deps,
		modkit.WithName("ingest"),
		modkit.WithPorts(ingestmod.Needs{Appender: rp.Appender}),
	)
	if err != nil {
		l.Fatal().Err(err).Msg("ingest module failed")
	}
	module.Register(ing.Name(), ing.Ports())
	ip := module.MustPortsOf[ingestmod.Ports](ing)

	bi := version.Info("helix-worker")
	l.Info().
		Str("version", bi.Version).
		Str("commit", bi.Commit).
		Strs("modules", module.Names()).
		Str("log", rec.Path()).
		Msg("worker starting")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return ip.Runner.Run(gctx) })

	if addr := ing.Options().HealthPort; addr != "" {
		srv := phttp.NewServer(root.Prefix("INGEST_HEALTH_"), addr, func(m *chi.Mux) {
			m.Use(middleware.Stack(middleware.StackOptions{})...)
		})
		ing.MountRoutes(srv.Router())
		g.Go(func() error { return srv.Run(gctx) })
	}

	if err := g.Wait(); err != nil {
		l.Fatal().Err(err).Msg("worker stopped")
	}
	l.Info().Msg("worker stopped")
}
