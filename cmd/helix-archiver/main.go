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
	"helix/internal/platform/store"

	archivemod "helix/internal/services/archive/module"
	recmod "helix/internal/services/records/module"
)

func mustSetEnv(key, val string) {
	if val != "" {
		_ = os.Setenv(key, val)
	}
}

var exitCode int

func main() {
	run()
	os.Exit(exitCode)
}

func run() {
	var (
		fLog     = flag.String("log", "", "processed log path (RECORDS_PATH)")
		fPG      = flag.String("pg", "", "postgres url (ARCHIVE_PG_URL)")
		fCH      = flag.String("ch", "", "clickhouse url, optional (ARCHIVE_CH_URL)")
		fReader  = flag.String("reader", "", "cursor name (ARCHIVE_READER)")
		fVersion = flag.Bool("version", false, "print build info and exit")
	)
	flag.Parse()

	if *fVersion {
		_ = json.NewEncoder(os.Stdout).Encode(version.Info("helix-archiver"))
		return
	}

	mustSetEnv("RECORDS_PATH", *fLog)
	mustSetEnv("ARCHIVE_PG_URL", *fPG)
	mustSetEnv("ARCHIVE_CH_URL", *fCH)
	mustSetEnv("ARCHIVE_READER", *fReader)

	root := config.New()
	l := logger.Get()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(ctx, store.FromConfig(root.Prefix("ARCHIVE_"), "helix-archiver"), store.WithLogger(*l))
	if err != nil {
		l.Fatal().Err(err).Msg("store.Open failed")
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			l.Error().Err(err).Msg("failed to close store")
		}
	}()

	deps := modkit.Deps{Cfg: root, Log: *l, PG: st.PG, CH: st.CH}

	rec, err := recmod.New(deps, recmod.Options{})
	if err != nil {
		l.Fatal().Err(err).Msg("records module failed")
	}
	module.Register(rec.Name(), rec.Ports())
	rp := module.MustPortsOf[recmod.Ports](rec)

	am, err := archivemod.New(deps, modkit.WithPorts(archivemod.Needs{
		Tailer:   rp.Tailer,
		Notifier: rp.Notifier,
	}))
	if err != nil {
		l.Fatal().Err(err).Msg("archive module failed")
	}
	module.Register(am.Name(), am.Ports())
	ap := module.MustPortsOf[archivemod.Ports](am)

	bi := version.Info("helix-archiver")
	l.Info().
		Str("version", bi.Version).
		Strs("modules", module.Names()).
		Str("log", rec.Path()).
		Msg("archiver starting")

	if err := ap.Runner.Run(ctx); err != nil {
		l.Error().Err(err).Msg("archiver stopped")
		exitCode = 1
	}
}
