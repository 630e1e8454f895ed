// Package module wires the archive mirror using modkit
package module

import (
	"helix/internal/modkit"
	kitmod "helix/internal/modkit/module"
	perr "helix/internal/platform/errors"
	"helix/internal/platform/logger"
	phttp "helix/internal/platform/net/http"
	"helix/internal/services/archive/domain"
	"helix/internal/services/archive/repo"
	"helix/internal/services/archive/service"
	records "helix/internal/services/records/domain"
)

// Needs are the records ports the archive reads from. Notifier is optional
type Needs struct {
	Tailer   records.TailerPort
	Notifier records.NotifierPort
}

// Runner is the blocking mirror loop
type Runner = kitmod.Runner

// Ports exposed by the archive module
type Ports struct {
	Runner Runner
}

// Module implements the archive module
type Module struct {
	deps  modkit.Deps
	opts  Options
	b     modkit.Built
	ports Ports
}

// New constructs the archive module. deps.PG is required; deps.CH enables the analytics mirror
func New(deps modkit.Deps, opts ...modkit.Option) (*Module, error) {
	o := FromConfig(deps.Cfg)
	b := modkit.Build(append([]modkit.Option{modkit.WithName("archive")}, opts...)...)

	needs, ok := b.Ports.(Needs)
	if !ok || needs.Tailer == nil {
		return nil, perr.InvalidArgf("archive module needs a records tailer")
	}
	if deps.PG == nil {
		return nil, perr.InvalidArgf("archive module needs postgres (ARCHIVE_PG_URL)")
	}

	var analytics domain.Analytics
	if deps.CH != nil {
		analytics = repo.NewCH(deps.CH)
	}
	notifier := needs.Notifier
	if !o.Watch {
		notifier = nil
	}

	svc := service.New(needs.Tailer, notifier, deps.PG, repo.BindPG, analytics, service.Config{
		Reader:   o.Reader,
		Batch:    o.Batch,
		Interval: o.PollInterval,
	})

	m := &Module{deps: deps, opts: o, b: b, ports: Ports{Runner: svc}}
	logger.Named(m.Name()).Info().
		Str("reader", o.Reader).
		Bool("clickhouse", analytics != nil).
		Msg("archive configured")
	return m, nil
}

// Name satisfies modkit.Module
func (m *Module) Name() string { return m.b.Name }

// Ports satisfies modkit.Module
func (m *Module) Ports() any { return m.ports }

// MountRoutes satisfies modkit.Module; the archive has no HTTP surface
func (m *Module) MountRoutes(phttp.Router) {}
