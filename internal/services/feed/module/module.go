// Package module wires the feed into a service using modkit
package module

import (
	"helix/internal/modkit"
	kitmod "helix/internal/modkit/module"
	perr "helix/internal/platform/errors"
	phttp "helix/internal/platform/net/http"
	"helix/internal/services/feed/domain"
	feedhttp "helix/internal/services/feed/http"
	"helix/internal/services/feed/service"
	records "helix/internal/services/records/domain"
)

// Needs are the records ports the feed reads from. Notifier is optional
type Needs struct {
	Tailer   records.TailerPort
	Notifier records.NotifierPort
}

// Runner is the blocking poll loop
type Runner = kitmod.Runner

// Ports exposed by the feed module
type Ports struct {
	Stats   domain.StatsPort
	Records domain.RecordsPort
	Runner  Runner
}

// Module implements the feed module
type Module struct {
	deps  modkit.Deps
	opts  Options
	b     modkit.Built
	svc   *service.Svc
	ports Ports
}

// New constructs the feed module. Pass records ports with modkit.WithPorts(Needs{...})
func New(deps modkit.Deps, opts ...modkit.Option) (*Module, error) {
	o := FromConfig(deps.Cfg)
	b := modkit.Build(append([]modkit.Option{modkit.WithName("feed")}, opts...)...)

	needs, ok := b.Ports.(Needs)
	if !ok || needs.Tailer == nil {
		return nil, perr.InvalidArgf("feed module needs a records tailer")
	}

	sess := service.NewSession(domain.NewCriticalSet(o.Critical), o.Keep)
	svc := service.New(needs.Tailer, needs.Notifier, sess, service.Config{
		Interval: o.PollInterval,
		Watch:    o.Watch,
	})

	return &Module{
		deps:  deps,
		opts:  o,
		b:     b,
		svc:   svc,
		ports: Ports{Stats: svc, Records: svc, Runner: svc},
	}, nil
}

// Options returns the resolved options
func (m *Module) Options() Options { return m.opts }

// Name satisfies modkit.Module
func (m *Module) Name() string { return m.b.Name }

// Ports satisfies modkit.Module
func (m *Module) Ports() any { return m.ports }

// MountRoutes mounts the feed endpoints
func (m *Module) MountRoutes(r phttp.Router) {
	modkit.MountUnder(r, m.b.Prefix, m.b.Mw, func(sub phttp.Router) {
		feedhttp.Register(sub, m.svc, m.svc, m.opts.Recent)
		m.b.Register(sub)
	})
}
