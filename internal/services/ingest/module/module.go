// Package module implements the ingest module: the stream consumer and its state endpoint
package module

import (
	"net/http"

	"helix/internal/adapters/classifier"
	"helix/internal/adapters/queue/amqp"
	"helix/internal/core/redact"
	"helix/internal/modkit"
	kitmod "helix/internal/modkit/module"
	perr "helix/internal/platform/errors"
	"helix/internal/platform/logger"
	phttp "helix/internal/platform/net/http"
	"helix/internal/services/ingest/domain"
	"helix/internal/services/ingest/service"
	records "helix/internal/services/records/domain"
)

// Needs are the ports this module consumes from others.
// Source is optional and defaults to the AMQP adapter
type Needs struct {
	Appender records.AppenderPort
	Source   domain.Source
}

// Runner is the blocking consume loop
type Runner = kitmod.Runner

// Ports exposed by the ingest module
type Ports struct {
	Runner Runner
	State  domain.StatePort
}

// Module implements the ingest module
type Module struct {
	deps  modkit.Deps
	opts  Options
	b     modkit.Built
	ports Ports
}

// New constructs the ingest module. Pass records ports with modkit.WithPorts(Needs{...})
func New(deps modkit.Deps, opts ...modkit.Option) (*Module, error) {
	o := FromConfig(deps.Cfg)
	b := modkit.Build(opts...)

	needs, ok := b.Ports.(Needs)
	if !ok || needs.Appender == nil {
		return nil, perr.InvalidArgf("ingest module needs a records appender")
	}
	src := needs.Source
	if src == nil {
		src = amqp.New(o.Broker)
	}

	x, err := classifier.NewExtractor(o.Extract)
	if err != nil {
		return nil, err
	}

	svc := service.New(src, redact.New(), x, needs.Appender, service.Config{
		RetryDelay: o.RetryDelay,
		MaxBytes:   o.MaxBytes,
	})

	m := &Module{
		deps:  deps,
		opts:  o,
		b:     b,
		ports: Ports{Runner: svc, State: svc},
	}
	logger.Named(m.Name()).Info().
		Str("queue", o.Broker.Queue).
		Str("classifier", o.Extract.Kind).
		Str("averaging", o.Extract.Averaging.String()).
		Msg("ingest configured")
	return m, nil
}

// Options returns the resolved options
func (m *Module) Options() Options { return m.opts }

// Name satisfies modkit.Module
func (m *Module) Name() string {
	if m.b.Name != "" {
		return m.b.Name
	}
	return "ingest"
}

// Ports satisfies modkit.Module
func (m *Module) Ports() any { return m.ports }

// MountRoutes mounts the worker state endpoint
func (m *Module) MountRoutes(r phttp.Router) {
	modkit.MountUnder(r, m.b.Prefix, m.b.Mw, func(sub phttp.Router) {
		sub.Get("/v1/worker/state", phttp.Handle(func(*http.Request) phttp.Response {
			return phttp.OK(m.ports.State.Stats())
		}))
		m.b.Register(sub)
	})
}
