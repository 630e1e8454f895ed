// Package module implements the records module: the processed log and its readers
package module

import (
	"helix/internal/modkit"
	phttp "helix/internal/platform/net/http"
	"helix/internal/services/records/domain"
	"helix/internal/services/records/repo"
)

// Ports exposed by the records module
type Ports struct {
	Appender domain.AppenderPort
	Tailer   domain.TailerPort
	Notifier domain.NotifierPort
}

// Module implements the records module
type Module struct {
	deps  modkit.Deps
	name  string
	opts  Options
	ports Ports
}

// New constructs the records module. Non-zero override fields win over env config.
// The appender is opened lazily by the first Append, so readers never create the log
func New(deps modkit.Deps, overrides Options, opts ...modkit.Option) (*Module, error) {
	o := FromConfig(deps.Cfg).merge(overrides)
	b := modkit.Build(opts...)
	name := b.Name
	if name == "" {
		name = "records"
	}

	app, err := repo.NewAppender(o.Path, o.Lock)
	if err != nil {
		return nil, err
	}
	m := &Module{deps: deps, name: name, opts: o}
	m.ports = Ports{
		Appender: app,
		Tailer:   repo.NewTailer(o.Path, o.MaxLineBytes),
		Notifier: repo.NewNotifier(o.Path),
	}
	return m, nil
}

// Path returns the log path in use
func (m *Module) Path() string { return m.opts.Path }

// Name satisfies modkit.Module
func (m *Module) Name() string { return m.name }

// Ports satisfies modkit.Module
func (m *Module) Ports() any { return m.ports }

// MountRoutes satisfies modkit.Module; records are served by the feed module
func (m *Module) MountRoutes(phttp.Router) {}
