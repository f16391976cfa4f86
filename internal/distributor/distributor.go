// Package distributor implements a distributor: the runtime instance that
// owns a set of modules mounted under one identifier, runs their discovery
// through notify lifecycle, aggregates their route tables, and dispatches
// requests against them.
package distributor

import (
	"io/fs"

	"github.com/razyhost/razy/internal/distconfig"
	"github.com/razyhost/razy/internal/identifier"
	"github.com/razyhost/razy/internal/modulert"
	"github.com/razyhost/razy/internal/reqctx"
	"github.com/razyhost/razy/internal/route"
)

// Logger is the narrow logging seam the distributor depends on.
type Logger interface {
	Printf(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Printf(string, ...any) {}

// Distributor is one instance of a mounted site: an identifier, its
// resolved module set, and the aggregated route/RPC tables those modules
// registered during Init.
type Distributor struct {
	Identifier   identifier.Identifier
	MountPath    string
	ResidualPath string
	Config       distconfig.Config

	Modules       map[string]*modulert.Module
	SharedModules map[string]*modulert.Module

	order          []string // discovery order, for stable phase iteration
	FailureReasons map[string]string

	Regex   []*route.Route
	Lazy    []*route.Lazy
	Shadows []*route.Shadow

	// GlobalMiddleware runs before every route/lazy handler's own chain,
	// the outermost tier of the global -> module-level -> route-level ->
	// handler onion.
	GlobalMiddleware []reqctx.Middleware

	LastRouted reqctx.RoutedInfo

	registry *ControllerRegistry
	logger   Logger
	sourceFS fs.FS
}

// New builds an uninitialized Distributor. Call Initialize before any
// dispatch.
func New(id identifier.Identifier, mountPath string, cfg distconfig.Config, registry *ControllerRegistry, logger Logger) *Distributor {
	if logger == nil {
		logger = nopLogger{}
	}
	return &Distributor{
		Identifier:     id,
		MountPath:      mountPath,
		Config:         cfg,
		Modules:        map[string]*modulert.Module{},
		SharedModules:  map[string]*modulert.Module{},
		FailureReasons: map[string]string{},
		registry:       registry,
		logger:         logger,
	}
}

func (d *Distributor) markFailed(m *modulert.Module, status modulert.Status, reason string) {
	if err := m.TransitionTo(status); err != nil {
		d.logger.Printf("distributor: %s: %v", m.Info.Code, err)
	}
	d.FailureReasons[m.Info.Code] = reason
}

// LookupModule returns a module by code, checking the distributor's own
// registry first and then the shared registry.
func (d *Distributor) LookupModule(code string) (*modulert.Module, bool) {
	if m, ok := d.Modules[code]; ok {
		return m, true
	}
	m, ok := d.SharedModules[code]
	return m, ok
}

// ReadyModules returns every module currently in the Ready status, in
// discovery order.
func (d *Distributor) ReadyModules() []*modulert.Module {
	var out []*modulert.Module
	for _, code := range d.order {
		if m, ok := d.LookupModule(code); ok && m.Status == modulert.Ready {
			out = append(out, m)
		}
	}
	return out
}

// LoadedModules returns every module that has completed OnLoad (status
// Loaded), in discovery order.
func (d *Distributor) LoadedModules() []*modulert.Module {
	var out []*modulert.Module
	for _, code := range d.order {
		if m, ok := d.LookupModule(code); ok && m.Status == modulert.Loaded {
			out = append(out, m)
		}
	}
	return out
}

// Peers implements modulert.PeerResolver: only Loaded modules may emit or
// receive events, so a Module's cross-module Emit only ever reaches this
// set, in the same stable discovery order every other phase honors.
func (d *Distributor) Peers() []*modulert.Module {
	return d.LoadedModules()
}
