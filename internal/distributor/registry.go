package distributor

import (
	"fmt"
	"sort"
	"sync"

	"github.com/razyhost/razy/internal/moduleinfo"
	"github.com/razyhost/razy/internal/modulert"
)

// ControllerFactory builds a Controller for a discovered module. It stands
// in for dynamic class instantiation: a module's manifest names a code, and
// the factory registered under that code produces the Go value that
// implements its behavior.
type ControllerFactory func(info moduleinfo.Info) (modulert.Controller, error)

// ControllerRegistry maps module codes to the factories that build their
// Controller. One registry is shared process-wide; distributors resolve
// against it during discovery.
type ControllerRegistry struct {
	mu        sync.RWMutex
	factories map[string]ControllerFactory
}

// NewControllerRegistry returns an empty registry.
func NewControllerRegistry() *ControllerRegistry {
	return &ControllerRegistry{factories: map[string]ControllerFactory{}}
}

// Register installs factory under code. Re-registering the same code is an
// error.
func (r *ControllerRegistry) Register(code string, factory ControllerFactory) error {
	if code == "" {
		return fmt.Errorf("distributor: controller code is required")
	}
	if factory == nil {
		return fmt.Errorf("distributor: controller factory is required for %s", code)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.factories[code]; exists {
		return fmt.Errorf("distributor: controller %s already registered", code)
	}
	r.factories[code] = factory
	return nil
}

// MustRegister panics if Register fails. Intended for package init blocks
// wiring built-in modules.
func (r *ControllerRegistry) MustRegister(code string, factory ControllerFactory) {
	if err := r.Register(code, factory); err != nil {
		panic(err)
	}
}

// Resolve builds the Controller for info.Code. A module with no registered
// factory falls back to modulert.BaseController, so a manifest-only module
// (no custom behavior) still loads.
func (r *ControllerRegistry) Resolve(info moduleinfo.Info) (modulert.Controller, error) {
	r.mu.RLock()
	factory, ok := r.factories[info.Code]
	r.mu.RUnlock()
	if !ok {
		return modulert.BaseController{}, nil
	}
	return factory(info)
}

// Codes returns every registered code, sorted.
func (r *ControllerRegistry) Codes() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	codes := make([]string, 0, len(r.factories))
	for c := range r.factories {
		codes = append(codes, c)
	}
	sort.Strings(codes)
	return codes
}
