// Package watcher is a sample Controller demonstrating the dependency-await
// pattern: it declares a requirement on another module's code and defers
// its own readiness announcement until that dependency reaches Loaded.
package watcher

import (
	"fmt"

	"github.com/razyhost/razy/internal/moduleinfo"
	"github.com/razyhost/razy/internal/modulert"
)

// Code is the manifest code this Controller is registered under.
const Code = "razy.watcher"

// Controller waits on DependsOn before considering itself armed, and
// separately listens for the dependency's own "ready" event so a peer's
// emit reaches a real registered handler path instead of an inline closure.
type Controller struct {
	modulert.BaseController

	DependsOn   string
	HandlerRoot string

	armed bool
}

// Factory builds a Controller watching depCode for lifecycle readiness and
// listening for its "ready" event, resolving listener handlers under
// handlerRoot. Satisfies distributor.ControllerFactory.
func Factory(depCode, handlerRoot string) func(moduleinfo.Info) (modulert.Controller, error) {
	return func(moduleinfo.Info) (modulert.Controller, error) {
		return &Controller{DependsOn: depCode, HandlerRoot: handlerRoot}, nil
	}
}

func (c *Controller) OnInit(m *modulert.Module) error {
	if c.DependsOn != "" && c.HandlerRoot != "" {
		if err := m.Agent().Listen(c.DependsOn, "ready", c.HandlerRoot+"/on_dependency_ready.go"); err != nil {
			return err
		}
	}
	return m.Agent().Await(c.DependsOn, func(dep *modulert.Module) error {
		c.armed = true
		m.Emit("armed", map[string]any{
			"dependency": dep.Info.Code,
			"version":    dep.Info.Version,
		}, nil)
		return nil
	})
}

// OnRequire reports the module satisfied as soon as its manifest-declared
// requirement is resolvable; the await above is the Loaded-time gate, not
// this check.
func (c *Controller) OnRequire(m *modulert.Module) (bool, error) {
	if c.DependsOn == "" {
		return false, fmt.Errorf("watcher %s: DependsOn is required", m.Info.Code)
	}
	return true, nil
}

// Armed reports whether the awaited dependency has fired.
func (c *Controller) Armed() bool { return c.armed }

var _ modulert.Controller = (*Controller)(nil)
