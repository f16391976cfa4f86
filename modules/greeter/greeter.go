// Package greeter is a minimal sample Controller: it registers one regex
// route and one lazy folder-tree route during OnInit, demonstrating the
// Agent surface a real module author reaches for first.
package greeter

import (
	"github.com/razyhost/razy/internal/moduleinfo"
	"github.com/razyhost/razy/internal/modulert"
	"github.com/razyhost/razy/internal/reqctx"
)

// Code is the manifest code this Controller is registered under.
const Code = "razy.greeter"

// Controller greets whoever routes land on it and emits a "ready" event from
// OnReady.
type Controller struct {
	modulert.BaseController

	HandlerRoot string
}

// Factory builds a Controller for the given manifest info, satisfying
// distributor.ControllerFactory.
func Factory(handlerRoot string) func(moduleinfo.Info) (modulert.Controller, error) {
	return func(moduleinfo.Info) (modulert.Controller, error) {
		return &Controller{HandlerRoot: handlerRoot}, nil
	}
}

func (c *Controller) OnInit(m *modulert.Module) error {
	agent := m.Agent()
	if err := agent.AddRoute(`/greet/:w`, c.HandlerRoot+"/greet.go", reqctx.MethodGet, "greet"); err != nil {
		return err
	}
	return agent.AddLazyRoute("/pages", c.HandlerRoot+"/pages")
}

// OnReady emits "ready" to every peer module listening for
// "razy.greeter:ready", resolved through each listener's own registered
// handler path rather than an inline closure.
func (c *Controller) OnReady(m *modulert.Module) error {
	m.Emit("ready", map[string]any{"code": m.Info.Code}, nil)
	return nil
}

var _ modulert.Controller = (*Controller)(nil)
