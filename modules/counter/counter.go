// Package counter is a sample Controller demonstrating cross-module RPC:
// it exposes a "#bump" distributor-private command and an "increment"
// bridge command other distributors can call, both mutating the same
// in-memory tally.
package counter

import (
	"fmt"
	"sync"

	"github.com/razyhost/razy/internal/moduleinfo"
	"github.com/razyhost/razy/internal/modulert"
)

// Code is the manifest code this Controller is registered under.
const Code = "razy.counter"

// Controller holds a single mutable tally, mutated through its registered
// commands rather than directly.
type Controller struct {
	modulert.BaseController

	mu    sync.Mutex
	Tally int
}

// Factory builds a fresh Controller, satisfying distributor.ControllerFactory.
func Factory(moduleinfo.Info) (modulert.Controller, error) {
	return &Controller{}, nil
}

func (c *Controller) OnInit(m *modulert.Module) error {
	agent := m.Agent()
	if err := agent.AddCommand("#bump", modulert.VisibilityDistributor, c.bump); err != nil {
		return err
	}
	return agent.AddCommand("increment", modulert.VisibilityBridge, c.bump)
}

func (c *Controller) bump(args map[string]any) (any, error) {
	delta := 1
	if raw, ok := args["delta"]; ok {
		d, ok := raw.(int)
		if !ok {
			return nil, fmt.Errorf("counter: delta must be an int, got %T", raw)
		}
		delta = d
	}
	c.mu.Lock()
	c.Tally += delta
	current := c.Tally
	c.mu.Unlock()
	return current, nil
}

// OnAPICall handles same-distributor calls not already satisfied by a
// registered command (used here only to refuse a caller with an empty code
// and accept every other caller, demonstrating the accept/refuse return).
func (c *Controller) OnAPICall(m *modulert.Module, callerCode, command string, args map[string]any) (bool, any, error) {
	if callerCode == "" {
		return false, nil, nil
	}
	return true, nil, nil
}

// OnBridgeCall lets another distributor's "increment" call land here even
// when dispatched through the bridge path rather than the command table
// directly.
func (c *Controller) OnBridgeCall(m *modulert.Module, callerCode, command string, args map[string]any) (any, error) {
	if command != "increment" {
		return nil, fmt.Errorf("counter: unknown bridge command %q", command)
	}
	return c.bump(args)
}

var _ modulert.Controller = (*Controller)(nil)
