// Package modules collects the sample Controllers (greeter, counter,
// watcher) that demonstrate the Agent/Controller contract, and Register
// wires them into a distributor.ControllerRegistry under their manifest
// codes.
package modules

import (
	"github.com/razyhost/razy/internal/distributor"
	"github.com/razyhost/razy/modules/counter"
	"github.com/razyhost/razy/modules/greeter"
	"github.com/razyhost/razy/modules/watcher"
)

// Register installs every sample Controller's factory into registry. A
// host that wants these built-ins available to its dist.yaml manifests
// calls this once before serving.
func Register(registry *distributor.ControllerRegistry) error {
	if err := registry.Register(greeter.Code, greeter.Factory("handlers")); err != nil {
		return err
	}
	if err := registry.Register(counter.Code, counter.Factory); err != nil {
		return err
	}
	if err := registry.Register(watcher.Code, watcher.Factory("razy.greeter", "handlers")); err != nil {
		return err
	}
	return nil
}
