package greeter

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/razyhost/razy/internal/moduleinfo"
	"github.com/razyhost/razy/internal/modulert"
)

func newModule(t *testing.T) *modulert.Module {
	t.Helper()
	info := moduleinfo.Info{Code: "razy.greeter", Version: "1.0.0"}
	ctrl, err := Factory("handlers")(info)
	if err != nil {
		t.Fatalf("Factory: %v", err)
	}
	m := modulert.New(info, ctrl)
	if err := m.TransitionTo(modulert.Initializing); err != nil {
		t.Fatalf("TransitionTo: %v", err)
	}
	return m
}

func TestOnInitRegistersRouteAndLazyRoute(t *testing.T) {
	m := newModule(t)
	if err := m.Controller.OnInit(m); err != nil {
		t.Fatalf("OnInit: %v", err)
	}
	if len(m.Routes) != 1 {
		t.Fatalf("expected 1 regex route, got %d", len(m.Routes))
	}
	if m.Routes[0].ClosurePath != "handlers/greet.go" {
		t.Fatalf("unexpected closure path %q", m.Routes[0].ClosurePath)
	}
	if len(m.Lazy) != 1 {
		t.Fatalf("expected 1 lazy route, got %d", len(m.Lazy))
	}
}

// fixedPeers implements modulert.PeerResolver with a fixed peer set, so
// OnReady's cross-module Emit can be observed without a full Distributor.
type fixedPeers struct {
	peers []*modulert.Module
}

func (f fixedPeers) Peers() []*modulert.Module { return f.peers }

// errorOnErrorController records every call to OnError, so a test can prove
// a cross-module listener's handler actually ran without needing the
// yaegi-interpreted handler file to reach back into Go test state.
type errorOnErrorController struct {
	modulert.BaseController
	seen []error
}

func (c *errorOnErrorController) OnError(_ *modulert.Module, err error) error {
	c.seen = append(c.seen, err)
	return err
}

func writeFailingListenerHandler(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "on_greeter_ready.go")
	src := `package main

import "errors"

func Handle(captures []string, values map[string]any) (any, error) {
	return nil, errors.New("listener saw it")
}`
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatalf("write handler: %v", err)
	}
	return path
}

func TestOnReadyEmitsReadyToCrossModuleListeners(t *testing.T) {
	m := newModule(t)

	listenerCtrl := &errorOnErrorController{}
	listenerInfo := moduleinfo.Info{Code: "razy.watcher", Version: "1.0.0"}
	listener := modulert.New(listenerInfo, listenerCtrl)
	if err := listener.TransitionTo(modulert.Initializing); err != nil {
		t.Fatalf("TransitionTo: %v", err)
	}
	if err := listener.Agent().Listen("razy.greeter", "ready", writeFailingListenerHandler(t)); err != nil {
		t.Fatalf("Listen: %v", err)
	}
	m.SetPeerResolver(fixedPeers{peers: []*modulert.Module{listener}})

	if err := m.Controller.OnReady(m); err != nil {
		t.Fatalf("OnReady: %v", err)
	}
	if len(listenerCtrl.seen) != 1 {
		t.Fatalf("expected the cross-module listener's handler to run exactly once, ran %d times", len(listenerCtrl.seen))
	}
}
