package modulert

import (
	"errors"
	"testing"

	"github.com/razyhost/razy/internal/moduleinfo"
	"github.com/razyhost/razy/internal/reqctx"
)

func newTestModule(code string) *Module {
	return New(moduleinfo.Info{Code: code, ClassName: code, Version: "1.0.0"}, nil)
}

func TestNewDefaultsToBaseController(t *testing.T) {
	m := newTestModule("shop.cart")
	if m.Status != Disabled {
		t.Fatalf("expected Disabled, got %s", m.Status)
	}
	ok, err := m.Controller.OnEntry(m)
	if err != nil || !ok {
		t.Fatalf("expected BaseController.OnEntry to default true/nil, got %v %v", ok, err)
	}
}

func TestTransitionToRejectsIllegalJump(t *testing.T) {
	m := newTestModule("shop.cart")
	if err := m.TransitionTo(Ready); err == nil {
		t.Fatalf("expected error jumping straight to Ready")
	}
	if err := m.TransitionTo(Initializing); err != nil {
		t.Fatalf("TransitionTo: %v", err)
	}
	if m.Status != Initializing {
		t.Fatalf("expected Initializing, got %s", m.Status)
	}
}

func TestAwaitFiresOnNotifyReadyOnce(t *testing.T) {
	m := newTestModule("shop.cart")
	dep := newTestModule("shop.auth")
	var fired int
	if err := m.AwaitReady("shop.auth", func(*Module) error { fired++; return nil }); err != nil {
		t.Fatalf("AwaitReady: %v", err)
	}
	if err := m.NotifyReady(dep); err != nil {
		t.Fatalf("NotifyReady: %v", err)
	}
	if err := m.NotifyReady(dep); err != nil {
		t.Fatalf("NotifyReady second call: %v", err)
	}
	if fired != 1 {
		t.Fatalf("expected handler to fire exactly once, fired %d times", fired)
	}
	if len(m.PendingAwaits()) != 0 {
		t.Fatalf("expected no pending awaits after firing")
	}
}

func TestAwaitIgnoresUnrelatedDependency(t *testing.T) {
	m := newTestModule("shop.cart")
	other := newTestModule("shop.other")
	var fired bool
	if err := m.AwaitReady("shop.auth", func(*Module) error { fired = true; return nil }); err != nil {
		t.Fatalf("AwaitReady: %v", err)
	}
	if err := m.NotifyReady(other); err != nil {
		t.Fatalf("NotifyReady: %v", err)
	}
	if fired {
		t.Fatalf("handler should not fire for an unrelated dependency")
	}
	if len(m.PendingAwaits()) != 1 || m.PendingAwaits()[0] != "shop.auth" {
		t.Fatalf("expected shop.auth still pending, got %v", m.PendingAwaits())
	}
}

func TestAwaitPropagatesHandlerError(t *testing.T) {
	m := newTestModule("shop.cart")
	dep := newTestModule("shop.auth")
	boom := errors.New("boom")
	if err := m.AwaitReady("shop.auth", func(*Module) error { return boom }); err != nil {
		t.Fatalf("AwaitReady: %v", err)
	}
	if err := m.NotifyReady(dep); err == nil {
		t.Fatalf("expected NotifyReady to propagate handler error")
	}
}

func TestDispatchNotifiesControllerAndInvokesHandler(t *testing.T) {
	path := writeHandler(t, sampleHandlerSource)
	m := newTestModule("shop.cart")
	if err := m.TransitionTo(Initializing); err != nil {
		t.Fatalf("TransitionTo: %v", err)
	}
	if err := m.Agent().AddRoute("/cart/:w+", path, reqctx.MethodGet, ""); err != nil {
		t.Fatalf("AddRoute: %v", err)
	}
	r := m.Routes[0]

	ctx := &reqctx.Context{Routed: reqctx.RoutedInfo{URLPath: "/cart/hello"}}
	result, err := m.Dispatch(r, []string{"hello"}, ctx)
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if result != "HELLO" {
		t.Fatalf("result = %v, want HELLO", result)
	}
	if ctx.Routed.ModuleCode != "shop.cart" {
		t.Fatalf("expected RoutedInfo.ModuleCode to be set, got %q", ctx.Routed.ModuleCode)
	}
}

// recordingOnError re-raises whatever it is given while recording the call,
// so tests can assert both that OnError ran and that its default decision
// (re-raise) is honored.
type recordingOnError struct {
	BaseController
	seen []error
}

func (c *recordingOnError) OnError(_ *Module, err error) error {
	c.seen = append(c.seen, err)
	return err
}

func TestDispatchReportsHandlerErrorToOnError(t *testing.T) {
	path := writeHandler(t, `package main

import "errors"

func Handle(captures []string, values map[string]any) (any, error) {
	return nil, errors.New("boom")
}
`)
	ctrl := &recordingOnError{}
	m := New(moduleinfo.Info{Code: "shop.cart", ClassName: "shop.cart", Version: "1.0.0"}, ctrl)
	_ = m.TransitionTo(Initializing)
	if err := m.Agent().AddRoute("/cart", path, reqctx.MethodGet, ""); err != nil {
		t.Fatalf("AddRoute: %v", err)
	}
	ctx := &reqctx.Context{}
	_, err := m.Dispatch(m.Routes[0], nil, ctx)
	if err == nil {
		t.Fatalf("expected the default OnError to re-raise")
	}
	if len(ctrl.seen) != 1 {
		t.Fatalf("expected OnError to be called once, got %d", len(ctrl.seen))
	}
}

func TestDispatchRecoversWhenOnErrorReturnsNil(t *testing.T) {
	path := writeHandler(t, `package main

import "errors"

func Handle(captures []string, values map[string]any) (any, error) {
	return nil, errors.New("boom")
}
`)
	m := New(moduleinfo.Info{Code: "shop.cart", ClassName: "shop.cart", Version: "1.0.0"}, &recoveringController{})
	_ = m.TransitionTo(Initializing)
	if err := m.Agent().AddRoute("/cart", path, reqctx.MethodGet, ""); err != nil {
		t.Fatalf("AddRoute: %v", err)
	}
	ctx := &reqctx.Context{}
	result, err := m.Dispatch(m.Routes[0], nil, ctx)
	if err != nil {
		t.Fatalf("expected the error to be recovered, got %v", err)
	}
	if result != nil {
		t.Fatalf("expected a recovered dispatch to return a nil result, got %v", result)
	}
}

type recoveringController struct {
	BaseController
}

func (recoveringController) OnError(*Module, error) error { return nil }

type fakePeerResolver struct {
	peers []*Module
}

func (f fakePeerResolver) Peers() []*Module { return f.peers }

func TestEmitInvokesCrossModuleListener(t *testing.T) {
	listenerPath := writeHandler(t, `package main

func Handle(captures []string, values map[string]any) (any, error) {
	return values["price"], nil
}`)

	emitter := New(moduleinfo.Info{Code: "shop.catalog", ClassName: "shop.catalog", Version: "1.0.0"}, nil)
	listener := New(moduleinfo.Info{Code: "shop.cart", ClassName: "shop.cart", Version: "1.0.0"}, nil)
	_ = listener.TransitionTo(Initializing)
	if err := listener.Agent().Listen("shop.catalog", "priceChanged", listenerPath); err != nil {
		t.Fatalf("Listen: %v", err)
	}
	emitter.SetPeerResolver(fakePeerResolver{peers: []*Module{listener}})

	var gotCode string
	var gotResult any
	emitter.Emit("priceChanged", map[string]any{"price": 42}, func(calleeCode string, result any, err error) {
		gotCode, gotResult = calleeCode, result
		if err != nil {
			t.Fatalf("listener call: %v", err)
		}
	})
	if gotCode != "shop.cart" {
		t.Fatalf("got callee %q, want shop.cart", gotCode)
	}
	if gotResult != 42 {
		t.Fatalf("got result %v, want 42", gotResult)
	}
}

func TestEmitSkipsModulesNotListening(t *testing.T) {
	emitter := New(moduleinfo.Info{Code: "shop.catalog", ClassName: "shop.catalog", Version: "1.0.0"}, nil)
	bystander := New(moduleinfo.Info{Code: "shop.other", ClassName: "shop.other", Version: "1.0.0"}, nil)
	emitter.SetPeerResolver(fakePeerResolver{peers: []*Module{bystander}})

	called := false
	emitter.Emit("priceChanged", nil, func(string, any, error) { called = true })
	if called {
		t.Fatalf("expected no callback when no peer listens for this event")
	}
}

func TestInvokeBoundCallsRegisteredHandler(t *testing.T) {
	path := writeHandler(t, sampleHandlerSource)
	m := New(moduleinfo.Info{Code: "shop.cart", ClassName: "shop.cart", Version: "1.0.0"}, nil)
	_ = m.TransitionTo(Initializing)
	if err := m.Agent().Bind("shout", path); err != nil {
		t.Fatalf("Bind: %v", err)
	}
	result, err := m.InvokeBound("shout", []string{"hi"}, nil)
	if err != nil {
		t.Fatalf("InvokeBound: %v", err)
	}
	if result != "HI" {
		t.Fatalf("got %v, want HI", result)
	}
	if _, err := m.InvokeBound("missing", nil, nil); err == nil {
		t.Fatalf("expected an error for an unregistered method binding")
	}
}
