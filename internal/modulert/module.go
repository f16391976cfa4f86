package modulert

import (
	"fmt"
	"sync"

	"github.com/razyhost/razy/internal/moduleinfo"
	"github.com/razyhost/razy/internal/reqctx"
	"github.com/razyhost/razy/internal/route"
)

// AwaitHandler is invoked once the awaited dependency module reaches Loaded.
type AwaitHandler func(dep *Module) error

// Module is the runtime instance of a loaded module: its static Info, its
// lifecycle Status, the Controller supplying its hooks, and everything its
// Controller registered through the Agent during OnInit.
type Module struct {
	mu sync.Mutex

	Info       moduleinfo.Info
	Status     Status
	Controller Controller

	Routes   []*route.Route
	Lazy     []*route.Lazy
	Shadows  []*route.Shadow
	Commands map[string]*Command
	Emitter  *Emitter
	Closures *ClosureCache

	// Listens holds this module's events-listened table: keys are
	// "emitterCode:eventName", values are the handler path resolved through
	// Closures when the named peer emits that event. Unique per module.
	Listens map[string]string

	// Bindings holds this module's method bindings: methodName ->
	// handlerPath, resolved through Closures via InvokeBound.
	Bindings map[string]string

	// MiddlewareStack is the module-level middleware tier: it runs for
	// every route this module owns, regardless of route-level middleware,
	// between the distributor's global tier and the route's own.
	MiddlewareStack []reqctx.Middleware

	resolver PeerResolver

	awaits []awaitEntry

	routeNames map[string]bool
}

// PeerResolver lets a Module discover its siblings within the owning
// Distributor without the modulert package importing distributor (which
// already imports modulert), avoiding a cycle. Distributor implements it.
type PeerResolver interface {
	Peers() []*Module
}

type awaitEntry struct {
	depCode string
	handler AwaitHandler
	fired   bool
}

// New builds a fresh Module instance for info, wired to controller.
func New(info moduleinfo.Info, controller Controller) *Module {
	if controller == nil {
		controller = BaseController{}
	}
	m := &Module{
		Info:       info,
		Status:     Disabled,
		Controller: controller,
		Commands:   map[string]*Command{},
		Closures:   NewClosureCache(),
		Listens:    map[string]string{},
		Bindings:   map[string]string{},
		routeNames: map[string]bool{},
	}
	m.Emitter = NewEmitter(func(event string, err error) {
		_ = controller.OnError(m, fmt.Errorf("event %s: %w", event, err))
	})
	return m
}

// SetPeerResolver wires m to its distributor's peer set so Emit can reach
// cross-module listeners. Called once during discovery, before any
// Controller hook runs.
func (m *Module) SetPeerResolver(r PeerResolver) {
	m.mu.Lock()
	m.resolver = r
	m.mu.Unlock()
}

// Agent returns the registration facade bound to this module. The facade
// accepts registrations only while the module is Initializing or Ready; it
// returns an error for any registration attempted in another status.
func (m *Module) Agent() *Agent {
	return &Agent{module: m}
}

// TransitionTo advances the module's status, rejecting illegal jumps.
func (m *Module) TransitionTo(next Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.Status.CanTransition(next) {
		return fmt.Errorf("modulert: %s cannot transition from %s to %s", m.Info.Code, m.Status, next)
	}
	m.Status = next
	return nil
}

// registrationOpen reports whether the Agent may accept new registrations.
// Routes/events/commands are registered from OnInit (status Initializing)
// but a Controller may also register late-bound extras from OnLoad
// (status Ready), so both phases stay open.
func (m *Module) registrationOpen() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.Status == Initializing || m.Status == Ready
}

// AwaitReady registers handler to run once dep reaches Loaded. The handler
// runs when NotifyReady is called with dep; the distributor does that right
// after dep's transition to Loaded.
func (m *Module) AwaitReady(depCode string, handler AwaitHandler) error {
	if depCode == "" {
		return fmt.Errorf("modulert: await requires a dependency code")
	}
	if handler == nil {
		return fmt.Errorf("modulert: await requires a handler")
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.awaits = append(m.awaits, awaitEntry{depCode: depCode, handler: handler})
	return nil
}

// NotifyReady runs every await handler registered against dep's code that
// has not already fired, in registration order.
func (m *Module) NotifyReady(dep *Module) error {
	m.mu.Lock()
	pending := make([]int, 0)
	for i, a := range m.awaits {
		if !a.fired && a.depCode == dep.Info.Code {
			pending = append(pending, i)
		}
	}
	m.mu.Unlock()

	for _, i := range pending {
		m.mu.Lock()
		entry := m.awaits[i]
		m.mu.Unlock()
		if err := entry.handler(dep); err != nil {
			return fmt.Errorf("modulert: await %s for %s: %w", dep.Info.Code, m.Info.Code, err)
		}
		m.mu.Lock()
		m.awaits[i].fired = true
		m.mu.Unlock()
	}
	return nil
}

// PendingAwaits reports the dependency codes this module is still waiting
// on, i.e. the awaits whose handler has not yet fired.
func (m *Module) PendingAwaits() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var codes []string
	for _, a := range m.awaits {
		if !a.fired {
			codes = append(codes, a.depCode)
		}
	}
	return codes
}

// Dispatch runs the handler closure bound to r against captures and a host-
// supplied Context, surrounding it with OnRouted (before) and OnDispatch
// (after the handler returns) notifications and the module-level +
// route-level middleware tiers. A closure-load or
// handler failure is reported to Controller.OnError, which decides whether
// the error is recovered (nil) or re-raised.
func (m *Module) Dispatch(r *route.Route, captures []string, ctx *reqctx.Context) (any, error) {
	ctx.Routed = reqctx.RoutedInfo{
		ModuleCode:  m.Info.Code,
		URLPath:     ctx.Routed.URLPath,
		HandlerPath: r.ClosurePath,
		Captures:    captures,
		Method:      string(r.Method),
		RouteName:   r.Name,
	}
	if err := m.Controller.OnRouted(m, ctx.Routed); err != nil {
		return nil, err
	}
	closure, err := m.Closures.Load(r.ClosurePath)
	if err != nil {
		if recovered := m.Controller.OnError(m, err); recovered != nil {
			return nil, recovered
		}
		return nil, nil
	}
	handler := func(c *reqctx.Context) (any, error) {
		return closure.Call(captures, c.Values)
	}
	mw := append(append([]reqctx.Middleware{}, m.MiddlewareStack...), r.Middleware...)
	chained := reqctx.Chain(handler, mw...)
	result, err := chained(ctx)
	if hookErr := m.Controller.OnDispatch(m, ctx.Routed); hookErr != nil && err == nil {
		return nil, hookErr
	}
	if err != nil {
		if recovered := m.Controller.OnError(m, err); recovered != nil {
			return nil, recovered
		}
		return nil, nil
	}
	return result, nil
}

// Emit looks up every peer module listening for "{m.Info.Code}:{event}" in
// the owning distributor's stable discovery order, invokes each listener's
// bound handler path through Closures, and reports a listener failure to
// that listener's own OnError hook (isolating it from its siblings). If
// callback is non-nil it is invoked once per listener with the callee's
// code and the call's result/error.
func (m *Module) Emit(event string, args map[string]any, callback func(calleeCode string, result any, err error)) {
	m.mu.Lock()
	resolver := m.resolver
	m.mu.Unlock()
	if resolver == nil {
		return
	}
	key := m.Info.Code + ":" + event
	for _, peer := range resolver.Peers() {
		peer.mu.Lock()
		handlerPath, ok := peer.Listens[key]
		peer.mu.Unlock()
		if !ok {
			continue
		}
		result, err := peer.invokeListener(handlerPath, args)
		if err != nil {
			_ = peer.Controller.OnError(peer, fmt.Errorf("modulert: %s listening for %s: %w", peer.Info.Code, key, err))
		}
		if callback != nil {
			callback(peer.Info.Code, result, err)
		}
	}
}

func (m *Module) invokeListener(handlerPath string, args map[string]any) (any, error) {
	closure, err := m.Closures.Load(handlerPath)
	if err != nil {
		return nil, err
	}
	return closure.Call(nil, args)
}

// InvokeBound calls the handler path registered under methodName via Bind,
// the explicit first-class replacement for __call-based dispatch: a
// reference to a Controller method that isn't there maps instead to a
// closure file.
func (m *Module) InvokeBound(methodName string, captures []string, values map[string]any) (any, error) {
	m.mu.Lock()
	handlerPath, ok := m.Bindings[methodName]
	m.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("modulert: %s has no method binding %q", m.Info.Code, methodName)
	}
	closure, err := m.Closures.Load(handlerPath)
	if err != nil {
		return nil, err
	}
	return closure.Call(captures, values)
}
