package modulert

import (
	"fmt"
	"regexp"

	"github.com/razyhost/razy/internal/reqctx"
	"github.com/razyhost/razy/internal/route"
)

var commandNameRE = regexp.MustCompile(`^#?[a-z][a-zA-Z0-9_.]*$`)

// Agent is the only surface a Controller's OnInit/OnLoad should use to
// register routes, events, and cross-module commands. Every method checks
// the module's lifecycle phase and rejects duplicate names, so validation
// happens at one choke point no matter how deeply nested the call (through
// route.Group, for instance).
type Agent struct {
	module *Module
}

var _ route.Registrar = (*Agent)(nil)

func (a *Agent) requireOpen() error {
	if !a.module.registrationOpen() {
		return fmt.Errorf("modulert: %s: registration is closed outside INITIALIZING/READY (current %s)", a.module.Info.Code, a.module.Status)
	}
	return nil
}

// AddRoute registers a regex route, implementing route.Registrar.
func (a *Agent) AddRoute(pattern, closurePath string, method reqctx.Method, name string, mw ...reqctx.Middleware) error {
	if err := a.requireOpen(); err != nil {
		return err
	}
	m := a.module
	if name != "" {
		m.mu.Lock()
		if m.routeNames[name] {
			m.mu.Unlock()
			return fmt.Errorf("modulert: %s: duplicate route name %q", m.Info.Code, name)
		}
		m.routeNames[name] = true
		m.mu.Unlock()
	}
	r, err := route.New(pattern, closurePath, method, name, mw...)
	if err != nil {
		return err
	}
	r.ModuleCode = m.Info.Code
	m.mu.Lock()
	m.Routes = append(m.Routes, r)
	m.mu.Unlock()
	return nil
}

// AddLazyRoute registers a lazy folder-tree prefix, implementing
// route.Registrar.
func (a *Agent) AddLazyRoute(pathPrefix, handlerRoot string, mw ...reqctx.Middleware) error {
	if err := a.requireOpen(); err != nil {
		return err
	}
	m := a.module
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Lazy = append(m.Lazy, &route.Lazy{
		PathPrefix:  pathPrefix,
		ModuleCode:  m.Info.Code,
		HandlerRoot: handlerRoot,
		Middleware:  mw,
	})
	return nil
}

// AddShadowRoute registers a redirection: requests matching pattern are
// re-dispatched as if targetPath had been requested against
// targetModuleCode.
func (a *Agent) AddShadowRoute(pattern, targetModuleCode, targetPath string) error {
	if err := a.requireOpen(); err != nil {
		return err
	}
	re, err := route.Compile(pattern)
	if err != nil {
		return err
	}
	m := a.module
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Shadows = append(m.Shadows, &route.Shadow{
		Pattern:          pattern,
		Regex:            re,
		SourceModuleCode: m.Info.Code,
		TargetModuleCode: targetModuleCode,
		TargetPath:       targetPath,
	})
	return nil
}

// AddCommand registers a cross-module command. A name beginning with "#"
// is distributor-private by convention; vis is still authoritative.
func (a *Agent) AddCommand(name string, vis Visibility, handler CommandHandler) error {
	if err := a.requireOpen(); err != nil {
		return err
	}
	if !commandNameRE.MatchString(name) {
		return fmt.Errorf("modulert: invalid command name %q", name)
	}
	if handler == nil {
		return fmt.Errorf("modulert: command %q requires a handler", name)
	}
	m := a.module
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.Commands[name]; exists {
		return fmt.Errorf("modulert: %s: duplicate command %q", m.Info.Code, name)
	}
	m.Commands[name] = &Command{Name: name, Visibility: vis, Handler: handler}
	return nil
}

// On registers an inline, same-module event listener on the module's own
// Emitter. Use Listen instead to react to a peer module's emit.
func (a *Agent) On(event string, l Listener) error {
	if err := a.requireOpen(); err != nil {
		return err
	}
	a.module.Emitter.On(event, l)
	return nil
}

// Listen registers this module as a listener for "emitterCode:event": when
// the peer module identified by emitterCode emits event, handlerPath is
// resolved through the module's Closures and invoked with the emitted args. Keys
// (emitterCode:event) are unique per module.
func (a *Agent) Listen(emitterCode, event, handlerPath string) error {
	if err := a.requireOpen(); err != nil {
		return err
	}
	if emitterCode == "" || event == "" {
		return fmt.Errorf("modulert: listen requires an emitter code and event name")
	}
	if handlerPath == "" {
		return fmt.Errorf("modulert: listen %s:%s requires a handler path", emitterCode, event)
	}
	m := a.module
	key := emitterCode + ":" + event
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.Listens[key]; exists {
		return fmt.Errorf("modulert: %s: duplicate listener for %q", m.Info.Code, key)
	}
	m.Listens[key] = handlerPath
	return nil
}

// Bind registers a method binding: methodName resolves to handlerPath via
// Module.InvokeBound, the explicit stand-in for __call-based dispatch onto
// a closure file. Keys are unique per module.
func (a *Agent) Bind(methodName, handlerPath string) error {
	if err := a.requireOpen(); err != nil {
		return err
	}
	if methodName == "" {
		return fmt.Errorf("modulert: bind requires a method name")
	}
	if handlerPath == "" {
		return fmt.Errorf("modulert: bind %q requires a handler path", methodName)
	}
	m := a.module
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.Bindings[methodName]; exists {
		return fmt.Errorf("modulert: %s: duplicate binding %q", m.Info.Code, methodName)
	}
	m.Bindings[methodName] = handlerPath
	return nil
}

// Middleware appends to the module-level middleware tier: it wraps every
// route/lazy handler this module owns, applied regardless of route
// grouping, between the distributor's global tier and the route's own.
func (a *Agent) Middleware(mw ...reqctx.Middleware) error {
	if err := a.requireOpen(); err != nil {
		return err
	}
	m := a.module
	m.mu.Lock()
	defer m.mu.Unlock()
	m.MiddlewareStack = append(m.MiddlewareStack, mw...)
	return nil
}

// Await registers a dependency-ready continuation.
func (a *Agent) Await(depCode string, handler AwaitHandler) error {
	if err := a.requireOpen(); err != nil {
		return err
	}
	return a.module.AwaitReady(depCode, handler)
}

// Group returns a route.Group rooted at "/" bound to this Agent, so
// Controllers can register nested prefixes/middleware through the shared
// route.Registrar plumbing.
func (a *Agent) Group() *route.Group {
	return route.NewGroup(a)
}
