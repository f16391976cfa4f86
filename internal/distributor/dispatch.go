package distributor

import (
	"strings"

	"github.com/razyhost/razy/internal/modulert"
	"github.com/razyhost/razy/internal/pathutil"
	"github.com/razyhost/razy/internal/razyerr"
	"github.com/razyhost/razy/internal/reqctx"
	"github.com/razyhost/razy/internal/route"
)

const maxShadowDepth = 1

// Dispatch resolves method/urlPath against the aggregated route tables and
// invokes the matched handler. Regex routes win over lazy routes; within
// regex routes, ties break on registration (discovery) order. A shadow
// match re-dispatches once against its target before giving up.
func (d *Distributor) Dispatch(method, urlPath string, ctx *reqctx.Context) (any, error) {
	return d.dispatchDepth(method, urlPath, ctx, 0)
}

func (d *Distributor) dispatchDepth(method, urlPath string, ctx *reqctx.Context, shadowDepth int) (any, error) {
	if shadowDepth > maxShadowDepth {
		return nil, &razyerr.RoutingError{Reason: "shadow route cycle detected for " + urlPath}
	}

	if target, ok := d.matchShadow(urlPath); ok {
		return d.dispatchDepth(method, target, ctx, shadowDepth+1)
	}

	if m, r, captures, ok := d.matchRegex(method, urlPath); ok {
		return d.invokeRoute(m, r, captures, urlPath, method, ctx)
	}

	if m, lazy, handlerPath, residual, ok := d.matchLazy(method, urlPath); ok {
		return d.invokeLazy(m, lazy, handlerPath, residual, method, ctx)
	}

	return nil, razyerr.SignalNotFound()
}

func (d *Distributor) invokeRoute(m *modulert.Module, r *route.Route, captures []string, urlPath, method string, ctx *reqctx.Context) (any, error) {
	info := reqctx.RoutedInfo{
		ModuleCode:  m.Info.Code,
		URLPath:     urlPath,
		HandlerPath: r.ClosurePath,
		Captures:    captures,
		Method:      method,
		RouteName:   r.Name,
	}
	d.LastRouted = info
	d.broadcast(func(peer *modulert.Module) error { return peer.Controller.OnRouted(peer, info) })

	closure, err := m.Closures.Load(r.ClosurePath)
	if err != nil {
		loadErr := &razyerr.ModuleLoadError{ModuleCode: m.Info.Code, Path: r.ClosurePath, Err: err}
		if dispatchErr := d.reportDispatchError(m, r.ClosurePath, loadErr); dispatchErr != nil {
			return nil, dispatchErr
		}
		return nil, nil
	}
	handler := func(c *reqctx.Context) (any, error) {
		return closure.Call(captures, c.Values)
	}
	mw := append(append(append([]reqctx.Middleware{}, d.GlobalMiddleware...), m.MiddlewareStack...), r.Middleware...)
	ctx.Routed = info
	result, dispatchErr := reqctx.Chain(handler, mw...)(ctx)

	d.broadcast(func(peer *modulert.Module) error { return peer.Controller.OnDispatch(peer, info) })

	if dispatchErr != nil {
		if wrapped := d.reportDispatchError(m, r.ClosurePath, dispatchErr); wrapped != nil {
			return nil, wrapped
		}
		return nil, nil
	}
	return result, nil
}

// reportDispatchError hands cause to the owning module's Controller.OnError
// and translates its decision: a nil return recovers (the caller discards
// the result), a non-nil return re-raises as a *razyerr.DispatchError.
func (d *Distributor) reportDispatchError(m *modulert.Module, path string, cause error) error {
	if recovered := m.Controller.OnError(m, cause); recovered != nil {
		return &razyerr.DispatchError{ModuleCode: m.Info.Code, Path: path, Err: recovered}
	}
	return nil
}

// invokeLazy resolves the residual path segments onto
// handlerRoot/segment.../leaf.go (or "@self.go" for an empty residual) and
// invokes it the same way as a regex route.
func (d *Distributor) invokeLazy(m *modulert.Module, lazy *route.Lazy, handlerRoot, residual, method string, ctx *reqctx.Context) (any, error) {
	segment := strings.Trim(residual, "/")
	handlerPath := handlerRoot + "/@self.go"
	var captures []string
	if segment != "" {
		handlerPath = handlerRoot + "/" + segment + ".go"
		captures = strings.Split(segment, "/")
	}

	info := reqctx.RoutedInfo{
		ModuleCode:  m.Info.Code,
		URLPath:     ctx.Routed.URLPath,
		HandlerPath: handlerPath,
		Captures:    captures,
		Method:      method,
	}
	d.LastRouted = info
	d.broadcast(func(peer *modulert.Module) error { return peer.Controller.OnRouted(peer, info) })

	closure, err := m.Closures.Load(handlerPath)
	if err != nil {
		loadErr := &razyerr.ModuleLoadError{ModuleCode: m.Info.Code, Path: handlerPath, Err: err}
		if dispatchErr := d.reportDispatchError(m, handlerPath, loadErr); dispatchErr != nil {
			return nil, dispatchErr
		}
		return nil, razyerr.SignalNotFound()
	}
	handler := func(c *reqctx.Context) (any, error) {
		return closure.Call(captures, c.Values)
	}
	mw := append(append(append([]reqctx.Middleware{}, d.GlobalMiddleware...), m.MiddlewareStack...), lazy.Middleware...)
	ctx.Routed = info
	result, err := reqctx.Chain(handler, mw...)(ctx)

	d.broadcast(func(peer *modulert.Module) error { return peer.Controller.OnDispatch(peer, info) })
	if err != nil {
		if wrapped := d.reportDispatchError(m, handlerPath, err); wrapped != nil {
			return nil, wrapped
		}
		return nil, nil
	}
	return result, nil
}

// broadcast invokes fn against every Loaded module, isolating a panicking
// or erroring peer from the rest (best-effort notification).
func (d *Distributor) broadcast(fn func(peer *modulert.Module) error) {
	for _, m := range d.LoadedModules() {
		func(m *modulert.Module) {
			defer func() {
				if r := recover(); r != nil {
					d.logger.Printf("distributor: %s notification panicked: %v", m.Info.Code, r)
				}
			}()
			if err := fn(m); err != nil {
				d.logger.Printf("distributor: %s notification error: %v", m.Info.Code, err)
			}
		}(m)
	}
}

func (d *Distributor) matchRegex(method, urlPath string) (*modulert.Module, *route.Route, []string, bool) {
	for _, r := range d.Regex {
		captures, ok := r.Match(method, urlPath)
		if !ok {
			continue
		}
		m, ok := d.LookupModule(r.ModuleCode)
		if !ok {
			continue
		}
		return m, r, captures, true
	}
	return nil, nil, nil, false
}

func (d *Distributor) matchShadow(urlPath string) (string, bool) {
	for _, s := range d.Shadows {
		if s.Regex.MatchString(urlPath) {
			return s.TargetPath, true
		}
	}
	return "", false
}

// matchLazy walks the lazy prefix table from deepest to shallowest,
// returning the first entry whose prefix matches urlPath along with the
// residual (unmatched) path segment.
func (d *Distributor) matchLazy(method, urlPath string) (*modulert.Module, *route.Lazy, string, string, bool) {
	for _, l := range d.Lazy {
		if !pathutil.HasPathPrefix(urlPath, l.PathPrefix) {
			continue
		}
		m, ok := d.LookupModule(l.ModuleCode)
		if !ok {
			continue
		}
		residual := strings.TrimPrefix(urlPath, l.PathPrefix)
		return m, l, l.HandlerRoot, residual, true
	}
	return nil, nil, "", "", false
}
