package route

import (
	"github.com/razyhost/razy/internal/pathutil"
	"github.com/razyhost/razy/internal/reqctx"
)

// Registrar is implemented by the Agent: the single choke point every
// Group funnels registrations through so the Agent's own validation
// (lifecycle phase, name format, duplicate keys) always
// runs, no matter how deeply nested the Group.
type Registrar interface {
	AddRoute(pattern, closurePath string, method reqctx.Method, name string, mw ...reqctx.Middleware) error
	AddLazyRoute(pathPrefix, handlerRoot string, mw ...reqctx.Middleware) error
}

// Group is a scoped route builder: a URL-path prefix plus an accumulated
// middleware stack, both applied to everything registered through it.
// Groups may be nested via Group.Group.
type Group struct {
	registrar  Registrar
	prefix     string
	middleware []reqctx.Middleware
}

// NewGroup returns the root group for a Registrar.
func NewGroup(r Registrar) *Group {
	return &Group{registrar: r, prefix: "/"}
}

// Group returns a nested Group scoped under prefix, inheriting this group's
// middleware and appending mw.
func (g *Group) Group(prefix string, mw ...reqctx.Middleware) *Group {
	return &Group{
		registrar:  g.registrar,
		prefix:     pathutil.Join('/', g.prefix, prefix),
		middleware: append(append([]reqctx.Middleware{}, g.middleware...), mw...),
	}
}

// Route registers a regex route under this group's prefix and middleware.
func (g *Group) Route(pattern, closurePath string, method reqctx.Method, name string, mw ...reqctx.Middleware) error {
	full := pathutil.Join('/', g.prefix, pattern)
	combined := append(append([]reqctx.Middleware{}, g.middleware...), mw...)
	return g.registrar.AddRoute(full, closurePath, method, name, combined...)
}

// LazyRoute registers a lazy folder-tree prefix under this group.
func (g *Group) LazyRoute(pathPrefix, handlerRoot string, mw ...reqctx.Middleware) error {
	full := pathutil.Join('/', g.prefix, pathPrefix)
	combined := append(append([]reqctx.Middleware{}, g.middleware...), mw...)
	return g.registrar.AddLazyRoute(full, handlerRoot, combined...)
}
