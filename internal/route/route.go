package route

import (
	"regexp"

	"github.com/razyhost/razy/internal/reqctx"
)

// Route is a single registered entry: a handler path, an HTTP method
// filter, an optional name, and a middleware chain.
type Route struct {
	Pattern     string
	Regex       *regexp.Regexp // nil for lazy-folder-tree registrations
	ClosurePath string
	Method      reqctx.Method
	Name        string
	Middleware  []reqctx.Middleware
	ModuleCode  string
}

// Lazy is one lazy folder-tree route-prefix registration.
type Lazy struct {
	PathPrefix  string
	ModuleCode  string
	HandlerRoot string
	Middleware  []reqctx.Middleware
}

// Shadow is a redirection rule: a matched pattern re-dispatches as if
// targetPath had been requested against targetModuleCode.
type Shadow struct {
	Pattern          string
	Regex            *regexp.Regexp
	SourceModuleCode string
	TargetModuleCode string
	TargetPath       string
}

// New compiles pattern and builds a Route. ModuleCode is filled in by the
// caller (the Agent) after validating the module's own namespace.
func New(pattern, closurePath string, method reqctx.Method, name string, mw ...reqctx.Middleware) (*Route, error) {
	re, err := Compile(pattern)
	if err != nil {
		return nil, err
	}
	return &Route{
		Pattern:     pattern,
		Regex:       re,
		ClosurePath: closurePath,
		Method:      method,
		Name:        name,
		Middleware:  mw,
	}, nil
}

// Match reports whether path matches this route's method and pattern,
// returning the captured groups in order.
func (r *Route) Match(method, path string) (captures []string, ok bool) {
	if !r.Method.Matches(method) {
		return nil, false
	}
	groups := r.Regex.FindStringSubmatch(path)
	if groups == nil {
		return nil, false
	}
	return groups[1:], true
}
