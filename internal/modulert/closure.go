package modulert

import (
	"fmt"
	"os"
	"reflect"
	"strings"
	"sync"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"
)

// handlerFuncName is the well-known exported function every handler source
// file must define. It receives the route captures and request values and
// returns a response value or an error — the interpreted-code analogue of
// "the handler file must yield a callable".
const handlerFuncName = "Handle"

// Closure is a loaded, callable handler. Call re-invokes the interpreted
// function; the interpreter state is built once and cached.
type Closure struct {
	path string
	fn   reflect.Value
}

// Call runs the closure with the route captures and an arbitrary value bag.
func (c *Closure) Call(captures []string, values map[string]any) (any, error) {
	results := c.fn.Call([]reflect.Value{reflect.ValueOf(captures), reflect.ValueOf(values)})
	if len(results) != 2 {
		return nil, fmt.Errorf("modulert: %s must return (any, error)", handlerFuncName)
	}
	var err error
	if e := results[1].Interface(); e != nil {
		var ok bool
		err, ok = e.(error)
		if !ok {
			return nil, fmt.Errorf("modulert: %s returned non-error second value", handlerFuncName)
		}
	}
	return results[0].Interface(), err
}

// ClosureCache interprets and caches handler source files keyed by path, so
// a file is only parsed once no matter how many routes reference it.
type ClosureCache struct {
	mu    sync.RWMutex
	cache map[string]*Closure
}

// NewClosureCache returns an empty cache.
func NewClosureCache() *ClosureCache {
	return &ClosureCache{cache: map[string]*Closure{}}
}

// Load returns the Closure for path, interpreting the source file on first
// use and reusing the cached value afterward.
func (cc *ClosureCache) Load(path string) (*Closure, error) {
	cc.mu.RLock()
	if c, ok := cc.cache[path]; ok {
		cc.mu.RUnlock()
		return c, nil
	}
	cc.mu.RUnlock()

	c, err := loadClosure(path)
	if err != nil {
		return nil, err
	}

	cc.mu.Lock()
	if existing, ok := cc.cache[path]; ok {
		cc.mu.Unlock()
		return existing, nil
	}
	cc.cache[path] = c
	cc.mu.Unlock()
	return c, nil
}

// Invalidate drops a cached closure, forcing the next Load to re-interpret
// the source file.
func (cc *ClosureCache) Invalidate(path string) {
	cc.mu.Lock()
	delete(cc.cache, path)
	cc.mu.Unlock()
}

func loadClosure(path string) (*Closure, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("modulert: read handler %s: %w", path, err)
	}
	if len(strings.TrimSpace(string(src))) == 0 {
		return nil, fmt.Errorf("modulert: handler %s is empty", path)
	}

	i := interp.New(interp.Options{})
	if err := i.Use(stdlib.Symbols); err != nil {
		return nil, fmt.Errorf("modulert: load stdlib symbols: %w", err)
	}
	if _, err := i.EvalPath(path); err != nil {
		return nil, fmt.Errorf("modulert: interpret handler %s: %w", path, err)
	}
	fn, err := i.Eval(handlerFuncName)
	if err != nil {
		return nil, fmt.Errorf("modulert: handler %s must define func %s([]string, map[string]any) (any, error): %w", path, handlerFuncName, err)
	}
	if fn.Kind() != reflect.Func {
		return nil, fmt.Errorf("modulert: %s in %s is not a function", handlerFuncName, path)
	}
	if fn.Type().NumIn() != 2 || fn.Type().NumOut() != 2 {
		return nil, fmt.Errorf("modulert: %s in %s has the wrong signature", handlerFuncName, path)
	}
	return &Closure{path: path, fn: fn}, nil
}
