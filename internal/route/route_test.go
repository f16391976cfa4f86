package route

import (
	"testing"

	"github.com/razyhost/razy/internal/reqctx"
)

func TestRouteMatchCapturesAndMethod(t *testing.T) {
	r, err := New("/user/:d{1,6}/profile", "handlers/profile.go", reqctx.MethodGet, "user.profile")
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	captures, ok := r.Match("GET", "/user/42/profile")
	if !ok {
		t.Fatalf("expected match")
	}
	if len(captures) != 1 || captures[0] != "42" {
		t.Fatalf("captures = %v, want [42]", captures)
	}

	if _, ok := r.Match("POST", "/user/42/profile"); ok {
		t.Fatalf("method filter should have rejected POST")
	}
	if _, ok := r.Match("GET", "/user/1234567/profile"); ok {
		t.Fatalf("expected no match for over-long digit run")
	}
}

func TestRouteMatchAnyMethod(t *testing.T) {
	r, err := New("/ping", "handlers/ping.go", reqctx.MethodAny, "")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, ok := r.Match("DELETE", "/ping"); !ok {
		t.Fatalf("MethodAny should accept any verb")
	}
}

func TestNewPropagatesCompileError(t *testing.T) {
	if _, err := New("/bad/:q", "x.go", reqctx.MethodGet, ""); err == nil {
		t.Fatalf("expected compile error to propagate")
	}
}

func TestMiddlewareChainOrder(t *testing.T) {
	var order []string
	mk := func(name string) reqctx.Middleware {
		return func(next reqctx.HandlerFunc) reqctx.HandlerFunc {
			return func(ctx *reqctx.Context) (any, error) {
				order = append(order, name)
				return next(ctx)
			}
		}
	}
	terminal := func(ctx *reqctx.Context) (any, error) {
		order = append(order, "handler")
		return nil, nil
	}
	chained := reqctx.Chain(terminal, mk("outer"), mk("inner"))
	if _, err := chained(&reqctx.Context{}); err != nil {
		t.Fatalf("chain: %v", err)
	}
	want := []string{"outer", "inner", "handler"}
	if len(order) != len(want) {
		t.Fatalf("order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("order = %v, want %v", order, want)
		}
	}
}
