package modulert

import (
	"os"
	"path/filepath"
	"testing"
)

const sampleHandlerSource = `package main

import "strings"

func Handle(captures []string, values map[string]any) (any, error) {
	if len(captures) == 0 {
		return "no-capture", nil
	}
	return strings.ToUpper(captures[0]), nil
}`

const brokenHandlerSource = `package main

func NotHandle() {}
`

func writeHandler(t *testing.T, src string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "handler.go")
	if err := os.WriteFile(path, []byte(src), 0o644); err != nil {
		t.Fatalf("write handler: %v", err)
	}
	return path
}

func TestClosureCacheLoadAndCall(t *testing.T) {
	path := writeHandler(t, sampleHandlerSource)
	cc := NewClosureCache()

	c, err := cc.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	result, err := c.Call([]string{"hello"}, nil)
	if err != nil {
		t.Fatalf("Call: %v", err)
	}
	if result != "HELLO" {
		t.Fatalf("result = %v, want HELLO", result)
	}
}

func TestClosureCacheReusesEntry(t *testing.T) {
	path := writeHandler(t, sampleHandlerSource)
	cc := NewClosureCache()

	first, err := cc.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	second, err := cc.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if first != second {
		t.Fatalf("expected cached closure to be reused")
	}
}

func TestClosureCacheInvalidate(t *testing.T) {
	path := writeHandler(t, sampleHandlerSource)
	cc := NewClosureCache()
	first, _ := cc.Load(path)
	cc.Invalidate(path)
	second, err := cc.Load(path)
	if err != nil {
		t.Fatalf("Load after invalidate: %v", err)
	}
	if first == second {
		t.Fatalf("expected invalidate to force a fresh closure")
	}
}

func TestClosureCacheMissingHandlerFunc(t *testing.T) {
	path := writeHandler(t, brokenHandlerSource)
	cc := NewClosureCache()
	if _, err := cc.Load(path); err == nil {
		t.Fatalf("expected error for missing Handle function")
	}
}

func TestClosureCacheEmptyFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "empty.go")
	if err := os.WriteFile(path, []byte("  \n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	cc := NewClosureCache()
	if _, err := cc.Load(path); err == nil {
		t.Fatalf("expected error for empty handler file")
	}
}
