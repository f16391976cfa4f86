package domain

import (
	"testing"
	"testing/fstest"

	"github.com/razyhost/razy/internal/distributor"
	"github.com/razyhost/razy/internal/identifier"
	"github.com/razyhost/razy/internal/siteconfig"
)

func mustIdentifier(t *testing.T, s string) identifier.Identifier {
	t.Helper()
	id, err := identifier.Parse(s)
	if err != nil {
		t.Fatalf("Parse(%q): %v", s, err)
	}
	return id
}

func TestMatchQueryEmptyTreatedAsRoot(t *testing.T) {
	sitesFS := fstest.MapFS{
		"shop/dist.yaml": &fstest.MapFile{Data: []byte("modules: []\n")},
	}
	mounts := []siteconfig.Mount{{URLPath: "/", Identifier: mustIdentifier(t, "shop")}}
	d := New("example.com", mounts, sitesFS, distributor.NewControllerRegistry(), nil)

	dist, err := d.MatchQuery("")
	if err != nil {
		t.Fatalf("MatchQuery: %v", err)
	}
	if dist == nil {
		t.Fatalf("expected a match for empty query against root mount")
	}
	if dist.ResidualPath != "/" {
		t.Fatalf("ResidualPath = %q, want /", dist.ResidualPath)
	}
}

func TestMatchQueryPrefersDeepestMount(t *testing.T) {
	sitesFS := fstest.MapFS{
		"shop/dist.yaml": &fstest.MapFile{Data: []byte("modules: []\n")},
		"api/dist.yaml":  &fstest.MapFile{Data: []byte("modules: []\n")},
	}
	mounts := []siteconfig.Mount{
		{URLPath: "/api", Identifier: mustIdentifier(t, "api")},
		{URLPath: "/", Identifier: mustIdentifier(t, "shop")},
	}
	d := New("example.com", mounts, sitesFS, distributor.NewControllerRegistry(), nil)

	dist, err := d.MatchQuery("/api/v1/orders")
	if err != nil {
		t.Fatalf("MatchQuery: %v", err)
	}
	if dist == nil || dist.Identifier.Code != "api" {
		t.Fatalf("expected the /api mount to win, got %+v", dist)
	}
	if dist.ResidualPath != "/v1/orders" {
		t.Fatalf("ResidualPath = %q, want /v1/orders", dist.ResidualPath)
	}
}

func TestMatchQueryDoesNotMatchOnPartialSegment(t *testing.T) {
	sitesFS := fstest.MapFS{
		"shop/dist.yaml": &fstest.MapFile{Data: []byte("modules: []\n")},
	}
	mounts := []siteconfig.Mount{{URLPath: "/shop", Identifier: mustIdentifier(t, "shop")}}
	d := New("example.com", mounts, sitesFS, distributor.NewControllerRegistry(), nil)

	dist, err := d.MatchQuery("/shopkeeper")
	if err != nil {
		t.Fatalf("MatchQuery: %v", err)
	}
	if dist != nil {
		t.Fatalf("expected no match for a non-segment-aligned prefix, got %+v", dist)
	}
}

func TestMatchQueryNoMountReturnsNil(t *testing.T) {
	d := New("example.com", nil, fstest.MapFS{}, distributor.NewControllerRegistry(), nil)
	dist, err := d.MatchQuery("/anything")
	if err != nil {
		t.Fatalf("MatchQuery: %v", err)
	}
	if dist != nil {
		t.Fatalf("expected nil distributor with no mounts configured")
	}
}

func TestResidualPathRootMountReturnsQueryUnchanged(t *testing.T) {
	if got := ResidualPath("/a/b", "/"); got != "/a/b" {
		t.Fatalf("got %q, want /a/b", got)
	}
}

func TestResidualPathExactMountReturnsRoot(t *testing.T) {
	if got := ResidualPath("/shop", "/shop"); got != "/" {
		t.Fatalf("got %q, want /", got)
	}
}
