package siteconfig

import (
	"testing"
	"testing/fstest"
)

func sitesFSWith(codes ...string) fstest.MapFS {
	fsys := fstest.MapFS{}
	for _, c := range codes {
		fsys[c+"/dist.yaml"] = &fstest.MapFile{Data: []byte("modules: []\n")}
	}
	return fsys
}

func TestLoadMissingFileIsEmpty(t *testing.T) {
	fsys := fstest.MapFS{}
	reg, err := Load(fsys, "sites.yaml", nil, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(reg.Mounts) != 0 || len(reg.Alias) != 0 {
		t.Fatalf("expected empty registry, got %+v", reg)
	}
}

func TestLoadNestedMounts(t *testing.T) {
	doc := []byte(`
domains:
  example.com:
    /: root
    /api:
      /v1: v1
      /: api
alias:
  www.example.com: example.com
`)
	fsys := fstest.MapFS{"sites.yaml": &fstest.MapFile{Data: doc}}
	sites := sitesFSWith("root", "v1", "api")
	reg, err := Load(fsys, "sites.yaml", sites, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	mounts, ok := reg.Mounts["example.com"]
	if !ok {
		t.Fatalf("expected example.com mounts")
	}
	want := []string{"/api/v1", "/api", "/"}
	if len(mounts) != len(want) {
		t.Fatalf("got %+v, want order %v", mounts, want)
	}
	for i, w := range want {
		if mounts[i].URLPath != w {
			t.Fatalf("mounts[%d] = %s, want %s", i, mounts[i].URLPath, w)
		}
	}
	if reg.Alias["www.example.com"] != "example.com" {
		t.Fatalf("alias not resolved")
	}
	if reg.AliasReverse["example.com"][0] != "www.example.com" {
		t.Fatalf("alias reverse not populated")
	}
}

func TestLoadDropsMissingDistConfig(t *testing.T) {
	doc := []byte(`
domains:
  example.com:
    /: ghost
`)
	fsys := fstest.MapFS{"sites.yaml": &fstest.MapFile{Data: doc}}
	sites := fstest.MapFS{} // no ghost/dist.yaml
	reg, err := Load(fsys, "sites.yaml", sites, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if _, ok := reg.Mounts["example.com"]; ok {
		t.Fatalf("expected domain with only invalid mounts to be dropped entirely")
	}
}

func TestLoadDropsBadIdentifierSyntax(t *testing.T) {
	doc := []byte(`
domains:
  example.com:
    /: Bad_Code!
    /ok: good
`)
	fsys := fstest.MapFS{"sites.yaml": &fstest.MapFile{Data: doc}}
	sites := sitesFSWith("good")
	reg, err := Load(fsys, "sites.yaml", sites, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	mounts := reg.Mounts["example.com"]
	if len(mounts) != 1 || mounts[0].URLPath != "/ok" {
		t.Fatalf("expected only /ok to survive, got %+v", mounts)
	}
}
