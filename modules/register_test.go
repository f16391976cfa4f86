package modules

import (
	"testing"

	"github.com/razyhost/razy/internal/distributor"
)

func TestRegisterInstallsAllSampleControllers(t *testing.T) {
	registry := distributor.NewControllerRegistry()
	if err := Register(registry); err != nil {
		t.Fatalf("Register: %v", err)
	}
	codes := registry.Codes()
	want := map[string]bool{"razy.counter": false, "razy.greeter": false, "razy.watcher": false}
	for _, c := range codes {
		if _, ok := want[c]; ok {
			want[c] = true
		}
	}
	for code, found := range want {
		if !found {
			t.Fatalf("expected %s to be registered, got codes %v", code, codes)
		}
	}
}

func TestRegisterRejectsDoubleRegistration(t *testing.T) {
	registry := distributor.NewControllerRegistry()
	if err := Register(registry); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if err := Register(registry); err == nil {
		t.Fatalf("expected error re-registering the same codes")
	}
}
