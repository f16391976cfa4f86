package modulert

import "testing"

func TestTransitionsFollowLifecycleOrder(t *testing.T) {
	if !Disabled.CanTransition(Initializing) {
		t.Fatalf("Disabled must advance to Initializing")
	}
	if Disabled.CanTransition(Ready) {
		t.Fatalf("Disabled must not jump straight to Ready")
	}
	if !WaitingValidate.CanTransition(Ready) {
		t.Fatalf("WaitingValidate must advance to Ready on a successful OnRequire")
	}
	if !WaitingValidate.CanTransition(Preloading) {
		t.Fatalf("WaitingValidate must defer to Preloading on a failed OnRequire")
	}
	if !Preloading.CanTransition(Ready) {
		t.Fatalf("Preloading must be able to recover to Ready on retry")
	}
	if !Ready.CanTransition(Loaded) {
		t.Fatalf("Ready must advance to Loaded")
	}
	if Loaded.CanTransition(Initializing) {
		t.Fatalf("Loaded must not regress to Initializing")
	}
}

func TestTerminalStatuses(t *testing.T) {
	for _, s := range []Status{Loaded, Failed, Unloaded} {
		if !s.Terminal() {
			t.Fatalf("%s should be terminal", s)
		}
	}
	for _, s := range []Status{Disabled, Initializing, WaitingValidate, Preloading, Ready} {
		if s.Terminal() {
			t.Fatalf("%s should not be terminal", s)
		}
	}
}

func TestStatusString(t *testing.T) {
	if Preloading.String() != "PRELOADING" {
		t.Fatalf("got %q", Preloading.String())
	}
}
