// Package modulert implements the per-module runtime: the lifecycle state
// machine, the Controller contract a module author implements, the Agent
// facade used to register routes/events/commands, and the yaegi-backed
// closure loader that turns a handler source file into a callable.
package modulert

import "fmt"

// Status is a module's position in its lifecycle. Transitions are driven
// by the distributor running Discovery, Requirement resolution, Init,
// Validate, Load and Notify in order.
type Status int

const (
	Disabled Status = iota
	Initializing
	WaitingValidate
	Preloading
	Loaded
	Ready
	Unloaded
	Failed
)

func (s Status) String() string {
	switch s {
	case Disabled:
		return "DISABLED"
	case Initializing:
		return "INITIALIZING"
	case WaitingValidate:
		return "WAITING_VALIDATE"
	case Preloading:
		return "PRELOADING"
	case Loaded:
		return "LOADED"
	case Ready:
		return "READY"
	case Unloaded:
		return "UNLOADED"
	case Failed:
		return "FAILED"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// allowed maps each status to the set of statuses it may advance to.
// Validate (OnRequire true) lands on Ready; Load (OnLoad) then advances a
// Ready module to Loaded, which is the terminal status of a successful
// lifecycle — Notify (OnReady) runs against Loaded modules without moving
// them further. Preloading is the deferred/retry branch of Validate: a
// module stuck there at the end of the lifecycle is Unloaded.
var allowed = map[Status]map[Status]bool{
	Disabled:        {Initializing: true, Unloaded: true},
	Initializing:    {WaitingValidate: true, Failed: true, Unloaded: true},
	WaitingValidate: {Ready: true, Preloading: true, Unloaded: true, Failed: true},
	Preloading:      {Ready: true, Unloaded: true, Failed: true},
	Ready:           {Loaded: true, Failed: true},
	Loaded:          {Failed: true},
	Failed:          {Unloaded: true},
	Unloaded:        {},
}

// CanTransition reports whether moving from s to next is a legal step.
func (s Status) CanTransition(next Status) bool {
	return allowed[s][next]
}

// Terminal reports whether the module has reached a state the distributor
// will not advance further on its own.
func (s Status) Terminal() bool {
	return s == Loaded || s == Failed || s == Unloaded
}
