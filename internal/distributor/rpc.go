package distributor

import (
	"fmt"

	"github.com/razyhost/razy/internal/modulert"
)

// APIHandle is the caller-facing view of one module's command table,
// obtained via Distributor.ApiOf. A nil handle (Module() == nil) is a
// no-op: calling it always returns the "no emitter" sentinel.
type APIHandle struct {
	callerCode string
	module     *modulert.Module
}

// Module returns the resolved callee, or nil if no module publishes this
// API group.
func (h *APIHandle) Module() *modulert.Module {
	if h == nil {
		return nil
	}
	return h.module
}

// ErrNoEmitter is returned by Call when the handle has no resolved callee.
var ErrNoEmitter = fmt.Errorf("distributor: no emitter for that api group")

// ErrCallRefused is returned by Call when the callee's OnAPICall hook
// declines the invocation.
var ErrCallRefused = fmt.Errorf("distributor: api call refused")

// Call invokes command against the handle's module, routed through
// OnAPICall first. command is looked up in the module's command table
// without regard to visibility: ApiOf only resolves within one
// distributor, and every registered command (# or not) is reachable to a
// distributor-local caller.
func (h *APIHandle) Call(command string, args map[string]any) (any, error) {
	if h == nil || h.module == nil {
		return nil, ErrNoEmitter
	}
	m := h.module
	cmd, ok := m.Commands[command]
	if !ok {
		return nil, fmt.Errorf("distributor: module %s has no command %q", m.Info.Code, command)
	}
	accepted, _, err := m.Controller.OnAPICall(m, h.callerCode, command, args)
	if err != nil {
		return nil, err
	}
	if !accepted {
		return nil, ErrCallRefused
	}
	return cmd.Handler(args)
}

// ApiOf resolves the module publishing apiGroupCode as its API code and
// returns a handle scoped to callerCode. A missing group yields a non-nil
// handle whose Module() is nil, matching "null callee" (a no-op handle)
// rather than an error.
func (d *Distributor) ApiOf(callerCode, apiGroupCode string) *APIHandle {
	for _, code := range d.order {
		m, ok := d.LookupModule(code)
		if !ok || m.Status != modulert.Loaded {
			continue
		}
		if m.Info.APICode == apiGroupCode {
			return &APIHandle{callerCode: callerCode, module: m}
		}
	}
	return &APIHandle{callerCode: callerCode}
}

// BridgeCall invokes an unprefixed (non "#") command published by peer, a
// Distributor in the same Application, on behalf of a module hosted by d.
// It is the cross-distributor counterpart to APIHandle.Call, routed
// through the callee's OnBridgeCall hook instead of OnAPICall.
func BridgeCall(caller *modulert.Module, peer *Distributor, targetCode, command string, args map[string]any) (any, error) {
	if peer == nil {
		return nil, ErrNoEmitter
	}
	target, ok := peer.LookupModule(targetCode)
	if !ok || target.Status != modulert.Loaded {
		return nil, ErrNoEmitter
	}
	cmd, ok := target.Commands[command]
	if !ok || cmd.Visibility != modulert.VisibilityBridge {
		return nil, fmt.Errorf("distributor: module %s has no bridge command %q", targetCode, command)
	}
	if _, err := target.Controller.OnBridgeCall(target, caller.Info.Code, command, args); err != nil {
		return nil, err
	}
	return cmd.Handler(args)
}

// Handshake is a declaration-of-dependence: it returns true iff peerCode
// names a Loaded module in d and that module's OnTouch hook accepts the
// message. Handshake is side-effect-free from the core's point of view;
// modules may record the exchange themselves.
func (d *Distributor) Handshake(callerCode, callerVersion, peerCode, message string) (bool, error) {
	peer, ok := d.LookupModule(peerCode)
	if !ok || peer.Status != modulert.Loaded {
		return false, nil
	}
	return peer.Controller.OnTouch(peer, callerCode, callerVersion, message)
}
