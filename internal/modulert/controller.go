package modulert

import "github.com/razyhost/razy/internal/reqctx"

// Controller is the set of lifecycle and dispatch hooks a module author may
// implement. Every method is optional: BaseController supplies a default
// (no-op, or "true" for the bool-returning hooks) so a module only overrides
// what it cares about, mirroring the embeddable Base pattern used elsewhere
// in this codebase for default plumbing.
type Controller interface {
	OnInit(m *Module) error
	OnRequire(m *Module) (bool, error)
	OnLoad(m *Module) error
	OnReady(m *Module) error
	OnEntry(m *Module) (bool, error)
	OnError(m *Module, err error) error
	OnAPICall(m *Module, callerCode, command string, args map[string]any) (bool, any, error)
	OnTouch(m *Module, callerCode, callerVersion, message string) (bool, error)
	OnRouted(m *Module, info reqctx.RoutedInfo) error
	OnDispatch(m *Module, info reqctx.RoutedInfo) error
	OnDispose(m *Module)
	OnBridgeCall(m *Module, callerCode, command string, args map[string]any) (any, error)
	OnScriptReady(m *Module) error
}

// BaseController implements Controller with inert defaults. Module authors
// embed it and override only the hooks they need.
type BaseController struct{}

func (BaseController) OnInit(*Module) error         { return nil }
func (BaseController) OnRequire(*Module) (bool, error) {
	return true, nil
}
func (BaseController) OnLoad(*Module) error  { return nil }
func (BaseController) OnReady(*Module) error { return nil }
func (BaseController) OnEntry(*Module) (bool, error) {
	return true, nil
}
// OnError's default re-raises: a module only recovers by overriding this
// hook and returning nil.
func (BaseController) OnError(_ *Module, err error) error { return err }
func (BaseController) OnAPICall(*Module, string, string, map[string]any) (bool, any, error) {
	return true, nil, nil
}
func (BaseController) OnTouch(*Module, string, string, string) (bool, error) {
	return true, nil
}
func (BaseController) OnRouted(*Module, reqctx.RoutedInfo) error {
	return nil
}
func (BaseController) OnDispatch(*Module, reqctx.RoutedInfo) error {
	return nil
}
func (BaseController) OnDispose(*Module) {}
func (BaseController) OnBridgeCall(*Module, string, string, map[string]any) (any, error) {
	return nil, nil
}
func (BaseController) OnScriptReady(*Module) error { return nil }

var _ Controller = BaseController{}
