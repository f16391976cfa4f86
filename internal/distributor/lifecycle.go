package distributor

import (
	"io/fs"

	"github.com/razyhost/razy/internal/moduleinfo"
	"github.com/razyhost/razy/internal/modulert"
)

// Initialize runs Phase A (discovery) through Phase F (notify) against
// fsys, in order. A module's failure in phase N excludes it from phase
// N+1 but never aborts the distributor as a whole.
func (d *Distributor) Initialize(fsys fs.FS) error {
	d.sourceFS = fsys
	d.phaseDiscovery(fsys)
	d.phaseRequirements()
	d.phaseInit()
	d.phaseValidate()
	d.phaseLoad()
	d.phaseNotify()
	d.aggregateRouteTables()
	return nil
}

// phaseDiscovery walks every module/shared_module source, builds a Module
// per resolved manifest in source order, and marks later duplicates by
// code UNLOADED with reason "duplicate" rather than dropping them.
func (d *Distributor) phaseDiscovery(fsys fs.FS) {
	seen := map[string]bool{}

	regularInfos, regFailures := discoverSources(fsys, d.Config.Modules, false)
	sharedInfos, sharedFailures := discoverSources(fsys, d.Config.SharedModules, true)

	for _, f := range regFailures {
		d.logger.Printf("distributor: discovery failed for %s: %s", f.Path, f.Reason)
	}
	for _, f := range sharedFailures {
		d.logger.Printf("distributor: shared discovery failed for %s: %s", f.Path, f.Reason)
	}

	for _, info := range regularInfos {
		d.registerDiscovered(info, seen, d.Modules)
	}
	for _, info := range sharedInfos {
		d.registerDiscovered(info, seen, d.SharedModules)
	}
}

func (d *Distributor) registerDiscovered(info moduleinfo.Info, seen map[string]bool, target map[string]*modulert.Module) {
	controller, err := d.registry.Resolve(info)
	if err != nil {
		d.logger.Printf("distributor: resolve controller for %s: %v", info.Code, err)
		controller = modulert.BaseController{}
	}
	m := modulert.New(info, controller)
	m.SetPeerResolver(d)

	if seen[info.Code] {
		d.markFailed(m, modulert.Unloaded, "duplicate")
		return
	}
	seen[info.Code] = true
	target[info.Code] = m
	d.order = append(d.order, info.Code)
}

// phaseRequirements checks each discovered module's declared Requires; a
// module depending on a missing module or a version that fails the
// declared range is excluded from Init.
func (d *Distributor) phaseRequirements() {
	for _, code := range d.order {
		m, ok := d.LookupModule(code)
		if !ok || m.Status != modulert.Disabled {
			continue
		}
		for depCode, rng := range m.Info.Requires {
			dep, ok := d.LookupModule(depCode)
			if !ok {
				d.markFailed(m, modulert.Unloaded, "missing requirement "+depCode)
				break
			}
			if !satisfiesRange(rng, dep.Info.Version) {
				d.markFailed(m, modulert.Unloaded, "requirement "+depCode+" "+rng+" not satisfied by "+dep.Info.Version)
				break
			}
		}
	}
}

func satisfiesRange(rng, version string) bool {
	probe := moduleinfo.Info{Requires: map[string]string{"x": rng}}
	return probe.Satisfies("x", version)
}

// phaseInit sets each surviving module to Initializing and invokes
// OnInit(agent). A false/error result fails the module; success moves it
// to WaitingValidate.
func (d *Distributor) phaseInit() {
	for _, code := range d.order {
		m, ok := d.LookupModule(code)
		if !ok || m.Status != modulert.Disabled {
			continue
		}
		if err := m.TransitionTo(modulert.Initializing); err != nil {
			d.logger.Printf("distributor: %s: %v", code, err)
			continue
		}
		if err := m.Controller.OnInit(m); err != nil {
			d.markFailed(m, modulert.Failed, err.Error())
			continue
		}
		if err := m.TransitionTo(modulert.WaitingValidate); err != nil {
			d.logger.Printf("distributor: %s: %v", code, err)
		}
	}
}

// phaseValidate invokes OnRequire on each WaitingValidate module. True
// moves it to Ready; false defers it to Preloading, where the distributor
// retries OnRequire after every successful peer transition within this
// phase. A module still stuck in Preloading once no pass makes progress is
// Unloaded.
func (d *Distributor) phaseValidate() {
	maxPasses := len(d.order)*2 + 1
	for pass := 0; pass < maxPasses; pass++ {
		progressed := false
		for _, code := range d.order {
			m, ok := d.LookupModule(code)
			if !ok || (m.Status != modulert.WaitingValidate && m.Status != modulert.Preloading) {
				continue
			}
			ready, err := m.Controller.OnRequire(m)
			if err != nil {
				d.markFailed(m, modulert.Failed, err.Error())
				progressed = true
				continue
			}
			if ready {
				if err := m.TransitionTo(modulert.Ready); err != nil {
					d.logger.Printf("distributor: %s: %v", code, err)
					continue
				}
				progressed = true
				continue
			}
			if m.Status == modulert.WaitingValidate {
				if err := m.TransitionTo(modulert.Preloading); err != nil {
					d.logger.Printf("distributor: %s: %v", code, err)
					continue
				}
				progressed = true
			}
		}
		if !progressed {
			break
		}
	}
	for _, code := range d.order {
		m, ok := d.LookupModule(code)
		if ok && m.Status == modulert.Preloading {
			d.markFailed(m, modulert.Unloaded, "stuck in PRELOADING")
		}
	}
}

// phaseLoad invokes OnLoad on every Ready module, advancing it to Loaded,
// then fires any await continuation registered against a module that just
// became Loaded.
func (d *Distributor) phaseLoad() {
	justLoaded := map[string]*modulert.Module{}
	for _, code := range d.order {
		m, ok := d.LookupModule(code)
		if !ok || m.Status != modulert.Ready {
			continue
		}
		if err := m.Controller.OnLoad(m); err != nil {
			d.markFailed(m, modulert.Failed, err.Error())
			continue
		}
		if err := m.TransitionTo(modulert.Loaded); err != nil {
			d.logger.Printf("distributor: %s: %v", code, err)
			continue
		}
		justLoaded[code] = m
	}
	for _, dep := range justLoaded {
		for _, peerCode := range d.order {
			peer, ok := d.LookupModule(peerCode)
			if !ok || peer == dep {
				continue
			}
			if err := peer.NotifyReady(dep); err != nil {
				d.logger.Printf("distributor: await notify %s -> %s: %v", dep.Info.Code, peer.Info.Code, err)
			}
		}
	}
}

// phaseNotify invokes OnReady on every Loaded module. OnReady does not
// advance the module further; Loaded is the lifecycle's terminal success
// state.
func (d *Distributor) phaseNotify() {
	for _, code := range d.order {
		m, ok := d.LookupModule(code)
		if !ok || m.Status != modulert.Loaded {
			continue
		}
		if err := m.Controller.OnReady(m); err != nil {
			d.markFailed(m, modulert.Failed, err.Error())
		}
	}
}
