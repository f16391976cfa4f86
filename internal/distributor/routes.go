package distributor

import (
	"github.com/razyhost/razy/internal/modulert"
	"github.com/razyhost/razy/internal/pathutil"
	"github.com/razyhost/razy/internal/route"
)

// aggregateRouteTables gathers every Loaded module's registered routes
// into the distributor's own tables: regex and shadow routes in discovery
// order, lazy routes in depth-descending prefix order.
func (d *Distributor) aggregateRouteTables() {
	d.Regex = nil
	d.Shadows = nil
	lazyByPrefix := map[string]*route.Lazy{}

	for _, code := range d.order {
		m, ok := d.LookupModule(code)
		if !ok || m.Status != modulert.Loaded {
			continue
		}
		d.Regex = append(d.Regex, m.Routes...)
		d.Shadows = append(d.Shadows, m.Shadows...)
		for _, l := range m.Lazy {
			lazyByPrefix[l.PathPrefix] = l
		}
	}

	d.Lazy = nil
	for _, prefix := range pathutil.SortByDepthDesc(lazyByPrefix) {
		d.Lazy = append(d.Lazy, lazyByPrefix[prefix])
	}
}
