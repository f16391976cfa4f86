// Package domain implements the per-FQDN view of a site: the resolved
// urlPath->identifier mount list for one matched domain, and MatchQuery,
// which picks the owning mount and builds (and initializes) its
// Distributor.
package domain

import (
	"io/fs"
	"strings"

	"github.com/razyhost/razy/internal/distconfig"
	"github.com/razyhost/razy/internal/distributor"
	"github.com/razyhost/razy/internal/pathutil"
	"github.com/razyhost/razy/internal/razyerr"
	"github.com/razyhost/razy/internal/siteconfig"
)

const distConfigFile = "dist.yaml"

// Domain is bound to one matched FQDN and its pre-sorted (deepest-first)
// mount list. It holds exactly one Distributor per MatchQuery call and
// forwards module/handler file resolution to it.
type Domain struct {
	FQDN   string
	Mounts []siteconfig.Mount

	// SitesFS is rooted at the sites directory: SitesFS/{code}/dist.yaml
	// and SitesFS/{code}/{module paths...} must resolve.
	SitesFS  fs.FS
	Registry *distributor.ControllerRegistry
	Logger   distributor.Logger
}

// New builds a Domain bound to fqdn, using mounts (already sorted deepest
// first by siteconfig.Load).
func New(fqdn string, mounts []siteconfig.Mount, sitesFS fs.FS, registry *distributor.ControllerRegistry, logger distributor.Logger) *Domain {
	return &Domain{FQDN: fqdn, Mounts: mounts, SitesFS: sitesFS, Registry: registry, Logger: logger}
}

// MatchQuery resolves urlQuery against the mount list and returns an
// initialized Distributor for the winning mount:
//  1. empty urlQuery is treated as "/", normalized with the leading slash
//     preserved;
//  2. the first mount (mounts are pre-sorted deepest first) whose urlPath
//     is a segment-respecting prefix of urlQuery wins;
//  3. a Distributor is constructed for (identifier, mountPath,
//     residualPath), initialized, and returned;
//  4. no match returns (nil, nil) — the caller surfaces this as 404.
func (d *Domain) MatchQuery(urlQuery string) (*distributor.Distributor, error) {
	if urlQuery == "" {
		urlQuery = "/"
	}
	urlQuery = pathutil.Normalize(urlQuery, false, '/')

	for _, mount := range d.Mounts {
		if !pathutil.HasPathPrefix(urlQuery, mount.URLPath) {
			continue
		}
		return d.build(mount, ResidualPath(urlQuery, mount.URLPath))
	}
	return nil, nil
}

func (d *Domain) build(mount siteconfig.Mount, residualPath string) (*distributor.Distributor, error) {
	distFS, err := fs.Sub(d.SitesFS, mount.Identifier.Code)
	if err != nil {
		return nil, &razyerr.ConfigError{Path: mount.Identifier.Code, Err: err}
	}
	cfg, err := distconfig.Load(distFS, distConfigFile)
	if err != nil {
		return nil, err
	}

	dist := distributor.New(mount.Identifier, mount.URLPath, cfg, d.Registry, d.Logger)
	dist.ResidualPath = residualPath
	if err := dist.Initialize(distFS); err != nil {
		return nil, err
	}
	return dist, nil
}

// ResidualPath computes the residual path for a request against mountPath:
// the portion of urlQuery past the mount, with the leading separator
// preserved. mountPath "/" yields urlQuery unchanged.
func ResidualPath(urlQuery, mountPath string) string {
	if mountPath == "/" {
		return urlQuery
	}
	residual := strings.TrimPrefix(urlQuery, mountPath)
	if residual == "" {
		return "/"
	}
	if !strings.HasPrefix(residual, "/") {
		residual = "/" + residual
	}
	return residual
}
