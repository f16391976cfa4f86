// Package app implements Application, the top-level coordinator: it owns
// the SiteRegistry, resolves an incoming FQDN to a Domain, and dispatches a
// request through it — either rebuilding the Domain/Distributor on every
// call (Host/Query) or, once Locked, through the worker-mode distributor
// cache (Dispatch).
package app

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/razyhost/razy/internal/distributor"
	"github.com/razyhost/razy/internal/domain"
	"github.com/razyhost/razy/internal/fqdn"
	"github.com/razyhost/razy/internal/pathutil"
	"github.com/razyhost/razy/internal/reqctx"
	"github.com/razyhost/razy/internal/runtime"
	"github.com/razyhost/razy/internal/siteconfig"
)

// Writer is the seam Application uses to re-persist configuration files.
// Left nil, WriteSiteConfig/UpdateRewriteRules return an error instead of
// touching disk and Validation does nothing — tests that never need to
// write can construct an Application without one.
type Writer interface {
	WriteFile(path string, data []byte) error
}

// ErrLocked is the error value for a locked Application. UpdateSites,
// WriteSiteConfig and UpdateRewriteRules do not return it: once Locked they
// are no-ops that return nil, so the module set never mutates while
// requests are inflight.
var ErrLocked = errors.New("app: locked")

// ErrNotLocked is returned by Dispatch when called before Lock.
var ErrNotLocked = errors.New("app: Dispatch requires Lock()")

// Application is the process-wide coordinator. Construction is cheap: it
// allocates the instance, records an instance GUID, and touches no disk
// until Host/Query/Dispatch is first called.
type Application struct {
	GUID string

	Runtime  runtime.Runtime
	ConfigFS fs.FS
	Registry *distributor.ControllerRegistry
	Logger   distributor.Logger
	Writer   Writer

	mu      sync.Mutex
	locked  bool
	sites   *siteconfig.SiteRegistry
	current *domain.Domain
	cache   *distributor.Cache

	configFingerprint  string
	rewriteFingerprint string
}

// New allocates an Application. No filesystem access happens here.
func New(rt runtime.Runtime, configFS fs.FS, registry *distributor.ControllerRegistry, logger distributor.Logger) *Application {
	return &Application{
		GUID:     uuid.New().String(),
		Runtime:  rt,
		ConfigFS: configFS,
		Registry: registry,
		Logger:   logger,
		cache:    distributor.NewCache(rt.RevalidateInterval()),
	}
}

// Lock freezes the object graph: after Lock, updateSites, writeSiteConfig,
// and updateRewriteRules become no-ops, and Dispatch (the worker-mode fast
// path) becomes callable. Config-file fingerprint protection is disabled
// while locked.
func (a *Application) Lock() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.locked = true
}

// Locked reports whether Lock has been called.
func (a *Application) Locked() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.locked
}

func (a *Application) sitesFS() fs.FS {
	root := strings.TrimPrefix(a.Runtime.SitesRoot, "/")
	if root == "" || root == "." {
		return a.ConfigFS
	}
	sub, err := fs.Sub(a.ConfigFS, root)
	if err != nil {
		return a.ConfigFS
	}
	return sub
}

// ensureSites lazily loads the SiteRegistry, recording the config file's
// fingerprint on first successful load.
func (a *Application) ensureSites() (*siteconfig.SiteRegistry, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.sites != nil {
		return a.sites, nil
	}
	reg, err := siteconfig.Load(a.ConfigFS, a.Runtime.SiteConfigPath, a.sitesFS(), a.Logger)
	if err != nil {
		return nil, err
	}
	a.sites = reg
	if fp, err := fileFingerprint(a.ConfigFS, a.Runtime.SiteConfigPath); err == nil {
		a.configFingerprint = fp
	}
	return reg, nil
}

// Host lazily loads the site config, matches fqdnHost to a Domain, and
// records it as the current Domain for a subsequent Query. Returns nil if
// no domain/alias/wildcard rule matches.
func (a *Application) Host(fqdnHost string) (*domain.Domain, error) {
	sites, err := a.ensureSites()
	if err != nil {
		return nil, err
	}
	result := fqdn.Match(fqdnHost, sites.DomainKeys(), sites.Alias)
	if !result.Matched {
		a.mu.Lock()
		a.current = nil
		a.mu.Unlock()
		return nil, nil
	}
	d := domain.New(result.MatchedKey, sites.Mounts[result.MatchedKey], a.sitesFS(), a.Registry, a.Logger)
	a.mu.Lock()
	a.current = d
	a.mu.Unlock()
	return d, nil
}

// Query dispatches urlPath through the Domain a prior Host call resolved.
func (a *Application) Query(method, urlPath string, ctx *reqctx.Context) (any, error) {
	a.mu.Lock()
	d := a.current
	a.mu.Unlock()
	if d == nil {
		return nil, fmt.Errorf("app: Query called with no current Domain (call Host first)")
	}
	dist, err := d.MatchQuery(urlPath)
	if err != nil {
		return nil, err
	}
	if dist == nil {
		return nil, fmt.Errorf("app: no distributor mounted for %s", urlPath)
	}
	return dist.Dispatch(method, dist.ResidualPath, ctx)
}

// Dispatch is the worker-mode fast path: it must be preceded by Lock, and
// resolves+dispatches through the process-wide distributor cache instead of
// rebuilding the Domain/Distributor graph on every call.
func (a *Application) Dispatch(fqdnHost, method, urlPath string, ctx *reqctx.Context) (any, error) {
	if !a.Locked() {
		return nil, ErrNotLocked
	}
	sites, err := a.ensureSites()
	if err != nil {
		return nil, err
	}
	result := fqdn.Match(fqdnHost, sites.DomainKeys(), sites.Alias)
	if !result.Matched {
		return nil, fmt.Errorf("app: no domain matched %s", fqdnHost)
	}
	mounts := sites.Mounts[result.MatchedKey]

	normalized := urlPath
	if normalized == "" {
		normalized = "/"
	}
	normalized = pathutil.Normalize(normalized, false, '/')

	for _, mount := range mounts {
		if !pathutil.HasPathPrefix(normalized, mount.URLPath) {
			continue
		}
		residual := domain.ResidualPath(normalized, mount.URLPath)
		key := distributor.CacheKey{
			Domain:       result.MatchedKey,
			MountPath:    mount.URLPath,
			IdentifierID: mount.Identifier.Key(),
		}
		dist, err := a.cache.Get(key, func() (*distributor.Distributor, fs.FS, error) {
			return a.buildDistributor(result.MatchedKey, mount)
		})
		if err != nil {
			return nil, err
		}
		return dist.Dispatch(method, residual, ctx)
	}
	return nil, fmt.Errorf("app: no mount matched %s%s", fqdnHost, urlPath)
}

func (a *Application) buildDistributor(domainKey string, mount siteconfig.Mount) (*distributor.Distributor, fs.FS, error) {
	d := domain.New(domainKey, []siteconfig.Mount{mount}, a.sitesFS(), a.Registry, a.Logger)
	dist, err := d.MatchQuery(mount.URLPath)
	if err != nil {
		return nil, nil, err
	}
	if dist == nil {
		return nil, nil, fmt.Errorf("app: mount %s did not resolve a distributor", mount.URLPath)
	}
	return dist, nil, nil
}

// UpdateSites forces a fresh SiteRegistry load on the next Host/Dispatch
// call. A no-op once Locked.
func (a *Application) UpdateSites() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.locked {
		return nil
	}
	a.sites = nil
	return nil
}

// WriteSiteConfig persists data (a pre-rendered site-config document) via
// Writer. A no-op once Locked.
func (a *Application) WriteSiteConfig(data []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.locked {
		return nil
	}
	if a.Writer == nil {
		return fmt.Errorf("app: no Writer configured")
	}
	if err := a.Writer.WriteFile(a.Runtime.SiteConfigPath, data); err != nil {
		return err
	}
	a.configFingerprint = hashBytes(data)
	return nil
}

// UpdateRewriteRules persists data (a pre-rendered rewrite-rule document)
// via Writer. A no-op once Locked.
func (a *Application) UpdateRewriteRules(data []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.locked {
		return nil
	}
	if a.Writer == nil {
		return fmt.Errorf("app: no Writer configured")
	}
	if err := a.Writer.WriteFile(a.Runtime.RewriteConfigPath, data); err != nil {
		return err
	}
	a.rewriteFingerprint = hashBytes(data)
	return nil
}

// Compose builds a standalone, uncached Distributor for the first mount
// (across every loaded domain) whose identifier code matches code, and
// invokes closure against it. Intended for CLI tooling that needs to poke
// at one distributor's resolved module graph without affecting the live
// cache.
func (a *Application) Compose(code string, closure func(*distributor.Distributor) error) error {
	sites, err := a.ensureSites()
	if err != nil {
		return err
	}
	for domainKey, mounts := range sites.Mounts {
		for _, mount := range mounts {
			if mount.Identifier.Code != code {
				continue
			}
			d := domain.New(domainKey, []siteconfig.Mount{mount}, a.sitesFS(), a.Registry, a.Logger)
			dist, err := d.MatchQuery(mount.URLPath)
			if err != nil {
				return err
			}
			if dist == nil {
				continue
			}
			return closure(dist)
		}
	}
	return fmt.Errorf("app: no mount found for code %s", code)
}

// Validation re-persists the site config or rewrite file if their on-disk
// content no longer matches the fingerprint recorded at last load/write —
// recovery from external tampering. A no-op while Locked (protection is
// disabled once the graph is frozen) or when no Writer is configured.
func (a *Application) Validation(lastSiteConfig, lastRewrite []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.locked || a.Writer == nil {
		return nil
	}
	if a.configFingerprint != "" && lastSiteConfig != nil {
		if fp, err := fileFingerprint(a.ConfigFS, a.Runtime.SiteConfigPath); err == nil && fp != a.configFingerprint {
			if err := a.Writer.WriteFile(a.Runtime.SiteConfigPath, lastSiteConfig); err != nil {
				return err
			}
		}
	}
	if a.rewriteFingerprint != "" && lastRewrite != nil {
		if fp, err := fileFingerprint(a.ConfigFS, a.Runtime.RewriteConfigPath); err == nil && fp != a.rewriteFingerprint {
			if err := a.Writer.WriteFile(a.Runtime.RewriteConfigPath, lastRewrite); err != nil {
				return err
			}
		}
	}
	return nil
}

func fileFingerprint(fsys fs.FS, path string) (string, error) {
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return "", err
	}
	return hashBytes(data), nil
}

func hashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
