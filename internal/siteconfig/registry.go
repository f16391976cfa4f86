package siteconfig

import (
	"io/fs"
	"path"

	"github.com/razyhost/razy/internal/identifier"
	"github.com/razyhost/razy/internal/pathutil"
)

// Logger is the minimal seam SiteRegistry needs to report dropped entries
// without importing the logging package's concrete type.
type Logger interface {
	Printf(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Printf(string, ...any) {}

// Mount is one resolved (urlPath -> identifier) entry for a domain.
type Mount struct {
	URLPath    string
	Identifier identifier.Identifier
}

// SiteRegistry is the loaded multisite configuration: per-domain mount
// lists (pre-sorted deepest-first), the alias map, and a reverse index from
// distributor identifier key back to every (domain, urlPath) mounting it.
type SiteRegistry struct {
	// Mounts maps a canonical domain key to its urlPath-sorted mount list.
	Mounts map[string][]Mount
	// Alias maps an alias FQDN to its canonical domain key.
	Alias map[string]string
	// AliasReverse maps a canonical domain key to every alias pointing at it.
	AliasReverse map[string][]string
	// ReverseIndex maps an identifier key (code@tag) to every mount using it.
	ReverseIndex map[string][]DomainMount
}

// DomainMount pairs a domain with one of its URL mounts, for the reverse
// index and for rewrite-rule emission.
type DomainMount struct {
	Domain  string
	URLPath string
}

// DomainKeys returns the set-of-known-domain-keys shape fqdn.Match expects.
func (r *SiteRegistry) DomainKeys() map[string]struct{} {
	set := make(map[string]struct{}, len(r.Mounts))
	for d := range r.Mounts {
		set[d] = struct{}{}
	}
	return set
}

// Load builds a SiteRegistry from the config file at configPath (decoded
// from fsys) validating every leaf identifier's syntax and checking that
// {sitesRoot}/{code}/dist.yaml exists via sitesFS. Invalid entries are
// silently dropped (and reported to logger, if non-nil).
func Load(fsys fs.FS, configPath string, sitesFS fs.FS, logger Logger) (*SiteRegistry, error) {
	if logger == nil {
		logger = nopLogger{}
	}
	file, err := LoadFile(fsys, configPath)
	if err != nil {
		return nil, err
	}

	reg := &SiteRegistry{
		Mounts:       map[string][]Mount{},
		Alias:        map[string]string{},
		AliasReverse: map[string][]string{},
		ReverseIndex: map[string][]DomainMount{},
	}

	for domain, node := range file.Domains {
		raw := map[string]Mount{}
		resolveNode("/", node, raw, sitesFS, logger, domain)
		if len(raw) == 0 {
			continue
		}
		ordered := make(map[string]identifier.Identifier, len(raw))
		for p, m := range raw {
			ordered[p] = m.Identifier
		}
		keys := pathutil.SortByDepthDesc(ordered)
		mounts := make([]Mount, 0, len(keys))
		for _, k := range keys {
			mounts = append(mounts, Mount{URLPath: k, Identifier: ordered[k]})
			reg.ReverseIndex[ordered[k].Key()] = append(reg.ReverseIndex[ordered[k].Key()], DomainMount{Domain: domain, URLPath: k})
		}
		reg.Mounts[domain] = mounts
	}

	for aliasHost, canonical := range file.Alias {
		if _, ok := reg.Mounts[canonical]; !ok {
			logger.Printf("siteconfig: alias %s points at unknown domain %s, dropped", aliasHost, canonical)
			continue
		}
		reg.Alias[aliasHost] = canonical
		reg.AliasReverse[canonical] = append(reg.AliasReverse[canonical], aliasHost)
	}

	return reg, nil
}

func resolveNode(urlPath string, node Node, out map[string]Mount, sitesFS fs.FS, logger Logger, domain string) {
	if node.IsBranch {
		for childPath, child := range node.Branch {
			resolveNode(pathutil.Join('/', urlPath, childPath), child, out, sitesFS, logger, domain)
		}
		return
	}
	id, err := identifier.Parse(node.Leaf)
	if err != nil {
		logger.Printf("siteconfig: %s %s: %v, dropped", domain, urlPath, err)
		return
	}
	if sitesFS != nil {
		distPath := path.Join(id.Code, "dist.yaml")
		if _, statErr := fs.Stat(sitesFS, distPath); statErr != nil {
			logger.Printf("siteconfig: %s %s: no dist.yaml for %s, dropped", domain, urlPath, id.Code)
			return
		}
	}
	out[urlPath] = Mount{URLPath: urlPath, Identifier: id}
}
