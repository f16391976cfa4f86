// Package moduleinfo parses and validates one module's manifest: code,
// class name, alias, version, dependency requirements, and optional RPC
// group code.
package moduleinfo

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/Masterminds/semver/v3"
)

var (
	codeRE    = regexp.MustCompile(`^[a-z][\w]*(\.[a-z][\w]*)*$`)
	apiCodeRE = regexp.MustCompile(`^[a-z][\w]*$`)
)

// Info is one module's parsed manifest.
type Info struct {
	Code      string
	ClassName string
	Alias     string
	Version   string
	Requires  map[string]string // depCode -> semver constraint range
	APICode   string            // optional RPC-group namespace
	Author    string            // optional, recognized but never interpreted
	Path      string            // module source folder on disk
	Shared    bool              // visible across tagged versions of the distributor
}

// Manifest is the raw, on-disk shape of a module manifest file (decoded by
// the caller with gopkg.in/yaml.v3, mirroring siteconfig/distconfig).
type Manifest struct {
	Code      string            `yaml:"code"`
	ClassName string            `yaml:"className,omitempty"`
	Alias     string            `yaml:"alias,omitempty"`
	Version   string            `yaml:"version"`
	Requires  map[string]string `yaml:"requires,omitempty"`
	APICode   string            `yaml:"apiCode,omitempty"`
	Author    string            `yaml:"author,omitempty"`
}

// FromManifest builds a validated Info from a decoded Manifest, filling in
// className (last dot-segment of code) and alias (defaults to className)
// when absent.
func FromManifest(m Manifest, path string, shared bool) (Info, error) {
	info := Info{
		Code:      strings.TrimSpace(m.Code),
		ClassName: strings.TrimSpace(m.ClassName),
		Alias:     strings.TrimSpace(m.Alias),
		Version:   strings.TrimSpace(m.Version),
		Requires:  m.Requires,
		APICode:   strings.TrimSpace(m.APICode),
		Author:    strings.TrimSpace(m.Author),
		Path:      path,
		Shared:    shared,
	}
	if err := info.validateCode(); err != nil {
		return Info{}, err
	}
	if info.Version == "" {
		return Info{}, fmt.Errorf("moduleinfo %s: version is required", info.Code)
	}
	if info.ClassName == "" {
		segments := strings.Split(info.Code, ".")
		info.ClassName = segments[len(segments)-1]
	}
	if info.Alias == "" {
		info.Alias = info.ClassName
	}
	if info.APICode != "" && !apiCodeRE.MatchString(info.APICode) {
		return Info{}, fmt.Errorf("moduleinfo %s: invalid apiCode %q", info.Code, info.APICode)
	}
	return info, nil
}

func (i Info) validateCode() error {
	if !codeRE.MatchString(i.Code) {
		return fmt.Errorf("moduleinfo: invalid code %q", i.Code)
	}
	return nil
}

// Satisfies reports whether candidateVersion satisfies the semver
// constraint range declared for dependency depCode in Requires. Malformed
// versions/ranges never satisfy (Phase B treats that as a failed
// requirement).
func (i Info) Satisfies(depCode, candidateVersion string) bool {
	rng, ok := i.Requires[depCode]
	if !ok {
		return true
	}
	constraint, err := semver.NewConstraint(rng)
	if err != nil {
		return false
	}
	v, err := semver.NewVersion(candidateVersion)
	if err != nil {
		return false
	}
	return constraint.Check(v)
}
