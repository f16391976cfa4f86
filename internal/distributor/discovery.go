package distributor

import (
	"fmt"
	"io/fs"
	"path"
	"sort"

	"github.com/Masterminds/semver/v3"
	"gopkg.in/yaml.v3"

	"github.com/razyhost/razy/internal/distconfig"
	"github.com/razyhost/razy/internal/moduleinfo"
)

const manifestFile = "module.yaml"

// discoverSources walks every ModuleSource and returns one moduleinfo.Info
// per resolved module folder. A source whose Path directly contains
// module.yaml is a single-version module; otherwise its immediate
// subdirectories are scanned as version candidates and the highest semver
// version is chosen, or the pinned Version if one was declared.
func discoverSources(fsys fs.FS, sources []distconfig.ModuleSource, shared bool) ([]moduleinfo.Info, []discoveryFailure) {
	var infos []moduleinfo.Info
	var failures []discoveryFailure

	for _, src := range sources {
		modPath, err := resolveVersionDir(fsys, src)
		if err != nil {
			failures = append(failures, discoveryFailure{Path: src.Path, Reason: err.Error()})
			continue
		}
		info, err := loadManifest(fsys, modPath, shared)
		if err != nil {
			failures = append(failures, discoveryFailure{Path: modPath, Reason: err.Error()})
			continue
		}
		infos = append(infos, info)
	}
	return infos, failures
}

type discoveryFailure struct {
	Path   string
	Reason string
}

func resolveVersionDir(fsys fs.FS, src distconfig.ModuleSource) (string, error) {
	if hasManifest(fsys, src.Path) {
		return src.Path, nil
	}
	entries, err := fs.ReadDir(fsys, src.Path)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", src.Path, err)
	}

	type candidate struct {
		dir string
		ver *semver.Version
	}
	var candidates []candidate
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		dir := path.Join(src.Path, e.Name())
		if !hasManifest(fsys, dir) {
			continue
		}
		v, err := semver.NewVersion(e.Name())
		if err != nil {
			continue
		}
		if src.Version != "" && e.Name() != src.Version {
			continue
		}
		candidates = append(candidates, candidate{dir: dir, ver: v})
	}
	if len(candidates) == 0 {
		if src.Version != "" {
			return "", fmt.Errorf("no version %s found under %s", src.Version, src.Path)
		}
		return "", fmt.Errorf("no module version found under %s", src.Path)
	}
	sort.Slice(candidates, func(i, j int) bool { return candidates[i].ver.LessThan(candidates[j].ver) })
	return candidates[len(candidates)-1].dir, nil
}

func hasManifest(fsys fs.FS, dir string) bool {
	_, err := fs.Stat(fsys, path.Join(dir, manifestFile))
	return err == nil
}

func loadManifest(fsys fs.FS, modPath string, shared bool) (moduleinfo.Info, error) {
	data, err := fs.ReadFile(fsys, path.Join(modPath, manifestFile))
	if err != nil {
		return moduleinfo.Info{}, fmt.Errorf("read manifest: %w", err)
	}
	var m moduleinfo.Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return moduleinfo.Info{}, fmt.Errorf("parse manifest: %w", err)
	}
	return moduleinfo.FromManifest(m, modPath, shared)
}
