// Package distconfig loads a distributor's on-disk configuration:
// {sites}/{code}/dist.yaml, declaring its module sources, shared module
// sources, prerequisite versions, and data-path overlays.
package distconfig

import (
	"errors"
	"io/fs"

	"gopkg.in/yaml.v3"

	"github.com/razyhost/razy/internal/razyerr"
)

// ModuleSource is one entry of the modules/shared_modules list: a folder
// path to scan, and an optional pinned version.
type ModuleSource struct {
	Path    string `yaml:"path"`
	Version string `yaml:"version,omitempty"`
}

// UnmarshalYAML accepts either a bare string (the path) or a mapping with
// path/version keys.
func (m *ModuleSource) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind == yaml.ScalarNode {
		var s string
		if err := value.Decode(&s); err != nil {
			return err
		}
		*m = ModuleSource{Path: s}
		return nil
	}
	type alias ModuleSource
	var a alias
	if err := value.Decode(&a); err != nil {
		return err
	}
	*m = ModuleSource(a)
	return nil
}

// DataMapping is a nested-site overlay entry for data path resolution.
type DataMapping struct {
	Dist   string `yaml:"dist"`
	Domain string `yaml:"domain"`
}

// Config is the recognized shape of a distributor's dist.yaml.
type Config struct {
	Modules       []ModuleSource         `yaml:"modules"`
	SharedModules []ModuleSource         `yaml:"shared_modules"`
	Prerequisites map[string]string      `yaml:"prerequisites"`
	DataMapping   map[string]DataMapping `yaml:"data_mapping"`
}

// Load decodes path from fsys. A missing file is an empty Config, matching
// the same treatment used for the site config. Malformed YAML returns a
// *razyerr.ConfigError.
func Load(fsys fs.FS, path string) (Config, error) {
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Config{}, nil
		}
		return Config{}, razyerr.NewConfigError(path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, razyerr.NewConfigError(path, err)
	}
	return cfg, nil
}
