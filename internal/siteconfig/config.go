// Package siteconfig loads the multisite domain/alias mapping and resolves
// it into a SiteRegistry: a domain -> (urlPath -> DistributorIdentifier)
// map, an alias map, and a reverse distributor index.
//
// The on-disk format is YAML (gopkg.in/yaml.v3); the recognized keys
// (domains, alias) and the leaf-vs-nested-mapping shape carry over
// unchanged.
package siteconfig

import (
	"errors"
	"fmt"
	"io/fs"

	"gopkg.in/yaml.v3"

	"github.com/razyhost/razy/internal/razyerr"
)

// Node is a tagged variant for one entry in a domain's urlPath tree: either a
// Leaf distributor-identifier string, or a Branch of nested urlPath entries.
// An explicit sum type stands in for a value that is either a bare string
// or a nested mapping depending on what the YAML author wrote.
type Node struct {
	Leaf     string
	Branch   map[string]Node
	IsBranch bool
}

// UnmarshalYAML decodes a Node from either a scalar string or a mapping.
func (n *Node) UnmarshalYAML(value *yaml.Node) error {
	switch value.Kind {
	case yaml.ScalarNode:
		var s string
		if err := value.Decode(&s); err != nil {
			return err
		}
		*n = Node{Leaf: s}
		return nil
	case yaml.MappingNode:
		var branch map[string]Node
		if err := value.Decode(&branch); err != nil {
			return err
		}
		*n = Node{Branch: branch, IsBranch: true}
		return nil
	default:
		return fmt.Errorf("siteconfig: node must be a scalar or mapping")
	}
}

// File models the top-level site configuration document. All keys besides
// domains/alias are ignored. A domain's value is itself a
// Node: a bare string leaf (implicitly mounted at "/") or a nested
// urlPath -> Node mapping.
type File struct {
	Domains map[string]Node   `yaml:"domains"`
	Alias   map[string]string `yaml:"alias"`
}

// LoadFile decodes path from fsys. A missing file is equivalent to an empty
// {domains:{}, alias:{}} document. Malformed YAML returns
// a *razyerr.ConfigError.
func LoadFile(fsys fs.FS, path string) (File, error) {
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return File{}, nil
		}
		return File{}, razyerr.NewConfigError(path, err)
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return File{}, razyerr.NewConfigError(path, err)
	}
	if f.Domains == nil {
		f.Domains = map[string]Node{}
	}
	if f.Alias == nil {
		f.Alias = map[string]string{}
	}
	return f, nil
}
