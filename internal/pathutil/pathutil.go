// Package pathutil normalizes URL/filesystem paths and orders mount maps by
// depth, the way Domain and Distributor need for longest-prefix matching.
package pathutil

import (
	"sort"
	"strings"
)

// Normalize collapses any mix of '/' and '\' into sep, collapses repeated
// separators, and resolves "." and ".." lexically (no filesystem lookup).
// A ".." that would rise above the root is dropped. The leading separator is
// preserved unless trimLeading is true. The result never ends in sep unless
// the whole result is sep.
func Normalize(p string, trimLeading bool, sep byte) string {
	if p == "" {
		return string(sep)
	}
	raw := strings.Map(func(r rune) rune {
		if r == '/' || r == '\\' {
			return rune(sep)
		}
		return r
	}, p)
	leading := raw[0] == sep

	parts := strings.Split(raw, string(sep))
	stack := make([]string, 0, len(parts))
	for _, part := range parts {
		switch part {
		case "", ".":
			continue
		case "..":
			if len(stack) > 0 && stack[len(stack)-1] != ".." {
				stack = stack[:len(stack)-1]
			} else if !leading {
				stack = append(stack, "..")
			}
			// rising above root while leading: drop silently
		default:
			stack = append(stack, part)
		}
	}

	joined := strings.Join(stack, string(sep))
	if leading && !trimLeading {
		if joined == "" {
			return string(sep)
		}
		return string(sep) + joined
	}
	return joined
}

// Join appends path components and normalizes the result, preserving a
// leading separator if the first non-empty component has one.
func Join(sep byte, parts ...string) string {
	trimLeading := true
	for _, p := range parts {
		if p != "" {
			trimLeading = !strings.HasPrefix(p, string(sep))
			break
		}
	}
	joined := strings.Join(parts, string(sep))
	return Normalize(joined, trimLeading, sep)
}

// SortByDepthDesc returns the keys of m ordered deepest-first (more path
// segments first), ties broken by descending lexical order. This ordering is
// the sole authority on "longest-prefix match" consumed by Domain and
// Distributor.
func SortByDepthDesc[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.SliceStable(keys, func(i, j int) bool {
		di, dj := depth(keys[i]), depth(keys[j])
		if di != dj {
			return di > dj
		}
		return keys[i] > keys[j]
	})
	return keys
}

func depth(p string) int {
	trimmed := strings.Trim(p, "/")
	if trimmed == "" {
		return 0
	}
	return strings.Count(trimmed, "/") + 1
}

// HasPathPrefix reports whether prefix is a segment-respecting prefix of p:
// "/foo" matches "/foo" and "/foo/x" but not "/foobar".
func HasPathPrefix(p, prefix string) bool {
	if prefix == "/" {
		return true
	}
	if !strings.HasPrefix(p, prefix) {
		return false
	}
	rest := p[len(prefix):]
	return rest == "" || strings.HasPrefix(rest, "/")
}
