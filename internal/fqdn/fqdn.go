// Package fqdn validates and canonicalizes FQDN strings and matches an
// incoming host against a site's exact/alias/wildcard/catch-all patterns.
//
// The resolution order in Match is part of the external contract; changing
// it is a breaking change.
package fqdn

import (
	"regexp"
	"strconv"
	"strings"
)

var labelRE = regexp.MustCompile(`^[a-z0-9]([a-z0-9-]*[a-z0-9])?$`)

// Format lowercases f, strips surrounding whitespace, and drops a trailing
// dot.
func Format(f string) string {
	f = strings.ToLower(strings.TrimSpace(f))
	f = strings.TrimSuffix(f, ".")
	return f
}

// IsValid reports whether f is a dot-separated sequence of labels, with at
// most one wildcard label that must stand alone ("*.example.com", never
// "foo*.example.com"). If allowPort, an optional ":PORT" suffix (1-65535) is
// permitted.
func IsValid(f string, allowPort bool) bool {
	if f == "" {
		return false
	}
	host := f
	if allowPort {
		if idx := strings.LastIndex(f, ":"); idx >= 0 {
			host = f[:idx]
			portStr := f[idx+1:]
			port, err := strconv.Atoi(portStr)
			if err != nil || port < 1 || port > 65535 {
				return false
			}
		}
	}
	if host == "" {
		return false
	}
	labels := strings.Split(host, ".")
	wildcards := 0
	for _, label := range labels {
		if label == "*" {
			wildcards++
			if wildcards > 1 {
				return false
			}
			continue
		}
		if !labelRE.MatchString(label) {
			return false
		}
	}
	return true
}

func stripPort(f string) string {
	idx := strings.LastIndex(f, ":")
	if idx < 0 {
		return f
	}
	// Only strip if the remainder is all digits (a port), not an IPv6-ish
	// colon inside the host. FQDNs never legitimately contain colons
	// outside a trailing port.
	if _, err := strconv.Atoi(f[idx+1:]); err != nil {
		return f
	}
	return f[:idx]
}

// Result is returned by Match.
type Result struct {
	// MatchedKey is the domain-pattern key that matched (an exact key, an
	// alias target, a wildcard pattern, or "*").
	MatchedKey string
	// Alias, when non-empty, is the effective alias recorded for this
	// match: the original input for alias/wildcard/catch-all hits.
	Alias string
	// Matched reports whether any rule fired.
	Matched bool
}

// Match resolves input against the domains map and the alias map using the
// fixed seven-step order.
func Match(input string, domains map[string]struct{}, alias map[string]string) Result {
	in := Format(input)
	stripped := stripPort(in)

	// 1. exact match of input in domains
	if _, ok := domains[in]; ok {
		return Result{MatchedKey: in, Matched: true}
	}
	// 2. exact match of input with port stripped
	if stripped != in {
		if _, ok := domains[stripped]; ok {
			return Result{MatchedKey: stripped, Matched: true}
		}
	}
	// 3. input as alias (full FQDN) -> canonical domain
	if canonical, ok := alias[in]; ok {
		return Result{MatchedKey: canonical, Alias: in, Matched: true}
	}
	// 4. input-without-port as alias -> canonical
	if stripped != in {
		if canonical, ok := alias[stripped]; ok {
			return Result{MatchedKey: canonical, Alias: stripped, Matched: true}
		}
	}
	// 5. wildcard iteration: "*" matches exactly one label of [^.]+
	target := stripped
	for pattern := range domains {
		if matchWildcard(pattern, target) {
			return Result{MatchedKey: pattern, Alias: target, Matched: true}
		}
	}
	// 6. bare "*" catch-all
	if _, ok := domains["*"]; ok {
		return Result{MatchedKey: "*", Alias: target, Matched: true}
	}
	// 7. no match
	return Result{}
}

func matchWildcard(pattern, input string) bool {
	if !strings.Contains(pattern, "*") {
		return false
	}
	patternLabels := strings.Split(pattern, ".")
	inputLabels := strings.Split(input, ".")
	if len(patternLabels) != len(inputLabels) {
		return false
	}
	sawWildcard := false
	for i, pl := range patternLabels {
		if pl == "*" {
			sawWildcard = true
			if inputLabels[i] == "" {
				return false
			}
			continue
		}
		if pl != inputLabels[i] {
			return false
		}
	}
	return sawWildcard
}
