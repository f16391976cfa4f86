package fqdn

import "testing"

func TestFormat(t *testing.T) {
	cases := map[string]string{
		"  Example.COM.": "example.com",
		"Foo.Bar":        "foo.bar",
		"already.lower":  "already.lower",
	}
	for in, want := range cases {
		if got := Format(in); got != want {
			t.Fatalf("Format(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestIsValid(t *testing.T) {
	cases := []struct {
		in        string
		allowPort bool
		want      bool
	}{
		{"example.com", false, true},
		{"*.example.com", false, true},
		{"foo*.example.com", false, false},
		{"-bad.example.com", false, false},
		{"example.com:8080", true, true},
		{"example.com:8080", false, false},
		{"example.com:99999", true, false},
		{"", false, false},
	}
	for _, c := range cases {
		if got := IsValid(c.in, c.allowPort); got != c.want {
			t.Fatalf("IsValid(%q,%v) = %v, want %v", c.in, c.allowPort, got, c.want)
		}
	}
}

func domainSet(keys ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		m[k] = struct{}{}
	}
	return m
}

func TestMatchOrderS1(t *testing.T) {
	domains := domainSet("*.example.com", "example.com")
	alias := map[string]string{"x.example.com": "example.com"}

	got := Match("x.example.com", domains, alias)
	if !got.Matched || got.MatchedKey != "example.com" {
		t.Fatalf("alias should win over wildcard, got %+v", got)
	}

	got = Match("foo.example.com", domains, alias)
	if !got.Matched || got.MatchedKey != "*.example.com" {
		t.Fatalf("expected wildcard match, got %+v", got)
	}
	if got.Alias != "foo.example.com" {
		t.Fatalf("expected alias to be set to the matched input, got %+v", got)
	}
}

func TestMatchExactBeatsWildcard(t *testing.T) {
	domains := domainSet("example.com", "*.example.com")
	got := Match("example.com", domains, nil)
	if got.MatchedKey != "example.com" {
		t.Fatalf("expected exact match, got %+v", got)
	}
}

func TestMatchPortStripped(t *testing.T) {
	domains := domainSet("example.com")
	got := Match("example.com:8080", domains, nil)
	if !got.Matched || got.MatchedKey != "example.com" {
		t.Fatalf("expected port-stripped exact match, got %+v", got)
	}
}

func TestMatchCatchAll(t *testing.T) {
	domains := domainSet("*")
	got := Match("anything.example.org", domains, nil)
	if !got.Matched || got.MatchedKey != "*" || got.Alias != "anything.example.org" {
		t.Fatalf("expected catch-all match, got %+v", got)
	}
}

func TestMatchNone(t *testing.T) {
	domains := domainSet("example.com")
	got := Match("nope.org", domains, nil)
	if got.Matched {
		t.Fatalf("expected no match, got %+v", got)
	}
}

func TestMatchWildcardSingleLabelOnly(t *testing.T) {
	domains := domainSet("*.example.com")
	got := Match("a.b.example.com", domains, nil)
	if got.Matched {
		t.Fatalf("wildcard must match exactly one label, got %+v", got)
	}
}
