package route

import "testing"

func TestCompileDigitRepetition(t *testing.T) {
	re, err := Compile("/user/:d{1,6}/profile")
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}

	cases := []struct {
		path  string
		match bool
		want  string
	}{
		{"/user/42/profile", true, "42"},
		{"/user/1234567/profile", false, ""},
		{"/user/abc/profile", false, ""},
	}
	for _, c := range cases {
		groups := re.FindStringSubmatch(c.path)
		if c.match && groups == nil {
			t.Errorf("%q: expected match, got none", c.path)
			continue
		}
		if !c.match && groups != nil {
			t.Errorf("%q: expected no match, got %v", c.path, groups)
			continue
		}
		if c.match && groups[1] != c.want {
			t.Errorf("%q: capture = %q, want %q", c.path, groups[1], c.want)
		}
	}
}

func TestCompileAlphaClass(t *testing.T) {
	re, err := Compile("/tag/:w+")
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	groups := re.FindStringSubmatch("/tag/Golang")
	if groups == nil || groups[1] != "Golang" {
		t.Fatalf("expected capture Golang, got %v", groups)
	}
	if re.MatchString("/tag/abc123") {
		t.Fatalf("digits must not match :w class")
	}
}

func TestCompileBracketClass(t *testing.T) {
	re, err := Compile("/code/:[A-F0-9]{8}")
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if !re.MatchString("/code/DEADBEEF") {
		t.Fatalf("expected DEADBEEF to match hex bracket class")
	}
	if re.MatchString("/code/deadbeef") {
		t.Fatalf("lowercase must not match an uppercase-only bracket class")
	}
}

func TestCompileEscapedLiteral(t *testing.T) {
	re, err := Compile(`/price/\:d`)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if !re.MatchString("/price/:d") {
		t.Fatalf("escaped ':d' should match the literal text ':d'")
	}
	if re.MatchString("/price/5") {
		t.Fatalf("escaped ':d' must not behave as a digit class")
	}
}

func TestCompileDefaultRepetitionIsOneOrMore(t *testing.T) {
	re, err := Compile("/n/:d")
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	if re.MatchString("/n/") {
		t.Fatalf("bare digit class requires at least one digit")
	}
	if !re.MatchString("/n/9") {
		t.Fatalf("expected single digit to match")
	}
}

func TestCompileUnknownClassErrors(t *testing.T) {
	if _, err := Compile("/x/:q"); err == nil {
		t.Fatalf("expected error for unknown class token")
	}
}

func TestCompileUnterminatedBracketErrors(t *testing.T) {
	if _, err := Compile("/x/:[abc"); err == nil {
		t.Fatalf("expected error for unterminated bracket class")
	}
}

func TestCompileDanglingEscapeErrors(t *testing.T) {
	if _, err := Compile(`/x/\`); err == nil {
		t.Fatalf("expected error for dangling escape")
	}
}

func TestCompileParenGroupPassesThrough(t *testing.T) {
	re, err := Compile(`/opt/(:w+)`)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	groups := re.FindStringSubmatch("/opt/abc")
	if groups == nil || len(groups) < 3 {
		t.Fatalf("expected two capture groups, got %v", groups)
	}
	if groups[1] != "abc" || groups[2] != "abc" {
		t.Fatalf("expected both outer paren and inner class captures to hold abc, got %v", groups)
	}
}
