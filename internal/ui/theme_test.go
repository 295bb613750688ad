package ui

import (
	"strings"
	"testing"
)

func TestThemeNames(t *testing.T) {
	names := ThemeNames()
	want := []string{"Nightfox", "Kanagawa", "Slate"}
	if strings.Join(names, ",") != strings.Join(want, ",") {
		t.Fatalf("ThemeNames() = %v, want %v", names, want)
	}
}

func TestNextTheme(t *testing.T) {
	if got := NextTheme("Nightfox"); got != "Kanagawa" {
		t.Fatalf("NextTheme(Nightfox) = %q, want Kanagawa", got)
	}
	if got := NextTheme("Slate"); got != "Nightfox" {
		t.Fatalf("NextTheme(Slate) = %q, want Nightfox", got)
	}
	if got := NextTheme("Dracula"); got != "Nightfox" {
		t.Fatalf("NextTheme(Dracula) = %q, want Nightfox", got)
	}
}

func TestGetTheme_FallsBackToNightfox(t *testing.T) {
	if got := GetTheme("Slate").Name; got != "Slate" {
		t.Fatalf("GetTheme(Slate).Name = %q", got)
	}
	if got := GetTheme("nope").Name; got != "Nightfox" {
		t.Fatalf("GetTheme(nope).Name = %q, want Nightfox", got)
	}
}

func TestValidHex(t *testing.T) {
	cases := map[string]bool{
		"#ff0000": true,
		"#FFF":    true,
		"ff0000":  false,
		"#ff00":   false,
		"#gg0000": false,
		"":        false,
	}
	for in, want := range cases {
		if got := validHex(in); got != want {
			t.Fatalf("validHex(%q) = %v, want %v", in, got, want)
		}
	}
}
