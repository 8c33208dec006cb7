package discovery

import "testing"

func TestNormalize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"lowercases", "Kodiaq.Zirvedesin24.SBS", "kodiaq.zirvedesin24.sbs"},
		{"trims whitespace", "  cdn.example.com \n", "cdn.example.com"},
		{"strips wildcard label", "*.zirvedesin.sbs", "zirvedesin.sbs"},
		{"strips trailing dot", "stream.example.com.", "stream.example.com"},
		{"punycodes unicode", "bücher.example", "xn--bcher-kva.example"},
		{"empty input", "", ""},
		{"only wildcard", "*.", ""},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := Normalize(tt.in); got != tt.want {
				t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	t.Parallel()

	inputs := []string{"*.Foo.Example.COM.", "bücher.example", "  cdn.zirvedesin24.sbs  "}
	for _, in := range inputs {
		once := Normalize(in)
		twice := Normalize(once)
		if once != twice {
			t.Errorf("Normalize not idempotent for %q: %q then %q", in, once, twice)
		}
	}
}

func TestValidCandidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		host string
		want bool
	}{
		{"kodiaq.zirvedesin24.sbs", true},
		{"example.com", true},
		{"", false},
		{"nodots", false},
		{"com", false},
		{"co.uk", false}, // bare public suffix
		{"has space.com", false},
		{"host.com/path", false},
		{"host.com:8080", false},
		{"user@host.com", false},
	}
	for _, tt := range tests {
		if got := ValidCandidate(tt.host); got != tt.want {
			t.Errorf("ValidCandidate(%q) = %v, want %v", tt.host, got, tt.want)
		}
	}
}
