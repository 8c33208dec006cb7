package discovery

import (
	"strings"

	"golang.org/x/net/idna"
	"golang.org/x/net/publicsuffix"
)

var lookupProfile = idna.New(idna.MapForLookup(), idna.RemoveLeadingDots(true))

// Normalize canonicalizes a raw hostname: trims whitespace, drops one
// leading wildcard label, drops a trailing dot, lowercases and converts to
// ASCII (punycode). Unusable input yields "". Idempotent.
func Normalize(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "*.")
	s = strings.TrimSuffix(s, ".")
	if s == "" {
		return ""
	}
	ascii, err := lookupProfile.ToASCII(s)
	if err != nil {
		return ""
	}
	return strings.ToLower(ascii)
}

// ValidCandidate reports whether a normalized hostname is worth probing:
// non-empty, dotted, no scheme or path residue, and not a bare public
// suffix.
func ValidCandidate(host string) bool {
	if host == "" || !strings.Contains(host, ".") {
		return false
	}
	if strings.ContainsAny(host, " /:@?#") {
		return false
	}
	if ps, _ := publicsuffix.PublicSuffix(host); ps == host {
		return false
	}
	return true
}
