package normalizer

import (
	"regexp"
	"strings"
)

var (
	bracketedAddressPattern = regexp.MustCompile(`<([^<>\s]+@[^<>\s]+)>`)
	addressTokenPattern     = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
)

// ExtractAddress returns the bare address of a From header: the bracketed form first, then
// the first address-like token, else the header as given.
func ExtractAddress(header string) string {
	header = strings.TrimSpace(header)
	if header == "" {
		return ""
	}
	if m := bracketedAddressPattern.FindStringSubmatch(header); len(m) == 2 {
		return m[1]
	}
	if token := addressTokenPattern.FindString(header); token != "" {
		return token
	}
	return header
}
