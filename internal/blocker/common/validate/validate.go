package validate

import (
	"regexp"
	"strings"

	"golang.org/x/net/idna"
)

// RFC 1035 limits for domain names.
const (
	MaxDomainLength = 253
	MaxLabelLength  = 63
)

var (
	labelPattern = regexp.MustCompile(`^[a-zA-Z0-9]([a-zA-Z0-9-]*[a-zA-Z0-9])?$`)
	timePattern  = regexp.MustCompile(`^([01]?[0-9]|2[0-3]):([0-5][0-9])$`)
	urlPattern   = regexp.MustCompile(`^https?://(?:[a-zA-Z0-9](?:[a-zA-Z0-9-]{0,61}[a-zA-Z0-9])?\.)+[a-zA-Z]{2,}(?::\d{1,5})?(?:/\S*)?$`)
)

// CanonicalDomain returns a domain name in canonical form:
// lowercased, trimmed, Unicode labels converted to ASCII (punycode).
// Trailing-dot FQDN notation is not accepted by the remote API, so it
// is stripped here before validation.
func CanonicalDomain(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	for strings.HasSuffix(name, ".") {
		name = strings.TrimSuffix(name, ".")
	}
	if ascii, err := idna.Lookup.ToASCII(name); err == nil {
		return ascii
	}
	return name
}

// Domain reports whether name is a syntactically valid domain name
// per RFC 1035 label and length rules. Unicode names are checked in
// their punycode form.
func Domain(name string) bool {
	name = CanonicalDomain(name)
	if name == "" || len(name) > MaxDomainLength {
		return false
	}
	for _, label := range strings.Split(name, ".") {
		if label == "" || len(label) > MaxLabelLength {
			return false
		}
		if !labelPattern.MatchString(label) {
			return false
		}
	}
	return true
}

// TimeOfDay reports whether s is a valid HH:MM 24-hour time string.
func TimeOfDay(s string) bool {
	return timePattern.MatchString(s)
}

// URL reports whether s is a valid http or https URL.
func URL(s string) bool {
	return urlPattern.MatchString(s)
}
