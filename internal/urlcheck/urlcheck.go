// Package urlcheck decides whether user input is an absolute http(s) URL.
package urlcheck

import (
	"net/url"
	"strings"
)

// IsValid reports whether s, after trimming surrounding whitespace, parses as
// an absolute URL with an http or https scheme and a non-empty host.
//
// This is a syntactic check only: nothing is normalized, decoded or fetched.
// Anything net/url refuses to parse (bad percent escapes, non-numeric ports,
// spaces in the host) is rejected even when a scheme and host are present.
func IsValid(s string) bool {
	u, err := url.Parse(strings.TrimSpace(s))
	if err != nil {
		return false
	}
	switch u.Scheme {
	case "http", "https":
	default:
		return false
	}
	return u.Host != ""
}
