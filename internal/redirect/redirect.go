// Package redirect validates caller-supplied post-auth redirect targets.
// Everything here is a pure function of its inputs; the application origin is
// the only trusted value.
package redirect

import (
	"net/url"
	"strings"

	"tenantgate/internal/urls"
)

// Validate resolves candidate against appOrigin and returns the sanitized
// absolute URL. It accepts only targets whose resolved origin exactly matches
// appOrigin (scheme + host + port); protocol-relative and userinfo tricks
// resolve to a foreign origin and are rejected. An empty or unparsable
// candidate returns ok=false so callers fall through to their default target.
//
// When the validated path is the account-settings page, a reauth=1 marker is
// appended: the settings page uses it to detect a fresh re-authentication.
func Validate(candidate string, appOrigin *url.URL) (*url.URL, bool) {
	if candidate == "" || appOrigin == nil {
		return nil, false
	}
	u, err := appOrigin.Parse(candidate)
	if err != nil {
		return nil, false
	}
	if !SameOrigin(u, appOrigin) {
		return nil, false
	}
	if u.Path == urls.AccountSettings {
		q := u.Query()
		q.Set("reauth", "1")
		u.RawQuery = q.Encode()
	}
	return u, true
}

// SameOrigin reports whether two URLs share scheme, host, and port exactly.
func SameOrigin(a, b *url.URL) bool {
	return a.Scheme == b.Scheme && a.Host == b.Host
}

// NormalizeOrigin strips a leading "www." and any trailing slash from an
// origin string. The confirm flow compares origins after this normalization
// so www and apex hosts count as the same deployment.
func NormalizeOrigin(origin string) string {
	origin = strings.TrimSuffix(origin, "/")
	if i := strings.Index(origin, "://"); i >= 0 {
		scheme, host := origin[:i+3], origin[i+3:]
		return scheme + strings.TrimPrefix(host, "www.")
	}
	return strings.TrimPrefix(origin, "www.")
}
