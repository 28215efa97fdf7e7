package pricing

import (
	"fmt"
	"net/url"
	"strings"
)

// Canonicalize reduces a raw URL string to the canonical form used as the
// Pricing-Context Cache key: scheme+host+path lowercased, default port
// stripped, fragment removed. Two raw strings with the same canonical form
// map to the same cache entry (spec.md §3, TransformationRequest).
func Canonicalize(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("pricing: empty url")
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("pricing: parse url %q: %w", raw, err)
	}
	if u.Scheme == "" || u.Host == "" {
		return "", fmt.Errorf("pricing: url %q is not absolute", raw)
	}

	scheme := strings.ToLower(u.Scheme)
	host := strings.ToLower(u.Hostname())
	port := u.Port()
	if (scheme == "http" && port == "80") || (scheme == "https" && port == "443") {
		port = ""
	}

	path := strings.ToLower(u.EscapedPath())
	if path == "" {
		path = "/"
	}
	// Collapse a trailing slash on anything but the root path so that
	// "/pricing" and "/pricing/" canonicalize identically.
	if len(path) > 1 && strings.HasSuffix(path, "/") {
		path = strings.TrimSuffix(path, "/")
	}

	var sb strings.Builder
	sb.WriteString(scheme)
	sb.WriteString("://")
	sb.WriteString(host)
	if port != "" {
		sb.WriteString(":")
		sb.WriteString(port)
	}
	sb.WriteString(path)
	if u.RawQuery != "" {
		sb.WriteString("?")
		sb.WriteString(u.RawQuery)
	}
	return sb.String(), nil
}
