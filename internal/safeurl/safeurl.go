package safeurl

import (
	"net/url"
	"strings"
)

// IsHTTPOrHTTPS returns true if u is a valid URL with scheme http or https.
// Channel sources and resolved stream URLs must pass this before they reach a playlist.
func IsHTTPOrHTTPS(u string) bool {
	parsed, err := url.Parse(strings.TrimSpace(u))
	if err != nil || parsed.Host == "" {
		return false
	}
	s := strings.ToLower(parsed.Scheme)
	return s == "http" || s == "https"
}

// HasHTTPPrefix reports whether line starts with an http:// or https:// marker (case-insensitive).
// It does not parse the rest; playlist URL lines are matched by prefix only.
func HasHTTPPrefix(line string) bool {
	l := strings.ToLower(strings.TrimSpace(line))
	return strings.HasPrefix(l, "http://") || strings.HasPrefix(l, "https://")
}

// VideoID returns the YouTube video id from a watch URL's v= query parameter, or "".
func VideoID(watchURL string) string {
	u, err := url.Parse(watchURL)
	if err != nil {
		return ""
	}
	id := u.Query().Get("v")
	for _, c := range id {
		if !(c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z' || c >= '0' && c <= '9' || c == '_' || c == '-') {
			return ""
		}
	}
	return id
}
