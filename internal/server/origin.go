package server

import (
	"net/http"
	"net/url"
	"strings"
)

// originChecker decides whether a WebSocket handshake may proceed based on
// its Origin header. The check targets cross-site script abuse: browser
// clients always send an Origin, while native clients usually omit it and
// are admitted.
type originChecker struct {
	allowed  map[string]struct{}
	allowAll bool
}

// newOriginChecker builds a checker from an allow-list. Invalid entries are
// ignored; the single entry "*" admits every origin.
func newOriginChecker(origins []string) *originChecker {
	c := &originChecker{allowed: make(map[string]struct{}, len(origins))}
	for _, origin := range origins {
		if origin == "*" {
			c.allowAll = true
			continue
		}
		if normalized := normalizeOrigin(origin); normalized != "" {
			c.allowed[normalized] = struct{}{}
		}
	}
	return c
}

// check reports whether the request's origin is acceptable. Requests without
// an Origin header pass, as do requests whose origin host matches the Host
// header; everything else must be on the allow-list.
func (c *originChecker) check(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || c.allowAll {
		return true
	}
	if u, err := url.Parse(origin); err == nil && strings.EqualFold(u.Host, r.Host) {
		return true
	}
	normalized := normalizeOrigin(origin)
	if normalized == "" {
		return false
	}
	_, ok := c.allowed[normalized]
	return ok
}

// normalizeOrigin lowercases the scheme and host and strips default ports so
// equivalent spellings of the same origin compare equal. It returns an empty
// string when the value is not a valid absolute origin.
func normalizeOrigin(origin string) string {
	u, err := url.Parse(strings.TrimSpace(origin))
	if err != nil || u.Scheme == "" || u.Host == "" {
		return ""
	}

	scheme := strings.ToLower(u.Scheme)
	host := strings.ToLower(u.Host)
	switch {
	case scheme == "http" && strings.HasSuffix(host, ":80"):
		host = strings.TrimSuffix(host, ":80")
	case scheme == "https" && strings.HasSuffix(host, ":443"):
		host = strings.TrimSuffix(host, ":443")
	}
	return scheme + "://" + host
}
