package server

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestNormalizeOrigin covers case folding, default port stripping and
// rejection of values that are not absolute origins.
func TestNormalizeOrigin(t *testing.T) {
	cases := []struct{ in, want string }{
		{"http://Example.COM", "http://example.com"},
		{"http://example.com:80", "http://example.com"},
		{"https://example.com:443", "https://example.com"},
		{"https://example.com:8443", "https://example.com:8443"},
		{"  http://example.com  ", "http://example.com"},
		{"example.com", ""},
		{"", ""},
		{"://nope", ""},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, normalizeOrigin(tc.in), "origin %q", tc.in)
	}
}

func requestWithOrigin(origin string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "http://chat.example.com/ws/alice", nil)
	if origin != "" {
		r.Header.Set("Origin", origin)
	}
	return r
}

// TestOriginCheckerAllowList verifies allow-list matching is spelling
// insensitive and that unlisted origins are refused.
func TestOriginCheckerAllowList(t *testing.T) {
	checker := newOriginChecker([]string{"http://app.example.com"})

	require.True(t, checker.check(requestWithOrigin("http://app.example.com")))
	require.True(t, checker.check(requestWithOrigin("HTTP://APP.Example.Com:80")))
	require.False(t, checker.check(requestWithOrigin("http://evil.example.com")))
	require.False(t, checker.check(requestWithOrigin("not an origin")))
}

// TestOriginCheckerAdmitsMissingOrigin verifies non-browser clients, which
// send no Origin header, are admitted.
func TestOriginCheckerAdmitsMissingOrigin(t *testing.T) {
	checker := newOriginChecker([]string{"http://app.example.com"})
	require.True(t, checker.check(requestWithOrigin("")))
}

// TestOriginCheckerAdmitsSameHost verifies an origin matching the request's
// own host passes without being listed.
func TestOriginCheckerAdmitsSameHost(t *testing.T) {
	checker := newOriginChecker(nil)
	require.True(t, checker.check(requestWithOrigin("http://chat.example.com")))
	require.False(t, checker.check(requestWithOrigin("http://other.example.com")))
}

// TestOriginCheckerWildcard verifies "*" admits everything.
func TestOriginCheckerWildcard(t *testing.T) {
	checker := newOriginChecker([]string{"*"})
	require.True(t, checker.check(requestWithOrigin("http://anything.example")))
	require.True(t, checker.check(requestWithOrigin("")))
}
