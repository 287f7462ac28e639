package service

import (
	"net/url"
	"sort"
	"strings"

	"github.com/samber/lo"
)

// UpstreamRouter decides which item urls a bundle may reach
// and rewrites them to the backend serving their host
type UpstreamRouter struct {
	hostURLMap map[string]url.URL
	// nil when relative item urls are not allowed
	defaultURL *url.URL
}

// NewUpstreamRouter creates an UpstreamRouter for the backends of
// hostURLMap, relative urls going to defaultURL when it is non nil
func NewUpstreamRouter(hostURLMap map[string]url.URL, defaultURL *url.URL) *UpstreamRouter {
	return &UpstreamRouter{
		hostURLMap: hostURLMap,
		defaultURL: defaultURL,
	}
}

// Hosts returns the sorted hosts items may address with an absolute url
func (u *UpstreamRouter) Hosts() []string {
	hosts := lo.Keys(u.hostURLMap)
	sort.Strings(hosts)
	return hosts
}

// IsURLAcceptable rejects protocol relative urls, accepts relative paths
// when a default backend is configured and absolute http(s) urls
// whose host has a backend
func (u *UpstreamRouter) IsURLAcceptable(raw string) bool {
	if strings.HasPrefix(raw, "//") {
		return false
	}

	if strings.HasPrefix(raw, "/") {
		return u.defaultURL != nil
	}

	parsed, err := url.Parse(raw)
	if err != nil {
		return false
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return false
	}

	if parsed.User != nil {
		return false
	}

	_, ok := u.backendFor(parsed)

	return ok
}

// ResolveURL rewrites an accepted url onto its backend, keeping the
// path below the backend's path prefix and the query.
// Urls without a backend are returned unchanged.
func (u *UpstreamRouter) ResolveURL(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil {
		return raw
	}

	var backend url.URL
	if strings.HasPrefix(raw, "/") && !strings.HasPrefix(raw, "//") {
		if u.defaultURL == nil {
			return raw
		}
		backend = *u.defaultURL
	} else {
		var ok bool
		backend, ok = u.backendFor(parsed)
		if !ok {
			return raw
		}
	}

	resolved := backend.Scheme + "://" + backend.Host + strings.TrimSuffix(backend.EscapedPath(), "/") + parsed.EscapedPath()

	if parsed.RawQuery != "" {
		resolved += "?" + parsed.RawQuery
	}

	return resolved
}

// backendFor looks up the backend of a url by host and port,
// then by bare hostname
func (u *UpstreamRouter) backendFor(parsed *url.URL) (url.URL, bool) {
	if backend, ok := u.hostURLMap[parsed.Host]; ok {
		return backend, true
	}

	backend, ok := u.hostURLMap[parsed.Hostname()]

	return backend, ok
}
