package tmdb

import (
	"fmt"
	"net/url"
	"strings"
	"sync/atomic"
)

// DefaultDirectURL is the canonical catalog endpoint.
const DefaultDirectURL = "https://api.themoviedb.org/3"

// Endpoint is one candidate base URL.
type Endpoint struct {
	Base *url.URL
	// Direct endpoints need the client-side credential; proxies attach it
	// server-side and must never receive it.
	Direct bool
}

// Name labels the endpoint for logs and metrics.
func (e Endpoint) Name() string {
	if e.Direct {
		return "direct"
	}
	return "proxy"
}

// Resolver orders candidate endpoints and remembers, for the lifetime of the
// session, whether the proxy has been marked unusable. The flag only ever
// transitions from usable to unusable.
type Resolver struct {
	proxy    *Endpoint
	direct   Endpoint
	disabled atomic.Bool
}

// NewResolver builds a resolver. proxyURL may be empty. A proxy whose host
// matches the direct host is treated as the direct endpoint.
func NewResolver(proxyURL, directURL string) (*Resolver, error) {
	if strings.TrimSpace(directURL) == "" {
		directURL = DefaultDirectURL
	}
	direct, err := parseBase(directURL)
	if err != nil {
		return nil, fmt.Errorf("parse direct url: %w", err)
	}
	r := &Resolver{direct: Endpoint{Base: direct, Direct: true}}

	if strings.TrimSpace(proxyURL) == "" {
		return r, nil
	}
	proxy, err := parseBase(proxyURL)
	if err != nil {
		return nil, fmt.Errorf("parse proxy url: %w", err)
	}
	if sameHost(proxy, direct) {
		r.direct = Endpoint{Base: proxy, Direct: true}
		return r, nil
	}
	r.proxy = &Endpoint{Base: proxy}
	return r, nil
}

// Candidates returns the endpoints to try, in order.
func (r *Resolver) Candidates() []Endpoint {
	if r.ProxyUsable() {
		return []Endpoint{*r.proxy, r.direct}
	}
	return []Endpoint{r.direct}
}

// ProxyConfigured reports whether a distinct proxy endpoint exists.
func (r *Resolver) ProxyConfigured() bool {
	return r.proxy != nil
}

// ProxyUsable reports whether the proxy is configured and not disabled.
func (r *Resolver) ProxyUsable() bool {
	return r.proxy != nil && !r.disabled.Load()
}

// DisableProxy marks the proxy unusable for the rest of the session. It
// returns true only for the call that performed the transition.
func (r *Resolver) DisableProxy() bool {
	if r.proxy == nil {
		return false
	}
	return r.disabled.CompareAndSwap(false, true)
}

// Direct returns the direct endpoint.
func (r *Resolver) Direct() Endpoint {
	return r.direct
}

func parseBase(raw string) (*url.URL, error) {
	trimmed := strings.TrimSpace(raw)
	if !strings.Contains(trimmed, "://") {
		trimmed = "https://" + trimmed
	}
	u, err := url.Parse(trimmed)
	if err != nil {
		return nil, err
	}
	if u.Host == "" {
		return nil, fmt.Errorf("missing host in %q", raw)
	}
	u.Path = strings.TrimRight(u.Path, "/")
	u.RawQuery = ""
	u.Fragment = ""
	return u, nil
}

func sameHost(a, b *url.URL) bool {
	return strings.EqualFold(a.Host, b.Host)
}
