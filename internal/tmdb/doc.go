// Package tmdb provides the HTTP client for the movie catalog API.
//
// # Overview
//
// The client issues read-only GET requests against the catalog's v3 API and
// decodes the JSON payloads into the types in types.go. It never caches:
// every call is a fresh round trip.
//
// # Architecture
//
//   - resolver.go: candidate endpoints (edge proxy, direct API) and the
//     session-scoped "proxy unusable" flag
//   - client.go: request execution, per-attempt timeout, credential policy,
//     proxy failover, failure classification
//   - errors.go: the Error type and its Kind taxonomy
//   - catalog.go, discover.go, detail.go: typed endpoint helpers built on Fetcher
//   - types.go: data structures mirroring the catalog schema
//
// # Endpoint Resolution
//
// When a proxy is configured and has not failed, requests go to the proxy
// first and to the direct API second. A network error, a timeout, or a 5xx
// from the proxy marks it unusable for the rest of the session; from then on
// only the direct API is used. The flag never resets.
//
// Only the direct endpoint receives the api_key query parameter. The proxy is
// expected to attach credentials server-side, so the key is stripped from
// proxy URLs even if a caller passes it as a parameter.
//
// # Cancellation
//
// The caller's context is the cancellation token. A context that is already
// done settles as KindCancelled without touching the network. Each attempt
// runs under its own timeout (10 seconds by default) derived from the caller's
// context, so a caller cancel always wins and the timer is released as soon as
// the attempt completes.
//
// # Error Handling
//
// Every failure is an *Error. Callers use IsCancelled to suppress display of
// superseded requests and Retryable to decide whether to offer a retry:
//
//	page, err := tmdb.Popular(ctx, client, 2)
//	switch {
//	case err == nil:
//		render(page)
//	case tmdb.IsCancelled(err):
//		// superseded by a newer request; show nothing
//	default:
//		showRetry(err)
//	}
package tmdb
