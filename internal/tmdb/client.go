package tmdb

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/five82/cinevault/internal/logging"
)

const (
	// DefaultTimeout bounds a single attempt against one endpoint.
	DefaultTimeout = 10 * time.Second

	defaultUserAgent         = "cinevault/0.1"
	defaultRequestsPerSecond = 20
	defaultBurst             = 10
	maxBodyBytes             = 8 << 20
	apiKeyParam              = "api_key"
)

// Fetcher is the catalog surface used by the UI and helpers.
// It is implemented by *Client and can be faked in tests.
type Fetcher interface {
	Do(ctx context.Context, req Request) ([]byte, error)
}

var _ Fetcher = (*Client)(nil)

// Observer receives per-attempt instrumentation.
type Observer interface {
	ObserveAttempt(endpoint string, outcome string, elapsed time.Duration)
	ProxyDisabled(reason string)
}

// Request describes one catalog GET. The caller's context is the
// cancellation token; Timeout overrides the client default when positive.
type Request struct {
	Path    string
	Params  map[string]string
	Timeout time.Duration
}

// Options configure a Client.
type Options struct {
	APIKey            string
	ProxyURL          string
	DirectURL         string
	Timeout           time.Duration
	RequestsPerSecond float64 // negative disables pacing
	HTTPClient        *http.Client
	Observer          Observer
	Logger            *zerolog.Logger
	UserAgent         string
}

// Client talks to the movie catalog through the proxy when it is healthy and
// directly otherwise.
type Client struct {
	resolver  *Resolver
	http      *http.Client
	apiKey    string
	timeout   time.Duration
	limiter   *rate.Limiter
	observer  Observer
	log       zerolog.Logger
	userAgent string

	missingKeyOnce sync.Once
}

// NewClient builds a Client from opts.
func NewClient(opts Options) (*Client, error) {
	resolver, err := NewResolver(opts.ProxyURL, opts.DirectURL)
	if err != nil {
		return nil, err
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = NewHTTPClient()
	}
	userAgent := strings.TrimSpace(opts.UserAgent)
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	logger := logging.WithComponent("catalog")
	if opts.Logger != nil {
		logger = *opts.Logger
	}

	var limiter *rate.Limiter
	switch rps := opts.RequestsPerSecond; {
	case rps == 0:
		limiter = rate.NewLimiter(rate.Limit(defaultRequestsPerSecond), defaultBurst)
	case rps > 0:
		limiter = rate.NewLimiter(rate.Limit(rps), defaultBurst)
	}

	return &Client{
		resolver:  resolver,
		http:      httpClient,
		apiKey:    strings.TrimSpace(opts.APIKey),
		timeout:   timeout,
		limiter:   limiter,
		observer:  opts.Observer,
		log:       logger,
		userAgent: userAgent,
	}, nil
}

// NewHTTPClient returns the transport used for catalog requests. Timeouts
// are enforced per attempt through contexts, so the client itself has none.
func NewHTTPClient() *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			DialContext:           (&net.Dialer{Timeout: 5 * time.Second, KeepAlive: 30 * time.Second}).DialContext,
			ForceAttemptHTTP2:     true,
			MaxIdleConns:          16,
			MaxIdleConnsPerHost:   4,
			IdleConnTimeout:       30 * time.Second,
			TLSHandshakeTimeout:   5 * time.Second,
			ExpectContinueTimeout: time.Second,
		},
	}
}

// Resolver exposes the endpoint resolver (read-only use).
func (c *Client) Resolver() *Resolver {
	return c.resolver
}

// Get issues a GET with the default timeout and returns the raw JSON body.
func (c *Client) Get(ctx context.Context, path string, params map[string]string) ([]byte, error) {
	return c.Do(ctx, Request{Path: path, Params: params})
}

// Do executes req against the candidate endpoints in order. A proxy failure
// (network, timeout, or 5xx) disables the proxy for the session and moves on
// to the direct endpoint; any direct failure is final.
func (c *Client) Do(ctx context.Context, req Request) ([]byte, error) {
	if c == nil {
		return nil, fmt.Errorf("client is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	if err := ctx.Err(); err != nil {
		return nil, &Error{Kind: KindCancelled, Err: err}
	}

	timeout := req.Timeout
	if timeout <= 0 {
		timeout = c.timeout
	}
	query := encodeParams(req.Params)
	if err := c.pace(ctx, timeout); err != nil {
		return nil, err
	}

	var lastErr error
	candidates := c.resolver.Candidates()
	for i, endpoint := range candidates {
		body, err := c.attempt(ctx, endpoint, req.Path, query, timeout)
		if err == nil {
			return body, nil
		}
		lastErr = err

		final := endpoint.Direct || i == len(candidates)-1
		if final || !proxyShouldFallBack(err) {
			return nil, err
		}
		if c.resolver.DisableProxy() {
			c.log.Warn().Err(err).Str("path", req.Path).Msg("proxy unusable; using direct endpoint for the rest of the session")
			if c.observer != nil {
				c.observer.ProxyDisabled(failureReason(err))
			}
		}
	}
	return nil, lastErr
}

// pace waits for the rate limiter, bounded by the request timeout. A wait
// that cannot finish in time is a timeout unless the caller aborted; the
// proxy is not blamed for either.
func (c *Client) pace(ctx context.Context, timeout time.Duration) error {
	if c.limiter == nil {
		return nil
	}
	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := c.limiter.Wait(waitCtx); err != nil {
		if ctx.Err() != nil {
			return &Error{Kind: KindCancelled, Err: ctx.Err()}
		}
		return &Error{Kind: KindTimeout, Err: fmt.Errorf("rate limit wait: %w", err)}
	}
	return nil
}

func (c *Client) attempt(ctx context.Context, endpoint Endpoint, path string, query url.Values, timeout time.Duration) ([]byte, error) {
	reqURL := c.buildURL(endpoint, path, query)
	redacted := redactURL(reqURL)

	attemptCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(attemptCtx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, &Error{Kind: KindNetwork, Endpoint: endpoint.Name(), URL: redacted, Err: fmt.Errorf("create request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	start := time.Now()
	body, status, err := c.execute(req)
	elapsed := time.Since(start)
	if err != nil {
		cerr := classifyTransport(ctx, attemptCtx, endpoint, redacted, err)
		c.observe(endpoint, cerr.Kind.String(), elapsed)
		c.log.Debug().Str("endpoint", endpoint.Name()).Str("url", redacted).Str("kind", cerr.Kind.String()).Dur("elapsed", elapsed).Msg("catalog request failed")
		return nil, cerr
	}
	if status < 200 || status > 299 {
		c.observe(endpoint, KindHTTP.String(), elapsed)
		c.log.Debug().Str("endpoint", endpoint.Name()).Str("url", redacted).Int("status", status).Msg("catalog returned error status")
		return nil, &Error{Kind: KindHTTP, Endpoint: endpoint.Name(), URL: redacted, StatusCode: status}
	}
	if !json.Valid(body) {
		c.observe(endpoint, KindDecode.String(), elapsed)
		return nil, &Error{Kind: KindDecode, Endpoint: endpoint.Name(), URL: redacted, Err: errors.New("response is not valid JSON")}
	}
	c.observe(endpoint, "ok", elapsed)
	return body, nil
}

func (c *Client) execute(req *http.Request) ([]byte, int, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, 0, fmt.Errorf("read response: %w", err)
	}
	return body, resp.StatusCode, nil
}

func (c *Client) observe(endpoint Endpoint, outcome string, elapsed time.Duration) {
	if c.observer != nil {
		c.observer.ObserveAttempt(endpoint.Name(), outcome, elapsed)
	}
}

func (c *Client) buildURL(endpoint Endpoint, path string, query url.Values) string {
	u := *endpoint.Base
	if path != "" && !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	u.Path = endpoint.Base.Path + path

	values := make(url.Values, len(query)+1)
	for k, v := range query {
		values[k] = v
	}
	if endpoint.Direct {
		if c.apiKey == "" {
			c.missingKeyOnce.Do(func() {
				c.log.Warn().Msg("catalog api key is missing; direct requests are unauthenticated and will likely fail")
			})
		} else {
			values.Set(apiKeyParam, c.apiKey)
		}
	} else {
		values.Del(apiKeyParam)
	}
	u.RawQuery = values.Encode()
	return u.String()
}

// encodeParams drops empty values; url.Values.Encode sorts keys, which keeps
// the query string deterministic.
func encodeParams(params map[string]string) url.Values {
	values := make(url.Values, len(params))
	for k, v := range params {
		k = strings.TrimSpace(k)
		if k == "" || v == "" {
			continue
		}
		values.Set(k, v)
	}
	return values
}

func classifyTransport(parent, attemptCtx context.Context, endpoint Endpoint, redacted string, err error) *Error {
	switch {
	case parent.Err() != nil:
		return &Error{Kind: KindCancelled, Endpoint: endpoint.Name(), URL: redacted, Err: parent.Err()}
	case errors.Is(attemptCtx.Err(), context.DeadlineExceeded):
		return &Error{Kind: KindTimeout, Endpoint: endpoint.Name(), URL: redacted, Err: err}
	default:
		return &Error{Kind: KindNetwork, Endpoint: endpoint.Name(), URL: redacted, Err: err}
	}
}

func proxyShouldFallBack(err error) bool {
	var ce *Error
	if !errors.As(err, &ce) {
		return false
	}
	switch ce.Kind {
	case KindNetwork, KindTimeout:
		return true
	case KindHTTP:
		return ce.StatusCode >= 500
	default:
		return false
	}
}

func failureReason(err error) string {
	var ce *Error
	if errors.As(err, &ce) {
		if ce.Kind == KindHTTP {
			return "http_5xx"
		}
		return ce.Kind.String()
	}
	return "unknown"
}

func redactURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return raw
	}
	q := u.Query()
	if q.Has(apiKeyParam) {
		q.Set(apiKeyParam, "REDACTED")
		u.RawQuery = q.Encode()
	}
	return u.String()
}

func getJSON(ctx context.Context, f Fetcher, req Request, dest any) error {
	body, err := f.Do(ctx, req)
	if err != nil {
		return err
	}
	if dest == nil {
		return nil
	}
	if err := json.Unmarshal(body, dest); err != nil {
		return &Error{Kind: KindDecode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}
