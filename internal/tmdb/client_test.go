package tmdb

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/five82/cinevault/internal/logging"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m,
		goleak.IgnoreTopFunction("net/http.(*persistConn).readLoop"),
		goleak.IgnoreTopFunction("net/http.(*persistConn).writeLoop"),
		goleak.IgnoreTopFunction("internal/poll.runtime_pollWait"),
	)
}

// recordingServer counts hits and remembers the last query it saw.
type recordingServer struct {
	*httptest.Server
	hits      atomic.Int32
	mu        sync.Mutex
	lastQuery url.Values
	lastRaw   string
}

func (s *recordingServer) query() (url.Values, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastQuery, s.lastRaw
}

func newRecordingServer(t *testing.T, handler http.HandlerFunc) *recordingServer {
	t.Helper()
	rs := &recordingServer{}
	rs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rs.hits.Add(1)
		rs.mu.Lock()
		rs.lastQuery = r.URL.Query()
		rs.lastRaw = r.URL.RawQuery
		rs.mu.Unlock()
		handler(w, r)
	}))
	t.Cleanup(rs.Close)
	return rs
}

func jsonHandler(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}
}

func statusHandler(code int) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, http.StatusText(code), code)
	}
}

type testObserver struct {
	mu       sync.Mutex
	attempts []string
	disabled []string
}

func (o *testObserver) ObserveAttempt(endpoint, outcome string, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.attempts = append(o.attempts, endpoint+":"+outcome)
}

func (o *testObserver) ProxyDisabled(reason string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.disabled = append(o.disabled, reason)
}

func newTestClient(t *testing.T, proxyURL, directURL string, mutate ...func(*Options)) *Client {
	t.Helper()
	nop := logging.Nop()
	opts := Options{
		APIKey:            "secret",
		ProxyURL:          proxyURL,
		DirectURL:         directURL,
		RequestsPerSecond: -1,
		Logger:            &nop,
	}
	for _, fn := range mutate {
		fn(&opts)
	}
	c, err := NewClient(opts)
	require.NoError(t, err)
	return c
}

func TestClient_DirectRequestsCarryAPIKey(t *testing.T) {
	direct := newRecordingServer(t, jsonHandler(`{"genres":[{"id":28,"name":"Action"}]}`))
	c := newTestClient(t, "", direct.URL)

	genres, err := Genres(context.Background(), c)
	require.NoError(t, err)
	require.Len(t, genres, 1)
	assert.Equal(t, "Action", genres[0].Name)

	q, _ := direct.query()
	assert.Equal(t, "secret", q.Get("api_key"))
}

func TestClient_ProxyRequestsNeverCarryAPIKey(t *testing.T) {
	proxy := newRecordingServer(t, jsonHandler(`{"page":1,"results":[],"total_pages":1}`))
	direct := newRecordingServer(t, jsonHandler(`{}`))
	c := newTestClient(t, proxy.URL, direct.URL)

	_, err := c.Get(context.Background(), "/movie/popular", map[string]string{"page": "1", "api_key": "leaked"})
	require.NoError(t, err)

	q, _ := proxy.query()
	assert.False(t, q.Has("api_key"), "proxy query = %v, want no api_key", q)
	assert.Equal(t, "1", q.Get("page"))
	assert.Equal(t, int32(0), direct.hits.Load())
}

func TestClient_Proxy5xxFallsBackAndDisablesProxy(t *testing.T) {
	proxy := newRecordingServer(t, statusHandler(525))
	direct := newRecordingServer(t, jsonHandler(`{"genres":[]}`))
	obs := &testObserver{}
	c := newTestClient(t, proxy.URL, direct.URL, func(o *Options) { o.Observer = obs })

	_, err := c.Get(context.Background(), "/genre/movie/list", nil)
	require.NoError(t, err)
	assert.Equal(t, int32(1), proxy.hits.Load())
	assert.Equal(t, int32(1), direct.hits.Load())
	assert.False(t, c.Resolver().ProxyUsable())

	// Every later call goes straight to the direct endpoint with the key.
	for i := 0; i < 3; i++ {
		_, err = c.Get(context.Background(), "/genre/movie/list", nil)
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), proxy.hits.Load())
	assert.Equal(t, int32(4), direct.hits.Load())
	q, _ := direct.query()
	assert.Equal(t, "secret", q.Get("api_key"))

	assert.Equal(t, []string{"http_5xx"}, obs.disabled)
	assert.Equal(t, "proxy:http", obs.attempts[0])
	assert.Equal(t, "direct:ok", obs.attempts[1])
}

func TestClient_Proxy4xxSurfacesWithoutFallback(t *testing.T) {
	proxy := newRecordingServer(t, statusHandler(http.StatusNotFound))
	direct := newRecordingServer(t, jsonHandler(`{}`))
	c := newTestClient(t, proxy.URL, direct.URL)

	_, err := c.Get(context.Background(), "/movie/999999", nil)
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, StatusCode(err))
	assert.True(t, Retryable(err))
	assert.Equal(t, int32(0), direct.hits.Load())
	assert.True(t, c.Resolver().ProxyUsable())
}

func TestClient_ProxyNetworkErrorFallsBack(t *testing.T) {
	dead := httptest.NewServer(http.NotFoundHandler())
	deadURL := dead.URL
	dead.Close()

	direct := newRecordingServer(t, jsonHandler(`{"page":1,"results":[{"id":7,"title":"Se7en"}],"total_pages":3}`))
	c := newTestClient(t, deadURL, direct.URL)

	page, err := Popular(context.Background(), c, 1)
	require.NoError(t, err)
	require.Len(t, page.Results, 1)
	assert.Equal(t, 7, page.Results[0].ID)
	assert.False(t, c.Resolver().ProxyUsable())
}

func TestClient_ProxyTimeoutFallsBack(t *testing.T) {
	release := make(chan struct{})
	proxy := newRecordingServer(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-release:
		}
	})
	t.Cleanup(func() { close(release) })
	direct := newRecordingServer(t, jsonHandler(`{"genres":[]}`))
	c := newTestClient(t, proxy.URL, direct.URL, func(o *Options) { o.Timeout = 50 * time.Millisecond })

	_, err := c.Get(context.Background(), "/genre/movie/list", nil)
	require.NoError(t, err)
	assert.False(t, c.Resolver().ProxyUsable())
	assert.Equal(t, int32(1), direct.hits.Load())
}

func TestClient_DirectFailureIsFinal(t *testing.T) {
	direct := newRecordingServer(t, statusHandler(http.StatusInternalServerError))
	c := newTestClient(t, "", direct.URL)

	_, err := c.Get(context.Background(), "/movie/popular", nil)
	require.Error(t, err)

	var ce *Error
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, KindHTTP, ce.Kind)
	assert.Equal(t, "direct", ce.Endpoint)
	assert.Equal(t, "catalog error 500", ce.Error())
	assert.NotContains(t, ce.URL, "secret")
	assert.Equal(t, int32(1), direct.hits.Load())
}

func TestClient_PreCancelledContextIssuesNoRequest(t *testing.T) {
	proxy := newRecordingServer(t, jsonHandler(`{}`))
	direct := newRecordingServer(t, jsonHandler(`{}`))
	c := newTestClient(t, proxy.URL, direct.URL)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := c.Get(ctx, "/movie/popular", nil)
	require.Error(t, err)
	assert.True(t, IsCancelled(err))
	assert.False(t, Retryable(err))
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, int32(0), proxy.hits.Load())
	assert.Equal(t, int32(0), direct.hits.Load())
	assert.True(t, c.Resolver().ProxyUsable())
}

func TestClient_TimeoutWithoutCallerCancellation(t *testing.T) {
	release := make(chan struct{})
	direct := newRecordingServer(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-release:
		}
	})
	t.Cleanup(func() { close(release) })
	c := newTestClient(t, "", direct.URL)

	start := time.Now()
	_, err := c.Do(context.Background(), Request{Path: "/movie/popular", Timeout: 50 * time.Millisecond})
	elapsed := time.Since(start)

	require.Error(t, err)
	assert.True(t, IsTimeout(err), "err = %v, want timeout", err)
	assert.False(t, IsCancelled(err))
	assert.True(t, Retryable(err))
	assert.Less(t, elapsed, 2*time.Second)
}

func TestClient_CallerCancelWinsOverTimeout(t *testing.T) {
	release := make(chan struct{})
	proxy := newRecordingServer(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-release:
		}
	})
	t.Cleanup(func() { close(release) })
	direct := newRecordingServer(t, jsonHandler(`{}`))
	c := newTestClient(t, proxy.URL, direct.URL)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(30*time.Millisecond, cancel)

	start := time.Now()
	_, err := c.Get(ctx, "/movie/popular", nil)
	require.Error(t, err)
	assert.True(t, IsCancelled(err), "err = %v, want cancelled", err)
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.Equal(t, int32(0), direct.hits.Load())
	assert.True(t, c.Resolver().ProxyUsable(), "a caller abort is not a proxy failure")
}

func TestClient_CallerCancelMidProxyKeepsProxy(t *testing.T) {
	started := make(chan struct{}, 1)
	release := make(chan struct{})
	var slow atomic.Bool
	slow.Store(true)
	proxy := newRecordingServer(t, func(w http.ResponseWriter, r *http.Request) {
		if slow.Load() {
			started <- struct{}{}
			select {
			case <-r.Context().Done():
			case <-release:
			}
			return
		}
		jsonHandler(`{"genres":[]}`)(w, r)
	})
	t.Cleanup(func() { close(release) })
	direct := newRecordingServer(t, jsonHandler(`{"genres":[]}`))
	obs := &testObserver{}
	c := newTestClient(t, proxy.URL, direct.URL, func(o *Options) { o.Observer = obs })

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		<-started
		cancel()
	}()
	_, err := c.Get(ctx, "/genre/movie/list", nil)
	require.Error(t, err)
	assert.True(t, IsCancelled(err), "err = %v, want cancelled", err)
	assert.True(t, c.Resolver().ProxyUsable())
	assert.Empty(t, obs.disabled)

	// The next request still goes to the proxy.
	slow.Store(false)
	_, err = c.Get(context.Background(), "/genre/movie/list", nil)
	require.NoError(t, err)
	assert.Equal(t, int32(2), proxy.hits.Load())
	assert.Equal(t, int32(0), direct.hits.Load())
}

func TestClient_PacingPastDeadlineIsTimeout(t *testing.T) {
	proxy := newRecordingServer(t, jsonHandler(`{}`))
	direct := newRecordingServer(t, jsonHandler(`{}`))
	c := newTestClient(t, proxy.URL, direct.URL, func(o *Options) { o.RequestsPerSecond = 1 })

	for i := 0; i < defaultBurst; i++ {
		_, err := c.Get(context.Background(), "/movie/popular", nil)
		require.NoError(t, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()
	_, err := c.Get(ctx, "/movie/popular", nil)
	require.Error(t, err)
	require.NoError(t, ctx.Err())
	assert.True(t, IsTimeout(err), "err = %v, want timeout", err)
	assert.False(t, IsCancelled(err))
	assert.True(t, Retryable(err))
	assert.Equal(t, int32(defaultBurst), proxy.hits.Load())
	assert.Equal(t, int32(0), direct.hits.Load())
	assert.True(t, c.Resolver().ProxyUsable())
}

func TestClient_CancelWhilePacingIsCancelled(t *testing.T) {
	direct := newRecordingServer(t, jsonHandler(`{}`))
	c := newTestClient(t, "", direct.URL, func(o *Options) { o.RequestsPerSecond = 0.5 })

	for i := 0; i < defaultBurst; i++ {
		_, err := c.Get(context.Background(), "/movie/popular", nil)
		require.NoError(t, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(30*time.Millisecond, cancel)
	_, err := c.Get(ctx, "/movie/popular", nil)
	require.Error(t, err)
	assert.True(t, IsCancelled(err), "err = %v, want cancelled", err)
	assert.Equal(t, int32(defaultBurst), direct.hits.Load())
}

func TestClient_QueryStringIsDeterministic(t *testing.T) {
	direct := newRecordingServer(t, jsonHandler(`{}`))
	c := newTestClient(t, "", direct.URL)

	params := map[string]string{
		"with_genres": "28",
		"page":        "2",
		"sort_by":     "popularity.desc",
		"empty":       "",
	}
	_, err := c.Get(context.Background(), "/discover/movie", params)
	require.NoError(t, err)
	_, first := direct.query()

	_, err = c.Get(context.Background(), "/discover/movie", params)
	require.NoError(t, err)
	_, second := direct.query()

	assert.Equal(t, first, second)
	assert.Equal(t, "api_key=secret&page=2&sort_by=popularity.desc&with_genres=28", first)
}

func TestClient_InvalidJSONIsDecodeError(t *testing.T) {
	direct := newRecordingServer(t, jsonHandler(`{not-json`))
	c := newTestClient(t, "", direct.URL)

	_, err := c.Get(context.Background(), "/movie/popular", nil)
	require.Error(t, err)
	var ce *Error
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, KindDecode, ce.Kind)
}

func TestClient_MissingAPIKeyProceedsUnauthenticated(t *testing.T) {
	direct := newRecordingServer(t, jsonHandler(`{"genres":[]}`))
	c := newTestClient(t, "", direct.URL, func(o *Options) { o.APIKey = "  " })

	_, err := c.Get(context.Background(), "/genre/movie/list", nil)
	require.NoError(t, err)
	q, _ := direct.query()
	assert.False(t, q.Has("api_key"))
}

func TestClient_SendsHeadersAndJoinsBasePath(t *testing.T) {
	seen := make(chan *http.Request, 1)
	direct := newRecordingServer(t, func(w http.ResponseWriter, r *http.Request) {
		seen <- r.Clone(context.Background())
		jsonHandler(`{}`)(w, r)
	})
	c := newTestClient(t, "", direct.URL+"/3/")

	_, err := c.Get(context.Background(), "movie/550", nil)
	require.NoError(t, err)
	got := <-seen
	assert.Equal(t, "/3/movie/550", got.URL.Path)
	assert.Equal(t, "application/json", got.Header.Get("Accept"))
	assert.Equal(t, defaultUserAgent, got.Header.Get("User-Agent"))
}

func TestClient_ConcurrentProxyFailuresDisableOnce(t *testing.T) {
	proxy := newRecordingServer(t, statusHandler(http.StatusBadGateway))
	direct := newRecordingServer(t, jsonHandler(`{}`))
	obs := &testObserver{}
	c := newTestClient(t, proxy.URL, direct.URL, func(o *Options) { o.Observer = obs })

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.Get(context.Background(), "/movie/popular", nil)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	obs.mu.Lock()
	defer obs.mu.Unlock()
	assert.Len(t, obs.disabled, 1)
	assert.Equal(t, int32(8), direct.hits.Load())
}

func TestRedactURL(t *testing.T) {
	got := redactURL("https://api.themoviedb.org/3/movie/1?api_key=secret&page=1")
	assert.NotContains(t, got, "secret")
	assert.Contains(t, got, "api_key=REDACTED")
	assert.Equal(t, "https://proxy.example/3/movie/1?page=1", redactURL("https://proxy.example/3/movie/1?page=1"))
}
