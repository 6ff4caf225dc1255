// Package metrics exposes Prometheus instrumentation for the catalog client
// and the list store.
//
// Metrics live in a registry owned by the Metrics value rather than the
// global default, so each session (and each test) starts from zero.
package metrics

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/five82/cinevault/internal/tmdb"
)

var _ tmdb.Observer = (*Metrics)(nil)

// Metrics holds the application's collectors.
type Metrics struct {
	registry *prometheus.Registry

	requests      *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	proxyDisabled *prometheus.CounterVec
	listSize      *prometheus.GaugeVec
}

// New registers every collector on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "cinevault_catalog_requests_total",
			Help: "Catalog request attempts, by endpoint (proxy/direct) and outcome.",
		}, []string{"endpoint", "outcome"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "cinevault_catalog_request_duration_seconds",
			Help:    "Catalog request attempt latency, by endpoint.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}, []string{"endpoint"}),
		proxyDisabled: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "cinevault_catalog_proxy_disabled_total",
			Help: "Times the proxy endpoint was marked unusable, by failure reason.",
		}, []string{"reason"}),
		listSize: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "cinevault_list_size",
			Help: "Current number of movies in each collection.",
		}, []string{"kind"}),
	}
}

// ObserveAttempt records one catalog attempt.
func (m *Metrics) ObserveAttempt(endpoint, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(endpoint, outcome).Inc()
	m.duration.WithLabelValues(endpoint).Observe(elapsed.Seconds())
}

// ProxyDisabled records the proxy being marked unusable.
func (m *Metrics) ProxyDisabled(reason string) {
	if m == nil {
		return
	}
	m.proxyDisabled.WithLabelValues(reason).Inc()
}

// SetListSize records the size of a collection.
func (m *Metrics) SetListSize(kind string, size int) {
	if m == nil {
		return
	}
	m.listSize.WithLabelValues(kind).Set(float64(size))
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Serve exposes /metrics on addr until ctx is done. An empty addr returns
// immediately.
func (m *Metrics) Serve(ctx context.Context, addr string, logger zerolog.Logger) error {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", m.Handler())

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	logger.Info().Str("addr", ln.Addr().String()).Msg("metrics listener started")
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
