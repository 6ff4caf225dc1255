package app

import (
	"fmt"
	"path/filepath"

	"github.com/five82/cinevault/internal/config"
	"github.com/five82/cinevault/internal/events"
	"github.com/five82/cinevault/internal/lists"
	"github.com/five82/cinevault/internal/metrics"
	"github.com/five82/cinevault/internal/storage"
	"github.com/five82/cinevault/internal/tmdb"
)

// listsDir is the storage directory under the data directory.
const listsDir = "lists"

// Session holds the core collaborators for one run of the application.
type Session struct {
	Config  config.Config
	Store   *storage.Store
	Lists   *lists.Store
	Catalog *tmdb.Client
	Bus     *events.Bus
	Metrics *metrics.Metrics

	unsubscribe func()
}

// NewSession opens storage and builds the catalog client, list store, and
// bus described by cfg. Call Close to release storage.
func NewSession(cfg config.Config) (*Session, error) {
	backend, err := storage.Open(cfg.Storage, StorageDir(cfg))
	if err != nil {
		return nil, fmt.Errorf("open %s storage: %w", cfg.Storage, err)
	}

	m := metrics.New()
	catalog, err := tmdb.NewClient(tmdb.Options{
		APIKey:            cfg.APIKey,
		ProxyURL:          cfg.ProxyURL,
		DirectURL:         cfg.DirectURL,
		Timeout:           cfg.RequestTimeout,
		RequestsPerSecond: cfg.RequestsPerSecond,
		Observer:          m,
	})
	if err != nil {
		_ = backend.Close()
		return nil, fmt.Errorf("init catalog client: %w", err)
	}

	store := storage.New(backend, nil)
	s := &Session{
		Config:  cfg,
		Store:   store,
		Lists:   lists.New(store),
		Catalog: catalog,
		Bus:     events.NewBus(),
		Metrics: m,
	}
	s.recordCounts(s.Lists.Counts())
	s.unsubscribe = s.Lists.Subscribe(s.recordCounts)
	return s, nil
}

// StorageDir returns where collections are kept for cfg.
func StorageDir(cfg config.Config) string {
	return filepath.Join(cfg.DataDir, listsDir)
}

func (s *Session) recordCounts(c lists.Counts) {
	for _, kind := range lists.Kinds() {
		s.Metrics.SetListSize(kind.String(), c.Of(kind))
	}
}

// Close detaches the metrics subscriber and closes storage.
func (s *Session) Close() error {
	if s == nil {
		return nil
	}
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
	return s.Store.Close()
}
