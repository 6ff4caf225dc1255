package storage

import (
	json "github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/five82/cinevault/internal/logging"
	"github.com/five82/cinevault/internal/tmdb"
)

// Store reads and writes movie collections as JSON arrays. It never returns
// errors: a read that cannot produce a collection yields an empty one and a
// failed write leaves the caller's in-memory state authoritative.
type Store struct {
	backend Backend
	log     zerolog.Logger
}

// New wraps backend. A nil logger uses the "storage" component logger.
func New(backend Backend, logger *zerolog.Logger) *Store {
	log := logging.WithComponent("storage")
	if logger != nil {
		log = *logger
	}
	return &Store{backend: backend, log: log}
}

// Read returns the collection stored under key, or an empty non-nil slice.
func (s *Store) Read(key string) (movies []tmdb.Movie) {
	movies = []tmdb.Movie{}
	if s == nil || s.backend == nil {
		return movies
	}
	defer func() {
		if r := recover(); r != nil {
			s.log.Error().Interface("panic", r).Str("key", key).Msg("storage read panicked")
			movies = []tmdb.Movie{}
		}
	}()

	data, ok, err := s.backend.Get(key)
	if err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("storage read failed; using empty collection")
		return movies
	}
	if !ok {
		return movies
	}
	var decoded []tmdb.Movie
	if err := json.Unmarshal(data, &decoded); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("stored collection is corrupt; using empty collection")
		return movies
	}
	if decoded == nil {
		return movies
	}
	return decoded
}

// Write serializes movies under key. Failures are logged and swallowed.
func (s *Store) Write(key string, movies []tmdb.Movie) {
	if s == nil || s.backend == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			s.log.Error().Interface("panic", r).Str("key", key).Msg("storage write panicked")
		}
	}()

	if movies == nil {
		movies = []tmdb.Movie{}
	}
	data, err := json.Marshal(movies)
	if err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("encode collection failed; not persisted")
		return
	}
	if err := s.backend.Set(key, data); err != nil {
		s.log.Warn().Err(err).Str("key", key).Msg("storage write failed; in-memory state kept")
		return
	}
	s.log.Debug().Str("key", key).Int("count", len(movies)).Msg("collection persisted")
}

// Close releases the backend.
func (s *Store) Close() error {
	if s == nil || s.backend == nil {
		return nil
	}
	return s.backend.Close()
}
