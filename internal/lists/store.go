package lists

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/five82/cinevault/internal/logging"
	"github.com/five82/cinevault/internal/tmdb"
)

// Persister is the durable side of the store. *storage.Store satisfies it.
type Persister interface {
	Read(key string) []tmdb.Movie
	Write(key string, movies []tmdb.Movie)
}

// Snapshot is a copy of every collection at one point in time.
type Snapshot struct {
	Watchlist []tmdb.Movie
	Watched   []tmdb.Movie
	Favorites []tmdb.Movie
	Counts    Counts
}

// Of returns the collection for k from the snapshot.
func (s Snapshot) Of(k Kind) []tmdb.Movie {
	switch k {
	case Watchlist:
		return s.Watchlist
	case Watched:
		return s.Watched
	case Favorites:
		return s.Favorites
	default:
		return nil
	}
}

type subscriber struct {
	id uint64
	fn func(Counts)
}

// Store owns the three collections. Every successful toggle is written
// through the persister before subscribers are told about the new counts.
type Store struct {
	mu          sync.RWMutex
	notifyMu    sync.Mutex
	persist     Persister
	collections map[Kind][]tmdb.Movie
	subs        []subscriber
	nextSub     uint64
	log         zerolog.Logger
}

// New loads every collection from persist. A nil persister keeps state in
// memory only.
func New(persist Persister) *Store {
	s := &Store{
		persist:     persist,
		collections: make(map[Kind][]tmdb.Movie, len(Kinds())),
		log:         logging.WithComponent("lists"),
	}
	for _, k := range Kinds() {
		var loaded []tmdb.Movie
		if persist != nil {
			loaded = persist.Read(k.StorageKey())
		}
		s.collections[k] = sanitize(loaded)
		s.log.Debug().Str("kind", k.String()).Int("count", len(s.collections[k])).Msg("collection loaded")
	}
	return s
}

// Collection returns a copy of the collection in insertion order. Unknown
// kinds yield an empty slice.
func (s *Store) Collection(k Kind) []tmdb.Movie {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneMovies(s.collections[k])
}

// Recent returns a copy of the collection, most recently added first.
func (s *Store) Recent(k Kind) []tmdb.Movie {
	movies := s.Collection(k)
	for i, j := 0, len(movies)-1; i < j; i, j = i+1, j-1 {
		movies[i], movies[j] = movies[j], movies[i]
	}
	return movies
}

// Contains reports whether a movie with id is in the collection.
func (s *Store) Contains(k Kind, id int) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return indexOf(s.collections[k], id) >= 0
}

// Counts returns the size of every collection.
func (s *Store) Counts() Counts {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.countsLocked()
}

// Snapshot returns copies of all collections and their counts.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Watchlist: cloneMovies(s.collections[Watchlist]),
		Watched:   cloneMovies(s.collections[Watched]),
		Favorites: cloneMovies(s.collections[Favorites]),
		Counts:    s.countsLocked(),
	}
}

// Toggle removes the movie from the collection when present and appends it
// otherwise. It returns whether the movie is a member afterwards. Unknown
// kinds and movies without a positive id are ignored.
//
// An added movie is stored exactly as supplied; re-adding an id that was
// removed places it at the end.
func (s *Store) Toggle(k Kind, movie tmdb.Movie) bool {
	if !k.Valid() || !movie.Valid() {
		return false
	}

	s.mu.Lock()
	current := s.collections[k]
	var next []tmdb.Movie
	member := false
	if idx := indexOf(current, movie.ID); idx >= 0 {
		next = make([]tmdb.Movie, 0, len(current)-1)
		next = append(next, current[:idx]...)
		next = append(next, current[idx+1:]...)
	} else {
		next = make([]tmdb.Movie, 0, len(current)+1)
		next = append(next, current...)
		next = append(next, movie.Clone())
		member = true
	}
	s.collections[k] = next
	if s.persist != nil {
		s.persist.Write(k.StorageKey(), next)
	}
	s.mu.Unlock()

	s.log.Debug().Str("kind", k.String()).Int("movie_id", movie.ID).Bool("member", member).Msg("collection toggled")
	s.notify()
	return member
}

// notify delivers the current counts. Deliveries are serialized and each
// reads counts when it starts, so the last one delivered matches the final
// state even when toggles race.
func (s *Store) notify() {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.mu.RLock()
	counts := s.countsLocked()
	subs := append([]subscriber(nil), s.subs...)
	s.mu.RUnlock()

	for _, sub := range subs {
		sub.fn(counts)
	}
}

// Subscribe registers fn to receive counts after every toggle. fn may read
// the store and cancel itself but must not call Toggle. The returned function
// unregisters it and is safe to call more than once.
func (s *Store) Subscribe(fn func(Counts)) (cancel func()) {
	if fn == nil {
		return func() {}
	}
	s.mu.Lock()
	s.nextSub++
	id := s.nextSub
	s.subs = append(s.subs, subscriber{id: id, fn: fn})
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			for i, sub := range s.subs {
				if sub.id == id {
					s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
					return
				}
			}
		})
	}
}

func (s *Store) countsLocked() Counts {
	return Counts{
		Watchlist: len(s.collections[Watchlist]),
		Watched:   len(s.collections[Watched]),
		Favorites: len(s.collections[Favorites]),
	}
}

func indexOf(movies []tmdb.Movie, id int) int {
	for i, m := range movies {
		if m.ID == id {
			return i
		}
	}
	return -1
}

// sanitize drops records without a usable id and keeps the first of any
// duplicates so loaded state satisfies the uniqueness invariant.
func sanitize(movies []tmdb.Movie) []tmdb.Movie {
	out := make([]tmdb.Movie, 0, len(movies))
	seen := make(map[int]struct{}, len(movies))
	for _, m := range movies {
		if !m.Valid() {
			continue
		}
		if _, dup := seen[m.ID]; dup {
			continue
		}
		seen[m.ID] = struct{}{}
		out = append(out, m)
	}
	return out
}

func cloneMovies(movies []tmdb.Movie) []tmdb.Movie {
	out := make([]tmdb.Movie, len(movies))
	for i, m := range movies {
		out[i] = m.Clone()
	}
	return out
}
