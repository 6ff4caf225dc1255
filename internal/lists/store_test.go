package lists

import (
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/five82/cinevault/internal/logging"
	"github.com/five82/cinevault/internal/storage"
	"github.com/five82/cinevault/internal/tmdb"
)

func newBackedStore(t *testing.T) (*Store, *storage.Store) {
	t.Helper()
	nop := logging.Nop()
	persist := storage.New(storage.NewMemoryBackend(), &nop)
	return New(persist), persist
}

func ids(movies []tmdb.Movie) []int {
	out := make([]int, 0, len(movies))
	for _, m := range movies {
		out = append(out, m.ID)
	}
	return out
}

func TestToggle_AddToEmptyCollection(t *testing.T) {
	s, persist := newBackedStore(t)

	if !s.Toggle(Watchlist, tmdb.Movie{ID: 42, Title: "X"}) {
		t.Fatal("Toggle returned false, want membership")
	}

	want := []tmdb.Movie{{ID: 42, Title: "X"}}
	if diff := cmp.Diff(want, s.Collection(Watchlist)); diff != "" {
		t.Fatalf("collection mismatch (-want +got):\n%s", diff)
	}
	if got := s.Counts().Watchlist; got != 1 {
		t.Fatalf("Counts().Watchlist = %d, want 1", got)
	}
	if diff := cmp.Diff(want, persist.Read("cinevault_watchlist")); diff != "" {
		t.Fatalf("persisted mismatch (-want +got):\n%s", diff)
	}
}

func TestToggle_RemovesExistingByID(t *testing.T) {
	s, persist := newBackedStore(t)
	s.Toggle(Watchlist, tmdb.Movie{ID: 1})
	s.Toggle(Watchlist, tmdb.Movie{ID: 2})

	if s.Toggle(Watchlist, tmdb.Movie{ID: 1}) {
		t.Fatal("Toggle returned true, want removal")
	}
	if diff := cmp.Diff([]int{2}, ids(s.Collection(Watchlist))); diff != "" {
		t.Fatalf("ids mismatch (-want +got):\n%s", diff)
	}
	if got := s.Counts().Watchlist; got != 1 {
		t.Fatalf("Counts().Watchlist = %d, want 1", got)
	}
	if diff := cmp.Diff([]int{2}, ids(persist.Read("cinevault_watchlist"))); diff != "" {
		t.Fatalf("persisted ids mismatch (-want +got):\n%s", diff)
	}
}

func TestToggle_TwiceRestoresCollection(t *testing.T) {
	for _, k := range Kinds() {
		t.Run(k.String(), func(t *testing.T) {
			s, _ := newBackedStore(t)
			s.Toggle(k, tmdb.Movie{ID: 10})
			s.Toggle(k, tmdb.Movie{ID: 20})
			before := s.Collection(k)

			s.Toggle(k, tmdb.Movie{ID: 30, Title: "new"})
			s.Toggle(k, tmdb.Movie{ID: 30})
			if diff := cmp.Diff(before, s.Collection(k)); diff != "" {
				t.Fatalf("collection not restored (-want +got):\n%s", diff)
			}
		})
	}
}

func TestToggle_PersistedMatchesMemoryAfterEveryCall(t *testing.T) {
	s, persist := newBackedStore(t)
	seq := []struct {
		kind Kind
		id   int
	}{
		{Watched, 5}, {Favorites, 5}, {Watched, 6}, {Watched, 5}, {Favorites, 7}, {Watched, 5},
	}
	for i, step := range seq {
		s.Toggle(step.kind, tmdb.Movie{ID: step.id})
		for _, k := range Kinds() {
			if diff := cmp.Diff(s.Collection(k), persist.Read(k.StorageKey())); diff != "" {
				t.Fatalf("step %d: %s persisted diverged (-memory +persisted):\n%s", i, k, diff)
			}
		}
	}
	if diff := cmp.Diff([]int{6, 5}, ids(s.Collection(Watched))); diff != "" {
		t.Fatalf("re-added id should move to the end (-want +got):\n%s", diff)
	}
}

func TestToggle_OverwritesWithoutMerge(t *testing.T) {
	s, _ := newBackedStore(t)
	rich := tmdb.Movie{ID: 9, Title: "Rich", Runtime: 120, Tagline: "detail"}
	s.Toggle(Favorites, rich)
	s.Toggle(Favorites, rich)
	s.Toggle(Favorites, tmdb.Movie{ID: 9, Title: "Stub"})

	got := s.Collection(Favorites)
	want := []tmdb.Movie{{ID: 9, Title: "Stub"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("collection mismatch (-want +got):\n%s", diff)
	}
}

func TestToggle_IgnoresInvalidInput(t *testing.T) {
	s, persist := newBackedStore(t)
	notified := 0
	s.Subscribe(func(Counts) { notified++ })

	if s.Toggle(Kind(99), tmdb.Movie{ID: 1}) {
		t.Fatal("unknown kind should be ignored")
	}
	if s.Toggle(Watchlist, tmdb.Movie{ID: 0, Title: "no id"}) {
		t.Fatal("movie without id should be ignored")
	}
	if s.Toggle(Watchlist, tmdb.Movie{ID: -3}) {
		t.Fatal("negative id should be ignored")
	}
	if got := s.Counts(); got != (Counts{}) {
		t.Fatalf("Counts = %+v, want zero", got)
	}
	if notified != 0 {
		t.Fatalf("subscribers notified %d times, want 0", notified)
	}
	if got := persist.Read("cinevault_watchlist"); len(got) != 0 {
		t.Fatalf("persisted = %v, want nothing written", got)
	}
}

func TestCollection_ReturnsIndependentCopy(t *testing.T) {
	s, _ := newBackedStore(t)
	s.Toggle(Watchlist, tmdb.Movie{ID: 1, Title: "A", GenreIDs: []int{18}})

	got := s.Collection(Watchlist)
	got[0].Title = "mutated"
	got[0].GenreIDs[0] = 99
	_ = append(got, tmdb.Movie{ID: 2})

	again := s.Collection(Watchlist)
	if again[0].Title != "A" || again[0].GenreIDs[0] != 18 || len(again) != 1 {
		t.Fatalf("store state leaked through copy: %+v", again)
	}
	if empty := s.Collection(Kind(0)); empty == nil || len(empty) != 0 {
		t.Fatalf("unknown kind collection = %#v, want empty non-nil", empty)
	}
}

func TestRecent_ReversesInsertionOrder(t *testing.T) {
	s, _ := newBackedStore(t)
	for _, id := range []int{1, 2, 3} {
		s.Toggle(Watched, tmdb.Movie{ID: id})
	}
	if diff := cmp.Diff([]int{3, 2, 1}, ids(s.Recent(Watched))); diff != "" {
		t.Fatalf("Recent mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]int{1, 2, 3}, ids(s.Collection(Watched))); diff != "" {
		t.Fatalf("Recent must not reorder state (-want +got):\n%s", diff)
	}
}

func TestContainsAndSnapshot(t *testing.T) {
	s, _ := newBackedStore(t)
	s.Toggle(Favorites, tmdb.Movie{ID: 3})
	s.Toggle(Watched, tmdb.Movie{ID: 4})

	if !s.Contains(Favorites, 3) || s.Contains(Favorites, 4) || s.Contains(Kind(7), 3) {
		t.Fatal("Contains returned unexpected membership")
	}
	snap := s.Snapshot()
	want := Counts{Watchlist: 0, Watched: 1, Favorites: 1}
	if snap.Counts != want {
		t.Fatalf("snapshot counts = %+v, want %+v", snap.Counts, want)
	}
	if diff := cmp.Diff([]int{4}, ids(snap.Of(Watched))); diff != "" {
		t.Fatalf("snapshot watched mismatch (-want +got):\n%s", diff)
	}
}

func TestNew_LoadsAndSanitizesPersistedState(t *testing.T) {
	nop := logging.Nop()
	backend := storage.NewMemoryBackend()
	_ = backend.Set("cinevault_watchlist", []byte(`[{"id":1,"title":"A"},{"id":0},{"id":1,"title":"dup"},{"id":2}]`))
	_ = backend.Set("cinevault_watched", []byte(`{not json`))
	s := New(storage.New(backend, &nop))

	got := s.Collection(Watchlist)
	want := []tmdb.Movie{{ID: 1, Title: "A"}, {ID: 2}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("loaded watchlist mismatch (-want +got):\n%s", diff)
	}
	if n := len(s.Collection(Watched)); n != 0 {
		t.Fatalf("corrupt watched loaded %d movies, want 0", n)
	}
}

func TestNew_NilPersisterKeepsMemoryState(t *testing.T) {
	s := New(nil)
	if !s.Toggle(Watchlist, tmdb.Movie{ID: 1}) {
		t.Fatal("Toggle returned false")
	}
	if got := s.Counts().Watchlist; got != 1 {
		t.Fatalf("Counts().Watchlist = %d, want 1", got)
	}
}

func TestSubscribe_ReceivesCountsAndCancels(t *testing.T) {
	s, _ := newBackedStore(t)
	var got []Counts
	cancel := s.Subscribe(func(c Counts) { got = append(got, c) })

	s.Toggle(Watchlist, tmdb.Movie{ID: 1})
	s.Toggle(Favorites, tmdb.Movie{ID: 1})
	cancel()
	cancel()
	s.Toggle(Watched, tmdb.Movie{ID: 1})

	want := []Counts{{Watchlist: 1}, {Watchlist: 1, Favorites: 1}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("notifications mismatch (-want +got):\n%s", diff)
	}
}

func TestSubscribe_CallbackMayReenterStore(t *testing.T) {
	s, _ := newBackedStore(t)
	var seen Counts
	var cancel func()
	cancel = s.Subscribe(func(Counts) {
		seen = s.Counts()
		cancel()
	})
	s.Toggle(Watched, tmdb.Movie{ID: 8})
	s.Toggle(Watched, tmdb.Movie{ID: 9})
	if seen.Watched != 1 {
		t.Fatalf("re-entrant read saw %+v, want Watched=1", seen)
	}
}

func TestToggle_ConcurrentCallsStayConsistent(t *testing.T) {
	s, persist := newBackedStore(t)
	var wg sync.WaitGroup
	for i := 1; i <= 50; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			s.Toggle(Favorites, tmdb.Movie{ID: id})
		}(i)
	}
	wg.Wait()

	if got := s.Counts().Favorites; got != 50 {
		t.Fatalf("Counts().Favorites = %d, want 50", got)
	}
	if diff := cmp.Diff(s.Collection(Favorites), persist.Read("cinevault_favorites")); diff != "" {
		t.Fatalf("persisted diverged (-memory +persisted):\n%s", diff)
	}
}

func TestSubscribe_LastDeliveryMatchesFinalCounts(t *testing.T) {
	s, _ := newBackedStore(t)
	var mu sync.Mutex
	var last Counts
	deliveries := 0
	cancel := s.Subscribe(func(c Counts) {
		mu.Lock()
		defer mu.Unlock()
		last = c
		deliveries++
	})
	defer cancel()

	var wg sync.WaitGroup
	for i := 1; i <= 40; i++ {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			kind := Kinds()[id%len(Kinds())]
			s.Toggle(kind, tmdb.Movie{ID: id})
			if id%4 == 0 {
				s.Toggle(kind, tmdb.Movie{ID: id})
			}
		}(i)
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	if deliveries != 50 {
		t.Fatalf("deliveries = %d, want 50", deliveries)
	}
	if last != s.Counts() {
		t.Fatalf("last delivered %+v, want final %+v", last, s.Counts())
	}
}
