package tmdb

import (
	"context"
	"errors"
	"math/rand"
	"strconv"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestDiscoverQuery_Params(t *testing.T) {
	q := DiscoverQuery{
		Page:          3,
		GenreID:       28,
		YearFrom:      1990,
		YearTo:        2000,
		Language:      "JA",
		ProviderID:    8,
		MinVote:       7.5,
		MinVoteCount:  100,
		ExcludeGenres: []int{16, 10751},
	}
	want := map[string]string{
		"page":                     "3",
		"sort_by":                  DefaultSort,
		"include_adult":            "false",
		"with_genres":              "28",
		"without_genres":           "16,10751",
		"primary_release_date.gte": "1990-01-01",
		"primary_release_date.lte": "2000-12-31",
		"with_original_language":   "ja",
		"with_watch_providers":     "8",
		"watch_region":             "US",
		"vote_average.gte":         "7.5",
		"vote_count.gte":           "100",
	}
	if diff := cmp.Diff(want, q.Params()); diff != "" {
		t.Fatalf("Params mismatch (-want +got):\n%s", diff)
	}
}

func TestDiscoverQuery_MinimalParams(t *testing.T) {
	want := map[string]string{"page": "1", "sort_by": DefaultSort, "include_adult": "false"}
	if diff := cmp.Diff(want, DiscoverQuery{}.Params()); diff != "" {
		t.Fatalf("Params mismatch (-want +got):\n%s", diff)
	}
}

func TestEraRange(t *testing.T) {
	now := time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		era      Era
		from, to int
	}{
		{EraAny, 0, 0},
		{EraClassic, 1950, 1980},
		{EraNineties, 1990, 2000},
		{EraRecent, 2020, 2026},
	}
	for _, tt := range tests {
		from, to := tt.era.Range(now)
		if from != tt.from || to != tt.to {
			t.Fatalf("%q.Range = (%d, %d), want (%d, %d)", tt.era, from, to, tt.from, tt.to)
		}
	}
	if len(Eras()) != 7 || Eras()[0] != EraAny {
		t.Fatalf("Eras = %v, want 7 entries starting with any", Eras())
	}
}

func presentableJSON(id int) string {
	return `{"id":` + strconv.Itoa(id) + `,"title":"Film ` + strconv.Itoa(id) +
		`","poster_path":"/p.jpg","overview":"A long enough overview.","vote_count":50,"release_date":"1995-01-01"}`
}

func TestLuckyPick_ChoosesPresentable(t *testing.T) {
	body := `{"page":1,"total_pages":1,"results":[` +
		`{"id":1,"title":"No Poster","overview":"A long enough overview.","vote_count":50,"release_date":"1995-01-01"},` +
		presentableJSON(2) + `]}`
	f := newFakeFetcher(map[string]string{"/discover/movie": body})
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	m, err := LuckyPick(context.Background(), f, LuckyQuery{GenreID: 35, Era: EraNineties, MinRating: 6, Pages: 1}, rand.New(rand.NewSource(1)), now)
	if err != nil {
		t.Fatalf("LuckyPick error: %v", err)
	}
	if m.ID != 2 {
		t.Fatalf("picked id %d, want 2", m.ID)
	}

	reqs := f.recorded()
	if len(reqs) != 1 {
		t.Fatalf("requests = %d, want 1", len(reqs))
	}
	params := reqs[0].Params
	if params["with_genres"] != "35" || params["primary_release_date.gte"] != "1990-01-01" || params["vote_average.gte"] != "6" {
		t.Fatalf("unexpected params: %v", params)
	}
}

func TestLuckyPick_RetriesFirstPageWhenOvershooting(t *testing.T) {
	body := `{"page":1,"total_pages":1,"results":[` + presentableJSON(9) + `]}`
	f := newFakeFetcher(map[string]string{"/discover/movie": body})

	// With 50 pages the draw almost certainly lands past total_pages=1.
	rng := rand.New(rand.NewSource(42))
	m, err := LuckyPick(context.Background(), f, LuckyQuery{Pages: 50}, rng, time.Now())
	if err != nil {
		t.Fatalf("LuckyPick error: %v", err)
	}
	if m.ID != 9 {
		t.Fatalf("picked id %d, want 9", m.ID)
	}
	reqs := f.recorded()
	if first := reqs[0].Params["page"]; first != "1" {
		if len(reqs) != 2 || reqs[1].Params["page"] != "1" {
			t.Fatalf("requests = %+v, want retry on page 1", reqs)
		}
	}
}

func TestLuckyPick_NoMatch(t *testing.T) {
	f := newFakeFetcher(map[string]string{"/discover/movie": `{"page":1,"total_pages":1,"results":[{"id":3}]}`})
	_, err := LuckyPick(context.Background(), f, LuckyQuery{Pages: 1}, rand.New(rand.NewSource(7)), time.Now())
	if !errors.Is(err, ErrNoMatch) {
		t.Fatalf("err = %v, want ErrNoMatch", err)
	}
}

func TestLuckyPick_PropagatesCancellation(t *testing.T) {
	f := newFakeFetcher(nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := LuckyPick(ctx, f, LuckyQuery{}, nil, time.Now())
	if !IsCancelled(err) {
		t.Fatalf("err = %v, want cancelled", err)
	}
}

func TestPresentable(t *testing.T) {
	good := Movie{ID: 1, Title: "T", PosterPath: "/p", Overview: "long enough text", VoteCount: 10, ReleaseDate: "2001-01-01"}
	if !Presentable(good) {
		t.Fatal("expected presentable")
	}
	short := good
	short.Overview = "short"
	if Presentable(short) {
		t.Fatal("short overview should not be presentable")
	}
	unvoted := good
	unvoted.VoteCount = 3
	if Presentable(unvoted) {
		t.Fatal("low vote count should not be presentable")
	}
}
