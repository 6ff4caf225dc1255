package tmdb

import (
	"context"
	"fmt"
	"strconv"
	"strings"
)

// TrendingWindow selects the trending time window.
type TrendingWindow string

const (
	TrendingDay  TrendingWindow = "day"
	TrendingWeek TrendingWindow = "week"
)

// Genres fetches the movie genre list.
func Genres(ctx context.Context, f Fetcher) ([]Genre, error) {
	var payload genreList
	if err := getJSON(ctx, f, Request{Path: "/genre/movie/list"}, &payload); err != nil {
		return nil, err
	}
	return payload.Genres, nil
}

// GenreLookup indexes genres by id.
func GenreLookup(genres []Genre) map[int]string {
	lookup := make(map[int]string, len(genres))
	for _, g := range genres {
		lookup[g.ID] = g.Name
	}
	return lookup
}

// Popular fetches a page of popular movies.
func Popular(ctx context.Context, f Fetcher, page int) (Page, error) {
	return fetchPage(ctx, f, "/movie/popular", pageParams(page))
}

// TopRated fetches a page of top-rated movies.
func TopRated(ctx context.Context, f Fetcher, page int) (Page, error) {
	return fetchPage(ctx, f, "/movie/top_rated", pageParams(page))
}

// NowPlaying fetches a page of movies currently in theaters.
func NowPlaying(ctx context.Context, f Fetcher, page int) (Page, error) {
	return fetchPage(ctx, f, "/movie/now_playing", pageParams(page))
}

// Trending fetches a page of trending movies for the given window.
func Trending(ctx context.Context, f Fetcher, window TrendingWindow, page int) (Page, error) {
	if window != TrendingWeek {
		window = TrendingDay
	}
	return fetchPage(ctx, f, "/trending/movie/"+string(window), pageParams(page))
}

// Search runs a text search. Adult titles are always excluded.
func Search(ctx context.Context, f Fetcher, query string, page int) (Page, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return Page{Page: 1}, nil
	}
	params := pageParams(page)
	params["query"] = query
	params["include_adult"] = "false"
	return fetchPage(ctx, f, "/search/movie", params)
}

// MovieDetails fetches the full record for id.
func MovieDetails(ctx context.Context, f Fetcher, id int) (Movie, error) {
	if id <= 0 {
		return Movie{}, fmt.Errorf("movie id required")
	}
	var movie Movie
	if err := getJSON(ctx, f, Request{Path: moviePath(id, "")}, &movie); err != nil {
		return Movie{}, err
	}
	return movie, nil
}

// Videos fetches trailers, teasers, and clips for id.
func Videos(ctx context.Context, f Fetcher, id int) ([]Video, error) {
	if id <= 0 {
		return nil, fmt.Errorf("movie id required")
	}
	var payload videoList
	if err := getJSON(ctx, f, Request{Path: moviePath(id, "/videos")}, &payload); err != nil {
		return nil, err
	}
	return payload.Results, nil
}

// WatchProviders fetches where-to-watch data keyed by region code.
func WatchProviders(ctx context.Context, f Fetcher, id int) (map[string]RegionProviders, error) {
	if id <= 0 {
		return nil, fmt.Errorf("movie id required")
	}
	var payload providerList
	if err := getJSON(ctx, f, Request{Path: moviePath(id, "/watch/providers")}, &payload); err != nil {
		return nil, err
	}
	if payload.Results == nil {
		return map[string]RegionProviders{}, nil
	}
	return payload.Results, nil
}

// MovieCredits fetches cast and crew for id.
func MovieCredits(ctx context.Context, f Fetcher, id int) (Credits, error) {
	if id <= 0 {
		return Credits{}, fmt.Errorf("movie id required")
	}
	var credits Credits
	if err := getJSON(ctx, f, Request{Path: moviePath(id, "/credits")}, &credits); err != nil {
		return Credits{}, err
	}
	return credits, nil
}

// Recommendations fetches a page of titles recommended for id.
func Recommendations(ctx context.Context, f Fetcher, id, page int) (Page, error) {
	if id <= 0 {
		return Page{}, fmt.Errorf("movie id required")
	}
	return fetchPage(ctx, f, moviePath(id, "/recommendations"), pageParams(page))
}

// Similar fetches a page of titles similar to id.
func Similar(ctx context.Context, f Fetcher, id, page int) (Page, error) {
	if id <= 0 {
		return Page{}, fmt.Errorf("movie id required")
	}
	return fetchPage(ctx, f, moviePath(id, "/similar"), pageParams(page))
}

// FetchCollection fetches the collection (franchise) with the given id.
func FetchCollection(ctx context.Context, f Fetcher, id int) (Collection, error) {
	if id <= 0 {
		return Collection{}, fmt.Errorf("collection id required")
	}
	var collection Collection
	if err := getJSON(ctx, f, Request{Path: "/collection/" + strconv.Itoa(id)}, &collection); err != nil {
		return Collection{}, err
	}
	collection.Parts = validMovies(collection.Parts)
	return collection, nil
}

func fetchPage(ctx context.Context, f Fetcher, path string, params map[string]string) (Page, error) {
	var page Page
	if err := getJSON(ctx, f, Request{Path: path, Params: params}, &page); err != nil {
		return Page{}, err
	}
	page.Results = validMovies(page.Results)
	if page.Page < 1 {
		page.Page = 1
	}
	return page, nil
}

// validMovies drops records without a usable id. This is the only place
// catalog records are validated.
func validMovies(movies []Movie) []Movie {
	out := movies[:0]
	for _, m := range movies {
		if m.Valid() {
			out = append(out, m)
		}
	}
	return out
}

func pageParams(page int) map[string]string {
	if page < 1 {
		page = 1
	}
	return map[string]string{"page": strconv.Itoa(page)}
}

func moviePath(id int, suffix string) string {
	return "/movie/" + strconv.Itoa(id) + suffix
}
