package tmdb

import (
	"context"
	"errors"
	"math/rand"
	"strconv"
	"strings"
	"time"
)

// DefaultSort is the discover sort key used when none is given.
const DefaultSort = "popularity.desc"

// DiscoverQuery carries the discover filters. Zero values are omitted.
type DiscoverQuery struct {
	Page          int
	SortBy        string
	GenreID       int
	Year          int // exact primary release year
	YearFrom      int // inclusive range start
	YearTo        int // inclusive range end
	Language      string
	ProviderID    int
	WatchRegion   string
	MinVote       float64
	MinVoteCount  int
	IncludeAdult  bool
	ExcludeGenres []int
}

// Params renders the query as catalog parameters.
func (q DiscoverQuery) Params() map[string]string {
	params := pageParams(q.Page)
	sortBy := strings.TrimSpace(q.SortBy)
	if sortBy == "" {
		sortBy = DefaultSort
	}
	params["sort_by"] = sortBy
	params["include_adult"] = strconv.FormatBool(q.IncludeAdult)
	if q.GenreID > 0 {
		params["with_genres"] = strconv.Itoa(q.GenreID)
	}
	if len(q.ExcludeGenres) > 0 {
		ids := make([]string, 0, len(q.ExcludeGenres))
		for _, id := range q.ExcludeGenres {
			ids = append(ids, strconv.Itoa(id))
		}
		params["without_genres"] = strings.Join(ids, ",")
	}
	if q.Year > 0 {
		params["primary_release_year"] = strconv.Itoa(q.Year)
	}
	if q.YearFrom > 0 {
		params["primary_release_date.gte"] = strconv.Itoa(q.YearFrom) + "-01-01"
	}
	if q.YearTo > 0 {
		params["primary_release_date.lte"] = strconv.Itoa(q.YearTo) + "-12-31"
	}
	if lang := strings.TrimSpace(q.Language); lang != "" {
		params["with_original_language"] = strings.ToLower(lang)
	}
	if q.ProviderID > 0 {
		params["with_watch_providers"] = strconv.Itoa(q.ProviderID)
		region := strings.ToUpper(strings.TrimSpace(q.WatchRegion))
		if region == "" {
			region = "US"
		}
		params["watch_region"] = region
	}
	if q.MinVote > 0 {
		params["vote_average.gte"] = strconv.FormatFloat(q.MinVote, 'f', -1, 64)
	}
	if q.MinVoteCount > 0 {
		params["vote_count.gte"] = strconv.Itoa(q.MinVoteCount)
	}
	return params
}

// Discover runs a filtered discovery query.
func Discover(ctx context.Context, f Fetcher, q DiscoverQuery) (Page, error) {
	return fetchPage(ctx, f, "/discover/movie", q.Params())
}

// Era is a named release-year range.
type Era string

const (
	EraAny       Era = ""
	EraClassic   Era = "classic"  // 1950 to 1980
	EraEighties  Era = "eighties" // 1980 to 1990
	EraNineties  Era = "nineties" // 1990 to 2000
	EraTwoThous  Era = "2000s"    // 2000 to 2010
	EraTwentyTen Era = "2010s"    // 2010 to 2020
	EraRecent    Era = "recent"   // 2020 to the current year
)

// Eras lists the selectable eras in display order.
func Eras() []Era {
	return []Era{EraAny, EraClassic, EraEighties, EraNineties, EraTwoThous, EraTwentyTen, EraRecent}
}

// Range returns the inclusive year range of the era relative to now.
func (e Era) Range(now time.Time) (from, to int) {
	switch e {
	case EraClassic:
		return 1950, 1980
	case EraEighties:
		return 1980, 1990
	case EraNineties:
		return 1990, 2000
	case EraTwoThous:
		return 2000, 2010
	case EraTwentyTen:
		return 2010, 2020
	case EraRecent:
		return 2020, now.Year()
	default:
		return 0, 0
	}
}

// ErrNoMatch is returned by LuckyPick when no presentable movie matched.
var ErrNoMatch = errors.New("no movie matched the filters")

// LuckyQuery configures a random pick.
type LuckyQuery struct {
	GenreID   int
	Language  string
	Era       Era
	MinRating float64
	// Pages bounds the random page drawn from the discover results.
	Pages int
}

// LuckyPick draws one presentable movie at random from a discover query.
func LuckyPick(ctx context.Context, f Fetcher, q LuckyQuery, rng *rand.Rand, now time.Time) (Movie, error) {
	if rng == nil {
		rng = rand.New(rand.NewSource(now.UnixNano()))
	}
	pages := q.Pages
	if pages <= 0 {
		pages = 5
	}
	from, to := q.Era.Range(now)
	dq := DiscoverQuery{
		Page:         1 + rng.Intn(pages),
		SortBy:       DefaultSort,
		GenreID:      q.GenreID,
		YearFrom:     from,
		YearTo:       to,
		Language:     q.Language,
		MinVote:      q.MinRating,
		MinVoteCount: 10,
	}
	page, err := Discover(ctx, f, dq)
	if err != nil {
		return Movie{}, err
	}
	if page.TotalPages > 0 && dq.Page > page.TotalPages {
		// The random page overshot a small result set; retry on page 1.
		dq.Page = 1
		if page, err = Discover(ctx, f, dq); err != nil {
			return Movie{}, err
		}
	}

	var candidates []Movie
	for _, m := range page.Results {
		if Presentable(m) {
			candidates = append(candidates, m)
		}
	}
	if len(candidates) == 0 {
		return Movie{}, ErrNoMatch
	}
	return candidates[rng.Intn(len(candidates))], nil
}

// Presentable reports whether m carries enough data to be suggested.
func Presentable(m Movie) bool {
	return m.Valid() &&
		strings.TrimSpace(m.Title) != "" &&
		m.PosterPath != "" &&
		len(strings.TrimSpace(m.Overview)) > 10 &&
		m.VoteCount >= 10 &&
		m.ReleaseDate != ""
}
