package ui

import (
	"strings"

	"github.com/five82/cinevault/internal/lists"
)

// View represents the current active view.
type View int

const (
	ViewPopular View = iota
	ViewTrending
	ViewNowPlaying
	ViewTopRated
	ViewSearch
	ViewWatchlist
	ViewWatched
	ViewFavorites
	ViewLogs
)

var viewOrder = []View{
	ViewPopular,
	ViewTrending,
	ViewNowPlaying,
	ViewTopRated,
	ViewSearch,
	ViewWatchlist,
	ViewWatched,
	ViewFavorites,
	ViewLogs,
}

// Views returns every view in tab order.
func Views() []View {
	return append([]View(nil), viewOrder...)
}

// String returns the name used in preferences.
func (v View) String() string {
	switch v {
	case ViewPopular:
		return "popular"
	case ViewTrending:
		return "trending"
	case ViewNowPlaying:
		return "now_playing"
	case ViewTopRated:
		return "top_rated"
	case ViewSearch:
		return "search"
	case ViewWatchlist:
		return "watchlist"
	case ViewWatched:
		return "watched"
	case ViewFavorites:
		return "favorites"
	case ViewLogs:
		return "logs"
	default:
		return "unknown"
	}
}

// Title returns the label shown in the header.
func (v View) Title() string {
	switch v {
	case ViewPopular:
		return "Popular"
	case ViewTrending:
		return "Trending"
	case ViewNowPlaying:
		return "Now Playing"
	case ViewTopRated:
		return "Top Rated"
	case ViewSearch:
		return "Search"
	case ViewLogs:
		return "Logs"
	}
	if kind, ok := v.ListKind(); ok {
		return kind.Label()
	}
	return "Unknown"
}

// ListKind reports the saved list backing v, if any.
func (v View) ListKind() (lists.Kind, bool) {
	switch v {
	case ViewWatchlist:
		return lists.Watchlist, true
	case ViewWatched:
		return lists.Watched, true
	case ViewFavorites:
		return lists.Favorites, true
	default:
		return 0, false
	}
}

// Remote reports whether v is filled from the catalog.
func (v View) Remote() bool {
	switch v {
	case ViewPopular, ViewTrending, ViewNowPlaying, ViewTopRated, ViewSearch:
		return true
	default:
		return false
	}
}

// ParseView maps a preference value to a view. Unknown names fall back to
// Popular with ok=false.
func ParseView(raw string) (View, bool) {
	name := strings.ToLower(strings.TrimSpace(raw))
	name = strings.ReplaceAll(name, "-", "_")
	name = strings.ReplaceAll(name, " ", "_")
	switch name {
	case "", "popular", "discover":
		return ViewPopular, name != ""
	}
	for _, v := range viewOrder {
		if v.String() == name {
			return v, true
		}
	}
	if kind, ok := lists.ParseKind(name); ok {
		return viewForKind(kind), true
	}
	return ViewPopular, false
}

func viewForKind(kind lists.Kind) View {
	switch kind {
	case lists.Watched:
		return ViewWatched
	case lists.Favorites:
		return ViewFavorites
	default:
		return ViewWatchlist
	}
}

func nextView(v View, step int) View {
	n := len(viewOrder)
	for i, candidate := range viewOrder {
		if candidate == v {
			return viewOrder[((i+step)%n+n)%n]
		}
	}
	return viewOrder[0]
}
