package lists

import "strings"

// Kind names one of the user's collections.
type Kind int

const (
	Watchlist Kind = iota + 1
	Watched
	Favorites
)

const storageKeyPrefix = "cinevault_"

// Kinds returns every collection kind in display order.
func Kinds() []Kind {
	return []Kind{Watchlist, Watched, Favorites}
}

// Valid reports whether k is a known kind.
func (k Kind) Valid() bool {
	return k >= Watchlist && k <= Favorites
}

func (k Kind) String() string {
	switch k {
	case Watchlist:
		return "watchlist"
	case Watched:
		return "watched"
	case Favorites:
		return "favorites"
	default:
		return "unknown"
	}
}

// Label is the user-facing name.
func (k Kind) Label() string {
	switch k {
	case Watchlist:
		return "Watch Later"
	case Watched:
		return "Watched"
	case Favorites:
		return "Favorites"
	default:
		return ""
	}
}

// StorageKey is the persisted record key for k.
func (k Kind) StorageKey() string {
	if !k.Valid() {
		return ""
	}
	return storageKeyPrefix + k.String()
}

// ParseKind accepts a kind name or its storage key, case-insensitively.
func ParseKind(raw string) (Kind, bool) {
	name := strings.ToLower(strings.TrimSpace(raw))
	name = strings.TrimPrefix(name, storageKeyPrefix)
	switch name {
	case "watchlist", "watch-later", "watch_later":
		return Watchlist, true
	case "watched":
		return Watched, true
	case "favorites", "favourites":
		return Favorites, true
	default:
		return 0, false
	}
}

// Counts holds the size of each collection.
type Counts struct {
	Watchlist int
	Watched   int
	Favorites int
}

// Of returns the count for k.
func (c Counts) Of(k Kind) int {
	switch k {
	case Watchlist:
		return c.Watchlist
	case Watched:
		return c.Watched
	case Favorites:
		return c.Favorites
	default:
		return 0
	}
}
