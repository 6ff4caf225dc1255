package tmdb

import (
	"strings"
	"time"

	json "github.com/goccy/go-json"
)

const releaseDateLayout = "2006-01-02"

// Movie is a catalog record. Only ID is required; every other field is
// optional and may be missing on list stubs.
type Movie struct {
	ID                  int              `json:"id"`
	Title               string           `json:"title,omitempty"`
	OriginalTitle       string           `json:"original_title,omitempty"`
	Overview            string           `json:"overview,omitempty"`
	PosterPath          string           `json:"poster_path,omitempty"`
	BackdropPath        string           `json:"backdrop_path,omitempty"`
	ReleaseDate         string           `json:"release_date,omitempty"`
	VoteAverage         float64          `json:"vote_average,omitempty"`
	VoteCount           int              `json:"vote_count,omitempty"`
	Popularity          float64          `json:"popularity,omitempty"`
	OriginalLanguage    string           `json:"original_language,omitempty"`
	GenreIDs            []int            `json:"genre_ids,omitempty"`
	Genres              []Genre          `json:"genres,omitempty"`
	Runtime             int              `json:"runtime,omitempty"`
	Budget              int64            `json:"budget,omitempty"`
	Revenue             int64            `json:"revenue,omitempty"`
	Homepage            string           `json:"homepage,omitempty"`
	IMDbID              string           `json:"imdb_id,omitempty"`
	Tagline             string           `json:"tagline,omitempty"`
	Status              string           `json:"status,omitempty"`
	BelongsToCollection *CollectionRef   `json:"belongs_to_collection,omitempty"`
	SpokenLanguages     []SpokenLanguage `json:"spoken_languages,omitempty"`

	// Extra holds members of the source document that the fields above do
	// not reproduce: keys Movie does not model and explicit zero values such
	// as "vote_average": 0. They are written back on marshal.
	Extra map[string]json.RawMessage `json:"-"`
}

// movieFields is Movie without its JSON methods.
type movieFields Movie

// UnmarshalJSON decodes the modeled fields and keeps everything else in Extra.
func (m *Movie) UnmarshalJSON(data []byte) error {
	var fields movieFields
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	emitted, err := json.Marshal(fields)
	if err != nil {
		return err
	}
	var known map[string]json.RawMessage
	if err := json.Unmarshal(emitted, &known); err != nil {
		return err
	}
	for k := range known {
		delete(raw, k)
	}
	fields.Extra = nil
	if len(raw) > 0 {
		fields.Extra = raw
	}
	*m = Movie(fields)
	return nil
}

// MarshalJSON writes the modeled fields, then any Extra key they did not set.
func (m Movie) MarshalJSON() ([]byte, error) {
	data, err := json.Marshal(movieFields(m))
	if err != nil || len(m.Extra) == 0 {
		return data, err
	}
	var merged map[string]json.RawMessage
	if err := json.Unmarshal(data, &merged); err != nil {
		return nil, err
	}
	for k, v := range m.Extra {
		if _, ok := merged[k]; !ok {
			merged[k] = v
		}
	}
	return json.Marshal(merged)
}

// Valid reports whether the record carries a usable identity.
func (m Movie) Valid() bool {
	return m.ID > 0
}

// Clone returns a deep copy of m.
func (m Movie) Clone() Movie {
	out := m
	if m.GenreIDs != nil {
		out.GenreIDs = append([]int(nil), m.GenreIDs...)
	}
	if m.Genres != nil {
		out.Genres = append([]Genre(nil), m.Genres...)
	}
	if m.SpokenLanguages != nil {
		out.SpokenLanguages = append([]SpokenLanguage(nil), m.SpokenLanguages...)
	}
	if m.BelongsToCollection != nil {
		ref := *m.BelongsToCollection
		out.BelongsToCollection = &ref
	}
	if m.Extra != nil {
		out.Extra = make(map[string]json.RawMessage, len(m.Extra))
		for k, v := range m.Extra {
			out.Extra[k] = append(json.RawMessage(nil), v...)
		}
	}
	return out
}

// Year returns the release year, or "" when the date is missing.
func (m Movie) Year() string {
	date := strings.TrimSpace(m.ReleaseDate)
	if len(date) < 4 {
		return ""
	}
	return date[:4]
}

// ParsedReleaseDate returns the release date as time.Time when possible.
func (m Movie) ParsedReleaseDate() time.Time {
	t, err := time.Parse(releaseDateLayout, strings.TrimSpace(m.ReleaseDate))
	if err != nil {
		return time.Time{}
	}
	return t
}

// Rating returns the vote average rounded to one decimal, or 0 when unrated.
func (m Movie) Rating() float64 {
	if m.VoteAverage <= 0 {
		return 0
	}
	return float64(int(m.VoteAverage*10+0.5)) / 10
}

// GenreNames resolves genre names from embedded genres, falling back to the
// lookup table for list stubs that only carry genre ids.
func (m Movie) GenreNames(lookup map[int]string) []string {
	if len(m.Genres) > 0 {
		names := make([]string, 0, len(m.Genres))
		for _, g := range m.Genres {
			if g.Name != "" {
				names = append(names, g.Name)
			}
		}
		return names
	}
	var names []string
	for _, id := range m.GenreIDs {
		if name := lookup[id]; name != "" {
			names = append(names, name)
		}
	}
	return names
}

// Genre mirrors a catalog genre.
type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// CollectionRef is the short collection reference embedded in movie details.
type CollectionRef struct {
	ID           int    `json:"id"`
	Name         string `json:"name,omitempty"`
	PosterPath   string `json:"poster_path,omitempty"`
	BackdropPath string `json:"backdrop_path,omitempty"`
}

// SpokenLanguage mirrors the spoken_languages entries.
type SpokenLanguage struct {
	ISO6391     string `json:"iso_639_1"`
	Name        string `json:"name,omitempty"`
	EnglishName string `json:"english_name,omitempty"`
}

// Page is a paged listing response. Pages are 1-based.
type Page struct {
	Page         int     `json:"page"`
	Results      []Movie `json:"results"`
	TotalPages   int     `json:"total_pages"`
	TotalResults int     `json:"total_results"`
}

// HasNext reports whether another page is available.
func (p Page) HasNext() bool {
	return p.Page < p.TotalPages
}

// Video mirrors an entry of /movie/{id}/videos.
type Video struct {
	ID       string `json:"id"`
	Key      string `json:"key"`
	Name     string `json:"name"`
	Site     string `json:"site"`
	Type     string `json:"type"`
	Official bool   `json:"official"`
}

// WatchURL returns a browser URL for YouTube videos, or "" otherwise.
func (v Video) WatchURL() string {
	if v.Site != "YouTube" || strings.TrimSpace(v.Key) == "" {
		return ""
	}
	return "https://www.youtube.com/watch?v=" + v.Key
}

// Provider is a single streaming/rental service.
type Provider struct {
	ID       int    `json:"provider_id"`
	Name     string `json:"provider_name"`
	LogoPath string `json:"logo_path,omitempty"`
	Priority int    `json:"display_priority"`
}

// RegionProviders groups providers for one region.
type RegionProviders struct {
	Link     string     `json:"link"`
	Flatrate []Provider `json:"flatrate,omitempty"`
	Rent     []Provider `json:"rent,omitempty"`
	Buy      []Provider `json:"buy,omitempty"`
}

// Empty reports whether the region lists no providers at all.
func (r RegionProviders) Empty() bool {
	return len(r.Flatrate) == 0 && len(r.Rent) == 0 && len(r.Buy) == 0
}

// CastMember mirrors a credits cast entry.
type CastMember struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Character string `json:"character"`
	Order     int    `json:"order"`
}

// CrewMember mirrors a credits crew entry.
type CrewMember struct {
	ID         int    `json:"id"`
	Name       string `json:"name"`
	Job        string `json:"job"`
	Department string `json:"department"`
}

// Credits mirrors /movie/{id}/credits.
type Credits struct {
	ID   int          `json:"id"`
	Cast []CastMember `json:"cast"`
	Crew []CrewMember `json:"crew"`
}

// Directors returns the names of crew members with the Director job.
func (c Credits) Directors() []string {
	var names []string
	for _, member := range c.Crew {
		if member.Job == "Director" {
			names = append(names, member.Name)
		}
	}
	return names
}

// Collection mirrors /collection/{id}.
type Collection struct {
	ID       int     `json:"id"`
	Name     string  `json:"name"`
	Overview string  `json:"overview"`
	Parts    []Movie `json:"parts"`
}

type genreList struct {
	Genres []Genre `json:"genres"`
}

type videoList struct {
	Results []Video `json:"results"`
}

type providerList struct {
	Results map[string]RegionProviders `json:"results"`
}
