package tmdb

import (
	"context"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"
)

// DefaultRegionOrder is the provider region preference used when none is configured.
var DefaultRegionOrder = []string{"IN", "US", "GB", "CA", "AU"}

// Image sizes used by the UI.
const (
	PosterSize   = "w500"
	BackdropSize = "w1280"
	ThumbSize    = "w342"

	DefaultImageHost = "https://image.tmdb.org"
)

// Detail aggregates everything the detail overlay shows for one movie.
type Detail struct {
	Movie     Movie
	Videos    []Video
	Providers map[string]RegionProviders
	Credits   Credits
}

// FetchDetail loads details, videos, providers, and credits concurrently.
// The first failure cancels the remaining requests.
func FetchDetail(ctx context.Context, f Fetcher, id int) (Detail, error) {
	var detail Detail
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		movie, err := MovieDetails(gctx, f, id)
		detail.Movie = movie
		return err
	})
	g.Go(func() error {
		videos, err := Videos(gctx, f, id)
		detail.Videos = videos
		return err
	})
	g.Go(func() error {
		providers, err := WatchProviders(gctx, f, id)
		detail.Providers = providers
		return err
	})
	g.Go(func() error {
		credits, err := MovieCredits(gctx, f, id)
		detail.Credits = credits
		return err
	})
	if err := g.Wait(); err != nil {
		if ctx.Err() != nil {
			return Detail{}, &Error{Kind: KindCancelled, Err: ctx.Err()}
		}
		return Detail{}, err
	}
	return detail, nil
}

// Related holds titles linked to one movie: catalog recommendations (or
// similar titles when there are none) and the other parts of its collection.
type Related struct {
	Titles     []Movie
	Collection Collection
}

// Empty reports whether nothing related was found.
func (r Related) Empty() bool {
	return len(r.Titles) == 0 && len(r.Collection.Parts) == 0
}

// FetchRelated loads recommendations and, when movie belongs to a
// collection, the collection parts. Similar titles are used when the catalog
// has no recommendations. The movie itself is never listed.
func FetchRelated(ctx context.Context, f Fetcher, movie Movie) (Related, error) {
	var related Related
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		page, err := Recommendations(gctx, f, movie.ID, 1)
		if err != nil {
			return err
		}
		if len(page.Results) == 0 {
			if page, err = Similar(gctx, f, movie.ID, 1); err != nil {
				return err
			}
		}
		related.Titles = withoutID(page.Results, movie.ID)
		return nil
	})
	if ref := movie.BelongsToCollection; ref != nil && ref.ID > 0 {
		g.Go(func() error {
			collection, err := FetchCollection(gctx, f, ref.ID)
			if err != nil {
				return err
			}
			collection.Parts = withoutID(collection.Parts, movie.ID)
			related.Collection = collection
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		if ctx.Err() != nil {
			return Related{}, &Error{Kind: KindCancelled, Err: ctx.Err()}
		}
		return Related{}, err
	}
	return related, nil
}

func withoutID(movies []Movie, id int) []Movie {
	out := make([]Movie, 0, len(movies))
	for _, m := range movies {
		if m.ID != id {
			out = append(out, m)
		}
	}
	return out
}

// Trailer returns the preferred trailer for the detail.
func (d Detail) Trailer() (Video, bool) {
	return PickTrailer(d.Videos)
}

// PickTrailer prefers a YouTube trailer and falls back to any YouTube video.
func PickTrailer(videos []Video) (Video, bool) {
	for _, v := range videos {
		if v.Site == "YouTube" && v.Type == "Trailer" && v.Key != "" {
			return v, true
		}
	}
	for _, v := range videos {
		if v.Site == "YouTube" && v.Key != "" {
			return v, true
		}
	}
	return Video{}, false
}

// PickRegion chooses the provider region by preference, falling back to the
// alphabetically first region present.
func PickRegion(providers map[string]RegionProviders, preference []string) (string, RegionProviders, bool) {
	if len(providers) == 0 {
		return "", RegionProviders{}, false
	}
	if len(preference) == 0 {
		preference = DefaultRegionOrder
	}
	for _, region := range preference {
		region = strings.ToUpper(strings.TrimSpace(region))
		if data, ok := providers[region]; ok {
			return region, data, true
		}
	}
	regions := make([]string, 0, len(providers))
	for region := range providers {
		regions = append(regions, region)
	}
	sort.Strings(regions)
	return regions[0], providers[regions[0]], true
}

// ImageURL builds an image URL for path at size. It returns "" when path is empty.
func ImageURL(host, size, path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return ""
	}
	host = strings.TrimRight(strings.TrimSpace(host), "/")
	if host == "" {
		host = DefaultImageHost
	}
	if size == "" {
		size = PosterSize
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return host + "/t/p/" + size + path
}
