package tmdb

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func detailFetcher() *fakeFetcher {
	return newFakeFetcher(map[string]string{
		"/movie/550":                 `{"id":550,"title":"Fight Club","runtime":139,"genres":[{"id":18,"name":"Drama"}]}`,
		"/movie/550/videos":          `{"results":[{"key":"clip1","site":"YouTube","type":"Clip"},{"key":"trailer1","site":"YouTube","type":"Trailer"}]}`,
		"/movie/550/watch/providers": `{"results":{"US":{"link":"https://example.test/us","flatrate":[{"provider_id":8,"provider_name":"Netflix"}]}}}`,
		"/movie/550/credits":         `{"id":550,"cast":[{"id":819,"name":"Edward Norton","character":"The Narrator"}],"crew":[{"id":7467,"name":"David Fincher","job":"Director"}]}`,
	})
}

func TestFetchDetail_LoadsEverything(t *testing.T) {
	f := detailFetcher()
	d, err := FetchDetail(context.Background(), f, 550)
	require.NoError(t, err)

	assert.Equal(t, "Fight Club", d.Movie.Title)
	assert.Equal(t, []string{"Drama"}, d.Movie.GenreNames(nil))
	assert.Len(t, d.Videos, 2)
	assert.Contains(t, d.Providers, "US")
	assert.Equal(t, []string{"David Fincher"}, d.Credits.Directors())
	assert.Len(t, f.recorded(), 4)

	trailer, ok := d.Trailer()
	require.True(t, ok)
	assert.Equal(t, "trailer1", trailer.Key)
	assert.Equal(t, "https://www.youtube.com/watch?v=trailer1", trailer.WatchURL())
}

func TestFetchDetail_FailureSurfaces(t *testing.T) {
	f := detailFetcher()
	f.errs["/movie/550/credits"] = &Error{Kind: KindHTTP, StatusCode: http.StatusServiceUnavailable}

	_, err := FetchDetail(context.Background(), f, 550)
	require.Error(t, err)
	assert.Equal(t, http.StatusServiceUnavailable, StatusCode(err))
}

func TestFetchDetail_CancelledParent(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := FetchDetail(ctx, detailFetcher(), 550)
	require.Error(t, err)
	assert.True(t, IsCancelled(err))
}

func TestPickTrailer(t *testing.T) {
	tests := []struct {
		name    string
		videos  []Video
		wantKey string
		wantOK  bool
	}{
		{"none", nil, "", false},
		{"non youtube only", []Video{{Key: "v1", Site: "Vimeo", Type: "Trailer"}}, "", false},
		{"fallback to any youtube", []Video{{Key: "t1", Site: "YouTube", Type: "Teaser"}}, "t1", true},
		{"trailer preferred", []Video{{Key: "t1", Site: "YouTube", Type: "Teaser"}, {Key: "t2", Site: "YouTube", Type: "Trailer"}}, "t2", true},
		{"empty key skipped", []Video{{Site: "YouTube", Type: "Trailer"}, {Key: "c", Site: "YouTube", Type: "Clip"}}, "c", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, ok := PickTrailer(tt.videos)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.wantKey, v.Key)
		})
	}
}

func TestPickRegion(t *testing.T) {
	providers := map[string]RegionProviders{
		"DE": {Link: "de"},
		"GB": {Link: "gb"},
		"BR": {Link: "br"},
	}

	region, data, ok := PickRegion(providers, nil)
	require.True(t, ok)
	assert.Equal(t, "GB", region)
	assert.Equal(t, "gb", data.Link)

	region, _, ok = PickRegion(providers, []string{" de "})
	require.True(t, ok)
	assert.Equal(t, "DE", region)

	region, _, ok = PickRegion(map[string]RegionProviders{"FR": {}, "BR": {}}, []string{"US"})
	require.True(t, ok)
	assert.Equal(t, "BR", region)

	_, _, ok = PickRegion(nil, nil)
	assert.False(t, ok)
}

func TestImageURL(t *testing.T) {
	assert.Equal(t, "", ImageURL("", PosterSize, ""))
	assert.Equal(t, "https://image.tmdb.org/t/p/w500/abc.jpg", ImageURL("", "", "/abc.jpg"))
	assert.Equal(t, "https://img.example.net/t/p/w342/abc.jpg", ImageURL("https://img.example.net/", ThumbSize, "abc.jpg"))
}

func TestFetchRelated_PrefersRecommendations(t *testing.T) {
	f := newFakeFetcher(map[string]string{
		"/movie/11/recommendations": `{"page":1,"results":[{"id":1891,"title":"The Empire Strikes Back"},{"id":11},{"id":0}],"total_pages":1}`,
		"/collection/10":            `{"id":10,"name":"Star Wars Collection","parts":[{"id":11},{"id":1891},{"id":1892,"title":"Return of the Jedi"}]}`,
	})
	movie := Movie{ID: 11, BelongsToCollection: &CollectionRef{ID: 10}}

	related, err := FetchRelated(context.Background(), f, movie)
	require.NoError(t, err)
	require.Len(t, related.Titles, 1)
	assert.Equal(t, 1891, related.Titles[0].ID)
	assert.Equal(t, "Star Wars Collection", related.Collection.Name)
	assert.Len(t, related.Collection.Parts, 2)
	assert.False(t, related.Empty())

	for _, req := range f.recorded() {
		assert.NotEqual(t, "/movie/11/similar", req.Path)
	}
}

func TestFetchRelated_FallsBackToSimilar(t *testing.T) {
	f := newFakeFetcher(map[string]string{
		"/movie/550/recommendations": `{"page":1,"results":[],"total_pages":0}`,
		"/movie/550/similar":         `{"page":1,"results":[{"id":807,"title":"Se7en"}],"total_pages":1}`,
	})

	related, err := FetchRelated(context.Background(), f, Movie{ID: 550})
	require.NoError(t, err)
	require.Len(t, related.Titles, 1)
	assert.Equal(t, "Se7en", related.Titles[0].Title)
	assert.Empty(t, related.Collection.Parts)
	assert.Len(t, f.recorded(), 2)
}

func TestFetchRelated_FailureAndCancellation(t *testing.T) {
	f := newFakeFetcher(map[string]string{})
	_, err := FetchRelated(context.Background(), f, Movie{ID: 550})
	require.Error(t, err)
	assert.Equal(t, http.StatusNotFound, StatusCode(err))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = FetchRelated(ctx, f, Movie{ID: 550})
	require.Error(t, err)
	assert.True(t, IsCancelled(err))
}
