package artwork

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/jfmyers9/mpdrpc/internal/mpd"
	"github.com/jfmyers9/mpdrpc/pkg/musicbrainz"
)

type fakeClient struct {
	release    *musicbrainz.Release
	releaseErr error
	groups     []musicbrainz.ReleaseGroup
	searchErr  error

	releaseCalls int
	searchCalls  int
	lastID       string
	lastArtist   string
	lastAlbum    string
}

func (f *fakeClient) Release(_ context.Context, id string) (*musicbrainz.Release, error) {
	f.releaseCalls++
	f.lastID = id
	if f.releaseErr != nil {
		return nil, f.releaseErr
	}
	return f.release, nil
}

func (f *fakeClient) SearchReleaseGroups(_ context.Context, artist, release string, _ int) ([]musicbrainz.ReleaseGroup, error) {
	f.searchCalls++
	f.lastArtist = artist
	f.lastAlbum = release
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.groups, nil
}

func track(tags map[mpd.Tag][]string) *mpd.Track {
	return &mpd.Track{Title: "Song", Tags: tags}
}

func newTestResolver(client metadataClient) *Resolver {
	return newResolver(client, Config{}, zerolog.Nop())
}

func TestResolveURL_SearchesReleaseGroup(t *testing.T) {
	client := &fakeClient{groups: []musicbrainz.ReleaseGroup{{ID: "rg-1"}, {ID: "rg-2"}}}
	r := newTestResolver(client)

	url, ok := r.ResolveURL(context.Background(), track(map[mpd.Tag][]string{
		mpd.TagArtist: {"Queen"},
		mpd.TagAlbum:  {"Jazz"},
	}))

	require.True(t, ok)
	require.Equal(t, "https://coverartarchive.org/release-group/rg-1/front-500", url)
	require.Equal(t, 1, client.searchCalls)
	require.Equal(t, 0, client.releaseCalls)
	require.Equal(t, "Queen", client.lastArtist)
	require.Equal(t, "Jazz", client.lastAlbum)
}

func TestResolveURL_CachesByArtistAndAlbum(t *testing.T) {
	client := &fakeClient{groups: []musicbrainz.ReleaseGroup{{ID: "rg-1"}}}
	r := newTestResolver(client)
	tr := track(map[mpd.Tag][]string{mpd.TagArtist: {"A"}, mpd.TagAlbum: {"B"}})

	first, ok := r.ResolveURL(context.Background(), tr)
	require.True(t, ok)
	second, ok := r.ResolveURL(context.Background(), tr)
	require.True(t, ok)

	require.Equal(t, first, second)
	require.Equal(t, 1, client.searchCalls)
}

func TestResolveURL_ReleaseWithFrontCover(t *testing.T) {
	client := &fakeClient{release: &musicbrainz.Release{
		ID:              "rel-1",
		ReleaseGroup:    musicbrainz.ReleaseGroup{ID: "rg-1"},
		CoverArtArchive: musicbrainz.CoverArtArchive{Front: true},
	}}
	r := newTestResolver(client)

	url, ok := r.ResolveURL(context.Background(), track(map[mpd.Tag][]string{
		mpd.TagArtist:      {"A"},
		mpd.TagAlbum:       {"B"},
		mpd.TagMBReleaseID: {"rel-1"},
	}))

	require.True(t, ok)
	require.Equal(t, "https://coverartarchive.org/release/rel-1/front-500", url)
	require.Equal(t, "rel-1", client.lastID)
	require.Equal(t, 0, client.searchCalls)
}

func TestResolveURL_ReleaseFallsBackToGroup(t *testing.T) {
	client := &fakeClient{release: &musicbrainz.Release{
		ID:           "rel-1",
		ReleaseGroup: musicbrainz.ReleaseGroup{ID: "rg-7"},
	}}
	r := newTestResolver(client)

	url, ok := r.ResolveURL(context.Background(), track(map[mpd.Tag][]string{
		mpd.TagArtist:      {"A"},
		mpd.TagAlbum:       {"B"},
		mpd.TagMBReleaseID: {"rel-1"},
	}))

	require.True(t, ok)
	require.Equal(t, "https://coverartarchive.org/release-group/rg-7/front-500", url)
}

func TestResolveURL_MissingTags(t *testing.T) {
	tests := []struct {
		name  string
		track *mpd.Track
	}{
		{name: "nil track", track: nil},
		{name: "no artist", track: track(map[mpd.Tag][]string{mpd.TagAlbum: {"B"}})},
		{name: "no album", track: track(map[mpd.Tag][]string{mpd.TagArtist: {"A"}})},
		{name: "empty artist", track: track(map[mpd.Tag][]string{mpd.TagArtist: {""}, mpd.TagAlbum: {"B"}})},
		{name: "release id without album", track: track(map[mpd.Tag][]string{
			mpd.TagArtist:      {"A"},
			mpd.TagMBReleaseID: {"rel-1"},
		})},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := &fakeClient{groups: []musicbrainz.ReleaseGroup{{ID: "rg-1"}}}
			r := newTestResolver(client)

			url, ok := r.ResolveURL(context.Background(), tt.track)
			require.False(t, ok)
			require.Empty(t, url)
			require.Zero(t, client.searchCalls+client.releaseCalls)
			require.Empty(t, r.cache)
		})
	}
}

func TestResolveURL_FailuresAreNotCached(t *testing.T) {
	client := &fakeClient{searchErr: errors.New("connection refused")}
	r := newTestResolver(client)
	tr := track(map[mpd.Tag][]string{mpd.TagArtist: {"A"}, mpd.TagAlbum: {"B"}})

	_, ok := r.ResolveURL(context.Background(), tr)
	require.False(t, ok)
	require.Empty(t, r.cache)

	client.searchErr = nil
	client.groups = []musicbrainz.ReleaseGroup{{ID: "rg-1"}}

	url, ok := r.ResolveURL(context.Background(), tr)
	require.True(t, ok)
	require.Equal(t, "https://coverartarchive.org/release-group/rg-1/front-500", url)
	require.Equal(t, 2, client.searchCalls)
}

func TestResolveURL_NoResultsIsNotCached(t *testing.T) {
	client := &fakeClient{}
	r := newTestResolver(client)
	tr := track(map[mpd.Tag][]string{mpd.TagArtist: {"A"}, mpd.TagAlbum: {"B"}})

	_, ok := r.ResolveURL(context.Background(), tr)
	require.False(t, ok)
	_, ok = r.ResolveURL(context.Background(), tr)
	require.False(t, ok)
	require.Equal(t, 2, client.searchCalls)
}

func TestResolveURL_ReleaseLookupError(t *testing.T) {
	client := &fakeClient{releaseErr: &musicbrainz.Error{StatusCode: http.StatusNotFound}}
	r := newTestResolver(client)

	_, ok := r.ResolveURL(context.Background(), track(map[mpd.Tag][]string{
		mpd.TagArtist:      {"A"},
		mpd.TagAlbum:       {"B"},
		mpd.TagMBReleaseID: {"missing"},
	}))
	require.False(t, ok)
	require.Equal(t, 0, client.searchCalls)
}

func TestResolveURL_CustomBaseAndSize(t *testing.T) {
	client := &fakeClient{groups: []musicbrainz.ReleaseGroup{{ID: "rg-1"}}}
	r := newResolver(client, Config{CoverArtURL: "http://art.local/", Size: 250}, zerolog.Nop())

	url, ok := r.ResolveURL(context.Background(), track(map[mpd.Tag][]string{
		mpd.TagArtist: {"A"},
		mpd.TagAlbum:  {"B"},
	}))
	require.True(t, ok)
	require.Equal(t, "http://art.local/release-group/rg-1/front-250", url)
}

// Exercises the resolver against a real HTTP server to check that a
// repeated lookup is served from the cache.
func TestResolveURL_HTTPSingleRequest(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if r.Header.Get("User-Agent") == "" {
			t.Error("missing User-Agent")
		}
		fmt.Fprint(w, `{"release-groups": [{"id": "rg-http"}]}`)
	}))
	defer srv.Close()

	r, err := New(Config{MusicBrainzURL: srv.URL, UserAgent: "mpdrpc-test/1.0"}, zerolog.Nop())
	require.NoError(t, err)

	tr := track(map[mpd.Tag][]string{mpd.TagArtist: {"A"}, mpd.TagAlbum: {"B"}})
	for i := 0; i < 2; i++ {
		url, ok := r.ResolveURL(context.Background(), tr)
		require.True(t, ok)
		require.Equal(t, "https://coverartarchive.org/release-group/rg-http/front-500", url)
	}
	require.Equal(t, int32(1), hits.Load())
}

func TestNew_RequiresUserAgent(t *testing.T) {
	_, err := New(Config{}, zerolog.Nop())
	require.Error(t, err)
}
