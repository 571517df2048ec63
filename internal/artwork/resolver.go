// Package artwork resolves album cover URLs from the Cover Art Archive,
// using MusicBrainz to find the release or release group for a track.
package artwork

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/jfmyers9/mpdrpc/internal/mpd"
	"github.com/jfmyers9/mpdrpc/pkg/musicbrainz"
)

// Kind is the type of MusicBrainz record cover art is archived under.
type Kind string

const (
	KindRelease      Kind = "release"
	KindReleaseGroup Kind = "release-group"
)

const (
	DefaultCoverArtURL = "https://coverartarchive.org"
	DefaultSize        = 500
	DefaultTimeout     = 10 * time.Second
)

// metadataClient is the subset of the MusicBrainz client the resolver needs.
type metadataClient interface {
	Release(ctx context.Context, id string) (*musicbrainz.Release, error)
	SearchReleaseGroups(ctx context.Context, artist, release string, limit int) ([]musicbrainz.ReleaseGroup, error)
}

// Config holds resolver configuration.
type Config struct {
	MusicBrainzURL string        // Optional: defaults to musicbrainz.DefaultBaseURL
	CoverArtURL    string        // Optional: defaults to DefaultCoverArtURL
	Size           int           // Thumbnail size in pixels (250, 500 or 1200)
	Timeout        time.Duration // Bound on one whole resolution
	UserAgent      string        // Required by MusicBrainz
}

type key struct {
	artist, album string
}

type entry struct {
	id   string
	kind Kind
}

// Resolver maps tracks to cover art URLs, memoizing the MusicBrainz
// record found for each (artist, album) pair. Successful lookups are
// cached for the life of the process; failures are not.
//
// A Resolver is owned by a single goroutine and is not safe for
// concurrent use.
type Resolver struct {
	client  metadataClient
	baseURL string
	size    int
	timeout time.Duration
	cache   map[key]entry
	logger  zerolog.Logger
}

// New creates a Resolver backed by the MusicBrainz web service.
func New(cfg Config, logger zerolog.Logger) (*Resolver, error) {
	logger = logger.With().Str("component", "artwork").Logger()

	client, err := musicbrainz.NewClient(musicbrainz.Config{
		UserAgent: cfg.UserAgent,
		BaseURL:   cfg.MusicBrainzURL,
		Logger:    debugLogger{logger},
	})
	if err != nil {
		return nil, fmt.Errorf("create musicbrainz client: %w", err)
	}
	return newResolver(client, cfg, logger), nil
}

func newResolver(client metadataClient, cfg Config, logger zerolog.Logger) *Resolver {
	baseURL := cfg.CoverArtURL
	if baseURL == "" {
		baseURL = DefaultCoverArtURL
	}
	size := cfg.Size
	if size <= 0 {
		size = DefaultSize
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Resolver{
		client:  client,
		baseURL: strings.TrimRight(baseURL, "/"),
		size:    size,
		timeout: timeout,
		cache:   make(map[key]entry),
		logger:  logger,
	}
}

// ResolveURL returns the front cover URL for the track's album.
// It returns false when the track lacks an artist or album, or when
// no art could be found.
func (r *Resolver) ResolveURL(ctx context.Context, track *mpd.Track) (string, bool) {
	artist, ok := track.First(mpd.TagArtist)
	if !ok {
		return "", false
	}
	album, ok := track.First(mpd.TagAlbum)
	if !ok {
		return "", false
	}
	k := key{artist: artist, album: album}

	if e, ok := r.cache[k]; ok {
		return r.url(e), true
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var (
		e   entry
		err error
	)
	if id, ok := track.First(mpd.TagMBReleaseID); ok {
		e, err = r.lookupRelease(ctx, id)
	} else {
		e, err = r.searchReleaseGroup(ctx, artist, album)
	}
	if err != nil {
		r.logger.Warn().Err(err).
			Str("artist", artist).
			Str("album", album).
			Msg("Cover art lookup failed")
		return "", false
	}
	if e.id == "" {
		r.logger.Debug().Str("artist", artist).Str("album", album).Msg("No cover art found")
		return "", false
	}

	r.cache[k] = e
	return r.url(e), true
}

// lookupRelease prefers the release's own front cover and falls back to
// its release group when the pressing has none archived.
func (r *Resolver) lookupRelease(ctx context.Context, id string) (entry, error) {
	release, err := r.client.Release(ctx, id)
	if err != nil {
		return entry{}, fmt.Errorf("lookup release %s: %w", id, err)
	}
	if release.CoverArtArchive.Front {
		return entry{id: release.ID, kind: KindRelease}, nil
	}
	return entry{id: release.ReleaseGroup.ID, kind: KindReleaseGroup}, nil
}

func (r *Resolver) searchReleaseGroup(ctx context.Context, artist, album string) (entry, error) {
	groups, err := r.client.SearchReleaseGroups(ctx, artist, album, 1)
	if err != nil {
		return entry{}, fmt.Errorf("search release groups: %w", err)
	}
	if len(groups) == 0 {
		return entry{}, nil
	}
	return entry{id: groups[0].ID, kind: KindReleaseGroup}, nil
}

func (r *Resolver) url(e entry) string {
	return fmt.Sprintf("%s/%s/%s/front-%d", r.baseURL, e.kind, e.id, r.size)
}

// debugLogger adapts zerolog to the musicbrainz.Logger interface.
type debugLogger struct {
	logger zerolog.Logger
}

func (l debugLogger) Debugf(format string, args ...interface{}) {
	l.logger.Debug().Msgf(format, args...)
}
