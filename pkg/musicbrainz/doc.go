// Package musicbrainz provides a small client for the MusicBrainz web
// service (version 2), covering the lookups needed to find cover art.
//
// # Quick Start
//
//	import "github.com/jfmyers9/mpdrpc/pkg/musicbrainz"
//
//	client, err := musicbrainz.NewClient(musicbrainz.Config{
//	    UserAgent: "myapp/1.0 ( me@example.com )",
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
// # Lookups
//
// Look up a release by its MBID, including its release group:
//
//	release, err := client.Release(ctx, "0f6f9e0b-...")
//	if release.CoverArtArchive.Front {
//	    // the Cover Art Archive has a front image for this release
//	}
//
// Search release groups by artist and title:
//
//	groups, err := client.SearchReleaseGroups(ctx, "Queen", "A Night at the Opera", 1)
//
// # Error Handling
//
// Non-2xx responses are returned as *Error:
//
//	var mbErr *musicbrainz.Error
//	if errors.As(err, &mbErr) && mbErr.StatusCode == http.StatusNotFound {
//	    // no such release
//	}
//
// Rate limiting (503) and 429 responses are retried with exponential
// backoff before being returned.
//
// # User-Agent
//
// MusicBrainz requires every client to send a meaningful User-Agent.
// NewClient refuses an empty one.
//
// See https://musicbrainz.org/doc/MusicBrainz_API for the service documentation.
package musicbrainz
