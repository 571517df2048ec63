package mpd

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/fhs/gompd/v2/mpd"
)

// PlayState represents the transport state reported by MPD
type PlayState int

const (
	StateStopped PlayState = iota // Nothing is playing
	StatePlaying                  // A song is currently playing
	StatePaused                   // The current song is paused
)

// String returns a human-readable representation of the PlayState
func (s PlayState) String() string {
	switch s {
	case StateStopped:
		return "stopped"
	case StatePlaying:
		return "playing"
	case StatePaused:
		return "paused"
	default:
		return "unknown"
	}
}

// Status is a snapshot of the player's transport state.
// Elapsed and Duration are nil when MPD does not report them
// (e.g. while stopped, or for some streams).
type Status struct {
	State    PlayState
	Elapsed  *time.Duration
	Duration *time.Duration
}

// Tag names a song tag as MPD reports it in currentsong.
type Tag string

const (
	TagArtist      Tag = "Artist"
	TagAlbum       Tag = "Album"
	TagAlbumArtist Tag = "AlbumArtist"
	TagDate        Tag = "Date"
	TagDisc        Tag = "Disc"
	TagGenre       Tag = "Genre"
	TagTrack       Tag = "Track"
	TagMBReleaseID Tag = "MUSICBRAINZ_ALBUMID"
)

var knownTags = []Tag{
	TagArtist, TagAlbum, TagAlbumArtist, TagDate,
	TagDisc, TagGenre, TagTrack, TagMBReleaseID,
}

// Track is an immutable snapshot of the song at the current queue position
type Track struct {
	Title string
	File  string
	Tags  map[Tag][]string
}

// First returns the first value of a tag, if present and non-empty.
func (t *Track) First(tag Tag) (string, bool) {
	if t == nil {
		return "", false
	}
	values := t.Tags[tag]
	if len(values) == 0 || values[0] == "" {
		return "", false
	}
	return values[0], true
}

// parseStatus converts the attributes of a "status" response into a Status
func parseStatus(attrs mpd.Attrs) (Status, error) {
	var st Status

	switch attrs["state"] {
	case "play":
		st.State = StatePlaying
	case "pause":
		st.State = StatePaused
	case "stop":
		st.State = StateStopped
	default:
		return Status{}, fmt.Errorf("unexpected player state %q", attrs["state"])
	}

	st.Elapsed = parseSeconds(attrs["elapsed"])
	st.Duration = parseSeconds(attrs["duration"])

	// Older servers only report "time: elapsed:total" in whole seconds
	if st.Elapsed == nil || st.Duration == nil {
		if elapsed, total, ok := strings.Cut(attrs["time"], ":"); ok {
			if st.Elapsed == nil {
				st.Elapsed = parseSeconds(elapsed)
			}
			if st.Duration == nil {
				st.Duration = parseSeconds(total)
			}
		}
	}

	return st, nil
}

// parseTrack converts the attributes of a "currentsong" response into a Track.
// Returns nil when the response is empty (no current song).
func parseTrack(attrs mpd.Attrs) *Track {
	if len(attrs) == 0 {
		return nil
	}

	track := &Track{
		Title: attrs["Title"],
		File:  attrs["file"],
		Tags:  make(map[Tag][]string),
	}
	for _, tag := range knownTags {
		if v, ok := attrs[string(tag)]; ok && v != "" {
			track.Tags[tag] = []string{v}
		}
	}
	return track
}

func parseSeconds(s string) *time.Duration {
	if s == "" {
		return nil
	}
	secs, err := strconv.ParseFloat(s, 64)
	if err != nil || secs < 0 {
		return nil
	}
	d := time.Duration(secs * float64(time.Second))
	return &d
}
