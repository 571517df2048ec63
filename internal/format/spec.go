package format

import "github.com/jfmyers9/mpdrpc/internal/mpd"

// Spec is the full set of display templates, loaded once at startup
type Spec struct {
	Details   Template
	State     Template
	LargeText Template
	SmallText Template

	LargeImage string
	SmallImage string
	Timestamp  TimestampMode
}

// Rendered holds the text fields of one presence update
type Rendered struct {
	Details   string
	State     string
	LargeText string
	SmallText string
}

// Render renders all four templates against one snapshot
func (s Spec) Render(track *mpd.Track, status mpd.Status) Rendered {
	return Rendered{
		Details:   s.Details.Render(track, status),
		State:     s.State.Render(track, status),
		LargeText: s.LargeText.Render(track, status),
		SmallText: s.SmallText.Render(track, status),
	}
}
