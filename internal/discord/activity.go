package discord

import "unicode/utf8"

// MaxFieldBytes is the longest details or state string Discord accepts.
const MaxFieldBytes = 128

// ActivityListening shows the activity as "Listening to ...".
const ActivityListening = 2

// Activity is the rich presence payload of SET_ACTIVITY.
type Activity struct {
	Type       int         `json:"type"`
	Details    string      `json:"details,omitempty"`
	State      string      `json:"state,omitempty"`
	Timestamps *Timestamps `json:"timestamps,omitempty"`
	Assets     *Assets     `json:"assets,omitempty"`
	Instance   bool        `json:"instance"`
}

// Timestamps are Unix epoch seconds. Discord counts up from Start or
// down to End.
type Timestamps struct {
	Start *int64 `json:"start,omitempty"`
	End   *int64 `json:"end,omitempty"`
}

// Assets name an uploaded asset key or an external image URL.
type Assets struct {
	LargeImage string `json:"large_image,omitempty"`
	LargeText  string `json:"large_text,omitempty"`
	SmallImage string `json:"small_image,omitempty"`
	SmallText  string `json:"small_text,omitempty"`
}

// Clamp shortens s to at most max bytes, ending in "..." when cut.
// It never splits a UTF-8 sequence.
func Clamp(s string, max int) string {
	if len(s) <= max {
		return s
	}
	const ellipsis = "..."
	if max < len(ellipsis) {
		return ellipsis[:max]
	}
	cut := max - len(ellipsis)
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + ellipsis
}

// clamped returns a copy of a with its text fields within Discord's limits.
func (a Activity) clamped() Activity {
	a.Details = Clamp(a.Details, MaxFieldBytes)
	a.State = Clamp(a.State, MaxFieldBytes)
	if a.Assets != nil {
		assets := *a.Assets
		assets.LargeText = Clamp(assets.LargeText, MaxFieldBytes)
		assets.SmallText = Clamp(assets.SmallText, MaxFieldBytes)
		a.Assets = &assets
	}
	return a
}
