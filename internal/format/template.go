// Package format renders user format strings and playback timestamps
// from MPD track and status snapshots.
package format

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/jfmyers9/mpdrpc/internal/mpd"
)

const (
	unknownValue     = "unknown"
	unavailableValue = "N/A"
)

var tokenPattern = regexp.MustCompile(`\$(\w+)`)

// tokenSource says where a token's value comes from
type tokenSource int

const (
	sourceLiteral tokenSource = iota // echo the token name back
	sourceTitle
	sourceTag
	sourceDuration
	sourceElapsed
)

type tokenRule struct {
	source tokenSource
	tag    mpd.Tag
}

// tokenRules is the complete set of recognized tokens. Anything else is literal.
var tokenRules = map[string]tokenRule{
	"title":       {source: sourceTitle},
	"album":       {source: sourceTag, tag: mpd.TagAlbum},
	"artist":      {source: sourceTag, tag: mpd.TagArtist},
	"albumartist": {source: sourceTag, tag: mpd.TagAlbumArtist},
	"date":        {source: sourceTag, tag: mpd.TagDate},
	"disc":        {source: sourceTag, tag: mpd.TagDisc},
	"genre":       {source: sourceTag, tag: mpd.TagGenre},
	"track":       {source: sourceTag, tag: mpd.TagTrack},
	"duration":    {source: sourceDuration},
	"elapsed":     {source: sourceElapsed},
}

// Template is a format string with its tokens extracted once up front
type Template struct {
	raw    string
	tokens []string
	order  []string // tokens, longest name first
}

// Compile extracts the tokens of a format string
func Compile(raw string) Template {
	tokens := ExtractTokens(raw)

	// Longest names first so "$albumartist" is not consumed as "$album" + "artist"
	order := make([]string, len(tokens))
	copy(order, tokens)
	sort.SliceStable(order, func(i, j int) bool {
		return len(order[i]) > len(order[j])
	})

	return Template{raw: raw, tokens: tokens, order: order}
}

// String returns the original format string
func (t Template) String() string {
	return t.raw
}

// Tokens returns the distinct token names in order of first appearance
func (t Template) Tokens() []string {
	return t.tokens
}

// ExtractTokens returns the distinct names of all $tokens in s,
// in order of first appearance.
func ExtractTokens(s string) []string {
	var tokens []string
	seen := make(map[string]bool)
	for _, m := range tokenPattern.FindAllStringSubmatch(s, -1) {
		name := m[1]
		if seen[name] {
			continue
		}
		seen[name] = true
		tokens = append(tokens, name)
	}
	return tokens
}

// Render substitutes every token with its value for the given snapshot.
// Each token is substituted in a single pass, so values containing
// "$name" are never expanded again. Longer names are tried first, so
// "$albumartist" is never read as "$album" followed by "artist".
func (t Template) Render(track *mpd.Track, status mpd.Status) string {
	if len(t.tokens) == 0 {
		return t.raw
	}

	pairs := make([]string, 0, 2*len(t.order))
	for _, name := range t.order {
		pairs = append(pairs, "$"+name, TokenValue(name, track, status))
	}
	return strings.NewReplacer(pairs...).Replace(t.raw)
}

// TokenValue computes the value of a single token
func TokenValue(name string, track *mpd.Track, status mpd.Status) string {
	rule, ok := tokenRules[name]
	if !ok {
		return name
	}

	switch rule.source {
	case sourceTitle:
		if track == nil || track.Title == "" {
			return unknownValue
		}
		return track.Title
	case sourceTag:
		if v, ok := track.First(rule.tag); ok {
			return v
		}
		return unknownValue
	case sourceDuration:
		return formatOptional(status.Duration)
	case sourceElapsed:
		return formatOptional(status.Elapsed)
	default:
		return name
	}
}

func formatOptional(d *time.Duration) string {
	if d == nil {
		return unavailableValue
	}
	return FormatTime(uint64(d.Seconds()))
}

// FormatTime formats whole seconds as mm:ss. There is no hour field:
// minutes wrap at 60, so 3661 seconds renders as "01:01".
func FormatTime(seconds uint64) string {
	minutes := (seconds / 60) % 60
	return fmt.Sprintf("%02d:%02d", minutes, seconds%60)
}
