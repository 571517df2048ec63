package cmd

import (
	"strings"
	"testing"
	"time"

	"github.com/mattn/go-runewidth"

	"github.com/jfmyers9/mpdrpc/internal/format"
	"github.com/jfmyers9/mpdrpc/internal/mpd"
)

func TestPadToWidth(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		width    int
		expected string
	}{
		{
			name:     "no padding when width is 0",
			input:    "Hello",
			width:    0,
			expected: "Hello",
		},
		{
			name:     "no padding when width is negative",
			input:    "Hello",
			width:    -1,
			expected: "Hello",
		},
		{
			name:     "pad short text with spaces",
			input:    "Hi",
			width:    10,
			expected: "Hi        ",
		},
		{
			name:     "exact width unchanged",
			input:    "Hello",
			width:    5,
			expected: "Hello",
		},
		{
			name:     "truncate long text with ellipsis",
			input:    "This is a very long string that needs truncation",
			width:    20,
			expected: "This is a very lo...",
		},
		{
			name:     "handle unicode characters",
			input:    "日本語",
			width:    10,
			expected: "日本語    ",
		},
		{
			name:     "truncate wide text on a rune boundary",
			input:    "日本語とても長いテキスト",
			width:    10,
			expected: "日本語... ", // 日本語 is 6 columns, ... is 3, need 1 space
		},
		{
			name:     "empty string padding",
			input:    "",
			width:    5,
			expected: "     ",
		},
		{
			name:     "minimum width for truncation",
			input:    "Hello",
			width:    3,
			expected: "...",
		},
		{
			name:     "width below ellipsis",
			input:    "Hello",
			width:    2,
			expected: "..",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := padToWidth(tt.input, tt.width)
			if result != tt.expected {
				t.Errorf("padToWidth(%q, %d) = %q, expected %q",
					tt.input, tt.width, result, tt.expected)
			}

			if tt.width > 0 {
				resultWidth := runewidth.StringWidth(result)
				if resultWidth != tt.width {
					t.Errorf("padToWidth(%q, %d) produced width %d, expected %d",
						tt.input, tt.width, resultWidth, tt.width)
				}
			}
		})
	}
}

func TestMarqueeText(t *testing.T) {
	t.Run("short text is padded", func(t *testing.T) {
		got := marqueeText("Song", 8, time.Unix(123, 0))
		if got != "Song    " {
			t.Errorf("marqueeText = %q, expected %q", got, "Song    ")
		}
	})

	t.Run("window advances with time", func(t *testing.T) {
		text := "Bohemian Rhapsody - Queen"
		first := marqueeText(text, 10, time.Unix(0, 0))
		if first != text[:10] {
			t.Errorf("marqueeText at t=0 = %q, expected %q", first, text[:10])
		}

		second := marqueeText(text, 10, time.Unix(1, 0))
		if second != text[marqueeSpeed:marqueeSpeed+10] {
			t.Errorf("marqueeText at t=1 = %q, expected %q", second, text[marqueeSpeed:marqueeSpeed+10])
		}
	})

	t.Run("window wraps through the separator", func(t *testing.T) {
		text := "abcdefghijkl"
		total := len([]rune(text + marqueeSeparator + text))
		for sec := int64(0); sec < int64(total); sec++ {
			got := marqueeText(text, 6, time.Unix(sec, 0))
			if w := runewidth.StringWidth(got); w != 6 {
				t.Fatalf("marqueeText at t=%d = %q has width %d", sec, got, w)
			}
		}
	})

	t.Run("disabled width", func(t *testing.T) {
		if got := marqueeText("Song", 0, time.Unix(0, 0)); got != "Song" {
			t.Errorf("marqueeText = %q, expected unchanged text", got)
		}
	})
}

func TestRenderNow(t *testing.T) {
	spec := format.Spec{
		Details: format.Compile("$title"),
		State:   format.Compile("$artist / $album"),
	}
	track := &mpd.Track{
		Title: "Song",
		Tags: map[mpd.Tag][]string{
			mpd.TagArtist: {"A"},
			mpd.TagAlbum:  {"B"},
		},
	}
	status := mpd.Status{State: mpd.StatePlaying}

	tests := []struct {
		name     string
		spec     format.Spec
		override string
		expected string
	}{
		{name: "details and state", spec: spec, expected: "Song - A / B"},
		{name: "override", spec: spec, override: "$artist: $title", expected: "A: Song"},
		{name: "details only", spec: format.Spec{Details: format.Compile("$title")}, expected: "Song"},
		{name: "state only", spec: format.Spec{State: format.Compile("$album")}, expected: "B"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := renderNow(tt.spec, tt.override, track, status)
			if got != tt.expected {
				t.Errorf("renderNow = %q, expected %q", got, tt.expected)
			}
			if strings.Contains(got, "$") {
				t.Errorf("renderNow left a token unexpanded: %q", got)
			}
		})
	}
}
