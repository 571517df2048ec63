package musicbrainz

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Config holds client configuration.
type Config struct {
	UserAgent  string       // Required: identifying User-Agent sent with every request
	HTTPClient *http.Client // Optional: HTTP client (defaults to one with a 10s timeout)
	BaseURL    string       // Optional: Base URL for API (defaults to MusicBrainz, used for testing)
	MaxRetries int          // Optional: attempts for temporary failures (defaults to 3)
	Logger     Logger       // Optional: Logger interface for debug logging
}

// Logger is an optional interface for logging.
type Logger interface {
	// Debugf logs a debug message with format and arguments.
	Debugf(format string, args ...interface{})
}

// Client is the main entry point for MusicBrainz lookups.
type Client struct {
	userAgent  string
	httpClient *http.Client
	baseURL    string
	maxRetries int
	backoff    time.Duration
	logger     Logger
}

const (
	// DefaultBaseURL is the default MusicBrainz web service endpoint.
	DefaultBaseURL = "https://musicbrainz.org/ws/2"

	// DefaultTimeout bounds every request made with the default HTTP client.
	DefaultTimeout = 10 * time.Second
)

// NewClient creates a new MusicBrainz client.
//
// Returns an error if UserAgent is empty.
func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.UserAgent) == "" {
		return nil, fmt.Errorf("musicbrainz: UserAgent is required")
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: DefaultTimeout}
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	maxRetries := cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}

	return &Client{
		userAgent:  cfg.UserAgent,
		httpClient: httpClient,
		baseURL:    strings.TrimRight(baseURL, "/"),
		maxRetries: maxRetries,
		backoff:    1 * time.Second,
		logger:     cfg.Logger,
	}, nil
}

// Release looks up a single release by MBID, including its release group.
func (c *Client) Release(ctx context.Context, id string) (*Release, error) {
	if id == "" {
		return nil, fmt.Errorf("musicbrainz: release id is required")
	}

	params := url.Values{"inc": {"release-groups"}}

	var release Release
	if err := c.get(ctx, "/release/"+url.PathEscape(id), params, &release); err != nil {
		return nil, err
	}
	return &release, nil
}

// SearchReleaseGroups searches release groups by artist and release title,
// best match first.
func (c *Client) SearchReleaseGroups(ctx context.Context, artist, release string, limit int) ([]ReleaseGroup, error) {
	if limit <= 0 {
		limit = 1
	}

	params := url.Values{
		"query": {fmt.Sprintf("artist:%s AND release:%s", quote(artist), quote(release))},
		"limit": {strconv.Itoa(limit)},
	}

	var result releaseGroupSearch
	if err := c.get(ctx, "/release-group/", params, &result); err != nil {
		return nil, err
	}
	return result.ReleaseGroups, nil
}

// quote turns a value into a Lucene phrase so multi-word names match as a whole
func quote(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`)
	return `"` + r.Replace(s) + `"`
}

// logDebugf logs a debug message if a logger is configured.
func (c *Client) logDebugf(format string, args ...interface{}) {
	if c.logger != nil {
		c.logger.Debugf(format, args...)
	}
}
