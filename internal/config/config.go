package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/creasty/defaults"
	"github.com/spf13/viper"

	"github.com/jfmyers9/mpdrpc/internal/format"
	"github.com/jfmyers9/mpdrpc/internal/mpd"
)

const (
	appName    = "mpdrpc"
	configName = "config"
	configType = "toml"
	envPrefix  = "MPDRPC"
)

// Config holds application configuration
type Config struct {
	// Discord application id whose assets back the presence images
	ID int64 `default:"677226551607033903"`

	// MPD servers in order of preference, as host:port or socket paths
	Hosts []string `default:"[\"localhost:6600\"]"`

	// Seconds to wait between sweeps when nothing is playing
	RetryInterval int `default:"5"`

	Format  FormatConfig
	Artwork ArtworkConfig
}

// FormatConfig holds the presence templates
type FormatConfig struct {
	Details    string `default:"$title"`
	State      string `default:"$artist / $album"`
	Timestamp  string `default:"elapsed"`
	LargeImage string `default:"notes"`
	SmallImage string `default:"notes"`
	LargeText  string
	SmallText  string
}

// ArtworkConfig controls cover art lookups
type ArtworkConfig struct {
	Enabled        bool          `default:"true"`
	Size           int           `default:"500"`
	Timeout        time.Duration `default:"10s"`
	MusicBrainzURL string        `default:"https://musicbrainz.org/ws/2"`
	CoverArtURL    string        `default:"https://coverartarchive.org"`
}

// Defaults returns the built-in configuration that user settings overlay.
func Defaults() Config {
	var cfg Config
	if err := defaults.Set(&cfg); err != nil {
		// Tags are static; a failure here is a programming error.
		panic(fmt.Sprintf("config: invalid default tags: %v", err))
	}
	return cfg
}

// Load reads configuration from file and environment.
//
// path selects an explicit config file; when empty the file is looked up
// in the config directory and the working directory, and a file holding
// the defaults is written on first run.
func Load(path string) (*Config, error) {
	v := newViper()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName(configName)
		v.AddConfigPath(GetConfigDir())
		v.AddConfigPath(".")
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
		if err := writeDefault(v); err != nil {
			return nil, err
		}
	}

	cfg := fromViper(v)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetConfigType(configType)

	d := Defaults()
	v.SetDefault("id", d.ID)
	v.SetDefault("hosts", d.Hosts)
	v.SetDefault("retry_interval", d.RetryInterval)
	v.SetDefault("format.details", d.Format.Details)
	v.SetDefault("format.state", d.Format.State)
	v.SetDefault("format.timestamp", d.Format.Timestamp)
	v.SetDefault("format.large_image", d.Format.LargeImage)
	v.SetDefault("format.small_image", d.Format.SmallImage)
	v.SetDefault("format.large_text", d.Format.LargeText)
	v.SetDefault("format.small_text", d.Format.SmallText)
	v.SetDefault("artwork.enabled", d.Artwork.Enabled)
	v.SetDefault("artwork.size", d.Artwork.Size)
	v.SetDefault("artwork.timeout", d.Artwork.Timeout.String())
	v.SetDefault("artwork.musicbrainz_url", d.Artwork.MusicBrainzURL)
	v.SetDefault("artwork.coverart_url", d.Artwork.CoverArtURL)

	// MPDRPC_FORMAT_DETAILS overrides format.details
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	return v
}

func fromViper(v *viper.Viper) *Config {
	return &Config{
		ID:            v.GetInt64("id"),
		Hosts:         v.GetStringSlice("hosts"),
		RetryInterval: v.GetInt("retry_interval"),
		Format: FormatConfig{
			Details:    v.GetString("format.details"),
			State:      v.GetString("format.state"),
			Timestamp:  v.GetString("format.timestamp"),
			LargeImage: v.GetString("format.large_image"),
			SmallImage: v.GetString("format.small_image"),
			LargeText:  v.GetString("format.large_text"),
			SmallText:  v.GetString("format.small_text"),
		},
		Artwork: ArtworkConfig{
			Enabled:        v.GetBool("artwork.enabled"),
			Size:           v.GetInt("artwork.size"),
			Timeout:        v.GetDuration("artwork.timeout"),
			MusicBrainzURL: v.GetString("artwork.musicbrainz_url"),
			CoverArtURL:    v.GetString("artwork.coverart_url"),
		},
	}
}

// writeDefault saves the defaults to the config directory so users have a
// file to edit.
func writeDefault(v *viper.Viper) error {
	dir := GetConfigDir()
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	file := filepath.Join(dir, configName+"."+configType)
	if err := v.SafeWriteConfigAs(file); err != nil {
		var exists viper.ConfigFileAlreadyExistsError
		if errors.As(err, &exists) {
			return nil
		}
		return fmt.Errorf("failed to write default config: %w", err)
	}
	return nil
}

// Validate reports the first setting that cannot be used.
func (c *Config) Validate() error {
	if c.ID <= 0 {
		return fmt.Errorf("invalid config: id must be a positive Discord application id")
	}
	if len(c.Hosts) == 0 {
		return fmt.Errorf("invalid config: hosts must list at least one MPD server")
	}
	for _, h := range c.Hosts {
		if strings.TrimSpace(h) == "" {
			return fmt.Errorf("invalid config: hosts contains an empty entry")
		}
	}
	if c.RetryInterval <= 0 {
		return fmt.Errorf("invalid config: retry_interval must be positive, got %d", c.RetryInterval)
	}
	if _, err := format.ParseTimestampMode(c.Format.Timestamp); err != nil {
		return fmt.Errorf("invalid config: format.timestamp: %w", err)
	}
	if c.Artwork.Enabled {
		if c.Artwork.Size <= 0 {
			return fmt.Errorf("invalid config: artwork.size must be positive, got %d", c.Artwork.Size)
		}
		if c.Artwork.Timeout <= 0 {
			return fmt.Errorf("invalid config: artwork.timeout must be positive")
		}
	}
	return nil
}

// AppID returns the Discord application id in the form the IPC handshake expects.
func (c *Config) AppID() string {
	return strconv.FormatInt(c.ID, 10)
}

// Endpoints classifies the configured hosts.
func (c *Config) Endpoints() []mpd.Endpoint {
	return mpd.ParseEndpoints(c.Hosts)
}

// RetryDelay returns the sweep retry interval.
func (c *Config) RetryDelay() time.Duration {
	return time.Duration(c.RetryInterval) * time.Second
}

// Spec compiles the templates once so rendering never re-scans them.
func (f FormatConfig) Spec() (format.Spec, error) {
	mode, err := format.ParseTimestampMode(f.Timestamp)
	if err != nil {
		return format.Spec{}, err
	}
	return format.Spec{
		Details:    format.Compile(f.Details),
		State:      format.Compile(f.State),
		LargeText:  format.Compile(f.LargeText),
		SmallText:  format.Compile(f.SmallText),
		LargeImage: f.LargeImage,
		SmallImage: f.SmallImage,
		Timestamp:  mode,
	}, nil
}

// GetConfigDir returns the configuration directory path
func GetConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, appName)
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(homeDir, ".config", appName)
}
