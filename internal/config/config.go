// Package config holds the runtime settings shared by the CLI commands and the
// HTTP server, loaded from viper (flags, config file and environment).
package config

import (
	"time"

	"github.com/spf13/viper"

	"github.com/kiesman99/panostitch/pkg/errors"
	"github.com/kiesman99/panostitch/pkg/tile"
)

// Viper keys.
const (
	KeyTileURL          = "tile.url"
	KeyTileSize         = "tile.size"
	KeyFetchConcurrency = "fetch.concurrency"
	KeyFetchRetries     = "fetch.retries"
	KeyFetchRetryDelay  = "fetch.retry-delay"
	KeyHTTPTimeout      = "http.timeout"
	KeyHTTPUserAgent    = "http.user-agent"
	KeyHTTPHeaders      = "http.headers"
	KeyServerBind       = "server.bind"
	KeyServerPort       = "server.port"
	KeyServerTimeout    = "server.timeout"
	KeyServerDownloads  = "server.max-downloads"
)

// DefaultUserAgent identifies tile requests.
const DefaultUserAgent = "panostitch/1.0.0"

// Tile describes the upstream tile source.
type Tile struct {
	URL  tile.Template
	Size int
}

// Fetch controls the tile fetcher.
type Fetch struct {
	Concurrency int
	Retries     int
	RetryDelay  time.Duration
}

// HTTP configures the outgoing tile client.
type HTTP struct {
	Timeout   time.Duration
	UserAgent string
	Headers   map[string]string
}

// Server configures `panostitch serve`.
type Server struct {
	Bind         string
	Port         int
	Timeout      time.Duration
	MaxDownloads int
}

// Config is the complete runtime configuration.
type Config struct {
	Tile   Tile
	Fetch  Fetch
	HTTP   HTTP
	Server Server
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Tile: Tile{
			URL:  tile.DefaultTemplate,
			Size: tile.DefaultSize,
		},
		Fetch: Fetch{
			Concurrency: tile.DefaultConcurrency,
			Retries:     tile.DefaultMaxRetries,
			RetryDelay:  tile.DefaultRetryDelay,
		},
		HTTP: HTTP{
			Timeout:   30 * time.Second,
			UserAgent: DefaultUserAgent,
		},
		Server: Server{
			Bind:         "localhost",
			Port:         8080,
			Timeout:      2 * time.Minute,
			MaxDownloads: 4,
		},
	}
}

// SetDefaults registers Default() on v so that unset keys resolve to it.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault(KeyTileURL, string(d.Tile.URL))
	v.SetDefault(KeyTileSize, d.Tile.Size)
	v.SetDefault(KeyFetchConcurrency, d.Fetch.Concurrency)
	v.SetDefault(KeyFetchRetries, d.Fetch.Retries)
	v.SetDefault(KeyFetchRetryDelay, d.Fetch.RetryDelay)
	v.SetDefault(KeyHTTPTimeout, d.HTTP.Timeout)
	v.SetDefault(KeyHTTPUserAgent, d.HTTP.UserAgent)
	v.SetDefault(KeyServerBind, d.Server.Bind)
	v.SetDefault(KeyServerPort, d.Server.Port)
	v.SetDefault(KeyServerTimeout, d.Server.Timeout)
	v.SetDefault(KeyServerDownloads, d.Server.MaxDownloads)
}

// Load reads the configuration from v and validates it.
func Load(v *viper.Viper) (Config, error) {
	c := Config{
		Tile: Tile{
			URL:  tile.Template(v.GetString(KeyTileURL)),
			Size: v.GetInt(KeyTileSize),
		},
		Fetch: Fetch{
			Concurrency: v.GetInt(KeyFetchConcurrency),
			Retries:     v.GetInt(KeyFetchRetries),
			RetryDelay:  v.GetDuration(KeyFetchRetryDelay),
		},
		HTTP: HTTP{
			Timeout:   v.GetDuration(KeyHTTPTimeout),
			UserAgent: v.GetString(KeyHTTPUserAgent),
			Headers:   v.GetStringMapString(KeyHTTPHeaders),
		},
		Server: Server{
			Bind:         v.GetString(KeyServerBind),
			Port:         v.GetInt(KeyServerPort),
			Timeout:      v.GetDuration(KeyServerTimeout),
			MaxDownloads: v.GetInt(KeyServerDownloads),
		},
	}
	if err := c.Validate(); err != nil {
		return Config{}, err
	}
	return c, nil
}

// Validate checks every setting.
func (c Config) Validate() error {
	if err := c.Tile.URL.Validate(); err != nil {
		return err
	}
	if c.Tile.Size <= 0 {
		return invalid("%s must be positive, got %d", KeyTileSize, c.Tile.Size)
	}
	if c.Fetch.Concurrency <= 0 {
		return invalid("%s must be positive, got %d", KeyFetchConcurrency, c.Fetch.Concurrency)
	}
	if c.Fetch.Retries < 0 {
		return invalid("%s must not be negative, got %d", KeyFetchRetries, c.Fetch.Retries)
	}
	if c.Fetch.RetryDelay < 0 {
		return invalid("%s must not be negative, got %s", KeyFetchRetryDelay, c.Fetch.RetryDelay)
	}
	if c.HTTP.Timeout < 0 {
		return invalid("%s must not be negative, got %s", KeyHTTPTimeout, c.HTTP.Timeout)
	}
	if c.Server.Port < 0 || c.Server.Port > 65535 {
		return invalid("%s %d out of range", KeyServerPort, c.Server.Port)
	}
	if c.Server.MaxDownloads <= 0 {
		return invalid("%s must be positive, got %d", KeyServerDownloads, c.Server.MaxDownloads)
	}
	return nil
}

// FetchConfig converts c into a tile.Config. Zero retries and delays are
// kept as zero rather than replaced by the fetcher defaults.
func (c Config) FetchConfig() tile.Config {
	cfg := tile.Config{
		Concurrency: c.Fetch.Concurrency,
		MaxRetries:  c.Fetch.Retries,
		RetryDelay:  c.Fetch.RetryDelay,
		TileWidth:   c.Tile.Size,
		TileHeight:  c.Tile.Size,
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = -1
	}
	if cfg.RetryDelay == 0 {
		cfg.RetryDelay = -1
	}
	return cfg
}

func invalid(format string, args ...any) error {
	return errors.New(errors.ErrCodeInvalidParameter, format, args...)
}
