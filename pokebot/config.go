package pokebot

import (
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/disgoorg/snowflake/v2"
	"github.com/pelletier/go-toml/v2"
	"github.com/pokepacks/pokepacks/internal/domain/catalog"
	"github.com/pokepacks/pokepacks/internal/gateways/mongostore"
	"github.com/pokepacks/pokepacks/pokebot/database"
)

// Snapshot store backends.
const (
	DriverNone     = "none"
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
)

// LoadConfig reads the TOML file at path, then lets the environment override
// secrets, then fills in defaults.
func LoadConfig(path string) (*Config, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open config: %w", err)
	}
	defer file.Close()

	var cfg Config
	if err = toml.NewDecoder(file).Decode(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	if err = env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("failed to read environment: %w", err)
	}
	cfg.applyDefaults()

	if err = cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type Config struct {
	Log     LogConfig     `toml:"log"`
	Bot     BotConfig     `toml:"bot"`
	Catalog CatalogConfig `toml:"catalog"`
	Cache   CacheConfig   `toml:"cache"`
	DB      DBConfig      `toml:"db"`
}

type LogConfig struct {
	Level slog.Level `toml:"level"`
}

type BotConfig struct {
	DevGuilds []snowflake.ID `toml:"dev_guilds"`
	Token     string         `toml:"token" env:"POKEPACKS_BOT_TOKEN"`
}

type CatalogConfig struct {
	BaseURL           string   `toml:"base_url"`
	APIKey            string   `toml:"api_key" env:"POKETCGAPIKEY"`
	RequestsPerSecond float64  `toml:"requests_per_second"`
	RequestTimeout    Duration `toml:"request_timeout"`
	FetchTimeout      Duration `toml:"fetch_timeout"`
	ChunkSize         int      `toml:"chunk_size"`
	// MaxRetries is per request; 0 keeps the client default.
	MaxRetries int `toml:"max_retries"`
}

type CacheConfig struct {
	RefreshAfter    Duration `toml:"refresh_after"`
	Jitter          Duration `toml:"jitter"`
	Retention       Duration `toml:"retention"`
	RefreshInterval Duration `toml:"refresh_interval"`
	// RefreshRetries is per chunk; 0 means the default, negative disables retries.
	RefreshRetries int      `toml:"refresh_retries"`
	RefreshBackoff Duration `toml:"refresh_backoff"`
	Concurrency    int64    `toml:"concurrency"`
	SetCacheSize   int      `toml:"set_cache_size"`
}

type DBConfig struct {
	Driver   string            `toml:"driver"`
	Postgres database.DBConfig `toml:"postgres"`
	Mongo    MongoConfig       `toml:"mongo"`
}

type MongoConfig struct {
	URI      string `toml:"uri" env:"MONGODB_URI"`
	Database string `toml:"database"`
}

// Duration reads TOML strings like "90s" or "24h".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", text, err)
	}
	d.Duration = v
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (c *Config) applyDefaults() {
	if c.Catalog.ChunkSize <= 0 {
		c.Catalog.ChunkSize = catalog.DefaultChunkSize
	}
	if c.Catalog.FetchTimeout.Duration <= 0 {
		c.Catalog.FetchTimeout.Duration = catalog.DefaultFetchTimeout
	}
	if c.Cache.RefreshAfter.Duration <= 0 {
		c.Cache.RefreshAfter.Duration = catalog.DefaultRefreshAfter
	}
	if c.Cache.Jitter.Duration <= 0 {
		c.Cache.Jitter.Duration = time.Hour
	}
	if c.Cache.Retention.Duration <= 0 {
		c.Cache.Retention.Duration = catalog.DefaultRetention
	}
	if c.Cache.RefreshInterval.Duration <= 0 {
		c.Cache.RefreshInterval.Duration = catalog.DefaultRefreshInterval
	}
	switch {
	case c.Cache.RefreshRetries == 0:
		c.Cache.RefreshRetries = catalog.DefaultMaxRetries
	case c.Cache.RefreshRetries < 0:
		c.Cache.RefreshRetries = 0
	}
	if c.Cache.RefreshBackoff.Duration <= 0 {
		c.Cache.RefreshBackoff.Duration = catalog.DefaultRetryBackoff
	}
	if c.Cache.Concurrency <= 0 {
		c.Cache.Concurrency = catalog.DefaultConcurrency
	}
	if c.DB.Driver == "" {
		c.DB.Driver = DriverNone
	}
	if c.DB.Mongo.Database == "" {
		c.DB.Mongo.Database = mongostore.DefaultDatabase
	}
	if c.DB.Postgres.Port == 0 {
		c.DB.Postgres.Port = 5432
	}
}

func (c *Config) validate() error {
	switch c.DB.Driver {
	case DriverNone, DriverPostgres:
	case DriverMongo:
		if c.DB.Mongo.URI == "" {
			return fmt.Errorf("db driver %q needs a mongo uri", c.DB.Driver)
		}
	default:
		return fmt.Errorf("unknown db driver %q", c.DB.Driver)
	}
	return nil
}
