package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App struct {
		LogLevel      string `toml:"log_level"`
		RenderEveryMs int    `toml:"render_every_ms"`
	} `toml:"app"`

	Stream struct {
		URL              string `toml:"url"`
		ReconnectDelayMs int    `toml:"reconnect_delay_ms"`
		DialTimeoutMs    int    `toml:"dial_timeout_ms"`
		PingIntervalSec  int    `toml:"ping_interval_sec"`
		ReadTimeoutSec   int    `toml:"read_timeout_sec"`
	} `toml:"stream"`

	Lookup struct {
		BaseURL    string `toml:"base_url"`
		DebounceMs int    `toml:"debounce_ms"`
		TimeoutMs  int    `toml:"timeout_ms"`
	} `toml:"lookup"`

	Storage struct {
		SQLite struct {
			Enabled bool   `toml:"enabled"`
			Path    string `toml:"path"`
		} `toml:"sqlite"`

		Postgres struct {
			Enabled bool   `toml:"enabled"`
			DSN     string `toml:"dsn"`
		} `toml:"postgres"`

		Redis struct {
			Enabled    bool   `toml:"enabled"`
			Addr       string `toml:"addr"`
			Password   string `toml:"password"`
			DB         int    `toml:"db"`
			Prefix     string `toml:"prefix"`
			TTLSeconds int    `toml:"ttl_seconds"`
			Channel    string `toml:"channel"`
		} `toml:"redis"`
	} `toml:"storage"`

	Journal struct {
		Buffer int `toml:"buffer"`
	} `toml:"journal"`
}

// envOverrides 环境变量覆盖（TICKERWATCH_ 前缀），空值不覆盖
type envOverrides struct {
	LogLevel      string `envconfig:"LOG_LEVEL"`
	StreamURL     string `envconfig:"STREAM_URL"`
	LookupURL     string `envconfig:"LOOKUP_URL"`
	SQLitePath    string `envconfig:"SQLITE_PATH"`
	PostgresDSN   string `envconfig:"POSTGRES_DSN"`
	RedisAddr     string `envconfig:"REDIS_ADDR"`
	RedisPassword string `envconfig:"REDIS_PASSWORD"`
}

const envPrefix = "TICKERWATCH"

// Load reads the toml file, applies .env / TICKERWATCH_* overrides, then defaults and validation
func Load(path string) (*Config, error) {
	// .env 可选
	_ = godotenv.Load()

	var cfg Config
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return nil, err
	}
	if err := applyEnv(&cfg); err != nil {
		return nil, err
	}
	applyDefaults(&cfg)
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnv(cfg *Config) error {
	var ov envOverrides
	if err := envconfig.Process(envPrefix, &ov); err != nil {
		return fmt.Errorf("env overrides: %w", err)
	}

	if ov.LogLevel != "" {
		cfg.App.LogLevel = ov.LogLevel
	}
	if ov.StreamURL != "" {
		cfg.Stream.URL = ov.StreamURL
	}
	if ov.LookupURL != "" {
		cfg.Lookup.BaseURL = ov.LookupURL
	}
	if ov.SQLitePath != "" {
		cfg.Storage.SQLite.Enabled = true
		cfg.Storage.SQLite.Path = ov.SQLitePath
	}
	if ov.PostgresDSN != "" {
		cfg.Storage.Postgres.Enabled = true
		cfg.Storage.Postgres.DSN = ov.PostgresDSN
	}
	if ov.RedisAddr != "" {
		cfg.Storage.Redis.Enabled = true
		cfg.Storage.Redis.Addr = ov.RedisAddr
	}
	if ov.RedisPassword != "" {
		cfg.Storage.Redis.Password = ov.RedisPassword
	}
	return nil
}

func applyDefaults(cfg *Config) {
	if strings.TrimSpace(cfg.App.LogLevel) == "" {
		cfg.App.LogLevel = "info"
	}
	if cfg.App.RenderEveryMs <= 0 {
		cfg.App.RenderEveryMs = 250
	}

	if cfg.Stream.ReconnectDelayMs <= 0 {
		cfg.Stream.ReconnectDelayMs = 5000
	}
	if cfg.Stream.DialTimeoutMs <= 0 {
		cfg.Stream.DialTimeoutMs = 10000
	}
	if cfg.Stream.PingIntervalSec <= 0 {
		cfg.Stream.PingIntervalSec = 25
	}
	if cfg.Stream.ReadTimeoutSec <= 0 {
		cfg.Stream.ReadTimeoutSec = 60
	}

	if cfg.Lookup.DebounceMs <= 0 {
		cfg.Lookup.DebounceMs = 1000
	}
	if cfg.Lookup.TimeoutMs <= 0 {
		cfg.Lookup.TimeoutMs = 5000
	}

	if cfg.Storage.SQLite.Path == "" {
		cfg.Storage.SQLite.Path = "tickerwatch.db"
	}
	if cfg.Storage.Redis.Prefix == "" {
		cfg.Storage.Redis.Prefix = "tickerwatch"
	}
	if cfg.Storage.Redis.TTLSeconds <= 0 {
		cfg.Storage.Redis.TTLSeconds = 3600
	}
	if cfg.Storage.Redis.Channel == "" {
		cfg.Storage.Redis.Channel = "tickerwatch:snapshots"
	}

	if cfg.Journal.Buffer <= 0 {
		cfg.Journal.Buffer = 256
	}
}

func validate(cfg *Config) error {
	cfg.Stream.URL = strings.TrimSpace(cfg.Stream.URL)
	if cfg.Stream.URL == "" {
		return errors.New("stream.url is empty")
	}
	u, err := url.Parse(cfg.Stream.URL)
	if err != nil {
		return fmt.Errorf("stream.url: %w", err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return fmt.Errorf("stream.url must be ws:// or wss://, got %q", cfg.Stream.URL)
	}

	cfg.Lookup.BaseURL = strings.TrimSpace(cfg.Lookup.BaseURL)
	if cfg.Lookup.BaseURL == "" {
		return errors.New("lookup.base_url is empty")
	}

	switch strings.ToLower(strings.TrimSpace(cfg.App.LogLevel)) {
	case "trace", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("app.log_level %q not supported", cfg.App.LogLevel)
	}

	if cfg.Storage.Postgres.Enabled && strings.TrimSpace(cfg.Storage.Postgres.DSN) == "" {
		return errors.New("storage.postgres.dsn empty but enabled")
	}
	if cfg.Storage.Redis.Enabled && strings.TrimSpace(cfg.Storage.Redis.Addr) == "" {
		return errors.New("storage.redis.addr empty but enabled")
	}
	return nil
}

// AnyStorage reports whether at least one journal backend is enabled
func (c *Config) AnyStorage() bool {
	return c.Storage.SQLite.Enabled || c.Storage.Postgres.Enabled || c.Storage.Redis.Enabled
}

func (c *Config) ReconnectDelay() time.Duration {
	return time.Duration(c.Stream.ReconnectDelayMs) * time.Millisecond
}

func (c *Config) DialTimeout() time.Duration {
	return time.Duration(c.Stream.DialTimeoutMs) * time.Millisecond
}

func (c *Config) PingInterval() time.Duration {
	return time.Duration(c.Stream.PingIntervalSec) * time.Second
}

func (c *Config) ReadTimeout() time.Duration {
	return time.Duration(c.Stream.ReadTimeoutSec) * time.Second
}

func (c *Config) DebounceDelay() time.Duration {
	return time.Duration(c.Lookup.DebounceMs) * time.Millisecond
}

func (c *Config) LookupTimeout() time.Duration {
	return time.Duration(c.Lookup.TimeoutMs) * time.Millisecond
}

func (c *Config) RenderEvery() time.Duration {
	return time.Duration(c.App.RenderEveryMs) * time.Millisecond
}

func (c *Config) RedisTTL() time.Duration {
	return time.Duration(c.Storage.Redis.TTLSeconds) * time.Second
}
