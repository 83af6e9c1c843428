package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/spf13/viper"

	"news-alerts/internal/logging"
)

// Config materialises application configuration.
type Config struct {
	App      AppConfig      `mapstructure:"app"`
	Logging  logging.Config `mapstructure:"logging"`
	API      APIConfig      `mapstructure:"api"`
	Polling  PollingConfig  `mapstructure:"polling"`
	Watch    WatchConfig    `mapstructure:"watch"`
	Telegram TelegramConfig `mapstructure:"telegram"`
	State    StateConfig    `mapstructure:"state"`
	Database DatabaseConfig `mapstructure:"database"`
	Export   ExportConfig   `mapstructure:"export"`
}

// AppConfig general metadata.
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Environment string `mapstructure:"environment"`
}

// APIConfig covers the upstream news REST API.
type APIConfig struct {
	BaseURL   string        `mapstructure:"base_url"`
	Timeout   time.Duration `mapstructure:"timeout"`
	PageLimit int           `mapstructure:"page_limit"`
	UserAgent string        `mapstructure:"user_agent"`
}

// PollingConfig governs poll cadence.
type PollingConfig struct {
	Interval     time.Duration `mapstructure:"interval"`
	StartupDelay time.Duration `mapstructure:"startup_delay"`
}

// WatchConfig is the watch-list: keywords matched against incoming articles.
type WatchConfig struct {
	Symbols    []string `mapstructure:"symbols"`
	Topics     []string `mapstructure:"topics"`
	EventTypes []string `mapstructure:"event_types"`
}

// TelegramConfig describes alert delivery parameters.
type TelegramConfig struct {
	Enabled      bool                `mapstructure:"enabled"`
	BotToken     string              `mapstructure:"bot_token"`
	APIBase      string              `mapstructure:"api_base"`
	Timeout      time.Duration       `mapstructure:"timeout"`
	Destinations []DestinationConfig `mapstructure:"destinations"`
}

// DestinationConfig is one chat target, optionally a forum thread.
type DestinationConfig struct {
	ChatID   string `mapstructure:"chat_id"`
	ThreadID int64  `mapstructure:"thread_id"`
}

// StateConfig selects and parameterises the state backend.
type StateConfig struct {
	Backend  string      `mapstructure:"backend"`
	Path     string      `mapstructure:"path"`
	Capacity int         `mapstructure:"capacity"`
	Redis    RedisConfig `mapstructure:"redis"`
}

// RedisConfig covers the Redis state backend.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Key      string `mapstructure:"key"`
}

// DatabaseConfig encapsulates the optional PostgreSQL alert archive.
type DatabaseConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// ExportConfig sets CLI export behaviour.
type ExportConfig struct {
	MaxDataPoints int `mapstructure:"max_data_points"`
}

// Load builds configuration from file, environment, and defaults.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix("NEWSWATCHER")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}

	if err := readConfig(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, decodeHook()); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func readConfig(v *viper.Viper) error {
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			return nil
		}
		return fmt.Errorf("read config: %w", err)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.name", "newswatcher")
	v.SetDefault("app.environment", "development")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "json")

	v.SetDefault("api.timeout", "30s")
	v.SetDefault("api.page_limit", 100)
	v.SetDefault("api.user_agent", "newswatcher/1.0")

	v.SetDefault("polling.interval", "60s")
	v.SetDefault("polling.startup_delay", "0s")

	v.SetDefault("telegram.enabled", false)
	v.SetDefault("telegram.api_base", "https://api.telegram.org")
	v.SetDefault("telegram.timeout", "10s")

	v.SetDefault("state.backend", "file")
	v.SetDefault("state.path", "state.json")
	v.SetDefault("state.capacity", 1000)
	v.SetDefault("state.redis.addr", "localhost:6379")
	v.SetDefault("state.redis.key", "newswatcher:state")

	v.SetDefault("database.max_open_conns", 10)
	v.SetDefault("database.max_idle_conns", 5)
	v.SetDefault("database.conn_max_lifetime", "30m")

	v.SetDefault("export.max_data_points", 100000)
}

func decodeHook() viper.DecoderConfigOption {
	return func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "mapstructure"
		dc.DecodeHook = mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToSliceHookFunc(","),
		)
	}
}

// Validate performs basic sanity checks on the configuration values.
func (c *Config) Validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("api.base_url must be configured")
	}
	if c.API.PageLimit <= 0 {
		return fmt.Errorf("api.page_limit must be greater than zero")
	}
	if c.Polling.Interval <= 0 {
		return fmt.Errorf("polling.interval must be greater than zero")
	}
	if len(c.Watch.Symbols)+len(c.Watch.Topics)+len(c.Watch.EventTypes) == 0 {
		return fmt.Errorf("watch list is empty; configure watch.symbols, watch.topics, or watch.event_types")
	}
	switch c.State.Backend {
	case "file":
		if c.State.Path == "" {
			return fmt.Errorf("state.path must be configured for the file backend")
		}
	case "redis":
		if c.State.Redis.Addr == "" {
			return fmt.Errorf("state.redis.addr must be configured for the redis backend")
		}
	default:
		return fmt.Errorf("state.backend must be file or redis, got %q", c.State.Backend)
	}
	if c.State.Capacity <= 0 {
		return fmt.Errorf("state.capacity must be greater than zero")
	}
	if c.Telegram.Enabled {
		if c.Telegram.BotToken == "" {
			return fmt.Errorf("telegram.bot_token must be configured")
		}
		if len(c.Telegram.Destinations) == 0 {
			return fmt.Errorf("telegram.destinations must contain at least one chat")
		}
		for i, dest := range c.Telegram.Destinations {
			if dest.ChatID == "" {
				return fmt.Errorf("telegram.destinations[%d].chat_id must be configured", i)
			}
		}
	}
	if c.Export.MaxDataPoints <= 0 {
		return fmt.Errorf("export.max_data_points must be greater than zero")
	}
	return nil
}

// ResolveMaxPoints returns either the CLI override or config default.
func (c *Config) ResolveMaxPoints(override int) int {
	if override > 0 {
		return override
	}
	return c.Export.MaxDataPoints
}
