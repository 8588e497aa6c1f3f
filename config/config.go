package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Bybit    BybitConfig    `mapstructure:"bybit"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Log      LogConfig      `mapstructure:"log"`
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
}

type BybitConfig struct {
	REST RESTConfig `mapstructure:"rest"`
	WS   WSConfig   `mapstructure:"ws"`
}

type RESTConfig struct {
	BaseURL  string        `mapstructure:"base_url"`
	Timeout  time.Duration `mapstructure:"timeout"`
	Category string        `mapstructure:"category"` // "linear", "spot", "inverse"
	Warmup   time.Duration `mapstructure:"warmup"`   // how much kline history to load at start
}

type WSConfig struct {
	URL          string        `mapstructure:"url"`
	Timeout      time.Duration `mapstructure:"timeout"`
	Interval     string        `mapstructure:"interval"`
	PingInterval time.Duration `mapstructure:"ping_interval"`
}

// CacheConfig sizes the in-memory record caches. Every limit must be positive.
type CacheConfig struct {
	KlinesLimit     int           `mapstructure:"klines_limit"` // per symbol and interval
	TradesLimit     int           `mapstructure:"trades_limit"` // shared by all symbols
	OrdersLimit     int           `mapstructure:"orders_limit"` // shared by all symbols
	PublishInterval time.Duration `mapstructure:"publish_interval"`
	StatusInterval  time.Duration `mapstructure:"status_interval"`
}

// Options defines the logger configuration options.
type LogConfig struct {
	Level       string `mapstructure:"level"`       // log level: "debug", "info", "warn", "error"
	Format      string `mapstructure:"format"`      // log format: "json" or "console"
	OutputFile  string `mapstructure:"output_file"` // file path to store logs (optional)
	Environment string `mapstructure:"environment"` // environment: "dev" or "prod"

	// rotation of OutputFile
	MaxSizeMB  int  `mapstructure:"max_size_mb"`
	MaxBackups int  `mapstructure:"max_backups"`
	MaxAgeDays int  `mapstructure:"max_age_days"`
	Compress   bool `mapstructure:"compress"`
}

// RedisConfig enables publishing cache windows to Redis.
type RedisConfig struct {
	Enabled  bool          `mapstructure:"enabled"`
	Addr     string        `mapstructure:"addr"`
	Password string        `mapstructure:"password"`
	DB       int           `mapstructure:"db"`
	Prefix   string        `mapstructure:"prefix"`
	TTL      time.Duration `mapstructure:"ttl"`
}

// Load loads application configuration using Viper.
// It reads config.yaml from dir (or the default config directory when dir is empty)
// and overrides it with environment variables.
func Load(dir string) (*Config, error) {
	v := viper.New()

	v.SetConfigName("config") // config.yaml
	v.SetConfigType("yaml")

	if dir == "" {
		dir = defaultConfigDir()
	}
	v.AddConfigPath(dir)

	// Support environment variables with dot notation (e.g., BYBIT_WS_URL)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func defaultConfigDir() string {
	ex, _ := os.Executable()
	if strings.Contains(ex, "go-build") {
		pwd, _ := os.Getwd()
		return filepath.Join(pwd, "../../config")
	}
	return filepath.Join(filepath.Dir(ex), "../config")
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("bybit.rest.base_url", "https://api.bybit.com")
	v.SetDefault("bybit.rest.timeout", 10*time.Second)
	v.SetDefault("bybit.rest.category", "linear")
	v.SetDefault("bybit.rest.warmup", 4*time.Hour)
	v.SetDefault("bybit.ws.url", "wss://stream.bybit.com/v5/public/linear")
	v.SetDefault("bybit.ws.interval", "1")
	v.SetDefault("bybit.ws.ping_interval", 20*time.Second)

	v.SetDefault("cache.klines_limit", 1000)
	v.SetDefault("cache.trades_limit", 1000)
	v.SetDefault("cache.orders_limit", 1000)
	v.SetDefault("cache.publish_interval", 5*time.Second)
	v.SetDefault("cache.status_interval", 5*time.Second)

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("log.environment", "dev")
	v.SetDefault("log.max_size_mb", 10)
	v.SetDefault("log.max_backups", 5)
	v.SetDefault("log.max_age_days", 7)
	v.SetDefault("log.compress", true)

	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.prefix", "streamcache")
}

// Validate rejects configurations the collector cannot run with.
func (c *Config) Validate() error {
	if c.Cache.KlinesLimit <= 0 {
		return fmt.Errorf("cache.klines_limit must be positive, got %d", c.Cache.KlinesLimit)
	}
	if c.Cache.TradesLimit <= 0 {
		return fmt.Errorf("cache.trades_limit must be positive, got %d", c.Cache.TradesLimit)
	}
	if c.Cache.OrdersLimit <= 0 {
		return fmt.Errorf("cache.orders_limit must be positive, got %d", c.Cache.OrdersLimit)
	}
	if c.Cache.PublishInterval <= 0 || c.Cache.StatusInterval <= 0 {
		return errors.New("cache.publish_interval and cache.status_interval must be positive")
	}
	if strings.TrimSpace(c.Bybit.WS.URL) == "" {
		return errors.New("bybit.ws.url is empty")
	}
	if c.Redis.Enabled && strings.TrimSpace(c.Redis.Addr) == "" {
		return errors.New("redis.addr empty but enabled")
	}
	return nil
}
