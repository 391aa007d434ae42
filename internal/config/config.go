package config

import (
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Supported storage backends.
const (
	BackendMemory = "memory"
	BackendFile   = "file"
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

var validBackends = []string{BackendMemory, BackendFile, BackendSQLite, BackendRedis}

type Config struct {
	// HTTP Server
	Host               string
	Port               string
	RateLimitPerMinute int
	ShutdownTimeout    time.Duration

	// Storage
	DataBackend  string
	DataFile     string
	SQLiteDBPath string

	// Redis
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	RedisPrefix   string

	// AMQP change events, disabled when AMQPURL is empty
	AMQPURL      string
	AMQPExchange string
	AMQPQueue    string

	// Dashboard view cache
	CacheSize int
	CacheTTL  time.Duration

	LogLevel string
}

// fileConfig mirrors the TOML layout. Pointers distinguish "unset" from
// a zero value so the file only overrides what it names.
type fileConfig struct {
	Server struct {
		Host               *string `toml:"host"`
		Port               *int    `toml:"port"`
		RateLimitPerMinute *int    `toml:"rate_limit_per_minute"`
		ShutdownTimeout    *string `toml:"shutdown_timeout"`
	} `toml:"server"`
	Storage struct {
		Backend    *string `toml:"backend"`
		DataFile   *string `toml:"data_file"`
		SQLitePath *string `toml:"sqlite_path"`
	} `toml:"storage"`
	Redis struct {
		Addr     *string `toml:"addr"`
		Password *string `toml:"password"`
		DB       *int    `toml:"db"`
		Prefix   *string `toml:"prefix"`
	} `toml:"redis"`
	AMQP struct {
		URL      *string `toml:"url"`
		Exchange *string `toml:"exchange"`
		Queue    *string `toml:"queue"`
	} `toml:"amqp"`
	Cache struct {
		Size *int    `toml:"size"`
		TTL  *string `toml:"ttl"`
	} `toml:"cache"`
	Log struct {
		Level *string `toml:"level"`
	} `toml:"log"`
}

// Default returns the configuration used when nothing else is set.
func Default() *Config {
	return &Config{
		Host:               "127.0.0.1",
		Port:               "8081",
		RateLimitPerMinute: 60,
		ShutdownTimeout:    10 * time.Second,

		DataBackend:  BackendFile,
		DataFile:     "./data/wallet.json",
		SQLiteDBPath: "./data/wallet.db",

		RedisAddr:   "localhost:6379",
		RedisPrefix: "wallet:",

		AMQPExchange: "wallet",
		AMQPQueue:    "ledger_changes",

		CacheSize: 128,
		CacheTTL:  time.Minute,

		LogLevel: "info",
	}
}

// Dir returns the XDG config directory for wallet.
func Dir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "wallet")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "wallet")
}

// Path returns the default config file location.
func Path() string {
	return filepath.Join(Dir(), "config.toml")
}

// Load layers defaults, the TOML file at path and the environment, in that
// order. An empty path means Path(); a missing default file is fine, a
// missing explicit one is an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = Path()
	}
	if err := cfg.applyFile(path); err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			err = nil
		}
		if err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyFile(path string) error {
	var f fileConfig
	if _, err := toml.DecodeFile(path, &f); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return err
		}
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	setString(&c.Host, f.Server.Host)
	if f.Server.Port != nil {
		c.Port = strconv.Itoa(*f.Server.Port)
	}
	setInt(&c.RateLimitPerMinute, f.Server.RateLimitPerMinute)
	if err := setDuration(&c.ShutdownTimeout, f.Server.ShutdownTimeout); err != nil {
		return fmt.Errorf("parse config %s: server.shutdown_timeout: %w", path, err)
	}

	setString(&c.DataBackend, f.Storage.Backend)
	setString(&c.DataFile, f.Storage.DataFile)
	setString(&c.SQLiteDBPath, f.Storage.SQLitePath)

	setString(&c.RedisAddr, f.Redis.Addr)
	setString(&c.RedisPassword, f.Redis.Password)
	setInt(&c.RedisDB, f.Redis.DB)
	setString(&c.RedisPrefix, f.Redis.Prefix)

	setString(&c.AMQPURL, f.AMQP.URL)
	setString(&c.AMQPExchange, f.AMQP.Exchange)
	setString(&c.AMQPQueue, f.AMQP.Queue)

	setInt(&c.CacheSize, f.Cache.Size)
	if err := setDuration(&c.CacheTTL, f.Cache.TTL); err != nil {
		return fmt.Errorf("parse config %s: cache.ttl: %w", path, err)
	}

	setString(&c.LogLevel, f.Log.Level)
	return nil
}

func (c *Config) applyEnv() {
	c.Host = getEnv("HOST", c.Host)
	c.Port = getEnv("PORT", c.Port)
	c.RateLimitPerMinute = getEnvInt("RATE_LIMIT_PER_MINUTE", c.RateLimitPerMinute)
	c.ShutdownTimeout = getEnvDuration("SHUTDOWN_TIMEOUT", c.ShutdownTimeout)

	c.DataBackend = getEnv("DATA_BACKEND", c.DataBackend)
	c.DataFile = getEnv("DATA_FILE", c.DataFile)
	c.SQLiteDBPath = getEnv("SQLITE_DB_PATH", c.SQLiteDBPath)

	c.RedisAddr = getEnv("REDIS_ADDR", c.RedisAddr)
	c.RedisPassword = getEnv("REDIS_PASSWORD", c.RedisPassword)
	c.RedisDB = getEnvInt("REDIS_DB", c.RedisDB)
	c.RedisPrefix = getEnv("REDIS_PREFIX", c.RedisPrefix)

	c.AMQPURL = getEnv("AMQP_URL", c.AMQPURL)
	c.AMQPExchange = getEnv("AMQP_EXCHANGE", c.AMQPExchange)
	c.AMQPQueue = getEnv("AMQP_QUEUE", c.AMQPQueue)

	c.CacheSize = getEnvInt("CACHE_SIZE", c.CacheSize)
	c.CacheTTL = getEnvDuration("CACHE_TTL", c.CacheTTL)

	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
}

// Addr returns the host:port the dashboard listens on.
func (c *Config) Addr() string {
	return net.JoinHostPort(c.Host, c.Port)
}

// Validate validates the configuration and returns every problem at once.
func (c *Config) Validate() error {
	var errs []string

	if port, err := strconv.Atoi(c.Port); err != nil {
		errs = append(errs, fmt.Sprintf("invalid port '%s': must be a number", c.Port))
	} else if port < 1 || port > 65535 {
		errs = append(errs, fmt.Sprintf("invalid port %d: must be between 1 and 65535", port))
	}

	if c.RateLimitPerMinute < 1 {
		errs = append(errs, fmt.Sprintf("invalid rate limit %d: must be at least 1 request per minute", c.RateLimitPerMinute))
	}

	switch c.DataBackend {
	case BackendMemory:
	case BackendFile:
		if c.DataFile == "" {
			errs = append(errs, "data file path cannot be empty when using file backend")
		}
	case BackendSQLite:
		if c.SQLiteDBPath == "" {
			errs = append(errs, "SQLite database path cannot be empty when using sqlite backend")
		}
	case BackendRedis:
		if c.RedisAddr == "" {
			errs = append(errs, "Redis address cannot be empty when using redis backend")
		}
		if c.RedisDB < 0 {
			errs = append(errs, fmt.Sprintf("invalid Redis database %d: must not be negative", c.RedisDB))
		}
	default:
		errs = append(errs, fmt.Sprintf("invalid data backend '%s': must be one of %v", c.DataBackend, validBackends))
	}

	if c.AMQPURL != "" {
		if parsedURL, err := url.Parse(c.AMQPURL); err != nil {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL '%s': %v", c.AMQPURL, err))
		} else if parsedURL.Scheme != "amqp" && parsedURL.Scheme != "amqps" {
			errs = append(errs, fmt.Sprintf("invalid AMQP URL scheme '%s': must be 'amqp' or 'amqps'", parsedURL.Scheme))
		}
		if c.AMQPExchange == "" {
			errs = append(errs, "AMQP exchange name cannot be empty when AMQP URL is provided")
		}
		if c.AMQPQueue == "" {
			errs = append(errs, "AMQP queue name cannot be empty when AMQP URL is provided")
		}
	}

	if c.CacheSize < 1 {
		errs = append(errs, fmt.Sprintf("invalid cache size %d: must be at least 1", c.CacheSize))
	}
	if c.CacheTTL < time.Second {
		errs = append(errs, fmt.Sprintf("invalid cache TTL %v: must be at least 1 second", c.CacheTTL))
	}

	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		errs = append(errs, fmt.Sprintf("invalid log level '%s': must be one of debug, info, warn, error", c.LogLevel))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n- %s", strings.Join(errs, "\n- "))
	}
	return nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func setDuration(dst *time.Duration, v *string) error {
	if v == nil {
		return nil
	}
	d, err := time.ParseDuration(*v)
	if err != nil {
		return err
	}
	*dst = d
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
