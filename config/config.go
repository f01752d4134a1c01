// Package config loads server configuration.
//
// Order of precedence, lowest first:
//  1. built-in defaults
//  2. the YAML file named by CONFIG_FILE, if any
//  3. environment variables (a .env file is loaded into the environment first)
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"bugtrack/auth"
	"bugtrack/logger"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
	DriverMemory   = "memory"
)

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Storage   StorageConfig   `yaml:"storage"`
	Redis     RedisConfig     `yaml:"redis"`
	Auth      auth.Config     `yaml:"auth"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Log       logger.Config   `yaml:"log"`
}

type ServerConfig struct {
	Port         string        `yaml:"port"`
	GinMode      string        `yaml:"gin_mode"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

type StorageConfig struct {
	Driver        string `yaml:"driver"`
	DatabaseURL   string `yaml:"database_url"`
	MongoURI      string `yaml:"mongo_uri"`
	MongoDatabase string `yaml:"mongo_database"`
}

type RedisConfig struct {
	// URL is optional; without it rate limiting stays in process.
	URL string `yaml:"url"`
}

type RateLimitConfig struct {
	Requests int           `yaml:"requests"`
	Window   time.Duration `yaml:"window"`
}

func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         "8080",
			GinMode:      "release",
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
		},
		Storage: StorageConfig{
			Driver:        DriverPostgres,
			MongoDatabase: "bugtrack",
		},
		Auth: auth.DefaultConfig(),
		RateLimit: RateLimitConfig{
			Requests: 10,
			Window:   time.Minute,
		},
		Log: logger.Config{
			Level:      "info",
			Production: true,
		},
	}
}

// Load reads .env, the optional YAML file and the environment, then
// validates the result.
func Load() (*Config, error) {
	godotenv.Load()

	cfg := Default()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	setString(&c.Server.Port, "PORT")
	setString(&c.Server.GinMode, "GIN_MODE")
	setString(&c.Storage.Driver, "STORAGE_DRIVER")
	setString(&c.Storage.DatabaseURL, "DATABASE_URL")
	setString(&c.Storage.MongoURI, "MONGO_URI")
	setString(&c.Storage.MongoDatabase, "MONGO_DATABASE")
	setString(&c.Redis.URL, "REDIS_URL")
	setString(&c.Auth.JWTSecret, "JWT_SECRET")
	setString(&c.Log.Level, "LOG_LEVEL")
	setString(&c.Log.File, "LOG_FILE")

	if v := os.Getenv("APP_ENV"); v != "" {
		c.Log.Production = v == "production" || v == "prod"
	}
	if v := os.Getenv("JWT_EXPIRES_IN"); v != "" {
		d, err := ParseDuration(v)
		if err != nil {
			return fmt.Errorf("JWT_EXPIRES_IN: %w", err)
		}
		c.Auth.TokenTTL = d
	}
	if v := os.Getenv("RATE_LIMIT_WINDOW"); v != "" {
		d, err := ParseDuration(v)
		if err != nil {
			return fmt.Errorf("RATE_LIMIT_WINDOW: %w", err)
		}
		c.RateLimit.Window = d
	}
	if err := setInt(&c.Auth.BcryptCost, "BCRYPT_COST"); err != nil {
		return err
	}
	if err := setInt(&c.RateLimit.Requests, "RATE_LIMIT_REQUESTS"); err != nil {
		return err
	}
	return nil
}

// Validate rejects configurations the server cannot start with.
func (c *Config) Validate() error {
	switch c.Storage.Driver {
	case DriverPostgres:
		if c.Storage.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres driver")
		}
	case DriverMongo:
		if c.Storage.MongoURI == "" {
			return fmt.Errorf("MONGO_URI is required for the mongo driver")
		}
	case DriverMemory:
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}

	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("JWT_SECRET is required")
	}
	if c.Auth.TokenTTL <= 0 {
		return fmt.Errorf("token lifetime must be positive")
	}
	if c.Auth.BcryptCost < 4 || c.Auth.BcryptCost > 31 {
		return fmt.Errorf("bcrypt cost %d out of range", c.Auth.BcryptCost)
	}
	if c.RateLimit.Requests <= 0 || c.RateLimit.Window <= 0 {
		return fmt.Errorf("rate limit requires positive requests and window")
	}
	return nil
}

// ParseDuration accepts time.ParseDuration syntax plus a whole-day "d"
// suffix, so "7d" and "168h" are equivalent.
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if days, ok := strings.CutSuffix(s, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil {
			return 0, fmt.Errorf("invalid duration %q", s)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	return time.ParseDuration(s)
}

func setString(dst *string, key string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func setInt(dst *int, key string) error {
	v := os.Getenv(key)
	if v == "" {
		return nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fmt.Errorf("%s: %w", key, err)
	}
	*dst = n
	return nil
}
