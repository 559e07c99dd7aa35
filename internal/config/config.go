package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// ConfigPathEnvVar overrides the YAML config file location.
const ConfigPathEnvVar = "CONFIG_PATH"

// DefaultConfigPath is read when present and CONFIG_PATH is unset.
const DefaultConfigPath = "config.yaml"

const (
	DriverMySQL  = "mysql"
	DriverSQLite = "sqlite"
)

// Config holds application level configuration.
type Config struct {
	ServerPort string `koanf:"server_port"`

	DBDriver   string `koanf:"db_driver"`
	MySQLDSN   string `koanf:"mysql_dsn"`
	SQLitePath string `koanf:"sqlite_path"`
	ResetDB    bool   `koanf:"reset_db"`

	RedisAddr string `koanf:"redis_addr"`
	RedisDB   int    `koanf:"redis_db"`
	RedisPass string `koanf:"redis_password"`

	JWTSecret  string        `koanf:"jwt_secret"`
	TokenTTL   time.Duration `koanf:"token_ttl"`
	BcryptCost int           `koanf:"bcrypt_cost"`

	// AppTimezone is the fallback zone for users without one.
	AppTimezone    string `koanf:"app_timezone"`
	DefaultPerPage int    `koanf:"default_per_page"`
	MaxPerPage     int    `koanf:"max_per_page"`

	LogLevel  string `koanf:"log_level"`
	LogFormat string `koanf:"log_format"`

	SwaggerHost string `koanf:"swagger_host"`
}

func defaultConfig() *Config {
	return &Config{
		ServerPort:     "8080",
		DBDriver:       DriverMySQL,
		MySQLDSN:       "user:password@tcp(localhost:3306)/moodtracker?charset=utf8mb4&parseTime=True&loc=UTC",
		SQLitePath:     "data/moodtracker.db",
		RedisAddr:      "localhost:6379",
		JWTSecret:      "change-me",
		TokenTTL:       30 * 24 * time.Hour,
		BcryptCost:     10,
		AppTimezone:    "UTC",
		DefaultPerPage: 15,
		MaxPerPage:     100,
		LogLevel:       "info",
		LogFormat:      "json",
	}
}

// Load builds Config from defaults, an optional YAML file and the environment,
// in increasing order of priority.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("load config file %s: %w", path, err)
		}
	}

	// SERVER_PORT -> server_port
	if err := k.Load(env.Provider("", ".", strings.ToLower), nil); err != nil {
		return nil, fmt.Errorf("load environment: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

func findConfigFile() string {
	if path := os.Getenv(ConfigPathEnvVar); path != "" {
		return path
	}
	if _, err := os.Stat(DefaultConfigPath); err == nil {
		return DefaultConfigPath
	}
	return ""
}

// Validate checks values that would otherwise fail at first use.
func (c *Config) Validate() error {
	var errs []error

	switch c.DBDriver {
	case DriverMySQL:
		if c.MySQLDSN == "" {
			errs = append(errs, errors.New("mysql_dsn is required for the mysql driver"))
		}
	case DriverSQLite:
		if c.SQLitePath == "" {
			errs = append(errs, errors.New("sqlite_path is required for the sqlite driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unsupported db_driver %q", c.DBDriver))
	}

	if c.JWTSecret == "" {
		errs = append(errs, errors.New("jwt_secret must not be empty"))
	}
	if c.TokenTTL <= 0 {
		errs = append(errs, errors.New("token_ttl must be positive"))
	}
	if _, err := time.LoadLocation(c.AppTimezone); err != nil {
		errs = append(errs, fmt.Errorf("app_timezone %q: %w", c.AppTimezone, err))
	}
	if c.DefaultPerPage < 1 || c.MaxPerPage < c.DefaultPerPage {
		errs = append(errs, errors.New("default_per_page must be between 1 and max_per_page"))
	}

	return errors.Join(errs...)
}

// Location returns the fallback zone. Validate guarantees it loads.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.AppTimezone)
	if err != nil {
		return time.UTC
	}
	return loc
}
