// Package config loads the server configuration.
//
// Precedence, lowest to highest: Default() → YAML file → environment
// variables. A .env file in the working directory is read into the
// environment first, so it behaves like real environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Store drivers.
const (
	DriverSQLite = "sqlite"
	DriverMongo  = "mongo"
)

// Session store backends.
const (
	SessionMemory = "memory"
	SessionRedis  = "redis"
)

// StoreConfig selects and configures the document store.
type StoreConfig struct {
	Driver        string `yaml:"driver"` // "sqlite" | "mongo"
	SQLitePath    string `yaml:"sqlite_path"`
	MongoURI      string `yaml:"mongo_uri"`
	MongoDatabase string `yaml:"mongo_database"`
}

// SessionConfig configures login sessions.
type SessionConfig struct {
	Secret       string        `yaml:"secret"` // empty → random per-process secret
	TTL          time.Duration `yaml:"ttl"`
	Store        string        `yaml:"store"` // "memory" | "redis"
	RedisURL     string        `yaml:"redis_url"`
	SecureCookie bool          `yaml:"secure_cookie"`
}

// PasswordConfig configures bcrypt.
type PasswordConfig struct {
	Cost int `yaml:"cost"`
}

// GitHubConfig enables "Sign in with GitHub" when ClientID is set.
type GitHubConfig struct {
	ClientID     string `yaml:"client_id"`
	ClientSecret string `yaml:"client_secret"`
	CallbackURL  string `yaml:"callback_url"`
}

// Enabled reports whether GitHub sign-in is configured.
func (g GitHubConfig) Enabled() bool {
	return g.ClientID != "" && g.ClientSecret != ""
}

// SeedConfig configures `espresso seed`.
type SeedConfig struct {
	Dir string `yaml:"dir"` // empty → embedded fixtures
}

// Config is the root configuration.
type Config struct {
	Port     int            `yaml:"port"`
	LogLevel string         `yaml:"log_level"`
	Store    StoreConfig    `yaml:"store"`
	Session  SessionConfig  `yaml:"session"`
	Password PasswordConfig `yaml:"password"`
	GitHub   GitHubConfig   `yaml:"github"`
	Seed     SeedConfig     `yaml:"seed"`
}

// Default returns a Config populated with defaults that run the site
// locally with no external services.
func Default() *Config {
	return &Config{
		Port:     3000,
		LogLevel: "info",
		Store: StoreConfig{
			Driver:        DriverSQLite,
			SQLitePath:    "data/espresso.db",
			MongoURI:      "mongodb://127.0.0.1:27017",
			MongoDatabase: "EspressoSelf",
		},
		Session: SessionConfig{
			TTL:      24 * time.Hour,
			Store:    SessionMemory,
			RedisURL: "redis://127.0.0.1:6379/0",
		},
		Password: PasswordConfig{Cost: 10},
	}
}

// Load reads a YAML config file on top of Default(). An empty path, or a
// path that does not exist, returns the defaults. Keys missing from the
// file keep their default values.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}
	return cfg, nil
}

// LoadDotEnv reads .env-style files into the process environment. Variables
// already set win. Missing files are ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if _, err := os.Stat(f); os.IsNotExist(err) {
			continue
		}
		if err := godotenv.Load(f); err != nil {
			return fmt.Errorf("config: loading %s: %w", f, err)
		}
	}
	return nil
}

// ApplyEnv overlays environment variables onto cfg. lookup is normally
// os.LookupEnv; tests pass a map-backed function.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) error {
	var errs []error

	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) {
		if v, ok := lookup(key); ok && v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %q is not a number", key, v))
				return
			}
			*dst = n
		}
	}
	dur := func(key string, dst *time.Duration) {
		if v, ok := lookup(key); ok && v != "" {
			d, err := time.ParseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %q is not a duration", key, v))
				return
			}
			*dst = d
		}
	}
	flag := func(key string, dst *bool) {
		if v, ok := lookup(key); ok && v != "" {
			b, err := strconv.ParseBool(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %q is not a boolean", key, v))
				return
			}
			*dst = b
		}
	}

	num("PORT", &c.Port)
	str("LOG_LEVEL", &c.LogLevel)

	str("STORE_DRIVER", &c.Store.Driver)
	str("SQLITE_PATH", &c.Store.SQLitePath)
	str("MONGO_URI", &c.Store.MongoURI)
	str("MONGO_DATABASE", &c.Store.MongoDatabase)

	str("SESSION_SECRET", &c.Session.Secret)
	dur("SESSION_TTL", &c.Session.TTL)
	str("SESSION_STORE", &c.Session.Store)
	str("REDIS_URL", &c.Session.RedisURL)
	flag("SESSION_SECURE_COOKIE", &c.Session.SecureCookie)

	num("BCRYPT_COST", &c.Password.Cost)

	str("GITHUB_CLIENT_ID", &c.GitHub.ClientID)
	str("GITHUB_CLIENT_SECRET", &c.GitHub.ClientSecret)
	str("GITHUB_CALLBACK_URL", &c.GitHub.CallbackURL)

	str("SEED_DIR", &c.Seed.Dir)

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// Validate checks the configuration is usable and fills in values derived
// from other fields.
func (c *Config) Validate() error {
	var errs []error

	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range", c.Port))
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}

	switch c.Store.Driver {
	case DriverSQLite:
		if c.Store.SQLitePath == "" {
			errs = append(errs, errors.New("store.sqlite_path is required for the sqlite driver"))
		}
	case DriverMongo:
		if c.Store.MongoURI == "" || c.Store.MongoDatabase == "" {
			errs = append(errs, errors.New("store.mongo_uri and store.mongo_database are required for the mongo driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store driver %q", c.Store.Driver))
	}

	switch c.Session.Store {
	case SessionMemory:
	case SessionRedis:
		if c.Session.RedisURL == "" {
			errs = append(errs, errors.New("session.redis_url is required for the redis session store"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown session store %q", c.Session.Store))
	}

	if c.Session.TTL <= 0 {
		errs = append(errs, errors.New("session.ttl must be positive"))
	}
	if c.Session.Secret != "" && len(c.Session.Secret) < 16 {
		errs = append(errs, errors.New("session.secret must be at least 16 characters"))
	}

	if c.GitHub.Enabled() && c.GitHub.CallbackURL == "" {
		c.GitHub.CallbackURL = fmt.Sprintf("http://localhost:%d/auth/github/callback", c.Port)
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return nil
}

// ParseLevel maps a level name to a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	}
	return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
}
