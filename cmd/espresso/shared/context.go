// Package shared holds the context passed to all CLI commands.
package shared

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/sakif/espresso-self/internal/config"
)

// Context carries global CLI state (flags set on the root command).
type Context struct {
	// ConfigPath is an optional YAML config file. Environment variables
	// (and a .env file) override whatever it sets.
	ConfigPath string
	// EnvFile is the dotenv file loaded before reading the environment.
	EnvFile string

	// lookupEnv defaults to os.LookupEnv.
	lookupEnv func(string) (string, bool)
}

// LoadConfig resolves the configuration: defaults → --config file → .env
// → environment → overrides (command flags), then validates it. Overrides
// run before Validate so flag values are range-checked and derived fields
// see them.
func (c *Context) LoadConfig(overrides ...func(*config.Config)) (*config.Config, error) {
	if err := config.LoadDotEnv(c.EnvFile); err != nil {
		return nil, err
	}

	cfg, err := config.Load(c.ConfigPath)
	if err != nil {
		return nil, err
	}
	lookup := c.lookupEnv
	if lookup == nil {
		lookup = os.LookupEnv
	}
	if err := cfg.ApplyEnv(lookup); err != nil {
		return nil, err
	}
	for _, apply := range overrides {
		apply(cfg)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// NewLogger builds the process logger at cfg.LogLevel.
func NewLogger(w io.Writer, cfg *config.Config) (*slog.Logger, error) {
	level, err := config.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("log level: %w", err)
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})), nil
}
