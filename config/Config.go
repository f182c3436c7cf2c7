// Package config loads the configuration of a training run from a
// file, with defaults for every key and environment variable overrides
// prefixed with A3C_, e.g. A3C_A3C_WORKERS=8 or A3C_LOGGING_LEVEL=debug.
package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
	"go.uber.org/zap/zapcore"
	"gopkg.in/yaml.v3"

	"github.com/samuelfneumann/goa3c/agent/a3c"
	"github.com/samuelfneumann/goa3c/environment/envconfig"
)

// EnvPrefix prefixes the environment variables that override
// configuration keys
const EnvPrefix = "A3C"

// LoggingConfig configures the logger
type LoggingConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Development bool   `mapstructure:"development" yaml:"development"`
}

// MetricsConfig configures the Prometheus metrics endpoint
type MetricsConfig struct {
	// Address is the listen address of the endpoint, empty disables it
	Address string `mapstructure:"address" yaml:"address"`
}

// OutputConfig configures what a run saves
type OutputConfig struct {
	// Dir is the directory under which each run gets its own directory
	Dir string `mapstructure:"dir" yaml:"dir"`

	// CheckpointEvery is the number of episodes between checkpoints of
	// the global network, 0 only saves the final network
	CheckpointEvery int `mapstructure:"checkpoint_every" yaml:"checkpoint_every"`
}

// Config wraps the entire configuration of a training run
type Config struct {
	A3C     a3c.Config       `mapstructure:"a3c" yaml:"a3c"`
	Env     envconfig.Config `mapstructure:"env" yaml:"env"`
	Logging LoggingConfig    `mapstructure:"logging" yaml:"logging"`
	Metrics MetricsConfig    `mapstructure:"metrics" yaml:"metrics"`
	Output  OutputConfig     `mapstructure:"output" yaml:"output"`
}

// Default returns the default configuration
func Default() Config {
	return Config{
		A3C:     a3c.DefaultConfig(),
		Env:     envconfig.Default(),
		Logging: LoggingConfig{Level: "info"},
		Output:  OutputConfig{Dir: "runs", CheckpointEvery: 500},
	}
}

// Load loads the config from the file path on top of the defaults.
// Environment variables override the values of both. An empty path
// loads the defaults and environment variables only.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Every key must be known to viper for environment variables to
	// override it, so the defaults are read as a config of their own
	defaults, err := yaml.Marshal(Default())
	if err != nil {
		return nil, fmt.Errorf("load: could not encode defaults: %w", err)
	}
	v.SetConfigType("yaml")
	if err := v.ReadConfig(bytes.NewReader(defaults)); err != nil {
		return nil, fmt.Errorf("load: could not read defaults: %w", err)
	}

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType(strings.TrimPrefix(filepath.Ext(path), "."))
		if err := v.MergeInConfig(); err != nil {
			return nil, fmt.Errorf("load: could not read %v: %w", path, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("load: could not decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	return cfg, nil
}

// Validate returns an error if the configuration is invalid
func (c Config) Validate() error {
	if err := c.A3C.Validate(); err != nil {
		return fmt.Errorf("a3c: %w", err)
	}
	if err := c.Env.Validate(); err != nil {
		return fmt.Errorf("env: %w", err)
	}
	if _, err := zapcore.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("logging: %w", err)
	}
	if c.Output.Dir == "" {
		return fmt.Errorf("output: no directory")
	}
	if c.Output.CheckpointEvery < 0 {
		return fmt.Errorf("output: checkpoint_every must be non-negative, "+
			"got %d", c.Output.CheckpointEvery)
	}
	return nil
}

// Save writes the configuration as YAML to path
func (c Config) Save(path string) error {
	out, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("save: could not encode config: %w", err)
	}
	if err := os.WriteFile(path, out, 0o644); err != nil {
		return fmt.Errorf("save: %w", err)
	}
	return nil
}
