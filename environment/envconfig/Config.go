// Package envconfig provides configuration structs for configuring the
// environments that workers train in. Environment configurations in
// this package can be loaded with viper and saved as YAML.
package envconfig

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/samuelfneumann/goa3c/agent/a3c"
	"github.com/samuelfneumann/goa3c/backbone"
	env "github.com/samuelfneumann/goa3c/environment"
	"github.com/samuelfneumann/goa3c/environment/cartpole"
	"github.com/samuelfneumann/goa3c/environment/remote"
	"github.com/samuelfneumann/goa3c/environment/wrappers"
)

// EnvName stores the name of environments that can be configured with
// this package
type EnvName string

// Environments available for configuration
const (
	Remote   EnvName = "remote"
	Gym      EnvName = "gym"
	Cartpole EnvName = "cartpole"
)

// GymConfig configures an OpenAI Gym environment
type GymConfig struct {
	Name     string  `mapstructure:"name" yaml:"name"`
	Discount float64 `mapstructure:"discount" yaml:"discount"`
}

// CartpoleConfig configures the Cartpole Balance task
type CartpoleConfig struct {
	EpisodeCutoff int     `mapstructure:"episode_cutoff" yaml:"episode_cutoff"`
	Discount      float64 `mapstructure:"discount" yaml:"discount"`
}

// Config implements a specific configuration of a specific environment.
// Only the section of the configured environment is used. Frames of
// remote environments are turned into features by the backbone.
type Config struct {
	Environment EnvName         `mapstructure:"environment" yaml:"environment"`
	Remote      remote.Config   `mapstructure:"remote" yaml:"remote"`
	Gym         GymConfig       `mapstructure:"gym" yaml:"gym"`
	Cartpole    CartpoleConfig  `mapstructure:"cartpole" yaml:"cartpole"`
	Backbone    backbone.Config `mapstructure:"backbone" yaml:"backbone"`
}

// Default returns the configuration of a remote game server returning
// frames, with a VGG16 backbone
func Default() Config {
	return Config{
		Environment: Remote,
		Remote:      remote.DefaultConfig(),
		Gym:         GymConfig{Name: "CartPole-v1", Discount: 1.0},
		Cartpole:    CartpoleConfig{EpisodeCutoff: 500, Discount: 1.0},
		Backbone:    backbone.DefaultConfig(),
	}
}

// Frames returns whether the configured environment returns frames
func (c Config) Frames() bool {
	return c.Environment == Remote && c.Remote.Frames()
}

// Validate returns an error if the configuration is invalid
func (c Config) Validate() error {
	switch c.Environment {
	case Remote:
		if err := c.Remote.Validate(); err != nil {
			return fmt.Errorf("validate: remote: %w", err)
		}
		if c.Frames() {
			if err := c.Backbone.Validate(); err != nil {
				return fmt.Errorf("validate: backbone: %w", err)
			}
		}

	case Gym:
		if c.Gym.Name == "" {
			return fmt.Errorf("validate: gym: no environment name")
		}
		if c.Gym.Discount < 0 || c.Gym.Discount > 1 {
			return fmt.Errorf("validate: gym: discount must be in [0, 1], "+
				"got %v", c.Gym.Discount)
		}

	case Cartpole:
		if c.Cartpole.EpisodeCutoff <= 0 {
			return fmt.Errorf("validate: cartpole: episode cutoff must be "+
				"positive, got %d", c.Cartpole.EpisodeCutoff)
		}
		if c.Cartpole.Discount < 0 || c.Cartpole.Discount > 1 {
			return fmt.Errorf("validate: cartpole: discount must be in "+
				"[0, 1], got %v", c.Cartpole.Discount)
		}

	default:
		return fmt.Errorf("validate: no such environment %q", c.Environment)
	}
	return nil
}

// Create returns the environment described by the Config. Remote
// environments stop retrying requests when ctx is cancelled.
func (c Config) Create(ctx context.Context, seed uint64,
	logger *zap.Logger) (env.Environment, error) {
	switch c.Environment {
	case Remote:
		return remote.New(ctx, c.Remote, logger)

	case Gym:
		return newGym(c.Gym, seed)

	case Cartpole:
		e, _ := cartpole.NewDefault(c.Cartpole.EpisodeCutoff,
			c.Cartpole.Discount, seed)
		return e, nil
	}

	return nil, fmt.Errorf("create: no such environment %q", c.Environment)
}

// Factory returns an a3c.EnvFactory creating the environment of worker
// i with seed seed+i. If the environment returns frames, the backbone
// weights are loaded once and each worker gets its own extractor.
func (c Config) Factory(seed uint64, logger *zap.Logger) (a3c.EnvFactory,
	error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("factory: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	var weights *backbone.Weights
	if c.Frames() {
		var err error
		if weights, err = c.Backbone.Load(); err != nil {
			return nil, fmt.Errorf("factory: %w", err)
		}
		if c.Backbone.Weights == "" {
			logger.Warn("backbone weights are random, set " +
				"env.backbone.weights to a weights file")
		}
		logger.Info("loaded backbone",
			zap.Int("layers", len(weights.Architecture)),
			zap.Int("features", weights.Architecture.OutputSize(
				weights.InputSize)),
		)
	}

	return func(ctx context.Context, worker int) (env.Environment, error) {
		e, err := c.Create(ctx, seed+uint64(worker),
			logger.With(zap.Int("env", worker)))
		if err != nil {
			return nil, err
		}
		if weights == nil {
			return e, nil
		}

		extractor, err := backbone.New(weights)
		if err != nil {
			e.Close()
			return nil, err
		}
		return wrappers.Wrap(e, extractor), nil
	}, nil
}
