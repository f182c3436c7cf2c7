package backbone

import "fmt"

// Config describes the weights of a backbone
type Config struct {
	// Weights is the path of gob-encoded Weights. If empty, random
	// weights are drawn for Architecture.
	Weights string `mapstructure:"weights" yaml:"weights"`

	Architecture Architecture `mapstructure:"architecture" yaml:"architecture"`
	InputSize    int          `mapstructure:"input_size" yaml:"input_size"`
	Seed         uint64       `mapstructure:"seed" yaml:"seed"`
}

// DefaultConfig returns the configuration of a randomly initialized
// VGG16 stack on 224x224 frames
func DefaultConfig() Config {
	return Config{
		Architecture: VGG16(),
		InputSize:    InputSize,
	}
}

// Validate returns an error if the configuration is invalid
func (c Config) Validate() error {
	if c.Weights != "" {
		return nil
	}
	if err := c.Architecture.Validate(c.InputSize); err != nil {
		return fmt.Errorf("validate: %w", err)
	}
	return nil
}

// Load returns the weights described by the configuration
func (c Config) Load() (*Weights, error) {
	if c.Weights != "" {
		w, err := LoadWeights(c.Weights)
		if err != nil {
			return nil, fmt.Errorf("load: %w", err)
		}
		return w, nil
	}

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("load: %w", err)
	}
	return RandomWeights(c.Architecture, c.InputSize, c.Seed), nil
}
