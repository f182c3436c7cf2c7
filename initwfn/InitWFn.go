// Package initwfn implements configurations of Gorgonia weight
// initializers so that they can be read from configuration files.
package initwfn

import (
	"fmt"
	"strings"

	G "gorgonia.org/gorgonia"
)

// Type describes different types of InitWFn that are available.
type Type string

// Available InitWFn types
const (
	Gaussian Type = "gaussian"
	Uniform  Type = "uniform"
	GlorotU  Type = "glorotu"
	GlorotN  Type = "glorotn"
	HeU      Type = "heu"
	HeN      Type = "hen"
	Zeroes   Type = "zeroes"
	Ones     Type = "ones"
	Constant Type = "constant"
)

// Config describes a Gorgonia InitWFn. Only the fields used by Type
// are read: Mean and StdDev for Gaussian, Low and High for Uniform,
// Gain for the Glorot and He initializers and Value for Constant.
type Config struct {
	Type   Type    `mapstructure:"type" yaml:"type" json:"type"`
	Mean   float64 `mapstructure:"mean" yaml:"mean,omitempty" json:"mean,omitempty"`
	StdDev float64 `mapstructure:"stddev" yaml:"stddev,omitempty" json:"stddev,omitempty"`
	Low    float64 `mapstructure:"low" yaml:"low,omitempty" json:"low,omitempty"`
	High   float64 `mapstructure:"high" yaml:"high,omitempty" json:"high,omitempty"`
	Gain   float64 `mapstructure:"gain" yaml:"gain,omitempty" json:"gain,omitempty"`
	Value  float64 `mapstructure:"value" yaml:"value,omitempty" json:"value,omitempty"`
}

// Default returns the initializer used for the actor-critic layers,
// a Gaussian with mean 0 and standard deviation 0.1.
func Default() Config {
	return NewGaussian(0, 0.1)
}

// NewGaussian returns a new gaussian weight initializer config
func NewGaussian(mean, stddev float64) Config {
	return Config{Type: Gaussian, Mean: mean, StdDev: stddev}
}

// NewUniform returns a new uniform weight initializer config
func NewUniform(low, high float64) Config {
	return Config{Type: Uniform, Low: low, High: high}
}

// NewGlorotU returns a new Glorot uniform weight initializer config
func NewGlorotU(gain float64) Config {
	return Config{Type: GlorotU, Gain: gain}
}

// NewZeroes returns a new zeroes weight initializer config
func NewZeroes() Config {
	return Config{Type: Zeroes}
}

// Validate returns an error if the configuration does not describe a
// valid initializer
func (c Config) Validate() error {
	switch c.normalized() {
	case Gaussian:
		if c.StdDev <= 0 {
			return fmt.Errorf("validate: gaussian standard deviation must "+
				"be positive, got %v", c.StdDev)
		}
	case Uniform:
		if c.Low >= c.High {
			return fmt.Errorf("validate: uniform bounds must satisfy "+
				"low < high, got [%v, %v)", c.Low, c.High)
		}
	case GlorotU, GlorotN, HeU, HeN:
		if c.Gain <= 0 {
			return fmt.Errorf("validate: %v gain must be positive, got %v",
				c.Type, c.Gain)
		}
	case Zeroes, Ones, Constant:
	default:
		return fmt.Errorf("validate: unknown initializer type %q", c.Type)
	}
	return nil
}

// Create returns the Gorgonia InitWFn that the Config describes
func (c Config) Create() (G.InitWFn, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("create: %w", err)
	}

	switch c.normalized() {
	case Gaussian:
		return G.Gaussian(c.Mean, c.StdDev), nil
	case Uniform:
		return G.Uniform(c.Low, c.High), nil
	case GlorotU:
		return G.GlorotU(c.Gain), nil
	case GlorotN:
		return G.GlorotN(c.Gain), nil
	case HeU:
		return G.HeU(c.Gain), nil
	case HeN:
		return G.HeN(c.Gain), nil
	case Ones:
		return G.Ones(), nil
	case Constant:
		return G.ValuesOf(c.Value), nil
	default:
		return G.Zeroes(), nil
	}
}

func (c Config) normalized() Type {
	return Type(strings.ToLower(string(c.Type)))
}

// String implements the fmt.Stringer interface
func (c Config) String() string {
	switch c.normalized() {
	case Gaussian:
		return fmt.Sprintf("{gaussian InitWFn: N(%v, %v)}", c.Mean, c.StdDev)
	case Uniform:
		return fmt.Sprintf("{uniform InitWFn: U[%v, %v)}", c.Low, c.High)
	case GlorotU, GlorotN, HeU, HeN:
		return fmt.Sprintf("{%v InitWFn: gain %v}", c.normalized(), c.Gain)
	case Constant:
		return fmt.Sprintf("{constant InitWFn: %v}", c.Value)
	}
	return fmt.Sprintf("{%v InitWFn}", c.Type)
}
