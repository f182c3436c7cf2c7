// Package solver implements configurations of Gorgonia Solvers so that
// they can be read from configuration files, and a solver that can be
// shared between concurrent learners.
package solver

import (
	"fmt"
	"strings"

	G "gorgonia.org/gorgonia"
)

// Type describes different types of solvers that are available
type Type string

// Available solver types
const (
	Adam    Type = "adam"
	RMSProp Type = "rmsprop"
	Vanilla Type = "vanilla"
)

// Config describes a Gorgonia Solver. Beta1 and Beta2 are used only by
// Adam, Rho only by RMSProp.
type Config struct {
	Type     Type    `mapstructure:"type" yaml:"type" json:"type"`
	StepSize float64 `mapstructure:"step_size" yaml:"step_size" json:"step_size"`
	Epsilon  float64 `mapstructure:"epsilon" yaml:"epsilon,omitempty" json:"epsilon,omitempty"`
	Beta1    float64 `mapstructure:"beta1" yaml:"beta1,omitempty" json:"beta1,omitempty"`
	Beta2    float64 `mapstructure:"beta2" yaml:"beta2,omitempty" json:"beta2,omitempty"`
	Rho      float64 `mapstructure:"rho" yaml:"rho,omitempty" json:"rho,omitempty"`

	// Clip clips each gradient component to [-Clip, Clip], <= 0 if no
	// clipping
	Clip float64 `mapstructure:"clip" yaml:"clip,omitempty" json:"clip,omitempty"`
}

// Default returns the Adam configuration used for the global
// actor-critic network: step size 1e-4, betas (0.92, 0.999) and
// ε = 1e-8.
func Default() Config {
	return NewAdam(1e-4, 1e-8, 0.92, 0.999)
}

// NewAdam returns a new Adam solver config
func NewAdam(stepSize, epsilon, beta1, beta2 float64) Config {
	return Config{
		Type:     Adam,
		StepSize: stepSize,
		Epsilon:  epsilon,
		Beta1:    beta1,
		Beta2:    beta2,
	}
}

// NewRMSProp returns a new RMSProp solver config
func NewRMSProp(stepSize, epsilon, rho float64) Config {
	return Config{
		Type:     RMSProp,
		StepSize: stepSize,
		Epsilon:  epsilon,
		Rho:      rho,
	}
}

// NewVanilla returns a new vanilla gradient descent solver config
func NewVanilla(stepSize float64) Config {
	return Config{Type: Vanilla, StepSize: stepSize}
}

func (c Config) normalized() Type {
	return Type(strings.ToLower(string(c.Type)))
}

// Validate returns an error if the configuration does not describe a
// valid solver
func (c Config) Validate() error {
	if c.StepSize <= 0 {
		return fmt.Errorf("validate: step size must be positive, got %v",
			c.StepSize)
	}

	switch c.normalized() {
	case Adam:
		if c.Beta1 < 0 || c.Beta1 >= 1 || c.Beta2 < 0 || c.Beta2 >= 1 {
			return fmt.Errorf("validate: adam betas must be in [0, 1), "+
				"got (%v, %v)", c.Beta1, c.Beta2)
		}
		if c.Epsilon <= 0 {
			return fmt.Errorf("validate: epsilon must be positive, got %v",
				c.Epsilon)
		}
	case RMSProp:
		if c.Rho <= 0 || c.Rho >= 1 {
			return fmt.Errorf("validate: rmsprop ρ must be in (0, 1), "+
				"got %v", c.Rho)
		}
		if c.Epsilon <= 0 {
			return fmt.Errorf("validate: epsilon must be positive, got %v",
				c.Epsilon)
		}
	case Vanilla:
	default:
		return fmt.Errorf("validate: unknown solver type %q", c.Type)
	}
	return nil
}

// Create returns a new Gorgonia Solver as described by the Config.
// Gradients are not scaled by a batch size; learners are expected to
// average their losses.
func (c Config) Create() (G.Solver, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("create: %w", err)
	}

	opts := []G.SolverOpt{
		G.WithLearnRate(c.StepSize),
		G.WithBatchSize(1),
	}
	if c.Clip > 0 {
		opts = append(opts, G.WithClip(c.Clip))
	}

	switch c.normalized() {
	case Adam:
		opts = append(opts, G.WithEps(c.Epsilon), G.WithBeta1(c.Beta1),
			G.WithBeta2(c.Beta2))
		return G.NewAdamSolver(opts...), nil

	case RMSProp:
		opts = append(opts, G.WithEps(c.Epsilon), G.WithRho(c.Rho))
		return G.NewRMSPropSolver(opts...), nil

	default:
		return G.NewVanillaSolver(opts...), nil
	}
}

// String implements the fmt.Stringer interface
func (c Config) String() string {
	switch c.normalized() {
	case Adam:
		return fmt.Sprintf("{adam Solver: α=%v β=(%v, %v) ε=%v}", c.StepSize,
			c.Beta1, c.Beta2, c.Epsilon)
	case RMSProp:
		return fmt.Sprintf("{rmsprop Solver: α=%v ρ=%v ε=%v}", c.StepSize,
			c.Rho, c.Epsilon)
	}
	return fmt.Sprintf("{%v Solver: α=%v}", c.Type, c.StepSize)
}
