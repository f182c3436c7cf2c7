package a3c

import (
	"fmt"
	"runtime"

	G "gorgonia.org/gorgonia"

	"github.com/samuelfneumann/goa3c/initwfn"
	"github.com/samuelfneumann/goa3c/network"
	"github.com/samuelfneumann/goa3c/solver"
)

// Config describes an A3C trainer
type Config struct {
	// Workers is the number of concurrent workers, 0 uses one worker
	// per CPU
	Workers int `mapstructure:"workers" yaml:"workers"`

	// UpdateGlobalIter is the maximum number of steps a worker takes
	// between pushes of its gradients to the global network
	UpdateGlobalIter int     `mapstructure:"update_global_iter" yaml:"update_global_iter"`
	Gamma            float64 `mapstructure:"gamma" yaml:"gamma"`
	MaxEpisodes      int     `mapstructure:"max_episodes" yaml:"max_episodes"`

	PolicyHidden []int  `mapstructure:"policy_hidden" yaml:"policy_hidden"`
	ValueHidden  []int  `mapstructure:"value_hidden" yaml:"value_hidden"`
	Activation   string `mapstructure:"activation" yaml:"activation"`

	Init   initwfn.Config `mapstructure:"init" yaml:"init"`
	Solver solver.Config  `mapstructure:"solver" yaml:"solver"`

	// Entropy weighs an entropy bonus on the policy, 0 disables it
	Entropy float64 `mapstructure:"entropy" yaml:"entropy"`

	Seed uint64 `mapstructure:"seed" yaml:"seed"`
}

// DefaultConfig returns the default configuration: one worker per CPU,
// updates every 5 steps, γ = 0.9, 3000 episodes, a 200 unit policy
// tower and a 100 unit value tower with ReLU6 activations.
func DefaultConfig() Config {
	return Config{
		Workers:          0,
		UpdateGlobalIter: 5,
		Gamma:            0.9,
		MaxEpisodes:      3000,
		PolicyHidden:     []int{200},
		ValueHidden:      []int{100},
		Activation:       "relu6",
		Init:             initwfn.Default(),
		Solver:           solver.Default(),
		Entropy:          0,
		Seed:             0,
	}
}

// NumWorkers returns the number of workers to run
func (c Config) NumWorkers() int {
	if c.Workers <= 0 {
		return runtime.NumCPU()
	}
	return c.Workers
}

// Validate returns an error if the configuration is invalid
func (c Config) Validate() error {
	if c.Workers < 0 {
		return fmt.Errorf("validate: workers must be non-negative, got %d",
			c.Workers)
	}
	if c.UpdateGlobalIter <= 0 {
		return fmt.Errorf("validate: update_global_iter must be positive, "+
			"got %d", c.UpdateGlobalIter)
	}
	if c.Gamma < 0 || c.Gamma > 1 {
		return fmt.Errorf("validate: gamma must be in [0, 1], got %v",
			c.Gamma)
	}
	if c.MaxEpisodes <= 0 {
		return fmt.Errorf("validate: max_episodes must be positive, got %d",
			c.MaxEpisodes)
	}
	for _, size := range append(append([]int{}, c.PolicyHidden...),
		c.ValueHidden...) {
		if size <= 0 {
			return fmt.Errorf("validate: hidden layer sizes must be "+
				"positive, got %d", size)
		}
	}
	if _, err := network.ActivationFromName(c.Activation); err != nil {
		return fmt.Errorf("validate: %w", err)
	}
	if c.Entropy < 0 {
		return fmt.Errorf("validate: entropy must be non-negative, got %v",
			c.Entropy)
	}
	if err := c.Init.Validate(); err != nil {
		return fmt.Errorf("validate: init: %w", err)
	}
	if err := c.Solver.Validate(); err != nil {
		return fmt.Errorf("validate: solver: %w", err)
	}
	return nil
}

// newNetwork returns a new actor-critic network on its own graph as
// described by the config
func (c Config) newNetwork(features, actions, batch int) (
	*network.ActorCritic, error) {
	act, err := network.ActivationFromName(c.Activation)
	if err != nil {
		return nil, err
	}
	init, err := c.Init.Create()
	if err != nil {
		return nil, err
	}

	return network.NewActorCritic(features, batch, actions, G.NewGraph(),
		c.PolicyHidden, c.ValueHidden, act, init)
}
