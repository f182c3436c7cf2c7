// Package gym provides access to OpenAI Gym environments with discrete
// actions.
//
// Environments are used with their default tasks and episode cutoffs.
// This is made possible through the Go bindings for OpenAI Gym, found
// at https://github.com/samuelfneumann/GoGym, which require a Python
// installation with gym available.
package gym

import (
	"fmt"

	"github.com/samuelfneumann/gogym"
	"gonum.org/v1/gonum/mat"

	env "github.com/samuelfneumann/goa3c/environment"
	ts "github.com/samuelfneumann/goa3c/timestep"
)

// GymEnv implements access to an OpenAI Gym environment using GoGym
type GymEnv struct {
	gogym.Environment

	currentStep ts.TimeStep
	discount    float64
	actions     int
}

// New returns a new GymEnv with the given name, which must be a legal
// name from the OpenAI Gym suite with a discrete action space.
func New(name string, discount float64, seed uint64) (*GymEnv, error) {
	goGymEnv, err := gogym.Make(name)
	if err != nil {
		return nil, fmt.Errorf("new: could not create environment: %v", err)
	}

	space, ok := goGymEnv.ActionSpace().(*gogym.DiscreteSpace)
	if !ok {
		goGymEnv.Close()
		return nil, fmt.Errorf("new: environment %v does not have "+
			"discrete actions", name)
	}
	high := space.High()[0]
	low := space.Low()[0]

	goGymEnv.Seed(int(seed))

	return &GymEnv{
		Environment: goGymEnv,
		discount:    discount,
		actions:     int(high.AtVec(0)-low.AtVec(0)) + 1,
	}, nil
}

// Step takes a single environmental step
func (g *GymEnv) Step(a *mat.VecDense) (ts.TimeStep, bool, error) {
	if a.Len() != 1 {
		return ts.TimeStep{}, false, fmt.Errorf("step: only single "+
			"dimensional actions are supported, got %d", a.Len())
	}
	if action := int(a.AtVec(0)); action < 0 || action >= g.actions {
		return ts.TimeStep{}, false, fmt.Errorf("step: illegal action %v",
			a.AtVec(0))
	}

	obs, reward, done, err := g.Environment.Step(a)
	if err != nil {
		return ts.TimeStep{}, true, fmt.Errorf("step: could not step "+
			"GoGym environment: %v", err)
	}

	t := ts.New(ts.Mid, reward, g.discount, obs, g.currentStep.Number+1)
	if done {
		t.StepType = ts.Last
	}
	g.currentStep = t

	return t, done, nil
}

// Reset resets the environment to some starting state
func (g *GymEnv) Reset() (ts.TimeStep, error) {
	obs, err := g.Environment.Reset()
	if err != nil {
		return ts.TimeStep{}, fmt.Errorf("reset: could not reset "+
			"environment: %v", err)
	}

	t := ts.New(ts.First, 0, g.discount, obs, 0)
	g.currentStep = t

	return t, nil
}

// ObservationSpec returns the observation spec of the environment
func (g *GymEnv) ObservationSpec() env.Spec {
	space := g.ObservationSpace()
	low := space.Low()[0]
	high := space.High()[0]

	return env.NewSpec(mat.NewVecDense(low.Len(), nil), env.Observation, low,
		high, env.Continuous)
}

// ActionSpec returns the action specification of the environment
func (g *GymEnv) ActionSpec() env.Spec {
	return env.NewDiscreteActionSpec(g.actions)
}

// DiscountSpec returns the discount specification of the environment
func (g *GymEnv) DiscountSpec() env.Spec {
	return env.NewDiscountSpec(g.discount)
}

// Close performs resource cleanup after the environment is no longer
// needed
func (g *GymEnv) Close() error {
	g.Environment.Close()
	return nil
}
