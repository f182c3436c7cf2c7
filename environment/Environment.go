// Package environment outlines the interfaces and structs needed to
// implement concrete environments that an A3C worker can act in.
package environment

import (
	"gonum.org/v1/gonum/mat"

	ts "github.com/samuelfneumann/goa3c/timestep"
)

// Starter implements a distribution of starting states and samples
// starting states for environments
type Starter interface {
	Start() *mat.VecDense
}

// Ender determines when an episode should end. If the episode ends,
// End modifies the TimeStep so that its StepType is timestep.Last.
type Ender interface {
	End(*ts.TimeStep) bool
}

// Environment implements an environment that an agent acts in. The
// environment may be simulated locally or live in a separate process
// reached over the network.
type Environment interface {
	// Reset resets the environment between episodes and returns the
	// first TimeStep of the next episode
	Reset() (ts.TimeStep, error)

	// Step takes a single environmental step with the given action
	// and returns the next TimeStep as well as whether the episode
	// has ended.
	Step(action *mat.VecDense) (ts.TimeStep, bool, error)

	ObservationSpec() Spec
	ActionSpec() Spec
	DiscountSpec() Spec

	// Close releases any resources held by the environment
	Close() error
}

// Framer is an Environment whose observations are RGB frames. Frames
// are stored row major in height, width, channel order with values in
// [0, 255].
type Framer interface {
	Environment
	FrameShape() (height, width int)
}

// Channels is the number of colour channels in a frame
const Channels = 3
