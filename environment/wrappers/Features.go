// Package wrappers provides wrappers for environments
package wrappers

import (
	"fmt"
	"io"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/samuelfneumann/goa3c/environment"
	ts "github.com/samuelfneumann/goa3c/timestep"
)

// Extractor extracts a feature vector from an RGB frame stored in
// height, width, channel order.
type Extractor interface {
	Extract(frame []float64, height, width int) ([]float64, error)
	Size() int
}

// Features wraps an environment whose observations are frames and
// replaces each frame with the feature vector of an Extractor. Both
// the first observation of an episode and every next observation are
// transformed.
//
// Features itself implements the environment.Environment interface.
type Features struct {
	environment.Environment
	extractor     Extractor
	height, width int
}

// NewFeatures returns a new Features wrapper around env
func NewFeatures(env environment.Framer, extractor Extractor) *Features {
	height, width := env.FrameShape()
	return &Features{
		Environment: env,
		extractor:   extractor,
		height:      height,
		width:       width,
	}
}

// Wrap wraps env in a Features wrapper if its observations are frames.
// Other environments are returned unchanged, so that vector
// observations are passed on to the learner as is.
func Wrap(env environment.Environment,
	extractor Extractor) environment.Environment {
	if framer, ok := env.(environment.Framer); ok && extractor != nil {
		return NewFeatures(framer, extractor)
	}
	return env
}

// Reset resets the environment and returns the first step with its
// observation replaced by features
func (f *Features) Reset() (ts.TimeStep, error) {
	step, err := f.Environment.Reset()
	if err != nil {
		return step, err
	}
	return f.features(step)
}

// Step takes an environmental step and returns the next step with its
// observation replaced by features
func (f *Features) Step(action *mat.VecDense) (ts.TimeStep, bool, error) {
	step, done, err := f.Environment.Step(action)
	if err != nil {
		return step, done, err
	}

	step, err = f.features(step)
	return step, done, err
}

// features replaces the frame observation of a step with its features
func (f *Features) features(step ts.TimeStep) (ts.TimeStep, error) {
	if step.Observation == nil {
		return step, fmt.Errorf("features: step has no observation")
	}

	vec, err := f.extractor.Extract(step.Observation.RawVector().Data,
		f.height, f.width)
	if err != nil {
		return step, fmt.Errorf("features: %w", err)
	}
	return step.WithObservation(mat.NewVecDense(len(vec), vec)), nil
}

// ObservationSpec returns the observation specification of the
// feature vectors, which are non-negative.
func (f *Features) ObservationSpec() environment.Spec {
	return environment.NewBoxSpec(f.extractor.Size(), environment.Observation,
		0, math.Inf(1))
}

// Close closes the wrapped environment and the extractor if it holds
// resources
func (f *Features) Close() error {
	err := f.Environment.Close()
	if closer, ok := f.extractor.(io.Closer); ok {
		if closeErr := closer.Close(); err == nil {
			err = closeErr
		}
	}
	return err
}

func (f *Features) String() string {
	return fmt.Sprintf("Features(%v)", f.Environment)
}
