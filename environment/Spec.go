package environment

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// SpecType determines what kind of specification a Spec is. A Spec can
// specify the layout of an acion, an observation, a discount, or a reward
type SpecType int

const (
	Action SpecType = iota
	Observation
	Discount
	Reward
)

// Cardinality determines the cardinality of a number (discrete or continuous)
type Cardinality string

const (
	Continuous Cardinality = "Continuous"
	Discrete   Cardinality = "Discrete"
)

// Spec implements an environment specification, which tells the type,
// shape, and bounds of an action, observation, discount, or reward in
// an environment
type Spec struct {
	Shape      *mat.VecDense
	Type       SpecType
	LowerBound *mat.VecDense
	UpperBound *mat.VecDense
	Cardinality
}

// NewSpec constructs a new environment specification
// The shape argument outlines the shape of the data described by the
// specification. The argument t outlines what the specification is
// describing (e.g. actions, observations, etc.). The cardinality
// arguments describes whether the values that the spec describes are
// continuous or discrete.
func NewSpec(shape *mat.VecDense, t SpecType, lowerBound,
	upperBound *mat.VecDense, cardinality Cardinality) Spec {
	if shape.Len() != lowerBound.Len() {
		panic(fmt.Sprintf("shape length %v must match lower bounds length %v",
			shape.Len(), lowerBound.Len()))
	}
	if shape.Len() != upperBound.Len() {
		panic(fmt.Sprintf("shape length %v must match upper bounds length %v",
			shape.Len(), upperBound.Len()))
	}
	return Spec{shape, t, lowerBound, upperBound, cardinality}
}

// NewBoxSpec returns a continuous Spec of the given number of features
// where every feature lies in [low, high].
func NewBoxSpec(features int, t SpecType, low, high float64) Spec {
	lower := make([]float64, features)
	upper := make([]float64, features)
	for i := range lower {
		lower[i] = low
		upper[i] = high
	}

	return NewSpec(mat.NewVecDense(features, nil), t,
		mat.NewVecDense(features, lower), mat.NewVecDense(features, upper),
		Continuous)
}

// NewDiscreteActionSpec returns the Spec of a single discrete action
// taking values in {0, 1, ..., actions-1}.
func NewDiscreteActionSpec(actions int) Spec {
	return NewSpec(mat.NewVecDense(1, nil), Action, mat.NewVecDense(1, nil),
		mat.NewVecDense(1, []float64{float64(actions - 1)}), Discrete)
}

// NumActions returns the number of discrete actions described by an
// action Spec.
func NumActions(s Spec) (int, error) {
	if s.Cardinality != Discrete {
		return 0, fmt.Errorf("numActions: spec is not discrete")
	}
	if s.UpperBound.Len() != 1 {
		return 0, fmt.Errorf("numActions: only single dimensional "+
			"actions are supported, got %d dimensions", s.UpperBound.Len())
	}
	return int(s.UpperBound.AtVec(0)-s.LowerBound.AtVec(0)) + 1, nil
}

// NewDiscountSpec returns a Spec for a constant discount
func NewDiscountSpec(discount float64) Spec {
	bound := mat.NewVecDense(1, []float64{discount})
	return NewSpec(mat.NewVecDense(1, nil), Discount, bound, bound,
		Continuous)
}
