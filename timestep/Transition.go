package timestep

import "gonum.org/v1/gonum/mat"

// Transition packages together a single (S, A, R, γ, S') tuple of the
// agent-environment interaction.
type Transition struct {
	State     *mat.VecDense
	Action    int
	Reward    float64
	Discount  float64
	NextState *mat.VecDense
}

// NewTransition returns the transition taken from step t by action a
// which resulted in step next.
func NewTransition(t TimeStep, a int, next TimeStep) Transition {
	return Transition{
		State:     t.Observation,
		Action:    a,
		Reward:    next.Reward,
		Discount:  next.Discount,
		NextState: next.Observation,
	}
}
