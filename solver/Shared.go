package solver

import (
	"fmt"
	"sync"

	G "gorgonia.org/gorgonia"
)

// Shared is a Solver whose state is shared between many learners. It
// holds the parameters of a global network and applies to them the
// gradients that learners compute on their own local copies of that
// network. For stateful solvers such as Adam, the moment estimates
// exist once and are updated by every learner.
//
// Shared is safe for concurrent use. Callers that read the global
// parameters concurrently with Step must synchronize with Lock/Unlock
// or RLock/RUnlock.
type Shared struct {
	sync.RWMutex
	solver G.Solver
	params G.Nodes
	steps  int
}

// NewShared returns a new Shared solver for the global parameters
// params.
func NewShared(c Config, params G.Nodes) (*Shared, error) {
	solver, err := c.Create()
	if err != nil {
		return nil, fmt.Errorf("newShared: %w", err)
	}

	for _, p := range params {
		if _, ok := p.Value().Data().([]float64); !ok {
			return nil, fmt.Errorf("newShared: parameter %v is not a "+
				"float64 tensor", p.Name())
		}
	}

	return &Shared{solver: solver, params: params}, nil
}

// Step applies the gradients of local to the global parameters.
// The model local must hold one ValueGrad per global parameter, in the
// same order and with the same shapes.
func (s *Shared) Step(local []G.ValueGrad) error {
	if len(local) != len(s.params) {
		return fmt.Errorf("step: invalid number of gradients \n\twant(%d)"+
			"\n\thave(%d)", len(s.params), len(local))
	}

	model := make([]G.ValueGrad, len(local))
	for i := range local {
		grad, err := local[i].Grad()
		if err != nil {
			return fmt.Errorf("step: could not get gradient %d: %v", i, err)
		}
		if !grad.Shape().Eq(s.params[i].Shape()) {
			return fmt.Errorf("step: gradient %d has shape %v, want %v", i,
				grad.Shape(), s.params[i].Shape())
		}
		model[i] = globalGrad{param: s.params[i], grad: grad}
	}

	s.Lock()
	defer s.Unlock()

	if err := s.solver.Step(model); err != nil {
		return fmt.Errorf("step: %v", err)
	}
	s.steps++
	return nil
}

// Steps returns the number of updates applied so far
func (s *Shared) Steps() int {
	s.RLock()
	defer s.RUnlock()
	return s.steps
}

// Params returns the global parameters updated by the solver
func (s *Shared) Params() G.Nodes {
	return s.params
}

// globalGrad pairs a global parameter with a gradient computed on a
// local copy of it. The solver updates the value of the global
// parameter in place.
type globalGrad struct {
	param *G.Node
	grad  G.Value
}

// Value implements the G.Valuer interface
func (g globalGrad) Value() G.Value {
	return g.param.Value()
}

// Grad implements the G.ValueGrad interface
func (g globalGrad) Grad() (G.Value, error) {
	return g.grad, nil
}
