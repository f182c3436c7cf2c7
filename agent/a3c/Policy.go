package a3c

import (
	"fmt"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
	G "gorgonia.org/gorgonia"

	"github.com/samuelfneumann/goa3c/network"
	ts "github.com/samuelfneumann/goa3c/timestep"
	"github.com/samuelfneumann/goa3c/utils/floatutils"
)

// Policy is a softmax policy over the logits of an actor-critic
// network with a batch size of 1. In training mode actions are sampled
// from the softmax distribution, in evaluation mode the action with the
// largest logit is taken, breaking ties randomly.
//
// A Policy owns the VM of its network and is not safe for concurrent
// use.
type Policy struct {
	net  *network.ActorCritic
	vm   G.VM
	rng  *rand.Rand
	src  rand.Source
	eval bool
}

// NewPolicy returns a new Policy that acts with net, which must have a
// batch size of 1.
func NewPolicy(net *network.ActorCritic, seed uint64) (*Policy, error) {
	if net.BatchSize() != 1 {
		return nil, fmt.Errorf("newPolicy: network must have a batch size "+
			"of 1, got %d", net.BatchSize())
	}

	src := rand.NewSource(seed)
	return &Policy{
		net: net,
		vm:  G.NewTapeMachine(net.Graph()),
		rng: rand.New(src),
		src: src,
	}, nil
}

// Network returns the network the policy acts with
func (p *Policy) Network() *network.ActorCritic {
	return p.net
}

// forward runs the network on a single observation and returns the
// logits and state value
func (p *Policy) forward(obs *mat.VecDense) ([]float64, float64, error) {
	if obs == nil {
		return nil, 0, fmt.Errorf("no observation")
	}

	input := make([]float64, obs.Len())
	copy(input, obs.RawVector().Data)
	if err := p.net.SetInput(input); err != nil {
		return nil, 0, fmt.Errorf("could not set input: %w", err)
	}

	defer p.vm.Reset()
	if err := p.vm.RunAll(); err != nil {
		return nil, 0, fmt.Errorf("could not run network: %v", err)
	}

	out := p.net.Output()
	logits := make([]float64, p.net.Actions())
	copy(logits, out[0].Data().([]float64))
	value := out[1].Data().([]float64)[0]

	return logits, value, nil
}

// SelectAction selects an action in the state of a timestep
func (p *Policy) SelectAction(t ts.TimeStep) (*mat.VecDense, error) {
	logits, _, err := p.forward(t.Observation)
	if err != nil {
		return nil, fmt.Errorf("selectAction: %w", err)
	}

	var action int
	if p.eval {
		actions := floatutils.ArgMax(logits...)
		action = actions[p.rng.Intn(len(actions))]
	} else {
		probs := floatutils.Softmax(logits)
		action = int(distuv.NewCategorical(probs, p.src).Rand())
	}

	return mat.NewVecDense(1, []float64{float64(action)}), nil
}

// Value returns the state value of an observation
func (p *Policy) Value(obs *mat.VecDense) (float64, error) {
	_, value, err := p.forward(obs)
	if err != nil {
		return 0, fmt.Errorf("value: %w", err)
	}
	return value, nil
}

// Eval sets the policy to evaluation mode
func (p *Policy) Eval() { p.eval = true }

// Train sets the policy to training mode
func (p *Policy) Train() { p.eval = false }

// IsEval returns whether the policy is in evaluation mode
func (p *Policy) IsEval() bool { return p.eval }

// Close releases the policy's VM
func (p *Policy) Close() error {
	return p.vm.Close()
}
