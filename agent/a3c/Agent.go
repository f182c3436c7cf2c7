package a3c

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"

	"github.com/samuelfneumann/goa3c/agent"
	"github.com/samuelfneumann/goa3c/network"
	ts "github.com/samuelfneumann/goa3c/timestep"
)

var _ agent.Closer = (*Agent)(nil)

// Agent is the local actor-critic learner of a single worker. It acts
// with a local copy of the global network, buffers the transitions it
// observes and, on Step, computes n-step returns over the buffer,
// pushes the gradients of the loss into the global network and pulls
// the updated global weights.
//
// An Agent is not safe for concurrent use. Each worker owns one.
type Agent struct {
	*Policy
	global *Global

	trainNet *network.ActorCritic
	trainVM  G.VM
	loss     *loss

	gamma    float64
	batch    int
	features int

	prevStep ts.TimeStep
	buffer   []ts.Transition
	done     bool

	lastLoss float64
}

// NewAgent returns a new local learner of the global network. The
// local network copies the global network's weights.
func NewAgent(global *Global, c Config, seed uint64) (*Agent, error) {
	actNet, err := global.net.CloneActorCritic(1)
	if err != nil {
		return nil, fmt.Errorf("newAgent: could not create acting "+
			"network: %w", err)
	}
	policy, err := NewPolicy(actNet, seed)
	if err != nil {
		return nil, fmt.Errorf("newAgent: %w", err)
	}

	trainNet, err := global.net.CloneActorCritic(c.UpdateGlobalIter)
	if err != nil {
		return nil, fmt.Errorf("newAgent: could not create training "+
			"network: %w", err)
	}
	l, err := newLoss(trainNet, c.Entropy)
	if err != nil {
		return nil, fmt.Errorf("newAgent: %w", err)
	}

	if err := global.Pull(actNet); err != nil {
		return nil, fmt.Errorf("newAgent: %w", err)
	}
	if err := global.Pull(trainNet); err != nil {
		return nil, fmt.Errorf("newAgent: %w", err)
	}

	return &Agent{
		Policy:   policy,
		global:   global,
		trainNet: trainNet,
		trainVM: G.NewTapeMachine(trainNet.Graph(),
			G.BindDualValues(trainNet.Learnables()...)),
		loss:     l,
		gamma:    c.Gamma,
		batch:    c.UpdateGlobalIter,
		features: trainNet.Features(),
	}, nil
}

// ObserveFirst records the first timestep of an episode
func (a *Agent) ObserveFirst(t ts.TimeStep) error {
	if !t.First() {
		return fmt.Errorf("observeFirst: timestep %d is not the first of "+
			"an episode", t.Number)
	}
	a.clear()
	a.prevStep = t
	a.done = false
	return nil
}

// Observe records that taking action in the previous timestep lead to
// nextStep
func (a *Agent) Observe(action mat.Vector, nextStep ts.TimeStep) error {
	if len(a.buffer) >= a.batch {
		return fmt.Errorf("observe: buffer holds %d transitions, call "+
			"Step", len(a.buffer))
	}
	if a.prevStep.Observation == nil {
		return fmt.Errorf("observe: no previous timestep, call " +
			"ObserveFirst")
	}
	if obs := a.prevStep.Observation.Len(); obs != a.features {
		return fmt.Errorf("observe: observation has %d features, want %d",
			obs, a.features)
	}

	act := int(action.AtVec(0))
	if act < 0 || act >= a.trainNet.Actions() {
		return fmt.Errorf("observe: illegal action %v", action.AtVec(0))
	}

	a.buffer = append(a.buffer, ts.NewTransition(a.prevStep, act, nextStep))
	a.done = nextStep.Last()

	a.prevStep = nextStep
	return nil
}

// Step pushes the gradients of the loss over the buffered transitions
// into the global network, pulls the new global weights and clears the
// buffer. Step does nothing if the buffer is empty.
func (a *Agent) Step() error {
	n := len(a.buffer)
	if n == 0 {
		return nil
	}

	states := make([]float64, a.batch*a.features)
	actions := make([]int, n)
	rewards := make([]float64, n)
	for i, t := range a.buffer {
		copy(states[i*a.features:], t.State.RawVector().Data)
		actions[i] = t.Action
		rewards[i] = t.Reward
	}

	bootstrap := 0.0
	if !a.done {
		var err error
		if bootstrap, err = a.Value(a.buffer[n-1].NextState); err != nil {
			return fmt.Errorf("step: could not bootstrap: %w", err)
		}
	}
	targets := nStepReturns(rewards, bootstrap, a.gamma)

	if err := a.trainNet.SetInput(states); err != nil {
		return fmt.Errorf("step: %w", err)
	}
	if err := a.loss.set(actions, targets, n); err != nil {
		return fmt.Errorf("step: %w", err)
	}

	// Compute the state values, which are constants in the policy loss
	if err := a.loss.setAdvantages(make([]float64, a.batch)); err != nil {
		return fmt.Errorf("step: %w", err)
	}
	if err := a.trainVM.RunAll(); err != nil {
		return fmt.Errorf("step: could not compute state values: %v", err)
	}
	values := a.trainNet.Output()[1].Data().([]float64)
	advantages := make([]float64, a.batch)
	for i := 0; i < n; i++ {
		advantages[i] = targets[i] - values[i]
	}
	a.trainVM.Reset()

	// The first pass accumulated critic gradients into the dual values
	if err := a.zeroGrads(); err != nil {
		return fmt.Errorf("step: %w", err)
	}

	// Compute the gradients and push them to the global network
	if err := a.loss.setAdvantages(advantages); err != nil {
		return fmt.Errorf("step: %w", err)
	}
	if err := a.trainVM.RunAll(); err != nil {
		return fmt.Errorf("step: could not compute gradients: %v", err)
	}
	a.lastLoss = a.loss.value()
	err := a.global.Push(a.trainNet.Model())
	a.trainVM.Reset()
	if err != nil {
		return fmt.Errorf("step: could not push gradients: %w", err)
	}

	// Pull the new global weights into both local networks
	if err := a.global.Pull(a.trainNet); err != nil {
		return fmt.Errorf("step: %w", err)
	}
	if err := a.global.Pull(a.Policy.Network()); err != nil {
		return fmt.Errorf("step: %w", err)
	}

	a.clear()
	return nil
}

// zeroGrads zeroes the gradients of the training network's learnables
func (a *Agent) zeroGrads() error {
	for _, n := range a.trainNet.Learnables() {
		grad, err := n.Grad()
		if err != nil {
			return fmt.Errorf("zeroGrads: could not get gradient of %v: %v",
				n.Name(), err)
		}
		t, ok := grad.(tensor.Tensor)
		if !ok {
			return fmt.Errorf("zeroGrads: gradient of %v is not a tensor",
				n.Name())
		}
		t.Zero()
	}
	return nil
}

// nStepReturns returns the discounted returns of rewards bootstrapped
// from the value of the state after the last reward
func nStepReturns(rewards []float64, bootstrap, gamma float64) []float64 {
	returns := make([]float64, len(rewards))
	v := bootstrap
	for i := len(rewards) - 1; i >= 0; i-- {
		v = rewards[i] + gamma*v
		returns[i] = v
	}
	return returns
}

// Loss returns the loss of the last update
func (a *Agent) Loss() float64 {
	return a.lastLoss
}

// Buffered returns the number of buffered transitions
func (a *Agent) Buffered() int {
	return len(a.buffer)
}

// EndEpisode clears the buffer at the end of an episode
func (a *Agent) EndEpisode() {
	a.clear()
}

func (a *Agent) clear() {
	a.buffer = a.buffer[:0]
}

// Close releases the VMs of the agent
func (a *Agent) Close() error {
	trainErr := a.trainVM.Close()
	if err := a.Policy.Close(); err != nil {
		return err
	}
	return trainErr
}
