package a3c

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/samuelfneumann/goa3c/network"
	"github.com/samuelfneumann/goa3c/solver"
	ts "github.com/samuelfneumann/goa3c/timestep"
)

func testConfig() Config {
	c := DefaultConfig()
	c.Workers = 1
	c.MaxEpisodes = 1
	c.PolicyHidden = []int{4}
	c.ValueHidden = []int{4}
	c.Solver = solver.NewVanilla(0.1)
	return c
}

func TestPolicySelectAction(t *testing.T) {
	net := zeroNetwork(t, 2, 3, 1)
	weights := network.Weights(net)
	weights[3] = []float64{0, 50, 0}
	require.NoError(t, network.SetWeights(net, weights))

	p, err := NewPolicy(net, 1)
	require.NoError(t, err)
	defer p.Close()

	step := ts.New(ts.First, 0, 0.9, mat.NewVecDense(2, []float64{1, -1}), 0)
	for _, eval := range []bool{false, true} {
		if eval {
			p.Eval()
		} else {
			p.Train()
		}
		assert.Equal(t, eval, p.IsEval())

		for i := 0; i < 10; i++ {
			action, err := p.SelectAction(step)
			require.NoError(t, err)
			assert.Equal(t, 1.0, action.AtVec(0))
		}
	}

	_, err = p.SelectAction(ts.TimeStep{})
	assert.Error(t, err)

	_, err = NewPolicy(zeroNetwork(t, 2, 3, 2), 1)
	assert.Error(t, err)
}

func TestPolicyEvalTies(t *testing.T) {
	p, err := NewPolicy(zeroNetwork(t, 2, 3, 1), 1)
	require.NoError(t, err)
	defer p.Close()
	p.Eval()

	step := ts.New(ts.First, 0, 0.9, mat.NewVecDense(2, nil), 0)
	seen := make(map[float64]bool)
	for i := 0; i < 100; i++ {
		action, err := p.SelectAction(step)
		require.NoError(t, err)
		seen[action.AtVec(0)] = true
	}
	assert.Len(t, seen, 3)
}

// TestAgentStep checks the direction of a single update: a terminal
// transition with reward 1 from a network predicting uniform action
// probabilities and value 0 has advantage 1, which makes the taken
// action more likely and raises the value.
func TestAgentStep(t *testing.T) {
	c := testConfig()
	g, err := NewGlobal(zeroNetwork(t, 2, 3, 1), c.Solver, 1)
	require.NoError(t, err)

	a, err := NewAgent(g, c, 1)
	require.NoError(t, err)
	defer a.Close()

	// Nothing to push
	require.NoError(t, a.Step())
	assert.Equal(t, 0, g.Updates())

	obs := mat.NewVecDense(2, []float64{1, 1})
	require.Error(t, a.Observe(mat.NewVecDense(1, []float64{1}),
		ts.New(ts.Mid, 0, 0.9, obs, 1)))
	require.NoError(t, a.ObserveFirst(ts.New(ts.First, 0, 0.9, obs, 0)))
	require.Error(t, a.ObserveFirst(ts.New(ts.Mid, 0, 0.9, obs, 0)))

	require.NoError(t, a.Observe(mat.NewVecDense(1, []float64{1}),
		ts.New(ts.Last, 1, 0.9, obs, 1)))
	assert.Equal(t, 1, a.Buffered())

	require.NoError(t, a.Step())
	assert.Equal(t, 0, a.Buffered())
	assert.Equal(t, 1, g.Updates())
	assert.Greater(t, a.Loss(), 0.0)

	weights := network.Weights(g.net)
	policyBias := weights[3]
	assert.InDelta(t, 0.1*2.0/3.0, policyBias[1], 1e-9)
	assert.InDelta(t, -0.1/3.0, policyBias[0], 1e-9)
	assert.InDelta(t, -0.1/3.0, policyBias[2], 1e-9)

	valueBias := weights[len(weights)-1]
	assert.InDelta(t, 0.2, valueBias[0], 1e-9)

	// Both local networks pulled the new weights
	assert.Equal(t, weights, network.Weights(a.trainNet))
	assert.Equal(t, weights, network.Weights(a.Network()))
}

// TestAgentStepBootstrapped checks a short, non-terminal batch: the
// padding rows carry no weight and the targets bootstrap from the value
// of the last next state.
func TestAgentStepBootstrapped(t *testing.T) {
	const (
		lr    = 0.1
		gamma = 0.9
		bias  = 0.5
	)
	c := testConfig()
	c.UpdateGlobalIter = 5
	c.Gamma = gamma

	net := zeroNetwork(t, 2, 3, 1)
	weights := network.Weights(net)
	weights[len(weights)-1] = []float64{bias}
	require.NoError(t, network.SetWeights(net, weights))

	g, err := NewGlobal(net, c.Solver, 1)
	require.NoError(t, err)
	a, err := NewAgent(g, c, 1)
	require.NoError(t, err)
	defer a.Close()

	obs := mat.NewVecDense(2, []float64{1, -1})
	require.NoError(t, a.ObserveFirst(ts.New(ts.First, 0, gamma, obs, 0)))
	require.NoError(t, a.Observe(mat.NewVecDense(1, []float64{1}),
		ts.New(ts.Mid, 1, gamma, obs, 1)))
	require.NoError(t, a.Observe(mat.NewVecDense(1, []float64{0}),
		ts.New(ts.Mid, 0.5, gamma, obs, 2)))
	require.NoError(t, a.Step())
	require.Equal(t, 1, g.Updates())

	// Every state has value bias, including the bootstrapped one
	v2 := 0.5 + gamma*bias
	v1 := 1 + gamma*v2
	adv1, adv2 := v1-bias, v2-bias
	n := 2.0

	weights = network.Weights(g.net)
	valueBias := weights[len(weights)-1]
	assert.InDelta(t, bias+lr*(2/n)*(adv1+adv2), valueBias[0], 1e-9)

	// Uniform probabilities give a logit gradient of (1/3 - onehot)·A/n
	policyBias := weights[3]
	assert.InDelta(t, -lr*(adv1/3-2*adv2/3)/n, policyBias[0], 1e-9)
	assert.InDelta(t, -lr*(adv2/3-2*adv1/3)/n, policyBias[1], 1e-9)
	assert.InDelta(t, -lr*(adv1+adv2)/3/n, policyBias[2], 1e-9)
}

func TestAgentObserveErrors(t *testing.T) {
	c := testConfig()
	c.UpdateGlobalIter = 1
	g, err := NewGlobal(zeroNetwork(t, 2, 3, 1), c.Solver, 1)
	require.NoError(t, err)

	a, err := NewAgent(g, c, 1)
	require.NoError(t, err)
	defer a.Close()

	obs := mat.NewVecDense(2, nil)
	require.NoError(t, a.ObserveFirst(ts.New(ts.First, 0, 0.9, obs, 0)))

	// Illegal action
	assert.Error(t, a.Observe(mat.NewVecDense(1, []float64{3}),
		ts.New(ts.Mid, 0, 0.9, obs, 1)))

	// Full buffer
	require.NoError(t, a.Observe(mat.NewVecDense(1, []float64{0}),
		ts.New(ts.Mid, 0, 0.9, obs, 1)))
	assert.Error(t, a.Observe(mat.NewVecDense(1, []float64{0}),
		ts.New(ts.Mid, 0, 0.9, obs, 2)))

	// Bootstrapping from a non-terminal state
	require.NoError(t, a.Step())
	assert.Equal(t, 1, g.Updates())
}
