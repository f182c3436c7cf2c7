package a3c

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	G "gorgonia.org/gorgonia"

	"github.com/samuelfneumann/goa3c/network"
)

// zeroNetwork returns an actor-critic network with all weights zero,
// so that every state has uniform action probabilities and value 0
func zeroNetwork(t *testing.T, features, actions, batch int) *network.ActorCritic {
	t.Helper()
	net, err := network.NewActorCritic(features, batch, actions, G.NewGraph(),
		[]int{4}, []int{4}, network.ReLU6(), G.Zeroes())
	require.NoError(t, err)
	return net
}

func TestNStepReturns(t *testing.T) {
	returns := nStepReturns([]float64{1, 0, 2}, 4, 0.5)
	assert.InDeltaSlice(t, []float64{2, 2, 4}, returns, 1e-12)

	// Terminal batches bootstrap from 0
	returns = nStepReturns([]float64{1, 1}, 0, 0.9)
	assert.InDeltaSlice(t, []float64{1.9, 1}, returns, 1e-12)

	assert.Empty(t, nStepReturns(nil, 1, 0.9))
}

func TestLoss(t *testing.T) {
	// With uniform probabilities over 3 actions and zero values, each
	// row contributes td² + ln(3)·td
	want := (1 + math.Log(3) + 4 + 2*math.Log(3)) / 2

	for _, batch := range []int{2, 3} {
		net := zeroNetwork(t, 2, 3, batch)
		l, err := newLoss(net, 0)
		require.NoError(t, err)

		require.NoError(t, net.SetInput(make([]float64, 2*batch)))
		require.NoError(t, l.set([]int{0, 1}, []float64{1, 2}, 2))

		advantages := make([]float64, batch)
		advantages[0], advantages[1] = 1, 2
		require.NoError(t, l.setAdvantages(advantages))

		vm := G.NewTapeMachine(net.Graph(),
			G.BindDualValues(net.Learnables()...))
		require.NoError(t, vm.RunAll())
		assert.InDelta(t, want, l.value(), 1e-9, "batch %d", batch)
		vm.Close()
	}
}

func TestLossEntropy(t *testing.T) {
	net := zeroNetwork(t, 2, 3, 1)
	l, err := newLoss(net, 0.5)
	require.NoError(t, err)

	require.NoError(t, net.SetInput([]float64{0, 0}))
	require.NoError(t, l.set([]int{2}, []float64{0}, 1))
	require.NoError(t, l.setAdvantages([]float64{0}))

	vm := G.NewTapeMachine(net.Graph(), G.BindDualValues(net.Learnables()...))
	defer vm.Close()
	require.NoError(t, vm.RunAll())

	// Only the entropy bonus is left, and uniform probabilities have
	// entropy ln(3)
	assert.InDelta(t, -0.5*math.Log(3), l.value(), 1e-9)
}

func TestLossSetErrors(t *testing.T) {
	net := zeroNetwork(t, 2, 3, 2)
	l, err := newLoss(net, 0)
	require.NoError(t, err)

	assert.Error(t, l.setAdvantages([]float64{1}))
	assert.NoError(t, l.set([]int{1}, []float64{1}, 1))
}
