package network

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

func TestReLU6(t *testing.T) {
	g := G.NewGraph()
	x := G.NewMatrix(g, tensor.Float64, G.WithShape(1, 4), G.WithName("x"),
		G.WithValue(tensor.New(tensor.WithShape(1, 4),
			tensor.WithBacking([]float64{-1, 3, 6, 10}))))

	act := ReLU6()
	y, err := act.fwd(x)
	require.NoError(t, err)

	var out G.Value
	G.Read(y, &out)

	vm := G.NewTapeMachine(g)
	defer vm.Close()
	require.NoError(t, vm.RunAll())

	assert.InDeltaSlice(t, []float64{0, 3, 6, 6}, out.Data().([]float64),
		1e-12)
}

func TestActivationFromName(t *testing.T) {
	for _, act := range []*Activation{ReLU(), ReLU6(), TanH(), Identity()} {
		got, err := ActivationFromName(act.String())
		require.NoError(t, err)
		assert.Equal(t, act.String(), got.String())
	}

	_, err := ActivationFromName("softplus")
	assert.Error(t, err)
	assert.True(t, Identity().IsIdentity())
}
