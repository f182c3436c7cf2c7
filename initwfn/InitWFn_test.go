package initwfn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

func TestDefault(t *testing.T) {
	c := Default()
	assert.Equal(t, Gaussian, c.Type)
	assert.Equal(t, 0.1, c.StdDev)
	require.NoError(t, c.Validate())
}

func TestValidate(t *testing.T) {
	assert.Error(t, NewGaussian(0, 0).Validate())
	assert.Error(t, NewUniform(1, 1).Validate())
	assert.Error(t, NewGlorotU(0).Validate())
	assert.Error(t, Config{Type: "orthogonal"}.Validate())
	assert.NoError(t, Config{Type: "GlorotU", Gain: 1}.Validate())
	assert.NoError(t, NewZeroes().Validate())
}

func TestCreate(t *testing.T) {
	init, err := NewUniform(-0.5, 0.5).Create()
	require.NoError(t, err)

	g := G.NewGraph()
	w := G.NewMatrix(g, tensor.Float64, G.WithShape(10, 10), G.WithInit(init))
	for _, v := range w.Value().Data().([]float64) {
		assert.GreaterOrEqual(t, v, -0.5)
		assert.Less(t, v, 0.5)
	}

	init, err = Config{Type: Constant, Value: 2}.Create()
	require.NoError(t, err)
	c := G.NewMatrix(g, tensor.Float64, G.WithShape(2, 2), G.WithInit(init))
	assert.Equal(t, []float64{2, 2, 2, 2}, c.Value().Data().([]float64))

	_, err = NewGaussian(0, -1).Create()
	assert.Error(t, err)
}
