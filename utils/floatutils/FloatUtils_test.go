package floatutils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"gonum.org/v1/gonum/floats"
)

func TestClip(t *testing.T) {
	assert.Equal(t, 1.0, Clip(3, -1, 1))
	assert.Equal(t, -1.0, Clip(-3, -1, 1))
	assert.Equal(t, 0.5, Clip(0.5, -1, 1))
}

func TestArgMax(t *testing.T) {
	assert.Equal(t, []int{2}, ArgMax(1, 2, 3))
	assert.Equal(t, []int{0, 2}, ArgMax(3, 2, 3))
}

func TestSoftmax(t *testing.T) {
	logits := []float64{1000, 1000, 1000}
	probs := Softmax(logits)

	assert.InDelta(t, 1.0, floats.Sum(probs), 1e-12)
	for _, p := range probs {
		assert.InDelta(t, 1.0/3.0, p, 1e-12)
	}
	assert.Equal(t, []float64{1000, 1000, 1000}, logits)

	probs = Softmax([]float64{0, 1})
	assert.Greater(t, probs[1], probs[0])
}
