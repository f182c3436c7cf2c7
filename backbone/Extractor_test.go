package backbone

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func constantFrame(height, width int, rgb [Channels]float64) []float64 {
	frame := make([]float64, 0, height*width*Channels)
	for i := 0; i < height*width; i++ {
		frame = append(frame, rgb[:]...)
	}
	return frame
}

func TestVGG16OutputSize(t *testing.T) {
	arch := VGG16()
	require.NoError(t, arch.Validate(InputSize))
	assert.Equal(t, 25088, arch.OutputSize(InputSize))
	assert.Equal(t, 13, arch.Convolutions())
}

func TestArchitectureValidate(t *testing.T) {
	assert.Error(t, Architecture{}.Validate(8))
	assert.Error(t, Architecture{MaxPool}.Validate(8))
	assert.Error(t, Architecture{4, -1}.Validate(8))
	assert.Error(t, Architecture{4, MaxPool, MaxPool}.Validate(2))
	assert.NoError(t, Architecture{4, MaxPool}.Validate(2))
}

func TestPreprocess(t *testing.T) {
	frame := constantFrame(5, 7, [Channels]float64{255, 51, 0})

	chw, err := Preprocess(frame, 5, 7, 4)
	require.NoError(t, err)
	require.Len(t, chw, Channels*16)

	for i := 0; i < 16; i++ {
		assert.InDelta(t, 1.0, chw[i], 1.0/255)
		assert.InDelta(t, 0.2, chw[16+i], 1.0/255)
		assert.InDelta(t, 0.0, chw[32+i], 1.0/255)
	}

	_, err = Preprocess(frame, 5, 6, 4)
	assert.Error(t, err)
}

func TestPreprocessLayout(t *testing.T) {
	// No resize happens when the frame is already square at the target
	// size
	frame := []float64{
		10, 20, 30, 40, 50, 60,
		70, 80, 90, 100, 110, 120,
	}
	chw, err := Preprocess(frame, 2, 2, 2)
	require.NoError(t, err)

	want := []float64{10, 40, 70, 100, 20, 50, 80, 110, 30, 60, 90, 120}
	for i := range want {
		want[i] /= 255
	}
	assert.InDeltaSlice(t, want, chw, 1e-9)
}

func TestExtractBiasOnly(t *testing.T) {
	arch := Architecture{2, MaxPool}
	w := RandomWeights(arch, 4, 1)
	for i := range w.Kernels[0] {
		w.Kernels[0][i] = 0
	}
	w.Biases[0] = []float64{1.5, -2}

	e, err := New(w)
	require.NoError(t, err)
	defer e.Close()
	assert.Equal(t, 8, e.Size())

	features, err := e.Extract(constantFrame(6, 6, [Channels]float64{1, 2,
		3}), 6, 6)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{1.5, 1.5, 1.5, 1.5, 0, 0, 0, 0},
		features, 1e-12)

	// Running twice must give the same result
	again, err := e.Extract(constantFrame(6, 6, [Channels]float64{1, 2,
		3}), 6, 6)
	require.NoError(t, err)
	assert.Equal(t, features, again)
}

func TestExtractorClone(t *testing.T) {
	w := RandomWeights(Architecture{3, MaxPool, 2}, 4, 7)
	e, err := New(w)
	require.NoError(t, err)
	defer e.Close()

	clone, err := e.Clone()
	require.NoError(t, err)
	defer clone.Close()

	frame := constantFrame(4, 4, [Channels]float64{200, 100, 50})
	want, err := e.Extract(frame, 4, 4)
	require.NoError(t, err)
	got, err := clone.Extract(frame, 4, 4)
	require.NoError(t, err)
	assert.InDeltaSlice(t, want, got, 1e-12)
	assert.Len(t, got, 2*2*2)
}

func TestWeightsSaveLoad(t *testing.T) {
	w := RandomWeights(Architecture{2, MaxPool}, 4, 3)
	path := filepath.Join(t.TempDir(), "weights.gob")
	require.NoError(t, w.Save(path))

	loaded, err := LoadWeights(path)
	require.NoError(t, err)
	assert.Equal(t, w, loaded)

	w.Biases[0] = append(w.Biases[0], 1)
	assert.Error(t, w.Validate())

	_, err = LoadWeights(filepath.Join(t.TempDir(), "missing.gob"))
	assert.Error(t, err)
}

func TestConfigLoad(t *testing.T) {
	c := DefaultConfig()
	require.NoError(t, c.Validate())

	c = Config{Architecture: Architecture{2, MaxPool}, InputSize: 4, Seed: 3}
	w, err := c.Load()
	require.NoError(t, err)
	assert.Equal(t, Architecture{2, MaxPool}, w.Architecture)
	assert.Equal(t, RandomWeights(c.Architecture, 4, 3), w)

	path := filepath.Join(t.TempDir(), "weights.bin")
	require.NoError(t, w.Save(path))
	loaded, err := Config{Weights: path}.Load()
	require.NoError(t, err)
	assert.Equal(t, w, loaded)

	_, err = Config{Architecture: Architecture{2}, InputSize: 0}.Load()
	assert.Error(t, err)
}
