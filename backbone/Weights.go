package backbone

import (
	"encoding/gob"
	"fmt"
	"math"
	"os"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat/distuv"
)

const kernelSize = 3

// Weights holds the parameters of a convolutional stack. Kernels[i] is
// the row-major (out, in, 3, 3) kernel of the i-th convolution and
// Biases[i] its per-channel bias.
type Weights struct {
	Architecture Architecture
	InputSize    int
	Kernels      [][]float64
	Biases       [][]float64
}

// RandomWeights returns Glorot uniform weights with zero biases for
// the given architecture.
func RandomWeights(arch Architecture, inputSize int, seed uint64) *Weights {
	source := rand.NewSource(seed)
	shapes := arch.kernelShapes()

	w := &Weights{
		Architecture: arch,
		InputSize:    inputSize,
		Kernels:      make([][]float64, len(shapes)),
		Biases:       make([][]float64, len(shapes)),
	}

	for i, shape := range shapes {
		fanIn := float64(shape[1] * kernelSize * kernelSize)
		fanOut := float64(shape[0] * kernelSize * kernelSize)
		limit := math.Sqrt(6 / (fanIn + fanOut))
		dist := distuv.Uniform{Min: -limit, Max: limit, Src: source}

		kernel := make([]float64, shape[0]*shape[1]*kernelSize*kernelSize)
		for j := range kernel {
			kernel[j] = dist.Rand()
		}
		w.Kernels[i] = kernel
		w.Biases[i] = make([]float64, shape[0])
	}
	return w
}

// Validate returns an error if the weights do not fit their
// architecture
func (w *Weights) Validate() error {
	if err := w.Architecture.Validate(w.InputSize); err != nil {
		return fmt.Errorf("validate weights: %w", err)
	}

	shapes := w.Architecture.kernelShapes()
	if len(w.Kernels) != len(shapes) || len(w.Biases) != len(shapes) {
		return fmt.Errorf("validate weights: have %d kernels and %d biases "+
			"for %d convolutions", len(w.Kernels), len(w.Biases), len(shapes))
	}

	for i, shape := range shapes {
		size := shape[0] * shape[1] * kernelSize * kernelSize
		if len(w.Kernels[i]) != size {
			return fmt.Errorf("validate weights: kernel %d has %d values, "+
				"want %d", i, len(w.Kernels[i]), size)
		}
		if len(w.Biases[i]) != shape[0] {
			return fmt.Errorf("validate weights: bias %d has %d values, "+
				"want %d", i, len(w.Biases[i]), shape[0])
		}
	}
	return nil
}

// LoadWeights reads gob-encoded Weights from a file
func LoadWeights(path string) (*Weights, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("loadWeights: could not open file: %w", err)
	}
	defer file.Close()

	var w Weights
	if err := gob.NewDecoder(file).Decode(&w); err != nil {
		return nil, fmt.Errorf("loadWeights: could not decode %v: %w", path,
			err)
	}

	if err := w.Validate(); err != nil {
		return nil, fmt.Errorf("loadWeights: %w", err)
	}
	return &w, nil
}

// Save writes the weights gob-encoded to a file
func (w *Weights) Save(path string) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("save: could not create file: %w", err)
	}

	if err := gob.NewEncoder(file).Encode(w); err != nil {
		file.Close()
		return fmt.Errorf("save: could not encode weights: %w", err)
	}
	return file.Close()
}
