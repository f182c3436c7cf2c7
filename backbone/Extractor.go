package backbone

import (
	"fmt"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// Extractor runs RGB frames through a convolutional stack and returns
// the flattened output feature maps.
//
// An Extractor owns its graph and VM and is not safe for concurrent
// use. Use Clone to get an independent Extractor per goroutine.
type Extractor struct {
	weights *Weights

	g       *G.ExprGraph
	input   *G.Node
	output  *G.Node
	outVal  *G.Value
	vm      G.VM
	outSize int
}

// New returns a new Extractor with the given weights
func New(w *Weights) (*Extractor, error) {
	if w == nil {
		return nil, fmt.Errorf("new: nil weights")
	}
	if err := w.Validate(); err != nil {
		return nil, fmt.Errorf("new: %w", err)
	}

	e := &Extractor{
		weights: w,
		g:       G.NewGraph(),
		outSize: w.Architecture.OutputSize(w.InputSize),
		outVal:  new(G.Value),
	}

	e.input = G.NewTensor(e.g, tensor.Float64, 4,
		G.WithShape(1, Channels, w.InputSize, w.InputSize),
		G.WithName("frame"), G.WithInit(G.Zeroes()))

	if err := e.build(); err != nil {
		return nil, fmt.Errorf("new: %w", err)
	}

	e.vm = G.NewTapeMachine(e.g)
	return e, nil
}

// build adds the forward pass of the stack to the graph
func (e *Extractor) build() error {
	shapes := e.weights.Architecture.kernelShapes()
	x := e.input
	conv := 0

	var err error
	for i, layer := range e.weights.Architecture {
		if layer == MaxPool {
			x, err = G.MaxPool2D(x, tensor.Shape{2, 2}, []int{0, 0},
				[]int{2, 2})
			if err != nil {
				return fmt.Errorf("could not pool at layer %d: %v", i, err)
			}
			continue
		}

		shape := shapes[conv]
		kernel := G.NewTensor(e.g, tensor.Float64, 4, G.WithShape(shape...),
			G.WithName(fmt.Sprintf("conv%dW", conv)),
			G.WithValue(tensor.New(
				tensor.WithShape(shape...),
				tensor.WithBacking(copyOf(e.weights.Kernels[conv])),
			)))
		bias := G.NewTensor(e.g, tensor.Float64, 4,
			G.WithShape(1, shape[0], 1, 1),
			G.WithName(fmt.Sprintf("conv%dB", conv)),
			G.WithValue(tensor.New(
				tensor.WithShape(1, shape[0], 1, 1),
				tensor.WithBacking(copyOf(e.weights.Biases[conv])),
			)))

		x, err = G.Conv2d(x, kernel, tensor.Shape{kernelSize, kernelSize},
			[]int{1, 1}, []int{1, 1}, []int{1, 1})
		if err != nil {
			return fmt.Errorf("could not convolve at layer %d: %v", i, err)
		}

		// Broadcast the bias over the batch and spatial dimensions
		x, err = G.BroadcastAdd(x, bias, nil, []byte{0, 2, 3})
		if err != nil {
			return fmt.Errorf("could not add bias at layer %d: %v", i, err)
		}

		if x, err = G.Rectify(x); err != nil {
			return fmt.Errorf("could not rectify at layer %d: %v", i, err)
		}
		conv++
	}

	x, err = G.Reshape(x, tensor.Shape{1, e.outSize})
	if err != nil {
		return fmt.Errorf("could not flatten output: %v", err)
	}

	e.output = x
	G.Read(e.output, e.outVal)
	return nil
}

func copyOf(data []float64) []float64 {
	out := make([]float64, len(data))
	copy(out, data)
	return out
}

// Size returns the number of features produced for each frame
func (e *Extractor) Size() int {
	return e.outSize
}

// InputSize returns the height and width frames are resized to
func (e *Extractor) InputSize() int {
	return e.weights.InputSize
}

// Architecture returns the architecture of the stack
func (e *Extractor) Architecture() Architecture {
	return e.weights.Architecture
}

// Extract returns the features of an RGB frame given in HWC layout
// with values in [0, 255].
func (e *Extractor) Extract(frame []float64, height, width int) ([]float64,
	error) {
	chw, err := Preprocess(frame, height, width, e.weights.InputSize)
	if err != nil {
		return nil, fmt.Errorf("extract: %w", err)
	}

	inputTensor := tensor.New(
		tensor.WithShape(e.input.Shape()...),
		tensor.WithBacking(chw),
	)
	if err := G.Let(e.input, inputTensor); err != nil {
		return nil, fmt.Errorf("extract: could not set input: %v", err)
	}

	defer e.vm.Reset()
	if err := e.vm.RunAll(); err != nil {
		return nil, fmt.Errorf("extract: could not run stack: %v", err)
	}

	return copyOf((*e.outVal).Data().([]float64)), nil
}

// Clone returns an independent Extractor with the same weights
func (e *Extractor) Clone() (*Extractor, error) {
	return New(e.weights)
}

// Close releases the resources of the Extractor's VM
func (e *Extractor) Close() error {
	return e.vm.Close()
}
