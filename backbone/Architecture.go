// Package backbone implements a convolutional feature extractor that
// turns RGB frames into feature vectors for the actor-critic network.
package backbone

import "fmt"

// InputSize is the height and width that frames are resized to before
// being passed through a VGG stack.
const InputSize = 224

// MaxPool marks a 2x2 max pooling layer with stride 2 in an
// Architecture.
const MaxPool = 0

// Architecture describes a VGG-style stack of layers. Each positive
// entry is a 3x3 convolution with padding 1 and stride 1 followed by a
// ReLU, with the entry's number of output channels. Each MaxPool entry
// halves the height and width of its input.
type Architecture []int

// VGG16 returns the architecture of the convolutional part of VGG16.
func VGG16() Architecture {
	return Architecture{
		64, 64, MaxPool,
		128, 128, MaxPool,
		256, 256, 256, MaxPool,
		512, 512, 512, MaxPool,
		512, 512, 512, MaxPool,
	}
}

// Validate returns an error if the architecture cannot be applied to
// square RGB inputs of height and width inputSize.
func (a Architecture) Validate(inputSize int) error {
	if len(a) == 0 {
		return fmt.Errorf("validate: empty architecture")
	}
	if inputSize <= 0 {
		return fmt.Errorf("validate: input size must be positive")
	}

	size := inputSize
	convs := 0
	for i, layer := range a {
		switch {
		case layer == MaxPool:
			if size < 2 {
				return fmt.Errorf("validate: layer %d pools an input of "+
					"size %d", i, size)
			}
			size /= 2
		case layer > 0:
			convs++
		default:
			return fmt.Errorf("validate: layer %d has invalid number of "+
				"channels %d", i, layer)
		}
	}

	if convs == 0 {
		return fmt.Errorf("validate: architecture has no convolutions")
	}
	return nil
}

// Convolutions returns the number of convolutional layers
func (a Architecture) Convolutions() int {
	n := 0
	for _, layer := range a {
		if layer != MaxPool {
			n++
		}
	}
	return n
}

// OutputSize returns the number of features the stack produces for a
// square RGB input of height and width inputSize.
func (a Architecture) OutputSize(inputSize int) int {
	size := inputSize
	channels := Channels
	for _, layer := range a {
		if layer == MaxPool {
			size /= 2
		} else {
			channels = layer
		}
	}
	return channels * size * size
}

// kernelShapes returns the (out, in, 3, 3) shape of each convolution
// kernel
func (a Architecture) kernelShapes() [][]int {
	shapes := make([][]int, 0, a.Convolutions())
	in := Channels
	for _, layer := range a {
		if layer == MaxPool {
			continue
		}
		shapes = append(shapes, []int{layer, in, kernelSize, kernelSize})
		in = layer
	}
	return shapes
}
