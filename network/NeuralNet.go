// Package network implements the neural networks used as function
// approximators by the actor-critic learners.
package network

import (
	"fmt"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// NeuralNet is a neural network built on a Gorgonia computational
// graph. The network owns its graph, so that each copy can be run by
// its own VM.
type NeuralNet interface {
	Graph() *G.ExprGraph
	Clone() (NeuralNet, error)
	CloneWithBatch(int) (NeuralNet, error)
	BatchSize() int
	Features() int
	SetInput([]float64) error
	Set(NeuralNet) error
	Learnables() G.Nodes
	Model() []G.ValueGrad
	Output() []G.Value
	Prediction() []*G.Node
}

// Set sets the weights of dest to be equal to the weights of source.
// The two networks must have the same architecture but may have
// different batch sizes. Weights are copied into the existing backing
// tensors of dest, so VMs bound to dest see the new weights.
func Set(dest, source NeuralNet) error {
	destNodes := dest.Learnables()
	sourceNodes := source.Learnables()
	if len(destNodes) != len(sourceNodes) {
		return fmt.Errorf("set: cannot set weights with different number "+
			"of learnables \n\twant(%d) \n\thave(%d)", len(destNodes),
			len(sourceNodes))
	}

	for i := range destNodes {
		if err := copyValue(destNodes[i], sourceNodes[i]); err != nil {
			return fmt.Errorf("set: could not set learnable %v: %w",
				destNodes[i].Name(), err)
		}
	}
	return nil
}

// Weights returns a copy of the weights of each learnable node of a
// network, in the order returned by Learnables().
func Weights(net NeuralNet) [][]float64 {
	learnables := net.Learnables()
	weights := make([][]float64, len(learnables))

	for i, node := range learnables {
		data := node.Value().Data().([]float64)
		weights[i] = make([]float64, len(data))
		copy(weights[i], data)
	}
	return weights
}

// SetWeights sets the weights of each learnable node of a network,
// in the order returned by Learnables().
func SetWeights(net NeuralNet, weights [][]float64) error {
	learnables := net.Learnables()
	if len(learnables) != len(weights) {
		return fmt.Errorf("setWeights: invalid number of weights "+
			"\n\twant(%d) \n\thave(%d)", len(learnables), len(weights))
	}

	for i, node := range learnables {
		data, ok := node.Value().Data().([]float64)
		if !ok {
			return fmt.Errorf("setWeights: learnable %v is not float64",
				node.Name())
		}
		if len(data) != len(weights[i]) {
			return fmt.Errorf("setWeights: invalid size for learnable %v"+
				"\n\twant(%d) \n\thave(%d)", node.Name(), len(data),
				len(weights[i]))
		}
		copy(data, weights[i])
	}
	return nil
}

// copyValue copies the value of source into the backing data of dest.
func copyValue(dest, source *G.Node) error {
	if !dest.Shape().Eq(source.Shape()) {
		return fmt.Errorf("incompatible shapes %v and %v", dest.Shape(),
			source.Shape())
	}

	destData, ok := dest.Value().Data().([]float64)
	if !ok {
		return fmt.Errorf("destination is not float64")
	}
	sourceData, ok := source.Value().Data().([]float64)
	if !ok {
		return fmt.Errorf("source is not float64")
	}
	copy(destData, sourceData)
	return nil
}

// setInput sets the value of an input node from a backing slice
func setInput(input *G.Node, data []float64) error {
	size := input.Shape().TotalSize()
	if len(data) != size {
		return fmt.Errorf("invalid number of inputs\n\twant(%v)"+
			"\n\thave(%v)", size, len(data))
	}

	inputTensor := tensor.New(
		tensor.WithBacking(data),
		tensor.WithShape(input.Shape()...),
	)
	return G.Let(input, inputTensor)
}
