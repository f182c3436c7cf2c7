package network

import (
	"bytes"
	"encoding/gob"
	"fmt"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"
)

// ActorCritic is a neural network with two separate towers that share
// a single input node. The policy tower predicts one logit per action
// and the value tower predicts a single state value.
//
// Each hidden layer of both towers has a bias unit and uses the same
// activation. The output layers are linear.
type ActorCritic struct {
	g     *G.ExprGraph
	input *G.Node

	policy *multiHeadMLP
	value  *multiHeadMLP

	features  int
	actions   int
	batchSize int

	policyHidden []int
	valueHidden  []int
	activation   *Activation

	learnables G.Nodes
	model      []G.ValueGrad
}

// NewActorCritic adds a new ActorCritic network to the graph g. The
// network takes batch observations of features features each and
// predicts batch rows of actions logits and batch state values.
func NewActorCritic(features, batch, actions int, g *G.ExprGraph,
	policyHidden, valueHidden []int, activation *Activation,
	init G.InitWFn) (*ActorCritic, error) {
	if features <= 0 || actions <= 0 || batch <= 0 {
		return nil, fmt.Errorf("newActorCritic: features (%d), actions "+
			"(%d) and batch (%d) must be positive", features, actions, batch)
	}
	if activation == nil {
		activation = ReLU6()
	}

	input := G.NewMatrix(g, tensor.Float64, G.WithShape(batch, features),
		G.WithName("input"), G.WithInit(G.Zeroes()))

	policy, err := newMultiHeadMLPFromInput(input, actions, g, policyHidden,
		layerBiases(len(policyHidden)), init,
		layerActivations(len(policyHidden), activation), "pi")
	if err != nil {
		return nil, fmt.Errorf("newActorCritic: could not create policy "+
			"tower: %v", err)
	}

	value, err := newMultiHeadMLPFromInput(input, 1, g, valueHidden,
		layerBiases(len(valueHidden)), init,
		layerActivations(len(valueHidden), activation), "v")
	if err != nil {
		return nil, fmt.Errorf("newActorCritic: could not create value "+
			"tower: %v", err)
	}

	return &ActorCritic{
		g:            g,
		input:        input,
		policy:       policy,
		value:        value,
		features:     features,
		actions:      actions,
		batchSize:    batch,
		policyHidden: policyHidden,
		valueHidden:  valueHidden,
		activation:   activation,
	}, nil
}

func layerBiases(n int) []bool {
	biases := make([]bool, n)
	for i := range biases {
		biases[i] = true
	}
	return biases
}

func layerActivations(n int, act *Activation) []*Activation {
	activations := make([]*Activation, n)
	for i := range activations {
		activations[i] = act
	}
	return activations
}

// Graph returns the computational graph of the network
func (a *ActorCritic) Graph() *G.ExprGraph {
	return a.g
}

// Clone clones the network onto a new graph
func (a *ActorCritic) Clone() (NeuralNet, error) {
	return a.CloneWithBatch(a.batchSize)
}

// CloneWithBatch clones the network onto a new graph with a new batch
// size. The weights of the clone equal the weights of a.
func (a *ActorCritic) CloneWithBatch(batch int) (NeuralNet, error) {
	return a.CloneActorCritic(batch)
}

// CloneActorCritic is like CloneWithBatch but returns the concrete
// type.
func (a *ActorCritic) CloneActorCritic(batch int) (*ActorCritic, error) {
	net, err := NewActorCritic(a.features, batch, a.actions, G.NewGraph(),
		a.policyHidden, a.valueHidden, a.activation, G.Zeroes())
	if err != nil {
		return nil, fmt.Errorf("clonewithbatch: could not clone: %v", err)
	}

	if err := net.Set(a); err != nil {
		return nil, fmt.Errorf("clonewithbatch: could not copy weights: %v",
			err)
	}
	return net, nil
}

// BatchSize returns the number of observations in a batch
func (a *ActorCritic) BatchSize() int {
	return a.batchSize
}

// Features returns the number of features of a single observation
func (a *ActorCritic) Features() int {
	return a.features
}

// Actions returns the number of actions the policy tower predicts
// logits for
func (a *ActorCritic) Actions() int {
	return a.actions
}

// Input returns the input node of the network
func (a *ActorCritic) Input() *G.Node {
	return a.input
}

// SetInput sets the input observations of the network, row-major.
func (a *ActorCritic) SetInput(input []float64) error {
	return setInput(a.input, input)
}

// Set sets the weights of the network to those of source
func (a *ActorCritic) Set(source NeuralNet) error {
	return Set(a, source)
}

// Learnables returns the learnable nodes of the policy tower followed
// by those of the value tower.
func (a *ActorCritic) Learnables() G.Nodes {
	if a.learnables == nil {
		learnables := make(G.Nodes, 0)
		learnables = append(learnables, a.policy.Learnables()...)
		learnables = append(learnables, a.value.Learnables()...)
		a.learnables = learnables
	}
	return a.learnables
}

// Model returns the learnable nodes with their gradients
func (a *ActorCritic) Model() []G.ValueGrad {
	if a.model == nil {
		learnables := a.Learnables()
		a.model = make([]G.ValueGrad, len(learnables))
		for i := range learnables {
			a.model[i] = learnables[i]
		}
	}
	return a.model
}

// Output returns the values of the logits and state values computed
// by the last run of a VM on the network's graph.
func (a *ActorCritic) Output() []G.Value {
	return []G.Value{a.policy.Output()[0], a.value.Output()[0]}
}

// Prediction returns the logits node followed by the state values node
func (a *ActorCritic) Prediction() []*G.Node {
	return []*G.Node{a.Logits(), a.Values()}
}

// Logits returns the node of the action logits, of shape
// (batch, actions).
func (a *ActorCritic) Logits() *G.Node {
	return a.policy.Prediction()[0]
}

// Values returns the node of the state values, of shape (batch, 1).
func (a *ActorCritic) Values() *G.Node {
	return a.value.Prediction()[0]
}

// actorCriticConfig holds everything needed to rebuild an ActorCritic
type actorCriticConfig struct {
	Features     int
	Actions      int
	BatchSize    int
	PolicyHidden []int
	ValueHidden  []int
	Activation   *Activation
	Weights      [][]float64
}

// GobEncode implements the gob.GobEncoder interface
func (a *ActorCritic) GobEncode() ([]byte, error) {
	var buf bytes.Buffer
	enc := gob.NewEncoder(&buf)

	config := actorCriticConfig{
		Features:     a.features,
		Actions:      a.actions,
		BatchSize:    a.batchSize,
		PolicyHidden: a.policyHidden,
		ValueHidden:  a.valueHidden,
		Activation:   a.activation,
		Weights:      Weights(a),
	}
	if err := enc.Encode(config); err != nil {
		return nil, fmt.Errorf("gobencode: could not encode actor-critic: %v",
			err)
	}
	return buf.Bytes(), nil
}

// GobDecode implements the gob.GobDecoder interface. The decoded
// network lives on a new graph.
func (a *ActorCritic) GobDecode(in []byte) error {
	dec := gob.NewDecoder(bytes.NewReader(in))

	var config actorCriticConfig
	if err := dec.Decode(&config); err != nil {
		return fmt.Errorf("gobdecode: could not decode actor-critic: %v", err)
	}

	net, err := NewActorCritic(config.Features, config.BatchSize,
		config.Actions, G.NewGraph(), config.PolicyHidden, config.ValueHidden,
		config.Activation, G.Zeroes())
	if err != nil {
		return fmt.Errorf("gobdecode: %v", err)
	}

	if err := SetWeights(net, config.Weights); err != nil {
		return fmt.Errorf("gobdecode: %v", err)
	}

	*a = *net
	return nil
}
