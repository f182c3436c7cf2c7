package a3c

import (
	"fmt"

	G "gorgonia.org/gorgonia"
	"gorgonia.org/tensor"

	"github.com/samuelfneumann/goa3c/network"
)

// loss holds the nodes of the actor-critic loss on a training network
// with a batch of T rows:
//
//	L = Σ_t w_t ((v_t - V(s_t))² - log π(a_t|s_t) A_t - β H(π(·|s_t)))
//
// where v_t are the n-step return targets, A_t the advantages
// v_t - V(s_t) treated as constants, and w_t = 1/n for the n real rows
// of a batch and 0 for padding rows.
type loss struct {
	net *network.ActorCritic

	actions    *G.Node // one-hot (T, actions)
	targets    *G.Node // (T, 1)
	advantages *G.Node // (T, 1)
	weights    *G.Node // (T, 1)

	loss    *G.Node
	lossVal G.Value
}

// newLoss adds the loss to the graph of net and computes its gradient
// with respect to the learnables of net
func newLoss(net *network.ActorCritic, entropy float64) (*loss, error) {
	g := net.Graph()
	batch := net.BatchSize()
	numActions := net.Actions()

	l := &loss{
		net: net,
		actions: G.NewMatrix(g, tensor.Float64,
			G.WithShape(batch, numActions), G.WithName("actions"),
			G.WithInit(G.Zeroes())),
		targets: G.NewMatrix(g, tensor.Float64, G.WithShape(batch, 1),
			G.WithName("targets"), G.WithInit(G.Zeroes())),
		advantages: G.NewMatrix(g, tensor.Float64, G.WithShape(batch, 1),
			G.WithName("advantages"), G.WithInit(G.Zeroes())),
		weights: G.NewMatrix(g, tensor.Float64, G.WithShape(batch, 1),
			G.WithName("weights"), G.WithInit(G.Zeroes())),
	}

	logProbs := logSoftmax(net.Logits(), batch)

	// Critic: squared TD error of the n-step targets
	td := G.Must(G.Sub(l.targets, net.Values()))
	perRow := G.Must(G.Square(td))

	// Actor: negative log probability of the taken actions weighted by
	// the advantages
	logProbActions := G.Must(G.HadamardProd(l.actions, logProbs))
	logProbActions = G.Must(G.Sum(logProbActions, 1))
	logProbActions = G.Must(G.Reshape(logProbActions, tensor.Shape{batch, 1}))
	actor := G.Must(G.HadamardProd(logProbActions, l.advantages))
	perRow = G.Must(G.Sub(perRow, actor))

	if entropy > 0 {
		probs := G.Must(G.Exp(logProbs))
		h := G.Must(G.HadamardProd(probs, logProbs))
		h = G.Must(G.Sum(h, 1))
		h = G.Must(G.Reshape(h, tensor.Shape{batch, 1}))

		// h holds the negative entropy
		bonus := G.Must(G.Mul(h, G.NewConstant(entropy)))
		perRow = G.Must(G.Add(perRow, bonus))
	}

	l.loss = G.Must(G.Sum(G.Must(G.HadamardProd(perRow, l.weights))))
	G.Read(l.loss, &l.lossVal)

	if _, err := G.Grad(l.loss, net.Learnables()...); err != nil {
		return nil, fmt.Errorf("newLoss: could not compute gradient: %v", err)
	}
	return l, nil
}

// logSoftmax returns the log softmax of logits along the rows
func logSoftmax(logits *G.Node, batch int) *G.Node {
	max := G.Must(G.Max(logits, 1))
	max = G.Must(G.Reshape(max, tensor.Shape{batch, 1}))
	shifted := G.Must(G.BroadcastSub(logits, max, nil, []byte{1}))

	sum := G.Must(G.Sum(G.Must(G.Exp(shifted)), 1))
	logSum := G.Must(G.Log(sum))
	logSum = G.Must(G.Reshape(logSum, tensor.Shape{batch, 1}))

	return G.Must(G.BroadcastSub(shifted, logSum, nil, []byte{1}))
}

// set sets the inputs of the loss for a batch whose first n rows hold
// data. The advantages input is left unchanged.
func (l *loss) set(actions []int, targets []float64, n int) error {
	batch := l.net.BatchSize()
	numActions := l.net.Actions()

	oneHot := make([]float64, batch*numActions)
	targetData := make([]float64, batch)
	weights := make([]float64, batch)
	for i := 0; i < n; i++ {
		oneHot[i*numActions+actions[i]] = 1
		targetData[i] = targets[i]
		weights[i] = 1 / float64(n)
	}

	if err := letMatrix(l.actions, oneHot); err != nil {
		return fmt.Errorf("set: actions: %w", err)
	}
	if err := letMatrix(l.targets, targetData); err != nil {
		return fmt.Errorf("set: targets: %w", err)
	}
	if err := letMatrix(l.weights, weights); err != nil {
		return fmt.Errorf("set: weights: %w", err)
	}
	return nil
}

// setAdvantages sets the advantages input of the loss
func (l *loss) setAdvantages(advantages []float64) error {
	if err := letMatrix(l.advantages, advantages); err != nil {
		return fmt.Errorf("setAdvantages: %w", err)
	}
	return nil
}

// value returns the value of the loss computed by the last VM run
func (l *loss) value() float64 {
	if l.lossVal == nil {
		return 0
	}
	return l.lossVal.Data().(float64)
}

func letMatrix(node *G.Node, data []float64) error {
	if size := node.Shape().TotalSize(); size != len(data) {
		return fmt.Errorf("%v needs %d values, got %d", node.Name(), size,
			len(data))
	}
	return G.Let(node, tensor.New(
		tensor.WithShape(node.Shape()...),
		tensor.WithBacking(data),
	))
}
