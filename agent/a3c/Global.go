package a3c

import (
	"fmt"
	"sync"
	"sync/atomic"

	G "gorgonia.org/gorgonia"

	"github.com/samuelfneumann/goa3c/network"
	"github.com/samuelfneumann/goa3c/solver"
)

// Episode is the result of a single episode of a worker
type Episode struct {
	Worker        string
	Number        int
	Return        float64
	MovingAverage float64
}

// Global holds the state shared by all workers: the global network,
// the solver that updates it, the number of finished episodes and a
// moving average of episode returns.
type Global struct {
	net    *network.ActorCritic
	solver *solver.Shared

	episodes atomic.Int64

	mu            sync.Mutex
	movingAverage float64
	results       chan Episode
}

// NewGlobal returns a new Global that updates net with a shared solver.
// At most capacity episode results are buffered before Record blocks.
func NewGlobal(net *network.ActorCritic, c solver.Config,
	capacity int) (*Global, error) {
	shared, err := solver.NewShared(c, net.Learnables())
	if err != nil {
		return nil, fmt.Errorf("newGlobal: %w", err)
	}

	return &Global{
		net:     net,
		solver:  shared,
		results: make(chan Episode, capacity),
	}, nil
}

// Episodes returns the number of episodes recorded so far
func (g *Global) Episodes() int {
	return int(g.episodes.Load())
}

// MovingAverage returns the moving average of episode returns
func (g *Global) MovingAverage() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.movingAverage
}

// Record records the return of a finished episode of a worker and
// publishes the result. The moving average starts at the first
// episode's return and then decays by 0.99 per episode.
func (g *Global) Record(worker string, episodeReturn float64) Episode {
	g.mu.Lock()
	defer g.mu.Unlock()

	number := int(g.episodes.Add(1))
	if number == 1 {
		g.movingAverage = episodeReturn
	} else {
		g.movingAverage = 0.99*g.movingAverage + 0.01*episodeReturn
	}

	episode := Episode{
		Worker:        worker,
		Number:        number,
		Return:        episodeReturn,
		MovingAverage: g.movingAverage,
	}
	g.results <- episode
	return episode
}

// Results returns the channel on which recorded episodes are published
func (g *Global) Results() <-chan Episode {
	return g.results
}

// close closes the results channel. No episode may be recorded after.
func (g *Global) close() {
	close(g.results)
}

// Push applies the gradients of a worker's local network to the global
// network
func (g *Global) Push(local []G.ValueGrad) error {
	return g.solver.Step(local)
}

// Pull copies the global weights into a worker's local network
func (g *Global) Pull(local network.NeuralNet) error {
	g.solver.RLock()
	defer g.solver.RUnlock()

	if err := network.Set(local, g.net); err != nil {
		return fmt.Errorf("pull: %w", err)
	}
	return nil
}

// Updates returns the number of updates applied to the global network
func (g *Global) Updates() int {
	return g.solver.Steps()
}

// Snapshot returns a copy of the global network with a batch size of
// 1 on its own graph
func (g *Global) Snapshot() (*network.ActorCritic, error) {
	g.solver.RLock()
	defer g.solver.RUnlock()

	net, err := g.net.CloneActorCritic(1)
	if err != nil {
		return nil, fmt.Errorf("snapshot: %w", err)
	}
	return net, nil
}
