package a3c

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/samuelfneumann/goa3c/environment"
	"github.com/samuelfneumann/goa3c/network"
)

// EnvFactory creates the environment of a worker. Environments must
// stop any blocking work when ctx is cancelled.
type EnvFactory func(ctx context.Context, worker int) (environment.Environment,
	error)

// Option configures a Trainer
type Option func(*Trainer)

// WithEpisodeHook adds a function called with every recorded episode.
// Hooks are called sequentially from a single goroutine.
func WithEpisodeHook(hook func(Episode)) Option {
	return func(t *Trainer) {
		t.hooks = append(t.hooks, hook)
	}
}

// WithRecorder sets the recorder that workers report their progress to
func WithRecorder(r Recorder) Option {
	return func(t *Trainer) {
		t.recorder = r
	}
}

// WithInitialNetwork starts training from the weights of net instead
// of a newly initialized network
func WithInitialNetwork(net *network.ActorCritic) Option {
	return func(t *Trainer) {
		t.initial = net
	}
}

// Trainer trains a global actor-critic network with asynchronous
// workers, each acting in its own environment.
type Trainer struct {
	config  Config
	envs    EnvFactory
	logger  *zap.Logger
	initial *network.ActorCritic

	hooks    []func(Episode)
	recorder Recorder

	global *Global
}

// NewTrainer returns a new Trainer
func NewTrainer(c Config, envs EnvFactory, logger *zap.Logger,
	opts ...Option) (*Trainer, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("newTrainer: %w", err)
	}
	if envs == nil {
		return nil, fmt.Errorf("newTrainer: no environment factory")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	t := &Trainer{
		config:   c,
		envs:     envs,
		logger:   logger.Named("a3c"),
		recorder: nopRecorder{},
	}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// Global returns the global state of the last call to Run, or nil if
// Run was never called
func (t *Trainer) Global() *Global {
	return t.global
}

// Run trains the global network until the maximum number of episodes
// is reached and returns the moving average return after each episode.
// Run waits for every worker to finish. The first worker error cancels
// the remaining workers and is returned along with the returns
// recorded so far.
func (t *Trainer) Run(ctx context.Context) ([]float64, error) {
	eg, ctx := errgroup.WithContext(ctx)

	workers, err := t.newWorkers(ctx)
	if err != nil {
		return nil, fmt.Errorf("run: %w", err)
	}
	t.logger.Info("starting workers",
		zap.Int("workers", len(workers)),
		zap.Int("max_episodes", t.config.MaxEpisodes),
	)

	for _, w := range workers {
		w := w
		eg.Go(func() error {
			return w.Run(ctx)
		})
	}

	series := make([]float64, 0, t.config.MaxEpisodes)
	collected := make(chan struct{})
	go func() {
		defer close(collected)
		for e := range t.global.Results() {
			series = append(series, e.MovingAverage)
			for _, hook := range t.hooks {
				hook(e)
			}
		}
	}()

	runErr := eg.Wait()
	t.global.close()
	<-collected

	closeErr := closeWorkers(workers)
	if runErr != nil {
		return series, fmt.Errorf("run: %w", runErr)
	}
	if closeErr != nil {
		return series, fmt.Errorf("run: %w", closeErr)
	}

	t.logger.Info("training finished",
		zap.Int("episodes", t.global.Episodes()),
		zap.Int("updates", t.global.Updates()),
		zap.Float64("moving_average", t.global.MovingAverage()),
	)
	return series, nil
}

// newWorkers creates the environments and workers of a run along with
// the global network they train
func (t *Trainer) newWorkers(ctx context.Context) ([]*Worker, error) {
	n := t.config.NumWorkers()

	envs := make([]environment.Environment, 0, n)
	closeEnvs := func() {
		for _, env := range envs {
			env.Close()
		}
	}
	for i := 0; i < n; i++ {
		env, err := t.envs(ctx, i)
		if err != nil {
			closeEnvs()
			return nil, fmt.Errorf("could not create environment %d: %w",
				i, err)
		}
		envs = append(envs, env)
	}

	features, actions, err := dimensions(envs)
	if err != nil {
		closeEnvs()
		return nil, err
	}

	net, err := t.globalNetwork(features, actions)
	if err != nil {
		closeEnvs()
		return nil, err
	}

	// Each worker can overshoot the episode limit by one episode
	capacity := t.config.MaxEpisodes + n
	global, err := NewGlobal(net, t.config.Solver, capacity)
	if err != nil {
		closeEnvs()
		return nil, err
	}
	t.global = global

	workers := make([]*Worker, 0, n)
	for i, env := range envs {
		name := fmt.Sprintf("w%02d", i)
		w, err := NewWorker(name, global, env, t.config,
			t.config.Seed+uint64(i), t.recorder, t.logger)
		if err != nil {
			closeWorkers(workers)
			for _, env := range envs[i:] {
				env.Close()
			}
			return nil, err
		}
		workers = append(workers, w)
	}
	return workers, nil
}

// globalNetwork returns the network to train
func (t *Trainer) globalNetwork(features, actions int) (*network.ActorCritic,
	error) {
	if t.initial == nil {
		net, err := t.config.newNetwork(features, actions, 1)
		if err != nil {
			return nil, fmt.Errorf("could not create global network: %w",
				err)
		}
		return net, nil
	}

	if t.initial.Features() != features || t.initial.Actions() != actions {
		return nil, fmt.Errorf("initial network has %d features and %d "+
			"actions, environment has %d features and %d actions",
			t.initial.Features(), t.initial.Actions(), features, actions)
	}
	net, err := t.initial.CloneActorCritic(1)
	if err != nil {
		return nil, fmt.Errorf("could not copy initial network: %w", err)
	}
	return net, nil
}

// dimensions returns the number of features and actions of the
// environments, which must agree
func dimensions(envs []environment.Environment) (int, int, error) {
	features, actions := -1, -1
	for i, env := range envs {
		f := env.ObservationSpec().Shape.Len()
		a, err := environment.NumActions(env.ActionSpec())
		if err != nil {
			return 0, 0, fmt.Errorf("environment %d: %w", i, err)
		}

		if i == 0 {
			features, actions = f, a
		} else if f != features || a != actions {
			return 0, 0, fmt.Errorf("environment %d has %d features and %d "+
				"actions, environment 0 has %d features and %d actions", i,
				f, a, features, actions)
		}
	}
	return features, actions, nil
}

func closeWorkers(workers []*Worker) error {
	var errs []error
	for _, w := range workers {
		if err := w.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
