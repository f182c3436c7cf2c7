// Package experiment implements functionality for running an experiment
package experiment

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/samuelfneumann/goa3c/agent/a3c"
	"github.com/samuelfneumann/goa3c/experiment/checkpointer"
	"github.com/samuelfneumann/goa3c/experiment/tracker"
)

// Experiment runs an A3C trainer and sends each recorded episode to
// its Trackers and Checkpointers. Trackers cache episode data in RAM
// to be later saved to disk with Save, usually after the experiment
// has been run. Checkpointers save the global network while the
// experiment runs.
//
// Trackers and Checkpointers must be registered before Run is called.
type Experiment struct {
	trainer       *a3c.Trainer
	trackers      []tracker.Tracker
	checkpointers []checkpointer.Checkpointer
	logger        *zap.Logger

	checkpointErrs []error
}

// New creates and returns a new experiment training with config c in
// the environments created by envs
func New(c a3c.Config, envs a3c.EnvFactory, logger *zap.Logger,
	opts ...a3c.Option) (*Experiment, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	e := &Experiment{logger: logger.Named("experiment")}

	opts = append(opts, a3c.WithEpisodeHook(e.track))
	trainer, err := a3c.NewTrainer(c, envs, logger, opts...)
	if err != nil {
		return nil, fmt.Errorf("new: %w", err)
	}
	e.trainer = trainer
	return e, nil
}

// Register registers a tracker.Tracker with the Experiment so that
// data generated during the experiment can be tracked and saved
func (e *Experiment) Register(t tracker.Tracker) {
	e.trackers = append(e.trackers, t)
}

// RegisterCheckpointer registers a Checkpointer with the Experiment
func (e *Experiment) RegisterCheckpointer(c checkpointer.Checkpointer) {
	e.checkpointers = append(e.checkpointers, c)
}

// Snapshot returns a copy of the global network being trained
func (e *Experiment) Snapshot() (checkpointer.Serializable, error) {
	global := e.trainer.Global()
	if global == nil {
		return nil, fmt.Errorf("snapshot: experiment is not running")
	}
	net, err := global.Snapshot()
	if err != nil {
		return nil, err
	}
	return net, nil
}

// Trainer returns the trainer run by the experiment
func (e *Experiment) Trainer() *a3c.Trainer {
	return e.trainer
}

// Run runs the experiment until the trainer finishes and returns the
// moving average return after each episode. Failed checkpoints are
// logged and do not stop training, but are returned once training
// finishes.
func (e *Experiment) Run(ctx context.Context) ([]float64, error) {
	e.checkpointErrs = nil

	series, err := e.trainer.Run(ctx)
	if err != nil {
		return series, fmt.Errorf("run: %w", err)
	}
	if err := errors.Join(e.checkpointErrs...); err != nil {
		return series, fmt.Errorf("run: %w", err)
	}
	return series, nil
}

// Save saves all the data cached by the Trackers to disk
func (e *Experiment) Save() error {
	var errs []error
	for _, t := range e.trackers {
		if err := t.Save(); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("save: %w", err)
	}
	return nil
}

// track sends an episode to each Tracker and Checkpointer
func (e *Experiment) track(ep a3c.Episode) {
	for _, t := range e.trackers {
		t.Track(ep)
	}

	for _, c := range e.checkpointers {
		if err := c.Checkpoint(ep); err != nil {
			e.logger.Error("checkpoint failed",
				zap.Int("episode", ep.Number), zap.Error(err))
			e.checkpointErrs = append(e.checkpointErrs, err)
		}
	}
}
