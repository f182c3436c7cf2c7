package a3c

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/samuelfneumann/goa3c/environment"
)

// Recorder records the progress of training, for example as metrics.
// Recorders are called concurrently by all workers.
type Recorder interface {
	// Episode records a finished episode
	Episode(e Episode)

	// Update records that a worker pushed an update with the given loss
	Update(worker string, loss float64)
}

type nopRecorder struct{}

func (nopRecorder) Episode(Episode)        {}
func (nopRecorder) Update(string, float64) {}

// Worker runs episodes in its own environment with a local learner
// until the global episode limit is reached.
type Worker struct {
	name        string
	agent       *Agent
	env         environment.Environment
	global      *Global
	updateEvery int
	maxEpisodes int

	recorder Recorder
	logger   *zap.Logger
}

// NewWorker returns a new worker that trains the global network in env
func NewWorker(name string, global *Global, env environment.Environment,
	c Config, seed uint64, recorder Recorder, logger *zap.Logger) (*Worker,
	error) {
	agent, err := NewAgent(global, c, seed)
	if err != nil {
		return nil, fmt.Errorf("newWorker: %w", err)
	}
	if recorder == nil {
		recorder = nopRecorder{}
	}

	return &Worker{
		name:        name,
		agent:       agent,
		env:         env,
		global:      global,
		updateEvery: c.UpdateGlobalIter,
		maxEpisodes: c.MaxEpisodes,
		recorder:    recorder,
		logger:      logger.With(zap.String("worker", name)),
	}, nil
}

// Name returns the name of the worker
func (w *Worker) Name() string {
	return w.name
}

// Run runs episodes until the global network has seen the maximum
// number of episodes or ctx is cancelled. The episode limit is only
// checked between episodes, so workers may overshoot it by the number
// of episodes in progress.
func (w *Worker) Run(ctx context.Context) error {
	totalStep := 1
	for w.global.Episodes() < w.maxEpisodes {
		if err := ctx.Err(); err != nil {
			return err
		}

		step, err := w.env.Reset()
		if err != nil {
			return fmt.Errorf("run: %v: could not reset environment: %w",
				w.name, err)
		}
		if err := w.agent.ObserveFirst(step); err != nil {
			return fmt.Errorf("run: %v: %w", w.name, err)
		}
		episodeReward := 0.0

		for {
			if err := ctx.Err(); err != nil {
				return err
			}

			action, err := w.agent.SelectAction(step)
			if err != nil {
				return fmt.Errorf("run: %v: %w", w.name, err)
			}

			next, done, err := w.env.Step(action)
			if err != nil {
				return fmt.Errorf("run: %v: could not step environment: %w",
					w.name, err)
			}
			episodeReward += next.Reward

			if err := w.agent.Observe(action, next); err != nil {
				return fmt.Errorf("run: %v: %w", w.name, err)
			}
			w.logger.Debug("step",
				zap.Int("action", int(action.AtVec(0))),
				zap.Float64("reward", next.Reward),
				zap.Float64("episode_reward", episodeReward),
				zap.Bool("done", done),
			)

			if totalStep%w.updateEvery == 0 || done {
				if err := w.agent.Step(); err != nil {
					return fmt.Errorf("run: %v: %w", w.name, err)
				}
				w.recorder.Update(w.name, w.agent.Loss())

				if done {
					w.agent.EndEpisode()
					e := w.global.Record(w.name, episodeReward)
					w.recorder.Episode(e)
					w.logger.Info("episode",
						zap.Int("episode", e.Number),
						zap.Float64("return", e.Return),
						zap.Float64("moving_average", e.MovingAverage),
					)
					break
				}
			}

			step = next
			totalStep++
		}
	}
	return nil
}

// Close releases the worker's learner and environment
func (w *Worker) Close() error {
	agentErr := w.agent.Close()
	if err := w.env.Close(); err != nil {
		return fmt.Errorf("close: %v: %w", w.name, err)
	}
	if agentErr != nil {
		return fmt.Errorf("close: %v: %w", w.name, agentErr)
	}
	return nil
}
