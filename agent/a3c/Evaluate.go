package a3c

import (
	"context"
	"fmt"

	"github.com/samuelfneumann/goa3c/environment"
	"github.com/samuelfneumann/goa3c/network"
)

// Evaluate runs greedy episodes of net in env and returns the
// return of each. Episodes that have not ended after maxSteps steps are
// cut off, maxSteps <= 0 runs episodes until they end.
func Evaluate(ctx context.Context, net *network.ActorCritic,
	env environment.Environment, episodes, maxSteps int) ([]float64, error) {
	if episodes <= 0 {
		return nil, fmt.Errorf("evaluate: episodes must be positive, got %d",
			episodes)
	}

	actNet, err := net.CloneActorCritic(1)
	if err != nil {
		return nil, fmt.Errorf("evaluate: %w", err)
	}
	policy, err := NewPolicy(actNet, 0)
	if err != nil {
		return nil, fmt.Errorf("evaluate: %w", err)
	}
	defer policy.Close()
	policy.Eval()

	returns := make([]float64, 0, episodes)
	for i := 0; i < episodes; i++ {
		step, err := env.Reset()
		if err != nil {
			return returns, fmt.Errorf("evaluate: could not reset "+
				"environment: %w", err)
		}

		episodeReturn := 0.0
		for steps := 0; maxSteps <= 0 || steps < maxSteps; steps++ {
			if err := ctx.Err(); err != nil {
				return returns, err
			}

			action, err := policy.SelectAction(step)
			if err != nil {
				return returns, fmt.Errorf("evaluate: %w", err)
			}

			var done bool
			step, done, err = env.Step(action)
			if err != nil {
				return returns, fmt.Errorf("evaluate: could not step "+
					"environment: %w", err)
			}
			episodeReturn += step.Reward
			if done {
				break
			}
		}
		returns = append(returns, episodeReturn)
	}
	return returns, nil
}
