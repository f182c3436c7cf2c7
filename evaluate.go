package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/stat"

	"github.com/samuelfneumann/goa3c/agent/a3c"
	"github.com/samuelfneumann/goa3c/experiment/checkpointer"
	"github.com/samuelfneumann/goa3c/network"
)

func newEvaluateCmd() *cobra.Command {
	var (
		checkpoint string
		episodes   int
		maxSteps   int
	)

	cmd := &cobra.Command{
		Use:   "evaluate",
		Short: "Run greedy episodes of a checkpointed network",
		Example: `  # Evaluate the final network of a run for 10 episodes
  a3c evaluate --config runs/<id>/config.yaml --checkpoint runs/<id>/global.bin --episodes 10`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck

			var net network.ActorCritic
			if err := checkpointer.Load(checkpoint, &net); err != nil {
				return err
			}

			envs, err := cfg.Env.Factory(cfg.A3C.Seed, logger)
			if err != nil {
				return err
			}
			env, err := envs(cmd.Context(), 0)
			if err != nil {
				return err
			}
			defer env.Close()

			returns, err := a3c.Evaluate(cmd.Context(), &net, env, episodes,
				maxSteps)
			if err != nil {
				return err
			}
			for i, r := range returns {
				logger.Debug("episode", zap.Int("episode", i+1),
					zap.Float64("return", r))
			}

			mean, std := stat.MeanStdDev(returns, nil)
			fmt.Fprintf(cmd.OutOrStdout(), "episodes: %d  mean return: %.3f  "+
				"std: %.3f\n", len(returns), mean, std)
			return nil
		},
	}

	cmd.Flags().StringVar(&checkpoint, "checkpoint", "",
		"Checkpoint of the global network")
	cmd.Flags().IntVar(&episodes, "episodes", 10, "Number of episodes")
	cmd.Flags().IntVar(&maxSteps, "max-steps", 0,
		"Maximum steps per episode, 0 runs episodes until they end")
	_ = cmd.MarkFlagRequired("checkpoint")
	return cmd
}
