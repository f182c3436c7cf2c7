package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/samuelfneumann/goa3c/agent/a3c"
	"github.com/samuelfneumann/goa3c/experiment"
	"github.com/samuelfneumann/goa3c/experiment/checkpointer"
	"github.com/samuelfneumann/goa3c/experiment/trackers"
	"github.com/samuelfneumann/goa3c/metrics"
	"github.com/samuelfneumann/goa3c/utils/progressbar"
)

func newTrainCmd() *cobra.Command {
	var (
		workers     int
		maxEpisodes int
		noProgress  bool
	)

	cmd := &cobra.Command{
		Use:   "train",
		Short: "Train a global actor-critic network",
		Example: `  # Train on a local game server with 8 workers
  a3c train --config cfg.yaml --workers 8`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck

			if cmd.Flags().Changed("workers") {
				cfg.A3C.Workers = workers
			}
			if cmd.Flags().Changed("max-episodes") {
				cfg.A3C.MaxEpisodes = maxEpisodes
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			ctx := cmd.Context()

			runDir := filepath.Join(cfg.Output.Dir, uuid.NewString())
			if err := os.MkdirAll(runDir, 0o755); err != nil {
				return fmt.Errorf("could not create run directory: %w", err)
			}
			if err := cfg.Save(filepath.Join(runDir, "config.yaml")); err != nil {
				return err
			}
			logger = logger.With(zap.String("run", filepath.Base(runDir)))
			logger.Info("starting run", zap.String("dir", runDir),
				zap.Int("workers", cfg.A3C.NumWorkers()))

			envs, err := cfg.Env.Factory(cfg.A3C.Seed, logger)
			if err != nil {
				return err
			}

			var opts []a3c.Option
			if cfg.Metrics.Address != "" {
				reg := prometheus.NewRegistry()
				recorder, err := metrics.NewRecorder(reg)
				if err != nil {
					return err
				}
				opts = append(opts, a3c.WithRecorder(recorder))

				go func() {
					if err := metrics.Serve(ctx, cfg.Metrics.Address, reg,
						logger); err != nil {
						logger.Error("metrics server failed", zap.Error(err))
					}
				}()
			}

			if !noProgress {
				bar := progressbar.NewManualProgressBar(cmd.ErrOrStderr(), 40,
					cfg.A3C.MaxEpisodes)
				defer bar.Close()
				opts = append(opts, a3c.WithEpisodeHook(func(a3c.Episode) {
					bar.Increment()
					bar.Display()
				}))
			}

			exp, err := experiment.New(cfg.A3C, envs, logger, opts...)
			if err != nil {
				return err
			}
			exp.Register(trackers.NewSeries(filepath.Join(runDir, "series.bin")))
			exp.Register(trackers.NewReturn(filepath.Join(runDir, "returns.bin")))

			if cfg.Output.CheckpointEvery > 0 {
				c, err := checkpointer.NewNEpisode(cfg.Output.CheckpointEvery,
					exp.Snapshot, checkpointer.FilenameEnumerator(0, runDir,
						"global", ".bin"))
				if err != nil {
					return err
				}
				exp.RegisterCheckpointer(c)
			}

			series, runErr := exp.Run(ctx)
			if err := exp.Save(); err != nil {
				logger.Error("could not save results", zap.Error(err))
			}

			// The global network exists once workers started
			if global := exp.Trainer().Global(); global != nil {
				net, err := global.Snapshot()
				if err == nil {
					err = checkpointer.Save(filepath.Join(runDir, "global.bin"),
						net)
				}
				if err != nil {
					logger.Error("could not save global network", zap.Error(err))
				}
			}
			if runErr != nil {
				return runErr
			}

			final := 0.0
			if len(series) > 0 {
				final = series[len(series)-1]
			}
			logger.Info("run finished", zap.Int("episodes", len(series)),
				zap.Float64("moving_average", final))
			return nil
		},
	}

	cmd.Flags().IntVar(&workers, "workers", 0,
		"Number of workers, 0 uses one per CPU (overrides the config)")
	cmd.Flags().IntVar(&maxEpisodes, "max-episodes", 0,
		"Number of episodes to train for (overrides the config)")
	cmd.Flags().BoolVar(&noProgress, "no-progress", false,
		"Do not display a progress bar")
	return cmd
}
