// Command a3c trains actor-critic agents with asynchronous workers and
// evaluates the trained networks.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/samuelfneumann/goa3c/config"
	"github.com/samuelfneumann/goa3c/utils/logging"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt,
		syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "a3c",
		Short:         "Asynchronous advantage actor-critic trainer",
		SilenceUsage:  true,
	}

	root.PersistentFlags().StringP("config", "c", "",
		"Config file (yaml, json or toml), defaults are used if empty")

	root.AddCommand(newTrainCmd(), newEvaluateCmd())
	return root
}

// loadConfig loads the config named by the --config flag and builds
// the logger it describes
func loadConfig(cmd *cobra.Command) (*config.Config, *zap.Logger, error) {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return nil, nil, err
	}

	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Development)
	if err != nil {
		return nil, nil, fmt.Errorf("could not create logger: %w", err)
	}
	return cfg, logger, nil
}
