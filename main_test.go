package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samuelfneumann/goa3c/experiment/tracker"
)

func writeConfig(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "config.yaml")
	cfg := fmt.Sprintf(`
a3c:
  workers: 2
  max_episodes: 3
  policy_hidden: [8]
  value_hidden: [8]
env:
  environment: cartpole
  cartpole:
    episode_cutoff: 20
logging:
  level: error
output:
  dir: %v
  checkpoint_every: 1
`, filepath.Join(dir, "runs"))
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0o644))
	return path
}

func TestTrainAndEvaluate(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir)

	root := newRootCmd()
	root.SetArgs([]string{"train", "--config", path, "--no-progress",
		"--workers", "1"})
	require.NoError(t, root.ExecuteContext(context.Background()))

	runs, err := os.ReadDir(filepath.Join(dir, "runs"))
	require.NoError(t, err)
	require.Len(t, runs, 1)
	runDir := filepath.Join(dir, "runs", runs[0].Name())

	for _, name := range []string{"config.yaml", "series.bin", "returns.bin",
		"global.bin", "global-1.bin", "global-3.bin"} {
		assert.FileExists(t, filepath.Join(runDir, name))
	}

	series, err := tracker.LoadData(filepath.Join(runDir, "series.bin"))
	require.NoError(t, err)
	assert.Len(t, series, 3)

	var out bytes.Buffer
	root = newRootCmd()
	root.SetOut(&out)
	root.SetArgs([]string{"evaluate",
		"--config", filepath.Join(runDir, "config.yaml"),
		"--checkpoint", filepath.Join(runDir, "global.bin"),
		"--episodes", "2", "--max-steps", "20"})
	require.NoError(t, root.ExecuteContext(context.Background()))
	assert.Contains(t, out.String(), "episodes: 2")
}

func TestTrainInvalidConfig(t *testing.T) {
	dir := t.TempDir()
	path := writeConfig(t, dir)

	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"train", "--config", path, "--max-episodes", "-1"})
	assert.Error(t, root.ExecuteContext(context.Background()))
}
