package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samuelfneumann/goa3c/environment/envconfig"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), *cfg)
	assert.Equal(t, 30*time.Second, cfg.Env.Remote.Timeout)
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
a3c:
  workers: 4
  policy_hidden: [64, 32]
  solver:
    type: rmsprop
    step_size: 0.001
    epsilon: 0.0000001
    rho: 0.9
env:
  environment: cartpole
  cartpole:
    episode_cutoff: 200
`), 0o644))

	t.Setenv("A3C_LOGGING_LEVEL", "debug")
	t.Setenv("A3C_A3C_MAX_EPISODES", "10")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.A3C.Workers)
	assert.Equal(t, []int{64, 32}, cfg.A3C.PolicyHidden)
	assert.Equal(t, 0.9, cfg.A3C.Solver.Rho)
	assert.Equal(t, envconfig.Cartpole, cfg.Env.Environment)
	assert.Equal(t, 200, cfg.Env.Cartpole.EpisodeCutoff)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, 10, cfg.A3C.MaxEpisodes)

	// Keys missing from the file keep their defaults
	assert.Equal(t, 0.9, cfg.A3C.Gamma)
	assert.Equal(t, Default().A3C.ValueHidden, cfg.A3C.ValueHidden)
}

func TestLoadInvalid(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("a3c:\n  gamma: 2\n"),
		0o644))
	_, err = Load(path)
	assert.Error(t, err)

	t.Setenv("A3C_LOGGING_LEVEL", "loud")
	_, err = Load("")
	assert.Error(t, err)
}

func TestSaveLoad(t *testing.T) {
	cfg := Default()
	cfg.A3C.Workers = 3
	cfg.Env.Environment = envconfig.Cartpole
	cfg.Output.CheckpointEvery = 0

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, cfg.Save(path))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, *loaded)
}
