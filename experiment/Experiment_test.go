package experiment

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samuelfneumann/goa3c/agent/a3c"
	"github.com/samuelfneumann/goa3c/environment"
	"github.com/samuelfneumann/goa3c/environment/cartpole"
	"github.com/samuelfneumann/goa3c/experiment/checkpointer"
	"github.com/samuelfneumann/goa3c/experiment/tracker"
	"github.com/samuelfneumann/goa3c/experiment/trackers"
	"github.com/samuelfneumann/goa3c/network"
	"github.com/samuelfneumann/goa3c/utils/logging"
)

func testConfig() a3c.Config {
	c := a3c.DefaultConfig()
	c.Workers = 1
	c.MaxEpisodes = 4
	c.PolicyHidden = []int{8}
	c.ValueHidden = []int{8}
	return c
}

func cartpoleFactory(_ context.Context, worker int) (environment.Environment,
	error) {
	env, _ := cartpole.NewDefault(25, 0.9, uint64(worker))
	return env, nil
}

func TestExperiment(t *testing.T) {
	dir := t.TempDir()

	exp, err := New(testConfig(), cartpoleFactory, logging.Test(t))
	require.NoError(t, err)

	_, err = exp.Snapshot()
	assert.Error(t, err)

	series := trackers.NewSeries(filepath.Join(dir, "series.bin"))
	returns := trackers.NewReturn(filepath.Join(dir, "returns.bin"))
	exp.Register(series)
	exp.Register(tracker.Register(returns, "w00"))

	check, err := checkpointer.NewNEpisode(2, exp.Snapshot,
		checkpointer.FilenameEnumerator(0, dir, "global", ".bin"))
	require.NoError(t, err)
	exp.RegisterCheckpointer(check)

	curve, err := exp.Run(context.Background())
	require.NoError(t, err)
	require.Len(t, curve, 4)
	require.NoError(t, exp.Save())

	saved, err := tracker.LoadData(filepath.Join(dir, "series.bin"))
	require.NoError(t, err)
	assert.Equal(t, curve, saved)

	saved, err = tracker.LoadData(filepath.Join(dir, "returns.bin"))
	require.NoError(t, err)
	assert.Len(t, saved, 4)
	assert.Equal(t, saved[0], curve[0])

	// Episodes 2 and 4 were checkpointed
	for _, name := range []string{"global-1.bin", "global-2.bin"} {
		var net network.ActorCritic
		require.NoError(t, checkpointer.Load(filepath.Join(dir, name), &net))
		assert.Equal(t, 4, net.Features())
		assert.Equal(t, 3, net.Actions())
		assert.Equal(t, 1, net.BatchSize())
	}
	assert.NoFileExists(t, filepath.Join(dir, "global-3.bin"))
}

func TestExperimentCheckpointError(t *testing.T) {
	exp, err := New(testConfig(), cartpoleFactory, nil)
	require.NoError(t, err)

	check, err := checkpointer.NewNEpisode(1, exp.Snapshot,
		checkpointer.FileTimer(filepath.Join(t.TempDir(), "missing"),
			"global", ".bin"))
	require.NoError(t, err)
	exp.RegisterCheckpointer(check)

	curve, err := exp.Run(context.Background())
	assert.Error(t, err)
	assert.Len(t, curve, 4)
}
