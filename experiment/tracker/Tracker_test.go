package tracker

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samuelfneumann/goa3c/agent/a3c"
)

type sliceTracker struct {
	episodes []a3c.Episode
}

func (s *sliceTracker) Track(e a3c.Episode) { s.episodes = append(s.episodes, e) }
func (s *sliceTracker) Save() error         { return nil }

func TestSaveLoadData(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "data.bin")
	require.NoError(t, SaveData(filename, []float64{1, 2.5, -3}))

	data, err := LoadData(filename)
	require.NoError(t, err)
	assert.Equal(t, []float64{1, 2.5, -3}, data)

	_, err = LoadData(filepath.Join(t.TempDir(), "missing.bin"))
	assert.Error(t, err)
}

func TestRegister(t *testing.T) {
	inner := &sliceTracker{}
	registered := Register(inner, "w01")

	registered.Track(a3c.Episode{Worker: "w00", Number: 1})
	registered.Track(a3c.Episode{Worker: "w01", Number: 2})
	registered.Track(a3c.Episode{Worker: "w02", Number: 3})

	require.Len(t, inner.episodes, 1)
	assert.Equal(t, 2, inner.episodes[0].Number)
	assert.NoError(t, registered.Save())
}
