package remote

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/samuelfneumann/goa3c/environment"
	"github.com/samuelfneumann/goa3c/utils/logging"
)

// gameServer is a fake game server whose episodes last three steps
// and whose frames are filled with the colour (step, 2*step, 255).
type gameServer struct {
	height, width int
	steps         int
	actions       []int
	failures      int32
}

func (g *gameServer) frame(t *testing.T) string {
	img := image.NewRGBA(image.Rect(0, 0, g.width, g.height))
	for y := 0; y < g.height; y++ {
		for x := 0; x < g.width; x++ {
			img.Set(x, y, color.RGBA{uint8(g.steps), uint8(2 * g.steps), 255,
				255})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

func (g *gameServer) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/reset", func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&g.failures, -1) >= 0 {
			http.Error(w, "warming up", http.StatusServiceUnavailable)
			return
		}
		g.steps = 0
		json.NewEncoder(w).Encode(response{Frame: g.frame(t)})
	})
	mux.HandleFunc("/step", func(w http.ResponseWriter, r *http.Request) {
		var req stepRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		g.actions = append(g.actions, req.Action)
		g.steps++
		json.NewEncoder(w).Encode(response{
			Frame:  g.frame(t),
			Reward: float64(req.Action) - 1,
			Done:   g.steps == 3,
		})
	})
	return mux
}

func testConfig(url string) Config {
	c := DefaultConfig()
	c.URL = url
	c.FrameHeight = 2
	c.FrameWidth = 3
	c.RetryDelay = time.Millisecond
	c.Attempts = 3
	return c
}

func TestFrameEpisode(t *testing.T) {
	game := &gameServer{height: 2, width: 3}
	server := httptest.NewServer(game.handler(t))
	defer server.Close()

	env, err := New(context.Background(), testConfig(server.URL),
		logging.Test(t))
	require.NoError(t, err)
	defer env.Close()

	framer, ok := env.(environment.Framer)
	require.True(t, ok)
	h, w := framer.FrameShape()
	assert.Equal(t, 2, h)
	assert.Equal(t, 3, w)
	assert.Equal(t, 18, env.ObservationSpec().Shape.Len())

	step, err := env.Reset()
	require.NoError(t, err)
	assert.True(t, step.First())
	assert.Equal(t, []float64{0, 0, 255}, step.Observation.RawVector().Data[:3])

	var done bool
	for i := 0; i < 3; i++ {
		step, done, err = env.Step(mat.NewVecDense(1, []float64{2}))
		require.NoError(t, err)
		assert.Equal(t, 1.0, step.Reward)
		assert.Equal(t, i+1, step.Number)
	}
	assert.True(t, done)
	assert.True(t, step.Last())
	assert.Equal(t, []float64{3, 6, 255}, step.Observation.RawVector().Data[15:])
	assert.Equal(t, []int{2, 2, 2}, game.actions)

	_, _, err = env.Step(mat.NewVecDense(1, []float64{0}))
	assert.Error(t, err)
}

func TestResetRetries(t *testing.T) {
	game := &gameServer{height: 2, width: 3, failures: 2}
	server := httptest.NewServer(game.handler(t))
	defer server.Close()

	env, err := New(context.Background(), testConfig(server.URL),
		logging.Test(t))
	require.NoError(t, err)

	_, err = env.Reset()
	require.NoError(t, err)
}

func TestResetGivesUp(t *testing.T) {
	game := &gameServer{height: 2, width: 3, failures: 10}
	server := httptest.NewServer(game.handler(t))
	defer server.Close()

	env, err := New(context.Background(), testConfig(server.URL),
		logging.Test(t))
	require.NoError(t, err)

	_, err = env.Reset()
	assert.ErrorContains(t, err, "503")
}

func TestClientErrorsAreNotRetried(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			atomic.AddInt32(&calls, 1)
			http.Error(w, "no such game", http.StatusNotFound)
		}))
	defer server.Close()

	env, err := New(context.Background(), testConfig(server.URL),
		logging.Test(t))
	require.NoError(t, err)

	_, err = env.Reset()
	assert.Error(t, err)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestStepServerErrorsAreNotRetried(t *testing.T) {
	game := &gameServer{height: 2, width: 3}
	var steps int32
	mux := http.NewServeMux()
	mux.Handle("/reset", game.handler(t))
	mux.HandleFunc("/step", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&steps, 1)
		http.Error(w, "lost", http.StatusBadGateway)
	})
	server := httptest.NewServer(mux)
	defer server.Close()

	env, err := New(context.Background(), testConfig(server.URL),
		logging.Test(t))
	require.NoError(t, err)

	_, err = env.Reset()
	require.NoError(t, err)

	_, _, err = env.Step(mat.NewVecDense(1, []float64{1}))
	assert.ErrorContains(t, err, "502")
	assert.Equal(t, int32(1), atomic.LoadInt32(&steps))
}

func TestNotSent(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	_, err := http.Post(url, "application/json", nil)
	require.Error(t, err)
	assert.True(t, notSent(err))
	assert.False(t, notSent(errors.New("server returned status 502")))
}

func TestVectorObservations(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(response{
				Observation: []float64{0.1, 0.2},
				Reward:      0.5,
			})
		}))
	defer server.Close()

	config := testConfig(server.URL)
	config.FrameHeight, config.FrameWidth = 0, 0
	config.Observations = 2

	env, err := New(context.Background(), config, nil)
	require.NoError(t, err)
	_, ok := env.(environment.Framer)
	assert.False(t, ok)

	_, _, err = env.Step(mat.NewVecDense(1, []float64{0}))
	assert.Error(t, err, "stepping before reset")

	step, err := env.Reset()
	require.NoError(t, err)
	assert.Equal(t, []float64{0.1, 0.2}, step.Observation.RawVector().Data)

	_, _, err = env.Step(mat.NewVecDense(1, []float64{3}))
	assert.Error(t, err, "illegal action")

	step, done, err := env.Step(mat.NewVecDense(1, []float64{1}))
	require.NoError(t, err)
	assert.False(t, done)
	assert.Equal(t, 0.5, step.Reward)
}

func TestCancelledContext(t *testing.T) {
	game := &gameServer{height: 2, width: 3}
	server := httptest.NewServer(game.handler(t))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	env, err := New(ctx, testConfig(server.URL), logging.Test(t))
	require.NoError(t, err)

	_, err = env.Reset()
	assert.Error(t, err)
}

func TestConfigValidate(t *testing.T) {
	require.NoError(t, DefaultConfig().Validate())

	c := DefaultConfig()
	c.URL = ""
	assert.Error(t, c.Validate())

	c = DefaultConfig()
	c.FrameHeight, c.FrameWidth = 0, 0
	assert.Error(t, c.Validate())

	c = DefaultConfig()
	c.Attempts = 0
	assert.Error(t, c.Validate())
}
