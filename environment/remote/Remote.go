// Package remote implements an environment that lives in a separate
// server process and is reached over HTTP.
//
// The server exposes two endpoints. POST {url}/reset starts a new
// episode and POST {url}/step with body {"action": k} takes a step.
// Both return a JSON object holding either a base64 encoded PNG
// "frame" or a numeric "observation", and for steps a "reward" and a
// "done" flag.
//
// Failed resets are retried. A step changes the server's state, so it
// is only retried when the request could not be sent at all.
package remote

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"math"
	"net"
	"net/http"
	"strings"

	"github.com/avast/retry-go/v4"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"

	"github.com/samuelfneumann/goa3c/environment"
	ts "github.com/samuelfneumann/goa3c/timestep"
)

type stepRequest struct {
	Action int `json:"action"`
}

type response struct {
	Frame       string    `json:"frame,omitempty"`
	Observation []float64 `json:"observation,omitempty"`
	Reward      float64   `json:"reward"`
	Done        bool      `json:"done"`
}

// Env is an environment served by a remote process. Every request is
// bound to the context Env was created with.
type Env struct {
	config     Config
	baseURL    string
	ctx        context.Context
	httpClient *http.Client
	logger     *zap.Logger

	lastStep ts.TimeStep
	started  bool
}

// FrameEnv is an Env whose observations are RGB frames
type FrameEnv struct {
	*Env
}

// New returns a new remote environment. If the server returns frames
// the returned environment implements environment.Framer.
func New(ctx context.Context, config Config,
	logger *zap.Logger) (environment.Environment, error) {
	env, err := newEnv(ctx, config, logger)
	if err != nil {
		return nil, err
	}

	if config.Frames() {
		return &FrameEnv{env}, nil
	}
	return env, nil
}

func newEnv(ctx context.Context, config Config, logger *zap.Logger) (*Env,
	error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("new: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Env{
		config:     config,
		baseURL:    strings.TrimSuffix(config.URL, "/"),
		ctx:        ctx,
		httpClient: &http.Client{Timeout: config.Timeout},
		logger:     logger.With(zap.String("server", config.URL)),
	}, nil
}

// FrameShape returns the height and width of the frames
func (f *FrameEnv) FrameShape() (height, width int) {
	return f.config.FrameHeight, f.config.FrameWidth
}

// Reset starts a new episode on the server and returns its first step
func (e *Env) Reset() (ts.TimeStep, error) {
	resp, err := e.post("reset", nil, nil)
	if err != nil {
		return ts.TimeStep{}, fmt.Errorf("reset: %w", err)
	}

	obs, err := e.observation(resp)
	if err != nil {
		return ts.TimeStep{}, fmt.Errorf("reset: %w", err)
	}

	e.lastStep = ts.New(ts.First, 0, e.config.Discount, obs, 0)
	e.started = true
	return e.lastStep, nil
}

// Step sends an action to the server and returns the next step
func (e *Env) Step(action *mat.VecDense) (ts.TimeStep, bool, error) {
	if !e.started {
		return ts.TimeStep{}, false, fmt.Errorf("step: environment must " +
			"be reset before stepping")
	}
	if e.lastStep.Last() {
		return e.lastStep, true, fmt.Errorf("step: episode has ended, " +
			"call Reset")
	}

	if action.Len() != 1 {
		return ts.TimeStep{}, false, fmt.Errorf("step: only single "+
			"dimensional actions are supported, got %d", action.Len())
	}
	a := int(action.AtVec(0))
	if float64(a) != action.AtVec(0) || a < 0 || a >= e.config.Actions {
		return ts.TimeStep{}, false, fmt.Errorf("step: illegal action %v",
			action.AtVec(0))
	}

	resp, err := e.post("step", stepRequest{Action: a}, notSent)
	if err != nil {
		return ts.TimeStep{}, false, fmt.Errorf("step: %w", err)
	}

	obs, err := e.observation(resp)
	if err != nil {
		return ts.TimeStep{}, false, fmt.Errorf("step: %w", err)
	}

	stepType := ts.Mid
	if resp.Done {
		stepType = ts.Last
	}
	e.lastStep = ts.New(stepType, resp.Reward, e.config.Discount, obs,
		e.lastStep.Number+1)
	return e.lastStep, resp.Done, nil
}

// post sends a request to an endpoint, retrying transient failures.
// If retryIf is not nil, only the failures it accepts are retried.
func (e *Env) post(endpoint string, body any,
	retryIf func(error) bool) (*response, error) {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return nil, fmt.Errorf("could not encode request: %w", err)
		}
	}

	opts := []retry.Option{
		retry.Context(e.ctx),
		retry.Attempts(e.config.Attempts),
		retry.Delay(e.config.RetryDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(attempt uint, err error) {
			e.logger.Warn("request failed, retrying",
				zap.String("endpoint", endpoint),
				zap.Uint("attempt", attempt+1),
				zap.Uint("attempts", e.config.Attempts),
				zap.Error(err))
		}),
	}
	if retryIf != nil {
		opts = append(opts, retry.RetryIf(retryIf))
	}

	return retry.DoWithData(func() (*response, error) {
		return e.do(endpoint, payload)
	}, opts...)
}

// notSent returns whether err happened before a request reached the
// server
func notSent(err error) bool {
	var opErr *net.OpError
	return errors.As(err, &opErr) && opErr.Op == "dial"
}

// do sends a single request to an endpoint
func (e *Env) do(endpoint string, payload []byte) (*response, error) {
	req, err := http.NewRequestWithContext(e.ctx, http.MethodPost,
		e.baseURL+"/"+endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, retry.Unrecoverable(fmt.Errorf("failed to create "+
			"request: %w", err))
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		err := fmt.Errorf("server returned status %d: %s", resp.StatusCode,
			strings.TrimSpace(string(body)))
		if resp.StatusCode < http.StatusInternalServerError {
			return nil, retry.Unrecoverable(err)
		}
		return nil, err
	}

	var r response
	if err := json.Unmarshal(body, &r); err != nil {
		return nil, retry.Unrecoverable(fmt.Errorf("failed to parse "+
			"response: %w", err))
	}
	return &r, nil
}

// observation converts the observation of a response to a vector
func (e *Env) observation(r *response) (*mat.VecDense, error) {
	if !e.config.Frames() {
		if len(r.Observation) != e.config.Observations {
			return nil, fmt.Errorf("server returned %d observations, want "+
				"%d", len(r.Observation), e.config.Observations)
		}
		return mat.NewVecDense(len(r.Observation), r.Observation), nil
	}

	if r.Frame == "" {
		return nil, fmt.Errorf("server returned no frame")
	}
	img, err := decodeFrame(r.Frame)
	if err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	if bounds.Dy() != e.config.FrameHeight ||
		bounds.Dx() != e.config.FrameWidth {
		return nil, fmt.Errorf("server returned a %dx%d frame, want %dx%d",
			bounds.Dy(), bounds.Dx(), e.config.FrameHeight,
			e.config.FrameWidth)
	}

	frame := Frame(img)
	return mat.NewVecDense(len(frame), frame), nil
}

func decodeFrame(encoded string) (image.Image, error) {
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("could not decode frame: %w", err)
	}

	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("could not decode png frame: %w", err)
	}
	return img, nil
}

// Frame returns the RGB values of an image in height, width, channel
// order with values in [0, 255]. Alpha is dropped.
func Frame(img image.Image) []float64 {
	bounds := img.Bounds()
	frame := make([]float64, 0, bounds.Dx()*bounds.Dy()*environment.Channels)

	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			frame = append(frame, float64(r>>8), float64(g>>8),
				float64(b>>8))
		}
	}
	return frame
}

// ObservationSpec returns the observation specification of the
// environment
func (e *Env) ObservationSpec() environment.Spec {
	if e.config.Frames() {
		size := e.config.FrameHeight * e.config.FrameWidth *
			environment.Channels
		return environment.NewBoxSpec(size, environment.Observation, 0, 255)
	}

	return environment.NewBoxSpec(e.config.Observations,
		environment.Observation, math.Inf(-1), math.Inf(1))
}

// ActionSpec returns the action specification of the environment
func (e *Env) ActionSpec() environment.Spec {
	return environment.NewDiscreteActionSpec(e.config.Actions)
}

// DiscountSpec returns the discount specification of the environment
func (e *Env) DiscountSpec() environment.Spec {
	return environment.NewDiscountSpec(e.config.Discount)
}

// Close closes idle connections to the server
func (e *Env) Close() error {
	e.httpClient.CloseIdleConnections()
	return nil
}

func (e *Env) String() string {
	return fmt.Sprintf("Remote(%v)", e.baseURL)
}
