package envconfig

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samuelfneumann/goa3c/backbone"
	"github.com/samuelfneumann/goa3c/environment"
	"github.com/samuelfneumann/goa3c/environment/wrappers"
	"github.com/samuelfneumann/goa3c/utils/logging"
)

func TestValidate(t *testing.T) {
	assert.NoError(t, Default().Validate())

	c := Default()
	c.Environment = "atari"
	assert.Error(t, c.Validate())

	c = Default()
	c.Environment = Cartpole
	c.Cartpole.EpisodeCutoff = 0
	assert.Error(t, c.Validate())

	c = Default()
	c.Environment = Gym
	c.Gym.Name = ""
	assert.Error(t, c.Validate())

	c = Default()
	c.Remote.Attempts = 0
	assert.Error(t, c.Validate())

	c = Default()
	c.Backbone.InputSize = 0
	assert.Error(t, c.Validate())

	// The backbone is only needed for frames
	c.Remote.FrameHeight, c.Remote.FrameWidth = 0, 0
	c.Remote.Observations = 4
	assert.NoError(t, c.Validate())
	assert.False(t, c.Frames())
}

func TestCartpoleFactory(t *testing.T) {
	c := Default()
	c.Environment = Cartpole
	c.Cartpole.EpisodeCutoff = 10

	factory, err := c.Factory(1, logging.Test(t))
	require.NoError(t, err)

	env, err := factory(context.Background(), 2)
	require.NoError(t, err)
	defer env.Close()

	assert.Equal(t, 4, env.ObservationSpec().Shape.Len())
	actions, err := environment.NumActions(env.ActionSpec())
	require.NoError(t, err)
	assert.Equal(t, 3, actions)
}

func TestRemoteFactoryWrapsFrames(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	defer server.Close()

	c := Default()
	c.Remote.URL = server.URL
	c.Remote.FrameHeight, c.Remote.FrameWidth = 8, 8
	c.Backbone = backbone.Config{
		Architecture: backbone.Architecture{2, backbone.MaxPool},
		InputSize:    4,
	}

	factory, err := c.Factory(0, nil)
	require.NoError(t, err)

	env, err := factory(context.Background(), 0)
	require.NoError(t, err)
	defer env.Close()

	features, ok := env.(*wrappers.Features)
	require.True(t, ok)
	assert.Equal(t, 8, features.ObservationSpec().Shape.Len())
}
