package remote

import (
	"fmt"
	"time"
)

// Config describes how to reach a remote environment server
type Config struct {
	// URL is the base URL of the server, the reset and step endpoints
	// live under it
	URL string `mapstructure:"url" yaml:"url"`

	// Actions is the number of discrete actions the server accepts
	Actions int `mapstructure:"actions" yaml:"actions"`

	// FrameHeight and FrameWidth give the shape of the frames the server
	// returns. If both are zero, the server returns vector observations
	// of Observations features.
	FrameHeight  int `mapstructure:"frame_height" yaml:"frame_height"`
	FrameWidth   int `mapstructure:"frame_width" yaml:"frame_width"`
	Observations int `mapstructure:"observations" yaml:"observations"`

	Discount   float64       `mapstructure:"discount" yaml:"discount"`
	Timeout    time.Duration `mapstructure:"timeout" yaml:"timeout"`
	Attempts   uint          `mapstructure:"attempts" yaml:"attempts"`
	RetryDelay time.Duration `mapstructure:"retry_delay" yaml:"retry_delay"`
}

// DefaultConfig returns the configuration of a local game server with
// three actions returning 224x224 frames
func DefaultConfig() Config {
	return Config{
		URL:         "http://localhost:5000",
		Actions:     3,
		FrameHeight: 224,
		FrameWidth:  224,
		Discount:    1.0,
		Timeout:     30 * time.Second,
		Attempts:    5,
		RetryDelay:  500 * time.Millisecond,
	}
}

// Frames returns whether the server returns frames
func (c Config) Frames() bool {
	return c.FrameHeight > 0 || c.FrameWidth > 0
}

// Validate returns an error if the configuration is invalid
func (c Config) Validate() error {
	if c.URL == "" {
		return fmt.Errorf("validate: no server url")
	}
	if c.Actions <= 0 {
		return fmt.Errorf("validate: actions must be positive, got %d",
			c.Actions)
	}
	if c.Frames() {
		if c.FrameHeight <= 0 || c.FrameWidth <= 0 {
			return fmt.Errorf("validate: invalid frame shape %dx%d",
				c.FrameHeight, c.FrameWidth)
		}
	} else if c.Observations <= 0 {
		return fmt.Errorf("validate: need either a frame shape or a " +
			"number of observations")
	}
	if c.Discount < 0 || c.Discount > 1 {
		return fmt.Errorf("validate: discount must be in [0, 1], got %v",
			c.Discount)
	}
	if c.Attempts == 0 {
		return fmt.Errorf("validate: attempts must be at least 1")
	}
	return nil
}
