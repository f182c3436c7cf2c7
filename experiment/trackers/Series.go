package trackers

import (
	"sync"

	"github.com/samuelfneumann/goa3c/agent/a3c"
	"github.com/samuelfneumann/goa3c/experiment/tracker"
)

// Series tracks the moving average return after each episode, the
// learning curve of a run
type Series struct {
	mu       sync.Mutex
	averages []float64
	filename string
}

// NewSeries creates and returns a new *Series Tracker
func NewSeries(filename string) *Series {
	return &Series{filename: filename}
}

// Track tracks the moving average return after an episode
func (s *Series) Track(e a3c.Episode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.averages = append(s.averages, e.MovingAverage)
}

// Data returns a copy of the tracked moving averages
func (s *Series) Data() []float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]float64(nil), s.averages...)
}

// Save saves the tracked moving averages to disk
func (s *Series) Save() error {
	return tracker.SaveData(s.filename, s.Data())
}
