// Package trackers implements concrete Trackers of episode results
package trackers

import (
	"sync"

	"github.com/samuelfneumann/goa3c/agent/a3c"
	"github.com/samuelfneumann/goa3c/experiment/tracker"
)

// Return tracks and saves the return of each episode in the order the
// episodes were recorded, whichever worker ran them.
type Return struct {
	mu             sync.Mutex
	episodeReturns []float64
	filename       string
}

// NewReturn creates and returns a new *Return Tracker
func NewReturn(filename string) *Return {
	return &Return{filename: filename}
}

// Track tracks the return of an episode
func (r *Return) Track(e a3c.Episode) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.episodeReturns = append(r.episodeReturns, e.Return)
}

// Data returns a copy of the tracked returns
func (r *Return) Data() []float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]float64(nil), r.episodeReturns...)
}

// Save saves the data tracked by the Return Tracker to disk.
func (r *Return) Save() error {
	return tracker.SaveData(r.filename, r.Data())
}
