package tracker

import "github.com/samuelfneumann/goa3c/agent/a3c"

// registeredTracker registers a worker with some Tracker so that the
// Tracker tracks the episodes of the registered worker only.
// registeredTracker itself is a Tracker.
//
// This may be useful to look at the returns of a single worker, which
// are hidden in the moving average over all workers.
type registeredTracker struct {
	Tracker
	worker string
}

// Register registers a new Tracker with a worker, to track episodes
// of the registered worker only.
//
// Note: the underlying concrete type of the registered Tracker is
// lost when registering a worker with a Tracker.
func Register(t Tracker, worker string) Tracker {
	return &registeredTracker{t, worker}
}

// Track calls Track() on the embedded Tracker if the episode was run
// by the registered worker
func (r *registeredTracker) Track(e a3c.Episode) {
	if e.Worker == r.worker {
		r.Tracker.Track(e)
	}
}
