// Package metrics exports the progress of training as Prometheus
// metrics
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/samuelfneumann/goa3c/agent/a3c"
)

const namespace = "a3c"

// Recorder records episodes and global updates as Prometheus metrics.
// Recorder implements a3c.Recorder.
type Recorder struct {
	episodes      prometheus.Counter
	updates       *prometheus.CounterVec
	loss          *prometheus.GaugeVec
	movingAverage prometheus.Gauge
	lastReturn    *prometheus.GaugeVec
}

var _ a3c.Recorder = (*Recorder)(nil)

// NewRecorder returns a new Recorder whose metrics are registered
// with reg
func NewRecorder(reg prometheus.Registerer) (*Recorder, error) {
	r := &Recorder{
		episodes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "episodes_total",
			Help:      "Number of finished episodes over all workers.",
		}),
		updates: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "global_updates_total",
			Help:      "Number of updates pushed to the global network.",
		}, []string{"worker"}),
		loss: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "loss",
			Help:      "Loss of the last update of a worker.",
		}, []string{"worker"}),
		movingAverage: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "moving_average_return",
			Help:      "Moving average of episode returns.",
		}),
		lastReturn: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "episode_return",
			Help:      "Return of the last episode of a worker.",
		}, []string{"worker"}),
	}

	for _, c := range []prometheus.Collector{r.episodes, r.updates, r.loss,
		r.movingAverage, r.lastReturn} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("newRecorder: %w", err)
		}
	}
	return r, nil
}

// Episode records a finished episode
func (r *Recorder) Episode(e a3c.Episode) {
	r.episodes.Inc()
	r.movingAverage.Set(e.MovingAverage)
	r.lastReturn.WithLabelValues(e.Worker).Set(e.Return)
}

// Update records an update pushed by a worker
func (r *Recorder) Update(worker string, loss float64) {
	r.updates.WithLabelValues(worker).Inc()
	r.loss.WithLabelValues(worker).Set(loss)
}

// Serve serves the metrics gathered by g on addr under /metrics until
// ctx is cancelled
func Serve(ctx context.Context, addr string, g prometheus.Gatherer,
	logger *zap.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(g, promhttp.HandlerOpts{}))

	server := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errs := make(chan error, 1)
	go func() {
		logger.Info("serving metrics", zap.String("address", addr))
		errs <- server.ListenAndServe()
	}()

	select {
	case err := <-errs:
		return fmt.Errorf("serve: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(),
		5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("serve: %w", err)
	}
	if err := <-errs; !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve: %w", err)
	}
	return nil
}
