package runner

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts the runs of each program and how long they took.
type Metrics struct {
	runs     *prometheus.CounterVec   //by program and status: ok, failed or killed
	duration *prometheus.HistogramVec //by program
	running  prometheus.Gauge
}

// NewMetrics creates the runner metrics and registers them with reg. A nil
// reg gives nil metrics, which record nothing.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	if reg == nil {
		return nil, nil
	}
	M := &Metrics{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "penelope",
			Subsystem: "runner",
			Name:      "runs_total",
			Help:      "Program runs by final status",
		}, []string{"program", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "penelope",
			Subsystem: "runner",
			Name:      "run_duration_seconds",
			Help:      "Wall time of the program runs",
			Buckets:   prometheus.ExponentialBuckets(0.1, 4, 10), //0.1 s to about 7 h
		}, []string{"program"}),
		running: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "penelope",
			Subsystem: "runner",
			Name:      "running",
			Help:      "Programs running now",
		}),
	}
	for _, c := range []prometheus.Collector{M.runs, M.duration, M.running} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return M, nil
}

func (M *Metrics) start() {
	if M != nil {
		M.running.Inc()
	}
}

// done records a finished run. err is what Run returns.
func (M *Metrics) done(S *Status, elapsed time.Duration, err error) {
	if M == nil {
		return
	}
	M.running.Dec()
	status := "ok"
	switch {
	case err == nil:
	case errors.Is(err, ErrExit):
		status = "failed"
	default:
		status = "killed"
	}
	M.runs.WithLabelValues(S.Program.String(), status).Inc()
	M.duration.WithLabelValues(S.Program.String()).Observe(elapsed.Seconds())
}
