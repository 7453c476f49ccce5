package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Watch loop metrics
	PollsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "maintwatch_polls_total",
			Help: "Total number of metadata polls by outcome (success, retry, fatal)",
		},
		[]string{"outcome"},
	)

	PollDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "maintwatch_poll_duration_seconds",
			Help:    "Time spent in one hanging GET in seconds",
			Buckets: []float64{0.01, 0.1, 1, 10, 60, 300, 900, 1800, 3600},
		},
	)

	TransitionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "maintwatch_transitions_total",
			Help: "Total number of maintenance transitions by direction (enter, leave)",
		},
		[]string{"direction"},
	)

	InMaintenance = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "maintwatch_in_maintenance",
			Help: "Whether the host is currently under maintenance (1 = yes, 0 = no)",
		},
	)

	// Control command metrics
	ActionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "maintwatch_actions_total",
			Help: "Total number of control commands by action and result",
		},
		[]string{"action", "result"},
	)

	ActionDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "maintwatch_action_duration_seconds",
			Help:    "Control command duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"action"},
	)
)

func init() {
	prometheus.MustRegister(PollsTotal)
	prometheus.MustRegister(PollDuration)
	prometheus.MustRegister(TransitionsTotal)
	prometheus.MustRegister(InMaintenance)
	prometheus.MustRegister(ActionsTotal)
	prometheus.MustRegister(ActionDuration)
}

// Handler returns the Prometheus HTTP handler
func Handler() http.Handler {
	return promhttp.Handler()
}

// NewMux returns a mux serving /metrics, /health, /ready and /live
func NewMux() *http.ServeMux {
	mux := http.NewServeMux()
	mux.Handle("/metrics", Handler())
	mux.HandleFunc("/health", HealthHandler())
	mux.HandleFunc("/ready", ReadyHandler())
	mux.HandleFunc("/live", LivenessHandler())
	return mux
}

// Timer measures elapsed time for histogram observations
type Timer struct {
	start time.Time
}

// NewTimer starts a timer
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// Duration returns the time elapsed since the timer started
func (t *Timer) Duration() time.Duration {
	return time.Since(t.start)
}

// ObserveDuration records the elapsed time in h
func (t *Timer) ObserveDuration(h prometheus.Observer) {
	h.Observe(t.Duration().Seconds())
}

// ObserveDurationVec records the elapsed time in h under labels
func (t *Timer) ObserveDurationVec(h *prometheus.HistogramVec, labels ...string) {
	h.WithLabelValues(labels...).Observe(t.Duration().Seconds())
}
