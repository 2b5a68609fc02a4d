package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wricardo/mcp-training/trainprogram/game/engine"
)

const namespace = "trainprogram"

// Playback results
const (
	PlaybackCompleted = "completed"
	PlaybackAbandoned = "abandoned"
	PlaybackCancelled = "cancelled"
	PlaybackFailed    = "failed"
)

// Recorder holds the game's Prometheus collectors. A nil *Recorder is valid
// and records nothing.
type Recorder struct {
	registry *prometheus.Registry

	intents          *prometheus.CounterVec
	runs             prometheus.Counter
	programLength    prometheus.Histogram
	outcomes         *prometheus.CounterVec
	rejectedSteps    prometheus.Counter
	sessions         prometheus.Gauge
	playbacks        *prometheus.CounterVec
	playbackDuration prometheus.Histogram
}

// NewRecorder creates a recorder with its own registry, including the Go
// runtime and process collectors.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		intents: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "intents_total",
				Help:      "Intents dispatched to sessions",
			},
			[]string{"kind", "applied"},
		),
		runs: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Command queues executed",
		}),
		programLength: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "program_length",
			Help:      "Number of commands in executed queues",
			Buckets:   prometheus.LinearBuckets(0, 2, engine.MaxQueueLength/2+1),
		}),
		outcomes: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "outcomes_total",
				Help:      "Finalized runs by outcome and level",
			},
			[]string{"outcome", "level_id"},
		),
		rejectedSteps: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rejected_steps_total",
			Help:      "Advance commands rejected at the grid boundary",
		}),
		sessions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "sessions_active",
			Help:      "Sessions currently held in memory",
		}),
		playbacks: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "playbacks_total",
				Help:      "Background playbacks by result",
			},
			[]string{"result"},
		),
		playbackDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "playback_duration_seconds",
			Help:      "Wall time of background playbacks",
			Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 20, 30},
		}),
	}

	r.registry.MustRegister(
		r.intents,
		r.runs,
		r.programLength,
		r.outcomes,
		r.rejectedSteps,
		r.sessions,
		r.playbacks,
		r.playbackDuration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// Registry exposes the underlying registry
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// Handler serves the registry in the Prometheus text format
func (r *Recorder) Handler() http.Handler {
	if r == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// Intent records a dispatched intent
func (r *Recorder) Intent(kind engine.IntentKind, applied bool) {
	if r == nil {
		return
	}
	r.intents.WithLabelValues(string(kind), strconv.FormatBool(applied)).Inc()
}

// Run records an executed queue and its trace
func (r *Recorder) Run(trace []engine.ExecutionStep) {
	if r == nil {
		return
	}
	r.runs.Inc()
	r.programLength.Observe(float64(len(trace)))
	r.rejectedSteps.Add(float64(engine.CountRejected(trace)))
}

// Outcome records the evaluation of a finalized run
func (r *Recorder) Outcome(levelID int, success bool) {
	if r == nil {
		return
	}
	outcome := "failure"
	if success {
		outcome = "success"
	}
	r.outcomes.WithLabelValues(outcome, strconv.Itoa(levelID)).Inc()
}

// SessionsActive sets the number of live sessions
func (r *Recorder) SessionsActive(n int) {
	if r == nil {
		return
	}
	r.sessions.Set(float64(n))
}

// Playback records a finished background playback
func (r *Recorder) Playback(result string, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.playbacks.WithLabelValues(result).Inc()
	r.playbackDuration.Observe(elapsed.Seconds())
}
