package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	HTTPRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voxlink_http_requests_total",
			Help: "Total number of HTTP requests.",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "voxlink_http_request_duration_seconds",
			Help:    "HTTP request duration in seconds.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)

	TurnsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voxlink_turns_total",
			Help: "Total number of completed conversation turns.",
		},
		[]string{"outcome"}, // success, fallback
	)

	TurnDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "voxlink_turn_duration_seconds",
			Help:    "Duration of a full user-to-agent turn in seconds.",
			Buckets: []float64{1, 2, 3, 5, 8, 13, 21, 34},
		},
	)

	CaptureErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "voxlink_capture_errors_total",
			Help: "Total number of voice capture failures.",
		},
		[]string{"kind"}, // permission_denied, recognition
	)

	GenerationFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "voxlink_generation_failures_total",
			Help: "Total number of text-generation failures absorbed as fallback replies.",
		},
	)

	SynthesisFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "voxlink_synthesis_failures_total",
			Help: "Total number of speech-synthesis failures absorbed as text-only turns.",
		},
	)

	PlaybackFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "voxlink_playback_failures_total",
			Help: "Total number of client playback failures absorbed by the engine.",
		},
	)

	SynergiesDetectedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "voxlink_synergies_detected_total",
			Help: "Total number of synergy opportunities detected.",
		},
	)

	ActiveSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "voxlink_active_sessions",
			Help: "Number of live agent sessions.",
		},
	)

	FeedClientsConnected = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "voxlink_feed_clients_connected",
			Help: "Number of connected session feed WebSocket clients.",
		},
	)
)

func init() {
	prometheus.MustRegister(
		HTTPRequestsTotal,
		HTTPRequestDuration,
		TurnsTotal,
		TurnDuration,
		CaptureErrorsTotal,
		GenerationFailuresTotal,
		SynthesisFailuresTotal,
		PlaybackFailuresTotal,
		SynergiesDetectedTotal,
		ActiveSessions,
		FeedClientsConnected,
	)
}
