package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTP metrics
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wannameet_http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "wannameet_http_request_duration_seconds",
			Help:    "HTTP request duration",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"method", "path"},
	)

	// Matchmaking metrics
	RoomsCreated = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wannameet_rooms_created_total",
			Help: "Total waiting rooms created",
		},
	)

	RoomsMatched = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wannameet_rooms_matched_total",
			Help: "Total second-slot claims",
		},
	)

	RoomsReleased = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wannameet_rooms_released_total",
			Help: "Total rooms demoted back to waiting",
		},
	)

	RoomsClosed = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wannameet_rooms_closed_total",
			Help: "Total rooms closed after the last participant left",
		},
	)

	// Token metrics
	TokensIssued = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "wannameet_tokens_issued_total",
			Help: "Total transport tokens issued",
		},
	)

	TokensRejected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wannameet_tokens_rejected_total",
			Help: "Total transport tokens rejected",
		},
		[]string{"reason"},
	)

	// Relay metrics
	RelayConnections = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "wannameet_relay_connections",
			Help: "Currently connected relay clients",
		},
		[]string{"channel"}, // "messaging" or "media"
	)

	FramesRelayed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "wannameet_frames_relayed_total",
			Help: "Total frames fanned out by the relay",
		},
		[]string{"channel"},
	)
)
