package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Realtime hub metrics
var (
	// HubActiveRooms tracks the number of chart rooms with at least one member
	HubActiveRooms = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "hub_active_rooms",
			Help: "Number of chart rooms with at least one member",
		},
	)

	// HubConnectedSessions tracks the number of live websocket sessions
	HubConnectedSessions = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "hub_connected_sessions",
			Help: "Number of live websocket sessions",
		},
	)

	// HubEventsDelivered tracks outbound events by event name
	HubEventsDelivered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hub_events_delivered_total",
			Help: "Outbound events delivered to clients by event name",
		},
		[]string{"event"},
	)

	// HubEventsDropped tracks events dropped due to invalid state or parse errors
	HubEventsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hub_events_dropped_total",
			Help: "Inbound events dropped by reason",
		},
		[]string{"reason"},
	)

	// HubSlowClientsEvicted tracks clients evicted because their send buffer filled
	HubSlowClientsEvicted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hub_slow_clients_evicted_total",
			Help: "Clients evicted due to full send buffer",
		},
	)

	// HubCommandChannelDepth tracks current hub command channel depth
	HubCommandChannelDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "hub_command_channel_depth",
			Help: "Current hub command channel depth",
		},
	)

	// HubPanicsTotal tracks hub panic recoveries
	HubPanicsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hub_panics_total",
			Help: "Total hub panic recoveries",
		},
	)

	// HubStopTimeoutsTotal tracks hub stops that exceeded timeout
	HubStopTimeoutsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hub_stop_timeouts_total",
			Help: "Hub stops that exceeded the shutdown timeout",
		},
	)
)

// WebSocket transport metrics
var (
	// WebSocketMessageSendDuration tracks message write latency
	WebSocketMessageSendDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "websocket_message_send_duration_seconds",
			Help:    "WebSocket message send duration in seconds",
			Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1, .5},
		},
	)

	// WebSocketPingFailures tracks failed keepalive pings
	WebSocketPingFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "websocket_ping_failures_total",
			Help: "Total failed WebSocket keepalive pings",
		},
	)
)

// Mutation relay metrics
var (
	// MutationsPublished tracks persisted mutations fanned out by event name
	MutationsPublished = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "mutations_published_total",
			Help: "Persisted mutations published to rooms by event name",
		},
		[]string{"event"},
	)

	// RelayMessagesReceived tracks mutations received from peer instances
	RelayMessagesReceived = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "relay_messages_received_total",
			Help: "Mutations received over the Redis relay from peer instances",
		},
	)

	// RelayPublishErrors tracks failed relay publishes
	RelayPublishErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "relay_publish_errors_total",
			Help: "Failed publishes to the Redis mutation relay",
		},
	)
)

// Persistence metrics
var (
	// DBQueryDuration tracks database query latency by query name
	DBQueryDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "db_query_duration_seconds",
			Help:    "Database query duration in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
		[]string{"query"},
	)

	// SeededCandlesTotal tracks candles inserted by the seeder
	SeededCandlesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "seeded_candles_total",
			Help: "Total candles inserted by the market data seeder",
		},
	)
)
