package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	labelPlatform = "platform"
	labelKind     = "kind"
	labelResult   = "result"
	labelAction   = "action"
)

var (
	eventsIngested = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "engine_events_ingested_total",
		Help: "Chat and invocation events ingested, by platform.",
	}, []string{labelPlatform})

	filterTrips = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "engine_filter_trips_total",
		Help: "Filter rule matches, by the moderation action applied.",
	}, []string{labelAction})

	autocorrectEmissions = promauto.NewCounter(prometheus.CounterOpts{
		Name: "engine_autocorrect_emissions_total",
		Help: "Autocorrect suggestions emitted for unmatched commands.",
	})

	invocationResults = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "engine_command_invocations_total",
		Help: "Command invocations, by rule kind and RunResult outcome.",
	}, []string{labelKind, labelResult})

	configInstalls = promauto.NewCounter(prometheus.CounterOpts{
		Name: "engine_config_installs_total",
		Help: "Configuration installs accepted by the rule registry.",
	})

	dispatchLatencyMs = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "engine_dispatch_latency_milliseconds",
		Help:    "Time spent running an event through the rule registry, by entry point.",
		Buckets: prometheus.ExponentialBuckets(1, 2, 12),
	}, []string{"entry_point"})
)
