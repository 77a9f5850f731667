// Package metrics holds the ingestion pipeline's prometheus counters.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	FramesRead = promauto.NewCounter(prometheus.CounterOpts{
		Name: "telemetryd_frames_read_total",
		Help: "Raw frames read from the sensor source.",
	})
	ValuesStored = promauto.NewCounter(prometheus.CounterOpts{
		Name: "telemetryd_values_stored_total",
		Help: "Measurement values persisted to the store.",
	})
	ReadMilestones = promauto.NewCounter(prometheus.CounterOpts{
		Name: "telemetryd_read_milestones_total",
		Help: "Milestones of 100 ingested values.",
	})
	IntegrityStops = promauto.NewCounter(prometheus.CounterOpts{
		Name: "telemetryd_integrity_stops_total",
		Help: "Ingestion loop stops triggered by a value uniqueness conflict.",
	})
)
