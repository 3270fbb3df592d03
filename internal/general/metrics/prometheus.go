// Package metrics registers the pipeline's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	EnvelopesReceived = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ridehail_realtime_envelopes_received_total",
		Help: "Inbound envelopes by type and outcome",
	}, []string{"type", "outcome"})

	EnvelopeDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ridehail_realtime_envelope_duration_seconds",
		Help:    "Time from dequeue to task completion",
		Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 2, 5},
	}, []string{"type"})

	QueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ridehail_realtime_queue_depth",
		Help: "Envelopes waiting for the dispatch worker",
	})

	UnhandledPayloads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ridehail_realtime_unhandled_payloads_total",
		Help: "Decoded payloads that reached no handler",
	}, []string{"type"})

	AcksSent = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ridehail_realtime_acks_total",
		Help: "Acknowledgements by result (sent, dropped, failed)",
	}, []string{"result"})

	ConnectionState = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "ridehail_realtime_connection_state",
		Help: "1 for the current connection state, 0 otherwise",
	}, []string{"state"})

	Reconnects = promauto.NewCounter(prometheus.CounterOpts{
		Name: "ridehail_realtime_recoveries_total",
		Help: "Recovered connections (reconnect after a prior connect)",
	})

	CredentialRefreshes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ridehail_realtime_credential_refreshes_total",
		Help: "Credential refresh attempts by result",
	}, []string{"result"})

	Reconciliations = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "ridehail_realtime_reconciliations_total",
		Help: "Reconciliation runs by trigger and result",
	}, []string{"trigger", "result"})
)

// SetConnectionState flips the state gauge so only current reads 1.
func SetConnectionState(current string, all []string) {
	for _, s := range all {
		v := 0.0
		if s == current {
			v = 1
		}
		ConnectionState.WithLabelValues(s).Set(v)
	}
}
