package syncer

import "github.com/armon/go-metrics"

// syncerMetrics is a prefix used for syncer-related metrics
const syncerMetrics = "syncer"

func headersReceivedInc(n int) {
	metrics.IncrCounter([]string{syncerMetrics, "headers"}, float32(n))
}

func badHeadersInc() {
	metrics.IncrCounter([]string{syncerMetrics, "bad_headers"}, 1)
}

func checkpointsReceivedInc(outcome string) {
	metrics.IncrCounterWithLabels([]string{syncerMetrics, "checkpoints"}, 1,
		[]metrics.Label{{Name: "outcome", Value: outcome}})
}
