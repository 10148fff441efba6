package checkpoint

import "github.com/armon/go-metrics"

const metricsPrefix = "checkpoint"

func currentHeightSet(height uint64) {
	metrics.SetGauge([]string{metricsPrefix, "current_height"}, float32(height))
}

func pendingSet(pending bool) {
	v := float32(0)
	if pending {
		v = 1
	}

	metrics.SetGauge([]string{metricsPrefix, "pending"}, v)
}

func acceptedCheckpointsInc() {
	metrics.IncrCounter([]string{metricsPrefix, "accepted"}, 1)
}

func rejectedCheckpointsInc(reason string) {
	metrics.IncrCounterWithLabels([]string{metricsPrefix, "rejected"}, 1,
		[]metrics.Label{{Name: "reason", Value: reason}})
}

func relayedCheckpointsInc() {
	metrics.IncrCounter([]string{metricsPrefix, "relayed"}, 1)
}
