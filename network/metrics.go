package network

import "github.com/armon/go-metrics"

// networkMetrics is a prefix used for network-related metrics
const networkMetrics = "network"

func updatePeersMetric(n int) {
	metrics.SetGauge([]string{networkMetrics, "peers"}, float32(n))
}

func bannedPeersInc() {
	metrics.IncrCounter([]string{networkMetrics, "banned"}, 1)
}
