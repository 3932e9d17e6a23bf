// Package metrics instruments ProxyConnection with rcrowley/go-metrics
// counters and timers — the numeric counterpart to the ambient logging
// package, the way 6congyao-strike pulls the same dependency in for its
// stream filters (SPEC_FULL §2).
package metrics

import "github.com/rcrowley/go-metrics"

// Proxy groups the counters and timers a Connection reports against.
// Construct one per process (or per listener) and pass it to every
// Connection via proxy.WithMetrics.
type Proxy struct {
	ConnectAttempts metrics.Counter
	ConnectFailures metrics.Counter
	BytesRead       metrics.Counter
	BytesWritten    metrics.Counter

	ConnectDuration metrics.Timer
	WriteDuration   metrics.Timer
	ReadDuration    metrics.Timer
}

// NewProxy registers a fresh set of proxy metrics into registry, prefixing
// every name with "proxy." so they don't collide with unrelated counters
// sharing the registry.
func NewProxy(registry metrics.Registry) *Proxy {
	if registry == nil {
		registry = metrics.DefaultRegistry
	}

	return &Proxy{
		ConnectAttempts: metrics.GetOrRegisterCounter("proxy.connect.attempts", registry),
		ConnectFailures: metrics.GetOrRegisterCounter("proxy.connect.failures", registry),
		BytesRead:       metrics.GetOrRegisterCounter("proxy.bytes.read", registry),
		BytesWritten:    metrics.GetOrRegisterCounter("proxy.bytes.written", registry),
		ConnectDuration: metrics.GetOrRegisterTimer("proxy.connect.duration", registry),
		WriteDuration:   metrics.GetOrRegisterTimer("proxy.write.duration", registry),
		ReadDuration:    metrics.GetOrRegisterTimer("proxy.read.duration", registry),
	}
}
