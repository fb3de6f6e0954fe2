package ndd

import (
	"sync"
	"time"

	"github.com/ndd-io/ndd/internal/interfaces"
)

// LatencyBuckets are the histogram boundaries in nanoseconds, covering
// 1us to 10s with logarithmic spacing.
var LatencyBuckets = []uint64{
	1_000,
	10_000,
	100_000,
	1_000_000,
	10_000_000,
	100_000_000,
	1_000_000_000,
	10_000_000_000,
}

const numLatencyBuckets = 8

// EndpointMetrics accumulates submit/complete counters and a latency
// histogram for one endpoint, keyed by interfaces.Producer.Name() /
// interfaces.Consumer.Name().
type EndpointMetrics struct {
	SubmitOps      uint64
	SubmitBytes    uint64
	SubmitErrors   uint64
	CompleteOps    uint64
	CompleteBytes  uint64
	CompleteErrors uint64
	LatencyBuckets [numLatencyBuckets]uint64
}

func (e *EndpointMetrics) recordLatency(latencyNs int64) {
	if latencyNs < 0 {
		return
	}
	n := uint64(latencyNs)
	for i, bound := range LatencyBuckets {
		if n <= bound {
			e.LatencyBuckets[i]++
		}
	}
}

// Metrics implements interfaces.Observer, recording per-endpoint
// operation counts, byte counts, and latency histograms. The reactor
// calls it from its single goroutine, but the mutex keeps a concurrent
// snapshot (e.g. for a stats file written by a signal handler) safe.
type Metrics struct {
	mu        sync.Mutex
	endpoints map[string]*EndpointMetrics
	startTime time.Time
}

var _ interfaces.Observer = (*Metrics)(nil)

// NewMetrics constructs an empty Metrics collector.
func NewMetrics() *Metrics {
	return &Metrics{
		endpoints: make(map[string]*EndpointMetrics),
		startTime: time.Now(),
	}
}

func (m *Metrics) entry(name string) *EndpointMetrics {
	e, ok := m.endpoints[name]
	if !ok {
		e = &EndpointMetrics{}
		m.endpoints[name] = e
	}
	return e
}

// ObserveSubmit records one Submit call against endpoint name.
func (m *Metrics) ObserveSubmit(name string, bytes int, latencyNs int64, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := m.entry(name)
	e.SubmitOps++
	if err != nil {
		e.SubmitErrors++
	} else if bytes > 0 {
		e.SubmitBytes += uint64(bytes)
	}
	e.recordLatency(latencyNs)
}

// ObserveComplete records one Complete call against endpoint name.
func (m *Metrics) ObserveComplete(name string, bytes int, latencyNs int64, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e := m.entry(name)
	e.CompleteOps++
	if err != nil {
		e.CompleteErrors++
	} else if bytes > 0 {
		e.CompleteBytes += uint64(bytes)
	}
	e.recordLatency(latencyNs)
}

// Snapshot returns a defensive copy of the per-endpoint counters
// accumulated so far.
func (m *Metrics) Snapshot() map[string]EndpointMetrics {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]EndpointMetrics, len(m.endpoints))
	for name, e := range m.endpoints {
		out[name] = *e
	}
	return out
}

// Uptime returns how long this Metrics collector has been recording.
func (m *Metrics) Uptime() time.Duration {
	return time.Since(m.startTime)
}

// NoOpObserver discards every observation. It is the default Observer
// when the caller has not configured one.
type NoOpObserver struct{}

func (NoOpObserver) ObserveSubmit(string, int, int64, error)   {}
func (NoOpObserver) ObserveComplete(string, int, int64, error) {}

var _ interfaces.Observer = NoOpObserver{}
