package ndd

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRecordsSubmitAndComplete(t *testing.T) {
	m := NewMetrics()

	m.ObserveSubmit("file-in", 4096, 1_000_000, nil)
	m.ObserveSubmit("file-in", 0, 0, nil)
	m.ObserveComplete("file-in", 4096, 2_000_000, nil)

	snap := m.Snapshot()
	require.Contains(t, snap, "file-in")
	e := snap["file-in"]
	assert.Equal(t, uint64(2), e.SubmitOps)
	assert.Equal(t, uint64(4096), e.SubmitBytes)
	assert.Equal(t, uint64(1), e.CompleteOps)
	assert.Equal(t, uint64(4096), e.CompleteBytes)
	assert.Equal(t, uint64(0), e.SubmitErrors)
}

func TestMetricsRecordsErrors(t *testing.T) {
	m := NewMetrics()

	m.ObserveSubmit("socket-out", 0, 500, errors.New("would block"))
	m.ObserveComplete("socket-out", 0, 500, errors.New("EIO"))

	e := m.Snapshot()["socket-out"]
	assert.Equal(t, uint64(1), e.SubmitErrors)
	assert.Equal(t, uint64(1), e.CompleteErrors)
	assert.Equal(t, uint64(0), e.SubmitBytes)
}

func TestMetricsLatencyHistogram(t *testing.T) {
	m := NewMetrics()

	m.ObserveSubmit("file-out", 1024, 500, nil)          // falls in every bucket >= 1us
	m.ObserveSubmit("file-out", 1024, 50_000_000, nil)   // falls only in buckets >= 100ms

	e := m.Snapshot()["file-out"]
	assert.Equal(t, uint64(2), e.LatencyBuckets[numLatencyBuckets-1], "both ops fall under the 10s ceiling")
	assert.Equal(t, uint64(1), e.LatencyBuckets[0], "only the 500ns op falls under the 1us bucket")
}

func TestMetricsSnapshotIsIndependentPerEndpoint(t *testing.T) {
	m := NewMetrics()
	m.ObserveSubmit("a", 10, 0, nil)
	m.ObserveSubmit("b", 20, 0, nil)

	snap := m.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, uint64(10), snap["a"].SubmitBytes)
	assert.Equal(t, uint64(20), snap["b"].SubmitBytes)
}

func TestNoOpObserverDiscardsEverything(t *testing.T) {
	var o NoOpObserver
	o.ObserveSubmit("x", 100, 100, nil)
	o.ObserveComplete("x", 100, 100, errors.New("boom"))
}
