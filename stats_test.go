package ndd

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/ndd-io/ndd/internal/reactor"
	"github.com/stretchr/testify/require"
)

func TestWriteStatsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stats.json")
	stats := reactor.Stats{
		TotalCycles:       42,
		WaitedCycles:      7,
		BufferUnderruns:   1,
		BufferOverruns:    3,
		ConsumerSlowdowns: []uint64{3, 0},
	}

	require.NoError(t, WriteStatsFile(path, stats, []string{"slow-sink", "fast-sink"}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var got statsReport
	require.NoError(t, json.Unmarshal(data, &got))
	require.Equal(t, uint64(42), got.TotalCycles)
	require.Equal(t, uint64(3), got.ConsumerSlowdowns["slow-sink"])
	require.Equal(t, uint64(0), got.ConsumerSlowdowns["fast-sink"])
}

func TestWriteStatsFileRejectsMismatchedNames(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stats.json")
	stats := reactor.Stats{ConsumerSlowdowns: []uint64{1, 2}}
	require.Error(t, WriteStatsFile(path, stats, []string{"only-one"}))
}
