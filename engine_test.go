package ndd

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/ndd-io/ndd/internal/endpoint"
	"github.com/stretchr/testify/require"
)

func TestRunCopiesFileToFile(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "in")
	dst := filepath.Join(dir, "out")
	statsPath := filepath.Join(dir, "stats.json")

	payload := make([]byte, 37*1024+13)
	for i := range payload {
		payload[i] = byte(i)
	}
	require.NoError(t, os.WriteFile(src, payload, 0o600))

	result, err := Run(context.Background(), Options{
		Sources: endpoint.Sources{
			FileIn:  src,
			FileOut: dst,
		},
		BufferSize: 8192,
		BlockSize:  1024,
		StatsPath:  statsPath,
	})
	require.NoError(t, err)
	require.Equal(t, []string{dst}, result.ConsumerNames)
	require.Greater(t, result.Stats.TotalCycles, uint64(0))

	got, err := os.ReadFile(dst)
	require.NoError(t, err)
	require.Equal(t, payload, got)

	raw, err := os.ReadFile(statsPath)
	require.NoError(t, err)
	var report statsReport
	require.NoError(t, json.Unmarshal(raw, &report))
	require.Equal(t, result.Stats.TotalCycles, report.TotalCycles)
}

func TestRunRejectsBadSources(t *testing.T) {
	_, err := Run(context.Background(), Options{Sources: endpoint.Sources{}})
	require.Error(t, err)
	require.True(t, IsCode(err, ErrCodeConfiguration))
}

func TestRunRejectsMissingConsumer(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "in")
	require.NoError(t, os.WriteFile(src, []byte("x"), 0o600))

	_, err := Run(context.Background(), Options{
		Sources: endpoint.Sources{FileIn: src},
	})
	require.Error(t, err)
	require.True(t, IsCode(err, ErrCodeConfiguration))
}

func TestEngineCloseIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "in")
	dst := filepath.Join(dir, "out")
	require.NoError(t, os.WriteFile(src, []byte("payload"), 0o600))

	e, err := NewEngine(Options{
		Sources:    endpoint.Sources{FileIn: src, FileOut: dst},
		BufferSize: 4096,
		BlockSize:  512,
	})
	require.NoError(t, err)

	_, err = e.Run(context.Background())
	require.NoError(t, err)

	require.NoError(t, e.Close())
	require.NoError(t, e.Close())
}
