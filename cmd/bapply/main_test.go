package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunRewritesOnlyDifferingBlocks(t *testing.T) {
	path := filepath.Join(t.TempDir(), "target")
	original := bytes.Repeat([]byte{0xAA}, blockSize*3)
	require.NoError(t, os.WriteFile(path, original, 0o600))

	input := make([]byte, blockSize*3)
	copy(input, original)
	copy(input[blockSize:2*blockSize], bytes.Repeat([]byte{0xBB}, blockSize))

	code := run([]string{"bapply", path}, bytes.NewReader(input))
	require.Equal(t, 0, code)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, input, got)
}

func TestRunRejectsBadUsage(t *testing.T) {
	require.Equal(t, 1, run([]string{"bapply"}, bytes.NewReader(nil)))
}

func TestRunFailsOnMissingTarget(t *testing.T) {
	code := run([]string{"bapply", filepath.Join(t.TempDir(), "missing")}, bytes.NewReader(nil))
	require.Equal(t, 2, code)
}

func TestRunFailsOnShortTarget(t *testing.T) {
	path := filepath.Join(t.TempDir(), "target")
	require.NoError(t, os.WriteFile(path, []byte("short"), 0o600))

	input := bytes.Repeat([]byte{0x01}, blockSize)
	code := run([]string{"bapply", path}, bytes.NewReader(input))
	require.Equal(t, 4, code)
}
