package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/ndd-io/ndd"
	"github.com/ndd-io/ndd/internal/endpoint"
	"github.com/ndd-io/ndd/internal/logging"
)

func main() {
	var (
		fileIn   = flag.String("i", "", "file producer path")
		fileOut  = flag.String("o", "", "file consumer path")
		pipeIn   = flag.String("I", "", "pipe producer path")
		pipeOut  = flag.String("O", "", "pipe consumer path")
		sockIn   = flag.String("r", "", "socket producer host[:port] (connect)")
		sockOut  = flag.String("s", "", "socket consumer host[:port] (listen+accept)")
		bufSize  = flag.String("B", "", fmt.Sprintf("buffer size in bytes (default %s)", formatSize(int64(ndd.DefaultBufferSize))))
		blkSize  = flag.String("b", "", fmt.Sprintf("per-submit block size in bytes (default %s)", formatSize(int64(ndd.DefaultBlockSize))))
		waitMs   = flag.Int("t", -1, "multiplexer wait timeout in milliseconds (negative waits indefinitely)")
		statsOut = flag.String("S", "", "path to write JSON statistics after the transfer")
		verbose  = flag.Bool("v", false, "verbose output")
	)
	flag.Parse()

	bufferSize, err := parseOptionalSize(*bufSize, ndd.DefaultBufferSize)
	if err != nil {
		log.Fatalf("invalid -B %q: %v", *bufSize, err)
	}
	blockSize, err := parseOptionalSize(*blkSize, ndd.DefaultBlockSize)
	if err != nil {
		log.Fatalf("invalid -b %q: %v", *blkSize, err)
	}

	logConfig := logging.DefaultConfig()
	if *verbose {
		logConfig.Level = logging.LevelDebug
	}
	logger := logging.NewLogger(logConfig)
	logging.SetDefault(logger)

	sources := endpoint.Sources{
		FileIn:    *fileIn,
		FileOut:   *fileOut,
		PipeIn:    *pipeIn,
		PipeOut:   *pipeOut,
		SocketIn:  *sockIn,
		SocketOut: *sockOut,
	}

	engine, err := ndd.NewEngine(ndd.Options{
		Sources:    sources,
		BufferSize: int(bufferSize),
		BlockSize:  int(blockSize),
		SleepMs:    *waitMs,
		Logger:     logger,
		StatsPath:  *statsOut,
	})
	if err != nil {
		logger.Error("failed to construct transfer", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("received shutdown signal")
		cancel()
	}()

	resultCh := make(chan struct {
		result ndd.Result
		err    error
	}, 1)
	go func() {
		result, err := engine.Run(ctx)
		resultCh <- struct {
			result ndd.Result
			err    error
		}{result, err}
	}()

	outcome := <-resultCh

	closeDone := make(chan struct{})
	go func() {
		if err := engine.Close(); err != nil {
			logger.Warn("cleanup reported an error", "error", err)
		}
		close(closeDone)
	}()
	select {
	case <-closeDone:
	case <-time.After(1 * time.Second):
		logger.Info("cleanup timeout, exiting anyway")
	}

	if outcome.err != nil {
		logger.Error("transfer failed", "error", outcome.err)
		os.Exit(1)
	}

	fmt.Printf("transfer complete: %d cycles, %d waited, %d overruns, %d underruns\n",
		outcome.result.Stats.TotalCycles,
		outcome.result.Stats.WaitedCycles,
		outcome.result.Stats.BufferOverruns,
		outcome.result.Stats.BufferUnderruns)
}

// parseOptionalSize parses a human-readable size like "64M" or "512", or
// returns def when s is empty.
func parseOptionalSize(s string, def int) (int64, error) {
	if s == "" {
		return int64(def), nil
	}
	return parseSize(s)
}

// parseSize parses a size string like "64M", "1G", "512K".
func parseSize(s string) (int64, error) {
	s = strings.ToUpper(strings.TrimSpace(s))

	var multiplier int64 = 1
	var numStr string

	switch {
	case strings.HasSuffix(s, "K"):
		multiplier = 1024
		numStr = strings.TrimSuffix(s, "K")
	case strings.HasSuffix(s, "M"):
		multiplier = 1024 * 1024
		numStr = strings.TrimSuffix(s, "M")
	case strings.HasSuffix(s, "G"):
		multiplier = 1024 * 1024 * 1024
		numStr = strings.TrimSuffix(s, "G")
	default:
		numStr = s
	}

	num, err := strconv.ParseInt(numStr, 10, 64)
	if err != nil {
		return 0, err
	}
	return num * multiplier, nil
}

// formatSize formats a byte count as a human-readable string.
func formatSize(bytes int64) string {
	const unit = 1024
	if bytes < unit {
		return fmt.Sprintf("%d B", bytes)
	}

	div, exp := int64(unit), 0
	for n := bytes / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}

	units := []string{"K", "M", "G", "T"}
	return fmt.Sprintf("%.1f %sB", float64(bytes)/float64(div), units[exp])
}
