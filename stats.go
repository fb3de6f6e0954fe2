package ndd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/ndd-io/ndd/internal/reactor"
)

// statsReport is the on-disk shape of the stats file: one JSON object,
// one line. Field names and nesting match the reference implementation's
// hand-rolled dump exactly so existing consumers of that format keep
// working.
type statsReport struct {
	TotalCycles       uint64            `json:"total_cycles"`
	WaitedCycles      uint64            `json:"waited_cycles"`
	BufferUnderruns   uint64            `json:"buffer_underruns"`
	BufferOverruns    uint64            `json:"buffer_overruns"`
	ConsumerSlowdowns map[string]uint64 `json:"consumer_slowdowns"`
}

// WriteStatsFile writes stats as a single-line JSON object to path,
// keying ConsumerSlowdowns by consumerNames (construction order, same
// order the reactor was given the consumers in).
func WriteStatsFile(path string, stats reactor.Stats, consumerNames []string) error {
	if len(consumerNames) != len(stats.ConsumerSlowdowns) {
		return fmt.Errorf("ndd: %d consumer names for %d slowdown counters", len(consumerNames), len(stats.ConsumerSlowdowns))
	}

	report := statsReport{
		TotalCycles:       stats.TotalCycles,
		WaitedCycles:      stats.WaitedCycles,
		BufferUnderruns:   stats.BufferUnderruns,
		BufferOverruns:    stats.BufferOverruns,
		ConsumerSlowdowns: make(map[string]uint64, len(consumerNames)),
	}
	for i, name := range consumerNames {
		report.ConsumerSlowdowns[name] = stats.ConsumerSlowdowns[i]
	}

	line, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("ndd: marshal stats: %w", err)
	}
	line = append(line, '\n')

	if err := os.WriteFile(path, line, 0o644); err != nil {
		return fmt.Errorf("ndd: write stats file %s: %w", path, err)
	}
	return nil
}
