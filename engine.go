package ndd

import (
	"context"
	"fmt"
	"sync"

	"github.com/ndd-io/ndd/internal/endpoint"
	"github.com/ndd-io/ndd/internal/interfaces"
	"github.com/ndd-io/ndd/internal/logging"
	"github.com/ndd-io/ndd/internal/reactor"
)

// Options configures a single transfer. Sources selects the endpoints;
// everything else has a constants-backed default.
type Options struct {
	Sources endpoint.Sources

	BufferSize int // 0 -> DefaultBufferSize
	BlockSize  int // 0 -> DefaultBlockSize

	// SleepMs bounds each multiplexer wait; negative waits indefinitely.
	// 0 -> indefinite.
	SleepMs int

	Logger   *logging.Logger
	Observer interfaces.Observer // nil -> NoOpObserver

	// StatsPath, if non-empty, receives a JSON stats dump once Run ends.
	StatsPath string
}

// Result is everything worth reporting back to the outer program once a
// transfer ends.
type Result struct {
	Stats         reactor.Stats
	ConsumerNames []string
}

// Engine holds one transfer's constructed, initialized endpoints between
// NewEngine and Close. It is the Go-native replacement for the teacher's
// Device handle: a params struct goes in, a handle comes out, and the
// caller is responsible for calling Close exactly once.
type Engine struct {
	opts      Options
	producer  interfaces.Producer
	consumers []interfaces.Consumer
	logger    *logging.Logger
	observer  interfaces.Observer

	closeOnce sync.Once
	closeErr  error
}

// NewEngine constructs the producer and consumers named by opts.Sources
// and runs their Init. On any failure it tears down whatever it already
// constructed before returning.
func NewEngine(opts Options) (*Engine, error) {
	producer, err := endpoint.BuildProducer(opts.Sources)
	if err != nil {
		return nil, NewConfigError(err.Error())
	}
	consumers, err := endpoint.BuildConsumers(opts.Sources)
	if err != nil {
		producer.Destroy()
		return nil, NewConfigError(err.Error())
	}

	blockSize := opts.BlockSize
	if blockSize == 0 {
		blockSize = DefaultBlockSize
	}

	logger := opts.Logger
	if logger == nil {
		logger = logging.Default()
	}
	observer := opts.Observer
	if observer == nil {
		observer = NoOpObserver{}
	}

	e := &Engine{opts: opts, producer: producer, consumers: consumers, logger: logger, observer: observer}

	if err := producer.Init(blockSize); err != nil {
		e.Close()
		initErr := NewEndpointError("init", producer.Name(), err)
		initErr.Code = ErrCodeResourceAcquisition
		return nil, initErr
	}
	for _, c := range consumers {
		if err := c.Init(blockSize); err != nil {
			e.Close()
			initErr := NewEndpointError("init", c.Name(), err)
			initErr.Code = ErrCodeResourceAcquisition
			return nil, initErr
		}
	}
	return e, nil
}

// Run drives the transfer to completion through a reactor, optionally
// dumping stats to opts.StatsPath regardless of outcome. It does not
// close the engine; call Close once Run returns.
func (e *Engine) Run(ctx context.Context) (Result, error) {
	bufferSize := e.opts.BufferSize
	if bufferSize == 0 {
		bufferSize = DefaultBufferSize
	}
	blockSize := e.opts.BlockSize
	if blockSize == 0 {
		blockSize = DefaultBlockSize
	}
	// 0 is Go's unset-int zero value, so it means "indefinite" here, not
	// a 0ms (busy-poll) multiplexer timeout; only an explicit negative
	// value maps to that at the reactor/poller layer.
	sleepMs := e.opts.SleepMs
	if sleepMs == 0 {
		sleepMs = -1
	}

	consumerNames := make([]string, len(e.consumers))
	for i, c := range e.consumers {
		consumerNames[i] = c.Name()
	}

	r, err := reactor.New(reactor.Config{
		Producer:   e.producer,
		Consumers:  e.consumers,
		BufferSize: bufferSize,
		BlockSize:  blockSize,
		SleepMs:    sleepMs,
		Logger:     e.logger,
		Observer:   e.observer,
	})
	if err != nil {
		return Result{}, NewConfigError(err.Error())
	}

	stats, runErr := r.Run(ctx)

	if e.opts.StatsPath != "" {
		if err := WriteStatsFile(e.opts.StatsPath, stats, consumerNames); err != nil {
			e.logger.Warnf("engine: write stats file: %v", err)
		}
	}

	result := Result{Stats: stats, ConsumerNames: consumerNames}
	if runErr != nil {
		return result, fmt.Errorf("engine: %w", runErr)
	}
	return result, nil
}

// Close tears down every endpoint NewEngine constructed. Close errors are
// warnings, not failures — matching the endpoints' own teardown contract
// — and Close is safe to call more than once.
func (e *Engine) Close() error {
	e.closeOnce.Do(func() {
		if e.producer != nil {
			if err := e.producer.Destroy(); err != nil {
				e.logger.Warnf("engine: destroy producer %s: %v", e.producer.Name(), err)
				e.closeErr = err
			}
		}
		for _, c := range e.consumers {
			if err := c.Destroy(); err != nil {
				e.logger.Warnf("engine: destroy consumer %s: %v", c.Name(), err)
				if e.closeErr == nil {
					e.closeErr = err
				}
			}
		}
	})
	return e.closeErr
}

// Run is a convenience wrapper for the common case: construct an Engine,
// run it to completion, and close it, regardless of outcome.
func Run(ctx context.Context, opts Options) (Result, error) {
	e, err := NewEngine(opts)
	if err != nil {
		return Result{}, err
	}
	defer e.Close()
	return e.Run(ctx)
}
