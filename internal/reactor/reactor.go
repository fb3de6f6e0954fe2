// Package reactor implements the single-threaded, cooperative,
// event-driven loop that drives one producer and up to
// constants.MaxConsumers consumers through a shared ring buffer.
package reactor

import (
	"context"
	"fmt"
	"time"

	"github.com/ndd-io/ndd/internal/constants"
	"github.com/ndd-io/ndd/internal/interfaces"
	"github.com/ndd-io/ndd/internal/logging"
	"github.com/ndd-io/ndd/internal/ringbuf"
)

// Stats holds the counters the reactor accumulates over a transfer.
// ConsumerSlowdowns is indexed the same way Config.Consumers was
// ordered.
type Stats struct {
	TotalCycles       uint64
	WaitedCycles      uint64
	BufferOverruns    uint64
	BufferUnderruns   uint64
	ConsumerSlowdowns []uint64
}

// Config wires the endpoints and tunables for a single transfer. Exactly
// one producer and between one and constants.MaxConsumers consumers are
// required.
type Config struct {
	Producer  interfaces.Producer
	Consumers []interfaces.Consumer

	BufferSize int
	BlockSize  int

	// SleepMs bounds each multiplexer wait. Negative means wait
	// indefinitely.
	SleepMs int

	Logger   interfaces.Logger
	Observer interfaces.Observer // optional
}

type producerState struct {
	ep      interfaces.Producer
	offset  uint64
	busy    bool
	wasBusy bool
	eof     bool
}

type consumerState struct {
	ep      interfaces.Consumer
	offset  uint64
	busy    bool
	wasBusy bool
}

// Reactor drives one transfer to completion.
type Reactor struct {
	buf       *ringbuf.Buffer
	blockSize int
	sleepMs   int

	poller    Poller
	producer  *producerState
	consumers []*consumerState

	stats    Stats
	logger   interfaces.Logger
	observer interfaces.Observer
}

// New validates cfg and constructs a Reactor. It does not call Init on
// any endpoint; the caller does that (and Destroy) so ownership of
// endpoint lifecycle stays with whoever constructed them.
func New(cfg Config) (*Reactor, error) {
	if cfg.Producer == nil {
		return nil, fmt.Errorf("reactor: producer is required")
	}
	if len(cfg.Consumers) < 1 || len(cfg.Consumers) > constants.MaxConsumers {
		return nil, fmt.Errorf("reactor: need 1..%d consumers, got %d", constants.MaxConsumers, len(cfg.Consumers))
	}
	if cfg.BlockSize <= 0 || cfg.BufferSize <= cfg.BlockSize {
		return nil, fmt.Errorf("reactor: buffer_size (%d) must be greater than block_size (%d)", cfg.BufferSize, cfg.BlockSize)
	}
	if cfg.BufferSize%cfg.BlockSize != 0 {
		return nil, fmt.Errorf("reactor: buffer_size (%d) must be a multiple of block_size (%d)", cfg.BufferSize, cfg.BlockSize)
	}

	poller, err := NewPoller(1 + len(cfg.Consumers))
	if err != nil {
		return nil, fmt.Errorf("reactor: %w", err)
	}

	consumers := make([]*consumerState, len(cfg.Consumers))
	for i, c := range cfg.Consumers {
		consumers[i] = &consumerState{ep: c}
	}

	logger := cfg.Logger
	if logger == nil {
		logger = logging.Default()
	}

	return &Reactor{
		buf:       ringbuf.New(cfg.BufferSize),
		blockSize: cfg.BlockSize,
		sleepMs:   cfg.SleepMs,
		poller:    poller,
		producer:  &producerState{ep: cfg.Producer},
		consumers: consumers,
		stats:     Stats{ConsumerSlowdowns: make([]uint64, len(cfg.Consumers))},
		logger:    logger,
		observer:  cfg.Observer,
	}, nil
}

// Run drives the transfer to completion: producer EOF latched and every
// consumer caught up to the producer's final offset. It returns the
// accumulated Stats regardless of outcome, and a non-nil error on any
// fatal endpoint failure or context cancellation.
func (r *Reactor) Run(ctx context.Context) (Stats, error) {
	defer r.poller.Close()

	// An indefinite or long multiplexer wait only returns on its own when
	// an endpoint becomes ready, so ctx cancellation would otherwise sit
	// unobserved until then. Wake the poller as soon as ctx is done so a
	// blocked Wait call actually returns and the top-of-loop ctx.Err()
	// check below gets a chance to run.
	stopWake := make(chan struct{})
	defer close(stopWake)
	go func() {
		select {
		case <-ctx.Done():
			if err := r.poller.Wake(); err != nil {
				r.logger.Printf("reactor: wake multiplexer: %v", err)
			}
		case <-stopWake:
		}
	}()

	for {
		if err := ctx.Err(); err != nil {
			return r.stats, fmt.Errorf("reactor: %w", err)
		}

		if r.anyBusy() {
			if err := r.waitAndComplete(); err != nil {
				return r.stats, err
			}
		}
		r.stats.TotalCycles++

		minOffset := r.minConsumerOffset()
		if r.producer.offset == minOffset && r.producer.eof {
			return r.stats, nil
		}

		if err := r.producerStep(minOffset); err != nil {
			return r.stats, err
		}
		if err := r.consumerStep(); err != nil {
			return r.stats, err
		}

		r.debounce()
	}
}

func (r *Reactor) anyBusy() bool {
	if r.producer.busy {
		return true
	}
	for _, c := range r.consumers {
		if c.busy {
			return true
		}
	}
	return false
}

func (r *Reactor) minConsumerOffset() uint64 {
	offsets := make([]uint64, len(r.consumers))
	for i, c := range r.consumers {
		offsets[i] = c.offset
	}
	return ringbuf.MinOffset(offsets...)
}

// waitAndComplete blocks in the multiplexer and reaps every endpoint that
// became ready, advancing its offset and clearing its busy flag.
func (r *Reactor) waitAndComplete() error {
	ready, err := r.poller.Wait(r.sleepMs)
	if err != nil {
		return fmt.Errorf("reactor: multiplexer wait: %w", err)
	}
	r.stats.WaitedCycles++

	for _, fd := range ready {
		if r.producer.busy && fd == r.producer.ep.ReadinessFD() {
			start := time.Now()
			var eof bool
			n, err := r.producer.ep.Complete(&eof)
			r.observeComplete(r.producer.ep.Name(), n, start, err)
			if err != nil {
				return fmt.Errorf("reactor: producer %s complete: %w", r.producer.ep.Name(), err)
			}
			if n < 0 {
				return fmt.Errorf("reactor: producer %s complete returned %d", r.producer.ep.Name(), n)
			}
			r.producer.offset += uint64(n)
			r.producer.busy = false
			if eof {
				r.producer.eof = true
			}
			continue
		}
		for _, c := range r.consumers {
			if !c.busy || fd != c.ep.ReadinessFD() {
				continue
			}
			start := time.Now()
			n, err := c.ep.Complete()
			r.observeComplete(c.ep.Name(), n, start, err)
			if err != nil {
				return fmt.Errorf("reactor: consumer %s complete: %w", c.ep.Name(), err)
			}
			if n < 0 {
				return fmt.Errorf("reactor: consumer %s complete returned %d", c.ep.Name(), n)
			}
			c.offset += uint64(n)
			c.busy = false
		}
	}
	return nil
}

func (r *Reactor) producerStep(minOffset uint64) error {
	if r.producer.busy || r.producer.eof {
		return nil
	}

	free := ringbuf.FreeBytes(r.producer.offset, minOffset, r.buf.Cap())
	window := r.buf.Window(r.producer.offset, free, r.blockSize)
	if len(window) == 0 {
		r.stats.BufferOverruns++
		for i, c := range r.consumers {
			if c.offset == minOffset {
				r.stats.ConsumerSlowdowns[i]++
			}
		}
		return nil
	}

	start := time.Now()
	var eof bool
	n, err := r.producer.ep.Submit(window, &eof)
	r.observeSubmit(r.producer.ep.Name(), n, start, err)
	if err != nil {
		return fmt.Errorf("reactor: producer %s submit: %w", r.producer.ep.Name(), err)
	}
	if n < 0 {
		return fmt.Errorf("reactor: producer %s submit returned %d", r.producer.ep.Name(), n)
	}
	switch {
	case n > 0:
		r.producer.offset += uint64(n)
		if eof {
			r.producer.eof = true
		}
	case eof:
		r.producer.eof = true
	default:
		r.producer.busy = true
	}
	return nil
}

func (r *Reactor) consumerStep() error {
	for _, c := range r.consumers {
		if c.busy {
			continue
		}
		filled := ringbuf.FilledBytes(r.producer.offset, c.offset)
		window := r.buf.Window(c.offset, filled, r.blockSize)
		if len(window) == 0 {
			r.stats.BufferUnderruns++
			continue
		}

		start := time.Now()
		n, err := c.ep.Submit(window)
		r.observeSubmit(c.ep.Name(), n, start, err)
		if err != nil {
			return fmt.Errorf("reactor: consumer %s submit: %w", c.ep.Name(), err)
		}
		if n < 0 {
			return fmt.Errorf("reactor: consumer %s submit returned %d", c.ep.Name(), n)
		}
		if n > 0 {
			c.offset += uint64(n)
		} else {
			c.busy = true
		}
	}
	return nil
}

// debounce adds or removes readiness registrations for endpoints whose
// busy flag flipped since the previous cycle. Only busy endpoints are
// watched, matching the reference implementation's change_wait().
func (r *Reactor) debounce() {
	r.debounceOne(r.producer.ep.ReadinessFD(), r.producer.ep.DesiredEvent(), r.producer.busy, &r.producer.wasBusy)
	for _, c := range r.consumers {
		r.debounceOne(c.ep.ReadinessFD(), c.ep.DesiredEvent(), c.busy, &c.wasBusy)
	}
}

func (r *Reactor) debounceOne(fd int, desired interfaces.Event, busy bool, wasBusy *bool) {
	if busy == *wasBusy {
		return
	}
	if busy {
		if err := r.poller.Add(fd, toPollerEvent(desired)); err != nil {
			r.logger.Printf("reactor: register fd %d: %v", fd, err)
		}
	} else {
		if err := r.poller.Remove(fd); err != nil {
			r.logger.Printf("reactor: unregister fd %d: %v", fd, err)
		}
	}
	*wasBusy = busy
}

func toPollerEvent(e interfaces.Event) Event {
	if e == interfaces.Writable {
		return Writable
	}
	return Readable
}

func (r *Reactor) observeSubmit(name string, n int, start time.Time, err error) {
	if r.observer == nil {
		return
	}
	r.observer.ObserveSubmit(name, n, time.Since(start).Nanoseconds(), err)
}

func (r *Reactor) observeComplete(name string, n int, start time.Time, err error) {
	if r.observer == nil {
		return
	}
	r.observer.ObserveComplete(name, n, time.Since(start).Nanoseconds(), err)
}
