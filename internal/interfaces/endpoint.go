// Package interfaces defines the endpoint contract shared between the
// reactor and every producer/consumer implementation. It is kept separate
// from the root package to avoid an import cycle between the reactor and
// the concrete endpoints it drives.
package interfaces

// Producer is the read side of a transfer: a file being read, a socket
// accepting bytes from a peer, a pipe. Return-value semantics match
// spec.md §4.1:
//
//	> 0  N bytes moved synchronously; the endpoint is not busy.
//	  0  request accepted, completion pending (endpoint becomes busy), or
//	     (with *eof == true) end of stream observed.
//	< 0  fatal I/O failure; the engine must abort the transfer.
type Producer interface {
	// Init opens descriptors, resolves addresses, and performs any
	// blocking setup (connect-with-backoff, bind/listen/accept). Called
	// exactly once before the transfer starts.
	Init(blockSize int) error

	// Destroy releases every resource Init may have acquired. Must be
	// idempotent and must not error when called on an endpoint that was
	// constructed but never Init-ed.
	Destroy() error

	// ReadinessFD returns the descriptor the reactor polls for progress.
	// Stable for the endpoint's lifetime after Init.
	ReadinessFD() int

	// DesiredEvent reports which readiness event (readable or writable)
	// this endpoint wants registered.
	DesiredEvent() Event

	// Submit offers up to len(dst) bytes of buffer for the endpoint to
	// fill. See the Producer doc above for return semantics.
	Submit(dst []byte, eof *bool) (int, error)

	// Complete reaps a pending asynchronous operation after the
	// readiness descriptor has fired.
	Complete(eof *bool) (int, error)

	// Name identifies the endpoint in logs and per-consumer statistics.
	Name() string
}

// Consumer is the write side of a transfer: a file being written, a
// connected socket, a pipe.
type Consumer interface {
	Init(blockSize int) error
	Destroy() error
	ReadinessFD() int
	DesiredEvent() Event

	// Submit offers src (already trimmed to the consumer's filled
	// region) for the endpoint to drain.
	Submit(src []byte) (int, error)

	// Complete reaps a pending asynchronous operation.
	Complete() (int, error)

	Name() string
}

// Event is the readiness condition an endpoint wants to be woken on.
type Event int

const (
	Readable Event = iota
	Writable
)

// Logger is the subset of *logging.Logger the reactor depends on, so
// tests can supply a stub without pulling in the logging package.
type Logger interface {
	Printf(format string, args ...interface{})
	Debugf(format string, args ...interface{})
}

// Observer receives per-operation instrumentation from the reactor. All
// methods must be safe to call from the single reactor goroutine; no
// concurrent-access guarantee is made beyond that, since the reactor never
// calls into an Observer from more than one goroutine.
type Observer interface {
	ObserveSubmit(endpoint string, bytes int, latencyNs int64, err error)
	ObserveComplete(endpoint string, bytes int, latencyNs int64, err error)
}
