package reactor

// Poller is the readiness multiplexer the reactor blocks on. It is
// satisfied by the Linux epoll wrapper in poller_linux.go; other
// platforms get a stub that fails at construction time, mirroring how
// the teacher package gates io_uring behind a Linux build tag.
type Poller interface {
	// Add registers fd for the given event (Readable or Writable). Safe
	// to call again for an fd already registered with a different
	// event (replaces the registration).
	Add(fd int, event Event) error

	// Remove unregisters fd. Removing an fd that was never added is a
	// no-op.
	Remove(fd int) error

	// Wait blocks until at least one registered fd is ready, the
	// timeout elapses, or an error occurs. timeoutMs < 0 waits
	// indefinitely. It returns the ready file descriptors.
	Wait(timeoutMs int) ([]int, error)

	// Wake unblocks a concurrent or future Wait call without waiting for
	// any registered endpoint to become ready. Safe to call from any
	// goroutine.
	Wake() error

	// Close releases the multiplexer's own resources.
	Close() error
}

// Event is the readiness condition registered for a descriptor. It
// mirrors interfaces.Event so callers never need to import both packages
// just to register a descriptor.
type Event int

const (
	Readable Event = iota
	Writable
)
