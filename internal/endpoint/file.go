package endpoint

import (
	"fmt"
	"syscall"

	"github.com/ndd-io/ndd/internal/aio"
	"github.com/ndd-io/ndd/internal/interfaces"
	"golang.org/x/sys/unix"
)

// fileBase holds the state and lifecycle shared by FileProducer and
// FileConsumer: both open a descriptor, wire a capacity-1 AIO context
// for it, and tear down the same way. They differ only in the AIO
// opcode and the shape of the endpoint interface they satisfy.
type fileBase struct {
	path   string
	fd     int
	ctx    *aio.Context
	offset int64
}

func (f *fileBase) open(flags int, perm uint32, op aio.Op) error {
	fd, err := unix.Open(f.path, flags, perm)
	if err != nil {
		return fmt.Errorf("endpoint: open %s: %w", f.path, err)
	}
	ctx, err := aio.NewContext(fd, op)
	if err != nil {
		unix.Close(fd)
		return fmt.Errorf("endpoint: file %s: %w", f.path, err)
	}
	f.fd = fd
	f.ctx = ctx
	return nil
}

func (f *fileBase) Name() string { return f.path }

func (f *fileBase) ReadinessFD() int { return f.ctx.EventFD() }

// DesiredEvent is always Readable: the eventfd signals by becoming
// readable regardless of whether this endpoint reads or writes the
// underlying file.
func (f *fileBase) DesiredEvent() interfaces.Event { return interfaces.Readable }

func (f *fileBase) submit(buf []byte) (int, error) {
	if err := f.ctx.Submit(buf, f.offset); err != nil {
		return -1, fmt.Errorf("endpoint: file %s submit: %w", f.path, err)
	}
	return 0, nil
}

// complete drains the one outstanding AIO event. A negative result is an
// errno converted to a fatal error.
func (f *fileBase) complete() (int64, error) {
	res, err := f.ctx.Wait()
	if err != nil {
		return 0, fmt.Errorf("endpoint: file %s complete: %w", f.path, err)
	}
	if res < 0 {
		return 0, fmt.Errorf("endpoint: file %s complete: %w", f.path, syscall.Errno(-res))
	}
	f.offset += res
	return res, nil
}

// Destroy tears down the AIO context, then closes the file descriptor.
// Close errors are warnings, not failures, matching the reference
// implementation's teardown contract. Idempotent: a fileBase that was
// constructed but never opened has nothing to tear down.
func (f *fileBase) Destroy() error {
	var warn error
	if f.ctx != nil {
		if err := f.ctx.Destroy(); err != nil {
			warn = err
		}
		f.ctx = nil
	}
	if f.fd >= 0 {
		if err := unix.Close(f.fd); err != nil && warn == nil {
			warn = err
		}
		f.fd = -1
	}
	return warn
}

// FileProducer is the read side of a file endpoint.
type FileProducer struct{ fileBase }

var _ interfaces.Producer = (*FileProducer)(nil)

// NewFileProducer constructs an unopened file producer. Init does the
// real work.
func NewFileProducer(path string) *FileProducer {
	return &FileProducer{fileBase{path: path, fd: -1}}
}

// Init opens the file read-only and wires its AIO context.
func (f *FileProducer) Init(blockSize int) error {
	return f.open(unix.O_RDONLY|unix.O_NONBLOCK|unix.O_LARGEFILE, 0, aio.OpRead)
}

// Submit enqueues one read at the endpoint's current stream offset and
// always returns pending; the file endpoint never moves bytes
// synchronously.
func (f *FileProducer) Submit(dst []byte, eof *bool) (int, error) {
	*eof = false
	return f.submit(dst)
}

// Complete reaps the pending read. A zero result signals end of stream.
func (f *FileProducer) Complete(eof *bool) (int, error) {
	n, err := f.complete()
	if err != nil {
		return -1, err
	}
	*eof = n == 0
	return int(n), nil
}

// FileConsumer is the write side of a file endpoint.
type FileConsumer struct{ fileBase }

var _ interfaces.Consumer = (*FileConsumer)(nil)

// NewFileConsumer constructs an unopened file consumer. Init does the
// real work.
func NewFileConsumer(path string) *FileConsumer {
	return &FileConsumer{fileBase{path: path, fd: -1}}
}

// Init opens (creating if needed) the file write-only and wires its AIO
// context.
func (f *FileConsumer) Init(blockSize int) error {
	return f.open(unix.O_WRONLY|unix.O_CREAT|unix.O_NONBLOCK|unix.O_LARGEFILE, 0o600, aio.OpWrite)
}

// Submit enqueues one write at the endpoint's current stream offset and
// always returns pending.
func (f *FileConsumer) Submit(src []byte) (int, error) {
	return f.submit(src)
}

// Complete reaps the pending write.
func (f *FileConsumer) Complete() (int, error) {
	n, err := f.complete()
	if err != nil {
		return -1, err
	}
	return int(n), nil
}
