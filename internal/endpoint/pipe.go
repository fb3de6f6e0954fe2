package endpoint

import (
	"fmt"

	"github.com/ndd-io/ndd/internal/interfaces"
	"golang.org/x/sys/unix"
)

// pipeBase is shared by PipeProducer and PipeConsumer: a single
// nonblocking descriptor opened on a named pipe (or any path that opens
// to a FIFO-like stream), driven the same way the socket endpoints are —
// synchronously when ready, busy on EAGAIN.
type pipeBase struct {
	path string
	fd   int
}

func (p *pipeBase) Name() string { return p.path }

func (p *pipeBase) open(flags int) error {
	fd, err := unix.Open(p.path, flags|unix.O_NONBLOCK, 0)
	if err != nil {
		return fmt.Errorf("endpoint: open %s: %w", p.path, err)
	}
	p.fd = fd
	return nil
}

func (p *pipeBase) ReadinessFD() int { return p.fd }

// Destroy closes the pipe descriptor. Idempotent: a pipe endpoint
// constructed but never opened has nothing to close.
func (p *pipeBase) Destroy() error {
	if p.fd < 0 {
		return nil
	}
	fd := p.fd
	p.fd = -1
	return unix.Close(fd)
}

// PipeProducer reads from a named pipe.
type PipeProducer struct{ pipeBase }

var _ interfaces.Producer = (*PipeProducer)(nil)

// NewPipeProducer constructs an unopened pipe producer.
func NewPipeProducer(path string) *PipeProducer {
	return &PipeProducer{pipeBase{path: path, fd: -1}}
}

func (p *PipeProducer) Init(blockSize int) error {
	return p.open(unix.O_RDONLY)
}

func (p *PipeProducer) DesiredEvent() interfaces.Event { return interfaces.Readable }

// Submit performs a nonblocking read. EAGAIN is pending; a zero-length
// read is EOF.
func (p *PipeProducer) Submit(dst []byte, eof *bool) (int, error) {
	n, err := unix.Read(p.fd, dst)
	if err != nil {
		if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
			*eof = false
			return 0, nil
		}
		return -1, fmt.Errorf("endpoint: pipe %s read: %w", p.path, err)
	}
	*eof = n == 0
	return n, nil
}

// Complete is a no-op: unlike sockets, pipes have no non-destructive
// peek, so there is nothing useful to learn here. Clearing busy simply
// lets the next cycle's Submit perform the real read once more data (or
// EOF) is available.
func (p *PipeProducer) Complete(eof *bool) (int, error) {
	*eof = false
	return 0, nil
}

// PipeConsumer writes to a named pipe.
type PipeConsumer struct{ pipeBase }

var _ interfaces.Consumer = (*PipeConsumer)(nil)

// NewPipeConsumer constructs an unopened pipe consumer.
func NewPipeConsumer(path string) *PipeConsumer {
	return &PipeConsumer{pipeBase{path: path, fd: -1}}
}

func (p *PipeConsumer) Init(blockSize int) error {
	return p.open(unix.O_WRONLY | unix.O_CREAT)
}

func (p *PipeConsumer) DesiredEvent() interfaces.Event { return interfaces.Writable }

// Submit performs a nonblocking write.
func (p *PipeConsumer) Submit(src []byte) (int, error) {
	n, err := unix.Write(p.fd, src)
	if err != nil {
		if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
			return 0, nil
		}
		return -1, fmt.Errorf("endpoint: pipe %s write: %w", p.path, err)
	}
	return n, nil
}

// Complete is a no-op: all bytes are moved by Submit.
func (p *PipeConsumer) Complete() (int, error) { return 0, nil }
