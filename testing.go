package ndd

import (
	"sync"

	"github.com/ndd-io/ndd/internal/interfaces"
)

// MockProducer is an in-memory producer that hands out bytes from a
// fixed slice, synchronously, for exercising the engine without real
// file/socket/pipe descriptors. It never goes busy.
type MockProducer struct {
	mu         sync.Mutex
	data       []byte
	cursor     int
	submitCall int
}

var _ interfaces.Producer = (*MockProducer)(nil)

// NewMockProducer constructs a producer that will hand out data in full
// before signaling EOF.
func NewMockProducer(data []byte) *MockProducer {
	cp := make([]byte, len(data))
	copy(cp, data)
	return &MockProducer{data: cp}
}

func (p *MockProducer) Name() string                       { return "mock-producer" }
func (p *MockProducer) Init(int) error                      { return nil }
func (p *MockProducer) Destroy() error                       { return nil }
func (p *MockProducer) ReadinessFD() int                     { return -1 }
func (p *MockProducer) DesiredEvent() interfaces.Event        { return interfaces.Readable }
func (p *MockProducer) Complete(eof *bool) (int, error) { return 0, nil }

// Submit copies up to len(dst) remaining bytes and signals eof once the
// source is exhausted.
func (p *MockProducer) Submit(dst []byte, eof *bool) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.submitCall++

	if p.cursor >= len(p.data) {
		*eof = true
		return 0, nil
	}
	n := copy(dst, p.data[p.cursor:])
	p.cursor += n
	*eof = false
	return n, nil
}

// SubmitCalls reports how many times Submit has been invoked.
func (p *MockProducer) SubmitCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.submitCall
}

// MockConsumer is an in-memory consumer that appends every byte it is
// handed, synchronously. It never goes busy.
type MockConsumer struct {
	mu         sync.Mutex
	name       string
	out        []byte
	submitCall int
}

var _ interfaces.Consumer = (*MockConsumer)(nil)

// NewMockConsumer constructs an empty mock consumer identified by name.
func NewMockConsumer(name string) *MockConsumer {
	return &MockConsumer{name: name}
}

func (c *MockConsumer) Name() string                 { return c.name }
func (c *MockConsumer) Init(int) error                { return nil }
func (c *MockConsumer) Destroy() error                 { return nil }
func (c *MockConsumer) ReadinessFD() int               { return -1 }
func (c *MockConsumer) DesiredEvent() interfaces.Event { return interfaces.Writable }
func (c *MockConsumer) Complete() (int, error)         { return 0, nil }

// Submit appends src to the accumulated output.
func (c *MockConsumer) Submit(src []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.submitCall++
	c.out = append(c.out, src...)
	return len(src), nil
}

// Bytes returns a copy of everything received so far.
func (c *MockConsumer) Bytes() []byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]byte, len(c.out))
	copy(out, c.out)
	return out
}

// SubmitCalls reports how many times Submit has been invoked.
func (c *MockConsumer) SubmitCalls() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.submitCall
}
