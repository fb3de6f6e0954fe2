// Package ringbuf implements the fixed-size single-producer,
// multi-consumer byte ring at the center of the transfer engine. It holds
// no I/O logic and no goroutines: callers track offsets and drive
// Window/MinOffset themselves from the reactor's single-threaded loop.
package ringbuf

// Buffer is a fixed-capacity byte ring addressed by monotonically
// increasing 64-bit logical offsets. offset 0 is the first byte ever
// produced; physical placement is offset mod Cap().
type Buffer struct {
	data []byte
}

// New allocates a ring buffer of the given capacity in bytes.
func New(size int) *Buffer {
	if size <= 0 {
		panic("ringbuf: size must be positive")
	}
	return &Buffer{data: make([]byte, size)}
}

// Cap returns the buffer's fixed capacity.
func (b *Buffer) Cap() int {
	return len(b.data)
}

// Window returns the contiguous slice of the underlying array available
// for a single I/O submission starting at the logical offset. The slice
// is capped so that it:
//
//   - never crosses the physical end of the buffer (a submission never
//     wraps; the caller issues a second Window call at the advanced
//     offset instead),
//   - never exceeds avail, the number of logical bytes the caller is
//     permitted to move (free space for a producer, filled space for a
//     consumer),
//   - never exceeds blockSize, if blockSize > 0.
//
// Window returns nil if avail <= 0.
func (b *Buffer) Window(offset uint64, avail int, blockSize int) []byte {
	if avail <= 0 {
		return nil
	}
	capacity := len(b.data)
	phys := int(offset % uint64(capacity))
	n := capacity - phys
	if n > avail {
		n = avail
	}
	if blockSize > 0 && n > blockSize {
		n = blockSize
	}
	return b.data[phys : phys+n]
}

// MinOffset returns the smallest of the given offsets. The reactor calls
// this with the set of consumer offsets to find the byte still pinned by
// the slowest consumer, which bounds how far the producer may advance
// before it overruns the buffer.
func MinOffset(offsets ...uint64) uint64 {
	if len(offsets) == 0 {
		return 0
	}
	m := offsets[0]
	for _, o := range offsets[1:] {
		if o < m {
			m = o
		}
	}
	return m
}

// FreeBytes returns the number of bytes the producer may write before it
// would overtake the slowest consumer, given the producer's current
// offset and that consumer's offset (use MinOffset across all consumers).
func FreeBytes(producerOffset, slowestConsumerOffset uint64, capacity int) int {
	used := int(producerOffset - slowestConsumerOffset)
	free := capacity - used
	if free < 0 {
		return 0
	}
	return free
}

// FilledBytes returns the number of bytes available for a consumer to
// read, given the producer's offset and that consumer's own offset.
func FilledBytes(producerOffset, consumerOffset uint64) int {
	filled := int(producerOffset - consumerOffset)
	if filled < 0 {
		return 0
	}
	return filled
}
