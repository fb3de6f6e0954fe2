//go:build linux

// Package aio wraps the Linux kernel AIO ABI (io_setup/io_submit/
// io_getevents/io_destroy) plus an eventfd completion descriptor. It
// backs the file endpoint: submit enqueues exactly one read or write,
// and the reactor learns it is done by waiting on EventFD() and then
// calling Wait once.
package aio

import (
	"fmt"
	"unsafe"

	"golang.org/x/sys/unix"
)

// Op selects the kernel AIO command for a Context.
type Op uint16

const (
	OpRead  Op = 0 // IOCB_CMD_PREAD
	OpWrite Op = 1 // IOCB_CMD_PWRITE
)

const iocbFlagResFD = 1 << 0

// iocb mirrors struct iocb from linux/aio_abi.h on little-endian amd64/
// arm64, where the PADDED(aio_key, aio_rw_flags) macro places aio_key
// first.
type iocb struct {
	data       uint64
	key        uint32
	rwFlags    uint32
	lioOpcode  uint16
	reqPrio    int16
	fildes     uint32
	buf        uint64
	nbytes     uint64
	offset     int64
	reserved2  uint64
	flags      uint32
	resFD      uint32
}

// ioEvent mirrors struct io_event.
type ioEvent struct {
	data uint64
	obj  uint64
	res  int64
	res2 int64
}

// Context is a single-slot Linux AIO submission context: capacity 1,
// exactly the shape the file endpoint needs (one outstanding request at
// a time). It owns a reusable control block, filled in and resubmitted
// for every call.
type Context struct {
	ctxID   uintptr
	eventFD int
	block   iocb
	fd      int
	op      Op
}

// NewContext creates an AIO context of capacity 1 and an eventfd for
// completion notification, and pre-populates the reusable control block
// with fd, op, priority 0, and the eventfd-notify flag.
func NewContext(fd int, op Op) (*Context, error) {
	efd, err := unix.Eventfd(0, unix.EFD_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("aio: eventfd: %w", err)
	}

	var ctxID uintptr
	if _, _, errno := unix.Syscall(unix.SYS_IO_SETUP, 1, uintptr(unsafe.Pointer(&ctxID)), 0); errno != 0 {
		unix.Close(efd)
		return nil, fmt.Errorf("aio: io_setup: %w", errno)
	}

	c := &Context{ctxID: ctxID, eventFD: efd, fd: fd, op: op}
	c.block = iocb{
		lioOpcode: uint16(op),
		fildes:    uint32(fd),
		flags:     iocbFlagResFD,
		resFD:     uint32(efd),
	}
	return c, nil
}

// EventFD returns the completion-notification descriptor; the reactor
// registers it as Readable and calls Wait once it fires.
func (c *Context) EventFD() int {
	return c.eventFD
}

// Submit enqueues exactly one read or write at the given stream offset.
// It never blocks; completion is signaled on EventFD.
func (c *Context) Submit(buf []byte, offset int64) error {
	c.block.buf = uint64(uintptr(unsafe.Pointer(&buf[0])))
	c.block.nbytes = uint64(len(buf))
	c.block.offset = offset

	iocbs := [1]*iocb{&c.block}
	n, _, errno := unix.Syscall(unix.SYS_IO_SUBMIT, c.ctxID, 1, uintptr(unsafe.Pointer(&iocbs[0])))
	if errno != 0 {
		return fmt.Errorf("aio: io_submit: %w", errno)
	}
	if n != 1 {
		return fmt.Errorf("aio: io_submit: submitted %d requests, want 1", n)
	}
	return nil
}

// Wait drains exactly one completed event. Call it only after EventFD
// has fired, so the underlying io_getevents call is immediate. It
// returns the event's result: a negative value is an errno the caller
// should convert to a fatal error, zero means EOF (on read), and a
// positive value is the byte count transferred.
func (c *Context) Wait() (int64, error) {
	var buf [8]byte
	if _, err := unix.Read(c.eventFD, buf[:]); err != nil {
		return 0, fmt.Errorf("aio: read eventfd: %w", err)
	}

	var events [1]ioEvent
	n, _, errno := unix.Syscall6(unix.SYS_IO_GETEVENTS, c.ctxID, 1, 1,
		uintptr(unsafe.Pointer(&events[0])), 0, 0)
	if errno != 0 {
		return 0, fmt.Errorf("aio: io_getevents: %w", errno)
	}
	if n != 1 {
		return 0, fmt.Errorf("aio: io_getevents: got %d events, want 1", n)
	}
	return events[0].res, nil
}

// Destroy tears down the AIO context and closes the eventfd. It is not
// idempotent: call it once; a second call returns the kernel's EINVAL
// wrapped as an error.
func (c *Context) Destroy() error {
	_, _, errno := unix.Syscall(unix.SYS_IO_DESTROY, c.ctxID, 0, 0)
	closeErr := unix.Close(c.eventFD)
	if errno != 0 {
		return fmt.Errorf("aio: io_destroy: %w", errno)
	}
	if closeErr != nil {
		return fmt.Errorf("aio: close eventfd: %w", closeErr)
	}
	return nil
}
