//go:build linux

package reactor

import (
	"encoding/binary"
	"fmt"

	"golang.org/x/sys/unix"
)

// epollPoller is the Poller backed by Linux epoll.
type epollPoller struct {
	epfd   int
	wakeFD int
	events []unix.EpollEvent
}

// NewPoller constructs the platform readiness multiplexer. It also owns a
// wake eventfd, registered for readability from the start, so Wake can
// unblock an indefinite epoll_wait from another goroutine (the reactor
// uses this to make context cancellation actually interrupt the wait
// instead of only being checked between cycles).
func NewPoller(maxEvents int) (Poller, error) {
	epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
	if err != nil {
		return nil, fmt.Errorf("epoll_create1: %w", err)
	}
	wakeFD, err := unix.Eventfd(0, unix.EFD_CLOEXEC|unix.EFD_NONBLOCK)
	if err != nil {
		unix.Close(epfd)
		return nil, fmt.Errorf("eventfd: %w", err)
	}
	p := &epollPoller{
		epfd:   epfd,
		wakeFD: wakeFD,
		events: make([]unix.EpollEvent, maxEvents+1),
	}
	if err := p.Add(wakeFD, Readable); err != nil {
		unix.Close(wakeFD)
		unix.Close(epfd)
		return nil, fmt.Errorf("register wake fd: %w", err)
	}
	return p, nil
}

func epollMask(event Event) uint32 {
	if event == Writable {
		return unix.EPOLLOUT
	}
	return unix.EPOLLIN
}

func (p *epollPoller) Add(fd int, event Event) error {
	ev := unix.EpollEvent{Events: epollMask(event), Fd: int32(fd)}
	if err := unix.EpollCtl(p.epfd, unix.EPOLL_CTL_ADD, fd, &ev); err != nil {
		if err == unix.EEXIST {
			return unix.EpollCtl(p.epfd, unix.EPOLL_CTL_MOD, fd, &ev)
		}
		return fmt.Errorf("epoll_ctl(add, %d): %w", fd, err)
	}
	return nil
}

func (p *epollPoller) Remove(fd int) error {
	if err := unix.EpollCtl(p.epfd, unix.EPOLL_CTL_DEL, fd, nil); err != nil && err != unix.ENOENT {
		return fmt.Errorf("epoll_ctl(del, %d): %w", fd, err)
	}
	return nil
}

func (p *epollPoller) Wait(timeoutMs int) ([]int, error) {
	n, err := unix.EpollWait(p.epfd, p.events, timeoutMs)
	if err != nil {
		if err == unix.EINTR {
			return nil, nil
		}
		return nil, fmt.Errorf("epoll_wait: %w", err)
	}
	ready := make([]int, 0, n)
	for i := 0; i < n; i++ {
		fd := int(p.events[i].Fd)
		if fd == p.wakeFD {
			var buf [8]byte
			unix.Read(p.wakeFD, buf[:])
			continue
		}
		ready = append(ready, fd)
	}
	return ready, nil
}

// Wake posts to the wake eventfd, which is always registered for
// readability, causing a blocked epoll_wait to return immediately.
func (p *epollPoller) Wake() error {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], 1)
	if _, err := unix.Write(p.wakeFD, buf[:]); err != nil && err != unix.EAGAIN {
		return fmt.Errorf("eventfd write: %w", err)
	}
	return nil
}

func (p *epollPoller) Close() error {
	unix.Close(p.wakeFD)
	return unix.Close(p.epfd)
}
