//go:build !linux

package reactor

import "fmt"

// NewPoller is unavailable outside Linux; the engine's multiplexer is
// epoll, matching the reference implementation's exclusively Linux
// target (raw AIO, eventfd, SO_RCVBUFFORCE/SO_SNDBUFFORCE are all
// Linux-only too).
func NewPoller(maxEvents int) (Poller, error) {
	return nil, fmt.Errorf("reactor: epoll multiplexer requires linux")
}
