//go:build !linux

package aio

import "fmt"

type Op uint16

const (
	OpRead  Op = 0
	OpWrite Op = 1
)

// Context is unavailable outside Linux; the file endpoint's asynchronous
// I/O is a Linux kernel AIO construct with no portable equivalent here.
type Context struct{}

func NewContext(fd int, op Op) (*Context, error) {
	return nil, fmt.Errorf("aio: linux kernel AIO requires linux")
}

func (c *Context) EventFD() int                      { return -1 }
func (c *Context) Submit(buf []byte, offset int64) error { return fmt.Errorf("aio: unsupported platform") }
func (c *Context) Wait() (int64, error)               { return 0, fmt.Errorf("aio: unsupported platform") }
func (c *Context) Destroy() error                     { return nil }
