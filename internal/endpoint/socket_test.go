package endpoint

import (
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/sys/unix"
)

// TestSocketConsumerSubmitReportsShortWrite guards against the
// len(src)-on-success bug: a nonblocking send on a socket whose buffer
// can't hold the whole window must report back the actual accepted
// count, not the full window length, or the reactor would advance the
// consumer offset past unsent bytes and silently drop them.
func TestSocketConsumerSubmitReportsShortWrite(t *testing.T) {
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM, 0)
	require.NoError(t, err)
	defer unix.Close(fds[0])
	defer unix.Close(fds[1])

	require.NoError(t, unix.SetsockoptInt(fds[0], unix.SOL_SOCKET, unix.SO_SNDBUF, 4096))

	c := &SocketConsumer{socketBase: socketBase{spec: "test", transferFD: fds[0]}, listenFD: -1}

	// Nobody reads fds[1], so the send buffer fills and the kernel has to
	// accept fewer bytes than offered.
	window := make([]byte, 8<<20)
	n, err := c.Submit(window)
	require.NoError(t, err)
	require.Greater(t, n, 0, "at least some bytes should fit before the buffer is full")
	require.Less(t, n, len(window), "a full send buffer must force a short write, or this test proves nothing")
}

// TestSocketConsumerSubmitPending asserts the EAGAIN/would-block path is
// reported as pending (n == 0, err == nil), not as a fatal error.
func TestSocketConsumerSubmitPending(t *testing.T) {
	fds, err := unix.Socketpair(unix.AF_UNIX, unix.SOCK_STREAM, 0)
	require.NoError(t, err)
	defer unix.Close(fds[0])
	defer unix.Close(fds[1])

	require.NoError(t, unix.SetsockoptInt(fds[0], unix.SOL_SOCKET, unix.SO_SNDBUF, 4096))

	c := &SocketConsumer{socketBase: socketBase{spec: "test", transferFD: fds[0]}, listenFD: -1}

	window := make([]byte, 8<<20)
	// Drain the buffer down to EAGAIN first.
	for {
		n, err := c.Submit(window)
		require.NoError(t, err)
		if n == 0 {
			break
		}
	}
}
