package endpoint

import (
	"fmt"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/ndd-io/ndd/internal/constants"
	"github.com/ndd-io/ndd/internal/interfaces"
	"golang.org/x/sys/unix"
)

// splitHostPort parses an address spec of the form "[host][:port]",
// defaulting the port to constants.DefaultPort when omitted. An empty
// host is valid only for the listening (passive) side.
func splitHostPort(spec string) (host, port string, err error) {
	if spec == "" {
		return "", constants.DefaultPort, nil
	}
	if !strings.Contains(spec, ":") {
		return spec, constants.DefaultPort, nil
	}
	host, port, err = net.SplitHostPort(spec)
	if err != nil {
		return "", "", fmt.Errorf("endpoint: invalid address %q: %w", spec, err)
	}
	if port == "" {
		port = constants.DefaultPort
	}
	return host, port, nil
}

// resolveAddrs returns the candidate IPs for host in resolver order, with
// loopback addresses skipped. The reference implementation does this
// unconditionally and without explanation; it is preserved as-is rather
// than made configurable.
func resolveAddrs(host string, passive bool) ([]net.IP, error) {
	if host == "" {
		if !passive {
			return nil, fmt.Errorf("endpoint: host is required")
		}
		return []net.IP{net.IPv4zero}, nil
	}

	ips, err := net.LookupIP(host)
	if err != nil {
		return nil, fmt.Errorf("endpoint: resolve %q: %w", host, err)
	}

	var out []net.IP
	for _, ip := range ips {
		if ip.IsLoopback() {
			continue
		}
		out = append(out, ip)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("endpoint: %q resolved only to loopback addresses", host)
	}
	return out, nil
}

func sockaddrFor(ip net.IP, port int) (unix.Sockaddr, int, error) {
	if v4 := ip.To4(); v4 != nil {
		var addr [4]byte
		copy(addr[:], v4)
		return &unix.SockaddrInet4{Port: port, Addr: addr}, unix.AF_INET, nil
	}
	if v6 := ip.To16(); v6 != nil {
		var addr [16]byte
		copy(addr[:], v6)
		return &unix.SockaddrInet6{Port: port, Addr: addr}, unix.AF_INET6, nil
	}
	return nil, 0, fmt.Errorf("endpoint: unrecognized IP %v", ip)
}

// steppedBackOff replays a fixed delay schedule instead of the usual
// exponential curve, reproducing the reference connect loop's
// {0, 1, 3, 5} second sequence. Index 0 of the overall schedule is spent
// as the immediate first attempt backoff.Retry makes before ever calling
// NextBackOff, so schedule here holds only the delays between retries.
type steppedBackOff struct {
	schedule []time.Duration
	i        int
}

func (s *steppedBackOff) NextBackOff() time.Duration {
	if s.i >= len(s.schedule) {
		return backoff.Stop
	}
	d := s.schedule[s.i]
	s.i++
	return d
}

func (s *steppedBackOff) Reset() { s.i = 0 }

// tryConnect attempts a blocking connect to sockaddr, retrying on
// connection-refused per the fixed backoff schedule. Any other failure
// is terminal for this address.
func tryConnect(family int, sockaddr unix.Sockaddr) (int, error) {
	var fd int
	operation := func() error {
		var err error
		fd, err = unix.Socket(family, unix.SOCK_STREAM, 0)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("socket: %w", err))
		}
		if err := unix.Connect(fd, sockaddr); err != nil {
			unix.Close(fd)
			if err == unix.ECONNREFUSED {
				return err
			}
			return backoff.Permanent(err)
		}
		return nil
	}

	delays := constants.ConnectBackoff
	if len(delays) > 0 {
		delays = delays[1:]
	}
	if err := backoff.Retry(operation, &steppedBackOff{schedule: delays}); err != nil {
		return -1, err
	}
	return fd, nil
}

// socketBase holds the fields shared by SocketProducer and
// SocketConsumer: the resolved transfer socket and direction-independent
// teardown.
type socketBase struct {
	spec       string
	transferFD int
}

func (s *socketBase) Name() string { return s.spec }

func (s *socketBase) ReadinessFD() int { return s.transferFD }

// Destroy closes the transfer socket. Idempotent: a socket constructed
// but never connected/accepted has nothing to close.
func (s *socketBase) Destroy() error {
	if s.transferFD < 0 {
		return nil
	}
	fd := s.transferFD
	s.transferFD = -1
	return unix.Close(fd)
}

// SocketProducer is the connect-and-receive role ("R" in the reference).
type SocketProducer struct {
	socketBase
}

var _ interfaces.Producer = (*SocketProducer)(nil)

// NewSocketProducer constructs an unconnected socket producer for spec,
// an address of the form "[host][:port]".
func NewSocketProducer(spec string) *SocketProducer {
	return &SocketProducer{socketBase{spec: spec, transferFD: -1}}
}

// Init resolves spec, connects (with backoff) to the first address that
// accepts a connection, and sizes the receive buffer to blockSize.
func (s *SocketProducer) Init(blockSize int) error {
	host, portStr, err := splitHostPort(s.spec)
	if err != nil {
		return err
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return fmt.Errorf("endpoint: invalid port %q: %w", portStr, err)
	}

	ips, err := resolveAddrs(host, false)
	if err != nil {
		return err
	}

	var lastErr error
	for _, ip := range ips {
		sockaddr, family, err := sockaddrFor(ip, port)
		if err != nil {
			lastErr = err
			continue
		}
		fd, err := tryConnect(family, sockaddr)
		if err != nil {
			lastErr = err
			continue
		}
		s.transferFD = fd
		lastErr = nil
		break
	}
	if s.transferFD < 0 {
		return fmt.Errorf("endpoint: connect to %q: %w", s.spec, lastErr)
	}

	// Best-effort: a failure here does not affect correctness.
	_ = unix.SetsockoptInt(s.transferFD, unix.SOL_SOCKET, unix.SO_RCVBUFFORCE, blockSize)
	return nil
}

// DesiredEvent is Readable: the producer is driven by incoming data.
func (s *SocketProducer) DesiredEvent() interfaces.Event { return interfaces.Readable }

// Submit performs a nonblocking recv. EAGAIN/EWOULDBLOCK is pending, not
// an error; a zero-length read is orderly EOF.
func (s *SocketProducer) Submit(dst []byte, eof *bool) (int, error) {
	n, _, err := unix.Recvfrom(s.transferFD, dst, unix.MSG_DONTWAIT)
	if err != nil {
		if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
			*eof = false
			return 0, nil
		}
		return -1, fmt.Errorf("endpoint: socket %s recv: %w", s.spec, err)
	}
	if n == 0 {
		*eof = true
		return 0, nil
	}
	*eof = false
	return n, nil
}

// Complete performs a zero-consuming peek to detect EOF. It must not
// block: the reactor only calls Complete after a readiness event fires.
func (s *SocketProducer) Complete(eof *bool) (int, error) {
	var buf [1]byte
	n, _, err := unix.Recvfrom(s.transferFD, buf[:], unix.MSG_PEEK|unix.MSG_DONTWAIT)
	if err != nil {
		if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
			return -1, fmt.Errorf("endpoint: socket %s complete: readiness fired but recv would block", s.spec)
		}
		return -1, fmt.Errorf("endpoint: socket %s complete: %w", s.spec, err)
	}
	*eof = n == 0
	return 0, nil
}

// SocketConsumer is the listen-accept-send role ("S" in the reference).
type SocketConsumer struct {
	socketBase
	listenFD int
}

var _ interfaces.Consumer = (*SocketConsumer)(nil)

// NewSocketConsumer constructs an unbound socket consumer for spec, an
// address of the form "[host][:port]" (empty host binds the wildcard
// address).
func NewSocketConsumer(spec string) *SocketConsumer {
	return &SocketConsumer{socketBase: socketBase{spec: spec, transferFD: -1}, listenFD: -1}
}

// Init resolves spec, binds and listens, blocks for a single accept, and
// sizes the send buffer to blockSize.
func (s *SocketConsumer) Init(blockSize int) error {
	host, portStr, err := splitHostPort(s.spec)
	if err != nil {
		return err
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return fmt.Errorf("endpoint: invalid port %q: %w", portStr, err)
	}

	ips, err := resolveAddrs(host, true)
	if err != nil {
		return err
	}

	var lastErr error
	for _, ip := range ips {
		sockaddr, family, err := sockaddrFor(ip, port)
		if err != nil {
			lastErr = err
			continue
		}
		fd, err := unix.Socket(family, unix.SOCK_STREAM, 0)
		if err != nil {
			lastErr = err
			continue
		}
		if err := unix.SetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1); err != nil {
			unix.Close(fd)
			lastErr = err
			continue
		}
		if err := unix.Bind(fd, sockaddr); err != nil {
			unix.Close(fd)
			lastErr = err
			continue
		}
		s.listenFD = fd
		lastErr = nil
		break
	}
	if s.listenFD < 0 {
		return fmt.Errorf("endpoint: bind %q: %w", s.spec, lastErr)
	}

	if err := unix.Listen(s.listenFD, constants.ListenBacklog); err != nil {
		return fmt.Errorf("endpoint: listen %q: %w", s.spec, err)
	}

	fd, _, err := unix.Accept(s.listenFD)
	if err != nil {
		return fmt.Errorf("endpoint: accept %q: %w", s.spec, err)
	}
	s.transferFD = fd

	// Best-effort: a failure here does not affect correctness.
	_ = unix.SetsockoptInt(s.transferFD, unix.SOL_SOCKET, unix.SO_SNDBUFFORCE, blockSize)
	return nil
}

// DesiredEvent is Writable: the consumer is driven by a drainable send
// buffer.
func (s *SocketConsumer) DesiredEvent() interfaces.Event { return interfaces.Writable }

// Submit performs a nonblocking send. A nonblocking send on a partly-full
// socket buffer can accept fewer bytes than offered, so the actual sent
// count — not len(src) — must be reported back to the reactor, or a
// slow-consumer short write would silently skip the unsent tail.
func (s *SocketConsumer) Submit(src []byte) (int, error) {
	n, err := unix.SendmsgN(s.transferFD, src, nil, nil, unix.MSG_DONTWAIT)
	if err != nil {
		if err == unix.EAGAIN || err == unix.EWOULDBLOCK {
			return 0, nil
		}
		return -1, fmt.Errorf("endpoint: socket %s send: %w", s.spec, err)
	}
	return n, nil
}

// Complete is a no-op: all bytes are moved by Submit.
func (s *SocketConsumer) Complete() (int, error) { return 0, nil }

// Destroy closes the transfer socket and the listening socket, whichever
// of the two are open.
func (s *SocketConsumer) Destroy() error {
	warn := s.socketBase.Destroy()
	if s.listenFD >= 0 {
		fd := s.listenFD
		s.listenFD = -1
		if err := unix.Close(fd); err != nil && warn == nil {
			warn = err
		}
	}
	return warn
}
