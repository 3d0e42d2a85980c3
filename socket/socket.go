// Package socket adapts the AT driver to the small BSD-socket-like surface
// existing callers were written against: socket, getaddrinfo, settimeout,
// connect, send, recv and close. It holds no protocol logic; failures are
// reported as false, 0 or empty results and never as errors.
package socket

import (
	"time"
)

//go:generate go tool mockgen -source=socket.go -destination=mock_driver.go -package=socket -exclude_interfaces=Conn

// DefaultTimeout is the receive timeout until SetTimeout is called.
const DefaultTimeout = 10 * time.Second

// Driver is the capability set the facade needs from the AT driver:
// open, send, receive and close of the single TCP session. *modem.Modem
// implements it.
type Driver interface {
	OpenTCP(host string, port int) error
	SendData(p []byte) error
	ReceiveTimeout(n int, timeout time.Duration) ([]byte, error)
	CloseTCP() error
}

// Conn is the socket-shaped surface callers use: open, send, receive and
// close, with the result conventions of the BSD calls they replace.
type Conn interface {
	Connect(host string, port int) bool
	Send(p []byte) int
	Recv(n int) []byte
	Close()
}

var _ Conn = (*ESPSocket)(nil)

// Addr is a host/port pair.
type Addr struct {
	Host string
	Port int
}

// AddrInfo mirrors one getaddrinfo entry. Family, Type, Proto and Flags are
// always zero; only Addr is meaningful.
type AddrInfo struct {
	Family int
	Type   int
	Proto  int
	Flags  int
	Addr   Addr
}

// ESPSocket is a socket-shaped view of the driver's single TCP session.
type ESPSocket struct {
	driver    Driver
	timeout   time.Duration
	connected bool
}

// New wraps d.
func New(d Driver) *ESPSocket {
	return &ESPSocket{driver: d, timeout: DefaultTimeout}
}

// Socket returns s itself; there is only one session to hand out.
func (s *ESPSocket) Socket() *ESPSocket {
	return s
}

// GetAddrInfo performs no resolution. Name lookup is done by the module
// when the connection is opened.
func (s *ESPSocket) GetAddrInfo(host string, port int) []AddrInfo {
	return []AddrInfo{{Addr: Addr{Host: host, Port: port}}}
}

// SetTimeout sets the timeout used by Recv.
func (s *ESPSocket) SetTimeout(d time.Duration) {
	s.timeout = d
}

// Timeout returns the timeout used by Recv.
func (s *ESPSocket) Timeout() time.Duration {
	return s.timeout
}

// Connect opens the session and reports success. An already open session
// is replaced.
func (s *ESPSocket) Connect(host string, port int) bool {
	s.connected = s.driver.OpenTCP(host, port) == nil
	return s.connected
}

// Connected reports whether the last Connect succeeded and Close has not
// been called since.
func (s *ESPSocket) Connected() bool {
	return s.connected
}

// Send returns len(p) when the payload was accepted and 0 otherwise.
func (s *ESPSocket) Send(p []byte) int {
	if !s.connected {
		return 0
	}
	if err := s.driver.SendData(p); err != nil {
		return 0
	}
	return len(p)
}

// Recv returns up to n bytes, or an empty slice when not connected, when
// nothing arrived within the timeout, or on failure.
func (s *ESPSocket) Recv(n int) []byte {
	if !s.connected {
		return []byte{}
	}
	data, err := s.driver.ReceiveTimeout(n, s.timeout)
	if err != nil {
		return []byte{}
	}
	return data
}

// Close closes the session and marks the socket disconnected whatever the
// driver reports.
func (s *ESPSocket) Close() {
	_ = s.driver.CloseTCP()
	s.connected = false
}
