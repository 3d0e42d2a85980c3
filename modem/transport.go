package modem

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.bug.st/serial"
)

//go:generate go tool mockgen -source=transport.go -destination=mock_transport.go -package=modem

// Transport represents an established, bidirectional byte stream to an ESP
// WiFi co-processor.
//
// A Transport is assumed to be already connected and ready for use. Read is
// used as a poll: an implementation returns (0, nil) when no byte arrived
// within its own short read timeout instead of blocking indefinitely. The
// driver bounds every wait with its own deadline on top of that. Typical
// implementations include serial ports, serial-over-websocket bridges, or
// in-memory fakes used for testing.
type Transport interface {
	io.ReadWriteCloser
}

// Dialer opens a Transport to the co-processor.
//
// Dialer abstracts how the connection is created (for example, via a serial
// port, a websocket bridge, or test double) and is intended to be used during
// modem construction only. Once a Transport is obtained, the Dialer is no
// longer needed.
type Dialer interface {
	// Dial is responsible for creating and returning a connected Transport. It may
	// perform blocking operations and should respect cancellation and deadlines
	// provided by the context. Dial returns an error if the transport cannot be
	// established.
	Dial(ctx context.Context) (Transport, error)
}

const (
	// DefaultBaudRate is the UART speed of stock ESP AT firmware.
	DefaultBaudRate = 115200
	// DefaultPollInterval bounds a single transport Read.
	DefaultPollInterval = 10 * time.Millisecond
)

// SerialDialer opens the co-processor over a serial port using go.bug.st/serial.
type SerialDialer struct {
	// PortName is the device path, e.g. /dev/ttyUSB0 or COM3.
	PortName string
	// BaudRate is used when Mode is nil. Zero means DefaultBaudRate.
	BaudRate int
	// Mode overrides the whole line configuration. Nil means 8N1 at BaudRate.
	Mode *serial.Mode
	// ReadTimeout is the port read timeout that turns Read into a poll.
	// Zero means DefaultPollInterval.
	ReadTimeout time.Duration
}

// Dial opens and configures the serial port. Pending input left over from
// a previous session is discarded.
func (d SerialDialer) Dial(ctx context.Context) (Transport, error) {
	if ctx == nil {
		return nil, errors.New("modem: context is nil")
	}
	if d.PortName == "" {
		return nil, errors.New("modem: serial port name is required")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	mode := d.Mode
	if mode == nil {
		baud := d.BaudRate
		if baud <= 0 {
			baud = DefaultBaudRate
		}
		mode = &serial.Mode{
			BaudRate: baud,
			DataBits: 8,
			Parity:   serial.NoParity,
			StopBits: serial.OneStopBit,
		}
	}

	port, err := serial.Open(d.PortName, mode)
	if err != nil {
		return nil, fmt.Errorf("open serial port %s: %w", d.PortName, err)
	}

	readTimeout := d.ReadTimeout
	if readTimeout <= 0 {
		readTimeout = DefaultPollInterval
	}
	if err := port.SetReadTimeout(readTimeout); err != nil {
		port.Close()
		return nil, fmt.Errorf("set read timeout on %s: %w", d.PortName, err)
	}
	if err := port.ResetInputBuffer(); err != nil {
		port.Close()
		return nil, fmt.Errorf("reset input buffer on %s: %w", d.PortName, err)
	}

	return port, nil
}
