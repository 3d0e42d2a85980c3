package modem

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"i4.energy/across/espnet/at"
)

// Modem drives an ESP WiFi co-processor through its AT command interface
// and models the single TCP session the firmware offers in its default
// single-connection mode.
//
// A Modem is not safe for concurrent use. Every operation reads the
// transport directly until its own deadline, so exactly one command may be
// in flight at a time and callers must serialize all calls.
type Modem struct {
	// transport provides the physical connection to the modem (serial, websocket, etc.)
	transport Transport
	// config contains the modem configuration settings
	config Config
	// clock is the time source read deadlines are computed from
	clock Clock
	logger *slog.Logger
	// closed indicates if the modem has been shut down
	closed bool
	// state is the lifecycle of the one TCP session
	state State

	// pending holds bytes read from the transport but not yet consumed
	pending []byte
	buf     []byte
}

// New creates a new Modem instance with the given configuration.
// It establishes the transport connection and checks the modem answers
// a bare AT.
//
// Returns an error if the transport connection or the check fails.
func New(ctx context.Context, config Config) (*Modem, error) {
	if err := config.validate(); err != nil {
		return nil, err
	}
	config.setDefaults()

	transport, err := config.dialer.Dial(ctx)
	if err != nil {
		return nil, err
	}

	m := &Modem{
		transport: transport,
		config:    config,
		clock:     config.clock,
		logger:    config.logger,
		state:     StateClosed,
		buf:       make([]byte, config.readBufferSize),
	}

	if err := m.CheckModem(); err != nil {
		if m.transport != nil {
			transport.Close()
		}
		return nil, fmt.Errorf("initialize modem: %w", err)
	}

	return m, nil
}

// Close releases the transport. It does not send AT+CIPCLOSE; call
// CloseTCP first to end an open session cleanly. After Close the modem
// cannot be reused.
func (m *Modem) Close() error {
	if m.closed {
		return ErrAlreadyClosed
	}

	m.closed = true
	m.state = StateClosed

	if m.transport != nil {
		return m.transport.Close()
	}

	return nil
}

// State reports the current TCP session state.
func (m *Modem) State() State {
	return m.state
}

func (m *Modem) ready() error {
	if m.closed {
		return ErrAlreadyClosed
	}
	if m.transport == nil {
		return ErrNotInitialized
	}
	return nil
}

// SendCommand writes cmd terminated by CRLF, consumes the echoed command
// line without validating it, and classifies the next line.
//
// An error is returned when the result line could not be read in time or
// the transport failed. The caller decides whether the token is the one it
// needs.
func (m *Modem) SendCommand(cmd string, timeout time.Duration) (at.Token, error) {
	if err := m.ready(); err != nil {
		return "", err
	}

	m.logger.Debug("command", "cmd", at.Redact(cmd))
	if err := m.write([]byte(cmd + at.CRLF)); err != nil {
		return "", fmt.Errorf("write command %q: %w", at.Redact(cmd), err)
	}

	// echo
	if _, err := m.readLine(true, timeout); err != nil {
		m.logger.Debug("echo not received", "cmd", at.Redact(cmd), "error", err)
	}

	line, err := m.readLine(true, timeout)
	if err != nil {
		return "", fmt.Errorf("read result of %q: %w", at.Redact(cmd), err)
	}
	token := at.Classify(line)
	m.logger.Debug("result", "cmd", at.Redact(cmd), "token", token, "type", token.Type())
	return token, nil
}

// CheckModem tests communication with the modem: AT must answer OK.
func (m *Modem) CheckModem() error {
	token, err := m.SendCommand(at.CmdAt, m.config.atTimeout)
	if err != nil {
		return fmt.Errorf("modem not responding: %w", err)
	}
	return expect("check modem", token, at.OK)
}

// expect compares an observed token with the one a protocol step needs.
// An explicit ERROR is reported as ErrModemError, anything else as a
// *MismatchError.
func expect(step string, got, want at.Token) error {
	if got == want {
		return nil
	}
	if got == at.ERROR {
		return fmt.Errorf("%s: %w", step, ErrModemError)
	}
	return &MismatchError{Step: step, Want: want, Got: got}
}

// expectLine reads one non-empty line and checks it against want.
func (m *Modem) expectLine(step string, want at.Token, timeout time.Duration) error {
	line, err := m.readLine(true, timeout)
	if err != nil {
		return fmt.Errorf("%s: %w", step, err)
	}
	if err := expect(step, at.Classify(line), want); err != nil {
		m.logger.Debug("unexpected line", "step", step, "line", line)
		return err
	}
	return nil
}

func (m *Modem) write(p []byte) error {
	if _, err := m.transport.Write(p); err != nil {
		return fmt.Errorf("%w: %w", ErrTransport, err)
	}
	return nil
}
