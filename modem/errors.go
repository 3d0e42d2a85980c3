package modem

import (
	"errors"
	"fmt"

	"i4.energy/across/espnet/at"
)

var (
	// ErrNoDialer is returned when a Modem is constructed without a Dialer.
	//
	// This indicates a configuration error. A Dialer is required in order to
	// establish a connection to the modem.
	ErrNoDialer = errors.New("no dialer configured")

	// ErrNotInitialized is returned when an operation is attempted on a Modem
	// that has not been successfully initialized.
	ErrNotInitialized = errors.New("modem not initialized")

	// ErrAlreadyClosed is returned when an operation or Close is attempted on
	// a Modem that has already been closed.
	ErrAlreadyClosed = errors.New("modem already closed")

	// ErrTimeout is returned when no terminated line (or no data) arrived
	// before the read deadline. Any partial line read so far is discarded.
	ErrTimeout = errors.New("transport timeout")

	// ErrTransport wraps a fault reported by the underlying Transport.
	//
	// Externally it is treated like ErrTimeout (the read produced nothing);
	// it exists so the cause can be told apart in logs and tests.
	ErrTransport = errors.New("transport fault")

	// ErrProtocolMismatch is returned when a protocol step observed a token
	// other than the one it requires. Use errors.As with *MismatchError to
	// get the step and tokens.
	ErrProtocolMismatch = errors.New("protocol mismatch")

	// ErrNotOpen is returned when a session operation is attempted while no
	// TCP connection is open.
	ErrNotOpen = errors.New("connection not open")

	// ErrModemError is returned when the modem answered with an explicit ERROR.
	ErrModemError = errors.New("modem error")

	// ErrSendFailed is returned when the modem reported SEND FAIL for a payload.
	ErrSendFailed = errors.New("send failed")

	// ErrInvalidArgument is returned when a host, path or credential
	// contains characters that would break the command line or the HTTP
	// request. Nothing is written to the transport in that case.
	ErrInvalidArgument = errors.New("invalid argument")

	// ErrDecode is returned when a response body could not be decoded as JSON.
	ErrDecode = errors.New("decode response body")
)

// MismatchError records which step of a multi-line sequence saw an
// unexpected token.
type MismatchError struct {
	Step string
	Want at.Token
	Got  at.Token
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("%s: expected %q, got %q", e.Step, e.Want, e.Got)
}

func (e *MismatchError) Unwrap() error {
	return ErrProtocolMismatch
}
