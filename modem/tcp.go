package modem

import (
	"fmt"
	"strings"

	"i4.energy/across/espnet/at"
)

// State represents the lifecycle of the single TCP session.
type State int

const (
	// StateClosed is the initial state: no session exists.
	StateClosed State = iota
	// StateOpening is held while AT+CIPSTART is in flight.
	StateOpening
	// StateOpen means the last open sequence saw both CONNECT and OK.
	StateOpen
	// StateClosing is held while AT+CIPCLOSE is in flight.
	StateClosing
)

// String returns a human-readable string representation of the state.
func (s State) String() string {
	switch s {
	case StateClosed:
		return "Closed"
	case StateOpening:
		return "Opening"
	case StateOpen:
		return "Open"
	case StateClosing:
		return "Closing"
	default:
		return "Unknown"
	}
}

// ConfigureStationMode puts the WiFi interface in station (client) mode.
// Failure leaves the session state untouched.
func (m *Modem) ConfigureStationMode() error {
	token, err := m.SendCommand(at.CmdStationMode, m.config.atTimeout)
	if err != nil {
		return fmt.Errorf("configure station mode: %w", err)
	}
	return expect("configure station mode", token, at.OK)
}

// JoinNetwork joins the access point ssid.
//
// The firmware this driver targets answers the join command itself with
// WIFI DISCONNECT (it drops the previous association first), then reports
// WIFI CONNECTED, WIFI GOT IP and a final OK on separate lines. Any other
// line at any step aborts the join immediately without further reads.
//
// Quotes, commas and backslashes in the credentials are escaped; line
// breaks are rejected with ErrInvalidArgument.
func (m *Modem) JoinNetwork(ssid, password string) error {
	if err := checkCredentials(ssid, password); err != nil {
		return err
	}
	token, err := m.SendCommand(at.JoinAP(ssid, password), m.config.longTimeout)
	if err != nil {
		return fmt.Errorf("join %q: %w", ssid, err)
	}
	if err := expect("join: command result", token, at.WifiDisconnect); err != nil {
		return err
	}
	if err := m.expectLine("join: associate", at.WifiConnected, m.config.longTimeout); err != nil {
		return err
	}
	if err := m.expectLine("join: obtain IP", at.WifiGotIP, m.config.longTimeout); err != nil {
		return err
	}
	if err := m.expectLine("join: final result", at.OK, m.config.atTimeout); err != nil {
		return err
	}
	m.logger.Info("joined network", "ssid", ssid)
	return nil
}

const (
	lineBreaks    = "\r\n"
	hostForbidden = "\r\n\""
)

// checkArg rejects a value that contains any of the forbidden bytes.
// The password is never echoed into the error.
func checkArg(name, value, forbidden string) error {
	if i := strings.IndexAny(value, forbidden); i >= 0 {
		return fmt.Errorf("%w: %s contains %q at offset %d", ErrInvalidArgument, name, value[i], i)
	}
	return nil
}

func checkCredentials(ssid, password string) error {
	if err := checkArg("ssid", ssid, lineBreaks); err != nil {
		return err
	}
	return checkArg("password", password, lineBreaks)
}

// Connect selects station mode and joins ssid.
func (m *Modem) Connect(ssid, password string) error {
	if err := checkCredentials(ssid, password); err != nil {
		return err
	}
	if err := m.ConfigureStationMode(); err != nil {
		return err
	}
	return m.JoinNetwork(ssid, password)
}

// OpenTCP opens the TCP session to host:port.
//
// The firmware supports a single session, so when one is already open it
// is closed first. That implicit close is not an error and its outcome
// does not prevent the new attempt. On success the state is StateOpen; on
// any failure it is StateClosed.
//
// A host containing a line break or a double quote is rejected with
// ErrInvalidArgument before anything is written, and the state is left
// as it was.
func (m *Modem) OpenTCP(host string, port int) error {
	if err := checkArg("host", host, hostForbidden); err != nil {
		return err
	}

	if m.state == StateOpen {
		m.logger.Info("closing active session before opening a new one", "host", host, "port", port)
		if err := m.CloseTCP(); err != nil {
			m.logger.Warn("implicit close failed", "error", err)
		}
	}

	m.state = StateOpening
	if err := m.startTCP(host, port); err != nil {
		m.state = StateClosed
		m.logger.Debug("open TCP connection failed", "host", host, "port", port, "error", err)
		return fmt.Errorf("open TCP connection to %s:%d: %w", host, port, err)
	}
	m.state = StateOpen
	m.logger.Debug("TCP connection open", "host", host, "port", port)
	return nil
}

func (m *Modem) startTCP(host string, port int) error {
	token, err := m.SendCommand(at.StartTCP(host, port), m.config.longTimeout)
	if err != nil {
		return err
	}
	if err := expect("start TCP", token, at.Connect); err != nil {
		return err
	}
	return m.expectLine("start TCP: final result", at.OK, m.config.atTimeout)
}

// CloseTCP closes the open session. Without an open session it does
// nothing and returns ErrNotOpen. If the modem does not confirm with
// CLOSED and OK, the session is still considered open.
func (m *Modem) CloseTCP() error {
	if m.state != StateOpen {
		return ErrNotOpen
	}

	m.state = StateClosing
	if err := m.stopTCP(); err != nil {
		m.state = StateOpen
		return fmt.Errorf("close TCP connection: %w", err)
	}
	m.state = StateClosed
	m.logger.Debug("TCP connection closed")
	return nil
}

func (m *Modem) stopTCP() error {
	token, err := m.SendCommand(at.CmdCloseTCP, m.config.longTimeout)
	if err != nil {
		return err
	}
	if err := expect("close TCP", token, at.Closed); err != nil {
		return err
	}
	return m.expectLine("close TCP: final result", at.OK, m.config.atTimeout)
}

// SendData sends p over the open session.
//
// The payload is announced with its length, written raw once the modem
// accepts, and then result lines are read until SEND OK, SEND FAIL or
// ERROR. Intermediate lines such as the prompt or "Recv N bytes" are
// skipped.
func (m *Modem) SendData(p []byte) error {
	if err := m.ready(); err != nil {
		return err
	}
	if m.state != StateOpen {
		return ErrNotOpen
	}

	token, err := m.SendCommand(at.Send(len(p)), m.config.longTimeout)
	if err != nil {
		return fmt.Errorf("send data: %w", err)
	}
	if err := expect("send data: announce", token, at.OK); err != nil {
		return err
	}

	if err := m.write(p); err != nil {
		return fmt.Errorf("send data: write payload: %w", err)
	}

	for {
		line, err := m.readLine(true, m.config.longTimeout)
		if err != nil {
			return fmt.Errorf("send data: await result: %w", err)
		}
		switch at.Classify(line) {
		case at.SendOK:
			return nil
		case at.SendFail:
			return fmt.Errorf("send data: %w", ErrSendFailed)
		case at.ERROR:
			return fmt.Errorf("send data: %w", ErrModemError)
		}
	}
}
