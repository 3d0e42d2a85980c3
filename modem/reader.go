package modem

import (
	"fmt"
	"time"
)

// readLine returns the next LF-terminated line with CR bytes removed.
//
// When ignoreEmpty is set, lines without any byte before the LF are
// skipped; otherwise an empty line is returned as-is, which is how blank
// separator lines are detected. The deadline is fixed on entry. Once it
// has passed the call returns ErrTimeout and whatever partial line was
// accumulated is dropped so the next call starts on a fresh line.
func (m *Modem) readLine(ignoreEmpty bool, timeout time.Duration) (string, error) {
	deadline := m.clock.Now().Add(timeout)
	var line []byte

	for !m.clock.Now().After(deadline) {
		if len(m.pending) == 0 {
			if err := m.fill(); err != nil {
				m.logger.Debug("read fault", "error", err, "partial", string(line))
				return "", err
			}
			continue
		}

		b := m.pending[0]
		m.pending = m.pending[1:]

		switch b {
		case '\r':
		case '\n':
			if len(line) > 0 || !ignoreEmpty {
				m.logger.Debug("line", "text", string(line))
				return string(line), nil
			}
		default:
			line = append(line, b)
		}
	}

	if len(line) > 0 {
		m.logger.Debug("discarding partial line", "partial", string(line))
	}
	return "", ErrTimeout
}

// fill performs one transport read into the pending buffer. A read that
// returns no data and no error means nothing arrived within the transport's
// own poll interval.
func (m *Modem) fill() error {
	n, err := m.transport.Read(m.buf)
	if n > 0 {
		m.pending = append(m.pending, m.buf[:n]...)
	}
	if err != nil {
		return fmt.Errorf("%w: %w", ErrTransport, err)
	}
	return nil
}

// Receive returns up to n raw bytes of session data using the default
// command timeout. See ReceiveTimeout.
func (m *Modem) Receive(n int) ([]byte, error) {
	return m.ReceiveTimeout(n, m.config.atTimeout)
}

// ReceiveTimeout returns up to n raw bytes of session data. Bytes already
// buffered by the line reader are returned first; otherwise the transport
// is polled until some data arrives or timeout elapses, in which case an
// empty slice is returned.
//
// When no session is open the result is empty and the error is nil.
func (m *Modem) ReceiveTimeout(n int, timeout time.Duration) ([]byte, error) {
	if err := m.ready(); err != nil {
		return nil, err
	}
	if m.state != StateOpen || n <= 0 {
		return []byte{}, nil
	}

	deadline := m.clock.Now().Add(timeout)
	for len(m.pending) == 0 && !m.clock.Now().After(deadline) {
		if err := m.fill(); err != nil {
			return []byte{}, err
		}
	}

	k := min(n, len(m.pending))
	out := make([]byte, k)
	copy(out, m.pending)
	m.pending = m.pending[k:]
	return out, nil
}
