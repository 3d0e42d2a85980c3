package modem_test

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"testing"

	"go.uber.org/mock/gomock"
	"i4.energy/across/espnet/at"
	"i4.energy/across/espnet/modem"
)

var (
	startExample = at.StartTCP("example.com", 80)
	startOther   = at.StartTCP("example.org", 8080)
)

func openScripted(t *testing.T) (*modem.Modem, *modem.ScriptTransport) {
	t.Helper()
	m, transport, _ := newScripted(t)
	transport.On(startExample+"\r\n", reply(startExample, "CONNECT", "", "OK"))
	if err := m.OpenTCP("example.com", 80); err != nil {
		t.Fatalf("unexpected error from OpenTCP(): %v", err)
	}
	return m, transport
}

func TestConfigureStationMode(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		m, transport, _ := newScripted(t)
		transport.On("AT+CWMODE=1\r\n", reply("AT+CWMODE=1", "OK"))

		if err := m.ConfigureStationMode(); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("Failure leaves state unchanged", func(t *testing.T) {
		m, transport := openScripted(t)
		transport.On("AT+CWMODE=1\r\n", reply("AT+CWMODE=1", "ERROR"))

		if err := m.ConfigureStationMode(); !errors.Is(err, modem.ErrModemError) {
			t.Errorf("expected ErrModemError, got: %v", err)
		}
		if m.State() != modem.StateOpen {
			t.Errorf("expected state Open, got %v", m.State())
		}
	})
}

func TestJoinNetwork(t *testing.T) {
	join := at.JoinAP("ssid1", "pass1")

	t.Run("Reference sequence", func(t *testing.T) {
		m, transport, _ := newScripted(t)
		transport.On(join+"\r\n", reply(join, "WIFI DISCONNECT", "WIFI CONNECTED", "WIFI GOT IP", "", "OK"))

		if err := m.JoinNetwork("ssid1", "pass1"); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	// The firmware answers the join command itself with WIFI DISCONNECT.
	// An immediate OK is therefore a deviation.
	t.Run("Immediate OK is rejected", func(t *testing.T) {
		m, transport, _ := newScripted(t)
		transport.On(join+"\r\n", reply(join, "OK", "WIFI CONNECTED", "WIFI GOT IP", "OK"))

		err := m.JoinNetwork("ssid1", "pass1")
		var mismatch *modem.MismatchError
		if !errors.As(err, &mismatch) {
			t.Fatalf("expected *MismatchError, got: %v", err)
		}
		if mismatch.Want != at.WifiDisconnect || mismatch.Got != at.OK {
			t.Errorf("unexpected mismatch details: %+v", mismatch)
		}
	})

	sequence := []string{"WIFI DISCONNECT", "WIFI CONNECTED", "WIFI GOT IP", "OK"}
	for i := range sequence {
		t.Run("Deviation at line "+sequence[i], func(t *testing.T) {
			ctrl := gomock.NewController(t)
			defer ctrl.Finish()

			mockTransport := modem.NewMockTransport(ctrl)
			mockDialer := modem.NewMockDialer(ctrl)

			b := NewMockSequence(mockTransport).Command(join)
			for _, line := range sequence[:i] {
				b.Line(line)
			}
			b.Line("FAIL")

			// No Read is scripted past the deviating line.
			gomock.InOrder(slices.Concat(
				[]any{
					mockDialer.EXPECT().Dial(gomock.Any()).Return(mockTransport, nil),
				},
				initMockCalls(mockTransport),
				b.Build(),
			)...)

			config, err := modem.NewConfigBuilder().
				WithDialer(mockDialer).
				Build()
			if err != nil {
				t.Fatalf("unexpected error from Build(): %v", err)
			}
			m, err := modem.New(context.Background(), config)
			if err != nil {
				t.Fatalf("failed to create modem: %v", err)
			}

			err = m.JoinNetwork("ssid1", "pass1")
			if !errors.Is(err, modem.ErrProtocolMismatch) {
				t.Errorf("expected ErrProtocolMismatch, got: %v", err)
			}
		})
	}

	t.Run("Credentials are escaped", func(t *testing.T) {
		m, transport, _ := newScripted(t)
		escaped := `AT+CWJAP="cafe\,2\"g\"","pa\\ss"`
		transport.On(escaped+"\r\n", reply(escaped, "WIFI DISCONNECT", "WIFI CONNECTED", "WIFI GOT IP", "OK"))

		if err := m.JoinNetwork(`cafe,2"g"`, `pa\ss`); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if w := writesAfterInit(transport); !slices.Equal(w, []string{escaped + "\r\n"}) {
			t.Errorf("unexpected writes %q", w)
		}
	})

	for _, tt := range []struct {
		name     string
		ssid     string
		password string
	}{
		{name: "CR in ssid", ssid: "home\rAT+RST", password: "pass1"},
		{name: "LF in ssid", ssid: "home\n", password: "pass1"},
		{name: "CRLF in password", ssid: "home", password: "x\r\nAT+CIPSTART=\"TCP\",\"evil\",1"},
	} {
		t.Run("Rejects "+tt.name, func(t *testing.T) {
			m, transport, _ := newScripted(t)

			if err := m.JoinNetwork(tt.ssid, tt.password); !errors.Is(err, modem.ErrInvalidArgument) {
				t.Errorf("expected ErrInvalidArgument from JoinNetwork, got: %v", err)
			}
			if err := m.Connect(tt.ssid, tt.password); !errors.Is(err, modem.ErrInvalidArgument) {
				t.Errorf("expected ErrInvalidArgument from Connect, got: %v", err)
			}
			if w := writesAfterInit(transport); len(w) != 0 {
				t.Errorf("nothing must be written, got %q", w)
			}
		})
	}

	t.Run("ERROR from the join command", func(t *testing.T) {
		m, transport, _ := newScripted(t)
		transport.On(join+"\r\n", reply(join, "ERROR"))

		if err := m.JoinNetwork("ssid1", "pass1"); !errors.Is(err, modem.ErrModemError) {
			t.Errorf("expected ErrModemError, got: %v", err)
		}
	})

	t.Run("Connect selects station mode first", func(t *testing.T) {
		m, transport, _ := newScripted(t)
		transport.
			On("AT+CWMODE=1\r\n", reply("AT+CWMODE=1", "OK")).
			On(join+"\r\n", reply(join, "WIFI DISCONNECT", "WIFI CONNECTED", "WIFI GOT IP", "OK"))

		if err := m.Connect("ssid1", "pass1"); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := []string{"AT+CWMODE=1\r\n", join + "\r\n"}
		if w := writesAfterInit(transport); !slices.Equal(w, want) {
			t.Errorf("expected writes %q, got %q", want, w)
		}
	})

	t.Run("Connect stops when station mode fails", func(t *testing.T) {
		m, transport, _ := newScripted(t)
		transport.On("AT+CWMODE=1\r\n", reply("AT+CWMODE=1", "ERROR"))

		if err := m.Connect("ssid1", "pass1"); !errors.Is(err, modem.ErrModemError) {
			t.Fatalf("expected ErrModemError, got: %v", err)
		}
		if w := writesAfterInit(transport); len(w) != 1 {
			t.Errorf("join must not be attempted, writes: %q", w)
		}
	})
}

func TestOpenTCP(t *testing.T) {
	t.Run("CONNECT then OK opens the session", func(t *testing.T) {
		m, transport, _ := newScripted(t)
		transport.On(startExample+"\r\n", reply(startExample, "CONNECT", "OK"))

		if m.State() != modem.StateClosed {
			t.Fatalf("expected state Closed, got %v", m.State())
		}
		if err := m.OpenTCP("example.com", 80); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if m.State() != modem.StateOpen {
			t.Errorf("expected state Open, got %v", m.State())
		}
	})

	t.Run("ERROR leaves the session closed", func(t *testing.T) {
		m, transport, _ := newScripted(t)
		transport.On(startExample+"\r\n", reply(startExample, "ERROR", "CLOSED"))

		if err := m.OpenTCP("example.com", 80); !errors.Is(err, modem.ErrModemError) {
			t.Errorf("expected ErrModemError, got: %v", err)
		}
		if m.State() != modem.StateClosed {
			t.Errorf("expected state Closed, got %v", m.State())
		}
	})

	t.Run("CONNECT without OK leaves the session closed", func(t *testing.T) {
		m, transport, _ := newScripted(t)
		transport.On(startExample+"\r\n", reply(startExample, "CONNECT", "CLOSED"))

		if err := m.OpenTCP("example.com", 80); !errors.Is(err, modem.ErrProtocolMismatch) {
			t.Errorf("expected ErrProtocolMismatch, got: %v", err)
		}
		if m.State() != modem.StateClosed {
			t.Errorf("expected state Closed, got %v", m.State())
		}
	})

	t.Run("Timeout leaves the session closed", func(t *testing.T) {
		m, transport, _ := newScripted(t)
		transport.On(startExample+"\r\n", reply(startExample))

		if err := m.OpenTCP("example.com", 80); !errors.Is(err, modem.ErrTimeout) {
			t.Errorf("expected ErrTimeout, got: %v", err)
		}
		if m.State() != modem.StateClosed {
			t.Errorf("expected state Closed, got %v", m.State())
		}
	})

	t.Run("Reopening closes the active session first", func(t *testing.T) {
		m, transport := openScripted(t)
		transport.
			On("AT+CIPCLOSE\r\n", reply("AT+CIPCLOSE", "CLOSED", "OK")).
			On(startOther+"\r\n", reply(startOther, "CONNECT", "OK"))

		if err := m.OpenTCP("example.org", 8080); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		want := []string{startExample + "\r\n", "AT+CIPCLOSE\r\n", startOther + "\r\n"}
		if w := writesAfterInit(transport); !slices.Equal(w, want) {
			t.Errorf("expected writes %q, got %q", want, w)
		}
		if m.State() != modem.StateOpen {
			t.Errorf("expected state Open, got %v", m.State())
		}
	})

	t.Run("Failed implicit close does not prevent the new open", func(t *testing.T) {
		m, transport := openScripted(t)
		transport.
			On("AT+CIPCLOSE\r\n", reply("AT+CIPCLOSE", "ERROR")).
			On(startOther+"\r\n", reply(startOther, "CONNECT", "OK"))

		if err := m.OpenTCP("example.org", 8080); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if m.State() != modem.StateOpen {
			t.Errorf("expected state Open, got %v", m.State())
		}
	})
}

func TestOpenTCPRejectsUnsafeHosts(t *testing.T) {
	hosts := []string{
		"x\",1\r\nAT+CWJAP=\"evil\",\"pw\"\r\nAT+CIPSTART=\"TCP\",\"example.com",
		"example.com\r\nAT+RST",
		"example.com\n",
		`example".com`,
	}

	for _, host := range hosts {
		t.Run(fmt.Sprintf("%q", host), func(t *testing.T) {
			m, transport := openScripted(t)

			if err := m.OpenTCP(host, 80); !errors.Is(err, modem.ErrInvalidArgument) {
				t.Fatalf("expected ErrInvalidArgument, got: %v", err)
			}
			// the active session is left alone
			if w := writesAfterInit(transport); !slices.Equal(w, []string{startExample + "\r\n"}) {
				t.Errorf("unexpected writes %q", w)
			}
			if m.State() != modem.StateOpen {
				t.Errorf("expected state Open, got %v", m.State())
			}
		})
	}
}

func TestCloseTCP(t *testing.T) {
	t.Run("No-op without a session", func(t *testing.T) {
		m, transport, _ := newScripted(t)

		if err := m.CloseTCP(); !errors.Is(err, modem.ErrNotOpen) {
			t.Errorf("expected ErrNotOpen, got: %v", err)
		}
		if w := writesAfterInit(transport); len(w) != 0 {
			t.Errorf("expected no writes, got %q", w)
		}
	})

	t.Run("CLOSED then OK closes the session", func(t *testing.T) {
		m, transport := openScripted(t)
		transport.On("AT+CIPCLOSE\r\n", reply("AT+CIPCLOSE", "CLOSED", "", "OK"))

		if err := m.CloseTCP(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if m.State() != modem.StateClosed {
			t.Errorf("expected state Closed, got %v", m.State())
		}
		if err := m.CloseTCP(); !errors.Is(err, modem.ErrNotOpen) {
			t.Errorf("expected ErrNotOpen on second close, got: %v", err)
		}
	})

	t.Run("Unconfirmed close keeps the session open", func(t *testing.T) {
		m, transport := openScripted(t)
		transport.On("AT+CIPCLOSE\r\n", reply("AT+CIPCLOSE", "CLOSED", "ERROR"))

		if err := m.CloseTCP(); !errors.Is(err, modem.ErrModemError) {
			t.Errorf("expected ErrModemError, got: %v", err)
		}
		if m.State() != modem.StateOpen {
			t.Errorf("expected state Open, got %v", m.State())
		}
	})
}

func TestSendData(t *testing.T) {
	payload := []byte("hello")
	send := at.Send(len(payload))

	t.Run("OK then SEND OK", func(t *testing.T) {
		m, transport := openScripted(t)
		transport.
			On(send+"\r\n", reply(send, "OK")+"> ").
			On(string(payload), "\r\nRecv 5 bytes\r\n\r\nSEND OK\r\n")

		if err := m.SendData(payload); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		w := writesAfterInit(transport)
		if last := w[len(w)-1]; last != string(payload) {
			t.Errorf("expected raw payload write, got %q", last)
		}
	})

	t.Run("SEND FAIL", func(t *testing.T) {
		m, transport := openScripted(t)
		transport.
			On(send+"\r\n", reply(send, "OK")).
			On(string(payload), "Recv 5 bytes\r\nSEND FAIL\r\n")

		err := m.SendData(payload)
		if !errors.Is(err, modem.ErrSendFailed) {
			t.Fatalf("expected ErrSendFailed, got: %v", err)
		}
		if !strings.HasPrefix(err.Error(), "send data: ") {
			t.Errorf("expected the error to name the operation, got: %v", err)
		}
	})

	t.Run("ERROR after payload", func(t *testing.T) {
		m, transport := openScripted(t)
		transport.
			On(send+"\r\n", reply(send, "OK")).
			On(string(payload), "ERROR\r\n")

		if err := m.SendData(payload); !errors.Is(err, modem.ErrModemError) {
			t.Errorf("expected ErrModemError, got: %v", err)
		}
	})

	t.Run("Rejected announce does not write the payload", func(t *testing.T) {
		m, transport := openScripted(t)
		transport.On(send+"\r\n", reply(send, "ERROR"))

		if err := m.SendData(payload); !errors.Is(err, modem.ErrModemError) {
			t.Errorf("expected ErrModemError, got: %v", err)
		}
		for _, w := range transport.Writes() {
			if w == string(payload) {
				t.Errorf("payload must not be written")
			}
		}
	})

	t.Run("No result times out", func(t *testing.T) {
		m, transport := openScripted(t)
		transport.On(send+"\r\n", reply(send, "OK"))

		if err := m.SendData(payload); !errors.Is(err, modem.ErrTimeout) {
			t.Errorf("expected ErrTimeout, got: %v", err)
		}
	})

	t.Run("ErrNotOpen without a session", func(t *testing.T) {
		m, transport, _ := newScripted(t)

		if err := m.SendData(payload); !errors.Is(err, modem.ErrNotOpen) {
			t.Errorf("expected ErrNotOpen, got: %v", err)
		}
		if w := writesAfterInit(transport); len(w) != 0 {
			t.Errorf("expected no writes, got %q", w)
		}
	})
}

func TestStateString(t *testing.T) {
	tests := map[modem.State]string{
		modem.StateClosed:  "Closed",
		modem.StateOpening: "Opening",
		modem.StateOpen:    "Open",
		modem.StateClosing: "Closing",
		modem.State(42):    "Unknown",
	}
	for state, want := range tests {
		if got := state.String(); got != want {
			t.Errorf("State(%d).String() = %q, want %q", int(state), got, want)
		}
	}
}
