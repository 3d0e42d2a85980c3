package at

import (
	"fmt"
	"strings"
)

// Classify turns a response line into a Token. The match is exact and
// case-sensitive; lines that are not one of the recognized result codes
// come back unchanged as an unrecognized token.
func Classify(line string) Token {
	return Token(line)
}

// Known reports whether t is one of the recognized result codes.
func (t Token) Known() bool {
	return t.Type() != TypeData
}

// Type identifies the nature of the modem output
func (t Token) Type() ResponseType {
	switch t {
	case OK, ERROR, Connect, Closed, SendOK, SendFail:
		return TypeFinal
	case WifiConnected, WifiGotIP, WifiDisconnect:
		return TypeStatus
	default:
		return TypeData
	}
}

// Raw returns the line text the token was classified from.
func (t Token) Raw() string {
	return string(t)
}

var quoteEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`, `,`, `\,`)

// Escape backslash-escapes the characters the firmware treats as syntax
// inside a quoted parameter.
func Escape(s string) string {
	return quoteEscaper.Replace(s)
}

// JoinAP builds the station join command. The SSID and password are
// escaped; line breaks cannot be escaped and must be rejected by the
// caller.
func JoinAP(ssid, password string) string {
	return fmt.Sprintf(`AT+CWJAP="%s","%s"`, Escape(ssid), Escape(password))
}

// StartTCP builds the command opening the single TCP session.
func StartTCP(host string, port int) string {
	return fmt.Sprintf(`AT+CIPSTART="TCP","%s",%d`, host, port)
}

// Send builds the size-prefixed send command for a payload of n bytes.
func Send(n int) string {
	return fmt.Sprintf("AT+CIPSEND=%d", n)
}

// Redact masks the credentials of a join command so it can be logged.
// The SSID of an escaped join command never contains an unescaped `",`
// so the first one separates the two parameters.
// Other commands are returned unchanged.
func Redact(cmd string) string {
	if ssid, ok := strings.CutPrefix(cmd, "AT+CWJAP="); ok {
		if i := strings.Index(ssid, `",`); i >= 0 {
			return "AT+CWJAP=" + ssid[:i+2] + `"***"`
		}
		return "AT+CWJAP=***"
	}
	return cmd
}
