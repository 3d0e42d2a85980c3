package at

const (
	// Terminal Control
	CRLF = "\r\n"

	// Commands
	CmdAt          = "AT"
	CmdStationMode = "AT+CWMODE=1"
	CmdCloseTCP    = "AT+CIPCLOSE"
)

// Token is a classified response line. Recognized result codes are the
// constants below; any other line is carried verbatim as an unrecognized
// token (see Known).
type Token string

// Response Codes
const (
	OK       Token = "OK"
	ERROR    Token = "ERROR"
	Connect  Token = "CONNECT"
	Closed   Token = "CLOSED"
	SendOK   Token = "SEND OK"
	SendFail Token = "SEND FAIL"

	// Station status
	WifiConnected  Token = "WIFI CONNECTED"
	WifiGotIP      Token = "WIFI GOT IP"
	WifiDisconnect Token = "WIFI DISCONNECT"
)

type ResponseType int

const (
	TypeData   ResponseType = iota // Anything not recognized (echo, +IPD, Recv N bytes)
	TypeFinal                      // OK, ERROR, SEND OK, ...
	TypeStatus                     // WIFI ... station notifications
)

func (r ResponseType) String() string {
	switch r {
	case TypeFinal:
		return "final"
	case TypeStatus:
		return "status"
	default:
		return "data"
	}
}
