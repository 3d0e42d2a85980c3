package modem

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Response is the outcome of an HTTP request made through the modem.
type Response struct {
	// Header holds the header lines joined by single spaces. It is only set
	// when the request asked for it with WithHeader.
	Header string `json:"header,omitempty"`
	// Body holds the trimmed body lines joined by single spaces.
	Body string `json:"body"`
	// Parsed holds the decoded body when WithJSON was given.
	Parsed any `json:"parsed,omitempty"`
}

type requestOptions struct {
	header          bool
	json            bool
	responseTimeout time.Duration
	bodyLineTimeout time.Duration
}

// RequestOption customizes a single Get call.
type RequestOption func(*requestOptions)

// WithHeader makes Get return the response header block.
func WithHeader() RequestOption {
	return func(o *requestOptions) {
		o.header = true
	}
}

// WithJSON makes Get decode the body as JSON into Response.Parsed.
func WithJSON() RequestOption {
	return func(o *requestOptions) {
		o.json = true
	}
}

// WithResponseTimeout overrides the per-line timeout for the status line
// and the header block.
func WithResponseTimeout(d time.Duration) RequestOption {
	return func(o *requestOptions) {
		o.responseTimeout = d
	}
}

// WithBodyLineTimeout overrides the per-line timeout for body lines.
func WithBodyLineTimeout(d time.Duration) RequestOption {
	return func(o *requestOptions) {
		o.bodyLineTimeout = d
	}
}

// Get performs a minimal HTTP/1.1 GET of path on host:port over the TCP
// session. Any session already open is replaced (see OpenTCP). The session
// is closed once the response has been read, whatever the outcome.
//
// The body has no length framing: it ends at the first blank line or when
// a body line does not arrive within the body line timeout, or when the
// transport fails while reading it.
//
// A path with a line break, or a host with a line break or a double quote,
// is rejected with ErrInvalidArgument before the session is touched.
func (m *Modem) Get(host, path string, port int, opts ...RequestOption) (*Response, error) {
	o := requestOptions{
		responseTimeout: m.config.responseTimeout,
		bodyLineTimeout: m.config.bodyLineTimeout,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if path == "" {
		path = "/"
	}
	if port <= 0 {
		port = 80
	}
	if err := checkArg("path", path, lineBreaks); err != nil {
		return nil, err
	}
	if err := checkArg("host", host, hostForbidden); err != nil {
		return nil, err
	}

	if err := m.OpenTCP(host, port); err != nil {
		return nil, err
	}
	defer func() {
		if err := m.CloseTCP(); err != nil {
			m.logger.Warn("close after request failed", "host", host, "error", err)
		}
	}()

	request := fmt.Sprintf("GET %s HTTP/1.1\r\nHost: %s\r\n\r\n", path, host)
	if err := m.SendData([]byte(request)); err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}

	resp, err := m.readResponse(o)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	m.logger.Debug("http response", "host", host, "path", path, "body_length", len(resp.Body))
	return resp, nil
}

func (m *Modem) readResponse(o requestOptions) (*Response, error) {
	// status line
	if _, err := m.readLine(false, o.responseTimeout); err != nil {
		return nil, fmt.Errorf("status line: %w", err)
	}

	var header []string
	for {
		line, err := m.readLine(false, o.responseTimeout)
		if err != nil {
			return nil, fmt.Errorf("header: %w", err)
		}
		if line == "" {
			break
		}
		header = append(header, line)
	}

	var body []string
	for {
		line, err := m.readLine(false, o.bodyLineTimeout)
		if err != nil {
			// a fault ends the body like a silent line does
			if !errors.Is(err, ErrTimeout) {
				m.logger.Debug("body ended by read fault", "error", err)
			}
			break
		}
		if line == "" {
			break
		}
		body = append(body, strings.TrimSpace(line))
	}

	resp := &Response{Body: strings.Join(body, " ")}
	if o.header {
		resp.Header = strings.Join(header, " ")
	}
	if o.json {
		if err := json.Unmarshal([]byte(resp.Body), &resp.Parsed); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrDecode, err)
		}
	}
	return resp, nil
}
