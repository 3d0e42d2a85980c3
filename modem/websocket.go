package modem

import (
	"context"
	"crypto/tls"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// WebSocketDialer reaches the co-processor through a serial-over-websocket
// bridge (esp-link, ser2net with a websocket front end, ...). Each binary or
// text message carries raw UART bytes.
type WebSocketDialer struct {
	URL           string
	Username      string
	Password      string
	SkipTLSVerify bool
	// PollInterval bounds a single Read. Zero means DefaultPollInterval.
	PollInterval time.Duration
}

// Dial opens the websocket with HTTP Basic auth when credentials are set.
func (d WebSocketDialer) Dial(ctx context.Context) (Transport, error) {
	if ctx == nil {
		return nil, errors.New("modem: context is nil")
	}
	u, err := url.Parse(d.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid websocket URL: %w", err)
	}
	switch u.Scheme {
	case "ws", "wss":
	default:
		return nil, fmt.Errorf("unsupported URL scheme: %q (use ws:// or wss://)", u.Scheme)
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: 10 * time.Second,
	}
	if u.Scheme == "wss" {
		dialer.TLSClientConfig = &tls.Config{
			InsecureSkipVerify: d.SkipTLSVerify,
		}
	}

	headers := http.Header{}
	if d.Username != "" && d.Password != "" {
		credentials := base64.StdEncoding.EncodeToString([]byte(d.Username + ":" + d.Password))
		headers.Set("Authorization", "Basic "+credentials)
	}

	conn, resp, err := dialer.DialContext(ctx, d.URL, headers)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("websocket connection failed (HTTP %d): %w", resp.StatusCode, err)
		}
		return nil, fmt.Errorf("websocket connection failed: %w", err)
	}

	poll := d.PollInterval
	if poll <= 0 {
		poll = DefaultPollInterval
	}
	t := &wsTransport{
		conn: conn,
		poll: poll,
		msgs: make(chan []byte, 16),
		done: make(chan struct{}),
	}
	go t.pump()
	return t, nil
}

// wsTransport adapts a message-oriented websocket to the polled byte stream
// the driver expects. gorilla/websocket connections cannot survive a read
// deadline, so a single goroutine owns ReadMessage and Read polls its output.
type wsTransport struct {
	conn *websocket.Conn
	poll time.Duration

	msgs    chan []byte
	done    chan struct{}
	readErr error
	buf     []byte

	closeOnce sync.Once
}

func (w *wsTransport) pump() {
	defer close(w.msgs)
	for {
		messageType, data, err := w.conn.ReadMessage()
		if err != nil {
			w.readErr = err
			return
		}
		if messageType != websocket.BinaryMessage && messageType != websocket.TextMessage {
			continue
		}
		select {
		case w.msgs <- data:
		case <-w.done:
			return
		}
	}
}

func (w *wsTransport) Read(p []byte) (int, error) {
	if len(w.buf) == 0 {
		timer := time.NewTimer(w.poll)
		defer timer.Stop()
		select {
		case data, ok := <-w.msgs:
			if !ok {
				return 0, w.readErr
			}
			w.buf = data
		case <-timer.C:
			return 0, nil
		}
	}
	n := copy(p, w.buf)
	w.buf = w.buf[n:]
	return n, nil
}

func (w *wsTransport) Write(p []byte) (int, error) {
	if err := w.conn.WriteMessage(websocket.BinaryMessage, p); err != nil {
		return 0, err
	}
	return len(p), nil
}

func (w *wsTransport) Close() error {
	var err error
	w.closeOnce.Do(func() {
		close(w.done)
		err = w.conn.Close()
	})
	return err
}
