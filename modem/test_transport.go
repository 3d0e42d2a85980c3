package modem

import (
	"context"
	"io"
	"sync"
	"time"
)

// FakeClock is a manually advanced Clock for tests.
type FakeClock struct {
	mu  sync.Mutex
	now time.Time
}

// NewFakeClock returns a clock stopped at a fixed instant.
func NewFakeClock() *FakeClock {
	return &FakeClock{now: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// ScriptTransport is a test helper that simulates an ESP module on a serial
// line. Each expected write is answered with a scripted reply, which becomes
// readable right after the write. A Read with nothing to deliver advances
// the clock by one poll interval and returns (0, nil), like a serial port
// whose read timeout expired.
type ScriptTransport struct {
	mu      sync.Mutex
	clock   *FakeClock
	step    time.Duration
	script  []exchange
	rx      []byte
	writes  []string
	readErr error
	closed  bool
}

type exchange struct {
	expect string
	reply  string
}

// NewScriptTransport creates a transport whose idle reads advance clock.
func NewScriptTransport(clock *FakeClock) *ScriptTransport {
	return &ScriptTransport{
		clock: clock,
		step:  DefaultPollInterval,
	}
}

// On queues reply to be delivered after the next write equal to expect.
// Exchanges are matched in order; a write that does not match the head of
// the script gets no reply.
func (t *ScriptTransport) On(expect, reply string) *ScriptTransport {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.script = append(t.script, exchange{expect: expect, reply: reply})
	return t
}

// Feed makes data readable immediately.
func (t *ScriptTransport) Feed(data string) *ScriptTransport {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rx = append(t.rx, data...)
	return t
}

// FailReads makes every Read return err once the bytes already queued
// have been delivered.
func (t *ScriptTransport) FailReads(err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.readErr = err
}

func (t *ScriptTransport) Write(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return 0, io.ErrClosedPipe
	}
	w := string(p)
	t.writes = append(t.writes, w)
	if len(t.script) > 0 && t.script[0].expect == w {
		t.rx = append(t.rx, t.script[0].reply...)
		t.script = t.script[1:]
	}
	return len(p), nil
}

func (t *ScriptTransport) Read(p []byte) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return 0, io.EOF
	}
	if len(t.rx) == 0 {
		if t.readErr != nil {
			return 0, t.readErr
		}
		t.clock.Advance(t.step)
		return 0, nil
	}
	n := copy(p, t.rx)
	t.rx = t.rx[n:]
	return n, nil
}

func (t *ScriptTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	return nil
}

// Writes returns every write seen so far, in order.
func (t *ScriptTransport) Writes() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.writes...)
}

// Unread returns the number of delivered-but-unread bytes.
func (t *ScriptTransport) Unread() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.rx)
}

// Remaining returns the number of scripted exchanges not yet triggered.
func (t *ScriptTransport) Remaining() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.script)
}

// Closed reports whether Close was called.
func (t *ScriptTransport) Closed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}

// ScriptDialer hands out a fixed Transport.
type ScriptDialer struct {
	Transport Transport
}

func (d ScriptDialer) Dial(ctx context.Context) (Transport, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return d.Transport, nil
}
