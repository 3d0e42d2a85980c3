package modem

import (
	"log/slog"
	"time"
)

const (
	// DefaultATTimeout bounds a plain command exchange.
	DefaultATTimeout = 2 * time.Second
	// DefaultLongTimeout bounds joins, TCP start/close and payload sends.
	DefaultLongTimeout = 10 * time.Second
	// DefaultResponseTimeout bounds each HTTP status and header line.
	DefaultResponseTimeout = 10 * time.Second
	// DefaultBodyLineTimeout bounds each HTTP body line. The body has no
	// length framing, so its end is detected by this timeout or a blank line.
	DefaultBodyLineTimeout = 500 * time.Millisecond
	// DefaultReadBufferSize is the chunk size of a single transport Read.
	DefaultReadBufferSize = 256
)

// Config holds the settings a Modem is constructed with. Use ConfigBuilder
// to create one.
type Config struct {
	dialer          Dialer
	clock           Clock
	logger          *slog.Logger
	atTimeout       time.Duration
	longTimeout     time.Duration
	responseTimeout time.Duration
	bodyLineTimeout time.Duration
	readBufferSize  int
}

func (c *Config) validate() error {
	if c.dialer == nil {
		return ErrNoDialer
	}
	return nil
}

func (c *Config) setDefaults() {
	if c.clock == nil {
		c.clock = systemClock{}
	}
	if c.logger == nil {
		c.logger = slog.New(slog.DiscardHandler)
	}
	if c.atTimeout <= 0 {
		c.atTimeout = DefaultATTimeout
	}
	if c.longTimeout <= 0 {
		c.longTimeout = DefaultLongTimeout
	}
	if c.responseTimeout <= 0 {
		c.responseTimeout = DefaultResponseTimeout
	}
	if c.bodyLineTimeout <= 0 {
		c.bodyLineTimeout = DefaultBodyLineTimeout
	}
	if c.readBufferSize <= 0 {
		c.readBufferSize = DefaultReadBufferSize
	}
}

// ConfigBuilder assembles a Config step by step.
type ConfigBuilder struct {
	config Config
}

func NewConfigBuilder() *ConfigBuilder {
	return &ConfigBuilder{}
}

func (b *ConfigBuilder) WithDialer(d Dialer) *ConfigBuilder {
	b.config.dialer = d
	return b
}

// WithClock replaces the time source deadlines are computed from.
func (b *ConfigBuilder) WithClock(c Clock) *ConfigBuilder {
	b.config.clock = c
	return b
}

func (b *ConfigBuilder) WithLogger(l *slog.Logger) *ConfigBuilder {
	b.config.logger = l
	return b
}

func (b *ConfigBuilder) WithATTimeout(d time.Duration) *ConfigBuilder {
	b.config.atTimeout = d
	return b
}

func (b *ConfigBuilder) WithLongTimeout(d time.Duration) *ConfigBuilder {
	b.config.longTimeout = d
	return b
}

func (b *ConfigBuilder) WithResponseTimeout(d time.Duration) *ConfigBuilder {
	b.config.responseTimeout = d
	return b
}

func (b *ConfigBuilder) WithBodyLineTimeout(d time.Duration) *ConfigBuilder {
	b.config.bodyLineTimeout = d
	return b
}

func (b *ConfigBuilder) WithReadBufferSize(n int) *ConfigBuilder {
	b.config.readBufferSize = n
	return b
}

// Build validates the collected settings and fills in defaults.
func (b *ConfigBuilder) Build() (Config, error) {
	c := b.config
	if err := c.validate(); err != nil {
		return Config{}, err
	}
	c.setDefaults()
	return c, nil
}
