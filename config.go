package main

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/spf13/pflag"
	"gopkg.in/yaml.v3"
)

// Config holds the application configuration
type Config struct {
	// BindAddress is the address the fetch server listens on (e.g. "0.0.0.0:8080")
	BindAddress string `yaml:"bind_address"`
	// SerialPort is the path to the module's serial port (e.g. "/dev/ttyUSB0")
	SerialPort string `yaml:"serial_port"`
	// BaudRate is the baud rate for serial communication with the module (e.g. 115200)
	BaudRate int `yaml:"baud_rate"`
	// WebSocketURL reaches the module through a serial bridge instead of a local port
	WebSocketURL string `yaml:"websocket_url"`
	// WebSocketUsername and WebSocketPassword are the bridge's HTTP Basic auth credentials
	WebSocketUsername string `yaml:"websocket_username"`
	WebSocketPassword string `yaml:"websocket_password"`
	// SkipTLSVerify disables certificate verification for wss:// bridges
	SkipTLSVerify bool `yaml:"skip_tls_verify"`
	// SSID and Password are the access point credentials
	SSID     string `yaml:"ssid"`
	Password string `yaml:"password"`
	// LogLevel sets the logging level (e.g. "debug", "info", "warn", "error")
	LogLevel string `yaml:"log_level"`
	// ATTimeout bounds plain command exchanges
	ATTimeout time.Duration `yaml:"at_timeout"`
	// LongTimeout bounds joins, TCP start/close and sends
	LongTimeout time.Duration `yaml:"long_timeout"`
}

// ConfigOption is a function that modifies a Config
type ConfigOption func(*Config) error

// LoadConfig creates a new config by applying the given options in order
func LoadConfig(opts ...ConfigOption) (*Config, error) {
	config := &Config{}

	for _, opt := range opts {
		if err := opt(config); err != nil {
			return nil, err
		}
	}

	return config, nil
}

// WithDefaults applies default configuration values
func WithDefaults() ConfigOption {
	return func(c *Config) error {
		c.BindAddress = "0.0.0.0:8080"
		c.SerialPort = "/dev/ttyUSB0"
		c.BaudRate = 115200
		c.LogLevel = "info"
		c.ATTimeout = 2 * time.Second
		c.LongTimeout = 10 * time.Second
		return nil
	}
}

// WithFile overlays the YAML file at path. An empty path is ignored.
func WithFile(path string) ConfigOption {
	return func(c *Config) error {
		if path == "" {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, c); err != nil {
			return fmt.Errorf("parse config file %s: %w", path, err)
		}
		return nil
	}
}

// WithEnv loads configuration from environment variables
func WithEnv() ConfigOption {
	return func(c *Config) error {
		if addr := os.Getenv("BIND_ADDRESS"); addr != "" {
			c.BindAddress = addr
		}

		if serial := os.Getenv("SERIAL_PORT"); serial != "" {
			c.SerialPort = serial
		}

		if baud := os.Getenv("BAUD_RATE"); baud != "" {
			if b, err := strconv.Atoi(baud); err == nil {
				c.BaudRate = b
			}
		}

		if url := os.Getenv("WS_URL"); url != "" {
			c.WebSocketURL = url
		}

		if user := os.Getenv("WS_USERNAME"); user != "" {
			c.WebSocketUsername = user
		}

		if password := os.Getenv("WS_PASSWORD"); password != "" {
			c.WebSocketPassword = password
		}

		if skip := os.Getenv("WS_SKIP_TLS_VERIFY"); skip != "" {
			b, err := strconv.ParseBool(skip)
			if err != nil {
				return fmt.Errorf("invalid WS_SKIP_TLS_VERIFY: %w", err)
			}
			c.SkipTLSVerify = b
		}

		if ssid := os.Getenv("WIFI_SSID"); ssid != "" {
			c.SSID = ssid
		}

		if password := os.Getenv("WIFI_PASSWORD"); password != "" {
			c.Password = password
		}

		if level := os.Getenv("LOG_LEVEL"); level != "" {
			c.LogLevel = level
		}

		if timeout := os.Getenv("AT_TIMEOUT"); timeout != "" {
			d, err := time.ParseDuration(timeout)
			if err != nil {
				return fmt.Errorf("invalid AT_TIMEOUT: %w", err)
			}
			c.ATTimeout = d
		}

		if timeout := os.Getenv("LONG_TIMEOUT"); timeout != "" {
			d, err := time.ParseDuration(timeout)
			if err != nil {
				return fmt.Errorf("invalid LONG_TIMEOUT: %w", err)
			}
			c.LongTimeout = d
		}

		return nil
	}
}

// WithFlags loads configuration from command-line flags that were set
// explicitly.
func WithFlags(fSet *pflag.FlagSet) ConfigOption {
	return func(c *Config) error {
		var err error
		fSet.Visit(func(f *pflag.Flag) {
			switch f.Name {
			case "bind":
				c.BindAddress = f.Value.String()
			case "port":
				c.SerialPort = f.Value.String()
			case "baud":
				if b, convErr := strconv.Atoi(f.Value.String()); convErr == nil {
					c.BaudRate = b
				}
			case "url":
				c.WebSocketURL = f.Value.String()
			case "username":
				c.WebSocketUsername = f.Value.String()
			case "no-ssl-verify":
				c.SkipTLSVerify = f.Value.String() == "true"
			case "ssid":
				c.SSID = f.Value.String()
			case "log-level":
				c.LogLevel = f.Value.String()
			case "at-timeout":
				if d, parseErr := time.ParseDuration(f.Value.String()); parseErr == nil {
					c.ATTimeout = d
				} else {
					err = fmt.Errorf("invalid --at-timeout: %w", parseErr)
				}
			case "long-timeout":
				if d, parseErr := time.ParseDuration(f.Value.String()); parseErr == nil {
					c.LongTimeout = d
				} else {
					err = fmt.Errorf("invalid --long-timeout: %w", parseErr)
				}
			}
		})
		return err
	}
}
