package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"
	"i4.energy/across/espnet/modem"
)

// app carries what every subcommand needs once flags are parsed.
type app struct {
	configPath string
	config     *Config
	logger     *slog.Logger
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "espnet",
		Short: "TCP and HTTP through an ESP AT-command WiFi module",
		Long: `espnet drives an ESP8266/ESP32 running the stock AT firmware over a
serial line and uses its single TCP session to make plain HTTP requests.

Connection modes:
  Serial:    --port /dev/ttyUSB0 [--baud 115200]
  WebSocket: --url ws://bridge/path [--username user] [--no-ssl-verify]

The bridge password is read from WS_PASSWORD or the config file.

The WiFi password is read from WIFI_PASSWORD or the config file, or
prompted interactively. It is intentionally not accepted as a flag.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			config, err := LoadConfig(WithDefaults(), WithFile(a.configPath), WithEnv(), WithFlags(cmd.Flags()))
			if err != nil {
				return err
			}
			a.config = config
			a.logger = newLogger(config.LogLevel)
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "YAML configuration file")
	pf.StringP("port", "p", "/dev/ttyUSB0", "Serial port device")
	pf.IntP("baud", "b", modem.DefaultBaudRate, "Baud rate (serial only)")
	pf.StringP("url", "u", "", "WebSocket bridge URL (ws:// or wss://), used instead of --port")
	pf.String("username", "", "Username for the bridge's HTTP Basic auth")
	pf.Bool("no-ssl-verify", false, "Skip TLS certificate verification (wss:// only)")
	pf.String("log-level", "info", "Log level (debug, info, warn, error)")
	pf.String("at-timeout", modem.DefaultATTimeout.String(), "Timeout for plain AT command exchanges")
	pf.String("long-timeout", modem.DefaultLongTimeout.String(), "Timeout for joins, TCP open/close and sends")

	root.AddCommand(
		newCheckCmd(a),
		newJoinCmd(a),
		newGetCmd(a),
		newServeCmd(a),
	)
	return root
}

func newLogger(level string) *slog.Logger {
	logLevel := slog.LevelInfo
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	}
	return slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
}

// newDialer picks the websocket bridge when a URL is configured and the
// local serial port otherwise.
func newDialer(config *Config) modem.Dialer {
	if config.WebSocketURL != "" {
		return modem.WebSocketDialer{
			URL:           config.WebSocketURL,
			Username:      config.WebSocketUsername,
			Password:      config.WebSocketPassword,
			SkipTLSVerify: config.SkipTLSVerify,
		}
	}
	return modem.SerialDialer{
		PortName: config.SerialPort,
		BaudRate: config.BaudRate,
	}
}

// openModem dials the configured transport and checks the module answers.
func (a *app) openModem(ctx context.Context) (*modem.Modem, error) {
	modemConfig, err := modem.NewConfigBuilder().
		WithDialer(newDialer(a.config)).
		WithLogger(a.logger.With("component", "modem")).
		WithATTimeout(a.config.ATTimeout).
		WithLongTimeout(a.config.LongTimeout).
		Build()
	if err != nil {
		return nil, fmt.Errorf("modem config: %w", err)
	}

	return modem.New(ctx, modemConfig)
}

// password returns the configured WiFi password or prompts for it.
func (a *app) password() (string, error) {
	if a.config.Password != "" {
		return a.config.Password, nil
	}
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errors.New("no WiFi password configured (set WIFI_PASSWORD)")
	}

	fmt.Fprint(os.Stderr, "WiFi password: ")
	pw, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("read password: %w", err)
	}
	return strings.TrimSpace(string(pw)), nil
}

// join connects the module to the configured access point.
func (a *app) join(m *modem.Modem) error {
	if a.config.SSID == "" {
		return errors.New("no SSID configured (use --ssid or WIFI_SSID)")
	}
	pw, err := a.password()
	if err != nil {
		return err
	}
	if err := m.Connect(a.config.SSID, pw); err != nil {
		return fmt.Errorf("join %q: %w", a.config.SSID, err)
	}
	return nil
}
