package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"i4.energy/across/espnet/modem"
)

func newCheckCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Check that the module answers AT",
		RunE: func(cmd *cobra.Command, args []string) error {
			// New already performs the AT check.
			m, err := a.openModem(cmd.Context())
			if err != nil {
				a.logger.Error("Module check failed", "error", err)
				return err
			}
			defer m.Close()
			a.logger.Info("Module is responding")
			return nil
		},
	}
}

func newJoinCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "join",
		Short: "Put the module in station mode and join an access point",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.openModem(cmd.Context())
			if err != nil {
				return err
			}
			defer m.Close()

			if err := a.join(m); err != nil {
				a.logger.Error("Failed to join network", "error", err)
				return err
			}
			a.logger.Info("Joined network", "ssid", a.config.SSID)
			return nil
		},
	}
	cmd.Flags().String("ssid", "", "Access point SSID")
	return cmd
}

func newGetCmd(a *app) *cobra.Command {
	var (
		port   int
		header bool
		asJSON bool
	)
	cmd := &cobra.Command{
		Use:   "get HOST [PATH]",
		Short: "Perform an HTTP GET through the module and print the response as JSON",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "/"
			if len(args) == 2 {
				path = args[1]
			}

			m, err := a.openModem(cmd.Context())
			if err != nil {
				return err
			}
			defer m.Close()

			var opts []modem.RequestOption
			if header {
				opts = append(opts, modem.WithHeader())
			}
			if asJSON {
				opts = append(opts, modem.WithJSON())
			}

			resp, err := m.Get(args[0], path, port, opts...)
			if err != nil {
				a.logger.Error("Request failed", "host", args[0], "path", path, "error", err)
				return err
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(resp)
		},
	}
	cmd.Flags().IntVar(&port, "http-port", 80, "Remote TCP port")
	cmd.Flags().BoolVar(&header, "header", false, "Include the response header")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Decode the body as JSON")
	return cmd
}

func newServeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve GET /fetch requests through the module",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger := a.logger

			m, err := a.openModem(cmd.Context())
			if err != nil {
				logger.Error("Failed to create modem", "error", err)
				return err
			}

			if a.config.SSID != "" {
				if err := a.join(m); err != nil {
					logger.Error("Failed to join network", "error", err)
					m.Close()
					return err
				}
			}

			httpServer := &http.Server{
				Addr: a.config.BindAddress,
				Handler: &Server{
					Logger: logger.With("component", "server"),
					Modem:  m,
				},
			}

			// Channel to listen for interrupt signals
			sigChan := make(chan os.Signal, 1)
			signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

			serveErr := make(chan error, 1)
			go func() {
				logger.Info("Starting HTTP server", "address", httpServer.Addr)
				if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serveErr <- err
				}
			}()

			select {
			case sig := <-sigChan:
				logger.Info("Received shutdown signal", "signal", sig)
			case err := <-serveErr:
				logger.Error("HTTP server failed", "error", err)
				m.Close()
				return err
			}

			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()

			logger.Info("Closing HTTP server")
			if err := httpServer.Shutdown(ctx); err != nil {
				logger.Error("Failed to gracefully shutdown server", "error", err)
			}

			logger.Info("Closing modem connection")
			if err := m.Close(); err != nil {
				logger.Error("Failed to close modem", "error", err)
			}
			return nil
		},
	}
	cmd.Flags().String("ssid", "", "Access point SSID to join before serving")
	cmd.Flags().String("bind", "0.0.0.0:8080", "Bind address for the HTTP server")
	return cmd
}
