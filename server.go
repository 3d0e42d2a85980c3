package main

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"sync"

	"i4.energy/across/espnet/modem"
)

// Fetcher is the part of the modem the server drives.
type Fetcher interface {
	Get(host, path string, port int, opts ...modem.RequestOption) (*modem.Response, error)
	State() modem.State
}

// Server handles incoming HTTP requests and relays them through the
// configured modem. The modem holds a single TCP session and accepts one
// command at a time, so requests are served one after another.
type Server struct {
	Logger *slog.Logger
	Modem  Fetcher

	mu sync.Mutex
}

// ServeHTTP implements the http.Handler interface for the Server struct
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /fetch", s.handleFetch)
	mux.HandleFunc("GET /status", s.handleStatus)
	mux.ServeHTTP(w, r)
}

func (s *Server) sendError(w http.ResponseWriter, message string, statusCode int) {
	if message == "" {
		w.WriteHeader(statusCode)
		return
	}

	type ErrorResponse struct {
		Message string `json:"message"`
	}
	resp := ErrorResponse{Message: message}
	s.sendJSON(w, resp, statusCode)
}

func (s *Server) sendJSON(w http.ResponseWriter, v any, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.Logger.Warn("Failed to encode response", "error", err)
	}
}

// handleFetch performs GET http://host:port/path through the module.
// Query parameters: host (required), path, port, header=1, json=1.
func (s *Server) handleFetch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	host := q.Get("host")
	if host == "" {
		s.sendError(w, "'host' is required", http.StatusBadRequest)
		return
	}

	port := 80
	if p := q.Get("port"); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil || n <= 0 || n > 65535 {
			s.sendError(w, "invalid 'port'", http.StatusBadRequest)
			return
		}
		port = n
	}

	var opts []modem.RequestOption
	if q.Get("header") == "1" {
		opts = append(opts, modem.WithHeader())
	}
	if q.Get("json") == "1" {
		opts = append(opts, modem.WithJSON())
	}

	s.mu.Lock()
	resp, err := s.Modem.Get(host, q.Get("path"), port, opts...)
	s.mu.Unlock()
	if errors.Is(err, modem.ErrInvalidArgument) {
		s.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		s.Logger.Error("Fetch failed", "error", err, "host", host, "port", port)
		s.sendError(w, err.Error(), http.StatusBadGateway)
		return
	}

	s.Logger.Info("Fetch completed", "host", host, "port", port, "body_length", len(resp.Body))
	s.sendJSON(w, resp, http.StatusOK)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	state := s.Modem.State()
	s.mu.Unlock()

	type StatusResponse struct {
		Session string `json:"session"`
	}
	s.sendJSON(w, StatusResponse{Session: state.String()}, http.StatusOK)
}
