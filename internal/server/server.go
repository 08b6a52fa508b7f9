// Package server hosts the daemon's operational HTTP surface: Prometheus
// metrics and a small read-only status API over the monitor store.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"log/slog"

	"github.com/vladelaina/catime-monitor/internal/config"
	"github.com/vladelaina/catime-monitor/internal/models"
	"github.com/vladelaina/catime-monitor/internal/store"
)

// Server represents the HTTP server hosting the daemon endpoints.
type Server struct {
	cfg    config.ServerConfig
	logger *slog.Logger
	http   *http.Server
}

// New constructs a Server with sane defaults.
func New(cfg config.ServerConfig, logger *slog.Logger, handler http.Handler) *Server {
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Port),
		Handler: handler,
	}

	return &Server{
		cfg:    cfg,
		logger: logger,
		http:   srv,
	}
}

// Start begins serving HTTP traffic.
func (s *Server) Start() error {
	s.logger.Info("starting server", "addr", s.http.Addr)
	if err := s.http.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http listen: %w", err)
	}
	return nil
}

// Shutdown gracefully terminates the server.
func (s *Server) Shutdown(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.ShutdownTimeout)
	defer cancel()

	s.logger.Info("shutting down server")
	if err := s.http.Shutdown(ctx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	return nil
}

// displayResponse is the /api/display payload.
type displayResponse struct {
	Active    bool             `json:"active"`
	Text      string           `json:"text,omitempty"`
	RawValue  int64            `json:"raw_value"`
	Freshness models.Freshness `json:"freshness"`
}

// DisplayHandler exposes the renderer contract over HTTP: the active
// counter's cached text. It never triggers a fetch.
func DisplayHandler(st *store.Store) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		resp := displayResponse{RawValue: models.RawValueNone, Freshness: models.FreshnessEmpty}
		if text, ok := st.GetDisplayText(); ok {
			resp.Active = true
			resp.Text = text
			if cfg, ok := st.ActiveConfig(); ok {
				if state, ok := st.StateFor(cfg.Descriptor()); ok {
					resp.RawValue = state.RawValue
					resp.Freshness = state.Freshness
				}
			}
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(resp)
	})
}
