// Package api exposes the reservation engine over HTTP. The engine
// itself stays transport-agnostic; this layer only parses requests,
// enforces auth and rate limits, and maps engine errors to status
// codes.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"stolik/internal/config"
	"stolik/internal/database"
	"stolik/internal/domain"
	"stolik/internal/export"
	"stolik/internal/reservation"

	"github.com/rs/zerolog"
)

// HTTPServer wires handlers, auth and middleware around the
// reservation coordinator.
type HTTPServer struct {
	cfg         *config.APIConfig
	coordinator *reservation.Coordinator
	store       domain.Store
	cache       domain.SlotCache
	exporter    *export.Exporter
	auth        *HTTPAuth
	logger      *zerolog.Logger
	server      *http.Server
}

func NewHTTPServer(
	cfg *config.APIConfig,
	coordinator *reservation.Coordinator,
	store domain.Store,
	cache domain.SlotCache,
	exporter *export.Exporter,
	logger *zerolog.Logger,
) *HTTPServer {
	srv := &HTTPServer{
		cfg:         cfg,
		coordinator: coordinator,
		store:       store,
		cache:       cache,
		exporter:    exporter,
		auth:        NewHTTPAuth(cfg),
		logger:      logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/bookings", srv.handleBookings)
	mux.HandleFunc("/api/v1/bookings/", srv.handleBookingByID)
	mux.HandleFunc("/api/v1/tables", srv.handleTables)
	mux.HandleFunc("/api/v1/availability/", srv.handleAvailability)
	mux.HandleFunc("/api/v1/reports/bookings.xlsx", srv.handleReport)
	mux.HandleFunc("/healthz", srv.handleHealth)

	handler := srv.loggingMiddleware(srv.auth.Wrap(mux))

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTP.Port),
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      30 * time.Second,
	}

	return srv
}

func (s *HTTPServer) Start() error {
	if s.server == nil {
		return fmt.Errorf("http server is not initialized")
	}
	s.logger.Info().Str("addr", s.server.Addr).Msg("HTTP API listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *HTTPServer) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *HTTPServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	if db, ok := s.store.(*database.DB); ok {
		if err := db.Healthy(r.Context()); err != nil {
			writeError(w, http.StatusServiceUnavailable, "database unavailable")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, statusCode int, message string) {
	writeJSON(w, statusCode, map[string]string{"error": message})
}
