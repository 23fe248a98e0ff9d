package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/stacklend-io/risk-engine/internal/config"
)

type Server struct {
	httpServer *http.Server
	service    RiskService
}

func New(cfg *config.ApiConfig, service RiskService) *Server {
	srv := &Server{service: service}

	router := chi.NewRouter()
	router.Use(traceMiddleware)
	srv.setupRoutes(router)

	srv.httpServer = &http.Server{
		Addr:         cfg.ListenAddr(),
		Handler:      router,
		WriteTimeout: cfg.WriteTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return srv
}

func (s *Server) setupRoutes(r *chi.Mux) {
	r.Get("/healthcheck", s.handleHealthCheck)

	r.Route("/v1", func(r chi.Router) {
		r.Post("/borrowers", s.handleRegisterBorrower)
		r.Get("/borrowers/{id}/credit-score", s.handleCreditScore)
		r.Get("/borrowers/{id}/positions", s.handleBorrowerPositions)

		r.Put("/assets/{symbol}", s.handleUpdateAssetPrice)
		r.Get("/assets/{symbol}/volatility-risk", s.handleVolatilityRisk)

		r.Post("/risk/assessments", s.handleAssessBorrowingRisk)
		r.Post("/risk/monitoring", s.handleRunMonitoring)
		r.Get("/risk/state", s.handleProtocolState)
		r.Get("/risk/reports/latest", s.handleLatestReport)
	})
}

// Start blocks serving requests until the listener fails or Stop is called.
func (s *Server) Start() error {
	log.Info().Msgf("Starting api server on %s", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("api server exited: %w", err)
	}
	return nil
}

func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
