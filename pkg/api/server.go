package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/goran-ethernal/ArcadeIndexor/internal/common"
	"github.com/goran-ethernal/ArcadeIndexor/internal/logger"
	"github.com/goran-ethernal/ArcadeIndexor/pkg/api/docs"
	"github.com/goran-ethernal/ArcadeIndexor/pkg/config"
)

const shutdownCtxTimeout = 10 * time.Second

// Server represents the API HTTP server.
type Server struct {
	config  *config.APIConfig
	handler *Handler
	server  *http.Server
	log     *logger.Logger

	mu   sync.Mutex
	addr net.Addr
}

// NewServer creates a new API server.
func NewServer(
	cfg *config.APIConfig,
	games GameQueries,
	state StateReader,
	trigger CycleTrigger,
	log *logger.Logger,
) *Server {
	log = log.WithComponent(common.ComponentAPI)
	handler := NewHandler(games, state, trigger, log)

	docs.SwaggerInfo.Host = ""

	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", handler.Health)

	// lobby
	mux.HandleFunc("GET /api/v1/games/available", handler.AvailableGames)
	mux.HandleFunc("GET /api/v1/games/history", handler.MatchHistory)
	mux.HandleFunc("GET /api/v1/games/{id}", handler.GetGame)

	// players
	mux.HandleFunc("GET /api/v1/players/{address}", handler.PlayerStats)
	mux.HandleFunc("GET /api/v1/players/{address}/games", handler.PlayerGames)
	mux.HandleFunc("GET /api/v1/leaderboard", handler.Leaderboard)

	mux.HandleFunc("GET /api/v1/events", handler.GetEvents)

	// indexer control
	mux.HandleFunc("GET /api/v1/indexer/state", handler.IndexerState)
	mux.HandleFunc("POST /api/v1/indexer/run", handler.RunIndexer)

	mux.Handle("GET /swagger/", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
		httpSwagger.DeepLinking(true),
	))

	var h http.Handler = mux
	h = RecoveryMiddleware(log)(h)
	h = LoggingMiddleware(log)(h)

	if cfg.CORS.Enabled {
		h = CORSMiddleware(cfg.CORS.AllowedOrigins)(h)
	}

	httpServer := &http.Server{
		Addr:         cfg.ListenAddress,
		Handler:      h,
		ReadTimeout:  cfg.ReadTimeout.Duration,
		WriteTimeout: cfg.WriteTimeout.Duration,
		IdleTimeout:  cfg.IdleTimeout.Duration,
	}

	return &Server{
		config:  cfg,
		handler: handler,
		server:  httpServer,
		log:     log,
	}
}

// Handler returns the fully wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Addr returns the bound listen address once the server is running.
func (s *Server) Addr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}

// Start serves the API until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	if !s.config.Enabled {
		s.log.Info("API server is disabled")
		return nil
	}

	listener, err := net.Listen("tcp", s.config.ListenAddress)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", s.config.ListenAddress, err)
	}

	s.mu.Lock()
	s.addr = listener.Addr()
	s.mu.Unlock()

	s.log.Infof("Starting API server on %s", listener.Addr())

	serveErr := make(chan error, 1)
	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("API server error: %w", err)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownCtxTimeout)
	defer cancel()

	s.log.Info("Shutting down API server...")
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("API server shutdown error: %w", err)
	}

	s.log.Info("API server stopped")
	return nil
}
