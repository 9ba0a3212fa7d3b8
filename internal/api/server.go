package api

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"

	"example.com/gamestore/services/games/config"
	"example.com/gamestore/services/games/internal/api/handlers"
	"example.com/gamestore/services/games/internal/eventstore"
	"example.com/gamestore/services/games/internal/metrics"
	"example.com/gamestore/services/games/internal/services"
	"example.com/gamestore/services/games/internal/tracing"
)

// Server represents the HTTP server
type Server struct {
	config          config.Config
	router          *gin.Engine
	httpServer      *http.Server
	gameService     *services.GameService
	purchaseService *services.PurchaseService
	searchService   *services.SearchService
	eventLog        eventstore.EventStore
	metrics         *metrics.Metrics
	tracer          tracing.Tracer
}

// NewServer creates a new HTTP server
func NewServer(
	cfg config.Config,
	gameService *services.GameService,
	purchaseService *services.PurchaseService,
	searchService *services.SearchService,
	eventLog eventstore.EventStore,
	m *metrics.Metrics,
	tracer tracing.Tracer,
) *Server {
	server := &Server{
		config:          cfg,
		gameService:     gameService,
		purchaseService: purchaseService,
		searchService:   searchService,
		eventLog:        eventLog,
		metrics:         m,
		tracer:          tracer,
	}

	server.router = server.setupRouter()
	server.httpServer = &http.Server{
		Addr:         cfg.ServerAddress,
		Handler:      server.router,
		ReadTimeout:  cfg.ServerTimeout,
		WriteTimeout: cfg.ServerTimeout,
	}

	return server
}

// setupRouter configures the HTTP router
func (s *Server) setupRouter() *gin.Engine {
	if s.config.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(RequestLogger())

	handlers.NewGamesHandler(s.gameService, s.tracer).RegisterRoutes(router)
	handlers.NewPurchasesHandler(s.purchaseService, s.tracer).RegisterRoutes(router)
	handlers.NewSearchHandler(s.searchService, s.tracer).RegisterRoutes(router)
	handlers.NewEventStoreHandler(s.eventLog, s.tracer).RegisterRoutes(router)
	handlers.NewMetricsHandler(s.metrics, s.tracer).RegisterRoutes(router)

	return router
}

// Start starts the HTTP server
func (s *Server) Start() error {
	log.Info().Str("address", s.config.ServerAddress).Msg("Starting HTTP server")

	if err := s.httpServer.ListenAndServe(); err != nil {
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return errors.Wrap(err, "HTTP server error")
	}

	return nil
}

// Shutdown gracefully stops the HTTP server
func (s *Server) Shutdown(ctx context.Context) error {
	log.Info().Msg("Shutting down HTTP server")

	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return errors.Wrap(err, "HTTP server shutdown error")
	}

	log.Info().Msg("HTTP server shut down successfully")
	return nil
}
