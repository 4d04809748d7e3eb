package api

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/adamscao/skillguard/internal/api/handlers"
	"github.com/adamscao/skillguard/internal/api/middleware"
	"github.com/adamscao/skillguard/internal/auth"
	"github.com/adamscao/skillguard/internal/certcache"
	"github.com/adamscao/skillguard/internal/config"
)

const shutdownTimeout = 10 * time.Second

// Deps are the collaborators the server routes to
type Deps struct {
	Validator middleware.RequestValidator
	Cache     *certcache.Cache
	Gatherer  prometheus.Gatherer
	Logger    *zap.Logger
}

// Server represents the HTTP server
type Server struct {
	router     *gin.Engine
	config     *config.Config
	httpServer *http.Server
	logger     *zap.Logger
}

// NewServer creates a new API server
func NewServer(cfg *config.Config, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	// Set Gin mode
	if cfg.Logging.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// Global middleware
	router.Use(gin.Recovery())
	router.Use(middleware.Logger(logger.Named("http")))

	// Create handlers
	skillHandler := handlers.NewSkillHandler(cfg.Skill.UpstreamURL, cfg.GetUpstreamTimeout(), logger.Named("skill"))

	// Skill endpoint
	router.POST(cfg.Skill.Path,
		middleware.VerifySkillRequest(deps.Validator, middleware.VerifyOptions{
			MaxBodyBytes:   cfg.Skill.MaxBodyBytes,
			ApplicationIDs: cfg.Skill.ApplicationIDs,
			Logger:         logger.Named("verify"),
		}),
		skillHandler.Forward,
	)

	// Admin endpoints (require admin token)
	if cfg.AdminEnabled() && deps.Cache != nil {
		adminHandler := handlers.NewAdminHandler(deps.Cache, cfg.Cache.Backend, logger.Named("admin"))

		admin := router.Group("/v1/admin")
		admin.Use(middleware.AdminAuth(auth.NewAdminAuthenticator(cfg.Admin)))
		{
			admin.GET("/cache", adminHandler.ListCache)
			admin.DELETE("/cache", adminHandler.EvictCache)
			admin.DELETE("/cache/all", adminHandler.PurgeCache)
		}
	}

	// Health check
	router.GET("/health", handlers.Health)

	// Metrics
	if cfg.Metrics.Enabled && deps.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	return &Server{
		router: router,
		config: cfg,
		logger: logger,
		httpServer: &http.Server{
			Addr:         cfg.Server.ListenAddr,
			Handler:      router,
			ReadTimeout:  cfg.GetReadTimeout(),
			WriteTimeout: cfg.GetWriteTimeout(),
		},
	}
}

// Start serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context) error {
	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", zap.String("addr", s.httpServer.Addr))
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errChan <- err
		}
	}()

	select {
	case <-ctx.Done():
		s.logger.Info("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		s.logger.Info("server shut down gracefully")
		return nil
	case err := <-errChan:
		return fmt.Errorf("failed to serve: %w", err)
	}
}

// Router returns the underlying Gin router
func (s *Server) Router() *gin.Engine {
	return s.router
}
