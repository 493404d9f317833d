package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ducminhle1904/crypto-grid-sim/internal/logger"
	"github.com/ducminhle1904/crypto-grid-sim/internal/monitoring"
	"github.com/ducminhle1904/crypto-grid-sim/pkg/data"
)

// PriceSource is a provider whose cache the API can invalidate
type PriceSource interface {
	data.PriceProvider
	Invalidate(ctx context.Context, q data.PriceQuery) error
	InvalidateAll(ctx context.Context) error
}

// Config holds the HTTP server settings
type Config struct {
	Port            string
	AllowedOrigins  []string
	Workers         int // sweep workers, <= 0 uses one per CPU
	MaxSweepConfigs int
	Release         bool
	ShutdownTimeout time.Duration
}

// DefaultConfig returns the server defaults
func DefaultConfig() Config {
	return Config{
		Port:            "8080",
		MaxSweepConfigs: 10000,
		ShutdownTimeout: 10 * time.Second,
	}
}

// Server exposes simulations, sweeps and price data over HTTP
type Server struct {
	cfg    Config
	source PriceSource
	health *monitoring.HealthChecker
	log    *zap.Logger
	router *gin.Engine
	now    func() time.Time
}

// NewServer creates a server and registers its routes
func NewServer(cfg Config, source PriceSource, health *monitoring.HealthChecker, log *zap.Logger) *Server {
	if cfg.Release {
		gin.SetMode(gin.ReleaseMode)
	}
	if health == nil {
		health = monitoring.NewHealthChecker("")
	}
	if cfg.MaxSweepConfigs <= 0 {
		cfg.MaxSweepConfigs = DefaultConfig().MaxSweepConfigs
	}

	s := &Server{
		cfg:    cfg,
		source: source,
		health: health,
		log:    logger.OrNop(log),
		router: gin.New(),
		now:    time.Now,
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	r := s.router
	r.Use(ErrorHandler(s.log))
	r.Use(CORS(s.cfg.AllowedOrigins))
	r.Use(Logger(s.log))

	r.GET("/health", gin.WrapH(s.health))
	r.GET("/metrics", gin.WrapH(monitoring.Handler()))

	v1 := r.Group("/api/v1")
	{
		v1.GET("/assets", s.listAssets)
		v1.GET("/prices", s.getPrices)
		v1.POST("/simulations", s.runSimulation)
		v1.POST("/sweeps", s.runSweep)
		v1.DELETE("/cache", s.invalidateCache)
	}

	r.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Error: ErrorDetail{Code: "NOT_FOUND", Message: "route not found: " + c.Request.URL.Path},
		})
	})
}

// Handler returns the HTTP handler of the server
func (s *Server) Handler() http.Handler {
	return s.router
}

// Run serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              ":" + s.cfg.Port,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("API server listening", zap.String("addr", srv.Addr), zap.String("source", s.source.Name()))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("API server failed: %w", err)
	case <-ctx.Done():
	}

	timeout := s.cfg.ShutdownTimeout
	if timeout <= 0 {
		timeout = DefaultConfig().ShutdownTimeout
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	s.log.Info("shutting down API server")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("API server shutdown: %w", err)
	}
	return nil
}
