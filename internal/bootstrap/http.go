package bootstrap

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/courseq/courseq/config"
	httpx "github.com/courseq/courseq/internal/http"
)

// HTTPServerConfig contains configuration for HTTP server.
type HTTPServerConfig struct {
	Config   *config.AppConfig
	Services ServiceContainer
	DB       *sql.DB
	Logger   *slog.Logger
}

// StartHTTPServer creates and starts the HTTP server.
// Returns the server instance for graceful shutdown.
func StartHTTPServer(cfg *HTTPServerConfig) (*http.Server, error) {
	if cfg == nil {
		return nil, nil
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	appCfg := cfg.Config
	if appCfg == nil {
		appCfg = &config.AppConfig{}
	}

	renderer, err := httpx.NewRenderer(logger)
	if err != nil {
		return nil, err
	}

	compressionLevel := 0
	if appCfg.HTTP.CompressionEnabled {
		compressionLevel = appCfg.HTTP.CompressionLevel
		logger.Info("HTTP compression enabled", "level", compressionLevel)
	}

	handler := httpx.NewRouter(httpx.RouterServices{
		Logger:   logger,
		Sessions: cfg.Services.Sessions,
		Renderer: renderer,
		Auth: httpx.NewAuthHandlers(httpx.AuthHandlersOptions{
			Auth:     cfg.Services.Auth,
			Sessions: cfg.Services.Sessions,
			Renderer: renderer,
			Logger:   logger,
		}),
		Courses: httpx.NewCourseHandlers(httpx.CourseHandlersOptions{
			Courses:  cfg.Services.Courses,
			Renderer: renderer,
			Logger:   logger,
		}),
		Events: httpx.NewEventHandlers(httpx.EventHandlersOptions{
			Events:   cfg.Services.Events,
			Courses:  cfg.Services.Courses,
			Renderer: renderer,
			Logger:   logger,
		}),
		Queue: httpx.NewQueueHandlers(httpx.QueueHandlersOptions{
			Queue:    cfg.Services.Queue,
			Renderer: renderer,
			Logger:   logger,
		}),
		Health:           httpx.NewHealthHandler(cfg.DB, cfg.Services.Cache),
		CompressionLevel: compressionLevel,
	})

	// Start server (logs "starting HTTP server" internally)
	return startServer(logger, handler, appCfg.HTTP.Addr), nil
}

func startServer(logger *slog.Logger, handler http.Handler, addr string) *http.Server {
	// Guard against empty addr to avoid listening on Go default
	if addr == "" {
		addr = ":8080"
	}

	server := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("starting HTTP server", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server failed", "error", err)
		}
	}()

	return server
}

// ShutdownConfig contains dependencies for HTTP server shutdown.
type ShutdownConfig struct {
	Context context.Context
	Server  *http.Server
	Logger  *slog.Logger
}

// ShutdownHTTPServer gracefully shuts down the HTTP server.
func ShutdownHTTPServer(cfg ShutdownConfig) error {
	if cfg.Server == nil {
		return nil
	}

	if cfg.Logger != nil {
		cfg.Logger.Info("shutting down HTTP server")
	}

	shutdownCtx, cancel := context.WithTimeout(cfg.Context, 10*time.Second)
	defer cancel()

	if err := cfg.Server.Shutdown(shutdownCtx); err != nil {
		return err
	}

	if cfg.Logger != nil {
		cfg.Logger.Info("HTTP server stopped")
	}

	return nil
}
