// cmd/server/main.go
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/sellerkit/replan/internal/api"
	"github.com/sellerkit/replan/internal/cache"
	"github.com/sellerkit/replan/internal/config"
	"github.com/sellerkit/replan/internal/service"
	"github.com/sellerkit/replan/internal/statefile"
	"github.com/sellerkit/replan/pkg/logger"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize logger
	logger.SetLevel(cfg.App.LogLevel)
	if cfg.Server.Mode == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	// Load the plan state snapshot
	state, err := statefile.Load(cfg.App.StateFile)
	if err != nil {
		logger.Log.Fatal().Err(err).Str("path", cfg.App.StateFile).Msg("Failed to load state file")
	}
	logger.Log.Info().
		Str("revision", state.Revision).
		Int("products", len(state.Products)).
		Int("suppliers", len(state.Suppliers)).
		Msg("Loaded plan state")

	// Initialize projection cache
	projectionCache, err := cache.NewProjectionCache(cfg.Cache)
	if err != nil {
		logger.Log.Warn().Err(err).Msg("Cache unavailable, running without memoization")
		projectionCache = cache.NewNoopProjectionCache()
	}

	// Initialize services
	planningService := service.NewPlanningService(state, projectionCache)

	// Initialize HTTP server
	router := api.NewRouter(planningService, cfg)
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Log.Info().Str("port", cfg.Server.Port).Msg("Starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	logger.Log.Info().Msg("Server exiting")
}
