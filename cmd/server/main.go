package main

import (
	// Standard library
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	// External dependencies
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	// Internal packages
	"github.com/houzhh15/whisper-gateway/cmd/server/internal/api"
	"github.com/houzhh15/whisper-gateway/cmd/server/internal/config"
	"github.com/houzhh15/whisper-gateway/cmd/server/internal/metrics"
	"github.com/houzhh15/whisper-gateway/cmd/server/internal/middleware"
	"github.com/houzhh15/whisper-gateway/cmd/server/internal/orchestrator"
	"github.com/houzhh15/whisper-gateway/cmd/server/internal/orchestrator/health"
	"github.com/houzhh15/whisper-gateway/cmd/server/internal/orchestrator/whisper"
	"github.com/houzhh15/whisper-gateway/cmd/server/internal/tempstore"
	"github.com/houzhh15/whisper-gateway/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	logInstance, err := logger.Init(logger.Config{
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		Environment: cfg.Server.Env,
		WithSource:  !cfg.IsProduction(),
		File:        cfg.Log.File,
		MaxSizeMB:   cfg.Log.MaxSizeMB,
		MaxBackups:  cfg.Log.MaxBackups,
		MaxAgeDays:  cfg.Log.MaxAgeDays,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init failed: %v\n", err)
		os.Exit(1)
	}
	appLogger := logInstance.With("component", "web-server")

	// Validate configuration
	if err := config.ValidateConfig(cfg); err != nil {
		appLogger.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	appLogger.Info("configuration loaded", "env", cfg.Server.Env, "port", cfg.Server.Port)
	appLogger.Debug(cfg.PrintConfig())

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// Temporary upload storage
	store, err := tempstore.New(cfg.Upload.TempDir, cfg.Upload.FallbackExtension)
	if err != nil {
		appLogger.Error("temp store init failed", "error", err)
		os.Exit(1)
	}
	appLogger.Info("temp store ready", "dir", store.Dir(), "fallback_extension", cfg.Upload.FallbackExtension)

	// Load the engine once; the process does not start without it
	engineLogger := logInstance.With("component", "whisper")
	engine, err := orchestrator.Load(context.Background(), cfg.Whisper, engineLogger)
	if err != nil {
		appLogger.Error("failed to load transcription engine", "mode", cfg.Whisper.Mode, "error", err)
		os.Exit(1)
	}
	metrics.SetEngineReady(engine.Name(), true)
	appLogger.Info("transcription engine ready", "engine", engine.Name(), "model", cfg.Whisper.Model)

	svc := orchestrator.NewTranscriptionService(engine, store, logInstance).
		WithLimiter(orchestrator.NewEngineLimiter(cfg.Whisper.MaxConcurrent, cfg.Whisper.QueueTimeout)).
		WithTimeout(cfg.Whisper.Timeout).
		WithOptions(whisper.TranscribeOptions{
			Model:    cfg.Whisper.Model,
			Language: cfg.Whisper.Language,
			Prompt:   cfg.Whisper.Prompt,
			Timeout:  cfg.Whisper.Timeout,
		})

	// Background engine health checker
	healthChecker := health.NewHealthChecker(engine, cfg.Whisper.HealthCheckInterval, cfg.Whisper.HealthFailThreshold).
		WithLogger(logInstance.With("component", "health-checker")).
		OnStatus(func(name string, status health.ServiceStatus) {
			metrics.SetEngineReady(name, status.IsHealthy)
		})

	ctx, stop := context.WithCancel(context.Background())
	defer stop()
	go healthChecker.Start(ctx)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(logInstance.With("component", "http")))
	r.Use(middleware.CORS(cfg.CORS.AllowedOrigins, cfg.CORS.AllowCredentials))

	setupRoutes(r, svc, store, healthChecker, cfg.Upload.MaxBytes)

	// Create HTTP server with graceful shutdown
	serverAddr := cfg.GetServerAddr()
	srv := &http.Server{
		Addr:    serverAddr,
		Handler: r,
	}

	// Start server in a goroutine
	go func() {
		appLogger.Info("server starting", "addr", serverAddr, "env", cfg.Server.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	<-quit
	appLogger.Info("shutdown signal received, shutting down server...")

	healthChecker.Stop()

	// In-flight transcriptions get ShutdownTimeout to finish
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}
	appLogger.Info("server shutdown complete")
}

// setupRoutes 注册所有路由
func setupRoutes(r *gin.Engine, svc api.Transcriber, store api.WritableDir, checker *health.HealthChecker, maxBytes int64) {
	transcribe := api.HandleTranscribe(svc, maxBytes)
	r.POST("/transcribe", transcribe)
	r.POST("/api/v1/transcribe", transcribe)

	// Health check endpoints
	r.GET("/health", api.HandleHealth())
	r.GET("/api/v1/health", api.HandleHealth())
	r.GET("/readiness", api.HandleReadiness(store, checker))
	r.GET("/api/v1/services/whisper/health", api.HandleWhisperHealthCheck(checker))

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}
