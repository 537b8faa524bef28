package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"github.com/satriahrh/voxcal/domain"
	"github.com/satriahrh/voxcal/domain/repositories"
	"github.com/satriahrh/voxcal/internal/api"
	"github.com/satriahrh/voxcal/internal/app"
	"github.com/satriahrh/voxcal/internal/auth"
	"github.com/satriahrh/voxcal/internal/config"
	"github.com/satriahrh/voxcal/internal/metrics"
	"github.com/satriahrh/voxcal/internal/websocket"
	"github.com/satriahrh/voxcal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger := app.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize adapters
	providers, err := app.BuildProviders(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("Failed to initialize providers", zap.Error(err))
	}
	defer providers.Close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.NewMetrics(registry)

	// Initialize usecase services
	conversationService := usecase.NewConversationService(providers.Engine, providers.TextToSpeech, m, logger)
	sessionConfig := usecase.SessionConfig{
		Audio: repositories.AudioConfig{
			SampleRate: cfg.STT.SampleRate,
			Encoding:   cfg.STT.Encoding,
			Language:   cfg.STT.Language,
		},
		PullTimeout: cfg.AudioPullTimeout,
		Metrics:     m,
	}

	newSession := func(sender domain.EventSender, logger *zap.Logger) websocket.Session {
		return usecase.NewSessionCoordinator(sender, conversationService, providers.SpeechToText, sessionConfig, logger)
	}

	hub := websocket.NewHub(newSession, cfg.ErrorPolicy == config.ErrorPolicyClose, m, logger)
	hubDone := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(hubDone)
	}()

	cleanup := websocket.NewThreadCleanupService(providers.Threads, cfg.Storage.ThreadTTL, cfg.Storage.CleanupInterval, logger)
	cleanup.Start()
	defer cleanup.Stop()

	var issuer *auth.TokenIssuer
	if cfg.JWTSecret != "" {
		issuer = auth.NewTokenIssuer(cfg.JWTSecret, 24*time.Hour)
		logger.Info("WebSocket authentication enabled")
	}

	// Create Echo instance
	e := echo.New()
	e.HideBanner = true

	// Middleware
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	api.InitRoutes(e, hub, issuer, registry, logger)

	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("shutting down the server", zap.Error(err))
		}
	}()

	logger.Info("Voice assistant server started",
		zap.String("port", cfg.Port),
		zap.String("sttProvider", cfg.STT.Provider),
		zap.String("ttsProvider", cfg.TTS.Provider),
		zap.String("llmProvider", cfg.LLM.Provider),
		zap.String("errorPolicy", cfg.ErrorPolicy))

	// Wait for interrupt signal to gracefully shutdown the server
	<-ctx.Done()
	logger.Info("Server is shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}

	select {
	case <-hubDone:
	case <-shutdownCtx.Done():
		logger.Warn("Timed out waiting for connections to close")
	}

	logger.Info("Server exited")
}
