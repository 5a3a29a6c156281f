package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Kairiskai/MemoAI/internal/api"
	"github.com/Kairiskai/MemoAI/internal/blob"
	"github.com/Kairiskai/MemoAI/internal/capture"
	"github.com/Kairiskai/MemoAI/internal/config"
	"github.com/Kairiskai/MemoAI/internal/extract"
	"github.com/Kairiskai/MemoAI/internal/hermes"
	"github.com/Kairiskai/MemoAI/internal/provider"
	"github.com/Kairiskai/MemoAI/internal/store"
)

func main() {
	cfg := config.Load()
	setupLogging(cfg.LogLevel)

	slog.Info("memoai starting", "port", cfg.Port)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Database
	if cfg.DatabaseURL == "" {
		slog.Error("DATABASE_URL is required")
		os.Exit(1)
	}
	db, err := store.New(ctx, cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()
	slog.Info("database connected")

	// Blob storage
	blobs, err := blob.NewS3(ctx, blob.Options{
		Bucket:          cfg.S3Bucket,
		Region:          cfg.S3Region,
		Endpoint:        cfg.S3Endpoint,
		AccessKeyID:     cfg.S3AccessKeyID,
		SecretAccessKey: cfg.S3SecretKey,
	})
	if err != nil {
		slog.Error("failed to configure blob storage", "error", err)
		os.Exit(1)
	}
	slog.Info("blob storage ready", "bucket", cfg.S3Bucket)

	// NATS/Hermes
	hermesClient, err := hermes.NewClient(ctx, cfg.NatsURL, cfg.NatsToken, slog.Default())
	if err != nil {
		slog.Error("failed to connect to NATS", "error", err)
		os.Exit(1)
	}
	defer hermesClient.Close()
	slog.Info("NATS connected", "url", cfg.NatsURL)

	registry := provider.Default()
	ext := extract.New(registry, slog.Default())
	svc := capture.New(ext, db, blobs, hermesClient, cfg.SignedURLTTL, slog.Default())
	defer svc.Wait()

	// HTTP API
	srv := api.NewServer(api.Config{
		Port:           cfg.Port,
		APIToken:       cfg.APIToken,
		PublicURL:      cfg.PublicURL,
		MaxUploadBytes: int64(cfg.MaxUploadMB) << 20,
	}, svc, registry)
	go func() {
		if err := srv.Start(); err != nil {
			slog.Error("HTTP server error", "error", err)
		}
	}()

	if cfg.APIToken == "" {
		slog.Warn("MEMOAI_API_TOKEN not set, uploads are unauthenticated")
	}

	// Announce registration
	if err := hermesClient.Publish("memoai.service.registered", map[string]any{
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"port":      cfg.Port,
		"providers": registry.Names(),
	}); err != nil {
		slog.Warn("failed to publish registration", "error", err)
	}

	slog.Info("memoai ready", "port", cfg.Port, "providers", registry.Names())

	// Graceful shutdown
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	slog.Info("shutting down")
	cancel()
	slog.Info("memoai stopped")
}

func setupLogging(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	slog.SetDefault(slog.New(handler))
}
