package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/SCripts2024roblox/WatchingRoom/internal/chat"
	"github.com/SCripts2024roblox/WatchingRoom/internal/config"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// 1. Config & Flags
	configPath := flag.String("config", "", "path to YAML config file")
	addr := flag.String("addr", "", "http service address (overrides config)")
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("❌ config load failed", slog.Any("error", err))
		os.Exit(1)
	}
	if *addr != "" {
		cfg.Addr = *addr
	}

	// 2. Connect to Redis when a relay is configured (Platform Layer)
	var relay *chat.Relay
	if cfg.Redis.Addr != "" {
		redisClient := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
		relay, err = chat.NewRelay(context.Background(), redisClient, cfg.Redis.Channel, uuid.NewString(), logger)
		if err != nil {
			logger.Error("❌ failed to connect to redis", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("✅ connected to redis", slog.String("addr", cfg.Redis.Addr))
	}

	// 3. Initialize the room
	metrics := chat.NewMetrics(prometheus.DefaultRegisterer)
	hub := chat.NewHub(logger, metrics, relay)
	go hub.Run()

	handler := chat.NewHandler(hub, logger)

	// 4. Define Routes
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Get("/ws", handler.ServeWs)
	r.Get("/health", handler.Health)
	r.Handle("/metrics", promhttp.Handler())
	if cfg.StaticDir != "" {
		r.Handle("/*", http.FileServer(http.Dir(cfg.StaticDir)))
	}

	srv := &http.Server{Addr: cfg.Addr, Handler: r}

	// 5. Serve until SIGINT/SIGTERM, then drain
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("🚀 server starting", slog.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("listen failed", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("http shutdown", slog.Any("error", err))
	}
	if err := hub.Shutdown(shutdownTimeout); err != nil {
		logger.Warn("hub shutdown", slog.Any("error", err))
	}
	logger.Info("server stopped")
}
