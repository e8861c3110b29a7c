package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/marcdasilva/passtheplate/internal/adapters/gemini"
	"github.com/marcdasilva/passtheplate/internal/adapters/http"
	"github.com/marcdasilva/passtheplate/internal/adapters/mlapi"
	natsadapter "github.com/marcdasilva/passtheplate/internal/adapters/nats"
	"github.com/marcdasilva/passtheplate/internal/adapters/postgres"
	"github.com/marcdasilva/passtheplate/internal/adapters/storage"
	"github.com/marcdasilva/passtheplate/internal/adapters/stripe"
	"github.com/marcdasilva/passtheplate/internal/adapters/temporal"
	"github.com/marcdasilva/passtheplate/internal/adapters/valkey"
	"github.com/marcdasilva/passtheplate/internal/core/ports"
	"github.com/marcdasilva/passtheplate/internal/core/usecases"
	"github.com/marcdasilva/passtheplate/internal/pkg/config"
	"github.com/marcdasilva/passtheplate/internal/pkg/logging"
	"github.com/marcdasilva/passtheplate/internal/pkg/metrics"
	"github.com/marcdasilva/passtheplate/internal/pkg/telemetry"
)

func main() {
	cfg, err := config.Load("passtheplate-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logging.Setup("passtheplate-api", cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.CollectorAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	// Database
	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	defer db.Close()
	go reportPoolStats(ctx, db)

	// Cache is optional; services skip it when nil.
	var cache ports.CacheService
	var cachePinger http.Pinger
	if vc, err := valkey.New(cfg.Valkey.Addr); err != nil {
		slog.Warn("valkey unavailable", "error", err)
	} else {
		defer vc.Close()
		cache, cachePinger = vc, vc
	}

	// NATS
	var events ports.EventPublisher
	if pub, err := natsadapter.NewPublisher(cfg.NATS.URL); err != nil {
		slog.Warn("nats unavailable", "error", err)
	} else {
		defer pub.Close()
		events = pub
	}

	// Raw NATS connection for the WebSocket relay
	natsConn, err := natsadapter.RawConn(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats ws conn unavailable", "error", err)
	} else {
		defer natsConn.Close()
	}

	// Temporal; redemptions fail and are refunded while the cluster is down.
	tc, err := temporal.DialLazy(cfg.Temporal.HostPort, cfg.Temporal.Namespace)
	if err != nil {
		log.Fatalf("temporal: %v", err)
	}
	defer tc.Close()

	var objects ports.ObjectStorage
	if cfg.Storage.URL != "" {
		objects = storage.New(cfg.Storage.URL, cfg.Storage.ServiceKey)
	} else {
		slog.Warn("storage not configured, uploads disabled")
	}

	if cfg.Auth.JWTSecret == "" {
		slog.Warn("auth.jwt_secret not set, authenticated routes will reject every token")
	}

	// Repos
	donationRepo := postgres.NewDonationRepo(db.Pool)
	requestRepo := postgres.NewRequestRepo(db.Pool)
	profileRepo := postgres.NewProfileRepo(db.Pool)
	locationRepo := postgres.NewLocationRepo(db.Pool)
	predictionRepo := postgres.NewPredictionRepo(db.Pool)
	monetaryRepo := postgres.NewMonetaryDonationRepo(db.Pool)
	redemptionRepo := postgres.NewRedemptionRepo(db.Pool)

	// Use cases
	models := gemini.New(cfg.AI)
	aiSvc := usecases.NewAIService(models.Vision, models.Text)
	locationSvc := usecases.NewLocationService(locationRepo, cache, aiSvc, cfg.AI.MaxConcurrency)
	ml := mlapi.New(cfg.ML.BaseURL, time.Duration(cfg.ML.Timeout)*time.Second)
	payments := stripe.New(cfg.Stripe.SecretKey, cfg.Stripe.WebhookSecret, nil)

	deps := &http.Dependencies{
		Donations:   usecases.NewDonationService(donationRepo, objects, events),
		Requests:    usecases.NewRequestService(requestRepo, events),
		Profiles:    usecases.NewProfileService(profileRepo, objects),
		AI:          aiSvc,
		Locations:   locationSvc,
		Connections: usecases.NewConnectionService(monetaryRepo, locationSvc),
		Predictions: usecases.NewPredictionService(ml, predictionRepo, cache, events),
		Payments:    usecases.NewPaymentService(payments, monetaryRepo, events, cfg.Stripe.PublicBaseURL),
		Rewards: usecases.NewRewardService(profileRepo, redemptionRepo,
			temporal.NewStarter(tc, cfg.Temporal.TaskQueue), events,
			cfg.Rewards.RedeemCost, cfg.Rewards.CompletionPoints),
		Tokens: http.NewTokens(cfg.Auth.JWTSecret),
		NATS:   natsConn,
		DB:     db,
		Cache:  cachePinger,
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    cfg.Server.BodyLimitMB * 1024 * 1024,
		AppName:      "PassThePlate API",
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.Server.AllowedOrigins,
		AllowMethods:     "GET,POST,PUT,PATCH,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, Stripe-Signature",
		AllowCredentials: false,
		MaxAge:           3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr, "version", http.Version)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}

func reportPoolStats(ctx context.Context, db *postgres.DB) {
	ticker := time.NewTicker(15 * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			metrics.UpdateDBPoolMetrics(db.Pool.Stat())
		}
	}
}
