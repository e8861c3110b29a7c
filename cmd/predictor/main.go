package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/marcdasilva/passtheplate/internal/adapters/mlapi"
	natsadapter "github.com/marcdasilva/passtheplate/internal/adapters/nats"
	"github.com/marcdasilva/passtheplate/internal/adapters/postgres"
	"github.com/marcdasilva/passtheplate/internal/adapters/valkey"
	"github.com/marcdasilva/passtheplate/internal/core/ports"
	"github.com/marcdasilva/passtheplate/internal/core/usecases"
	"github.com/marcdasilva/passtheplate/internal/pkg/config"
	"github.com/marcdasilva/passtheplate/internal/pkg/logging"
)

func main() {
	cfg, err := config.Load("passtheplate-predictor")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup("passtheplate-predictor", cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	var cache ports.CacheService
	if vc, err := valkey.New(cfg.Valkey.Addr); err != nil {
		slog.Warn("valkey unavailable", "error", err)
	} else {
		defer vc.Close()
		cache = vc
	}

	var events ports.EventPublisher
	if pub, err := natsadapter.NewPublisher(cfg.NATS.URL); err != nil {
		slog.Warn("nats unavailable, prediction changes will not be broadcast", "error", err)
	} else {
		defer pub.Close()
		events = pub
	}

	svc := usecases.NewPredictionService(
		mlapi.New(cfg.ML.BaseURL, time.Duration(cfg.ML.Timeout)*time.Second),
		postgres.NewPredictionRepo(db.Pool),
		cache,
		events,
	)

	interval := time.Duration(cfg.ML.PollInterval) * time.Second
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	slog.Info("predictor started", "interval", interval.String(), "ml_base_url", cfg.ML.BaseURL)

	// Run once immediately
	refresh(ctx, svc)

	for {
		select {
		case <-ticker.C:
			refresh(ctx, svc)
		case <-ctx.Done():
			slog.Info("predictor stopped")
			return
		}
	}
}

func refresh(ctx context.Context, svc *usecases.PredictionService) {
	ctx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()

	p, changed, err := svc.Refresh(ctx)
	if err != nil {
		slog.Warn("prediction refresh failed", "error", err)
		return
	}
	slog.Info("prediction refreshed",
		"location", p.LocationName, "score", p.PredictedNeedScore, "changed", changed)
}
