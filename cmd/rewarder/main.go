package main

import (
	"context"
	"log"
	"log/slog"

	"go.temporal.io/sdk/worker"

	natsadapter "github.com/marcdasilva/passtheplate/internal/adapters/nats"
	"github.com/marcdasilva/passtheplate/internal/adapters/postgres"
	"github.com/marcdasilva/passtheplate/internal/adapters/temporal"
	"github.com/marcdasilva/passtheplate/internal/core/usecases"
	"github.com/marcdasilva/passtheplate/internal/pkg/config"
	"github.com/marcdasilva/passtheplate/internal/pkg/logging"
	"github.com/marcdasilva/passtheplate/internal/workflows"
)

func main() {
	cfg, err := config.Load("passtheplate-rewarder")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup("passtheplate-rewarder", cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	profiles := postgres.NewProfileRepo(db.Pool)
	redemptions := postgres.NewRedemptionRepo(db.Pool)

	c, err := temporal.Dial(cfg.Temporal.HostPort, cfg.Temporal.Namespace)
	if err != nil {
		log.Fatalf("temporal client: %v", err)
	}
	defer c.Close()

	rewards := usecases.NewRewardService(profiles, redemptions,
		temporal.NewStarter(c, cfg.Temporal.TaskQueue), nil,
		cfg.Rewards.RedeemCost, cfg.Rewards.CompletionPoints)

	// Push confirmations go out over core NATS to the user's WebSocket.
	activities := &workflows.RedemptionActivities{
		Redemptions: redemptions,
		Rewards:     rewards,
	}
	if nc, err := natsadapter.RawConn(cfg.NATS.URL); err != nil {
		slog.Warn("nats unavailable, confirmations will only be logged", "error", err)
	} else {
		defer nc.Close()
		activities.Notifier = natsadapter.NewNotifier(nc)
	}

	// Completed donations award points to their donor.
	sub, err := natsadapter.NewSubscriber(cfg.NATS.URL)
	if err != nil {
		log.Fatalf("nats subscriber: %v", err)
	}
	defer sub.Close()
	if err := sub.SubscribeDonationsCompleted(ctx, rewards.AwardCompletion); err != nil {
		log.Fatalf("subscribe: %v", err)
	}

	w := worker.New(c, cfg.Temporal.TaskQueue, worker.Options{})
	w.RegisterWorkflow(workflows.GiftCardRedemptionWorkflow)
	w.RegisterActivity(activities)

	slog.Info("rewarder worker started", "task_queue", cfg.Temporal.TaskQueue)
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatalf("worker: %v", err)
	}
	slog.Info("rewarder stopped")
}
