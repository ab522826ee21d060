package consumers

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/nats-io/stan.go"

	"theatre/internal/cache"
	"theatre/internal/config"
	"theatre/internal/database"
	"theatre/internal/messaging"
	"theatre/internal/models"
	"theatre/internal/repository"
)

const queueGroup = "stats"

type ConsumerService struct {
	db       *database.DB
	nats     *messaging.NATSClient
	valkey   *cache.ValkeyClient
	repos    *repository.Repositories
	handlers *Handlers
	subs     []stan.Subscription
}

func NewConsumerService(cfg *config.Config) (*ConsumerService, error) {
	db, err := database.Connect(cfg.Database)
	if err != nil {
		return nil, err
	}

	natsClient, err := messaging.NewNATSClient(cfg.NATS)
	if err != nil {
		db.Close()
		return nil, err
	}

	valkey, err := cache.NewValkeyClient(cfg.Redis)
	if err != nil {
		natsClient.Close()
		db.Close()
		return nil, err
	}

	repos := repository.NewRepositories(db)

	return &ConsumerService{
		db:       db,
		nats:     natsClient,
		valkey:   valkey,
		repos:    repos,
		handlers: NewHandlers(repos.Orders, valkey),
	}, nil
}

// Sales and Sink expose the stats pipeline ends for background jobs.
func (cs *ConsumerService) Sales() SalesSource { return cs.repos.Orders }
func (cs *ConsumerService) Sink() StatsSink   { return cs.valkey }

func (cs *ConsumerService) Start() error {
	slog.Info("Starting NATS consumers...")

	sub, err := cs.nats.SubscribeQueue(models.EventOrderPlaced, queueGroup, cs.handlers.HandleOrderPlaced)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", models.EventOrderPlaced, err)
	}
	cs.subs = append(cs.subs, sub)

	slog.Info("All consumers started successfully")
	return nil
}

func (cs *ConsumerService) Shutdown(ctx context.Context) error {
	slog.Info("Shutting down consumer service...")

	for _, sub := range cs.subs {
		// Close keeps the durable subscription for the next start.
		if err := sub.Close(); err != nil {
			slog.Error("Error closing subscription", "error", err)
		}
	}

	if err := cs.nats.Close(); err != nil {
		slog.Error("Error closing NATS connection", "error", err)
	}

	if cs.valkey != nil {
		if err := cs.valkey.Close(); err != nil {
			slog.Error("Error closing Redis connection", "error", err)
		}
	}

	if cs.db != nil {
		if err := cs.db.Close(); err != nil {
			slog.Error("Error closing database connection", "error", err)
			return err
		}
	}

	return nil
}
