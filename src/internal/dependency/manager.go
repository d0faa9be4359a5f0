package dependency

import (
	"context"

	"activity-alerts-svc/src/clients"
	"activity-alerts-svc/src/internal/alert"
	"activity-alerts-svc/src/internal/config"
	"activity-alerts-svc/src/internal/event"
	"activity-alerts-svc/src/internal/lock"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// Manager holds the wired application graph. Mongodb, Redis and RabbitMQ are
// nil when the corresponding backend is disabled.
type Manager struct {
	Router          *gin.Engine
	Config          *config.Configuration
	Mongodb         *clients.MongoDB
	Redis           *clients.RedisClient
	RabbitMQ        *clients.RabbitMQ
	EventRepository event.Repository
	Evaluator       *alert.Evaluator
	EventService    event.Service
	EventHandler    event.Handler
}

func NewDependencyManager(router *gin.Engine,
	mongodb *clients.MongoDB,
	redisClient *clients.RedisClient,
	rabbitMQ *clients.RabbitMQ,
	cfg *config.Configuration) (*Manager, error) {
	rules, err := alert.RulesFromConfig(&cfg.Rules)
	if err != nil {
		return nil, err
	}

	var repository event.Repository
	if mongodb != nil {
		repository = event.NewEventRepository(mongodb, cfg.Database.EventCollection, nil)
		ctx, cancel := context.WithTimeout(context.Background(), cfg.RequestTimeout())
		defer cancel()
		if err := event.EnsureIndexes(ctx, repository); err != nil {
			return nil, err
		}
	} else {
		logrus.Warn("Using in-memory event store")
		repository = event.NewMemoryRepository(nil)
	}

	var locker lock.Locker
	if redisClient != nil {
		locker = lock.NewRedisLocker(redisClient.Client, &cfg.Redis)
	} else {
		logrus.Warn("Redis disabled, using process-local user locks")
		locker = lock.NewMemoryLocker()
	}

	var publisher event.AlertPublisher
	if rabbitMQ != nil {
		publisher = clients.NewAlertPublisher(&cfg.Queue.RabbitMQ, rabbitMQ.Channel)
	}

	evaluator := alert.NewEvaluator(repository, rules)
	eventService := event.NewEventService(repository, evaluator, locker, publisher)
	eventHandler := event.NewHandler(cfg, eventService)

	return &Manager{
		Router:          router,
		Config:          cfg,
		Mongodb:         mongodb,
		Redis:           redisClient,
		RabbitMQ:        rabbitMQ,
		EventRepository: repository,
		Evaluator:       evaluator,
		EventService:    eventService,
		EventHandler:    eventHandler,
	}, nil
}
