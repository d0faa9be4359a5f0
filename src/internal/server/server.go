package server

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"activity-alerts-svc/src/clients"
	"activity-alerts-svc/src/internal/config"
	"activity-alerts-svc/src/internal/dependency"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

const shutdownTimeout = 10 * time.Second

var log = logrus.StandardLogger()

type Server struct {
	cfg *config.Configuration
}

func New(cfg *config.Configuration) *Server {
	return &Server{cfg: cfg}
}

// Start connects the configured backends, serves HTTP and blocks until
// SIGINT/SIGTERM, then drains in-flight requests.
func (s *Server) Start() error {
	cfg := s.cfg
	gin.SetMode(cfg.Server.Mode)

	mongodb, redisClient, rabbitMQ, err := connect(cfg)
	if err != nil {
		return err
	}
	defer closeClients(mongodb, redisClient, rabbitMQ)

	router := gin.New()
	deps, err := dependency.NewDependencyManager(router, mongodb, redisClient, rabbitMQ, cfg)
	if err != nil {
		return err
	}
	SetupRoutes(deps)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		IdleTimeout:  time.Duration(cfg.Server.IdleTimeout) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("Starting server on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		log.WithField("signal", sig.String()).Info("Shutting down server...")
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		return err
	}

	log.Info("Server stopped")
	return nil
}

func connect(cfg *config.Configuration) (*clients.MongoDB, *clients.RedisClient, *clients.RabbitMQ, error) {
	var (
		mongodb     *clients.MongoDB
		redisClient *clients.RedisClient
		rabbitMQ    *clients.RabbitMQ
		err         error
	)

	if cfg.Database.Driver == config.DriverMongoDB {
		if mongodb, err = clients.NewMongoDB(&cfg.Database); err != nil {
			return nil, nil, nil, err
		}
	}

	if cfg.Redis.Enabled {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.RequestTimeout())
		redisClient, err = clients.NewRedisClient(ctx, &cfg.Redis)
		cancel()
		if err != nil {
			closeClients(mongodb, nil, nil)
			return nil, nil, nil, err
		}
	}

	if cfg.Queue.RabbitMQ.Enabled {
		if rabbitMQ, err = clients.NewRabbitMQ(&cfg.Queue.RabbitMQ); err != nil {
			closeClients(mongodb, redisClient, nil)
			return nil, nil, nil, err
		}
		if err = rabbitMQ.SetupExchange(); err != nil {
			closeClients(mongodb, redisClient, rabbitMQ)
			return nil, nil, nil, err
		}
	}

	return mongodb, redisClient, rabbitMQ, nil
}

func closeClients(mongodb *clients.MongoDB, redisClient *clients.RedisClient, rabbitMQ *clients.RabbitMQ) {
	if rabbitMQ != nil {
		_ = rabbitMQ.Close()
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}
	if mongodb != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		_ = mongodb.Close(ctx)
	}
}
