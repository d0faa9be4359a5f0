package main

import (
	"activity-alerts-svc/src/internal/config"
	"activity-alerts-svc/src/internal/logger"
	"activity-alerts-svc/src/internal/server"

	"github.com/sirupsen/logrus"
)

func main() {
	cfg := config.Load()
	logger.Init(cfg)

	entry := logrus.WithFields(startupFields(cfg))
	entry.Info("Starting activity alerts service")

	if err := server.New(cfg).Start(); err != nil {
		entry.WithError(err).Fatal("Activity alerts service stopped")
	}
	entry.Info("Activity alerts service exited")
}

func startupFields(cfg *config.Configuration) logrus.Fields {
	return logrus.Fields{
		"service": cfg.App.Name,
		"version": cfg.App.Version,
		"env":     cfg.App.Env,
		"store":   cfg.Database.Driver,
		"redis":   cfg.Redis.Enabled,
		"queue":   cfg.Queue.RabbitMQ.Enabled,
	}
}
