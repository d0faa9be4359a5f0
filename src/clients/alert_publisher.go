package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"activity-alerts-svc/src/internal/config"
	"activity-alerts-svc/src/internal/models"

	"github.com/sirupsen/logrus"
	"github.com/streadway/amqp"
)

// Channel is the subset of *amqp.Channel used to publish.
type Channel interface {
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

// AlertPublisher sends alert messages to the configured RabbitMQ exchange
type AlertPublisher struct {
	channel Channel
	cfg     *config.RabbitMQConfig
}

// NewAlertPublisher creates a publisher on an open channel
func NewAlertPublisher(cfg *config.RabbitMQConfig, channel Channel) *AlertPublisher {
	return &AlertPublisher{
		channel: channel,
		cfg:     cfg,
	}
}

// PublishAlert publishes msg as persistent JSON
func (p *AlertPublisher) PublishAlert(ctx context.Context, msg *models.AlertMessage) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", models.ErrPublishAlert, err)
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal alert message: %w", err)
	}

	err = p.channel.Publish(
		p.cfg.Exchange,
		p.cfg.RoutingKey,
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    msg.EventID,
			Body:         body,
			Timestamp:    time.Now(),
		},
	)
	if err != nil {
		logrus.WithError(err).Error("Failed to publish alert message")
		return fmt.Errorf("%w: %w", models.ErrPublishAlert, err)
	}

	logrus.WithFields(logrus.Fields{
		"event_id":    msg.EventID,
		"user_id":     msg.UserID,
		"alert_codes": msg.AlertCodes,
		"exchange":    p.cfg.Exchange,
		"routing_key": p.cfg.RoutingKey,
	}).Debug("Alert message published")

	return nil
}
