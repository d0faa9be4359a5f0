package event

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"activity-alerts-svc/src/internal/alert"
	"activity-alerts-svc/src/internal/lock"
	"activity-alerts-svc/src/internal/metrics"
	"activity-alerts-svc/src/internal/models"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type Service interface {
	CreateEvent(ctx context.Context, req *CreateEventRequest) (*models.AlertResponse, error)
	ListEvents(ctx context.Context, userID int64, opts models.ListOptions) ([]*models.ActivityEvent, error)
}

// AlertPublisher delivers alert notifications downstream.
type AlertPublisher interface {
	PublishAlert(ctx context.Context, msg *models.AlertMessage) error
}

type eventService struct {
	repository Repository
	evaluator  *alert.Evaluator
	locker     lock.Locker
	publisher  AlertPublisher
	now        func() time.Time
}

// NewEventService wires ingestion. publisher may be nil when no queue is configured.
func NewEventService(repository Repository, evaluator *alert.Evaluator, locker lock.Locker, publisher AlertPublisher) Service {
	return &eventService{
		repository: repository,
		evaluator:  evaluator,
		locker:     locker,
		publisher:  publisher,
		now:        time.Now,
	}
}

// CreateEvent evaluates req against the user's prior history, then persists it
// whatever the outcome. Both steps run under the user's lock so concurrent
// requests for one user see each other's events.
func (s *eventService) CreateEvent(ctx context.Context, req *CreateEventRequest) (*models.AlertResponse, error) {
	if !req.Amount.IsPositive() {
		metrics.EventsRejected.WithLabelValues(metrics.ReasonNonPositive).Inc()
		return nil, models.ErrNonPositiveAmount
	}

	event := &models.ActivityEvent{
		ID:              uuid.NewString(),
		TransactionType: req.TransactionType,
		Amount:          req.Amount,
		UserID:          req.UserID,
		EventReceivedAt: req.EventReceivedAt,
	}

	release, err := s.locker.Acquire(ctx, lock.UserKey(event.UserID))
	if err != nil {
		if errors.Is(err, models.ErrLockTimeout) {
			metrics.EventsRejected.WithLabelValues(metrics.ReasonLockTimeout).Inc()
		}
		return nil, err
	}
	defer release()

	start := s.now()
	response, err := s.evaluator.Evaluate(ctx, event.UserID, event)
	metrics.EvaluationDuration.Observe(float64(s.now().Sub(start).Microseconds()) / 1000)
	if err != nil {
		metrics.EventsRejected.WithLabelValues(metrics.ReasonEvaluation).Inc()
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"user_id":     event.UserID,
		"alert_codes": response.AlertCodes,
	}).Debug("Checked alerts")

	if err := s.repository.Create(ctx, event); err != nil {
		metrics.EventsRejected.WithLabelValues(metrics.ReasonPersistFailure).Inc()
		return nil, fmt.Errorf("%w: %w", models.ErrEventPersist, err)
	}

	logrus.WithField("event_id", event.ID).Debug("Event created")

	metrics.EventsIngested.WithLabelValues(string(event.TransactionType)).Inc()
	for _, code := range response.AlertCodes {
		metrics.AlertsTriggered.WithLabelValues(strconv.Itoa(code)).Inc()
	}

	if response.Alert {
		s.publish(ctx, event, response)
	}

	return response, nil
}

// publish is best effort: the event is already stored and the caller still
// gets its alert codes.
func (s *eventService) publish(ctx context.Context, event *models.ActivityEvent, response *models.AlertResponse) {
	if s.publisher == nil {
		return
	}

	msg := &models.AlertMessage{
		EventID:         event.ID,
		UserID:          event.UserID,
		TransactionType: event.TransactionType,
		Amount:          event.Amount,
		EventReceivedAt: event.EventReceivedAt,
		AlertCodes:      response.AlertCodes,
		EvaluatedAt:     s.now().UTC(),
	}

	if err := s.publisher.PublishAlert(ctx, msg); err != nil {
		metrics.PublishFailures.Inc()
		logrus.WithError(err).WithFields(logrus.Fields{
			"event_id": event.ID,
			"user_id":  event.UserID,
		}).Error("Failed to publish alert")
	}
}

func (s *eventService) ListEvents(ctx context.Context, userID int64, opts models.ListOptions) ([]*models.ActivityEvent, error) {
	events, err := s.repository.ListEvents(ctx, userID, opts)
	if err != nil {
		logrus.WithError(err).WithField("user_id", userID).Error("Failed to list events")
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"user_id": userID,
		"count":   len(events),
	}).Debug("Listed events")
	return events, nil
}
