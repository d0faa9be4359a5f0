package event

import (
	"context"
	"fmt"
	"time"

	"activity-alerts-svc/src/clients"
	"activity-alerts-svc/src/internal/alert"
	"activity-alerts-svc/src/internal/models"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Repository is the event history store: the read contract used by the alert
// evaluator plus the write used by ingestion.
type Repository interface {
	alert.History
	Create(ctx context.Context, event *models.ActivityEvent) error
}

type eventDocument struct {
	ID              string               `bson:"_id"`
	TransactionType string               `bson:"transaction_type"`
	Amount          primitive.Decimal128 `bson:"amount"`
	UserID          int64                `bson:"user_id"`
	EventReceivedAt int64                `bson:"event_received_at"`
	CreatedAt       time.Time            `bson:"created_at"`
	UpdatedAt       time.Time            `bson:"updated_at"`
}

type eventRepository struct {
	collection *mongo.Collection
	now        func() time.Time
}

func NewEventRepository(mongoClient *clients.MongoDB, collectionName string, now func() time.Time) Repository {
	if now == nil {
		now = time.Now
	}
	return &eventRepository{
		collection: mongoClient.Database.Collection(collectionName),
		now:        now,
	}
}

// EnsureIndexes creates the indexes the history queries rely on.
func EnsureIndexes(ctx context.Context, repo Repository) error {
	r, ok := repo.(*eventRepository)
	if !ok {
		return nil
	}

	_, err := r.collection.Indexes().CreateMany(ctx, eventIndexes())
	if err != nil {
		logrus.WithError(err).Error("Failed to create activity event indexes")
		return storeError(models.ErrDatabaseQuery, err)
	}
	return nil
}

// eventIndexes serve the per-user history queries (filter on user_id, sort on
// event_received_at) and audit lookups.
func eventIndexes() []mongo.IndexModel {
	return []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "event_received_at", Value: 1}},
			Options: options.Index().SetName("idx_events_user_received_at"),
		},
		{
			Keys:    bson.D{{Key: "created_at", Value: 1}},
			Options: options.Index().SetName("idx_events_created_at"),
		},
	}
}

func (r *eventRepository) Create(ctx context.Context, event *models.ActivityEvent) error {
	now := r.now().UTC()
	event.CreatedAt = now
	event.UpdatedAt = now

	doc, err := toDocument(event)
	if err != nil {
		return storeError(models.ErrDatabaseInsert, err)
	}

	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		logrus.WithError(err).WithField("event_id", event.ID).Error("Failed to insert activity event")
		return storeError(models.ErrDatabaseInsert, err)
	}

	logrus.WithFields(logrus.Fields{
		"event_id": event.ID,
		"user_id":  event.UserID,
	}).Debug("Activity event inserted")
	return nil
}

func (r *eventRepository) ListEvents(ctx context.Context, userID int64, opts models.ListOptions) ([]*models.ActivityEvent, error) {
	findOpts := options.Find().SetSort(listSort(opts))

	cursor, err := r.collection.Find(ctx, listFilter(userID, opts), findOpts)
	if err != nil {
		logrus.WithError(err).WithField("user_id", userID).Error("Failed to find activity events")
		return nil, storeError(models.ErrDatabaseQuery, err)
	}
	defer cursor.Close(ctx)

	events := make([]*models.ActivityEvent, 0)
	for cursor.Next(ctx) {
		var doc eventDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, storeError(models.ErrDatabaseQuery, err)
		}
		event, err := fromDocument(&doc)
		if err != nil {
			return nil, storeError(models.ErrDatabaseQuery, err)
		}
		events = append(events, event)
	}

	if err := cursor.Err(); err != nil {
		logrus.WithError(err).Error("Cursor error")
		return nil, storeError(models.ErrDatabaseQuery, err)
	}

	return events, nil
}

func (r *eventRepository) SumDepositsInWindow(ctx context.Context, userID int64, window time.Duration) (decimal.Decimal, error) {
	cutoff := windowCutoff(r.now(), window)

	cursor, err := r.collection.Aggregate(ctx, windowPipeline(userID, cutoff))
	if err != nil {
		logrus.WithError(err).WithField("user_id", userID).Error("Failed to aggregate deposits")
		return decimal.Zero, storeError(models.ErrDatabaseQuery, err)
	}
	defer cursor.Close(ctx)

	var result struct {
		Total primitive.Decimal128 `bson:"total"`
	}
	if !cursor.Next(ctx) {
		if err := cursor.Err(); err != nil {
			return decimal.Zero, storeError(models.ErrDatabaseQuery, err)
		}
		return decimal.Zero, nil
	}
	if err := cursor.Decode(&result); err != nil {
		return decimal.Zero, storeError(models.ErrDatabaseQuery, err)
	}

	total, err := decimal.NewFromString(result.Total.String())
	if err != nil {
		return decimal.Zero, storeError(models.ErrDatabaseQuery, err)
	}
	return total, nil
}

// storeError keeps both the store sentinel and the driver cause reachable via
// errors.Is and records a stack for debug error payloads.
func storeError(kind, err error) error {
	return errors.WithStack(fmt.Errorf("%w: %w", kind, err))
}

func listFilter(userID int64, opts models.ListOptions) bson.M {
	filter := bson.M{"user_id": userID}
	if opts.TransactionType != "" {
		filter["transaction_type"] = string(opts.TransactionType)
	}
	return filter
}

// listSort breaks event_received_at ties by insertion time and id so repeated
// queries return the same order.
func listSort(opts models.ListOptions) bson.D {
	dir := -1
	if opts.Ascending {
		dir = 1
	}
	return bson.D{
		{Key: "event_received_at", Value: dir},
		{Key: "created_at", Value: dir},
		{Key: "_id", Value: dir},
	}
}

func windowPipeline(userID int64, cutoff int64) mongo.Pipeline {
	return mongo.Pipeline{
		{{Key: "$match", Value: bson.M{
			"user_id":           userID,
			"transaction_type":  string(models.TransactionDeposit),
			"event_received_at": bson.M{"$gte": cutoff},
		}}},
		{{Key: "$group", Value: bson.M{
			"_id":   nil,
			"total": bson.M{"$sum": "$amount"},
		}}},
	}
}

// windowCutoff is the earliest EventReceivedAt, in epoch seconds, inside window.
func windowCutoff(now time.Time, window time.Duration) int64 {
	return now.Add(-window).Unix()
}

func toDocument(event *models.ActivityEvent) (*eventDocument, error) {
	amount, err := primitive.ParseDecimal128(event.Amount.String())
	if err != nil {
		return nil, err
	}
	return &eventDocument{
		ID:              event.ID,
		TransactionType: string(event.TransactionType),
		Amount:          amount,
		UserID:          event.UserID,
		EventReceivedAt: event.EventReceivedAt,
		CreatedAt:       event.CreatedAt,
		UpdatedAt:       event.UpdatedAt,
	}, nil
}

func fromDocument(doc *eventDocument) (*models.ActivityEvent, error) {
	amount, err := decimal.NewFromString(doc.Amount.String())
	if err != nil {
		return nil, err
	}
	return &models.ActivityEvent{
		ID:              doc.ID,
		TransactionType: models.TransactionType(doc.TransactionType),
		Amount:          amount,
		UserID:          doc.UserID,
		EventReceivedAt: doc.EventReceivedAt,
		CreatedAt:       doc.CreatedAt,
		UpdatedAt:       doc.UpdatedAt,
	}, nil
}
