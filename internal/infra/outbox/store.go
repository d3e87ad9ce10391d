package outbox

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	appoutbox "stayrates/internal/app/outbox"
)

const (
	statusPending = "pending"
	statusSent    = "sent"
)

// EventDocument is the persisted form of a buffered integration event.
type EventDocument struct {
	ID         string            `bson:"_id"`
	Name       string            `bson:"name"`
	Payload    []byte            `bson:"payload"`
	OccurredAt time.Time         `bson:"occurred_at"`
	Aggregate  string            `bson:"aggregate"`
	Headers    map[string]string `bson:"headers,omitempty"`
	Status     string            `bson:"status"`
	Attempts   int               `bson:"attempts"`
	NextRetry  time.Time         `bson:"next_retry"`
	ClaimedBy  string            `bson:"claimed_by,omitempty"`
	LastError  string            `bson:"last_error,omitempty"`
}

// Store persists outbox events in Mongo. Add runs inside the command's
// session context, so the event commits atomically with the state change;
// the worker drains committed events afterwards.
type Store struct {
	col *mongo.Collection
}

func NewStore(db *mongo.Database) *Store {
	return &Store{col: db.Collection("outbox_events")}
}

func (s *Store) Add(ctx context.Context, record appoutbox.EventRecord) error {
	doc := EventDocument{
		ID:         record.ID,
		Name:       record.Name,
		Payload:    record.Payload,
		OccurredAt: record.OccurredAt,
		Aggregate:  record.Aggregate,
		Headers:    record.Headers,
		Status:     statusPending,
		NextRetry:  time.Now(),
	}
	_, err := s.col.InsertOne(ctx, doc)
	return err
}

// Flush is a no-op: the polling worker owns delivery.
func (s *Store) Flush(ctx context.Context) error {
	return nil
}

// Claim atomically takes one due pending event for the given worker.
func (s *Store) Claim(ctx context.Context, workerID string) (*EventDocument, error) {
	filter := bson.M{
		"status":     statusPending,
		"next_retry": bson.M{"$lte": time.Now()},
	}
	update := bson.M{"$set": bson.M{"claimed_by": workerID}}
	opts := options.FindOneAndUpdate().
		SetSort(bson.D{{Key: "occurred_at", Value: 1}}).
		SetReturnDocument(options.After)

	var doc EventDocument
	err := s.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &doc, nil
}

func (s *Store) MarkSent(ctx context.Context, id string) error {
	_, err := s.col.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": bson.M{"status": statusSent}})
	return err
}

func (s *Store) MarkFailed(ctx context.Context, id string, nextRetry time.Time, reason string) error {
	update := bson.M{
		"$set": bson.M{"next_retry": nextRetry, "last_error": reason},
		"$inc": bson.M{"attempts": 1},
	}
	_, err := s.col.UpdateOne(ctx, bson.M{"_id": id}, update)
	return err
}

var _ appoutbox.Outbox = (*Store)(nil)
