package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainpricing "stayrates/internal/domain/pricing"
	domainproperty "stayrates/internal/domain/property"
)

// AuditRepository is the append-only change log; entries are never updated
// or deleted.
type AuditRepository struct {
	col *mongo.Collection
}

func NewAuditRepository(db *mongo.Database) *AuditRepository {
	return &AuditRepository{col: db.Collection("pricing_audit")}
}

func (r *AuditRepository) Append(ctx context.Context, rec domainpricing.ChangeRecord) error {
	_, err := r.col.InsertOne(ctx, newChangeDocument(rec))
	return err
}

func (r *AuditRepository) ListByProperty(ctx context.Context, id domainproperty.ID, limit int) ([]domainpricing.ChangeRecord, error) {
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: -1}})
	if limit > 0 {
		opts = opts.SetLimit(int64(limit))
	}
	cursor, err := r.col.Find(ctx, bson.M{"property_id": string(id)}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var out []domainpricing.ChangeRecord
	for cursor.Next(ctx) {
		var doc changeDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.toRecord())
	}
	return out, cursor.Err()
}

type changeDocument struct {
	ID                 string           `bson:"_id"`
	PropertyID         string           `bson:"property_id"`
	ChangeType         string           `bson:"change_type"`
	Actor              string           `bson:"actor"`
	Timestamp          int64            `bson:"timestamp"`
	Before             *ruleSetDocument `bson:"before,omitempty"`
	After              *ruleSetDocument `bson:"after,omitempty"`
	AffectedSpan       *spanDocument    `bson:"affected_span,omitempty"`
	AffectedCategories []string         `bson:"affected_categories,omitempty"`
}

func newChangeDocument(rec domainpricing.ChangeRecord) changeDocument {
	doc := changeDocument{
		ID:                 rec.ID,
		PropertyID:         string(rec.PropertyID),
		ChangeType:         string(rec.ChangeType),
		Actor:              rec.Actor,
		Timestamp:          rec.Timestamp.UnixMilli(),
		AffectedCategories: rec.AffectedCategories,
	}
	if rec.Before != nil {
		before := newRuleSetDocument(rec.Before)
		doc.Before = &before
	}
	if rec.After != nil {
		after := newRuleSetDocument(rec.After)
		doc.After = &after
	}
	if rec.AffectedSpan != nil {
		span := newSpanDocument(*rec.AffectedSpan)
		doc.AffectedSpan = &span
	}
	return doc
}

func (d changeDocument) toRecord() domainpricing.ChangeRecord {
	rec := domainpricing.ChangeRecord{
		ID:                 d.ID,
		PropertyID:         domainproperty.ID(d.PropertyID),
		ChangeType:         domainpricing.ChangeType(d.ChangeType),
		Actor:              d.Actor,
		Timestamp:          timestampToTime(d.Timestamp),
		AffectedCategories: d.AffectedCategories,
	}
	if d.Before != nil {
		rec.Before = d.Before.toAggregate()
	}
	if d.After != nil {
		rec.After = d.After.toAggregate()
	}
	if d.AffectedSpan != nil {
		span := d.AffectedSpan.toSpan()
		rec.AffectedSpan = &span
	}
	return rec
}
