package mongo

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	domainpricing "stayrates/internal/domain/pricing"
	domainproperty "stayrates/internal/domain/property"
	"stayrates/internal/domain/shared/money"
)

// RateRowRepository stores the flattened projection. Rows are regenerated
// whole on every commit: ReplaceForProperty deletes and reinserts.
type RateRowRepository struct {
	col *mongo.Collection
}

func NewRateRowRepository(db *mongo.Database) *RateRowRepository {
	return &RateRowRepository{col: db.Collection("pricing_rate_rows")}
}

func (r *RateRowRepository) ListByProperty(ctx context.Context, id domainproperty.ID) ([]domainpricing.RateRow, error) {
	cursor, err := r.col.Find(ctx, bson.M{"property_id": string(id)})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var out []domainpricing.RateRow
	for cursor.Next(ctx) {
		var doc rateRowDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, doc.toRow())
	}
	return out, cursor.Err()
}

func (r *RateRowRepository) ReplaceForProperty(ctx context.Context, id domainproperty.ID, rows []domainpricing.RateRow) error {
	if _, err := r.col.DeleteMany(ctx, bson.M{"property_id": string(id)}); err != nil {
		return err
	}
	if len(rows) == 0 {
		return nil
	}
	docs := make([]interface{}, 0, len(rows))
	for _, row := range rows {
		docs = append(docs, newRateRowDocument(row))
	}
	_, err := r.col.InsertMany(ctx, docs)
	return err
}

type rateRowDocument struct {
	PropertyID   string        `bson:"property_id"`
	RoomCategory string        `bson:"room_category"`
	Plan         string        `bson:"plan"`
	Occupancy    string        `bson:"occupancy"`
	Price        int64         `bson:"price"`
	Currency     string        `bson:"currency"`
	Span         *spanDocument `bson:"span,omitempty"`
	Source       string        `bson:"rule_type"`
	Active       bool          `bson:"active"`
	Available    bool          `bson:"available"`
}

func newRateRowDocument(row domainpricing.RateRow) rateRowDocument {
	doc := rateRowDocument{
		PropertyID:   string(row.PropertyID),
		RoomCategory: row.RoomCategory,
		Plan:         string(row.Plan),
		Occupancy:    string(row.Occupancy),
		Price:        row.Price.Amount,
		Currency:     row.Price.Currency,
		Source:       string(row.Source),
		Active:       row.Active,
		Available:    row.Available,
	}
	if !row.Span.IsZero() {
		span := newSpanDocument(row.Span)
		doc.Span = &span
	}
	return doc
}

func (d rateRowDocument) toRow() domainpricing.RateRow {
	row := domainpricing.RateRow{
		PropertyID:   domainproperty.ID(d.PropertyID),
		RoomCategory: d.RoomCategory,
		Plan:         domainpricing.PlanType(d.Plan),
		Occupancy:    domainpricing.OccupancyType(d.Occupancy),
		Price:        money.Money{Amount: d.Price, Currency: d.Currency},
		Source:       domainpricing.RuleSource(d.Source),
		Active:       d.Active,
		Available:    d.Available,
	}
	if d.Span != nil {
		row.Span = d.Span.toSpan()
	}
	return row
}
