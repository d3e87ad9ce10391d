package mongo

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainproperty "stayrates/internal/domain/property"
	"stayrates/internal/domain/shared/money"
)

type PropertyRepository struct {
	col *mongo.Collection
}

func NewPropertyRepository(db *mongo.Database) *PropertyRepository {
	return &PropertyRepository{col: db.Collection("properties")}
}

func (r *PropertyRepository) ByID(ctx context.Context, id domainproperty.ID) (*domainproperty.Property, error) {
	var doc propertyDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainproperty.ErrNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

func (r *PropertyRepository) Save(ctx context.Context, prop *domainproperty.Property) error {
	doc := newPropertyDocument(prop)
	opts := options.Replace().SetUpsert(true)
	_, err := r.col.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, opts)
	return err
}

type categoryDocument struct {
	Code     string `bson:"code"`
	Name     string `bson:"name"`
	BaseRate int64  `bson:"base_rate"`
	Units    int    `bson:"units"`
}

type propertyDocument struct {
	ID         string             `bson:"_id"`
	HostID     string             `bson:"host_id"`
	Name       string             `bson:"name"`
	City       string             `bson:"city"`
	Region     string             `bson:"region"`
	Currency   string             `bson:"currency"`
	UnitCount  int                `bson:"unit_count"`
	Categories []categoryDocument `bson:"categories,omitempty"`
}

func newPropertyDocument(p *domainproperty.Property) propertyDocument {
	doc := propertyDocument{
		ID:        string(p.ID),
		HostID:    p.HostID,
		Name:      p.Name,
		City:      p.City,
		Region:    p.Region,
		Currency:  p.Currency,
		UnitCount: p.UnitCount,
	}
	for _, c := range p.Categories {
		doc.Categories = append(doc.Categories, categoryDocument{
			Code:     c.Code,
			Name:     c.Name,
			BaseRate: c.BaseRate.Amount,
			Units:    c.Units,
		})
	}
	return doc
}

func (d propertyDocument) toAggregate() *domainproperty.Property {
	p := &domainproperty.Property{
		ID:        domainproperty.ID(d.ID),
		HostID:    d.HostID,
		Name:      d.Name,
		City:      d.City,
		Region:    d.Region,
		Currency:  d.Currency,
		UnitCount: d.UnitCount,
	}
	for _, c := range d.Categories {
		p.Categories = append(p.Categories, domainproperty.RoomCategory{
			Code:     c.Code,
			Name:     c.Name,
			BaseRate: money.Money{Amount: c.BaseRate, Currency: d.Currency},
			Units:    c.Units,
		})
	}
	return p
}
