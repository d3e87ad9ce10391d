package mongo

import (
	"context"
	"errors"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	domainpricing "stayrates/internal/domain/pricing"
	domainproperty "stayrates/internal/domain/property"
	"stayrates/internal/domain/shared/money"
)

var ErrConcurrentUpdate = errors.New("mongo: concurrent update detected")

// RuleSetRepository persists the pricing document, one per property, with an
// optimistic version check on writes.
type RuleSetRepository struct {
	col *mongo.Collection
}

func NewRuleSetRepository(db *mongo.Database) *RuleSetRepository {
	return &RuleSetRepository{col: db.Collection("pricing_rules")}
}

func (r *RuleSetRepository) ByProperty(ctx context.Context, id domainproperty.ID) (*domainpricing.RuleSet, error) {
	var doc ruleSetDocument
	if err := r.col.FindOne(ctx, bson.M{"_id": string(id)}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domainpricing.ErrRuleSetNotFound
		}
		return nil, err
	}
	return doc.toAggregate(), nil
}

// Save replaces the whole document. Write serialization comes from the
// per-property edit lock, and saga compensation must be able to restore an
// older version, so no optimistic version filter is applied here.
func (r *RuleSetRepository) Save(ctx context.Context, rs *domainpricing.RuleSet) error {
	doc := newRuleSetDocument(rs)
	opts := options.Replace().SetUpsert(true)
	if _, err := r.col.ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, opts); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrConcurrentUpdate
		}
		return err
	}
	return nil
}

func (r *RuleSetRepository) Delete(ctx context.Context, id domainproperty.ID) error {
	_, err := r.col.DeleteOne(ctx, bson.M{"_id": string(id)})
	return err
}

type spanDocument struct {
	Start int64 `bson:"start"`
	End   int64 `bson:"end"`
}

type overrideDocument struct {
	Span         spanDocument `bson:"span"`
	Price        int64        `bson:"price"`
	RoomCategory string       `bson:"room_category,omitempty"`
	Active       bool         `bson:"active"`
}

type blockDocument struct {
	Span   spanDocument `bson:"span"`
	Reason string       `bson:"reason"`
	Active bool         `bson:"active"`
}

type seasonalDocument struct {
	Span         spanDocument `bson:"span"`
	Multiplier   float64      `bson:"multiplier"`
	RoomCategory string       `bson:"room_category,omitempty"`
	Active       bool         `bson:"active"`
}

type demandDocument struct {
	Enabled            bool    `bson:"enabled"`
	OccupancyThreshold int     `bson:"occupancy_threshold"`
	Multiplier         float64 `bson:"multiplier"`
	MaxIncreasePercent float64 `bson:"max_increase_percent"`
}

type planRateDocument struct {
	RoomCategory string       `bson:"room_category"`
	Plan         string       `bson:"plan"`
	Occupancy    string       `bson:"occupancy"`
	Price        int64        `bson:"price"`
	Span         spanDocument `bson:"span"`
	Active       bool         `bson:"active"`
}

type ruleSetDocument struct {
	ID             string             `bson:"_id"`
	Currency       string             `bson:"currency"`
	BasePrice      int64              `bson:"base_price"`
	Overrides      []overrideDocument `bson:"custom_overrides,omitempty"`
	Blocks         []blockDocument    `bson:"blocked_dates,omitempty"`
	Seasonal       []seasonalDocument `bson:"seasonal_rules,omitempty"`
	Demand         *demandDocument    `bson:"demand_rule,omitempty"`
	RateTable      []planRateDocument `bson:"rate_table,omitempty"`
	TaxRate        float64            `bson:"tax_rate"`
	ServiceFeeRate float64            `bson:"service_fee_rate"`
	Version        int64              `bson:"version"`
	UpdatedAt      int64              `bson:"updated_at"`
}

func newRuleSetDocument(rs *domainpricing.RuleSet) ruleSetDocument {
	doc := ruleSetDocument{
		ID:             string(rs.PropertyID),
		Currency:       rs.Currency,
		BasePrice:      rs.BasePrice.Amount,
		TaxRate:        rs.TaxRate,
		ServiceFeeRate: rs.ServiceFeeRate,
		Version:        rs.Version,
		UpdatedAt:      rs.UpdatedAt.UnixMilli(),
	}
	for _, ov := range rs.CustomOverrides {
		doc.Overrides = append(doc.Overrides, overrideDocument{
			Span:         newSpanDocument(ov.Span),
			Price:        ov.Price.Amount,
			RoomCategory: ov.RoomCategory,
			Active:       ov.Active,
		})
	}
	for _, b := range rs.BlockedDates {
		doc.Blocks = append(doc.Blocks, blockDocument{
			Span:   newSpanDocument(b.Span),
			Reason: b.Reason,
			Active: b.Active,
		})
	}
	for _, sr := range rs.SeasonalRules {
		doc.Seasonal = append(doc.Seasonal, seasonalDocument{
			Span:         newSpanDocument(sr.Span),
			Multiplier:   sr.Multiplier,
			RoomCategory: sr.RoomCategory,
			Active:       sr.Active,
		})
	}
	if rs.DemandRule != nil {
		doc.Demand = &demandDocument{
			Enabled:            rs.DemandRule.Enabled,
			OccupancyThreshold: rs.DemandRule.OccupancyThreshold,
			Multiplier:         rs.DemandRule.Multiplier,
			MaxIncreasePercent: rs.DemandRule.MaxIncreasePercent,
		}
	}
	for _, pr := range rs.RateTable {
		doc.RateTable = append(doc.RateTable, planRateDocument{
			RoomCategory: pr.RoomCategory,
			Plan:         string(pr.Plan),
			Occupancy:    string(pr.Occupancy),
			Price:        pr.Price.Amount,
			Span:         newSpanDocument(pr.Span),
			Active:       pr.Active,
		})
	}
	return doc
}

func (d ruleSetDocument) toAggregate() *domainpricing.RuleSet {
	rs := &domainpricing.RuleSet{
		PropertyID:     domainproperty.ID(d.ID),
		Currency:       d.Currency,
		BasePrice:      money.Money{Amount: d.BasePrice, Currency: d.Currency},
		TaxRate:        d.TaxRate,
		ServiceFeeRate: d.ServiceFeeRate,
		Version:        d.Version,
		UpdatedAt:      timestampToTime(d.UpdatedAt),
	}
	for _, ov := range d.Overrides {
		rs.CustomOverrides = append(rs.CustomOverrides, domainpricing.CustomOverride{
			Span:         ov.Span.toSpan(),
			Price:        money.Money{Amount: ov.Price, Currency: d.Currency},
			RoomCategory: ov.RoomCategory,
			Active:       ov.Active,
		})
	}
	for _, b := range d.Blocks {
		rs.BlockedDates = append(rs.BlockedDates, domainpricing.DateBlock{
			Span:   b.Span.toSpan(),
			Reason: b.Reason,
			Active: b.Active,
		})
	}
	for _, sr := range d.Seasonal {
		rs.SeasonalRules = append(rs.SeasonalRules, domainpricing.SeasonalRule{
			Span:         sr.Span.toSpan(),
			Multiplier:   sr.Multiplier,
			RoomCategory: sr.RoomCategory,
			Active:       sr.Active,
		})
	}
	if d.Demand != nil {
		rs.DemandRule = &domainpricing.DemandRule{
			Enabled:            d.Demand.Enabled,
			OccupancyThreshold: d.Demand.OccupancyThreshold,
			Multiplier:         d.Demand.Multiplier,
			MaxIncreasePercent: d.Demand.MaxIncreasePercent,
		}
	}
	for _, pr := range d.RateTable {
		rs.RateTable = append(rs.RateTable, domainpricing.PlanRate{
			RoomCategory: pr.RoomCategory,
			Plan:         domainpricing.PlanType(pr.Plan),
			Occupancy:    domainpricing.OccupancyType(pr.Occupancy),
			Price:        money.Money{Amount: pr.Price, Currency: d.Currency},
			Span:         pr.Span.toSpan(),
			Active:       pr.Active,
		})
	}
	return rs
}

func newSpanDocument(s domainpricing.DateSpan) spanDocument {
	return spanDocument{Start: s.Start.UnixMilli(), End: s.End.UnixMilli()}
}

func (d spanDocument) toSpan() domainpricing.DateSpan {
	return domainpricing.DateSpan{Start: timestampToTime(d.Start), End: timestampToTime(d.End)}
}

func timestampToTime(ms int64) time.Time {
	return time.UnixMilli(ms).UTC()
}
