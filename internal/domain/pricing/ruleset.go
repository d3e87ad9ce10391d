package pricing

import (
	"context"
	"strconv"
	"strings"
	"time"

	"stayrates/internal/domain/property"
	"stayrates/internal/domain/shared/events"
	"stayrates/internal/domain/shared/money"
)

// MaxRatePerNight bounds any configured nightly price, in whole currency units.
const MaxRatePerNight int64 = 1_000_000

type PlanType string

const (
	PlanEP  PlanType = "EP"
	PlanCP  PlanType = "CP"
	PlanMAP PlanType = "MAP"
	PlanAP  PlanType = "AP"
)

// ParsePlanType accepts the four meal-plan codes, case-insensitive.
func ParsePlanType(raw string) (PlanType, bool) {
	switch PlanType(strings.ToUpper(strings.TrimSpace(raw))) {
	case PlanEP:
		return PlanEP, true
	case PlanCP:
		return PlanCP, true
	case PlanMAP:
		return PlanMAP, true
	case PlanAP:
		return PlanAP, true
	}
	return "", false
}

type OccupancyType string

const (
	OccupancySingle OccupancyType = "SINGLE"
	OccupancyDouble OccupancyType = "DOUBLE"
	OccupancyTriple OccupancyType = "TRIPLE"
	OccupancyQuad   OccupancyType = "QUAD"
)

// NormalizeOccupancy matches by substring so spreadsheet variants like
// "Triple Sharing" or "double occupancy" still resolve.
func NormalizeOccupancy(raw string) (OccupancyType, bool) {
	up := strings.ToUpper(strings.TrimSpace(raw))
	for _, o := range []OccupancyType{OccupancySingle, OccupancyDouble, OccupancyTriple, OccupancyQuad} {
		if strings.Contains(up, string(o)) {
			return o, true
		}
	}
	return "", false
}

// CustomOverride is an authoritative fixed nightly price for a date span;
// it bypasses every multiplier. Empty RoomCategory applies to all categories.
type CustomOverride struct {
	Span         DateSpan
	Price        money.Money
	RoomCategory string
	Active       bool
}

func (o CustomOverride) matches(category string) bool {
	return o.RoomCategory == "" || o.RoomCategory == category
}

// DateBlock makes a span unbookable independent of price.
type DateBlock struct {
	Span   DateSpan
	Reason string
	Active bool
}

// SeasonalRule multiplies the base price; overlapping active rules stack
// multiplicatively, order never matters.
type SeasonalRule struct {
	Span         DateSpan
	Multiplier   float64
	RoomCategory string
	Active       bool
}

func (r SeasonalRule) matches(category string) bool {
	return r.RoomCategory == "" || r.RoomCategory == category
}

// DemandRule surcharges nights whose occupancy reaches the threshold, with
// the total increase over base capped at MaxIncreasePercent.
type DemandRule struct {
	Enabled            bool
	OccupancyThreshold int
	Multiplier         float64
	MaxIncreasePercent float64
}

// PlanRate is one category/plan/occupancy rate window, typically loaded via
// bulk import; PlanRates back the base_rate rows of the projection.
type PlanRate struct {
	RoomCategory string
	Plan         PlanType
	Occupancy    OccupancyType
	Price        money.Money
	Span         DateSpan
	Active       bool
}

// RuleSet is the root pricing configuration for a property: one logical
// document, mutated only through the pricing transaction saga.
type RuleSet struct {
	PropertyID      property.ID
	Currency        string
	BasePrice       money.Money
	CustomOverrides []CustomOverride
	BlockedDates    []DateBlock
	SeasonalRules   []SeasonalRule
	DemandRule      *DemandRule
	RateTable       []PlanRate
	TaxRate         float64
	ServiceFeeRate  float64
	Version         int64
	UpdatedAt       time.Time

	events.Recorder `bson:"-" json:"-"`
}

// NewRuleSet builds the minimal configuration every property starts with.
func NewRuleSet(id property.ID, base money.Money) *RuleSet {
	return &RuleSet{PropertyID: id, Currency: base.Currency, BasePrice: base}
}

// DefaultRuleSet prices a property that has no stored configuration yet:
// plain base-rate pricing in the property currency, no rules of any kind.
// The property-level base falls back to the cheapest category rate;
// category-scoped quotes still resolve their own rate through BaseFor.
func DefaultRuleSet(prop *property.Property) *RuleSet {
	base := money.Money{Currency: prop.Currency}
	for _, cat := range prop.Categories {
		if cat.BaseRate.Amount > 0 && (base.Amount == 0 || cat.BaseRate.Amount < base.Amount) {
			base = cat.BaseRate
		}
	}
	return NewRuleSet(prop.ID, base)
}

// Validate runs the structural and business checks the transaction manager
// requires before any state is touched.
func (rs *RuleSet) Validate() error {
	ve := &ValidationError{}
	if rs.PropertyID == "" {
		ve.Add("property_id", "property id is required")
	}
	if rs.BasePrice.Amount <= 0 || rs.BasePrice.Amount > MaxRatePerNight {
		ve.Add("base_price", "must be in (0, %d]", MaxRatePerNight)
	}
	if len(rs.BasePrice.Currency) != 3 {
		ve.Add("currency", "three-letter currency code required")
	}
	for i, ov := range rs.CustomOverrides {
		if err := ov.Span.Validate(); err != nil {
			ve.Add(field("custom_overrides", i, "range"), "start date must not exceed end date")
		}
		if ov.Price.Amount <= 0 || ov.Price.Amount > MaxRatePerNight {
			ve.Add(field("custom_overrides", i, "price"), "must be in (0, %d]", MaxRatePerNight)
		}
	}
	for i, b := range rs.BlockedDates {
		if err := b.Span.Validate(); err != nil {
			ve.Add(field("blocked_dates", i, "range"), "start date must not exceed end date")
		}
	}
	for i, sr := range rs.SeasonalRules {
		if err := sr.Span.Validate(); err != nil {
			ve.Add(field("seasonal_rules", i, "range"), "start date must not exceed end date")
		}
		if sr.Multiplier <= 0 {
			ve.Add(field("seasonal_rules", i, "multiplier"), "must be positive")
		}
	}
	if dr := rs.DemandRule; dr != nil && dr.Enabled {
		if dr.OccupancyThreshold < 0 || dr.OccupancyThreshold > 100 {
			ve.Add("demand_rule.occupancy_threshold", "must be within [0, 100]")
		}
		if dr.Multiplier <= 0 {
			ve.Add("demand_rule.multiplier", "must be positive")
		}
		if dr.MaxIncreasePercent < 0 {
			ve.Add("demand_rule.max_increase_percent", "must not be negative")
		}
	}
	for i, pr := range rs.RateTable {
		if _, ok := ParsePlanType(string(pr.Plan)); !ok {
			ve.Add(field("rate_table", i, "plan"), "unknown plan type %q", pr.Plan)
		}
		if _, ok := NormalizeOccupancy(string(pr.Occupancy)); !ok {
			ve.Add(field("rate_table", i, "occupancy"), "unknown occupancy type %q", pr.Occupancy)
		}
		if pr.Price.Amount <= 0 || pr.Price.Amount > MaxRatePerNight {
			ve.Add(field("rate_table", i, "price"), "must be in (0, %d]", MaxRatePerNight)
		}
		if err := pr.Span.Validate(); err != nil {
			ve.Add(field("rate_table", i, "range"), "start date must not exceed end date")
		}
	}
	if rs.TaxRate < 0 || rs.TaxRate > 1 {
		ve.Add("tax_rate", "must be within [0, 1]")
	}
	if rs.ServiceFeeRate < 0 || rs.ServiceFeeRate > 1 {
		ve.Add("service_fee_rate", "must be within [0, 1]")
	}
	if ve.HasErrors() {
		return ve
	}
	return nil
}

func field(list string, idx int, name string) string {
	return list + "[" + strconv.Itoa(idx) + "]." + name
}

// Warnings reports non-fatal findings the admin should see after a commit.
func (rs *RuleSet) Warnings() []string {
	var out []string
	lowest := int64(0)
	for _, ov := range rs.CustomOverrides {
		if !ov.Active {
			continue
		}
		if lowest == 0 || ov.Price.Amount < lowest {
			lowest = ov.Price.Amount
		}
	}
	if lowest > 0 && rs.BasePrice.Amount < lowest {
		out = append(out, "base price is below the lowest active custom override")
	}
	if rs.DemandRule != nil && rs.DemandRule.Enabled && rs.DemandRule.Multiplier > 1+rs.DemandRule.MaxIncreasePercent/100 {
		out = append(out, "demand multiplier exceeds the configured max increase and will always be capped")
	}
	return out
}

// OverrideFor returns the highest-priority active override covering the day
// for the category, if any.
func (rs *RuleSet) OverrideFor(d time.Time, category string) (CustomOverride, bool) {
	for _, ov := range rs.CustomOverrides {
		if ov.Active && ov.matches(category) && ov.Span.Covers(d) {
			return ov, true
		}
	}
	return CustomOverride{}, false
}

// SeasonalFactor is the product of all active covering seasonal multipliers
// for the category.
func (rs *RuleSet) SeasonalFactor(d time.Time, category string) float64 {
	factor := 1.0
	for _, sr := range rs.SeasonalRules {
		if sr.Active && sr.matches(category) && sr.Span.Covers(d) {
			factor *= sr.Multiplier
		}
	}
	return factor
}

// BlocksCovering lists active blocks containing the day.
func (rs *RuleSet) BlocksCovering(d time.Time) []DateBlock {
	var out []DateBlock
	for _, b := range rs.BlockedDates {
		if b.Active && b.Span.Covers(d) {
			out = append(out, b)
		}
	}
	return out
}

// BaseFor resolves the nightly base: the category's own rate when present,
// else the property-level base price.
func (rs *RuleSet) BaseFor(prop *property.Property, category string) money.Money {
	if prop != nil && category != "" {
		if cat, ok := prop.Category(category); ok && cat.BaseRate.Amount > 0 {
			return cat.BaseRate
		}
	}
	return rs.BasePrice
}

// ReplaceRateTable swaps in a freshly imported rate table for the property.
func (rs *RuleSet) ReplaceRateTable(rows []PlanRate) {
	rs.RateTable = append([]PlanRate(nil), rows...)
}

// Clone deep-copies the document so snapshots never alias live state.
func (rs *RuleSet) Clone() *RuleSet {
	if rs == nil {
		return nil
	}
	out := *rs
	out.Recorder = events.Recorder{}
	out.CustomOverrides = append([]CustomOverride(nil), rs.CustomOverrides...)
	out.BlockedDates = append([]DateBlock(nil), rs.BlockedDates...)
	out.SeasonalRules = append([]SeasonalRule(nil), rs.SeasonalRules...)
	out.RateTable = append([]PlanRate(nil), rs.RateTable...)
	if rs.DemandRule != nil {
		dr := *rs.DemandRule
		out.DemandRule = &dr
	}
	return &out
}

// RuleSetRepository persists the root pricing document.
type RuleSetRepository interface {
	ByProperty(ctx context.Context, id property.ID) (*RuleSet, error)
	Save(ctx context.Context, rs *RuleSet) error
	Delete(ctx context.Context, id property.ID) error
}
