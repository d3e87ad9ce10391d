package pricing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stayrates/internal/domain/property"
	"stayrates/internal/domain/shared/money"
)

func validRuleSet(t *testing.T) *RuleSet {
	t.Helper()
	rs := NewRuleSet("prop-001", money.Must(2000, "INR"))
	rs.SeasonalRules = []SeasonalRule{
		{Span: span(t, day(2026, 12, 1), day(2026, 12, 31)), Multiplier: 1.5, Active: true},
	}
	return rs
}

func TestRuleSetValidate(t *testing.T) {
	tests := []struct {
		name      string
		mutate    func(rs *RuleSet)
		wantField string
	}{
		{
			name:   "valid",
			mutate: func(rs *RuleSet) {},
		},
		{
			name:      "missing property",
			mutate:    func(rs *RuleSet) { rs.PropertyID = "" },
			wantField: "property_id",
		},
		{
			name:      "zero base price",
			mutate:    func(rs *RuleSet) { rs.BasePrice.Amount = 0 },
			wantField: "base_price",
		},
		{
			name:      "base price above cap",
			mutate:    func(rs *RuleSet) { rs.BasePrice.Amount = MaxRatePerNight + 1 },
			wantField: "base_price",
		},
		{
			name:      "bad currency",
			mutate:    func(rs *RuleSet) { rs.BasePrice.Currency = "RUPEES" },
			wantField: "currency",
		},
		{
			name: "non-positive seasonal multiplier",
			mutate: func(rs *RuleSet) {
				rs.SeasonalRules[0].Multiplier = 0
			},
			wantField: "seasonal_rules[0].multiplier",
		},
		{
			name: "override price out of range",
			mutate: func(rs *RuleSet) {
				rs.CustomOverrides = []CustomOverride{{
					Span: rs.SeasonalRules[0].Span, Price: money.Money{Currency: "INR"}, Active: true,
				}}
			},
			wantField: "custom_overrides[0].price",
		},
		{
			name: "demand threshold out of range",
			mutate: func(rs *RuleSet) {
				rs.DemandRule = &DemandRule{Enabled: true, OccupancyThreshold: 140, Multiplier: 1.2}
			},
			wantField: "demand_rule.occupancy_threshold",
		},
		{
			name: "unknown plan type",
			mutate: func(rs *RuleSet) {
				rs.RateTable = []PlanRate{{
					RoomCategory: "deluxe",
					Plan:         "BB",
					Occupancy:    OccupancyDouble,
					Price:        money.Must(4000, "INR"),
					Span:         rs.SeasonalRules[0].Span,
					Active:       true,
				}}
			},
			wantField: "rate_table[0].plan",
		},
		{
			name:      "tax rate above one",
			mutate:    func(rs *RuleSet) { rs.TaxRate = 1.2 },
			wantField: "tax_rate",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rs := validRuleSet(t)
			tt.mutate(rs)
			err := rs.Validate()
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			ve, ok := AsValidation(err)
			require.True(t, ok, "expected a validation error, got %v", err)
			fields := make([]string, 0, len(ve.Fields))
			for _, f := range ve.Fields {
				fields = append(fields, f.Field)
			}
			assert.Contains(t, fields, tt.wantField)
		})
	}
}

func TestSeasonalFactorStacksOrderIndependently(t *testing.T) {
	winter := SeasonalRule{Span: span(t, day(2026, 12, 1), day(2026, 12, 31)), Multiplier: 1.2, Active: true}
	festive := SeasonalRule{Span: span(t, day(2026, 12, 20), day(2027, 1, 5)), Multiplier: 1.5, Active: true}

	a := validRuleSet(t)
	a.SeasonalRules = []SeasonalRule{winter, festive}
	b := validRuleSet(t)
	b.SeasonalRules = []SeasonalRule{festive, winter}

	night := day(2026, 12, 25)
	assert.InDelta(t, 1.8, a.SeasonalFactor(night, ""), 1e-9)
	assert.Equal(t, a.SeasonalFactor(night, ""), b.SeasonalFactor(night, ""))

	// Only one rule covers the night outside the overlap.
	assert.InDelta(t, 1.2, a.SeasonalFactor(day(2026, 12, 5), ""), 1e-9)
	// Inactive rules never contribute.
	a.SeasonalRules[0].Active = false
	assert.InDelta(t, 1.5, a.SeasonalFactor(night, ""), 1e-9)
}

func TestSeasonalFactorCategoryMatch(t *testing.T) {
	rs := validRuleSet(t)
	rs.SeasonalRules = []SeasonalRule{
		{Span: span(t, day(2026, 12, 1), day(2026, 12, 31)), Multiplier: 1.4, RoomCategory: "suite", Active: true},
	}
	assert.InDelta(t, 1.4, rs.SeasonalFactor(day(2026, 12, 10), "suite"), 1e-9)
	assert.InDelta(t, 1.0, rs.SeasonalFactor(day(2026, 12, 10), "deluxe"), 1e-9)
}

func TestOverrideFor(t *testing.T) {
	rs := validRuleSet(t)
	rs.CustomOverrides = []CustomOverride{
		{Span: span(t, day(2026, 12, 24), day(2026, 12, 26)), Price: money.Must(9000, "INR"), RoomCategory: "suite", Active: true},
		{Span: span(t, day(2026, 12, 24), day(2026, 12, 26)), Price: money.Must(5000, "INR"), Active: false},
	}

	ov, ok := rs.OverrideFor(day(2026, 12, 25), "suite")
	require.True(t, ok)
	assert.Equal(t, int64(9000), ov.Price.Amount)

	_, ok = rs.OverrideFor(day(2026, 12, 25), "deluxe")
	assert.False(t, ok, "category-scoped override does not match other categories")

	_, ok = rs.OverrideFor(day(2026, 12, 27), "suite")
	assert.False(t, ok)
}

func TestBaseFor(t *testing.T) {
	rs := validRuleSet(t)
	prop := &property.Property{
		ID:       "prop-001",
		Currency: "INR",
		Categories: []property.RoomCategory{
			{Code: "deluxe", BaseRate: money.Must(3500, "INR")},
			{Code: "standard"},
		},
	}

	assert.Equal(t, int64(3500), rs.BaseFor(prop, "deluxe").Amount)
	assert.Equal(t, int64(2000), rs.BaseFor(prop, "standard").Amount, "category without its own rate falls back")
	assert.Equal(t, int64(2000), rs.BaseFor(prop, "").Amount)
	assert.Equal(t, int64(2000), rs.BaseFor(nil, "deluxe").Amount)
}

func TestDefaultRuleSet(t *testing.T) {
	prop := &property.Property{
		ID:       "prop-001",
		Currency: "INR",
		Categories: []property.RoomCategory{
			{Code: "suite", BaseRate: money.Must(6000, "INR")},
			{Code: "deluxe", BaseRate: money.Must(3000, "INR")},
			{Code: "dorm"},
		},
	}

	rs := DefaultRuleSet(prop)
	assert.Equal(t, property.ID("prop-001"), rs.PropertyID)
	assert.Equal(t, int64(3000), rs.BasePrice.Amount, "cheapest priced category becomes the fallback base")
	assert.Equal(t, "INR", rs.Currency)
	assert.Empty(t, rs.SeasonalRules)
	assert.Nil(t, rs.DemandRule)

	bare := DefaultRuleSet(&property.Property{ID: "prop-002", Currency: "EUR"})
	assert.Zero(t, bare.BasePrice.Amount)
	assert.Equal(t, "EUR", bare.Currency)
}

func TestWarnings(t *testing.T) {
	rs := validRuleSet(t)
	assert.Empty(t, rs.Warnings())

	rs.CustomOverrides = []CustomOverride{
		{Span: span(t, day(2026, 12, 1), day(2026, 12, 5)), Price: money.Must(2500, "INR"), Active: true},
	}
	assert.Contains(t, rs.Warnings(), "base price is below the lowest active custom override")

	// The comparison spans all active overrides, wherever their windows fall.
	rs.CustomOverrides = append(rs.CustomOverrides,
		CustomOverride{Span: span(t, day(2027, 3, 1), day(2027, 3, 5)), Price: money.Must(3000, "INR"), Active: true},
	)
	assert.Contains(t, rs.Warnings(), "base price is below the lowest active custom override")

	rs.DemandRule = &DemandRule{Enabled: true, OccupancyThreshold: 80, Multiplier: 1.5, MaxIncreasePercent: 20}
	assert.Contains(t, rs.Warnings(), "demand multiplier exceeds the configured max increase and will always be capped")
}

func TestCloneIsDeep(t *testing.T) {
	rs := validRuleSet(t)
	rs.DemandRule = &DemandRule{Enabled: true, OccupancyThreshold: 80, Multiplier: 1.1}
	rs.UpdatedAt = time.Now().UTC()

	clone := rs.Clone()
	clone.SeasonalRules[0].Multiplier = 9
	clone.DemandRule.Multiplier = 9
	clone.BasePrice.Amount = 1

	assert.InDelta(t, 1.5, rs.SeasonalRules[0].Multiplier, 1e-9)
	assert.InDelta(t, 1.1, rs.DemandRule.Multiplier, 1e-9)
	assert.Equal(t, int64(2000), rs.BasePrice.Amount)

	var nilSet *RuleSet
	assert.Nil(t, nilSet.Clone())
}
