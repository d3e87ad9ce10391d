package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stayrates/internal/domain/property"
	"stayrates/internal/domain/shared/money"
)

func projectionProperty() *property.Property {
	return &property.Property{
		ID:        "prop-001",
		Currency:  "INR",
		UnitCount: 10,
		Categories: []property.RoomCategory{
			{Code: "deluxe", BaseRate: money.Must(3000, "INR"), Units: 6},
			{Code: "suite", BaseRate: money.Must(6000, "INR"), Units: 4},
		},
	}
}

func rowsBySource(rows []RateRow, source RuleSource) []RateRow {
	var out []RateRow
	for _, r := range rows {
		if r.Source == source {
			out = append(out, r)
		}
	}
	return out
}

func TestBuildRateRowsBaseRows(t *testing.T) {
	rs := NewRuleSet("prop-001", money.Must(2000, "INR"))
	rs.RateTable = []PlanRate{
		{RoomCategory: "deluxe", Plan: PlanEP, Occupancy: OccupancySingle, Price: money.Must(4500, "INR"), Span: span(t, day(2026, 10, 1), day(2026, 12, 20)), Active: true},
		{RoomCategory: "deluxe", Plan: PlanCP, Occupancy: OccupancyDouble, Price: money.Must(5200, "INR"), Span: span(t, day(2026, 10, 1), day(2026, 12, 20)), Active: false},
	}

	rows := BuildRateRows(projectionProperty(), rs)
	base := rowsBySource(rows, SourceBaseRate)
	require.Len(t, base, 1, "inactive plan rates are dropped from the projection")
	assert.Equal(t, PlanEP, base[0].Plan)
	assert.Equal(t, int64(4500), base[0].Price.Amount)
	assert.True(t, base[0].Available)
}

func TestBuildRateRowsSeasonalProjection(t *testing.T) {
	rs := NewRuleSet("prop-001", money.Must(2000, "INR"))
	rs.RateTable = []PlanRate{
		{RoomCategory: "deluxe", Plan: PlanEP, Occupancy: OccupancyDouble, Price: money.Must(4000, "INR"), Span: span(t, day(2026, 10, 1), day(2026, 12, 31)), Active: true},
	}
	rs.SeasonalRules = []SeasonalRule{
		{Span: span(t, day(2026, 12, 20), day(2027, 1, 10)), Multiplier: 1.5, Active: true},
	}

	rows := BuildRateRows(projectionProperty(), rs)
	seasonal := rowsBySource(rows, SourceSeasonal)
	require.Len(t, seasonal, 1)
	assert.Equal(t, int64(6000), seasonal[0].Price.Amount, "base row price scaled by the multiplier")
	assert.Equal(t, day(2026, 12, 20), seasonal[0].Span.Start, "span clipped to the overlap")
	assert.Equal(t, day(2026, 12, 31), seasonal[0].Span.End)
	assert.Equal(t, PlanEP, seasonal[0].Plan, "projected rows inherit the base row plan")
}

func TestBuildRateRowsSeasonalFallback(t *testing.T) {
	rs := NewRuleSet("prop-001", money.Must(2000, "INR"))
	rs.SeasonalRules = []SeasonalRule{
		{Span: span(t, day(2026, 12, 1), day(2026, 12, 31)), Multiplier: 1.2, Active: true},
	}

	rows := BuildRateRows(projectionProperty(), rs)
	seasonal := rowsBySource(rows, SourceSeasonal)
	require.Len(t, seasonal, 2, "no plan rates: one fallback row per category")

	byCategory := map[string]int64{}
	for _, r := range seasonal {
		byCategory[r.RoomCategory] = r.Price.Amount
	}
	assert.Equal(t, int64(3600), byCategory["deluxe"], "category base rate times multiplier")
	assert.Equal(t, int64(7200), byCategory["suite"])
}

func TestBuildRateRowsCustomOverrideExpandsCategories(t *testing.T) {
	rs := NewRuleSet("prop-001", money.Must(2000, "INR"))
	rs.CustomOverrides = []CustomOverride{
		{Span: span(t, day(2026, 12, 24), day(2026, 12, 26)), Price: money.Must(9000, "INR"), Active: true},
	}

	rows := BuildRateRows(projectionProperty(), rs)
	custom := rowsBySource(rows, SourceCustom)
	require.Len(t, custom, 2)
	for _, r := range custom {
		assert.Equal(t, int64(9000), r.Price.Amount)
	}
}

func TestBuildRateRowsDemandRowIsCapped(t *testing.T) {
	rs := NewRuleSet("prop-001", money.Must(2000, "INR"))
	rs.DemandRule = &DemandRule{Enabled: true, OccupancyThreshold: 80, Multiplier: 1.5, MaxIncreasePercent: 20}

	rows := BuildRateRows(projectionProperty(), rs)
	demand := rowsBySource(rows, SourceDemand)
	require.Len(t, demand, 2)

	byCategory := map[string]int64{}
	for _, r := range demand {
		byCategory[r.RoomCategory] = r.Price.Amount
	}
	assert.Equal(t, int64(3600), byCategory["deluxe"], "1.5 multiplier capped at +20%")
	assert.Equal(t, int64(7200), byCategory["suite"])
}

func TestBuildRateRowsBlockedSpansUnavailable(t *testing.T) {
	rs := NewRuleSet("prop-001", money.Must(2000, "INR"))
	rs.RateTable = []PlanRate{
		{RoomCategory: "deluxe", Plan: PlanEP, Occupancy: OccupancyDouble, Price: money.Must(4000, "INR"), Span: span(t, day(2026, 10, 1), day(2026, 10, 31)), Active: true},
		{RoomCategory: "deluxe", Plan: PlanEP, Occupancy: OccupancyDouble, Price: money.Must(4200, "INR"), Span: span(t, day(2026, 11, 1), day(2026, 11, 30)), Active: true},
	}
	rs.BlockedDates = []DateBlock{
		{Span: span(t, day(2026, 10, 10), day(2026, 10, 15)), Reason: "maintenance", Active: true},
	}

	rows := BuildRateRows(projectionProperty(), rs)
	base := rowsBySource(rows, SourceBaseRate)
	require.Len(t, base, 2)
	assert.False(t, base[0].Available, "row overlapping an active block is flagged")
	assert.True(t, base[1].Available)
}

func TestBuildRateRowsNilRuleSet(t *testing.T) {
	assert.Nil(t, BuildRateRows(projectionProperty(), nil))
}
