package pricing

import (
	"context"

	"stayrates/internal/domain/property"
	"stayrates/internal/domain/shared/money"
)

// RuleSource tags a rate row with the rule type it was derived from, for
// admin reporting.
type RuleSource string

const (
	SourceBaseRate RuleSource = "base_rate"
	SourceSeasonal RuleSource = "seasonal"
	SourceDemand   RuleSource = "demand_based"
	SourceCustom   RuleSource = "custom_rate"
)

// RateRow is one flattened, queryable rate entry. Rows are a derived
// projection of the RuleSet: regenerated whole on every commit, never
// patched in place.
type RateRow struct {
	PropertyID   property.ID
	RoomCategory string
	Plan         PlanType
	Occupancy    OccupancyType
	Price        money.Money
	Span         DateSpan
	Source       RuleSource
	Active       bool
	Available    bool
}

// RateRowRepository stores the flattened projection.
type RateRowRepository interface {
	ListByProperty(ctx context.Context, id property.ID) ([]RateRow, error)
	ReplaceForProperty(ctx context.Context, id property.ID, rows []RateRow) error
}

// Defaults for derived rows that are not plan-specific: overrides and
// seasonal fallbacks price the room night itself.
const (
	defaultPlan      = PlanEP
	defaultOccupancy = OccupancyDouble
)

// BuildRateRows flattens a rule set into the reporting projection:
//
//   - every active PlanRate becomes a base_rate row;
//   - seasonal rules project onto overlapping base rows (price scaled by the
//     multiplier, span clipped to the overlap), falling back to a single row
//     off the category base when no plan rates exist;
//   - custom overrides become one custom_rate row per matched category;
//   - an enabled demand rule yields one capped demand_based row per category.
//
// Rows overlapping an active block are flagged unavailable.
func BuildRateRows(prop *property.Property, rs *RuleSet) []RateRow {
	if rs == nil {
		return nil
	}
	var rows []RateRow

	for _, pr := range rs.RateTable {
		if !pr.Active {
			continue
		}
		rows = append(rows, RateRow{
			PropertyID:   rs.PropertyID,
			RoomCategory: pr.RoomCategory,
			Plan:         pr.Plan,
			Occupancy:    pr.Occupancy,
			Price:        pr.Price,
			Span:         pr.Span,
			Source:       SourceBaseRate,
			Active:       true,
		})
	}
	baseRows := len(rows)

	for _, sr := range rs.SeasonalRules {
		if !sr.Active {
			continue
		}
		projected := false
		for i := 0; i < baseRows; i++ {
			base := rows[i]
			if !sr.matches(base.RoomCategory) {
				continue
			}
			span, ok := sr.Span.Intersect(base.Span)
			if !ok {
				continue
			}
			rows = append(rows, RateRow{
				PropertyID:   rs.PropertyID,
				RoomCategory: base.RoomCategory,
				Plan:         base.Plan,
				Occupancy:    base.Occupancy,
				Price:        base.Price.Scale(sr.Multiplier),
				Span:         span,
				Source:       SourceSeasonal,
				Active:       true,
			})
			projected = true
		}
		if !projected {
			for _, category := range matchedCategories(prop, sr.RoomCategory) {
				rows = append(rows, RateRow{
					PropertyID:   rs.PropertyID,
					RoomCategory: category,
					Plan:         defaultPlan,
					Occupancy:    defaultOccupancy,
					Price:        rs.BaseFor(prop, category).Scale(sr.Multiplier),
					Span:         sr.Span,
					Source:       SourceSeasonal,
					Active:       true,
				})
			}
		}
	}

	for _, ov := range rs.CustomOverrides {
		if !ov.Active {
			continue
		}
		for _, category := range matchedCategories(prop, ov.RoomCategory) {
			rows = append(rows, RateRow{
				PropertyID:   rs.PropertyID,
				RoomCategory: category,
				Plan:         defaultPlan,
				Occupancy:    defaultOccupancy,
				Price:        ov.Price,
				Span:         ov.Span,
				Source:       SourceCustom,
				Active:       true,
			})
		}
	}

	if dr := rs.DemandRule; dr != nil && dr.Enabled {
		factor := dr.Multiplier
		if limit := 1 + dr.MaxIncreasePercent/100; factor > limit {
			factor = limit
		}
		for _, category := range matchedCategories(prop, "") {
			rows = append(rows, RateRow{
				PropertyID:   rs.PropertyID,
				RoomCategory: category,
				Plan:         defaultPlan,
				Occupancy:    defaultOccupancy,
				Price:        rs.BaseFor(prop, category).Scale(factor),
				Source:       SourceDemand,
				Active:       true,
			})
		}
	}

	for i := range rows {
		rows[i].Available = rowAvailable(rs, rows[i])
	}
	return rows
}

// matchedCategories expands an empty category selector to every category the
// property has, or a single uncategorised entry when it has none.
func matchedCategories(prop *property.Property, selector string) []string {
	if selector != "" {
		return []string{selector}
	}
	if prop == nil || len(prop.Categories) == 0 {
		return []string{""}
	}
	out := make([]string, 0, len(prop.Categories))
	for _, c := range prop.Categories {
		out = append(out, c.Code)
	}
	return out
}

func rowAvailable(rs *RuleSet, row RateRow) bool {
	if row.Span.IsZero() {
		return true
	}
	for _, b := range rs.BlockedDates {
		if b.Active && b.Span.Overlaps(row.Span) {
			return false
		}
	}
	return true
}
