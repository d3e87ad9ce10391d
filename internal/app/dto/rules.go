package dto

import (
	"time"

	"stayrates/internal/domain/pricing"
	"stayrates/internal/domain/property"
	"stayrates/internal/domain/shared/money"
)

type CustomOverridePayload struct {
	StartDate    string `json:"start_date"`
	EndDate      string `json:"end_date"`
	Price        int64  `json:"price"`
	RoomCategory string `json:"room_category,omitempty"`
	IsActive     bool   `json:"is_active"`
}

type DateBlockPayload struct {
	StartDate string `json:"start_date"`
	EndDate   string `json:"end_date"`
	Reason    string `json:"reason"`
	IsActive  bool   `json:"is_active"`
}

type SeasonalRulePayload struct {
	StartDate    string  `json:"start_date"`
	EndDate      string  `json:"end_date"`
	Multiplier   float64 `json:"multiplier"`
	RoomCategory string  `json:"room_category,omitempty"`
	IsActive     bool    `json:"is_active"`
}

type DemandRulePayload struct {
	Enabled            bool    `json:"enabled"`
	OccupancyThreshold int     `json:"occupancy_threshold"`
	Multiplier         float64 `json:"multiplier"`
	MaxIncreasePercent float64 `json:"max_increase_percent"`
}

type PlanRatePayload struct {
	RoomCategory string `json:"room_category"`
	PlanType     string `json:"plan_type"`
	Occupancy    string `json:"occupancy_type"`
	Price        int64  `json:"price"`
	StartDate    string `json:"start_date"`
	EndDate      string `json:"end_date"`
	IsActive     bool   `json:"is_active"`
}

// RuleSetPayload is the administrator-facing edit body: a full replacement
// of the property's pricing configuration.
type RuleSetPayload struct {
	Currency        string                  `json:"currency"`
	BasePrice       int64                   `json:"base_price"`
	CustomOverrides []CustomOverridePayload `json:"custom_overrides"`
	BlockedDates    []DateBlockPayload      `json:"blocked_dates"`
	SeasonalRules   []SeasonalRulePayload   `json:"seasonal_rules"`
	DemandRule      *DemandRulePayload      `json:"demand_rule,omitempty"`
	RateTable       []PlanRatePayload       `json:"rate_table"`
	TaxRate         float64                 `json:"tax_rate"`
	ServiceFeeRate  float64                 `json:"service_fee_rate"`
}

// ToDomain maps the payload onto the aggregate; malformed dates surface as
// field-level validation errors rather than a transport failure.
func (p RuleSetPayload) ToDomain(id property.ID) (*pricing.RuleSet, error) {
	ve := &pricing.ValidationError{}
	currency := p.Currency
	if currency == "" {
		currency = "INR"
	}
	rs := &pricing.RuleSet{
		PropertyID:     id,
		Currency:       currency,
		BasePrice:      money.Money{Amount: p.BasePrice, Currency: currency},
		TaxRate:        p.TaxRate,
		ServiceFeeRate: p.ServiceFeeRate,
	}
	for i, ov := range p.CustomOverrides {
		span := parseSpan(ve, "custom_overrides", i, ov.StartDate, ov.EndDate)
		rs.CustomOverrides = append(rs.CustomOverrides, pricing.CustomOverride{
			Span:         span,
			Price:        money.Money{Amount: ov.Price, Currency: currency},
			RoomCategory: ov.RoomCategory,
			Active:       ov.IsActive,
		})
	}
	for i, b := range p.BlockedDates {
		span := parseSpan(ve, "blocked_dates", i, b.StartDate, b.EndDate)
		rs.BlockedDates = append(rs.BlockedDates, pricing.DateBlock{
			Span:   span,
			Reason: b.Reason,
			Active: b.IsActive,
		})
	}
	for i, sr := range p.SeasonalRules {
		span := parseSpan(ve, "seasonal_rules", i, sr.StartDate, sr.EndDate)
		rs.SeasonalRules = append(rs.SeasonalRules, pricing.SeasonalRule{
			Span:         span,
			Multiplier:   sr.Multiplier,
			RoomCategory: sr.RoomCategory,
			Active:       sr.IsActive,
		})
	}
	if p.DemandRule != nil {
		rs.DemandRule = &pricing.DemandRule{
			Enabled:            p.DemandRule.Enabled,
			OccupancyThreshold: p.DemandRule.OccupancyThreshold,
			Multiplier:         p.DemandRule.Multiplier,
			MaxIncreasePercent: p.DemandRule.MaxIncreasePercent,
		}
	}
	for i, pr := range p.RateTable {
		span := parseSpan(ve, "rate_table", i, pr.StartDate, pr.EndDate)
		plan, _ := pricing.ParsePlanType(pr.PlanType)
		occupancy, _ := pricing.NormalizeOccupancy(pr.Occupancy)
		if plan == "" {
			plan = pricing.PlanType(pr.PlanType)
		}
		if occupancy == "" {
			occupancy = pricing.OccupancyType(pr.Occupancy)
		}
		rs.RateTable = append(rs.RateTable, pricing.PlanRate{
			RoomCategory: pr.RoomCategory,
			Plan:         plan,
			Occupancy:    occupancy,
			Price:        money.Money{Amount: pr.Price, Currency: currency},
			Span:         span,
			Active:       pr.IsActive,
		})
	}
	if ve.HasErrors() {
		return nil, ve
	}
	return rs, nil
}

func parseSpan(ve *pricing.ValidationError, list string, idx int, start, end string) pricing.DateSpan {
	from, err1 := time.Parse(dateLayout, start)
	to, err2 := time.Parse(dateLayout, end)
	if err1 != nil || err2 != nil {
		ve.Add(list, "row %d: dates must use YYYY-MM-DD", idx)
		return pricing.DateSpan{}
	}
	span, err := pricing.NewSpan(from, to)
	if err != nil {
		ve.Add(list, "row %d: start date must not exceed end date", idx)
		return pricing.DateSpan{}
	}
	return span
}

// RuleSetView is the committed configuration echoed back to admins.
type RuleSetView struct {
	PropertyID      string                  `json:"property_id"`
	Currency        string                  `json:"currency"`
	BasePrice       int64                   `json:"base_price"`
	CustomOverrides []CustomOverridePayload `json:"custom_overrides"`
	BlockedDates    []DateBlockPayload      `json:"blocked_dates"`
	SeasonalRules   []SeasonalRulePayload   `json:"seasonal_rules"`
	DemandRule      *DemandRulePayload      `json:"demand_rule,omitempty"`
	RateTable       []PlanRatePayload       `json:"rate_table"`
	TaxRate         float64                 `json:"tax_rate"`
	ServiceFeeRate  float64                 `json:"service_fee_rate"`
	Version         int64                   `json:"version"`
	UpdatedAt       time.Time               `json:"updated_at"`
}

func MapRuleSet(rs *pricing.RuleSet) RuleSetView {
	if rs == nil {
		return RuleSetView{}
	}
	view := RuleSetView{
		PropertyID:     string(rs.PropertyID),
		Currency:       rs.Currency,
		BasePrice:      rs.BasePrice.Amount,
		TaxRate:        rs.TaxRate,
		ServiceFeeRate: rs.ServiceFeeRate,
		Version:        rs.Version,
		UpdatedAt:      rs.UpdatedAt,
	}
	for _, ov := range rs.CustomOverrides {
		view.CustomOverrides = append(view.CustomOverrides, CustomOverridePayload{
			StartDate:    FormatDate(ov.Span.Start),
			EndDate:      FormatDate(ov.Span.End),
			Price:        ov.Price.Amount,
			RoomCategory: ov.RoomCategory,
			IsActive:     ov.Active,
		})
	}
	for _, b := range rs.BlockedDates {
		view.BlockedDates = append(view.BlockedDates, DateBlockPayload{
			StartDate: FormatDate(b.Span.Start),
			EndDate:   FormatDate(b.Span.End),
			Reason:    b.Reason,
			IsActive:  b.Active,
		})
	}
	for _, sr := range rs.SeasonalRules {
		view.SeasonalRules = append(view.SeasonalRules, SeasonalRulePayload{
			StartDate:    FormatDate(sr.Span.Start),
			EndDate:      FormatDate(sr.Span.End),
			Multiplier:   sr.Multiplier,
			RoomCategory: sr.RoomCategory,
			IsActive:     sr.Active,
		})
	}
	if rs.DemandRule != nil {
		view.DemandRule = &DemandRulePayload{
			Enabled:            rs.DemandRule.Enabled,
			OccupancyThreshold: rs.DemandRule.OccupancyThreshold,
			Multiplier:         rs.DemandRule.Multiplier,
			MaxIncreasePercent: rs.DemandRule.MaxIncreasePercent,
		}
	}
	for _, pr := range rs.RateTable {
		view.RateTable = append(view.RateTable, PlanRatePayload{
			RoomCategory: pr.RoomCategory,
			PlanType:     string(pr.Plan),
			Occupancy:    string(pr.Occupancy),
			Price:        pr.Price.Amount,
			StartDate:    FormatDate(pr.Span.Start),
			EndDate:      FormatDate(pr.Span.End),
			IsActive:     pr.Active,
		})
	}
	return view
}

type RateRowView struct {
	PropertyID   string `json:"property_id"`
	RoomCategory string `json:"room_category"`
	PlanType     string `json:"plan_type"`
	Occupancy    string `json:"occupancy_type"`
	Price        int64  `json:"price"`
	StartDate    string `json:"start_date,omitempty"`
	EndDate      string `json:"end_date,omitempty"`
	Source       string `json:"rule_type"`
	IsActive     bool   `json:"is_active"`
	IsAvailable  bool   `json:"is_available"`
}

func MapRateRows(rows []pricing.RateRow) []RateRowView {
	out := make([]RateRowView, 0, len(rows))
	for _, row := range rows {
		view := RateRowView{
			PropertyID:   string(row.PropertyID),
			RoomCategory: row.RoomCategory,
			PlanType:     string(row.Plan),
			Occupancy:    string(row.Occupancy),
			Price:        row.Price.Amount,
			Source:       string(row.Source),
			IsActive:     row.Active,
			IsAvailable:  row.Available,
		}
		if !row.Span.IsZero() {
			view.StartDate = FormatDate(row.Span.Start)
			view.EndDate = FormatDate(row.Span.End)
		}
		out = append(out, view)
	}
	return out
}

type ChangeRecordView struct {
	ID                 string       `json:"id"`
	PropertyID         string       `json:"property_id"`
	ChangeType         string       `json:"change_type"`
	Actor              string       `json:"actor"`
	Timestamp          time.Time    `json:"timestamp"`
	AffectedCategories []string     `json:"affected_categories,omitempty"`
	AffectedFrom       string       `json:"affected_from,omitempty"`
	AffectedTo         string       `json:"affected_to,omitempty"`
	Before             *RuleSetView `json:"before_state,omitempty"`
	After              *RuleSetView `json:"after_state,omitempty"`
}

func MapChangeRecord(rec pricing.ChangeRecord) ChangeRecordView {
	view := ChangeRecordView{
		ID:                 rec.ID,
		PropertyID:         string(rec.PropertyID),
		ChangeType:         string(rec.ChangeType),
		Actor:              rec.Actor,
		Timestamp:          rec.Timestamp,
		AffectedCategories: rec.AffectedCategories,
	}
	if rec.AffectedSpan != nil {
		view.AffectedFrom = FormatDate(rec.AffectedSpan.Start)
		view.AffectedTo = FormatDate(rec.AffectedSpan.End)
	}
	if rec.Before != nil {
		before := MapRuleSet(rec.Before)
		view.Before = &before
	}
	if rec.After != nil {
		after := MapRuleSet(rec.After)
		view.After = &after
	}
	return view
}

type CalendarView struct {
	PropertyID string         `json:"property_id"`
	Blocks     []BlockedRange `json:"blocks"`
}
