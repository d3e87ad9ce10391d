package pricing

import (
	"context"
	"time"

	"stayrates/internal/domain/property"
	"stayrates/internal/domain/shared/daterange"
	"stayrates/internal/domain/shared/money"
)

// EventPolicy selects which calendar-event multiplier a quote applies.
type EventPolicy string

const (
	EventPolicyHighest  EventPolicy = "highest"
	EventPolicyWeighted EventPolicy = "weighted"
)

type QuoteInput struct {
	PropertyID   property.ID
	RoomCategory string
	Range        daterange.DateRange
	Guests       int
	EventPolicy  EventPolicy
}

// AppliedFactor records one multiplier step of the nightly breakdown.
type AppliedFactor struct {
	Name   string
	Factor float64
}

// NightPrice is the per-date breakdown: base, each multiplier applied in
// order, and the rounded final price.
type NightPrice struct {
	Date    time.Time
	Base    money.Money
	Factors []AppliedFactor
	Final   money.Money
	Source  RuleSource
}

type BlockedRange struct {
	Span   DateSpan
	Reason string
}

// Unavailable is a business outcome, not a fault: the stay hits at least one
// active block and no partial pricing is produced.
type Unavailable struct {
	Reason  string
	Blocked []BlockedRange
}

type Quote struct {
	PropertyID  property.ID
	Nights      int
	PerNight    []NightPrice
	Total       money.Money
	Currency    string
	Unavailable *Unavailable
}

// Quoter prices a stay; it is a pure reader and never mutates rule state.
type Quoter interface {
	Quote(ctx context.Context, input QuoteInput) (Quote, error)
}
