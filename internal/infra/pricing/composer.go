package pricing

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"stayrates/internal/app/policies"
	domainavailability "stayrates/internal/domain/availability"
	"stayrates/internal/domain/calendarevents"
	domainpricing "stayrates/internal/domain/pricing"
	domainproperty "stayrates/internal/domain/property"
	"stayrates/internal/domain/shared/daterange"
	"stayrates/internal/domain/shared/money"
	"stayrates/internal/infra/obs"
)

const defaultUpstreamTimeout = 2 * time.Second

// Composer prices stays by walking the rule priority chain night by night:
// custom override, then base rate with seasonal, event and demand multipliers.
// It reads the booking ledger and the events calendar through bounded
// timeouts and degrades to neutral values when either is slow or down, so a
// flaky upstream can distort a price but never fail a quote.
type Composer struct {
	Rules        domainpricing.RuleSetRepository
	Properties   domainproperty.Repository
	Availability domainavailability.Resolver
	Events       policies.EventsPort
	Logger       *slog.Logger
	Metrics      *obs.Metrics
	Timeout      time.Duration
}

func (c *Composer) Quote(ctx context.Context, input domainpricing.QuoteInput) (domainpricing.Quote, error) {
	var zero domainpricing.Quote
	if err := input.Range.Validate(); err != nil {
		return zero, err
	}

	prop, err := c.Properties.ByID(ctx, input.PropertyID)
	if err != nil && !errors.Is(err, domainproperty.ErrNotFound) {
		return zero, err
	}

	rs, err := c.Rules.ByProperty(ctx, input.PropertyID)
	switch {
	case errors.Is(err, domainpricing.ErrRuleSetNotFound):
		// A property without a pricing document still quotes at its base
		// rates; only a property unknown to the catalogue is a hard miss.
		if prop == nil {
			return zero, err
		}
		rs = domainpricing.DefaultRuleSet(prop)
	case err != nil:
		return zero, err
	}

	quote := domainpricing.Quote{
		PropertyID: input.PropertyID,
		Nights:     input.Range.Nights(),
		Currency:   rs.Currency,
	}

	if unavailable := blockedOutcome(rs, input.Range); unavailable != nil {
		quote.Unavailable = unavailable
		if c.Metrics != nil {
			c.Metrics.QuotesServed.WithLabelValues("unavailable").Inc()
		}
		return quote, nil
	}

	occupancy := c.occupancy(ctx, rs, input)
	events := c.events(ctx, prop, input.Range)

	base := rs.BaseFor(prop, input.RoomCategory)
	total := money.Money{Currency: rs.Currency}
	for _, night := range input.Range.Dates() {
		np := c.priceNight(rs, input, base, night, occupancy, events)
		quote.PerNight = append(quote.PerNight, np)
		total.Amount += np.Final.Amount
	}
	quote.Total = total
	if c.Metrics != nil {
		c.Metrics.QuotesServed.WithLabelValues("priced").Inc()
	}
	return quote, nil
}

// priceNight applies the priority chain for a single night. An override
// short-circuits everything else; otherwise multipliers stack on the base in
// seasonal, event, demand order, with the demand surcharge capped relative
// to the base.
func (c *Composer) priceNight(
	rs *domainpricing.RuleSet,
	input domainpricing.QuoteInput,
	base money.Money,
	night time.Time,
	occupancy map[time.Time]domainavailability.OccupancySample,
	events []calendarevents.Event,
) domainpricing.NightPrice {
	np := domainpricing.NightPrice{Date: night, Base: base, Source: domainpricing.SourceBaseRate}

	if ov, ok := rs.OverrideFor(night, input.RoomCategory); ok {
		np.Final = ov.Price
		np.Source = domainpricing.SourceCustom
		return np
	}

	current := base
	if factor := rs.SeasonalFactor(night, input.RoomCategory); factor != 1 {
		current = current.Scale(factor)
		np.Factors = append(np.Factors, domainpricing.AppliedFactor{Name: "seasonal", Factor: factor})
		np.Source = domainpricing.SourceSeasonal
	}

	if factor, name := eventFactor(events, night, input.EventPolicy); factor != 1 {
		current = current.Scale(factor)
		np.Factors = append(np.Factors, domainpricing.AppliedFactor{Name: name, Factor: factor})
		if np.Source == domainpricing.SourceBaseRate {
			np.Source = domainpricing.SourceSeasonal
		}
	}

	if dr := rs.DemandRule; dr != nil && dr.Enabled {
		sample := occupancy[daterange.Day(night)]
		if sample.Fraction()*100 >= float64(dr.OccupancyThreshold) {
			raised := current.Scale(dr.Multiplier)
			capped := base.Scale(1 + dr.MaxIncreasePercent/100)
			final := raised.Min(capped)
			if final.Amount != current.Amount {
				applied := float64(final.Amount) / float64(current.Amount)
				np.Factors = append(np.Factors, domainpricing.AppliedFactor{Name: "demand", Factor: applied})
				np.Source = domainpricing.SourceDemand
				current = final
			}
		}
	}

	np.Final = current
	return np
}

// blockedOutcome returns the unavailability report when any night of the stay
// hits an active block; partial pricing is never produced.
func blockedOutcome(rs *domainpricing.RuleSet, stay daterange.DateRange) *domainpricing.Unavailable {
	var blocked []domainpricing.BlockedRange
	seen := map[domainpricing.DateSpan]bool{}
	for _, night := range stay.Dates() {
		for _, b := range rs.BlocksCovering(night) {
			if seen[b.Span] {
				continue
			}
			seen[b.Span] = true
			blocked = append(blocked, domainpricing.BlockedRange{Span: b.Span, Reason: b.Reason})
		}
	}
	if len(blocked) == 0 {
		return nil
	}
	return &domainpricing.Unavailable{Reason: "dates blocked by host", Blocked: blocked}
}

func (c *Composer) occupancy(
	ctx context.Context,
	rs *domainpricing.RuleSet,
	input domainpricing.QuoteInput,
) map[time.Time]domainavailability.OccupancySample {
	if c.Availability == nil || rs.DemandRule == nil || !rs.DemandRule.Enabled {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout())
	defer cancel()

	samples, err := c.Availability.Occupancy(ctx, input.PropertyID, input.Range)
	if err != nil {
		c.degrade("booking ledger", input.PropertyID, err)
		return nil
	}
	return samples
}

func (c *Composer) events(ctx context.Context, prop *domainproperty.Property, stay daterange.DateRange) []calendarevents.Event {
	if c.Events == nil || prop == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, c.timeout())
	defer cancel()

	loc := calendarevents.Location{City: prop.City, Region: prop.Region}
	events, err := c.Events.FindOverlapping(ctx, loc, stay)
	if err != nil {
		c.degrade("events calendar", prop.ID, err)
		return nil
	}
	return events
}

// eventFactor resolves the calendar-event multiplier for the night under the
// requested policy; 1 means no adjustment.
func eventFactor(events []calendarevents.Event, night time.Time, policy domainpricing.EventPolicy) (float64, string) {
	var active []calendarevents.Event
	for _, ev := range events {
		if ev.ActiveOn(night) {
			active = append(active, ev)
		}
	}
	adj := calendarevents.Compute(active)
	if !adj.HasEvents {
		return 1, ""
	}
	if policy == domainpricing.EventPolicyWeighted {
		return adj.WeightedAverageMultiplier, "event_weighted"
	}
	return adj.HighestImpactMultiplier, "event_highest"
}

func (c *Composer) timeout() time.Duration {
	if c.Timeout > 0 {
		return c.Timeout
	}
	return defaultUpstreamTimeout
}

func (c *Composer) degrade(upstream string, id domainproperty.ID, err error) {
	if c.Logger != nil {
		c.Logger.Warn("upstream lookup failed, pricing with neutral defaults",
			"upstream", upstream, "property_id", id, "error", err)
	}
	if c.Metrics != nil {
		c.Metrics.UpstreamDegrades.WithLabelValues(upstream).Inc()
	}
}

var _ domainpricing.Quoter = (*Composer)(nil)
