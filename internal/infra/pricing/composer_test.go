package pricing

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	domainavailability "stayrates/internal/domain/availability"
	"stayrates/internal/domain/calendarevents"
	domainpricing "stayrates/internal/domain/pricing"
	domainproperty "stayrates/internal/domain/property"
	"stayrates/internal/domain/shared/daterange"
	"stayrates/internal/domain/shared/money"
	infraavailability "stayrates/internal/infra/availability"
	"stayrates/internal/infra/storage/memory"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func span(t *testing.T, start, end time.Time) domainpricing.DateSpan {
	t.Helper()
	s, err := domainpricing.NewSpan(start, end)
	require.NoError(t, err)
	return s
}

type composerFixture struct {
	composer *Composer
	rules    *memory.RuleSetRepository
	props    *memory.PropertyRepository
	ledger   *memory.BookingLedger
	events   *memory.EventsSource
}

func newComposerFixture(t *testing.T) composerFixture {
	t.Helper()
	rules := memory.NewRuleSetRepository()
	props := memory.NewPropertyRepository()
	ledger := memory.NewBookingLedger()
	events := memory.NewEventsSource()

	require.NoError(t, props.Save(context.Background(), &domainproperty.Property{
		ID:        "prop-001",
		City:      "Jaipur",
		Region:    "Rajasthan",
		Currency:  "INR",
		UnitCount: 2,
	}))

	return composerFixture{
		composer: &Composer{
			Rules:      rules,
			Properties: props,
			Availability: &infraavailability.Resolver{
				Rules:      rules,
				Properties: props,
				Ledger:     ledger,
			},
			Events: events,
		},
		rules:  rules,
		props:  props,
		ledger: ledger,
		events: events,
	}
}

func (fx composerFixture) saveRules(t *testing.T, rs *domainpricing.RuleSet) {
	t.Helper()
	require.NoError(t, fx.rules.Save(context.Background(), rs))
}

func stayInput(t *testing.T, checkIn, checkOut time.Time) domainpricing.QuoteInput {
	t.Helper()
	stay, err := daterange.New(checkIn, checkOut)
	require.NoError(t, err)
	return domainpricing.QuoteInput{PropertyID: "prop-001", Range: stay}
}

func TestQuoteBasePricing(t *testing.T) {
	fx := newComposerFixture(t)
	fx.saveRules(t, domainpricing.NewRuleSet("prop-001", money.Must(1000, "INR")))

	quote, err := fx.composer.Quote(context.Background(), stayInput(t, day(2026, 10, 1), day(2026, 10, 4)))
	require.NoError(t, err)

	assert.Equal(t, 3, quote.Nights)
	assert.Equal(t, int64(3000), quote.Total.Amount)
	assert.Equal(t, "INR", quote.Currency)
	require.Len(t, quote.PerNight, 3)
	for _, night := range quote.PerNight {
		assert.Equal(t, int64(1000), night.Final.Amount)
		assert.Equal(t, domainpricing.SourceBaseRate, night.Source)
		assert.Empty(t, night.Factors)
	}
}

func TestQuoteWithoutRuleSetPricesAtBase(t *testing.T) {
	fx := newComposerFixture(t)
	require.NoError(t, fx.props.Save(context.Background(), &domainproperty.Property{
		ID:        "prop-002",
		Currency:  "INR",
		UnitCount: 2,
		Categories: []domainproperty.RoomCategory{
			{Code: "deluxe", BaseRate: money.Must(3000, "INR"), Units: 1},
			{Code: "suite", BaseRate: money.Must(6000, "INR"), Units: 1},
		},
	}))

	input := stayInput(t, day(2026, 10, 1), day(2026, 10, 3))
	input.PropertyID = "prop-002"

	quote, err := fx.composer.Quote(context.Background(), input)
	require.NoError(t, err, "a catalogued property quotes even before any pricing is configured")
	require.Len(t, quote.PerNight, 2)
	assert.Equal(t, int64(3000), quote.PerNight[0].Final.Amount, "cheapest category rate stands in for the base")
	assert.Equal(t, domainpricing.SourceBaseRate, quote.PerNight[0].Source)
	assert.Equal(t, "INR", quote.Currency)

	input.RoomCategory = "suite"
	quote, err = fx.composer.Quote(context.Background(), input)
	require.NoError(t, err)
	assert.Equal(t, int64(6000), quote.PerNight[0].Final.Amount)
}

func TestQuoteOverrideShortCircuitsMultipliers(t *testing.T) {
	fx := newComposerFixture(t)
	rs := domainpricing.NewRuleSet("prop-001", money.Must(1000, "INR"))
	rs.CustomOverrides = []domainpricing.CustomOverride{
		{Span: span(t, day(2026, 12, 24), day(2026, 12, 26)), Price: money.Must(5000, "INR"), Active: true},
	}
	rs.SeasonalRules = []domainpricing.SeasonalRule{
		{Span: span(t, day(2026, 12, 1), day(2026, 12, 31)), Multiplier: 2.0, Active: true},
	}
	fx.saveRules(t, rs)

	quote, err := fx.composer.Quote(context.Background(), stayInput(t, day(2026, 12, 24), day(2026, 12, 26)))
	require.NoError(t, err)

	require.Len(t, quote.PerNight, 2)
	for _, night := range quote.PerNight {
		assert.Equal(t, int64(5000), night.Final.Amount, "an override ignores every multiplier")
		assert.Equal(t, domainpricing.SourceCustom, night.Source)
		assert.Empty(t, night.Factors)
	}
	assert.Equal(t, int64(10000), quote.Total.Amount)
}

func TestQuoteBlockedStayIsUnavailable(t *testing.T) {
	fx := newComposerFixture(t)
	rs := domainpricing.NewRuleSet("prop-001", money.Must(1000, "INR"))
	rs.BlockedDates = []domainpricing.DateBlock{
		{Span: span(t, day(2026, 10, 2), day(2026, 10, 2)), Reason: "maintenance", Active: true},
	}
	fx.saveRules(t, rs)

	quote, err := fx.composer.Quote(context.Background(), stayInput(t, day(2026, 10, 1), day(2026, 10, 4)))
	require.NoError(t, err, "a blocked stay is an outcome, not a fault")

	require.NotNil(t, quote.Unavailable)
	assert.Equal(t, "dates blocked by host", quote.Unavailable.Reason)
	require.Len(t, quote.Unavailable.Blocked, 1)
	assert.Equal(t, "maintenance", quote.Unavailable.Blocked[0].Reason)
	assert.Empty(t, quote.PerNight, "no partial pricing for blocked stays")
	assert.Zero(t, quote.Total.Amount)
}

func TestQuoteSeasonalRulesStack(t *testing.T) {
	fx := newComposerFixture(t)
	rs := domainpricing.NewRuleSet("prop-001", money.Must(1000, "INR"))
	rs.SeasonalRules = []domainpricing.SeasonalRule{
		{Span: span(t, day(2026, 12, 1), day(2026, 12, 31)), Multiplier: 1.2, Active: true},
		{Span: span(t, day(2026, 12, 20), day(2027, 1, 5)), Multiplier: 1.5, Active: true},
	}
	fx.saveRules(t, rs)

	quote, err := fx.composer.Quote(context.Background(), stayInput(t, day(2026, 12, 25), day(2026, 12, 26)))
	require.NoError(t, err)

	require.Len(t, quote.PerNight, 1)
	night := quote.PerNight[0]
	assert.Equal(t, int64(1800), night.Final.Amount)
	assert.Equal(t, domainpricing.SourceSeasonal, night.Source)
	require.Len(t, night.Factors, 1)
	assert.Equal(t, "seasonal", night.Factors[0].Name)
	assert.InDelta(t, 1.8, night.Factors[0].Factor, 1e-9)

	// Stacking is order-independent: the reversed list prices identically.
	rs.SeasonalRules[0], rs.SeasonalRules[1] = rs.SeasonalRules[1], rs.SeasonalRules[0]
	fx.saveRules(t, rs)
	swapped, err := fx.composer.Quote(context.Background(), stayInput(t, day(2026, 12, 25), day(2026, 12, 26)))
	require.NoError(t, err)
	assert.Equal(t, quote.Total.Amount, swapped.Total.Amount)
	assert.Equal(t, quote.PerNight[0].Final.Amount, swapped.PerNight[0].Final.Amount)
}

func TestQuoteEventPolicies(t *testing.T) {
	fx := newComposerFixture(t)
	fx.saveRules(t, domainpricing.NewRuleSet("prop-001", money.Must(1000, "INR")))
	fx.events.Add(
		calendarevents.Event{Name: "concert", Impact: calendarevents.ImpactLow, Multiplier: 1.1, Start: day(2026, 11, 10), End: day(2026, 11, 12), City: "Jaipur"},
		calendarevents.Event{Name: "festival", Impact: calendarevents.ImpactHigh, Multiplier: 1.5, Start: day(2026, 11, 10), End: day(2026, 11, 12), Nationwide: true},
	)

	input := stayInput(t, day(2026, 11, 10), day(2026, 11, 11))

	highest, err := fx.composer.Quote(context.Background(), input)
	require.NoError(t, err)
	require.Len(t, highest.PerNight, 1)
	assert.Equal(t, int64(1500), highest.PerNight[0].Final.Amount)
	assert.Equal(t, "event_highest", highest.PerNight[0].Factors[0].Name)

	input.EventPolicy = domainpricing.EventPolicyWeighted
	weighted, err := fx.composer.Quote(context.Background(), input)
	require.NoError(t, err)
	// (1.1*1 + 1.5*3) / 4
	assert.Equal(t, int64(1400), weighted.PerNight[0].Final.Amount)
	assert.Equal(t, "event_weighted", weighted.PerNight[0].Factors[0].Name)
}

func TestQuoteDemandSurchargeIsCapped(t *testing.T) {
	fx := newComposerFixture(t)
	rs := domainpricing.NewRuleSet("prop-001", money.Must(1000, "INR"))
	rs.DemandRule = &domainpricing.DemandRule{
		Enabled:            true,
		OccupancyThreshold: 80,
		Multiplier:         1.2,
		MaxIncreasePercent: 15,
	}
	fx.saveRules(t, rs)

	for i := 0; i < 2; i++ {
		fx.ledger.Add("prop-001", domainavailability.StayRecord{
			CheckIn:  day(2026, 10, 1),
			CheckOut: day(2026, 10, 3),
			Status:   domainavailability.StatusConfirmed,
		})
	}

	quote, err := fx.composer.Quote(context.Background(), stayInput(t, day(2026, 10, 1), day(2026, 10, 2)))
	require.NoError(t, err)

	require.Len(t, quote.PerNight, 1)
	night := quote.PerNight[0]
	assert.Equal(t, int64(1150), night.Final.Amount, "1.2 multiplier capped at +15% of base")
	assert.Equal(t, domainpricing.SourceDemand, night.Source)
	require.Len(t, night.Factors, 1)
	assert.Equal(t, "demand", night.Factors[0].Name)
	assert.InDelta(t, 1.15, night.Factors[0].Factor, 1e-9)
}

func TestQuoteDemandCapAppliesToSeasonalPrice(t *testing.T) {
	fx := newComposerFixture(t)
	rs := domainpricing.NewRuleSet("prop-001", money.Must(1000, "INR"))
	rs.SeasonalRules = []domainpricing.SeasonalRule{
		{Span: span(t, day(2026, 10, 1), day(2026, 10, 31)), Multiplier: 1.2, Active: true},
	}
	rs.DemandRule = &domainpricing.DemandRule{
		Enabled:            true,
		OccupancyThreshold: 80,
		Multiplier:         1.1,
		MaxIncreasePercent: 15,
	}
	fx.saveRules(t, rs)

	for i := 0; i < 2; i++ {
		fx.ledger.Add("prop-001", domainavailability.StayRecord{
			CheckIn:  day(2026, 10, 1),
			CheckOut: day(2026, 10, 3),
			Status:   domainavailability.StatusConfirmed,
		})
	}

	quote, err := fx.composer.Quote(context.Background(), stayInput(t, day(2026, 10, 1), day(2026, 10, 2)))
	require.NoError(t, err)

	// min(1000 * 1.2 * 1.1, 1000 * 1.15): the cap is anchored to the base,
	// not to the already-multiplied seasonal price.
	require.Len(t, quote.PerNight, 1)
	night := quote.PerNight[0]
	assert.Equal(t, int64(1150), night.Final.Amount)
	assert.Equal(t, domainpricing.SourceDemand, night.Source)
	require.Len(t, night.Factors, 2)
	assert.Equal(t, "seasonal", night.Factors[0].Name)
	assert.InDelta(t, 1.2, night.Factors[0].Factor, 1e-9)
	assert.Equal(t, "demand", night.Factors[1].Name)
	assert.InDelta(t, 1150.0/1200.0, night.Factors[1].Factor, 1e-9)
}

func TestQuoteDemandBelowThreshold(t *testing.T) {
	fx := newComposerFixture(t)
	rs := domainpricing.NewRuleSet("prop-001", money.Must(1000, "INR"))
	rs.DemandRule = &domainpricing.DemandRule{
		Enabled:            true,
		OccupancyThreshold: 80,
		Multiplier:         1.2,
		MaxIncreasePercent: 15,
	}
	fx.saveRules(t, rs)

	fx.ledger.Add("prop-001", domainavailability.StayRecord{
		CheckIn:  day(2026, 10, 1),
		CheckOut: day(2026, 10, 3),
		Status:   domainavailability.StatusConfirmed,
	})

	quote, err := fx.composer.Quote(context.Background(), stayInput(t, day(2026, 10, 1), day(2026, 10, 2)))
	require.NoError(t, err)
	assert.Equal(t, int64(1000), quote.PerNight[0].Final.Amount, "50% occupancy stays below the 80% threshold")
}

type failingEvents struct{}

func (failingEvents) FindOverlapping(ctx context.Context, loc calendarevents.Location, stay daterange.DateRange) ([]calendarevents.Event, error) {
	return nil, errors.New("calendar service timeout")
}

func TestQuoteDegradesWhenEventsUpstreamFails(t *testing.T) {
	fx := newComposerFixture(t)
	fx.saveRules(t, domainpricing.NewRuleSet("prop-001", money.Must(1000, "INR")))
	fx.composer.Events = failingEvents{}

	quote, err := fx.composer.Quote(context.Background(), stayInput(t, day(2026, 10, 1), day(2026, 10, 2)))
	require.NoError(t, err, "a flaky upstream never fails a quote")
	assert.Equal(t, int64(1000), quote.PerNight[0].Final.Amount)
	assert.Empty(t, quote.PerNight[0].Factors)
}

func TestQuoteUnknownProperty(t *testing.T) {
	fx := newComposerFixture(t)

	input := stayInput(t, day(2026, 10, 1), day(2026, 10, 2))
	input.PropertyID = "prop-404"
	_, err := fx.composer.Quote(context.Background(), input)
	assert.ErrorIs(t, err, domainpricing.ErrRuleSetNotFound, "no catalogue entry and no rules is a hard miss")
}

func TestQuoteInvalidRange(t *testing.T) {
	fx := newComposerFixture(t)
	fx.saveRules(t, domainpricing.NewRuleSet("prop-001", money.Must(1000, "INR")))

	_, err := fx.composer.Quote(context.Background(), domainpricing.QuoteInput{
		PropertyID: "prop-001",
		Range:      daterange.DateRange{CheckIn: day(2026, 10, 4), CheckOut: day(2026, 10, 1)},
	})
	assert.ErrorIs(t, err, daterange.ErrInvalidRange)
}
