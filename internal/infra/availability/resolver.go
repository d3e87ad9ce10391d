package availability

import (
	"context"
	"errors"
	"time"

	"stayrates/internal/app/policies"
	domainavailability "stayrates/internal/domain/availability"
	domainpricing "stayrates/internal/domain/pricing"
	domainproperty "stayrates/internal/domain/property"
	"stayrates/internal/domain/shared/daterange"
)

// Resolver answers availability questions from the rule store and the
// external booking ledger. It propagates upstream errors unchanged; the
// degrade-to-neutral policy belongs to the caller.
type Resolver struct {
	Rules      domainpricing.RuleSetRepository
	Properties domainproperty.Repository
	Ledger     policies.BookingLedgerPort
}

func (r *Resolver) IsBlocked(ctx context.Context, id domainproperty.ID, date time.Time) (bool, error) {
	rs, err := r.Rules.ByProperty(ctx, id)
	if err != nil {
		if errors.Is(err, domainpricing.ErrRuleSetNotFound) {
			return false, nil
		}
		return false, err
	}
	return len(rs.BlocksCovering(date)) > 0, nil
}

func (r *Resolver) BlocksOverlapping(ctx context.Context, id domainproperty.ID, stay daterange.DateRange) ([]domainpricing.DateBlock, error) {
	rs, err := r.Rules.ByProperty(ctx, id)
	if err != nil {
		if errors.Is(err, domainpricing.ErrRuleSetNotFound) {
			return nil, nil
		}
		return nil, err
	}
	var out []domainpricing.DateBlock
	for _, b := range rs.BlockedDates {
		if b.Active && b.Span.OverlapsStay(stay) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r *Resolver) Occupancy(ctx context.Context, id domainproperty.ID, stay daterange.DateRange) (map[time.Time]domainavailability.OccupancySample, error) {
	stays, err := r.Ledger.FindOverlapping(ctx, id, stay)
	if err != nil {
		return nil, err
	}
	capacity := 0
	if prop, err := r.Properties.ByID(ctx, id); err == nil && prop != nil {
		capacity = prop.UnitCount
	}
	return domainavailability.BuildOccupancy(stay, capacity, stays), nil
}

var _ domainavailability.Resolver = (*Resolver)(nil)
