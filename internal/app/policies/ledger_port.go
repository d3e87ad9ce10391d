package policies

import (
	"context"

	"stayrates/internal/domain/availability"
	"stayrates/internal/domain/property"
	"stayrates/internal/domain/shared/daterange"
)

// BookingLedgerPort is the read boundary to the external booking system.
// Lookups run with a bounded timeout; callers degrade to "no bookings" on
// deadline errors rather than failing a quote.
type BookingLedgerPort interface {
	FindOverlapping(ctx context.Context, id property.ID, stay daterange.DateRange) ([]availability.StayRecord, error)
}
