package policies

import (
	"context"

	"stayrates/internal/domain/calendarevents"
	"stayrates/internal/domain/shared/daterange"
)

// EventsPort resolves calendar events overlapping a stay window for a
// location; same timeout/degrade contract as the booking ledger.
type EventsPort interface {
	FindOverlapping(ctx context.Context, loc calendarevents.Location, stay daterange.DateRange) ([]calendarevents.Event, error)
}
