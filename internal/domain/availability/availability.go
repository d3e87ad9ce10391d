package availability

import (
	"context"
	"time"

	"stayrates/internal/domain/pricing"
	"stayrates/internal/domain/property"
	"stayrates/internal/domain/shared/daterange"
)

type StayStatus string

const (
	StatusConfirmed StayStatus = "CONFIRMED"
	StatusActive    StayStatus = "ACTIVE"
	StatusCancelled StayStatus = "CANCELLED"
	StatusCompleted StayStatus = "COMPLETED"
)

// Occupying reports whether a booking in this status consumes a unit.
func (s StayStatus) Occupying() bool {
	return s == StatusConfirmed || s == StatusActive
}

// StayRecord is the slice of the external booking ledger the resolver needs.
type StayRecord struct {
	CheckIn  time.Time
	CheckOut time.Time
	Status   StayStatus
}

// CoversNight: checked in on or before the date and checking out after it.
func (r StayRecord) CoversNight(d time.Time) bool {
	d = daterange.Day(d)
	return !daterange.Day(r.CheckIn).After(d) && daterange.Day(r.CheckOut).After(d)
}

// OccupancySample is derived on demand, never stored.
type OccupancySample struct {
	Date          time.Time
	OccupiedCount int
	Capacity      int
}

// Fraction returns booked units over capacity in [0, 1]; zero capacity
// yields 0, never a division by zero.
func (s OccupancySample) Fraction() float64 {
	if s.Capacity <= 0 {
		return 0
	}
	f := float64(s.OccupiedCount) / float64(s.Capacity)
	if f > 1 {
		return 1
	}
	return f
}

// BuildOccupancy counts occupying stays per night of the range.
func BuildOccupancy(stay daterange.DateRange, capacity int, records []StayRecord) map[time.Time]OccupancySample {
	out := make(map[time.Time]OccupancySample, stay.Nights())
	for _, d := range stay.Dates() {
		sample := OccupancySample{Date: d, Capacity: capacity}
		for _, rec := range records {
			if rec.Status.Occupying() && rec.CoversNight(d) {
				sample.OccupiedCount++
			}
		}
		out[d] = sample
	}
	return out
}

// Resolver answers date-level availability questions for a property; it is
// read-only.
type Resolver interface {
	IsBlocked(ctx context.Context, id property.ID, date time.Time) (bool, error)
	BlocksOverlapping(ctx context.Context, id property.ID, stay daterange.DateRange) ([]pricing.DateBlock, error)
	Occupancy(ctx context.Context, id property.ID, stay daterange.DateRange) (map[time.Time]OccupancySample, error)
}
