package pricing

import (
	"errors"
	"time"

	"stayrates/internal/domain/shared/daterange"
)

var ErrInvalidSpan = errors.New("pricing: span end must not precede start")

// DateSpan is an inclusive day interval [Start, End] as administrators
// configure rules; stays remain half-open intervals (see shared/daterange).
type DateSpan struct {
	Start time.Time
	End   time.Time
}

func NewSpan(start, end time.Time) (DateSpan, error) {
	s := DateSpan{Start: daterange.Day(start), End: daterange.Day(end)}
	if err := s.Validate(); err != nil {
		return DateSpan{}, err
	}
	return s, nil
}

func (s DateSpan) Validate() error {
	if s.Start.IsZero() || s.End.IsZero() {
		return ErrInvalidSpan
	}
	if s.End.Before(s.Start) {
		return ErrInvalidSpan
	}
	return nil
}

func (s DateSpan) IsZero() bool {
	return s.Start.IsZero() && s.End.IsZero()
}

// Covers reports whether the day falls inside the span, bounds included.
func (s DateSpan) Covers(d time.Time) bool {
	d = daterange.Day(d)
	return !d.Before(s.Start) && !d.After(s.End)
}

func (s DateSpan) Overlaps(other DateSpan) bool {
	return !s.Start.After(other.End) && !other.Start.After(s.End)
}

// OverlapsStay reports whether any night of the half-open stay interval
// falls inside the span.
func (s DateSpan) OverlapsStay(dr daterange.DateRange) bool {
	lastNight := dr.CheckOut.AddDate(0, 0, -1)
	return !s.Start.After(lastNight) && !dr.CheckIn.After(s.End)
}

// Intersect returns the overlapping part of two spans.
func (s DateSpan) Intersect(other DateSpan) (DateSpan, bool) {
	if !s.Overlaps(other) {
		return DateSpan{}, false
	}
	out := s
	if other.Start.After(out.Start) {
		out.Start = other.Start
	}
	if other.End.Before(out.End) {
		out.End = other.End
	}
	return out, true
}
