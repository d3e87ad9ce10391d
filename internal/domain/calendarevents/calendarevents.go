package calendarevents

import (
	"strings"
	"time"

	"stayrates/internal/domain/shared/daterange"
)

type Impact string

const (
	ImpactLow    Impact = "low"
	ImpactMedium Impact = "medium"
	ImpactHigh   Impact = "high"
)

// Weight maps impact classes onto the weighting used for the averaged
// multiplier: low=1, medium=2, high=3.
func (i Impact) Weight() int {
	switch i {
	case ImpactMedium:
		return 2
	case ImpactHigh:
		return 3
	default:
		return 1
	}
}

// Event is a demand-relevant calendar entry (festival, conference, holiday).
type Event struct {
	Name       string
	Impact     Impact
	Multiplier float64
	Start      time.Time
	End        time.Time
	City       string
	Region     string
	Nationwide bool
}

// ActiveOn treats the event window as inclusive day bounds.
func (e Event) ActiveOn(d time.Time) bool {
	d = daterange.Day(d)
	return !d.Before(daterange.Day(e.Start)) && !d.After(daterange.Day(e.End))
}

type Location struct {
	City   string
	Region string
}

func (e Event) MatchesLocation(loc Location) bool {
	if e.Nationwide {
		return true
	}
	if e.City != "" && strings.EqualFold(e.City, loc.City) {
		return true
	}
	return e.Region != "" && strings.EqualFold(e.Region, loc.Region)
}

// Adjustment summarises overlapping events; the caller picks which
// multiplier to apply, that policy is not enforced here.
type Adjustment struct {
	HasEvents                 bool
	HighestImpactMultiplier   float64
	WeightedAverageMultiplier float64
	Names                     []string
}

// Compute derives the adjustment from the events at hand. The highest value
// belongs to the heaviest-impact event (larger multiplier wins ties); the
// average weights each multiplier by its impact class.
func Compute(events []Event) Adjustment {
	if len(events) == 0 {
		return Adjustment{}
	}
	adj := Adjustment{HasEvents: true}
	bestWeight := 0
	weightedSum := 0.0
	weightTotal := 0.0
	for _, ev := range events {
		w := ev.Impact.Weight()
		if w > bestWeight || (w == bestWeight && ev.Multiplier > adj.HighestImpactMultiplier) {
			bestWeight = w
			adj.HighestImpactMultiplier = ev.Multiplier
		}
		weightedSum += ev.Multiplier * float64(w)
		weightTotal += float64(w)
		adj.Names = append(adj.Names, ev.Name)
	}
	adj.WeightedAverageMultiplier = weightedSum / weightTotal
	return adj
}
