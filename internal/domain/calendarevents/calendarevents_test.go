package calendarevents

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestImpactWeight(t *testing.T) {
	assert.Equal(t, 1, ImpactLow.Weight())
	assert.Equal(t, 2, ImpactMedium.Weight())
	assert.Equal(t, 3, ImpactHigh.Weight())
	assert.Equal(t, 1, Impact("unknown").Weight())
}

func TestCompute(t *testing.T) {
	concert := Event{Name: "concert", Impact: ImpactLow, Multiplier: 1.1}
	expo := Event{Name: "expo", Impact: ImpactMedium, Multiplier: 1.6}
	festival := Event{Name: "festival", Impact: ImpactHigh, Multiplier: 1.5}

	adj := Compute([]Event{concert, expo, festival})
	require.True(t, adj.HasEvents)
	assert.InDelta(t, 1.5, adj.HighestImpactMultiplier, 1e-9,
		"highest follows impact weight, not the largest multiplier")
	// (1.1*1 + 1.6*2 + 1.5*3) / 6
	assert.InDelta(t, 1.3, adj.WeightedAverageMultiplier, 1e-9)
	assert.Equal(t, []string{"concert", "expo", "festival"}, adj.Names)
}

func TestComputeTieBreaksOnMultiplier(t *testing.T) {
	a := Event{Name: "a", Impact: ImpactHigh, Multiplier: 1.3}
	b := Event{Name: "b", Impact: ImpactHigh, Multiplier: 1.7}

	adj := Compute([]Event{a, b})
	assert.InDelta(t, 1.7, adj.HighestImpactMultiplier, 1e-9)
}

func TestComputeEmpty(t *testing.T) {
	adj := Compute(nil)
	assert.False(t, adj.HasEvents)
	assert.Zero(t, adj.HighestImpactMultiplier)
}

func TestEventActiveOnInclusiveBounds(t *testing.T) {
	ev := Event{Start: day(2026, 12, 24), End: day(2026, 12, 26)}

	assert.True(t, ev.ActiveOn(day(2026, 12, 24)))
	assert.True(t, ev.ActiveOn(day(2026, 12, 26)))
	assert.False(t, ev.ActiveOn(day(2026, 12, 27)))
	assert.False(t, ev.ActiveOn(day(2026, 12, 23)))
}

func TestMatchesLocation(t *testing.T) {
	tests := []struct {
		name  string
		event Event
		loc   Location
		want  bool
	}{
		{name: "city match case-insensitive", event: Event{City: "Jaipur"}, loc: Location{City: "jaipur"}, want: true},
		{name: "region match", event: Event{Region: "Rajasthan"}, loc: Location{City: "Udaipur", Region: "rajasthan"}, want: true},
		{name: "nationwide matches anywhere", event: Event{Nationwide: true}, loc: Location{City: "Kochi"}, want: true},
		{name: "no overlap", event: Event{City: "Goa"}, loc: Location{City: "Jaipur", Region: "Rajasthan"}, want: false},
		{name: "empty city never matches empty location", event: Event{City: "Goa"}, loc: Location{}, want: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.event.MatchesLocation(tt.loc))
		})
	}
}
