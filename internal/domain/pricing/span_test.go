package pricing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stayrates/internal/domain/shared/daterange"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func span(t *testing.T, start, end time.Time) DateSpan {
	t.Helper()
	s, err := NewSpan(start, end)
	require.NoError(t, err)
	return s
}

func TestNewSpan(t *testing.T) {
	_, err := NewSpan(day(2026, 10, 5), day(2026, 10, 1))
	assert.ErrorIs(t, err, ErrInvalidSpan)

	single, err := NewSpan(day(2026, 10, 1), day(2026, 10, 1))
	require.NoError(t, err, "single-day spans are valid")
	assert.True(t, single.Covers(day(2026, 10, 1)))
}

func TestSpanCoversInclusiveBounds(t *testing.T) {
	s := span(t, day(2026, 10, 1), day(2026, 10, 5))

	assert.True(t, s.Covers(day(2026, 10, 1)))
	assert.True(t, s.Covers(day(2026, 10, 5)), "end day is covered, unlike a stay checkout")
	assert.False(t, s.Covers(day(2026, 10, 6)))
	assert.False(t, s.Covers(day(2026, 9, 30)))
}

func TestSpanOverlapsStay(t *testing.T) {
	s := span(t, day(2026, 10, 1), day(2026, 10, 5))

	tests := []struct {
		name     string
		checkIn  time.Time
		checkOut time.Time
		want     bool
	}{
		{name: "stay inside span", checkIn: day(2026, 10, 2), checkOut: day(2026, 10, 4), want: true},
		{name: "last span day is first stay night", checkIn: day(2026, 10, 5), checkOut: day(2026, 10, 7), want: true},
		{name: "checkin after span", checkIn: day(2026, 10, 6), checkOut: day(2026, 10, 8), want: false},
		{name: "checkout on span start shares no night", checkIn: day(2026, 9, 28), checkOut: day(2026, 10, 1), want: false},
		{name: "last stay night is span start", checkIn: day(2026, 9, 28), checkOut: day(2026, 10, 2), want: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stay, err := daterange.New(tt.checkIn, tt.checkOut)
			require.NoError(t, err)
			assert.Equal(t, tt.want, s.OverlapsStay(stay))
		})
	}
}

func TestSpanIntersect(t *testing.T) {
	a := span(t, day(2026, 10, 1), day(2026, 10, 10))
	b := span(t, day(2026, 10, 5), day(2026, 10, 20))

	got, ok := a.Intersect(b)
	require.True(t, ok)
	assert.Equal(t, day(2026, 10, 5), got.Start)
	assert.Equal(t, day(2026, 10, 10), got.End)

	_, ok = a.Intersect(span(t, day(2026, 11, 1), day(2026, 11, 5)))
	assert.False(t, ok)
}
