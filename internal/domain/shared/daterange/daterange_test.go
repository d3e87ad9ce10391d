package daterange

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNew(t *testing.T) {
	tests := []struct {
		name     string
		checkIn  time.Time
		checkOut time.Time
		wantErr  bool
	}{
		{name: "valid", checkIn: date(2026, 10, 1), checkOut: date(2026, 10, 4)},
		{name: "same day", checkIn: date(2026, 10, 1), checkOut: date(2026, 10, 1), wantErr: true},
		{name: "inverted", checkIn: date(2026, 10, 4), checkOut: date(2026, 10, 1), wantErr: true},
		{name: "zero checkout", checkIn: date(2026, 10, 1), wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(tt.checkIn, tt.checkOut)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidRange)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestDayTruncatesToMidnightUTC(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Kolkata")
	require.NoError(t, err)

	// 2026-10-02 03:30 IST is still 2026-10-01 22:00 UTC.
	got := Day(time.Date(2026, 10, 2, 3, 30, 0, 0, loc))
	assert.Equal(t, date(2026, 10, 1), got)
}

func TestNightsAndDates(t *testing.T) {
	dr, err := New(date(2026, 10, 1), date(2026, 10, 4))
	require.NoError(t, err)

	assert.Equal(t, 3, dr.Nights())
	assert.Equal(t, []time.Time{
		date(2026, 10, 1),
		date(2026, 10, 2),
		date(2026, 10, 3),
	}, dr.Dates(), "checkout day is not a priced night")
}

func TestOverlaps(t *testing.T) {
	a, err := New(date(2026, 10, 1), date(2026, 10, 5))
	require.NoError(t, err)

	backToBack, err := New(date(2026, 10, 5), date(2026, 10, 8))
	require.NoError(t, err)
	assert.False(t, a.Overlaps(backToBack), "checkout day equals next checkin: no shared night")

	overlapping, err := New(date(2026, 10, 4), date(2026, 10, 8))
	require.NoError(t, err)
	assert.True(t, a.Overlaps(overlapping))
}

func TestContainsDate(t *testing.T) {
	dr, err := New(date(2026, 10, 1), date(2026, 10, 4))
	require.NoError(t, err)

	assert.True(t, dr.ContainsDate(date(2026, 10, 1)))
	assert.True(t, dr.ContainsDate(date(2026, 10, 3)))
	assert.False(t, dr.ContainsDate(date(2026, 10, 4)), "half-open: checkout excluded")
	assert.False(t, dr.ContainsDate(date(2026, 9, 30)))
}
