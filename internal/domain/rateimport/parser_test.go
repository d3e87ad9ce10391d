package rateimport

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"stayrates/internal/domain/pricing"
)

func TestParseSampleTemplate(t *testing.T) {
	res := Parse(GenerateSampleTemplate())

	assert.Empty(t, res.Errors, "the downloadable template must parse cleanly")
	assert.Equal(t, 4, res.Summary.TotalRows)
	assert.Equal(t, 4, res.Summary.ValidRows)
	assert.Zero(t, res.Summary.InvalidRows)
	assert.Equal(t, 1, res.Summary.DistinctProperties)
	assert.Equal(t, 2, res.Summary.DistinctCategories)
	require.NotNil(t, res.Summary.DateRange)
	assert.Equal(t, "2026-10-01", res.Summary.DateRange.Start.Format("2006-01-02"))
	assert.Equal(t, "2027-01-05", res.Summary.DateRange.End.Format("2006-01-02"))

	assert.Equal(t, pricing.OccupancyDouble, res.Rows[2].Occupancy, "spreadsheet variants normalize")
	assert.Equal(t, pricing.PlanMAP, res.Rows[2].Plan)
}

func TestParseCollectsRowErrors(t *testing.T) {
	records := [][]string{
		Header(),
		{"prop-001", "deluxe", "EP", "SINGLE", "2026-10-01", "2026-10-20", "4500", ""},
		{"prop-001", "deluxe", "BB", "SINGLE", "2026-10-01", "2026-10-20", "4500", ""},
		{"prop-001", "deluxe", "EP", "SINGLE", "2026-10-20", "2026-10-01", "4500", ""},
		{"prop-001", "deluxe", "EP", "SINGLE", "2026-10-01", "2026-10-20", "free", ""},
		{"", "", "", "", "", "", "", ""},
		{"prop-001", "deluxe", "EP"},
	}

	res := Parse(records)
	assert.Equal(t, 1, res.Summary.ValidRows, "valid rows survive bad neighbours")
	assert.Equal(t, 4, res.Summary.InvalidRows)
	assert.Equal(t, 5, res.Summary.TotalRows, "blank rows are skipped entirely")
	require.Len(t, res.Errors, 4)
	assert.Contains(t, res.Errors[0], "Row 3:")
	assert.Contains(t, res.Errors[0], "unknown plan type")
	assert.Contains(t, res.Errors[1], "start date must be before end date")
	assert.Contains(t, res.Errors[2], "not numeric")
	assert.Contains(t, res.Errors[3], "expected at least 7 columns")
}

func TestParseWithoutHeader(t *testing.T) {
	records := [][]string{
		{"prop-001", "deluxe", "EP", "SINGLE", "2026-10-01", "2026-10-20", "4500"},
	}
	res := Parse(records)
	assert.Equal(t, 1, res.Summary.ValidRows)
	assert.Equal(t, 1, res.Rows[0].Line)
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{name: "iso", raw: "2026-10-01", want: "2026-10-01"},
		{name: "slashes", raw: "2026/10/01", want: "2026-10-01"},
		{name: "day first", raw: "01-10-2026", want: "2026-10-01"},
		{name: "excel epoch serial", raw: "25569", want: "1970-01-01"},
		{name: "excel serial", raw: "45000", want: "2023-03-15"},
		{name: "empty", raw: " ", wantErr: true},
		{name: "garbage", raw: "next tuesday", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDate(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Format("2006-01-02"))
		})
	}
}

func TestParsePriceAcceptsThousandSeparators(t *testing.T) {
	records := [][]string{
		{"prop-001", "deluxe", "EP", "SINGLE", "2026-10-01", "2026-10-20", "12,500"},
	}
	res := Parse(records)
	require.Equal(t, 1, res.Summary.ValidRows)
	assert.Equal(t, int64(12500), res.Rows[0].Price)
}

func TestPlanRatesFiltersByProperty(t *testing.T) {
	res := Parse([][]string{
		{"prop-001", "deluxe", "EP", "SINGLE", "2026-10-01", "2026-10-20", "4500"},
		{"prop-002", "suite", "AP", "DOUBLE", "2026-10-01", "2026-10-20", "9000"},
	})
	require.Len(t, res.Rows, 2)

	rates := PlanRates(res.Rows, "prop-001", "INR")
	require.Len(t, rates, 1)
	assert.Equal(t, "deluxe", rates[0].RoomCategory)
	assert.Equal(t, int64(4500), rates[0].Price.Amount)
	assert.Equal(t, "INR", rates[0].Price.Currency)
	assert.True(t, rates[0].Active)
}
