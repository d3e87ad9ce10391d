package rateimport

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"stayrates/internal/domain/pricing"
	"stayrates/internal/domain/shared/money"
)

// Column layout of a bulk rate sheet. The seven leading columns are
// required; season type is optional.
const (
	colProperty = iota
	colCategory
	colPlan
	colOccupancy
	colStartDate
	colEndDate
	colPrice
	colSeasonType

	requiredColumns = 7
)

// excelSerialOffset converts spreadsheet serial day numbers to the Unix
// epoch: serial 25569 is 1970-01-01.
const excelSerialOffset = 25569

// Row is one normalized rate entry parsed from tabular input.
type Row struct {
	Line         int
	PropertyID   string
	RoomCategory string
	Plan         pricing.PlanType
	Occupancy    pricing.OccupancyType
	Price        int64
	Span         pricing.DateSpan
	SeasonType   string
}

type Summary struct {
	TotalRows          int               `json:"total_rows"`
	ValidRows          int               `json:"valid_rows"`
	InvalidRows        int               `json:"invalid_rows"`
	DistinctProperties int               `json:"distinct_properties"`
	DistinctCategories int               `json:"distinct_categories"`
	DateRange          *pricing.DateSpan `json:"date_range,omitempty"`
}

type Result struct {
	Rows    []Row
	Errors  []string
	Summary Summary
}

// Parse normalizes tabular input best-effort: rows failing any constraint
// are collected as row-indexed errors while valid rows are still returned.
// It never writes anywhere; persisting goes through the pricing transaction
// manager in a separate step.
func Parse(records [][]string) Result {
	res := Result{}
	properties := map[string]bool{}
	categories := map[string]bool{}

	start := 0
	if len(records) > 0 && isHeader(records[0]) {
		start = 1
	}

	for i := start; i < len(records); i++ {
		line := i + 1
		record := records[i]
		if blankRecord(record) {
			continue
		}
		res.Summary.TotalRows++

		row, err := parseRecord(line, record)
		if err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("Row %d: %v", line, err))
			res.Summary.InvalidRows++
			continue
		}
		res.Rows = append(res.Rows, row)
		res.Summary.ValidRows++
		properties[row.PropertyID] = true
		categories[row.RoomCategory] = true
		widen(&res.Summary.DateRange, row.Span)
	}

	res.Summary.DistinctProperties = len(properties)
	res.Summary.DistinctCategories = len(categories)
	return res
}

func parseRecord(line int, record []string) (Row, error) {
	if len(record) < requiredColumns {
		return Row{}, fmt.Errorf("expected at least %d columns, got %d", requiredColumns, len(record))
	}
	row := Row{Line: line}

	row.PropertyID = strings.TrimSpace(record[colProperty])
	if row.PropertyID == "" {
		return Row{}, fmt.Errorf("property is required")
	}
	row.RoomCategory = strings.TrimSpace(record[colCategory])
	if row.RoomCategory == "" {
		return Row{}, fmt.Errorf("room category is required")
	}

	plan, ok := pricing.ParsePlanType(record[colPlan])
	if !ok {
		return Row{}, fmt.Errorf("unknown plan type %q", strings.TrimSpace(record[colPlan]))
	}
	row.Plan = plan

	occupancy, ok := pricing.NormalizeOccupancy(record[colOccupancy])
	if !ok {
		return Row{}, fmt.Errorf("unknown occupancy type %q", strings.TrimSpace(record[colOccupancy]))
	}
	row.Occupancy = occupancy

	startDate, err := ParseDate(record[colStartDate])
	if err != nil {
		return Row{}, fmt.Errorf("invalid start date %q", strings.TrimSpace(record[colStartDate]))
	}
	endDate, err := ParseDate(record[colEndDate])
	if err != nil {
		return Row{}, fmt.Errorf("invalid end date %q", strings.TrimSpace(record[colEndDate]))
	}
	if !startDate.Before(endDate) {
		return Row{}, fmt.Errorf("start date must be before end date")
	}
	span, err := pricing.NewSpan(startDate, endDate)
	if err != nil {
		return Row{}, err
	}
	row.Span = span

	price, err := parsePrice(record[colPrice])
	if err != nil {
		return Row{}, err
	}
	row.Price = price

	if len(record) > colSeasonType {
		row.SeasonType = strings.TrimSpace(record[colSeasonType])
	}
	return row, nil
}

// ParseDate accepts ISO dates and numeric spreadsheet serials
// (serial N maps to epoch + (N - 25569) days).
func ParseDate(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	for _, layout := range []string{"2006-01-02", time.RFC3339, "2006/01/02", "02-01-2006"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), nil
		}
	}
	if serial, err := strconv.ParseFloat(raw, 64); err == nil {
		days := serial - excelSerialOffset
		return time.Unix(0, 0).UTC().Add(time.Duration(days * 24 * float64(time.Hour))), nil
	}
	return time.Time{}, fmt.Errorf("unparseable date")
}

func parsePrice(raw string) (int64, error) {
	cleaned := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	val, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return 0, fmt.Errorf("price %q is not numeric", strings.TrimSpace(raw))
	}
	if val <= 0 {
		return 0, fmt.Errorf("price must be positive")
	}
	return int64(math.Round(val)), nil
}

func isHeader(record []string) bool {
	if len(record) == 0 {
		return false
	}
	return strings.Contains(strings.ToLower(record[colProperty]), "property")
}

func blankRecord(record []string) bool {
	for _, cell := range record {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func widen(span **pricing.DateSpan, s pricing.DateSpan) {
	if *span == nil {
		copied := s
		*span = &copied
		return
	}
	if s.Start.Before((*span).Start) {
		(*span).Start = s.Start
	}
	if s.End.After((*span).End) {
		(*span).End = s.End
	}
}

// PlanRates converts parsed rows for one property into rate-table entries
// ready for a transactional commit.
func PlanRates(rows []Row, propertyID, currency string) []pricing.PlanRate {
	var out []pricing.PlanRate
	for _, row := range rows {
		if row.PropertyID != propertyID {
			continue
		}
		out = append(out, pricing.PlanRate{
			RoomCategory: row.RoomCategory,
			Plan:         row.Plan,
			Occupancy:    row.Occupancy,
			Price:        money.Money{Amount: row.Price, Currency: currency},
			Span:         row.Span,
			Active:       true,
		})
	}
	return out
}

// Header is the canonical column order for templates and exports.
func Header() []string {
	return []string{"Property", "Room Category", "Plan Type", "Occupancy Type", "Start Date", "End Date", "Price", "Season Type"}
}

// GenerateSampleTemplate produces rows that Parse accepts with zero errors;
// admins download this as the starting sheet.
func GenerateSampleTemplate() [][]string {
	return [][]string{
		Header(),
		{"prop-001", "deluxe", "EP", "SINGLE", "2026-10-01", "2026-12-20", "4500", "peak"},
		{"prop-001", "deluxe", "CP", "DOUBLE", "2026-10-01", "2026-12-20", "5200", "peak"},
		{"prop-001", "suite", "MAP", "DOUBLE SHARING", "2026-10-01", "2026-12-20", "8800", "peak"},
		{"prop-001", "suite", "AP", "TRIPLE SHARING", "2026-12-21", "2027-01-05", "10400", "festive"},
	}
}
