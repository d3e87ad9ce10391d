package pricing

import (
	"context"
	"time"

	"stayrates/internal/domain/property"
)

type ChangeType string

const (
	ChangeCreate ChangeType = "CREATE"
	ChangeUpdate ChangeType = "UPDATE"
	ChangeDelete ChangeType = "DELETE"
)

// ChangeRecord is an immutable audit entry written once per committed edit,
// never for a rolled-back attempt.
type ChangeRecord struct {
	ID                 string
	PropertyID         property.ID
	ChangeType         ChangeType
	Actor              string
	Timestamp          time.Time
	Before             *RuleSet
	After              *RuleSet
	AffectedSpan       *DateSpan
	AffectedCategories []string
}

// ChangeLog is append-only; records are never deleted.
type ChangeLog interface {
	Append(ctx context.Context, rec ChangeRecord) error
	ListByProperty(ctx context.Context, id property.ID, limit int) ([]ChangeRecord, error)
}

// NewChangeRecord snapshots the before/after images of a committed edit.
func NewChangeRecord(id string, actor string, before, after *RuleSet, at time.Time) ChangeRecord {
	rec := ChangeRecord{
		ID:        id,
		Actor:     actor,
		Timestamp: at.UTC(),
		Before:    before,
		After:     after,
	}
	if after != nil {
		rec.PropertyID = after.PropertyID
		rec.AffectedCategories = affectedCategories(after)
		rec.AffectedSpan = affectedSpan(after)
	}
	switch {
	case before == nil:
		rec.ChangeType = ChangeCreate
	case after == nil:
		rec.ChangeType = ChangeDelete
	default:
		rec.ChangeType = ChangeUpdate
	}
	return rec
}

func affectedCategories(rs *RuleSet) []string {
	seen := map[string]bool{}
	var out []string
	add := func(c string) {
		if c == "" || seen[c] {
			return
		}
		seen[c] = true
		out = append(out, c)
	}
	for _, ov := range rs.CustomOverrides {
		add(ov.RoomCategory)
	}
	for _, sr := range rs.SeasonalRules {
		add(sr.RoomCategory)
	}
	for _, pr := range rs.RateTable {
		add(pr.RoomCategory)
	}
	return out
}

func affectedSpan(rs *RuleSet) *DateSpan {
	var span *DateSpan
	widen := func(s DateSpan) {
		if s.IsZero() {
			return
		}
		if span == nil {
			copied := s
			span = &copied
			return
		}
		if s.Start.Before(span.Start) {
			span.Start = s.Start
		}
		if s.End.After(span.End) {
			span.End = s.End
		}
	}
	for _, ov := range rs.CustomOverrides {
		widen(ov.Span)
	}
	for _, b := range rs.BlockedDates {
		widen(b.Span)
	}
	for _, sr := range rs.SeasonalRules {
		widen(sr.Span)
	}
	for _, pr := range rs.RateTable {
		widen(pr.Span)
	}
	return span
}
