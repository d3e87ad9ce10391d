package memory

import (
	"context"
	"sync"

	domainavailability "stayrates/internal/domain/availability"
	domaincalendarevents "stayrates/internal/domain/calendarevents"
	domainpricing "stayrates/internal/domain/pricing"
	domainproperty "stayrates/internal/domain/property"
	"stayrates/internal/domain/shared/daterange"
)

// RuleSetRepository keeps pricing documents in memory. Reads hand out deep
// copies so callers can mutate freely before a transactional Save.
type RuleSetRepository struct {
	mu    sync.RWMutex
	items map[domainproperty.ID]*domainpricing.RuleSet
}

func NewRuleSetRepository() *RuleSetRepository {
	return &RuleSetRepository{items: make(map[domainproperty.ID]*domainpricing.RuleSet)}
}

func (r *RuleSetRepository) ByProperty(ctx context.Context, id domainproperty.ID) (*domainpricing.RuleSet, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rs, ok := r.items[id]
	if !ok {
		return nil, domainpricing.ErrRuleSetNotFound
	}
	return rs.Clone(), nil
}

func (r *RuleSetRepository) Save(ctx context.Context, rs *domainpricing.RuleSet) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[rs.PropertyID] = rs.Clone()
	return nil
}

func (r *RuleSetRepository) Delete(ctx context.Context, id domainproperty.ID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.items, id)
	return nil
}

// RateRowRepository stores the flattened projection per property.
type RateRowRepository struct {
	mu    sync.RWMutex
	items map[domainproperty.ID][]domainpricing.RateRow
}

func NewRateRowRepository() *RateRowRepository {
	return &RateRowRepository{items: make(map[domainproperty.ID][]domainpricing.RateRow)}
}

func (r *RateRowRepository) ListByProperty(ctx context.Context, id domainproperty.ID) ([]domainpricing.RateRow, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]domainpricing.RateRow(nil), r.items[id]...), nil
}

func (r *RateRowRepository) ReplaceForProperty(ctx context.Context, id domainproperty.ID, rows []domainpricing.RateRow) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.items[id] = append([]domainpricing.RateRow(nil), rows...)
	return nil
}

// ChangeLog is an append-only in-memory audit trail, newest first on reads.
type ChangeLog struct {
	mu    sync.RWMutex
	items map[domainproperty.ID][]domainpricing.ChangeRecord
}

func NewChangeLog() *ChangeLog {
	return &ChangeLog{items: make(map[domainproperty.ID][]domainpricing.ChangeRecord)}
}

func (l *ChangeLog) Append(ctx context.Context, rec domainpricing.ChangeRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.items[rec.PropertyID] = append(l.items[rec.PropertyID], rec)
	return nil
}

func (l *ChangeLog) ListByProperty(ctx context.Context, id domainproperty.ID, limit int) ([]domainpricing.ChangeRecord, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	records := l.items[id]
	out := make([]domainpricing.ChangeRecord, 0, len(records))
	for i := len(records) - 1; i >= 0; i-- {
		out = append(out, records[i])
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out, nil
}

// PropertyRepository is the in-memory property catalogue.
type PropertyRepository struct {
	mu    sync.RWMutex
	items map[domainproperty.ID]*domainproperty.Property
}

func NewPropertyRepository() *PropertyRepository {
	return &PropertyRepository{items: make(map[domainproperty.ID]*domainproperty.Property)}
}

func (r *PropertyRepository) ByID(ctx context.Context, id domainproperty.ID) (*domainproperty.Property, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	prop, ok := r.items[id]
	if !ok {
		return nil, domainproperty.ErrNotFound
	}
	copied := *prop
	return &copied, nil
}

func (r *PropertyRepository) Save(ctx context.Context, prop *domainproperty.Property) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	copied := *prop
	r.items[prop.ID] = &copied
	return nil
}

// BookingLedger is the in-memory stand-in for the external booking system.
type BookingLedger struct {
	mu    sync.RWMutex
	stays map[domainproperty.ID][]domainavailability.StayRecord
}

func NewBookingLedger() *BookingLedger {
	return &BookingLedger{stays: make(map[domainproperty.ID][]domainavailability.StayRecord)}
}

func (l *BookingLedger) Add(id domainproperty.ID, stay domainavailability.StayRecord) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.stays[id] = append(l.stays[id], stay)
}

func (l *BookingLedger) FindOverlapping(ctx context.Context, id domainproperty.ID, stay daterange.DateRange) ([]domainavailability.StayRecord, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	var out []domainavailability.StayRecord
	for _, rec := range l.stays[id] {
		booked := daterange.DateRange{CheckIn: daterange.Day(rec.CheckIn), CheckOut: daterange.Day(rec.CheckOut)}
		if booked.Overlaps(stay) {
			out = append(out, rec)
		}
	}
	return out, nil
}

// EventsSource serves calendar events from a seeded in-memory list.
type EventsSource struct {
	mu     sync.RWMutex
	events []domaincalendarevents.Event
}

func NewEventsSource(events ...domaincalendarevents.Event) *EventsSource {
	return &EventsSource{events: events}
}

func (s *EventsSource) Add(events ...domaincalendarevents.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, events...)
}

func (s *EventsSource) FindOverlapping(ctx context.Context, loc domaincalendarevents.Location, stay daterange.DateRange) ([]domaincalendarevents.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domaincalendarevents.Event
	for _, ev := range s.events {
		if !ev.MatchesLocation(loc) {
			continue
		}
		for _, night := range stay.Dates() {
			if ev.ActiveOn(night) {
				out = append(out, ev)
				break
			}
		}
	}
	return out, nil
}
