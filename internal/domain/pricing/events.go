package pricing

import "time"

const RulesUpdatedEventName = "pricing.rules_updated"

// RulesUpdated is emitted after a committed edit so downstream caches
// (search, checkout) can invalidate their copies.
type RulesUpdated struct {
	PropertyID string     `json:"property_id"`
	ChangeType ChangeType `json:"change_type"`
	Version    int64      `json:"version"`
	At         time.Time  `json:"at"`
}

func (e RulesUpdated) EventName() string     { return RulesUpdatedEventName }
func (e RulesUpdated) AggregateID() string   { return e.PropertyID }
func (e RulesUpdated) OccurredAt() time.Time { return e.At }
