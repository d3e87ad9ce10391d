package memory

import (
	"context"
	"sync"

	appoutbox "stayrates/internal/app/outbox"
)

// Publisher receives drained outbox records; the Kafka producer satisfies it
// in broker mode, a no-op in memory mode.
type Publisher interface {
	Publish(ctx context.Context, record appoutbox.EventRecord) error
}

// Outbox keeps integration events in memory until flushed to the publisher.
type Outbox struct {
	mu        sync.Mutex
	records   []appoutbox.EventRecord
	publisher Publisher
}

func NewOutbox(publisher Publisher) *Outbox {
	return &Outbox{publisher: publisher}
}

func (o *Outbox) Add(ctx context.Context, record appoutbox.EventRecord) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.records = append(o.records, record)
	return nil
}

func (o *Outbox) Flush(ctx context.Context) error {
	o.mu.Lock()
	pending := o.records
	o.records = nil
	o.mu.Unlock()

	if o.publisher == nil {
		return nil
	}
	for i, record := range pending {
		if err := o.publisher.Publish(ctx, record); err != nil {
			o.mu.Lock()
			o.records = append(pending[i:], o.records...)
			o.mu.Unlock()
			return err
		}
	}
	return nil
}

// Pending exposes the buffered records for tests.
func (o *Outbox) Pending() []appoutbox.EventRecord {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]appoutbox.EventRecord(nil), o.records...)
}

var _ appoutbox.Outbox = (*Outbox)(nil)
