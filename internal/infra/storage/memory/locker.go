package memory

import (
	"context"
	"sync"

	"stayrates/internal/app/middleware"
)

// Locker serializes property edits inside a single process with per-key
// mutexes; the Redis locker covers multi-instance deployments.
type Locker struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func NewLocker() *Locker {
	return &Locker{locks: make(map[string]*sync.Mutex)}
}

func (l *Locker) Acquire(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	m, ok := l.locks[key]
	if !ok {
		m = &sync.Mutex{}
		l.locks[key] = m
	}
	l.mu.Unlock()

	m.Lock()
	return func() { m.Unlock() }, nil
}

var _ middleware.Locker = (*Locker)(nil)
