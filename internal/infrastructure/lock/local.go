package lock

import (
	"context"
	"sync"
	"time"

	"DigiiBuz/internal/ports"
)

// Local is an in-process Locker used when no redis address is configured.
type Local struct {
	mu    sync.Mutex
	held  map[string]time.Time
	now   func() time.Time
	nonce uint64
	owner map[string]uint64
}

var _ ports.Locker = (*Local)(nil)

// NewLocal returns an empty in-process lock table.
func NewLocal() *Local {
	return &Local{
		held:  map[string]time.Time{},
		owner: map[string]uint64{},
		now:   time.Now,
	}
}

// TryLock acquires key unless it is held and not yet expired.
func (l *Local) TryLock(_ context.Context, key string, ttl time.Duration) (func(context.Context) error, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if until, ok := l.held[key]; ok && now.Before(until) {
		return nil, false, nil
	}

	l.nonce++
	id := l.nonce
	l.held[key] = now.Add(ttl)
	l.owner[key] = id

	unlock := func(context.Context) error {
		l.mu.Lock()
		defer l.mu.Unlock()
		if l.owner[key] == id {
			delete(l.held, key)
			delete(l.owner, key)
		}
		return nil
	}
	return unlock, true, nil
}
