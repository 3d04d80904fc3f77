package reservation

import (
	"context"
	"sync"
	"time"

	"stolik/internal/availability"
)

// keyLock is a one-slot semaphore with a reference count so idle keys
// can be dropped from the map.
type keyLock struct {
	sem  chan struct{}
	refs int
}

// lockTable hands out mutual exclusion per (table, date) key.
// Different keys never contend: each key has its own semaphore, and
// the table's own mutex is held only for map bookkeeping, never while
// waiting.
type lockTable struct {
	mu    sync.Mutex
	locks map[availability.Key]*keyLock
}

func newLockTable() *lockTable {
	return &lockTable{locks: make(map[availability.Key]*keyLock)}
}

// Acquire takes the key's exclusion token, waiting at most timeout.
// It returns a release func on success and ErrBusy when the wait is
// exhausted, so no admission or cancellation can hang indefinitely.
func (t *lockTable) Acquire(ctx context.Context, key availability.Key, timeout time.Duration) (func(), error) {
	t.mu.Lock()
	l, ok := t.locks[key]
	if !ok {
		l = &keyLock{sem: make(chan struct{}, 1)}
		t.locks[key] = l
	}
	l.refs++
	t.mu.Unlock()

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case l.sem <- struct{}{}:
		return func() {
			<-l.sem
			t.put(key, l)
		}, nil
	case <-timer.C:
		t.put(key, l)
		return nil, ErrBusy
	case <-ctx.Done():
		t.put(key, l)
		return nil, ctx.Err()
	}
}

func (t *lockTable) put(key availability.Key, l *keyLock) {
	t.mu.Lock()
	l.refs--
	if l.refs == 0 {
		delete(t.locks, key)
	}
	t.mu.Unlock()
}
