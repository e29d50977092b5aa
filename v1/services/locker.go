package services

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// MemberLocker serializes work on one member key across concurrent requests.
// Acquire blocks until the key is free or ctx is done; release must be called exactly once.
type MemberLocker interface {
	Acquire(ctx context.Context, key string, ttl time.Duration) (release func(), err error)
}

// InMemoryLocker is a per-key lock for single-instance deployments
type InMemoryLocker struct {
	mu    sync.Mutex
	locks map[string]*keyLock
}

type keyLock struct {
	slot chan struct{}
	refs int
}

// NewInMemoryLocker creates an empty locker
func NewInMemoryLocker() *InMemoryLocker {
	return &InMemoryLocker{locks: make(map[string]*keyLock)}
}

// Acquire takes the lock for key. ttl is ignored: an in-process holder cannot outlive the process.
func (l *InMemoryLocker) Acquire(ctx context.Context, key string, _ time.Duration) (func(), error) {
	entry := l.ref(key)

	select {
	case entry.slot <- struct{}{}:
	case <-ctx.Done():
		l.unref(key, entry)
		return nil, fmt.Errorf("acquire lock for %s: %w", key, ctx.Err())
	}

	var releaseOnce sync.Once
	return func() {
		releaseOnce.Do(func() {
			<-entry.slot
			l.unref(key, entry)
		})
	}, nil
}

func (l *InMemoryLocker) ref(key string) *keyLock {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry, ok := l.locks[key]
	if !ok {
		entry = &keyLock{slot: make(chan struct{}, 1)}
		l.locks[key] = entry
	}
	entry.refs++
	return entry
}

// unref drops the entry once nobody holds or waits on it
func (l *InMemoryLocker) unref(key string, entry *keyLock) {
	l.mu.Lock()
	defer l.mu.Unlock()

	entry.refs--
	if entry.refs == 0 {
		delete(l.locks, key)
	}
}
