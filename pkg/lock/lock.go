// Package lock serializes work on a key, in-process or across replicas.
package lock

import (
	"context"
	"errors"
	"sync"
)

// ErrNotAcquired is returned when a lock could not be taken in time
var ErrNotAcquired = errors.New("lock not acquired")

// Release frees a held lock. Calling it more than once is a no-op.
type Release func()

// Locker hands out exclusive locks by key
type Locker interface {
	Acquire(ctx context.Context, key string) (Release, error)
}

type entry struct {
	ch   chan struct{}
	refs int
}

// LocalLocker is a keyed mutex. Entries are dropped once nobody waits on them.
type LocalLocker struct {
	mu    sync.Mutex
	locks map[string]*entry
}

// NewLocalLocker creates an in-process locker
func NewLocalLocker() *LocalLocker {
	return &LocalLocker{locks: make(map[string]*entry)}
}

// Acquire blocks until the key is free or ctx is done
func (l *LocalLocker) Acquire(ctx context.Context, key string) (Release, error) {
	l.mu.Lock()
	e, ok := l.locks[key]
	if !ok {
		e = &entry{ch: make(chan struct{}, 1)}
		l.locks[key] = e
	}
	e.refs++
	l.mu.Unlock()

	select {
	case e.ch <- struct{}{}:
	case <-ctx.Done():
		l.unref(key, e)
		return nil, errors.Join(ErrNotAcquired, ctx.Err())
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.ch
			l.unref(key, e)
		})
	}, nil
}

func (l *LocalLocker) unref(key string, e *entry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(l.locks, key)
	}
}

// size reports how many keys are tracked
func (l *LocalLocker) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.locks)
}
