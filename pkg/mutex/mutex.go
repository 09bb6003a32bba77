// Package mutex provides a FIFO mutex whose Lock honours context
// cancellation, and a keyed variant holding one such mutex per key.
//
// The lock is process-local. It serializes requests handled by one instance
// and gives no protection across instances.
package mutex

import (
	"context"
	"sync"
)

// Mutex is a FIFO lock. Unlock hands ownership directly to the oldest waiter,
// so a waiter can never be overtaken by a later Lock call.
type Mutex struct {
	mu     sync.Mutex
	locked bool
	queue  []chan struct{}
}

// Lock acquires the mutex or returns ctx.Err() if the context ends first.
func (m *Mutex) Lock(ctx context.Context) error {
	m.mu.Lock()
	if !m.locked {
		m.locked = true
		m.mu.Unlock()
		return nil
	}
	ready := make(chan struct{})
	m.queue = append(m.queue, ready)
	m.mu.Unlock()

	select {
	case <-ready:
		return nil
	case <-ctx.Done():
		m.mu.Lock()
		for i, w := range m.queue {
			if w == ready {
				m.queue = append(m.queue[:i], m.queue[i+1:]...)
				m.mu.Unlock()
				return ctx.Err()
			}
		}
		m.mu.Unlock()
		// Ownership was handed over while we were giving up; pass it on.
		m.Unlock()
		return ctx.Err()
	}
}

// TryLock acquires the mutex only if it is free.
func (m *Mutex) TryLock() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.locked {
		return false
	}
	m.locked = true
	return true
}

// Unlock releases the mutex, transferring it to the next waiter if any.
// Unlocking an unlocked Mutex panics, like sync.Mutex.
func (m *Mutex) Unlock() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if !m.locked {
		panic("mutex: unlock of unlocked mutex")
	}
	if len(m.queue) > 0 {
		next := m.queue[0]
		m.queue = m.queue[1:]
		close(next)
		return
	}
	m.locked = false
}

// Locked reports whether the mutex is currently held.
func (m *Mutex) Locked() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.locked
}

// Waiters returns the number of queued Lock calls.
func (m *Mutex) Waiters() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queue)
}

// WithLock runs fn while holding the mutex.
func (m *Mutex) WithLock(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := m.Lock(ctx); err != nil {
		return err
	}
	defer m.Unlock()
	return fn(ctx)
}

// KeyedMutex holds one Mutex per key. Entries are dropped once nobody holds or
// waits for them.
type KeyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyedEntry
}

type keyedEntry struct {
	m    Mutex
	refs int
}

// NewKeyedMutex creates an empty KeyedMutex
func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{locks: make(map[string]*keyedEntry)}
}

// Acquire locks key and returns the function that releases it.
func (k *KeyedMutex) Acquire(ctx context.Context, key string) (func(), error) {
	k.mu.Lock()
	e, ok := k.locks[key]
	if !ok {
		e = &keyedEntry{}
		k.locks[key] = e
	}
	e.refs++
	k.mu.Unlock()

	if err := e.m.Lock(ctx); err != nil {
		k.deref(key, e)
		return nil, err
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			e.m.Unlock()
			k.deref(key, e)
		})
	}, nil
}

// Len returns the number of keys currently tracked.
func (k *KeyedMutex) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.locks)
}

func (k *KeyedMutex) deref(key string, e *keyedEntry) {
	k.mu.Lock()
	defer k.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(k.locks, key)
	}
}
