// Package writequeue serializes multi-step writes that touch the same
// document.
package writequeue

import (
	"context"
	"sync"
)

// KeyedMutex runs at most one task per key at a time. Tasks for different
// keys run concurrently. Entries are dropped once no task holds or waits on
// them. The guarantee is process-local.
type KeyedMutex struct {
	mu    sync.Mutex
	slots map[string]*slot
}

type slot struct {
	// token holds one value while the key is free
	token chan struct{}
	refs  int
}

func NewKeyedMutex() *KeyedMutex {
	return &KeyedMutex{slots: make(map[string]*slot)}
}

func (k *KeyedMutex) acquire(key string) *slot {
	k.mu.Lock()
	defer k.mu.Unlock()
	s, ok := k.slots[key]
	if !ok {
		s = &slot{token: make(chan struct{}, 1)}
		s.token <- struct{}{}
		k.slots[key] = s
	}
	s.refs++
	return s
}

func (k *KeyedMutex) release(key string, s *slot) {
	k.mu.Lock()
	defer k.mu.Unlock()
	s.refs--
	if s.refs == 0 {
		delete(k.slots, key)
	}
}

// Do waits for key, runs fn and frees key. If ctx ends while waiting, fn
// does not run and ctx's error is returned.
func (k *KeyedMutex) Do(ctx context.Context, key string, fn func(ctx context.Context) error) error {
	s := k.acquire(key)
	defer k.release(key, s)

	select {
	case <-s.token:
	case <-ctx.Done():
		return ctx.Err()
	}
	defer func() { s.token <- struct{}{} }()

	return fn(ctx)
}

// Len is the number of keys currently held or waited on.
func (k *KeyedMutex) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.slots)
}
