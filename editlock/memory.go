/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package editlock

import (
	"context"
	"sync"
	"time"

	"github.com/suparena/contentgate/errors"
)

// MemoryStore is a process-local Store. It is safe for concurrent use.
type MemoryStore struct {
	mu    sync.Mutex
	locks map[Key]EditLock
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{locks: make(map[Key]EditLock)}
}

// get returns the record for key, dropping it if past its purge horizon.
// Callers hold mu.
func (s *MemoryStore) get(key Key, now time.Time) (EditLock, bool) {
	l, ok := s.locks[key]
	if !ok {
		return EditLock{}, false
	}
	if !l.PurgeAt.IsZero() && !now.Before(l.PurgeAt) && !l.IsLive(now) {
		delete(s.locks, key)
		return EditLock{}, false
	}
	return l, true
}

// Acquire implements Store.
func (s *MemoryStore) Acquire(ctx context.Context, lock EditLock, force bool, now time.Time) (*EditLock, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.get(lock.Key(), now); ok && existing.IsLive(now) && !force {
		return &existing, nil
	}
	s.locks[lock.Key()] = lock
	return nil, nil
}

// Get implements Store.
func (s *MemoryStore) Get(ctx context.Context, key Key) (*EditLock, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.locks[key]
	if !ok {
		return nil, nil
	}
	return &l, nil
}

// Extend implements Store.
func (s *MemoryStore) Extend(ctx context.Context, key Key, uid string, expiresAt, purgeAt, now time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.get(key, now)
	switch {
	case !ok:
		return errors.NewLockNotFoundError(key.Model, key.EntityID)
	case l.UID != uid:
		return errors.NewLockMismatchError(key.Model, key.EntityID)
	case !l.IsLive(now):
		return errors.NewLockNotFoundError(key.Model, key.EntityID)
	}
	l.ExpiresAt = expiresAt
	l.PurgeAt = purgeAt
	s.locks[key] = l
	return nil
}

// Release implements Store.
func (s *MemoryStore) Release(ctx context.Context, key Key, uid string, force bool, now, purgeAt time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	l, ok := s.get(key, now)
	if !ok || !l.IsLive(now) {
		return nil
	}
	if !force && l.UID != uid {
		return errors.NewLockMismatchError(key.Model, key.EntityID)
	}
	l.ExpiresAt = now
	l.PurgeAt = purgeAt
	s.locks[key] = l
	return nil
}

// Len returns the number of records held, live or not.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.locks)
}
