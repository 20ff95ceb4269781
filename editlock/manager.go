/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package editlock

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/suparena/contentgate/errors"
)

// DefaultTTL is the lease duration of a lock that is not extended.
const DefaultTTL = 30 * time.Second

// Manager issues, validates, extends and releases edit locks.
type Manager struct {
	store     Store
	ttl       time.Duration
	retention time.Duration
	now       func() time.Time
	newUID    func() string
	logger    *zap.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithTTL sets the lease duration.
func WithTTL(ttl time.Duration) Option {
	return func(m *Manager) {
		if ttl > 0 {
			m.ttl = ttl
		}
	}
}

// WithRetention sets how long a released or expired record is kept.
func WithRetention(d time.Duration) Option {
	return func(m *Manager) {
		if d >= 0 {
			m.retention = d
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// WithUIDGenerator replaces the lock token generator.
func WithUIDGenerator(gen func() string) Option {
	return func(m *Manager) {
		m.newUID = gen
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// NewManager creates a Manager backed by store.
func NewManager(store Store, opts ...Option) *Manager {
	m := &Manager{
		store:     store,
		ttl:       DefaultTTL,
		retention: -1,
		now:       time.Now,
		newUID:    uuid.NewString,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.retention < 0 {
		m.retention = m.ttl
	}
	return m
}

// TTL returns the lease duration.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}

// SetLockOptions controls SetLock.
type SetLockOptions struct {
	// Force supersedes any live lock on the key.
	Force bool
}

// SetLock creates a lock on (model, entityID) owned by userID. Without Force
// it fails with a *errors.LockConflictError when a live lock exists.
func (m *Manager) SetLock(ctx context.Context, model, entityID, userID string, opts SetLockOptions) (*EditLock, error) {
	now := m.now()
	expiresAt := now.Add(m.ttl)
	lock := EditLock{
		UID:         m.newUID(),
		Model:       model,
		EntityID:    entityID,
		OwnerUserID: userID,
		CreatedAt:   now,
		ExpiresAt:   expiresAt,
		PurgeAt:     expiresAt.Add(m.retention),
	}

	existing, err := m.store.Acquire(ctx, lock, opts.Force, now)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire lock on %s: %w", lock.Key(), err)
	}
	if existing != nil {
		m.logger.Debug("lock conflict",
			zap.String("model", model),
			zap.String("entity_id", entityID),
			zap.String("owner", existing.OwnerUserID),
			zap.String("requested_by", userID))
		return nil, &errors.LockConflictError{
			Model:       model,
			EntityID:    entityID,
			OwnerUserID: existing.OwnerUserID,
			Since:       existing.CreatedAt,
			Age:         now.Sub(existing.CreatedAt),
		}
	}
	return &lock, nil
}

// ValidateAndExtendLock checks that uid holds the live lock on (model,
// entityID) and slides its expiry to now+TTL.
func (m *Manager) ValidateAndExtendLock(ctx context.Context, model, entityID, uid string) (*EditLock, error) {
	key := Key{Model: model, EntityID: entityID}
	if uid == "" {
		return nil, errors.NewLockNotFoundError(model, entityID)
	}

	now := m.now()
	expiresAt := now.Add(m.ttl)
	if err := m.store.Extend(ctx, key, uid, expiresAt, expiresAt.Add(m.retention), now); err != nil {
		if errors.IsLockError(err) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to extend lock on %s: %w", key, err)
	}

	lock, err := m.store.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to read lock on %s: %w", key, err)
	}
	if lock == nil {
		// purged between the two calls
		return nil, errors.NewLockNotFoundError(model, entityID)
	}
	return lock, nil
}

// UnlockOptions controls Unlock.
type UnlockOptions struct {
	// Force releases the lock whatever its uid.
	Force bool
}

// Unlock releases the lock on (model, entityID). Without Force it fails with
// errors.ErrLockMismatch when uid does not hold the live lock.
func (m *Manager) Unlock(ctx context.Context, model, entityID, uid string, opts UnlockOptions) error {
	key := Key{Model: model, EntityID: entityID}
	now := m.now()
	if err := m.store.Release(ctx, key, uid, opts.Force, now, now.Add(m.retention)); err != nil {
		if errors.IsLockError(err) {
			return err
		}
		return fmt.Errorf("failed to release lock on %s: %w", key, err)
	}
	return nil
}

// Info is the lock status shown to editors. It never carries the uid.
type Info struct {
	Model       string        `json:"model"`
	EntityID    string        `json:"entityId"`
	IsLockFree  bool          `json:"isLockFree"`
	OwnerUserID string        `json:"ownerUserId,omitempty"`
	LockedAt    time.Time     `json:"lockedAt,omitempty"`
	ExpiresAt   time.Time     `json:"expiresAt,omitempty"`
	Age         time.Duration `json:"-"`
}

// Info reports whether (model, entityID) is locked and by whom.
func (m *Manager) Info(ctx context.Context, model, entityID string) (*Info, error) {
	key := Key{Model: model, EntityID: entityID}
	lock, err := m.store.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to read lock on %s: %w", key, err)
	}

	info := &Info{Model: model, EntityID: entityID, IsLockFree: true}
	now := m.now()
	if lock.IsLive(now) {
		info.IsLockFree = false
		info.OwnerUserID = lock.OwnerUserID
		info.LockedAt = lock.CreatedAt
		info.ExpiresAt = lock.ExpiresAt
		info.Age = now.Sub(lock.CreatedAt)
	}
	return info, nil
}

// Hold runs fn while holding the edit lease on (model, entityID).
//
// When lockUID is set the caller's lock is validated and extended and left in
// place for further edits. Otherwise a forced lock is taken for userID and
// released when fn returns, on every path. Lock failures are returned before
// fn runs.
func (m *Manager) Hold(ctx context.Context, model, entityID, userID, lockUID string, fn func(ctx context.Context) error) error {
	if lockUID != "" {
		if _, err := m.ValidateAndExtendLock(ctx, model, entityID, lockUID); err != nil {
			return err
		}
		return fn(ctx)
	}

	lock, err := m.SetLock(ctx, model, entityID, userID, SetLockOptions{Force: true})
	if err != nil {
		return err
	}
	defer m.release(ctx, lock)

	return fn(ctx)
}

// release force-releases a lock taken by the manager itself. It runs even if
// ctx was cancelled; a failure leaves the lock to expire.
func (m *Manager) release(ctx context.Context, lock *EditLock) {
	if err := m.Unlock(context.WithoutCancel(ctx), lock.Model, lock.EntityID, lock.UID, UnlockOptions{Force: true}); err != nil {
		m.logger.Warn("failed to release lock",
			zap.String("model", lock.Model),
			zap.String("entity_id", lock.EntityID),
			zap.Time("expires_at", lock.ExpiresAt),
			zap.Error(err))
	}
}
