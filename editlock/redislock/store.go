/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package redislock

import (
	"context"
	stderrors "errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/suparena/contentgate/editlock"
	"github.com/suparena/contentgate/errors"
)

// DefaultPrefix is prepended to every lock key.
const DefaultPrefix = "contentgate:lock:"

// Client is the subset of the go-redis API the store needs.
type Client interface {
	redis.Scripter
	HGetAll(ctx context.Context, key string) *redis.MapStringStringCmd
}

// Each lock is a hash with the fields below. Times are Unix milliseconds.
// The key TTL is the purge horizon; the lease itself is expires_at.
var acquireScript = redis.NewScript(`
local exp = tonumber(redis.call('HGET', KEYS[1], 'expires_at'))
if ARGV[8] ~= '1' and exp and exp > tonumber(ARGV[7]) then
  return redis.call('HMGET', KEYS[1], 'uid', 'model', 'entity_id', 'owner', 'created_at', 'expires_at')
end
redis.call('DEL', KEYS[1])
redis.call('HSET', KEYS[1], 'uid', ARGV[1], 'model', ARGV[2], 'entity_id', ARGV[3],
  'owner', ARGV[4], 'created_at', ARGV[5], 'expires_at', ARGV[6])
redis.call('PEXPIRE', KEYS[1], ARGV[9])
return false
`)

var extendScript = redis.NewScript(`
local cur = redis.call('HMGET', KEYS[1], 'uid', 'expires_at')
if not cur[1] then return 'not_found' end
if cur[1] ~= ARGV[1] then return 'mismatch' end
if tonumber(cur[2]) <= tonumber(ARGV[3]) then return 'not_found' end
redis.call('HSET', KEYS[1], 'expires_at', ARGV[2])
redis.call('PEXPIRE', KEYS[1], ARGV[4])
return 'ok'
`)

var releaseScript = redis.NewScript(`
local cur = redis.call('HMGET', KEYS[1], 'uid', 'expires_at')
if not cur[1] or tonumber(cur[2]) <= tonumber(ARGV[3]) then return 'ok' end
if ARGV[2] ~= '1' and cur[1] ~= ARGV[1] then return 'mismatch' end
redis.call('HSET', KEYS[1], 'expires_at', ARGV[3])
redis.call('PEXPIRE', KEYS[1], ARGV[4])
return 'ok'
`)

// Store is an editlock.Store on Redis. Each operation is a single Lua script
// so it is atomic per key across gateway instances.
type Store struct {
	client Client
	prefix string
}

var _ editlock.Store = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithPrefix overrides DefaultPrefix.
func WithPrefix(prefix string) Option {
	return func(s *Store) {
		s.prefix = prefix
	}
}

// New creates a Store using client.
func New(client Client, opts ...Option) *Store {
	s := &Store{client: client, prefix: DefaultPrefix}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) key(k editlock.Key) string {
	return s.prefix + k.Model + ":" + k.EntityID
}

// Acquire implements editlock.Store.
func (s *Store) Acquire(ctx context.Context, lock editlock.EditLock, force bool, now time.Time) (*editlock.EditLock, error) {
	res, err := acquireScript.Run(ctx, s.client, []string{s.key(lock.Key())},
		lock.UID, lock.Model, lock.EntityID, lock.OwnerUserID,
		lock.CreatedAt.UnixMilli(), lock.ExpiresAt.UnixMilli(), now.UnixMilli(),
		flag(force), ttl(lock.PurgeAt, now),
	).Slice()
	if stderrors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis acquire %s: %w", lock.Key(), err)
	}

	fields := make(map[string]string, len(res))
	for i, name := range []string{"uid", "model", "entity_id", "owner", "created_at", "expires_at"} {
		if i < len(res) {
			if v, ok := res[i].(string); ok {
				fields[name] = v
			}
		}
	}
	return decode(fields)
}

// Get implements editlock.Store.
func (s *Store) Get(ctx context.Context, key editlock.Key) (*editlock.EditLock, error) {
	fields, err := s.client.HGetAll(ctx, s.key(key)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	if len(fields) == 0 {
		return nil, nil
	}
	return decode(fields)
}

// Extend implements editlock.Store.
func (s *Store) Extend(ctx context.Context, key editlock.Key, uid string, expiresAt, purgeAt, now time.Time) error {
	res, err := extendScript.Run(ctx, s.client, []string{s.key(key)},
		uid, expiresAt.UnixMilli(), now.UnixMilli(), ttl(purgeAt, now),
	).Text()
	if err != nil {
		return fmt.Errorf("redis extend %s: %w", key, err)
	}
	return outcome(key, res)
}

// Release implements editlock.Store.
func (s *Store) Release(ctx context.Context, key editlock.Key, uid string, force bool, now, purgeAt time.Time) error {
	res, err := releaseScript.Run(ctx, s.client, []string{s.key(key)},
		uid, flag(force), now.UnixMilli(), ttl(purgeAt, now),
	).Text()
	if err != nil {
		return fmt.Errorf("redis release %s: %w", key, err)
	}
	return outcome(key, res)
}

func outcome(key editlock.Key, res string) error {
	switch res {
	case "ok":
		return nil
	case "not_found":
		return errors.NewLockNotFoundError(key.Model, key.EntityID)
	case "mismatch":
		return errors.NewLockMismatchError(key.Model, key.EntityID)
	default:
		return fmt.Errorf("redis lock %s: unexpected script result %q", key, res)
	}
}

func decode(fields map[string]string) (*editlock.EditLock, error) {
	createdAt, err := millis(fields["created_at"])
	if err != nil {
		return nil, fmt.Errorf("decode lock created_at: %w", err)
	}
	expiresAt, err := millis(fields["expires_at"])
	if err != nil {
		return nil, fmt.Errorf("decode lock expires_at: %w", err)
	}
	return &editlock.EditLock{
		UID:         fields["uid"],
		Model:       fields["model"],
		EntityID:    fields["entity_id"],
		OwnerUserID: fields["owner"],
		CreatedAt:   createdAt,
		ExpiresAt:   expiresAt,
	}, nil
}

func millis(s string) (time.Time, error) {
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}, err
	}
	return time.UnixMilli(n).UTC(), nil
}

func flag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// ttl is the key TTL in milliseconds, never below one.
func ttl(purgeAt, now time.Time) int64 {
	d := purgeAt.Sub(now).Milliseconds()
	if d < 1 {
		return 1
	}
	return d
}
