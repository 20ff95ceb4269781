/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	stderrors "errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"

	"github.com/suparena/contentgate/editlock"
	"github.com/suparena/contentgate/errors"
	"github.com/suparena/contentgate/registry"
)

// API is the subset of the DynamoDB client the store calls.
type API interface {
	GetItem(ctx context.Context, in *sdk.GetItemInput, optFns ...func(*sdk.Options)) (*sdk.GetItemOutput, error)
	PutItem(ctx context.Context, in *sdk.PutItemInput, optFns ...func(*sdk.Options)) (*sdk.PutItemOutput, error)
	UpdateItem(ctx context.Context, in *sdk.UpdateItemInput, optFns ...func(*sdk.Options)) (*sdk.UpdateItemOutput, error)
}

// lockItem is the stored form of an editlock.EditLock. Times are Unix
// milliseconds except PurgeAt, which is in seconds so it can be the table's
// TTL attribute.
type lockItem struct {
	PK          string
	SK          string
	UID         string
	Model       string
	EntityID    string
	OwnerUserID string
	CreatedAt   int64
	ExpiresAt   int64
	PurgeAt     int64
}

func init() {
	registry.RegisterIndexMap[lockItem](map[string]string{
		"PK": "LOCK#{Model}",
		"SK": "ENTITY#{EntityID}",
	})
}

func (it lockItem) lock() *editlock.EditLock {
	return &editlock.EditLock{
		UID:         it.UID,
		Model:       it.Model,
		EntityID:    it.EntityID,
		OwnerUserID: it.OwnerUserID,
		CreatedAt:   time.UnixMilli(it.CreatedAt).UTC(),
		ExpiresAt:   time.UnixMilli(it.ExpiresAt).UTC(),
		PurgeAt:     time.Unix(it.PurgeAt, 0).UTC(),
	}
}

// purged reports whether the table TTL would already have removed the item.
// DynamoDB deletes expired items lazily, so reads must check.
func (it lockItem) purged(now time.Time) bool {
	return it.PurgeAt > 0 && now.Unix() >= it.PurgeAt && it.ExpiresAt <= now.UnixMilli()
}

// Store is an editlock.Store on a DynamoDB table keyed by PK and SK. Every
// operation is one conditional write.
type Store struct {
	client    API
	tableName string
	indexMap  map[string]string
	now       func() time.Time
}

var _ editlock.Store = (*Store)(nil)

// Option configures a Store.
type Option func(*Store)

// WithClock replaces time.Now for reads, which must hide items the table TTL
// has not removed yet.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// New creates a Store writing to tableName.
func New(client API, tableName string, opts ...Option) *Store {
	s := &Store{
		client:    client,
		tableName: tableName,
		indexMap:  registry.MustGetIndexMap[lockItem](),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Store) keyOf(key editlock.Key) (map[string]types.AttributeValue, error) {
	expanded, err := expandMacros(s.indexMap, lockItem{Model: key.Model, EntityID: key.EntityID})
	if err != nil {
		return nil, err
	}
	return buildKeyFromExpanded(expanded)
}

// Acquire implements editlock.Store.
func (s *Store) Acquire(ctx context.Context, lock editlock.EditLock, force bool, now time.Time) (*editlock.EditLock, error) {
	it := lockItem{
		UID:         lock.UID,
		Model:       lock.Model,
		EntityID:    lock.EntityID,
		OwnerUserID: lock.OwnerUserID,
		CreatedAt:   lock.CreatedAt.UnixMilli(),
		ExpiresAt:   lock.ExpiresAt.UnixMilli(),
		PurgeAt:     lock.PurgeAt.Unix(),
	}
	expanded, err := expandMacros(s.indexMap, it)
	if err != nil {
		return nil, err
	}
	it.PK, it.SK = expanded["PK"], expanded["SK"]

	av, err := attributevalue.MarshalMap(it)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal lock: %w", err)
	}

	in := &sdk.PutItemInput{
		TableName: &s.tableName,
		Item:      av,
	}
	if !force {
		in.ConditionExpression = aws.String("attribute_not_exists(PK) OR ExpiresAt <= :now")
		in.ExpressionAttributeValues = map[string]types.AttributeValue{":now": millis(now)}
		in.ReturnValuesOnConditionCheckFailure = types.ReturnValuesOnConditionCheckFailureAllOld
	}

	if _, err := s.client.PutItem(ctx, in); err != nil {
		old, ok, derr := conditionFailed(err)
		if derr != nil {
			return nil, derr
		}
		switch {
		case ok && old != nil:
			return old.lock(), nil
		case ok:
			// the holder was not returned
			return nil, fmt.Errorf("PutItem lock %s: %w", lock.Key(),
				errors.NewConditionFailedError("acquire", aws.ToString(in.ConditionExpression)))
		}
		return nil, fmt.Errorf("PutItem lock %s failed: %w", lock.Key(), err)
	}
	return nil, nil
}

// Get implements editlock.Store.
func (s *Store) Get(ctx context.Context, key editlock.Key) (*editlock.EditLock, error) {
	k, err := s.keyOf(key)
	if err != nil {
		return nil, err
	}
	out, err := s.client.GetItem(ctx, &sdk.GetItemInput{
		TableName:      &s.tableName,
		Key:            k,
		ConsistentRead: aws.Bool(true),
	})
	if err != nil {
		return nil, fmt.Errorf("GetItem lock %s failed: %w", key, err)
	}
	if out.Item == nil {
		return nil, nil
	}

	var it lockItem
	if err := attributevalue.UnmarshalMap(out.Item, &it); err != nil {
		return nil, fmt.Errorf("failed to unmarshal lock: %w", err)
	}
	if it.purged(s.now()) {
		return nil, nil
	}
	return it.lock(), nil
}

// Extend implements editlock.Store.
func (s *Store) Extend(ctx context.Context, key editlock.Key, uid string, expiresAt, purgeAt, now time.Time) error {
	k, err := s.keyOf(key)
	if err != nil {
		return err
	}

	_, err = s.client.UpdateItem(ctx, &sdk.UpdateItemInput{
		TableName:           &s.tableName,
		Key:                 k,
		UpdateExpression:    aws.String("SET ExpiresAt = :exp, PurgeAt = :purge"),
		ConditionExpression: aws.String("attribute_exists(PK) AND UID = :uid AND ExpiresAt > :now"),
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":exp":   millis(expiresAt),
			":purge": seconds(purgeAt),
			":uid":   &types.AttributeValueMemberS{Value: uid},
			":now":   millis(now),
		},
		ReturnValuesOnConditionCheckFailure: types.ReturnValuesOnConditionCheckFailureAllOld,
	})
	if err == nil {
		return nil
	}

	old, ok, derr := conditionFailed(err)
	switch {
	case derr != nil:
		return derr
	case !ok:
		return fmt.Errorf("UpdateItem lock %s failed: %w", key, err)
	case old == nil || old.purged(now):
		return errors.NewLockNotFoundError(key.Model, key.EntityID)
	case old.UID != uid:
		return errors.NewLockMismatchError(key.Model, key.EntityID)
	default:
		return errors.NewLockNotFoundError(key.Model, key.EntityID)
	}
}

// Release implements editlock.Store.
func (s *Store) Release(ctx context.Context, key editlock.Key, uid string, force bool, now, purgeAt time.Time) error {
	k, err := s.keyOf(key)
	if err != nil {
		return err
	}

	cond := "attribute_exists(PK) AND ExpiresAt > :now"
	values := map[string]types.AttributeValue{
		":now":   millis(now),
		":purge": seconds(purgeAt),
	}
	if !force {
		cond += " AND UID = :uid"
		values[":uid"] = &types.AttributeValueMemberS{Value: uid}
	}

	_, err = s.client.UpdateItem(ctx, &sdk.UpdateItemInput{
		TableName:                           &s.tableName,
		Key:                                 k,
		UpdateExpression:                    aws.String("SET ExpiresAt = :now, PurgeAt = :purge"),
		ConditionExpression:                 &cond,
		ExpressionAttributeValues:           values,
		ReturnValuesOnConditionCheckFailure: types.ReturnValuesOnConditionCheckFailureAllOld,
	})
	if err == nil {
		return nil
	}

	old, ok, derr := conditionFailed(err)
	switch {
	case derr != nil:
		return derr
	case !ok:
		return fmt.Errorf("UpdateItem lock %s failed: %w", key, err)
	case old == nil || old.ExpiresAt <= now.UnixMilli():
		// nothing live to release
		return nil
	default:
		return errors.NewLockMismatchError(key.Model, key.EntityID)
	}
}

// conditionFailed reports whether err is a failed condition check and, if so,
// decodes the item that made it fail.
func conditionFailed(err error) (*lockItem, bool, error) {
	var cfe *types.ConditionalCheckFailedException
	if !stderrors.As(err, &cfe) {
		return nil, false, nil
	}
	if cfe.Item == nil {
		return nil, true, nil
	}
	var it lockItem
	if uerr := attributevalue.UnmarshalMap(cfe.Item, &it); uerr != nil {
		return nil, true, fmt.Errorf("failed to unmarshal lock: %w", uerr)
	}
	return &it, true, nil
}

func millis(t time.Time) types.AttributeValue {
	return &types.AttributeValueMemberN{Value: strconv.FormatInt(t.UnixMilli(), 10)}
}

func seconds(t time.Time) types.AttributeValue {
	return &types.AttributeValueMemberN{Value: strconv.FormatInt(t.Unix(), 10)}
}
