/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package ddb

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	sdk "github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/suparena/contentgate/editlock"
	"github.com/suparena/contentgate/errors"
)

const model = "api::article.article"

var t0 = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

// fakeAPI records the last request of each kind and replays canned results.
type fakeAPI struct {
	get    *sdk.GetItemInput
	put    *sdk.PutItemInput
	update *sdk.UpdateItemInput

	item map[string]types.AttributeValue
	err  error
}

func (f *fakeAPI) GetItem(_ context.Context, in *sdk.GetItemInput, _ ...func(*sdk.Options)) (*sdk.GetItemOutput, error) {
	f.get = in
	if f.err != nil {
		return nil, f.err
	}
	return &sdk.GetItemOutput{Item: f.item}, nil
}

func (f *fakeAPI) PutItem(_ context.Context, in *sdk.PutItemInput, _ ...func(*sdk.Options)) (*sdk.PutItemOutput, error) {
	f.put = in
	return &sdk.PutItemOutput{}, f.err
}

func (f *fakeAPI) UpdateItem(_ context.Context, in *sdk.UpdateItemInput, _ ...func(*sdk.Options)) (*sdk.UpdateItemOutput, error) {
	f.update = in
	return &sdk.UpdateItemOutput{}, f.err
}

func stored(t *testing.T, uid string, expiresAt, purgeAt time.Time) map[string]types.AttributeValue {
	t.Helper()
	av, err := attributevalue.MarshalMap(lockItem{
		PK:          "LOCK#" + model,
		SK:          "ENTITY#42",
		UID:         uid,
		Model:       model,
		EntityID:    "42",
		OwnerUserID: "alice",
		CreatedAt:   t0.UnixMilli(),
		ExpiresAt:   expiresAt.UnixMilli(),
		PurgeAt:     purgeAt.Unix(),
	})
	require.NoError(t, err)
	return av
}

func conditionFailure(item map[string]types.AttributeValue) error {
	return &types.ConditionalCheckFailedException{Message: aws.String("The conditional request failed"), Item: item}
}

func newStore(api *fakeAPI, now time.Time) *Store {
	return New(api, "locks", WithClock(func() time.Time { return now }))
}

var key = editlock.Key{Model: model, EntityID: "42"}

func TestExpandMacros(t *testing.T) {
	expanded, err := expandMacros(map[string]string{
		"PK":  "LOCK#{Model}",
		"SK":  "ENTITY#{EntityID}",
		"GSI": "{Missing}#{CreatedAt}",
	}, lockItem{Model: model, EntityID: "42", CreatedAt: 7})
	require.NoError(t, err)
	assert.Equal(t, "LOCK#"+model, expanded["PK"])
	assert.Equal(t, "ENTITY#42", expanded["SK"])
	assert.Equal(t, "#7", expanded["GSI"])

	_, err = buildKeyFromExpanded(map[string]string{"PK": "x"})
	assert.Error(t, err)
}

func TestAcquire(t *testing.T) {
	ctx := context.Background()
	lock := editlock.EditLock{
		UID: "L1", Model: model, EntityID: "42", OwnerUserID: "bob",
		CreatedAt: t0, ExpiresAt: t0.Add(time.Minute), PurgeAt: t0.Add(2 * time.Minute),
	}

	t.Run("conditional put", func(t *testing.T) {
		api := &fakeAPI{}
		existing, err := newStore(api, t0).Acquire(ctx, lock, false, t0)
		require.NoError(t, err)
		assert.Nil(t, existing)

		require.NotNil(t, api.put)
		assert.Equal(t, "locks", *api.put.TableName)
		assert.Equal(t, "attribute_not_exists(PK) OR ExpiresAt <= :now", *api.put.ConditionExpression)
		assert.Equal(t, types.ReturnValuesOnConditionCheckFailureAllOld, api.put.ReturnValuesOnConditionCheckFailure)

		var it lockItem
		require.NoError(t, attributevalue.UnmarshalMap(api.put.Item, &it))
		assert.Equal(t, "LOCK#"+model, it.PK)
		assert.Equal(t, "ENTITY#42", it.SK)
		assert.Equal(t, t0.Add(2*time.Minute).Unix(), it.PurgeAt)
	})

	t.Run("forced put is unconditional", func(t *testing.T) {
		api := &fakeAPI{}
		_, err := newStore(api, t0).Acquire(ctx, lock, true, t0)
		require.NoError(t, err)
		assert.Nil(t, api.put.ConditionExpression)
	})

	t.Run("conflict returns the live lock", func(t *testing.T) {
		api := &fakeAPI{err: conditionFailure(stored(t, "L0", t0.Add(time.Minute), t0.Add(2*time.Minute)))}
		existing, err := newStore(api, t0).Acquire(ctx, lock, false, t0)
		require.NoError(t, err)
		require.NotNil(t, existing)
		assert.Equal(t, "L0", existing.UID)
		assert.Equal(t, "alice", existing.OwnerUserID)
		assert.Equal(t, t0, existing.CreatedAt)
	})

	t.Run("condition failure without the holder", func(t *testing.T) {
		api := &fakeAPI{err: conditionFailure(nil)}
		existing, err := newStore(api, t0).Acquire(ctx, lock, false, t0)
		assert.Nil(t, existing)
		assert.True(t, errors.IsConditionFailed(err))
		assert.False(t, errors.IsLockError(err))
	})

	t.Run("transport error", func(t *testing.T) {
		api := &fakeAPI{err: stderrors.New("throttled")}
		_, err := newStore(api, t0).Acquire(ctx, lock, false, t0)
		assert.ErrorContains(t, err, "throttled")
		assert.False(t, errors.IsConditionFailed(err))
	})
}

func TestGet(t *testing.T) {
	ctx := context.Background()

	api := &fakeAPI{}
	got, err := newStore(api, t0).Get(ctx, key)
	require.NoError(t, err)
	assert.Nil(t, got)
	assert.True(t, *api.get.ConsistentRead)
	assert.Equal(t, &types.AttributeValueMemberS{Value: "ENTITY#42"}, api.get.Key["SK"])

	api.item = stored(t, "L1", t0.Add(time.Minute), t0.Add(2*time.Minute))
	got, err = newStore(api, t0).Get(ctx, key)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "L1", got.UID)
	assert.True(t, got.IsLive(t0))

	got, err = newStore(api, t0.Add(3*time.Minute)).Get(ctx, key)
	require.NoError(t, err)
	assert.Nil(t, got, "items past their purge time are hidden")
}

func TestExtend(t *testing.T) {
	ctx := context.Background()
	exp, purge := t0.Add(time.Minute), t0.Add(2*time.Minute)

	api := &fakeAPI{}
	require.NoError(t, newStore(api, t0).Extend(ctx, key, "L1", exp, purge, t0))
	assert.Equal(t, "SET ExpiresAt = :exp, PurgeAt = :purge", *api.update.UpdateExpression)
	assert.Equal(t, &types.AttributeValueMemberS{Value: "L1"}, api.update.ExpressionAttributeValues[":uid"])

	tests := []struct {
		name string
		item map[string]types.AttributeValue
		now  time.Time
		is   func(error) bool
	}{
		{"missing", nil, t0, errors.IsLockNotFound},
		{"other holder", stored(t, "L2", exp, purge), t0, errors.IsLockMismatch},
		{"expired", stored(t, "L1", t0, purge), t0, errors.IsLockNotFound},
		{"other holder purged", stored(t, "L2", t0, purge), purge, errors.IsLockNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &fakeAPI{err: conditionFailure(tt.item)}
			err := newStore(api, tt.now).Extend(ctx, key, "L1", exp, purge, tt.now)
			assert.True(t, tt.is(err), "got %v", err)
		})
	}
}

func TestRelease(t *testing.T) {
	ctx := context.Background()
	exp, purge := t0.Add(time.Minute), t0.Add(2*time.Minute)

	api := &fakeAPI{}
	require.NoError(t, newStore(api, t0).Release(ctx, key, "L1", false, t0, purge))
	assert.Equal(t, "attribute_exists(PK) AND ExpiresAt > :now AND UID = :uid", *api.update.ConditionExpression)

	require.NoError(t, newStore(api, t0).Release(ctx, key, "", true, t0, purge))
	assert.Equal(t, "attribute_exists(PK) AND ExpiresAt > :now", *api.update.ConditionExpression)
	assert.NotContains(t, api.update.ExpressionAttributeValues, ":uid")

	api = &fakeAPI{err: conditionFailure(stored(t, "L2", exp, purge))}
	assert.True(t, errors.IsLockMismatch(newStore(api, t0).Release(ctx, key, "L1", false, t0, purge)))

	api = &fakeAPI{err: conditionFailure(stored(t, "L2", t0, purge))}
	assert.NoError(t, newStore(api, t0).Release(ctx, key, "L1", false, t0, purge))

	api = &fakeAPI{err: conditionFailure(nil)}
	assert.NoError(t, newStore(api, t0).Release(ctx, key, "L1", false, t0, purge))
}
