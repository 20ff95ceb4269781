/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package storagemodels

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testEntity() *Entity {
	published := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	return &Entity{
		ID:          "42",
		Model:       "article",
		CreatedBy:   &Creator{ID: "7", Roles: []string{"author"}},
		PublishedAt: &published,
		Attributes:  map[string]any{"title": "Hello", "views": 3},
	}
}

func TestConditionMatches(t *testing.T) {
	e := testEntity()

	tests := []struct {
		name string
		cond Condition
		want bool
	}{
		{"eq id", Eq(FieldID, "42"), true},
		{"eq id numeric", Eq(FieldID, 42), true},
		{"eq creator", Eq(FieldCreatedBy, "7"), true},
		{"eq attribute", Eq("title", "Hello"), true},
		{"eq mismatch", Eq("title", "Bye"), false},
		{"eq missing field", Eq("missing", "x"), false},
		{"ne attribute", Condition{Field: "title", Op: OpNe, Value: "Bye"}, true},
		{"ne missing field", Condition{Field: "missing", Op: OpNe, Value: "x"}, true},
		{"in ids", In(FieldID, []string{"1", "42"}), true},
		{"in ids miss", In(FieldID, []string{"1", "2"}), false},
		{"in non slice", Condition{Field: FieldID, Op: OpIn, Value: "42"}, false},
		{"unknown op", Condition{Field: FieldID, Op: "gt", Value: "1"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.cond.Matches(e))
		})
	}
}

func TestConditionValidate(t *testing.T) {
	require.NoError(t, Eq("title", "x").Validate())
	require.NoError(t, In(FieldID, []int{1}).Validate())
	require.Error(t, Condition{Op: OpEq}.Validate())
	require.Error(t, Condition{Field: "id", Op: OpIn, Value: 3}.Validate())
	require.Error(t, Condition{Field: "id", Op: "like"}.Validate())
}

func TestQueryMatches(t *testing.T) {
	e := testEntity()

	t.Run("nil scopes are unrestricted", func(t *testing.T) {
		assert.True(t, Query{}.Matches(e))
	})

	t.Run("empty scopes match nothing", func(t *testing.T) {
		assert.False(t, Query{Scopes: [][]Condition{}}.Matches(e))
	})

	t.Run("any scope suffices", func(t *testing.T) {
		q := Query{Scopes: [][]Condition{
			{Eq(FieldCreatedBy, "8")},
			{Eq(FieldCreatedBy, "7"), Eq("title", "Hello")},
		}}
		assert.True(t, q.Matches(e))
	})

	t.Run("where is conjunctive", func(t *testing.T) {
		q := Query{}.And(Eq("title", "Hello"), Eq("views", 4))
		assert.False(t, q.Matches(e))
	})
}

func TestQueryAndDoesNotAlias(t *testing.T) {
	base := Query{Where: make([]Condition, 1, 4), Scopes: [][]Condition{{Eq("a", 1)}}}
	base.Where[0] = Eq("title", "x")

	a := base.And(Eq("b", 1))
	b := base.And(Eq("c", 1))

	assert.Len(t, base.Where, 1)
	assert.Equal(t, "b", a.Where[1].Field)
	assert.Equal(t, "c", b.Where[1].Field)

	a.Scopes[0][0] = Eq("z", 1)
	assert.Equal(t, "a", base.Scopes[0][0].Field)
}

func TestQueryPaging(t *testing.T) {
	page, size := Query{}.Paging()
	assert.Equal(t, DefaultPage, page)
	assert.Equal(t, DefaultPageSize, size)

	page, size = Query{Page: 3, PageSize: 1000}.Paging()
	assert.Equal(t, 3, page)
	assert.Equal(t, MaxPageSize, size)
}

func TestEntityFields(t *testing.T) {
	e := testEntity()
	fields := e.Fields()

	assert.Equal(t, "42", fields[FieldID])
	assert.Equal(t, "7", fields[FieldCreatedBy])
	assert.Equal(t, "Hello", fields["title"])
	assert.NotContains(t, fields, FieldUpdatedBy)
	assert.True(t, e.IsPublished())

	c := e.Clone()
	c.Attributes["title"] = "changed"
	c.CreatedBy.Roles[0] = "editor"
	assert.Equal(t, "Hello", e.Attributes["title"])
	assert.Equal(t, "author", e.CreatedBy.Roles[0])
}
