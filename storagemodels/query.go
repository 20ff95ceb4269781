/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package storagemodels

import (
	"fmt"
	"reflect"
)

// Operator is a comparison used in a Condition.
type Operator string

const (
	OpEq Operator = "eq"
	OpNe Operator = "ne"
	OpIn Operator = "in"
)

// Default pagination applied when a query does not specify one.
const (
	DefaultPage     = 1
	DefaultPageSize = 10
	MaxPageSize     = 100
)

// Condition compares one entity field against a value.
// For OpIn, Value must be a slice.
type Condition struct {
	Field string   `json:"field" yaml:"field"`
	Op    Operator `json:"op" yaml:"op"`
	Value any      `json:"value" yaml:"value"`
}

// Eq builds an equality condition.
func Eq(field string, value any) Condition {
	return Condition{Field: field, Op: OpEq, Value: value}
}

// In builds a membership condition.
func In[V any](field string, values []V) Condition {
	vals := make([]any, len(values))
	for i, v := range values {
		vals[i] = v
	}
	return Condition{Field: field, Op: OpIn, Value: vals}
}

// Matches evaluates the condition against an entity. A missing field only
// satisfies OpNe.
func (c Condition) Matches(e *Entity) bool {
	v, ok := e.Field(c.Field)
	switch c.Op {
	case OpEq:
		return ok && equal(v, c.Value)
	case OpNe:
		return !ok || !equal(v, c.Value)
	case OpIn:
		if !ok {
			return false
		}
		rv := reflect.ValueOf(c.Value)
		if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
			return false
		}
		for i := 0; i < rv.Len(); i++ {
			if equal(v, rv.Index(i).Interface()) {
				return true
			}
		}
		return false
	}
	return false
}

// Validate reports malformed conditions.
func (c Condition) Validate() error {
	if c.Field == "" {
		return fmt.Errorf("condition field is required")
	}
	switch c.Op {
	case OpEq, OpNe:
	case OpIn:
		if k := reflect.ValueOf(c.Value).Kind(); k != reflect.Slice && k != reflect.Array {
			return fmt.Errorf("condition on %q: %s requires a list value", c.Field, c.Op)
		}
	default:
		return fmt.Errorf("condition on %q: unknown operator %q", c.Field, c.Op)
	}
	return nil
}

func equal(a, b any) bool {
	if reflect.DeepEqual(a, b) {
		return true
	}
	// ids and numbers arrive as strings from query strings and as numbers from JSON
	return fmt.Sprint(a) == fmt.Sprint(b)
}

// Query is a filter over entities of one model.
//
// Where conditions are combined with AND. Scopes are permission-derived: an
// entity must satisfy every condition of at least one scope. A nil Scopes is
// unrestricted; a non-nil empty Scopes matches nothing.
type Query struct {
	Where    []Condition   `json:"where,omitempty"`
	Scopes   [][]Condition `json:"scopes,omitempty"`
	Search   string        `json:"_q,omitempty"`
	Page     int           `json:"page,omitempty"`
	PageSize int           `json:"pageSize,omitempty"`
	Sort     []string      `json:"sort,omitempty"`
}

// Clone returns a copy that can be modified without touching q.
func (q Query) Clone() Query {
	c := q
	c.Where = append([]Condition(nil), q.Where...)
	if q.Scopes != nil {
		c.Scopes = make([][]Condition, len(q.Scopes))
		for i, s := range q.Scopes {
			c.Scopes[i] = append([]Condition(nil), s...)
		}
	}
	c.Sort = append([]string(nil), q.Sort...)
	return c
}

// And returns a copy of q with extra Where conditions.
func (q Query) And(conds ...Condition) Query {
	c := q.Clone()
	c.Where = append(c.Where, conds...)
	return c
}

// Matches evaluates Where and Scopes against an entity. Search is not evaluated.
func (q Query) Matches(e *Entity) bool {
	for _, c := range q.Where {
		if !c.Matches(e) {
			return false
		}
	}
	if q.Scopes == nil {
		return true
	}
	for _, scope := range q.Scopes {
		ok := true
		for _, c := range scope {
			if !c.Matches(e) {
				ok = false
				break
			}
		}
		if ok {
			return true
		}
	}
	return false
}

// Paging returns the effective page and page size.
func (q Query) Paging() (page, pageSize int) {
	page, pageSize = q.Page, q.PageSize
	if page < 1 {
		page = DefaultPage
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return page, pageSize
}
