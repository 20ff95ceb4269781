/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package memory provides an in-memory datastore.EntityStore.
package memory

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/suparena/contentgate/datastore"
	"github.com/suparena/contentgate/errors"
	"github.com/suparena/contentgate/storagemodels"
)

// Op names a store operation for failure injection and call counting.
type Op string

const (
	OpFindPage      Op = "findPage"
	OpSearchPage    Op = "searchPage"
	OpFindOne       Op = "findOne"
	OpCreate        Op = "create"
	OpUpdate        Op = "update"
	OpDelete        Op = "delete"
	OpPublish       Op = "publish"
	OpUnpublish     Op = "unpublish"
	OpFindAndDelete Op = "findAndDelete"
)

// Store keeps entities per model in insertion order. It is safe for
// concurrent use.
type Store struct {
	mu       sync.Mutex
	data     map[string]map[string]*storagemodels.Entity
	order    map[string][]string
	creators map[string]storagemodels.Creator
	errs     map[Op]error
	calls    map[Op]int
	newID    func() string
	now      func() time.Time
}

var _ datastore.EntityStore = (*Store)(nil)

// New creates an empty Store.
func New() *Store {
	return &Store{
		data:     make(map[string]map[string]*storagemodels.Entity),
		order:    make(map[string][]string),
		creators: make(map[string]storagemodels.Creator),
		errs:     make(map[Op]error),
		calls:    make(map[Op]int),
		newID:    uuid.NewString,
		now:      time.Now,
	}
}

// WithIDGenerator replaces the uuid id generator.
func (s *Store) WithIDGenerator(f func() string) *Store {
	s.newID = f
	return s
}

// WithClock replaces time.Now.
func (s *Store) WithClock(f func() time.Time) *Store {
	s.now = f
	return s
}

// WithCreator registers a user so entities created by them carry their
// name and roles.
func (s *Store) WithCreator(c storagemodels.Creator) *Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.creators[c.ID] = c
	return s
}

// WithError makes op fail with err. A nil err clears the failure.
func (s *Store) WithError(op Op, err error) *Store {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err == nil {
		delete(s.errs, op)
	} else {
		s.errs[op] = err
	}
	return s
}

// call records an invocation of op and returns its injected failure. Callers hold mu.
func (s *Store) call(op Op) error {
	s.calls[op]++
	return s.errs[op]
}

// FindPage implements datastore.EntityStore.
func (s *Store) FindPage(ctx context.Context, model string, query storagemodels.Query) (*storagemodels.Page, error) {
	return s.page(ctx, OpFindPage, model, query, "")
}

// SearchPage implements datastore.EntityStore. The search term matches any
// string attribute case-insensitively.
func (s *Store) SearchPage(ctx context.Context, model string, query storagemodels.Query) (*storagemodels.Page, error) {
	return s.page(ctx, OpSearchPage, model, query, strings.ToLower(query.Search))
}

func (s *Store) page(ctx context.Context, op Op, model string, query storagemodels.Query, term string) (*storagemodels.Page, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.call(op); err != nil {
		return nil, err
	}

	matched := s.match(model, query)
	if term != "" {
		matched = slices.DeleteFunc(matched, func(e *storagemodels.Entity) bool { return !contains(e, term) })
	}
	sortEntities(matched, query.Sort)

	page, size := query.Paging()
	total := len(matched)
	start := min((page-1)*size, total)
	end := min(start+size, total)

	results := make([]*storagemodels.Entity, 0, end-start)
	for _, e := range matched[start:end] {
		results = append(results, e.Clone())
	}
	return &storagemodels.Page{
		Results: results,
		Pagination: storagemodels.Pagination{
			Page:      page,
			PageSize:  size,
			PageCount: (total + size - 1) / size,
			Total:     total,
		},
	}, nil
}

// match returns the stored entities of model satisfying query, in insertion
// order. Callers hold mu.
func (s *Store) match(model string, query storagemodels.Query) []*storagemodels.Entity {
	var out []*storagemodels.Entity
	for _, id := range s.order[model] {
		if e := s.data[model][id]; e != nil && query.Matches(e) {
			out = append(out, e)
		}
	}
	return out
}

// FindOneWithCreatorRoles implements datastore.EntityStore. A missing entity
// is reported as a NotFoundError.
func (s *Store) FindOneWithCreatorRoles(ctx context.Context, model, id string) (*storagemodels.Entity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.call(OpFindOne); err != nil {
		return nil, err
	}

	e, ok := s.data[model][id]
	if !ok {
		return nil, errors.NewNotFoundError(model, id)
	}
	out := e.Clone()
	if out.CreatedBy != nil {
		if c, ok := s.creators[out.CreatedBy.ID]; ok {
			out.CreatedBy.Name = c.Name
			out.CreatedBy.Roles = append([]string(nil), c.Roles...)
		}
	}
	return out, nil
}

// Create implements datastore.EntityStore. Server-owned keys in data set the
// matching columns; every other key becomes an attribute.
func (s *Store) Create(ctx context.Context, model string, data map[string]any) (*storagemodels.Entity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.call(OpCreate); err != nil {
		return nil, err
	}

	now := s.now()
	e := &storagemodels.Entity{
		ID:         s.newID(),
		Model:      model,
		CreatedAt:  now,
		UpdatedAt:  now,
		Attributes: make(map[string]any),
	}
	s.apply(e, data)

	if s.data[model] == nil {
		s.data[model] = make(map[string]*storagemodels.Entity)
	}
	if _, exists := s.data[model][e.ID]; exists {
		return nil, errors.NewAlreadyExistsError(model, e.ID)
	}
	s.data[model][e.ID] = e
	s.order[model] = append(s.order[model], e.ID)
	return e.Clone(), nil
}

// apply writes data onto e. Callers hold mu.
func (s *Store) apply(e *storagemodels.Entity, data map[string]any) {
	for k, v := range data {
		switch k {
		case storagemodels.FieldID, storagemodels.FieldCreatedAt, storagemodels.FieldUpdatedAt, storagemodels.FieldPublishedAt:
			// managed by the store
		case storagemodels.FieldCreatedBy:
			id := fmt.Sprint(v)
			c, ok := s.creators[id]
			if !ok {
				c = storagemodels.Creator{ID: id}
			}
			e.CreatedBy = &storagemodels.Creator{ID: c.ID, Name: c.Name}
		case storagemodels.FieldUpdatedBy:
			e.UpdatedBy = fmt.Sprint(v)
		default:
			e.Attributes[k] = v
		}
	}
}

// Update implements datastore.EntityStore. Attributes in data are merged.
func (s *Store) Update(ctx context.Context, model string, entity *storagemodels.Entity, data map[string]any) (*storagemodels.Entity, error) {
	return s.mutate(ctx, OpUpdate, model, entity, func(e *storagemodels.Entity) {
		s.apply(e, data)
		e.UpdatedAt = s.now()
	})
}

// Publish implements datastore.EntityStore.
func (s *Store) Publish(ctx context.Context, model string, entity *storagemodels.Entity) (*storagemodels.Entity, error) {
	return s.mutate(ctx, OpPublish, model, entity, func(e *storagemodels.Entity) {
		now := s.now()
		e.PublishedAt = &now
		e.UpdatedAt = now
	})
}

// Unpublish implements datastore.EntityStore.
func (s *Store) Unpublish(ctx context.Context, model string, entity *storagemodels.Entity) (*storagemodels.Entity, error) {
	return s.mutate(ctx, OpUnpublish, model, entity, func(e *storagemodels.Entity) {
		e.PublishedAt = nil
		e.UpdatedAt = s.now()
	})
}

func (s *Store) mutate(ctx context.Context, op Op, model string, entity *storagemodels.Entity, fn func(*storagemodels.Entity)) (*storagemodels.Entity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.call(op); err != nil {
		return nil, err
	}

	e, ok := s.data[model][entity.ID]
	if !ok {
		return nil, nil
	}
	fn(e)
	return e.Clone(), nil
}

// Delete implements datastore.EntityStore.
func (s *Store) Delete(ctx context.Context, model string, entity *storagemodels.Entity) (*storagemodels.Entity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.call(OpDelete); err != nil {
		return nil, err
	}

	e, ok := s.data[model][entity.ID]
	if !ok {
		return nil, nil
	}
	s.remove(model, e.ID)
	return e, nil
}

// FindAndDelete implements datastore.EntityStore.
func (s *Store) FindAndDelete(ctx context.Context, model string, query storagemodels.Query) ([]*storagemodels.Entity, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.call(OpFindAndDelete); err != nil {
		return nil, err
	}

	matched := s.match(model, query)
	for _, e := range matched {
		s.remove(model, e.ID)
	}
	return matched, nil
}

// remove drops an entity. Callers hold mu.
func (s *Store) remove(model, id string) {
	delete(s.data[model], id)
	s.order[model] = slices.DeleteFunc(s.order[model], func(v string) bool { return v == id })
}

// Put stores e as is, replacing any entity with the same id.
func (s *Store) Put(model string, e *storagemodels.Entity) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := e.Clone()
	c.Model = model
	if c.Attributes == nil {
		c.Attributes = make(map[string]any)
	}
	if s.data[model] == nil {
		s.data[model] = make(map[string]*storagemodels.Entity)
	}
	if _, exists := s.data[model][c.ID]; !exists {
		s.order[model] = append(s.order[model], c.ID)
	}
	s.data[model][c.ID] = c
}

// Count returns the number of entities stored for model.
func (s *Store) Count(model string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data[model])
}

// Calls returns how many times op was invoked.
func (s *Store) Calls(op Op) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[op]
}

// TotalCalls returns the number of invocations across all operations.
func (s *Store) TotalCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, c := range s.calls {
		n += c
	}
	return n
}

func contains(e *storagemodels.Entity, term string) bool {
	for _, v := range e.Attributes {
		if str, ok := v.(string); ok && strings.Contains(strings.ToLower(str), term) {
			return true
		}
	}
	return false
}

// sortEntities orders entities by "field" or "field:desc" keys. Entities
// tied on every key keep insertion order.
func sortEntities(entities []*storagemodels.Entity, keys []string) {
	if len(keys) == 0 {
		return
	}
	slices.SortStableFunc(entities, func(a, b *storagemodels.Entity) int {
		for _, key := range keys {
			field, dir, _ := strings.Cut(key, ":")
			av, _ := a.Field(field)
			bv, _ := b.Field(field)
			c := compare(av, bv)
			if strings.EqualFold(dir, "desc") {
				c = -c
			}
			if c != 0 {
				return c
			}
		}
		return 0
	})
}

func compare(a, b any) int {
	if at, ok := a.(time.Time); ok {
		if bt, ok := b.(time.Time); ok {
			return at.Compare(bt)
		}
	}
	if af, ok := number(a); ok {
		if bf, ok := number(b); ok {
			switch {
			case af < bf:
				return -1
			case af > bf:
				return 1
			}
			return 0
		}
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

func number(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
