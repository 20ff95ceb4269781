/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package memory_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/suparena/contentgate/datastore/memory"
	"github.com/suparena/contentgate/errors"
	"github.com/suparena/contentgate/storagemodels"
)

const article = "api::article.article"

func sequential() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprint(n)
	}
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()

	t.Run("BasicOperations", func(t *testing.T) {
		store := memory.New().
			WithIDGenerator(sequential()).
			WithCreator(storagemodels.Creator{ID: "7", Name: "ana", Roles: []string{"author"}})

		created, err := store.Create(ctx, article, map[string]any{
			"title":      "Hello",
			"created_by": "7",
			"updated_by": "7",
			"id":         "ignored",
		})
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}
		if created.ID != "1" || created.Attributes["title"] != "Hello" {
			t.Fatalf("Created entity mismatch: %+v", created)
		}
		if _, ok := created.Attributes["id"]; ok {
			t.Fatalf("id must not become an attribute")
		}

		found, err := store.FindOneWithCreatorRoles(ctx, article, "1")
		if err != nil {
			t.Fatalf("FindOneWithCreatorRoles failed: %v", err)
		}
		if found.CreatedBy == nil || found.CreatedBy.ID != "7" || len(found.CreatedBy.Roles) != 1 {
			t.Fatalf("Creator roles not populated: %+v", found.CreatedBy)
		}

		updated, err := store.Update(ctx, article, found, map[string]any{"body": "b", "updated_by": "8"})
		if err != nil {
			t.Fatalf("Update failed: %v", err)
		}
		if updated.Attributes["title"] != "Hello" || updated.Attributes["body"] != "b" || updated.UpdatedBy != "8" {
			t.Fatalf("Update did not merge: %+v", updated)
		}

		published, err := store.Publish(ctx, article, updated)
		if err != nil || !published.IsPublished() {
			t.Fatalf("Publish failed: %v %+v", err, published)
		}
		unpublished, err := store.Unpublish(ctx, article, published)
		if err != nil || unpublished.IsPublished() {
			t.Fatalf("Unpublish failed: %v %+v", err, unpublished)
		}

		deleted, err := store.Delete(ctx, article, unpublished)
		if err != nil || deleted == nil {
			t.Fatalf("Delete failed: %v", err)
		}

		_, err = store.FindOneWithCreatorRoles(ctx, article, "1")
		if !errors.IsNotFound(err) {
			t.Fatalf("Expected not found error, got: %v", err)
		}

		gone, err := store.Update(ctx, article, unpublished, map[string]any{"title": "x"})
		if err != nil || gone != nil {
			t.Fatalf("Update of a missing entity should return nil, got %+v, %v", gone, err)
		}
	})

	t.Run("ReturnedEntitiesAreCopies", func(t *testing.T) {
		store := memory.New()
		store.Put(article, &storagemodels.Entity{ID: "1", Attributes: map[string]any{"title": "a"}})

		e, _ := store.FindOneWithCreatorRoles(ctx, article, "1")
		e.Attributes["title"] = "changed"

		again, _ := store.FindOneWithCreatorRoles(ctx, article, "1")
		if again.Attributes["title"] != "a" {
			t.Fatalf("store state leaked through a returned entity")
		}
	})

	t.Run("ErrorSimulation", func(t *testing.T) {
		store := memory.New()
		boom := fmt.Errorf("connection reset")
		store.WithError(memory.OpCreate, boom)

		if _, err := store.Create(ctx, article, map[string]any{}); err != boom {
			t.Fatalf("Expected create error, got: %v", err)
		}
		if store.Count(article) != 0 {
			t.Fatalf("failed create must not store an entity")
		}

		store.WithError(memory.OpCreate, nil)
		if _, err := store.Create(ctx, article, map[string]any{}); err != nil {
			t.Fatalf("Create after clearing error failed: %v", err)
		}
		if store.Calls(memory.OpCreate) != 2 || store.TotalCalls() != 2 {
			t.Fatalf("unexpected call counts: %d/%d", store.Calls(memory.OpCreate), store.TotalCalls())
		}
	})

	t.Run("ContextCancelation", func(t *testing.T) {
		store := memory.New()
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		if _, err := store.FindPage(cctx, article, storagemodels.Query{}); err != context.Canceled {
			t.Fatalf("Expected context.Canceled, got: %v", err)
		}
	})
}

func seed(store *memory.Store) {
	for i, title := range []string{"Go tips", "Rust notes", "go modules", "Zig", "Python"} {
		store.Put(article, &storagemodels.Entity{
			ID:         fmt.Sprint(i + 1),
			CreatedBy:  &storagemodels.Creator{ID: fmt.Sprint(i % 2)},
			Attributes: map[string]any{"title": title, "views": 10 * (5 - i)},
		})
	}
}

func TestFindPage(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	seed(store)

	tests := []struct {
		name      string
		query     storagemodels.Query
		wantIDs   []string
		wantTotal int
	}{
		{"all", storagemodels.Query{}, []string{"1", "2", "3", "4", "5"}, 5},
		{"paged", storagemodels.Query{Page: 2, PageSize: 2}, []string{"3", "4"}, 5},
		{"past the end", storagemodels.Query{Page: 9, PageSize: 2}, []string{}, 5},
		{"where", storagemodels.Query{Where: []storagemodels.Condition{storagemodels.Eq("created_by", "1")}}, []string{"2", "4"}, 2},
		{"scoped", storagemodels.Query{Scopes: [][]storagemodels.Condition{{storagemodels.In("id", []string{"1", "5"})}}}, []string{"1", "5"}, 2},
		{"no scope", storagemodels.Query{Scopes: [][]storagemodels.Condition{}}, []string{}, 0},
		{"sorted", storagemodels.Query{Sort: []string{"views:asc"}}, []string{"5", "4", "3", "2", "1"}, 5},
		{"sorted by title desc", storagemodels.Query{Sort: []string{"title:desc"}, PageSize: 2}, []string{"3", "4"}, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			page, err := store.FindPage(ctx, article, tt.query)
			if err != nil {
				t.Fatalf("FindPage failed: %v", err)
			}
			ids := make([]string, 0, len(page.Results))
			for _, e := range page.Results {
				ids = append(ids, e.ID)
			}
			if fmt.Sprint(ids) != fmt.Sprint(tt.wantIDs) {
				t.Fatalf("ids = %v, want %v", ids, tt.wantIDs)
			}
			if page.Pagination.Total != tt.wantTotal {
				t.Fatalf("total = %d, want %d", page.Pagination.Total, tt.wantTotal)
			}
		})
	}

	page, _ := store.FindPage(ctx, article, storagemodels.Query{PageSize: 2})
	if page.Pagination.PageCount != 3 || page.Pagination.Page != 1 {
		t.Fatalf("unexpected pagination %+v", page.Pagination)
	}
}

func TestSearchPage(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	seed(store)

	page, err := store.SearchPage(ctx, article, storagemodels.Query{Search: "GO"})
	if err != nil {
		t.Fatalf("SearchPage failed: %v", err)
	}
	if page.Pagination.Total != 2 {
		t.Fatalf("expected 2 matches, got %d", page.Pagination.Total)
	}
	if store.Calls(memory.OpSearchPage) != 1 || store.Calls(memory.OpFindPage) != 0 {
		t.Fatalf("SearchPage must not count as FindPage")
	}
}

func TestFindAndDelete(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	seed(store)

	deleted, err := store.FindAndDelete(ctx, article, storagemodels.Query{
		Where:  []storagemodels.Condition{storagemodels.In("id", []string{"1", "2", "3"})},
		Scopes: [][]storagemodels.Condition{{storagemodels.Eq("created_by", "0")}},
	})
	if err != nil {
		t.Fatalf("FindAndDelete failed: %v", err)
	}
	if len(deleted) != 2 || deleted[0].ID != "1" || deleted[1].ID != "3" {
		t.Fatalf("unexpected deleted set: %v", deleted)
	}
	if store.Count(article) != 3 {
		t.Fatalf("expected 3 remaining, got %d", store.Count(article))
	}
}
