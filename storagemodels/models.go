/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package storagemodels

import (
	"time"
)

// Server-owned field names. Callers can never write them directly.
const (
	FieldID          = "id"
	FieldCreatedBy   = "created_by"
	FieldUpdatedBy   = "updated_by"
	FieldCreatedAt   = "created_at"
	FieldUpdatedAt   = "updated_at"
	FieldPublishedAt = "published_at"
)

// ServerOwnedFields lists every field managed by the gateway or the storage engine.
var ServerOwnedFields = []string{
	FieldID,
	FieldCreatedBy,
	FieldUpdatedBy,
	FieldCreatedAt,
	FieldUpdatedAt,
	FieldPublishedAt,
}

// Creator identifies the user who created an entity, with the roles needed
// for ownership-based permission rules.
type Creator struct {
	ID    string   `json:"id"`
	Name  string   `json:"name,omitempty"`
	Roles []string `json:"roles,omitempty"`
}

// Entity is a record of a given model owned by the storage collaborator.
type Entity struct {
	ID          string         `json:"id"`
	Model       string         `json:"-"`
	CreatedBy   *Creator       `json:"created_by,omitempty"`
	UpdatedBy   string         `json:"updated_by,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	PublishedAt *time.Time     `json:"published_at,omitempty"`
	Attributes  map[string]any `json:"attributes"`
}

// Field resolves a field by name, covering both server-owned columns and attributes.
// created_by resolves to the creator's id.
func (e *Entity) Field(name string) (any, bool) {
	if e == nil {
		return nil, false
	}
	switch name {
	case FieldID:
		return e.ID, true
	case FieldCreatedBy:
		if e.CreatedBy == nil {
			return nil, false
		}
		return e.CreatedBy.ID, true
	case FieldUpdatedBy:
		return e.UpdatedBy, e.UpdatedBy != ""
	case FieldCreatedAt:
		return e.CreatedAt, !e.CreatedAt.IsZero()
	case FieldUpdatedAt:
		return e.UpdatedAt, !e.UpdatedAt.IsZero()
	case FieldPublishedAt:
		if e.PublishedAt == nil {
			return nil, false
		}
		return *e.PublishedAt, true
	}
	v, ok := e.Attributes[name]
	return v, ok
}

// IsPublished reports whether the entity has a publication date.
func (e *Entity) IsPublished() bool {
	return e != nil && e.PublishedAt != nil
}

// Fields flattens the entity into a single field map.
func (e *Entity) Fields() map[string]any {
	out := make(map[string]any, len(e.Attributes)+len(ServerOwnedFields))
	for k, v := range e.Attributes {
		out[k] = v
	}
	for _, name := range ServerOwnedFields {
		if v, ok := e.Field(name); ok {
			out[name] = v
		}
	}
	return out
}

// Clone returns a deep copy of the entity's top-level structure.
func (e *Entity) Clone() *Entity {
	if e == nil {
		return nil
	}
	c := *e
	if e.CreatedBy != nil {
		creator := *e.CreatedBy
		creator.Roles = append([]string(nil), e.CreatedBy.Roles...)
		c.CreatedBy = &creator
	}
	if e.PublishedAt != nil {
		t := *e.PublishedAt
		c.PublishedAt = &t
	}
	c.Attributes = make(map[string]any, len(e.Attributes))
	for k, v := range e.Attributes {
		c.Attributes[k] = v
	}
	return &c
}

// Pagination describes one page of a listing.
type Pagination struct {
	Page      int `json:"page"`
	PageSize  int `json:"pageSize"`
	PageCount int `json:"pageCount"`
	Total     int `json:"total"`
}

// Page is a page of entities returned by the storage collaborator.
type Page struct {
	Results    []*Entity
	Pagination Pagination
}
