/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package errors

import (
	"errors"
	"fmt"
	"time"
)

// Common sentinel errors
var (
	// ErrNotFound is returned when an entity or model is not found, or is excluded by the caller's scope
	ErrNotFound = errors.New("entity not found")

	// ErrForbidden is returned when the caller's ability does not allow an operation
	ErrForbidden = errors.New("forbidden")

	// ErrAlreadyExists is returned when attempting to create an entity that already exists
	ErrAlreadyExists = errors.New("entity already exists")

	// ErrInvalidInput is returned when input validation fails (bad request)
	ErrInvalidInput = errors.New("invalid input")

	// ErrConditionFailed is returned when a conditional write fails
	ErrConditionFailed = errors.New("condition check failed")

	// ErrLockConflict is returned when another editor holds a live lock on the entity
	ErrLockConflict = errors.New("entity is locked by another editor")

	// ErrLockMismatch is returned when the presented lock token is not the one stored for the entity
	ErrLockMismatch = errors.New("lock token mismatch")

	// ErrLockNotFound is returned when no live lock exists for the entity
	ErrLockNotFound = errors.New("lock not found")

	// ErrBackend is returned when the storage or lock backend fails
	ErrBackend = errors.New("backend failure")
)

// NotFoundError represents an error when an entity is not found
type NotFoundError struct {
	Type string
	Key  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with key %q not found", e.Type, e.Key)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// ForbiddenError reports the action and model a caller was denied
type ForbiddenError struct {
	Action string
	Model  string
}

func (e *ForbiddenError) Error() string {
	return fmt.Sprintf("%s on %s is forbidden", e.Action, e.Model)
}

func (e *ForbiddenError) Is(target error) bool {
	return target == ErrForbidden
}

// AlreadyExistsError represents an error when an entity already exists
type AlreadyExistsError struct {
	Type string
	Key  string
}

func (e *AlreadyExistsError) Error() string {
	return fmt.Sprintf("%s with key %q already exists", e.Type, e.Key)
}

func (e *AlreadyExistsError) Is(target error) bool {
	return target == ErrAlreadyExists
}

// ValidationError represents an input validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field %q: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// ConditionFailedError represents a failed conditional operation
type ConditionFailedError struct {
	Operation string
	Condition string
}

func (e *ConditionFailedError) Error() string {
	return fmt.Sprintf("condition check failed for %s operation: %s", e.Operation, e.Condition)
}

func (e *ConditionFailedError) Is(target error) bool {
	return target == ErrConditionFailed
}

// LockConflictError describes the live lock that prevented acquisition.
// OwnerUserID and Since let callers render "edited by X, Ys ago".
type LockConflictError struct {
	Model       string
	EntityID    string
	OwnerUserID string
	Since       time.Time
	Age         time.Duration
}

func (e *LockConflictError) Error() string {
	return fmt.Sprintf("%s %q is being edited by user %q (locked %s ago)",
		e.Model, e.EntityID, e.OwnerUserID, e.Age.Round(time.Second))
}

func (e *LockConflictError) Is(target error) bool {
	return target == ErrLockConflict
}

// LockError carries the key of a lock protocol violation; Err is
// ErrLockMismatch or ErrLockNotFound.
type LockError struct {
	Model    string
	EntityID string
	Err      error
}

func (e *LockError) Error() string {
	return fmt.Sprintf("%s %q: %v", e.Model, e.EntityID, e.Err)
}

func (e *LockError) Unwrap() error {
	return e.Err
}

// BulkLockError lists the entities a bulk operation could not lock. Err
// aggregates the individual failures. It is a lock conflict only when one of
// them is a lock protocol error.
type BulkLockError struct {
	Model string
	IDs   []string
	Err   error
}

func (e *BulkLockError) Error() string {
	return fmt.Sprintf("failed to lock %d %s entities: %v", len(e.IDs), e.Model, e.Err)
}

func (e *BulkLockError) Unwrap() error {
	return e.Err
}

func (e *BulkLockError) Is(target error) bool {
	return target == ErrLockConflict && IsLockError(e.Err)
}

// BackendError wraps a failure returned by a collaborator
type BackendError struct {
	Op    string
	Model string
	Err   error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("%s %s failed: %v", e.Op, e.Model, e.Err)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}

func (e *BackendError) Is(target error) bool {
	return target == ErrBackend
}

// Helper functions for creating errors

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(entityType, key string) error {
	return &NotFoundError{Type: entityType, Key: key}
}

// NewForbiddenError creates a new ForbiddenError
func NewForbiddenError(action, model string) error {
	return &ForbiddenError{Action: action, Model: model}
}

// NewAlreadyExistsError creates a new AlreadyExistsError
func NewAlreadyExistsError(entityType, key string) error {
	return &AlreadyExistsError{Type: entityType, Key: key}
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// NewConditionFailedError creates a new ConditionFailedError
func NewConditionFailedError(operation, condition string) error {
	return &ConditionFailedError{Operation: operation, Condition: condition}
}

// NewLockMismatchError creates a LockError wrapping ErrLockMismatch
func NewLockMismatchError(model, entityID string) error {
	return &LockError{Model: model, EntityID: entityID, Err: ErrLockMismatch}
}

// NewLockNotFoundError creates a LockError wrapping ErrLockNotFound
func NewLockNotFoundError(model, entityID string) error {
	return &LockError{Model: model, EntityID: entityID, Err: ErrLockNotFound}
}

// NewBackendError wraps err as a BackendError. A nil err yields nil.
func NewBackendError(op, model string, err error) error {
	if err == nil {
		return nil
	}
	return &BackendError{Op: op, Model: model, Err: err}
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsForbidden checks if an error is a forbidden error
func IsForbidden(err error) bool {
	return errors.Is(err, ErrForbidden)
}

// IsAlreadyExists checks if an error is an already exists error
func IsAlreadyExists(err error) bool {
	return errors.Is(err, ErrAlreadyExists)
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

// IsConditionFailed checks if an error is a condition failed error
func IsConditionFailed(err error) bool {
	return errors.Is(err, ErrConditionFailed)
}

// IsLockConflict checks if an error is a lock conflict
func IsLockConflict(err error) bool {
	return errors.Is(err, ErrLockConflict)
}

// IsLockMismatch checks if an error is a lock token mismatch
func IsLockMismatch(err error) bool {
	return errors.Is(err, ErrLockMismatch)
}

// IsLockNotFound checks if an error reports a missing or expired lock
func IsLockNotFound(err error) bool {
	return errors.Is(err, ErrLockNotFound)
}

// IsLockError reports whether err is any violation of the editing lock protocol
func IsLockError(err error) bool {
	return IsLockConflict(err) || IsLockMismatch(err) || IsLockNotFound(err)
}

// IsBackend checks if an error is a wrapped backend failure
func IsBackend(err error) bool {
	return errors.Is(err, ErrBackend)
}
