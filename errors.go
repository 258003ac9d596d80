package morm

import (
	"errors"
	"fmt"
)

var (
	// ErrNotInitialized is returned when an operation runs against a nil *DB.
	ErrNotInitialized = errors.New("morm: database not initialized, call morm.Open() first")
	// ErrPoolClosed is returned when an operation runs after DB.Close.
	ErrPoolClosed = errors.New("morm: connection pool is closed")
	// ErrDefinition matches every model definition error via errors.Is.
	ErrDefinition = errors.New("morm: invalid model definition")
	// ErrInvalidLimit is returned by FindAll for a malformed Limit option.
	ErrInvalidLimit = errors.New("morm: invalid limit")
)

// MissingPrimaryKeyError is returned by Define when no attribute is marked as primary key.
type MissingPrimaryKeyError struct {
	Model string
}

func (e *MissingPrimaryKeyError) Error() string {
	return fmt.Sprintf("morm: primary key not found in model %s", e.Model)
}

func (e *MissingPrimaryKeyError) Is(target error) bool { return target == ErrDefinition }

// DuplicatePrimaryKeyError is returned by Define when a second attribute claims the primary key.
type DuplicatePrimaryKeyError struct {
	Model    string
	Field    string
	Existing string
}

func (e *DuplicatePrimaryKeyError) Error() string {
	return fmt.Sprintf("morm: duplicate primary key for field %s in model %s (already %s)", e.Field, e.Model, e.Existing)
}

func (e *DuplicatePrimaryKeyError) Is(target error) bool { return target == ErrDefinition }

// DefinitionError covers the remaining definition-time mistakes.
type DefinitionError struct {
	Model  string
	Reason string
}

func (e *DefinitionError) Error() string {
	return fmt.Sprintf("morm: model %s: %s", e.Model, e.Reason)
}

func (e *DefinitionError) Is(target error) bool { return target == ErrDefinition }

// InvalidIdentifierError represents a table or column name that cannot be used as an SQL identifier.
type InvalidIdentifierError struct {
	Name   string
	Reason string
}

func (e *InvalidIdentifierError) Error() string {
	return fmt.Sprintf("morm: invalid identifier '%s': %s", e.Name, e.Reason)
}

func (e *InvalidIdentifierError) Is(target error) bool { return target == ErrDefinition }

// RowCountError is returned by Save/Update/Remove when strict row counting is on
// and the statement did not affect exactly one row.
type RowCountError struct {
	Op       string
	Table    string
	Affected int64
}

func (e *RowCountError) Error() string {
	return fmt.Sprintf("morm: failed to %s record in %s: affected rows: %d", e.Op, e.Table, e.Affected)
}
