package base

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// RepositoryError is any failed database operation. Callers treat it as a
// persistence failure.
type RepositoryError struct {
	Operation string
	Table     string
	Cause     error
}

func (e *RepositoryError) Error() string {
	return fmt.Sprintf("failed to %s %s: %v", e.Operation, e.Table, e.Cause)
}

func (e *RepositoryError) Unwrap() error {
	return e.Cause
}

// EntityNotFoundError reports a lookup by natural key or id that matched nothing.
type EntityNotFoundError struct {
	Table      string
	Identifier string
}

func (e *EntityNotFoundError) Error() string {
	return fmt.Sprintf("%s with %s not found", e.Table, e.Identifier)
}

// DuplicateEntityError reports an insert that collided with a unique key.
type DuplicateEntityError struct {
	Table string
	Field string
	Value string
}

func (e *DuplicateEntityError) Error() string {
	return fmt.Sprintf("%s with %s '%s' already exists", e.Table, e.Field, e.Value)
}

func NewRepositoryError(operation, table string, cause error) *RepositoryError {
	return &RepositoryError{Operation: operation, Table: table, Cause: cause}
}

func NewEntityNotFoundError(table, identifier string) *EntityNotFoundError {
	return &EntityNotFoundError{Table: table, Identifier: identifier}
}

func NewDuplicateEntityError(table, field, value string) *DuplicateEntityError {
	return &DuplicateEntityError{Table: table, Field: field, Value: value}
}

// HandleDBError maps gorm errors onto the repository error types.
func HandleDBError(operation, table, identifier string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return NewEntityNotFoundError(table, identifier)
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) || isUniqueViolation(err) {
		return NewDuplicateEntityError(table, "key", identifier)
	}
	return NewRepositoryError(operation, table, err)
}

// WrapDBError wraps a database error with operation context.
func WrapDBError(operation, table string, err error) error {
	if err == nil {
		return nil
	}
	return NewRepositoryError(operation, table, err)
}

func IsEntityNotFound(err error) bool {
	var target *EntityNotFoundError
	return errors.As(err, &target)
}

func IsDuplicateEntity(err error) bool {
	var target *DuplicateEntityError
	return errors.As(err, &target)
}

func IsRepositoryError(err error) bool {
	var target *RepositoryError
	return errors.As(err, &target)
}

// isUniqueViolation catches drivers that do not translate errors for gorm.
func isUniqueViolation(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "SQLSTATE 23505")
}
