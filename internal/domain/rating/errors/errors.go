// Package errors contains domain-specific errors for the rating domain
package errors

import (
	"fmt"

	"github.com/Conte777/newsdigest/internal/domain/rating/entities"
	pkgerrors "github.com/Conte777/newsdigest/pkg/errors"
)

// Domain errors for rating operations
var (
	ErrUnknownItem      = pkgerrors.NewNotFoundError("unknown rated item")
	ErrInvalidSnapshot  = pkgerrors.NewValidationError("invalid snapshot")
	ErrInvalidKind      = pkgerrors.NewValidationError("kind must be source or expert")
	ErrEmptyItemID      = pkgerrors.NewValidationError("item id cannot be empty")
	ErrEmptyMessageID   = pkgerrors.NewValidationError("message id cannot be empty")
	ErrSnapshotNotFound = pkgerrors.NewNotFoundError("snapshot not found")
	ErrPersistence      = pkgerrors.NewInternalError("snapshot persistence error")
	ErrEventPublish     = pkgerrors.NewInternalError("event publish error")
)

// UnknownItemError is returned when a message references an item that was never registered
type UnknownItemError struct {
	Kind entities.Kind
	ID   string
}

func (e *UnknownItemError) Error() string {
	return fmt.Sprintf("unknown %s %q", e.Kind, e.ID)
}

// ErrorType implements pkgerrors.Typed
func (e *UnknownItemError) ErrorType() pkgerrors.ErrorType {
	return pkgerrors.ErrorTypeNotFound
}

// Is matches ErrUnknownItem
func (e *UnknownItemError) Is(target error) bool {
	return target == ErrUnknownItem
}

// InvalidSnapshotError is returned by snapshot import on malformed data
type InvalidSnapshotError struct {
	Reason string
	Err    error
}

func (e *InvalidSnapshotError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("invalid snapshot: %s: %v", e.Reason, e.Err)
	}
	return fmt.Sprintf("invalid snapshot: %s", e.Reason)
}

func (e *InvalidSnapshotError) Unwrap() error {
	return e.Err
}

// ErrorType implements pkgerrors.Typed
func (e *InvalidSnapshotError) ErrorType() pkgerrors.ErrorType {
	return pkgerrors.ErrorTypeValidation
}

// Is matches ErrInvalidSnapshot
func (e *InvalidSnapshotError) Is(target error) bool {
	return target == ErrInvalidSnapshot
}
