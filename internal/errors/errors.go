// internal/errors/errors.go
package appErrors

import (
	"errors"
	"fmt"
)

// ErrDispatchInProgress is returned when another dispatch holds the campaign lock.
var ErrDispatchInProgress = errors.New("dispatch already in progress for campaign")

// ErrCampaignDisabled is returned by a status write that lost to a disable.
var ErrCampaignDisabled = errors.New("campaign was disabled")

// ErrForbidden is returned when a member touches another user's resource.
var ErrForbidden = errors.New("forbidden")

// ErrNotFound is returned when a referenced entity does not exist in the store
type ErrNotFound struct {
	Entity string
	ID     int
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s with ID %d not found", e.Entity, e.ID)
}

// ErrValidation rejects malformed input before anything is persisted
type ErrValidation struct {
	Field  string
	Reason string
}

func (e *ErrValidation) Error() string {
	if e.Field == "" {
		return "validation failed: " + e.Reason
	}
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Reason)
}

// ErrPersistence wraps a store failure. It is fatal for the current invocation.
type ErrPersistence struct {
	Op  string
	Err error
}

func (e *ErrPersistence) Error() string {
	return fmt.Sprintf("persistence failure during %s: %v", e.Op, e.Err)
}

func (e *ErrPersistence) Unwrap() error { return e.Err }

// Helper constructors
func NewCampaignNotFound(id int) error {
	return &ErrNotFound{Entity: "campaign", ID: id}
}

func NewClientNotFound(id int) error {
	return &ErrNotFound{Entity: "client", ID: id}
}

func NewMessageNotFound(id int) error {
	return &ErrNotFound{Entity: "message", ID: id}
}

func NewValidation(field, reason string) error {
	return &ErrValidation{Field: field, Reason: reason}
}

// NewPersistence wraps err unless it is nil or already a typed app error.
func NewPersistence(op string, err error) error {
	if err == nil {
		return nil
	}
	if IsNotFound(err) || IsValidation(err) || IsPersistence(err) {
		return err
	}
	return &ErrPersistence{Op: op, Err: err}
}

func IsNotFound(err error) bool {
	var target *ErrNotFound
	return errors.As(err, &target)
}

func IsValidation(err error) bool {
	var target *ErrValidation
	return errors.As(err, &target)
}

func IsPersistence(err error) bool {
	var target *ErrPersistence
	return errors.As(err, &target)
}
