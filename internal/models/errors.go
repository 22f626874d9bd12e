package models

import (
	"errors"
	"fmt"
)

// Error classes shared by the workflow, the ledger and the HTTP layer.
// Callers classify with errors.Is; storage and handler code wrap them.
var (
	ErrNotFound        = errors.New("not found")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrConflict        = errors.New("conflict")
	ErrStorage         = errors.New("storage failure")

	// ErrNoOpenOrder is returned by payment finalization when the table has
	// nothing left to charge. It is a user-facing condition, not a failure.
	ErrNoOpenOrder = errors.New("no pending orders for this table")
)

// ValidationError describes a rejected request field
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (e ValidationError) Unwrap() error {
	return ErrInvalidArgument
}

// classifiedError carries a client-safe message and the class it belongs to
type classifiedError struct {
	msg   string
	class error
}

func (e *classifiedError) Error() string { return e.msg }

func (e *classifiedError) Unwrap() error { return e.class }

// NotFoundf returns an ErrNotFound-class error with a formatted message
func NotFoundf(format string, args ...interface{}) error {
	return &classifiedError{msg: fmt.Sprintf(format, args...), class: ErrNotFound}
}

// Conflictf returns an ErrConflict-class error with a formatted message
func Conflictf(format string, args ...interface{}) error {
	return &classifiedError{msg: fmt.Sprintf(format, args...), class: ErrConflict}
}
