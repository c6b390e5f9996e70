package service

import (
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrPermissionDenied = errors.New("permission denied")
	ErrInvalidInput     = errors.New("invalid input")
	ErrConflict         = errors.New("conflict")
	ErrNotConfigured    = errors.New("not configured")
)

// StoreError is an I/O failure of the backing store.
type StoreError struct {
	Op  string
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store failure during %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// WorkflowError reports a multi-step operation that failed part way. Committed
// lists the steps whose effects remain in place.
type WorkflowError struct {
	Workflow  string
	Step      string
	Committed []string
	Err       error
}

func (e *WorkflowError) Error() string {
	if len(e.Committed) == 0 {
		return fmt.Sprintf("%s failed at %s, nothing was saved: %v", e.Workflow, e.Step, e.Err)
	}
	return fmt.Sprintf("%s failed at %s after %s: %v", e.Workflow, e.Step, strings.Join(e.Committed, ", "), e.Err)
}

func (e *WorkflowError) Unwrap() error {
	return e.Err
}

// storeErr maps repository errors onto the service taxonomy. what names the
// record for not-found messages.
func storeErr(what string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrConflict),
		errors.Is(err, ErrInvalidInput), errors.Is(err, ErrPermissionDenied):
		return err
	case errors.Is(err, gorm.ErrRecordNotFound):
		return notFound(what)
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return fmt.Errorf("%w: %s already exists", ErrConflict, what)
	default:
		var storeError *StoreError
		if errors.As(err, &storeError) {
			return err
		}
		return &StoreError{Op: what, Err: err}
	}
}

func notFound(what string) error {
	return fmt.Errorf("%s %w", what, ErrNotFound)
}

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrInvalidInput}, args...)...)
}

func denied(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrPermissionDenied}, args...)...)
}

func conflict(format string, args ...interface{}) error {
	return fmt.Errorf("%w: "+format, append([]interface{}{ErrConflict}, args...)...)
}
