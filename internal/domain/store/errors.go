// Package store defines the storage failure type shared by all repositories.
package store

import (
	"fmt"

	"github.com/go-faster/errors"
)

// Error reports that the backing store could not serve a request: the
// connection failed, a statement was rejected or a row could not be scanned.
// It never represents a missing row; those map to the owning domain's
// ErrNotFound.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("storage: %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Wrap returns err as a *Error tagged with op. A nil err stays nil and an
// error that already is a *Error is returned unchanged.
func Wrap(err error, op string) error {
	if err == nil {
		return nil
	}
	var se *Error
	if errors.As(err, &se) {
		return err
	}
	return &Error{Op: op, Err: err}
}

// IsStorage reports whether err is, or wraps, a *Error.
func IsStorage(err error) bool {
	var se *Error
	return errors.As(err, &se)
}
