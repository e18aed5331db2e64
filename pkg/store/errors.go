package store

import "errors"

type ErrNotFound struct {
}

func (e *ErrNotFound) Error() string {
	return "not found"
}

func IsNotFound(err error) bool {
	var notFound *ErrNotFound
	return errors.As(err, &notFound)
}

// ErrConflict is returned when a transaction lost the race to a concurrent
// writer. The caller may retry against fresh state.
type ErrConflict struct {
}

func (e *ErrConflict) Error() string {
	return "transaction conflict"
}

func IsConflict(err error) bool {
	var conflict *ErrConflict
	return errors.As(err, &conflict)
}

// ErrUnavailable is returned when the store itself cannot be reached. It
// must never be interpreted as success.
type ErrUnavailable struct {
	Cause error
}

func (e *ErrUnavailable) Error() string {
	if e.Cause != nil {
		return "store unavailable: " + e.Cause.Error()
	}
	return "store unavailable"
}

func (e *ErrUnavailable) Unwrap() error {
	return e.Cause
}

func IsUnavailable(err error) bool {
	var unavailable *ErrUnavailable
	return errors.As(err, &unavailable)
}
