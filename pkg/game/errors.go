package game

import (
	"errors"
	"fmt"
)

// RejectionCode classifies a guard violation.
type RejectionCode string

const (
	RejectWrongPhase    RejectionCode = "wrong_phase"
	RejectWrongActor    RejectionCode = "wrong_actor"
	RejectInvalidTarget RejectionCode = "invalid_target"
	RejectRosterSize    RejectionCode = "roster_size"
	RejectGameFull      RejectionCode = "game_full"
	RejectInvalidInput  RejectionCode = "invalid_input"
)

// ErrGuardViolation is the typed rejection for an action that fails a
// transition guard. No mutation occurs; the caller may retry with
// corrected input.
type ErrGuardViolation struct {
	Code    RejectionCode
	Message string
}

func (e *ErrGuardViolation) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func IsGuardViolation(err error) bool {
	var violation *ErrGuardViolation
	return errors.As(err, &violation)
}

// AsGuardViolation unwraps err into a guard violation, if it is one.
func AsGuardViolation(err error) (*ErrGuardViolation, bool) {
	var violation *ErrGuardViolation
	if errors.As(err, &violation) {
		return violation, true
	}
	return nil, false
}

func reject(code RejectionCode, format string, args ...interface{}) *ErrGuardViolation {
	return &ErrGuardViolation{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}
