package rail

import (
	"errors"
	"fmt"
)

type ErrorKind string

const (
	ErrorKindValidation    ErrorKind = "validation"
	ErrorKindNotFound      ErrorKind = "not_found"
	ErrorKindStateConflict ErrorKind = "state_conflict"
	ErrorKindJourneyState  ErrorKind = "journey_state"
	ErrorKindCapacity      ErrorKind = "capacity"
)

// Error is a business failure. Anything else returned by the core is infrastructure.
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

func newError(kind ErrorKind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func NewValidationError(format string, args ...interface{}) error {
	return newError(ErrorKindValidation, format, args...)
}

func NewNotFoundError(format string, args ...interface{}) error {
	return newError(ErrorKindNotFound, format, args...)
}

func NewStateConflictError(format string, args ...interface{}) error {
	return newError(ErrorKindStateConflict, format, args...)
}

func NewJourneyStateError(format string, args ...interface{}) error {
	return newError(ErrorKindJourneyState, format, args...)
}

func NewCapacityError(format string, args ...interface{}) error {
	return newError(ErrorKindCapacity, format, args...)
}

var (
	ErrJourneyComplete = &Error{Kind: ErrorKindJourneyState, Message: "journey is complete"}
	ErrAlreadyBoarded  = &Error{Kind: ErrorKindStateConflict, Message: "passenger has already boarded"}
)

// IsKind reports whether err is a business error of the given kind
func IsKind(err error, kind ErrorKind) bool {
	var railError *Error
	if errors.As(err, &railError) {
		return railError.Kind == kind
	}
	return false
}

// IsBusinessError reports whether err belongs to the domain taxonomy
func IsBusinessError(err error) bool {
	var railError *Error
	return errors.As(err, &railError)
}

// KindOf returns the business error kind of err, or "" for infrastructure errors
func KindOf(err error) ErrorKind {
	var railError *Error
	if errors.As(err, &railError) {
		return railError.Kind
	}
	return ""
}
