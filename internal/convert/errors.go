package convert

import (
	"errors"
	"fmt"
)

// Code identifies an expected domain condition: input that is malformed or
// semantically invalid in a way a client can be told about. Anything else
// that goes wrong is an unexpected fault and propagates as a plain wrapped
// error.
type Code string

const (
	CodeEmptyComponent            Code = "empty-component"
	CodeMissingUID                Code = "missing-uid"
	CodeUnsupportedComponentType  Code = "unsupported-component-type"
	CodeMismatchedEntityType      Code = "mismatched-entity-type"
	CodeMoreThanOneMatch          Code = "more-than-one-match"
	CodeAttendeesInStrictPublish  Code = "attendees-in-strict-publish"
	CodeUnsupportedParameterValue Code = "unsupported-parameter-value"
	CodeDuplicatePollItemID       Code = "duplicate-poll-item-id"
	CodeMissingPollItemID         Code = "missing-poll-item-id"
	CodeOrganizerOnPoll           Code = "organizer-on-poll"
)

// Error is the typed result for expected domain conditions. It is returned
// up through every layer, never panicked, so callers can present
// user-facing validation errors.
type Error struct {
	Code    Code
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return string(e.Code)
	}
	return string(e.Code) + ": " + e.Message
}

func newErrorf(code Code, format string, args ...any) *Error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// IsCode reports whether err is (or wraps) a domain Error with the given
// code.
func IsCode(err error, code Code) bool {
	var ce *Error
	return errors.As(err, &ce) && ce.Code == code
}
