package zalo

import (
	"errors"
	"fmt"
)

// Kind is the stable category of a bot API failure.
type Kind string

const (
	KindMissingToken   Kind = "missing_token"
	KindTransport      Kind = "transport_error"
	KindAPI            Kind = "api_error"
	KindNoUpdates      Kind = "no_updates_found"
	KindChatIDNotFound Kind = "chat_id_not_found"
)

const (
	unknownErrorDescription = "Unknown error"
	malformedBodyMessage    = "malformed response body from bot API"
)

// Error is a categorized bot API failure. Code is only meaningful for KindAPI.
type Error struct {
	Kind        Kind
	Code        int
	Description string
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Kind == KindAPI {
		return fmt.Sprintf("%s %d: %s", e.Kind, e.Code, e.Description)
	}
	if e.Description == "" {
		return string(e.Kind)
	}

	return fmt.Sprintf("%s: %s", e.Kind, e.Description)
}

// Message returns the operator-facing text without the category prefix.
func (e *Error) Message() string {
	if e == nil {
		return ""
	}
	if e.Description == "" {
		return string(e.Kind)
	}

	return e.Description
}

func newError(kind Kind, description string) error {
	return &Error{Kind: kind, Description: description}
}

// KindOf returns the category for err, or "" when err is not a bot API error.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}

	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}

	return ""
}

// MessageOf returns the verbatim failure text reported for err.
func MessageOf(err error) string {
	if err == nil {
		return ""
	}

	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Message()
	}

	return err.Error()
}
