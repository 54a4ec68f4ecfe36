package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is a domain failure that carries its HTTP status, a localisation
// message ID and an English default message.
type Error struct {
	Code      int            `json:"code"`
	MessageID string         `json:"message_id"`
	Message   string         `json:"message"`
	Data      map[string]any `json:"-"`
	Details   any            `json:"details,omitempty"`
	Err       error          `json:"-"`
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches on MessageID so sentinel values can be compared with errors.Is.
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.MessageID != "" && t.MessageID == e.MessageID
}

func New(code int, messageID, message string) *Error {
	return &Error{Code: code, MessageID: messageID, Message: message}
}

// WithData returns a copy carrying template data for localisation.
func (e *Error) WithData(data map[string]any) *Error {
	cp := *e
	cp.Data = data
	return &cp
}

// WithDetails returns a copy carrying extra response details.
func (e *Error) WithDetails(details any) *Error {
	cp := *e
	cp.Details = details
	return &cp
}

// Wrap returns a copy wrapping err.
func (e *Error) Wrap(err error) *Error {
	cp := *e
	cp.Err = err
	return &cp
}

func BadRequest(messageID, message string) *Error {
	return New(http.StatusBadRequest, messageID, message)
}

func NotFound(messageID, message string) *Error {
	return New(http.StatusNotFound, messageID, message)
}

func Conflict(messageID, message string) *Error {
	return New(http.StatusConflict, messageID, message)
}

func Unprocessable(messageID, message string) *Error {
	return New(http.StatusUnprocessableEntity, messageID, message)
}

func TooManyRequests(messageID, message string) *Error {
	return New(http.StatusTooManyRequests, messageID, message)
}

func Unauthorized(messageID, message string) *Error {
	return New(http.StatusUnauthorized, messageID, message)
}

// As extracts an *Error from err's chain.
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

var (
	ErrMissingMerchant   = Unauthorized("MissingMerchant", "Missing merchant context")
	ErrInvalidTransition = Conflict("InvalidTransition", "Status transition is not allowed")
)
