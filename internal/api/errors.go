package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"huddle/internal/constants"
)

// ErrEmptyResponse is returned when a call that expects a result gets a
// successful status with no usable body.
var ErrEmptyResponse = errors.New("empty response body")

// ErrInvalidResponse is returned when a successful body decodes but lacks a
// field the caller cannot work without.
var ErrInvalidResponse = errors.New("invalid response body")

// Error is a non-2xx reply from the backend.
type Error struct {
	Status  int
	Code    string
	Message string
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.Status)
	}
	if e.Code != "" {
		return fmt.Sprintf("api: %d %s: %s", e.Status, e.Code, msg)
	}
	return fmt.Sprintf("api: %d: %s", e.Status, msg)
}

// TransportError means no HTTP response was received.
type TransportError struct {
	Method string
	Path   string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.Path, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ValidationError reports a request rejected before it was sent.
type ValidationError struct {
	Field   string
	Tag     string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// IsUnauthorized reports whether err is a 401 from the backend.
func IsUnauthorized(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusUnauthorized
}

// IsServerError reports whether err is a 5xx from the backend.
func IsServerError(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.Status >= http.StatusInternalServerError
}

// IsTransport reports whether err happened before any response arrived.
func IsTransport(err error) bool {
	var transportErr *TransportError
	return errors.As(err, &transportErr)
}

// Message returns text fit to show the user for err.
func Message(err error) string {
	var (
		validationErr *ValidationError
		apiErr        *Error
	)
	switch {
	case err == nil:
		return ""
	case errors.As(err, &validationErr):
		return validationErr.Message
	case IsTransport(err):
		return constants.MsgNetworkError
	case errors.As(err, &apiErr) && apiErr.Message != "":
		return apiErr.Message
	}
	return constants.MsgRequestFailed
}

// parseError builds an Error from a failed response body. The backend has
// used several envelopes over time; the message is taken from the first of
// message, error.message, error, detail that holds a non-empty string.
func parseError(status int, body []byte) *Error {
	apiErr := &Error{Status: status}
	if status == http.StatusUnauthorized {
		apiErr.Code = constants.ErrCodeUnauthorized
	}

	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return apiErr
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err != nil {
		return apiErr
	}

	var nested map[string]json.RawMessage
	if raw, ok := envelope["error"]; ok {
		_ = json.Unmarshal(raw, &nested)
	}

	if code := firstString(envelope, "code"); code != "" {
		apiErr.Code = code
	} else if code := firstString(nested, "code"); code != "" {
		apiErr.Code = code
	}

	switch {
	case firstString(envelope, "message") != "":
		apiErr.Message = firstString(envelope, "message")
	case firstString(nested, "message") != "":
		apiErr.Message = firstString(nested, "message")
	case firstString(envelope, "error") != "":
		apiErr.Message = firstString(envelope, "error")
	case firstString(envelope, "detail") != "":
		apiErr.Message = firstString(envelope, "detail")
	}
	return apiErr
}

func firstString(m map[string]json.RawMessage, key string) string {
	raw, ok := m[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return strings.TrimSpace(s)
}
