package model

import (
	"errors"
	"fmt"
)

// Error kinds. Match with errors.Is; every error returned by the domain and its
// adapters wraps exactly one of these.
var (
	ErrNotFound            = errors.New("not found")
	ErrInvalidState        = errors.New("invalid state")
	ErrValidation          = errors.New("validation failed")
	ErrProviderRejected    = errors.New("provider rejected the payment")
	ErrProviderBadRequest  = errors.New("provider rejected the request as malformed")
	ErrProviderAuth        = errors.New("provider authentication failed")
	ErrProviderAuthz       = errors.New("provider authorization failed")
	ErrProviderUnavailable = errors.New("provider error")
)

// Error is a domain failure carrying a human readable message and one error kind.
type Error struct {
	Kind error
	Msg  string
}

func (e *Error) Error() string { return e.Msg }

func (e *Error) Unwrap() error { return e.Kind }

func newError(kind error, format string, args ...any) error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// NotFoundf reports a missing entity.
func NotFoundf(format string, args ...any) error { return newError(ErrNotFound, format, args...) }

// InvalidStatef reports a precondition the request cannot satisfy, such as an inactive partner.
func InvalidStatef(format string, args ...any) error {
	return newError(ErrInvalidState, format, args...)
}

// Validationf reports malformed caller input.
func Validationf(format string, args ...any) error { return newError(ErrValidation, format, args...) }

// ProviderError is returned by provider adapters for every failed approval.
type ProviderError struct {
	Provider   string
	Kind       error
	StatusCode int
	Body       string
	Err        error
}

func (e *ProviderError) Error() string {
	msg := e.Provider + ": " + e.Kind.Error()
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Body != "" {
		msg += ": " + e.Body
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ProviderError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// ProviderErrorFromStatus maps a provider HTTP status onto an error kind. Codes
// without a dedicated kind become ErrProviderUnavailable.
func ProviderErrorFromStatus(provider string, statusCode int, body string) *ProviderError {
	kind := ErrProviderUnavailable
	switch statusCode {
	case 400:
		kind = ErrProviderBadRequest
	case 401:
		kind = ErrProviderAuth
	case 403:
		kind = ErrProviderAuthz
	case 422:
		kind = ErrProviderRejected
	}
	return &ProviderError{Provider: provider, Kind: kind, StatusCode: statusCode, Body: body}
}
