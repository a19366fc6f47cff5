package mygengo

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for the failure kinds a call can produce.
var (
	ErrConfig           = errors.New("mygengo: invalid configuration")
	ErrUnknownMethod    = errors.New("mygengo: unknown method")
	ErrMissingParameter = errors.New("mygengo: missing parameter")
	ErrAuth             = errors.New("mygengo: authentication failed")
	ErrAPI              = errors.New("mygengo: api error")
	ErrTransport        = errors.New("mygengo: transport error")
)

// Gengo reports credential problems with codes in this range.
const (
	authCodeMin = 1000
	authCodeMax = 1200
)

// UnknownMethodError is returned when a method name has no descriptor.
type UnknownMethodError struct {
	Method string
}

func (e *UnknownMethodError) Error() string {
	return fmt.Sprintf("mygengo: unknown method %q", e.Method)
}

func (e *UnknownMethodError) Is(target error) bool { return target == ErrUnknownMethod }

// MissingParamError is returned when a path placeholder or a required
// payload is absent.
type MissingParamError struct {
	Method string
	Param  string
}

func (e *MissingParamError) Error() string {
	return fmt.Sprintf("mygengo: %s: missing required parameter %q", e.Method, e.Param)
}

func (e *MissingParamError) Is(target error) bool { return target == ErrMissingParameter }

// APIError carries a non-ok answer from the API. Authentication failures
// match ErrAuth, every other rejection matches ErrAPI.
type APIError struct {
	Method     string
	StatusCode int
	Opstat     string
	Code       int
	Message    string
}

func (e *APIError) Error() string {
	kind := "api error"
	if e.IsAuth() {
		kind = "authentication failed"
	}
	return fmt.Sprintf("mygengo: %s: %s: %s (code %d, http %d)", e.Method, kind, e.Message, e.Code, e.StatusCode)
}

// IsAuth reports whether the API rejected the credentials.
func (e *APIError) IsAuth() bool {
	if e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden {
		return true
	}
	return e.Code >= authCodeMin && e.Code < authCodeMax
}

func (e *APIError) Is(target error) bool {
	switch target {
	case ErrAuth:
		return e.IsAuth()
	case ErrAPI:
		return !e.IsAuth()
	default:
		return false
	}
}

// TransportError wraps network failures and undecodable responses.
type TransportError struct {
	Method string
	Op     string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("mygengo: %s: %s: %v", e.Method, e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

func (e *TransportError) Is(target error) bool { return target == ErrTransport }
