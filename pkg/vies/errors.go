package vies

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidInput           = errors.New("vies: invalid input")
	ErrServiceUnavailable     = errors.New("vies: service unavailable")
	ErrMemberStateUnavailable = errors.New("vies: member state unavailable")
	ErrTimeout                = errors.New("vies: timeout")
	ErrRateLimited            = errors.New("vies: too many concurrent requests")
	ErrBlocked                = errors.New("vies: request blocked")
	ErrUnexpectedResponse     = errors.New("vies: unexpected response")
	ErrCircuitOpen            = errors.New("vies: circuit open")
)

// Error is a failed VIES lookup. It matches one of the package sentinels with
// errors.Is and also unwraps to the underlying cause, if any.
type Error struct {
	// Code is the VIES fault code, such as MS_UNAVAILABLE. Empty when the
	// failure was not reported by VIES itself.
	Code       string
	Country    string
	StatusCode int
	Retryable  bool

	kind  error
	cause error
}

func (e *Error) Error() string {
	msg := e.kind.Error()
	if e.Code != "" {
		msg += " (" + e.Code + ")"
	}
	if e.Country != "" {
		msg += " for " + e.Country
	}
	if e.cause != nil {
		msg += ": " + e.cause.Error()
	}
	return msg
}

func (e *Error) Unwrap() []error {
	if e.cause == nil {
		return []error{e.kind}
	}
	return []error{e.kind, e.cause}
}

// IsRetryable reports whether err is a VIES failure worth retrying.
func IsRetryable(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Retryable
	}
	return false
}

// newFault maps a VIES fault code to an Error.
func newFault(code, country string, status int, cause error) *Error {
	e := &Error{Code: code, Country: country, StatusCode: status, cause: cause}

	switch code {
	case "INVALID_INPUT", "INVALID_REQUESTER_INFO":
		e.kind = ErrInvalidInput
	case "SERVICE_UNAVAILABLE", "SERVER_BUSY":
		e.kind, e.Retryable = ErrServiceUnavailable, true
	case "MS_UNAVAILABLE":
		e.kind, e.Retryable = ErrMemberStateUnavailable, true
	case "TIMEOUT":
		e.kind, e.Retryable = ErrTimeout, true
	case "GLOBAL_MAX_CONCURRENT_REQ", "MS_MAX_CONCURRENT_REQ", "GLOBAL_MAX_CONCURRENT_REQ_TIME", "MS_MAX_CONCURRENT_REQ_TIME":
		e.kind, e.Retryable = ErrRateLimited, true
	case "VAT_BLOCKED", "IP_BLOCKED":
		e.kind = ErrBlocked
	default:
		e.kind = ErrUnexpectedResponse
	}

	return e
}

// newStatusError classifies a response that carried no VIES fault code.
func newStatusError(country string, status int, cause error) *Error {
	e := &Error{Country: country, StatusCode: status, kind: ErrUnexpectedResponse, cause: cause}

	switch {
	case status == 429:
		e.kind, e.Retryable = ErrRateLimited, true
	case status == 503:
		e.kind, e.Retryable = ErrServiceUnavailable, true
	case status == 504:
		e.kind, e.Retryable = ErrTimeout, true
	case status >= 500:
		e.Retryable = true
	}

	return e
}

func newTimeoutError(country string, cause error) *Error {
	return &Error{Country: country, kind: ErrTimeout, Retryable: true, cause: cause}
}

func newTransportError(country string, cause error) *Error {
	return &Error{Country: country, kind: ErrServiceUnavailable, Retryable: true, cause: cause}
}

func circuitOpenError(country string) error {
	return fmt.Errorf("%w for %s", ErrCircuitOpen, country)
}
