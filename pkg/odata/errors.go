package odata

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation is matched by every *ValidationError.
	ErrValidation = errors.New("invalid odata request")
	// ErrTransport is matched by every *TransportError.
	ErrTransport = errors.New("odata transport failure")
	// ErrResponseFormat is matched by every *ResponseFormatError.
	ErrResponseFormat = errors.New("response body is not valid JSON")
)

// ValidationError reports a request description that cannot be dispatched.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%v: %s", ErrValidation, e.Reason)
	}

	return fmt.Sprintf("%v: %s %s", ErrValidation, e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// TransportError reports a network failure or an HTTP error status.
type TransportError struct {
	StatusCode int // 0 when no response was received
	Reason     string
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Reason)
	}

	return e.Reason
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

func (e *TransportError) Is(target error) bool {
	return target == ErrTransport
}

// ResponseFormatError reports a successful response whose body is not JSON.
type ResponseFormatError struct {
	RawBody string
	Err     error
}

func (e *ResponseFormatError) Error() string {
	return ErrResponseFormat.Error()
}

func (e *ResponseFormatError) Unwrap() error {
	return e.Err
}

func (e *ResponseFormatError) Is(target error) bool {
	return target == ErrResponseFormat
}

// IsValidationError reports whether err was raised before dispatch.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrValidation)
}

// IsTransportError reports whether err is a network or HTTP status failure.
func IsTransportError(err error) bool {
	return errors.Is(err, ErrTransport)
}

// IsResponseFormatError reports whether err is a non-JSON response body.
func IsResponseFormatError(err error) bool {
	return errors.Is(err, ErrResponseFormat)
}

func missing(field string) *ValidationError {
	return &ValidationError{Field: field, Reason: "is required"}
}
