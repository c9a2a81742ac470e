package services

import (
	"errors"
	"fmt"
)

// Kind classifies service failures for the transport layer
type Kind int

const (
	// KindUnknown is any failure that was not classified
	KindUnknown Kind = iota

	// KindValidation means the caller sent something unusable
	KindValidation

	// KindUpstream means the data service failed or refused the request
	KindUpstream

	// KindConfiguration means the process is missing settings it needs
	KindConfiguration
)

// String returns the kind name used in logs
func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindUpstream:
		return "upstream"
	case KindConfiguration:
		return "configuration"
	default:
		return "unknown"
	}
}

// Error is a classified service failure
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Err     error
}

// Error implements the error interface
func (e *Error) Error() string {
	switch {
	case e.Err != nil && e.Message != "":
		return fmt.Sprintf("%s: %s: %v", e.Op, e.Message, e.Err)
	case e.Err != nil:
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	default:
		return fmt.Sprintf("%s: %s", e.Op, e.Message)
	}
}

// Unwrap returns the underlying error
func (e *Error) Unwrap() error {
	return e.Err
}

// ValidationError creates a validation failure
func ValidationError(op, message string, err error) *Error {
	return &Error{Kind: KindValidation, Op: op, Message: message, Err: err}
}

// UpstreamError creates a data service failure
func UpstreamError(op string, err error) *Error {
	return &Error{Kind: KindUpstream, Op: op, Err: err}
}

// ConfigurationError creates a configuration failure
func ConfigurationError(op, message string) *Error {
	return &Error{Kind: KindConfiguration, Op: op, Message: message}
}

// KindOf returns the kind of the first *Error in err's chain
func KindOf(err error) Kind {
	var serviceErr *Error
	if errors.As(err, &serviceErr) {
		return serviceErr.Kind
	}
	return KindUnknown
}
