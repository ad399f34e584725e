package evcharger

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"syscall"
)

// ErrorType represents the category of error that occurred
type ErrorType int

const (
	// ErrTypeConnection indicates a connection-level failure (unreachable,
	// timed out, peer disconnected)
	ErrTypeConnection ErrorType = iota
	// ErrTypeAuth indicates the token endpoint rejected the credentials
	ErrTypeAuth
	// ErrTypeChannel indicates a requested channel or component is absent
	// from a response document
	ErrTypeChannel
	// ErrTypeHTTP indicates a non-2xx HTTP status
	ErrTypeHTTP
	// ErrTypeParse indicates a malformed response document
	ErrTypeParse
)

// String returns a human-readable name for the error type
func (et ErrorType) String() string {
	switch et {
	case ErrTypeConnection:
		return "Connection Error"
	case ErrTypeAuth:
		return "Authentication Error"
	case ErrTypeChannel:
		return "Channel Error"
	case ErrTypeHTTP:
		return "HTTP Error"
	case ErrTypeParse:
		return "Parse Error"
	default:
		return fmt.Sprintf("ErrorType(%d)", et)
	}
}

// DeviceError represents an error that occurred while talking to the charger
type DeviceError struct {
	Type       ErrorType // Category of error
	Message    string    // Human-readable error message
	StatusCode int       // HTTP status code (if applicable)
	Err        error     // Underlying error (if any)
}

// Error implements the error interface
func (e *DeviceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

// Unwrap returns the underlying error for error chain inspection
func (e *DeviceError) Unwrap() error {
	return e.Err
}

// NewConnectionError creates a connection-level error
func NewConnectionError(message string, err error) *DeviceError {
	return &DeviceError{
		Type:    ErrTypeConnection,
		Message: message,
		Err:     err,
	}
}

// NewAuthError creates an authentication error
func NewAuthError(message string) *DeviceError {
	return &DeviceError{
		Type:       ErrTypeAuth,
		Message:    message,
		StatusCode: http.StatusUnauthorized,
	}
}

// NewChannelError creates a missing-channel error
func NewChannelError(message string) *DeviceError {
	return &DeviceError{
		Type:    ErrTypeChannel,
		Message: message,
	}
}

// NewHTTPError creates an HTTP-level error
func NewHTTPError(statusCode int, message string) *DeviceError {
	return &DeviceError{
		Type:       ErrTypeHTTP,
		Message:    message,
		StatusCode: statusCode,
	}
}

// NewParseError creates a parsing error
func NewParseError(message string, err error) *DeviceError {
	return &DeviceError{
		Type:    ErrTypeParse,
		Message: message,
		Err:     err,
	}
}

// classifyConnectionError maps a transport failure to a ConnectionError whose
// message names the failure mode. url.Error wrappers unwrap transparently
// through errors.Is / os.IsTimeout.
func classifyConnectionError(baseURL string, err error) *DeviceError {
	switch {
	case os.IsTimeout(err):
		return NewConnectionError(fmt.Sprintf("request to %s timed out", baseURL), err)
	case errors.Is(err, syscall.ECONNREFUSED):
		return NewConnectionError(fmt.Sprintf("charger at %s refused connection", baseURL), err)
	case errors.Is(err, syscall.ECONNRESET), errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return NewConnectionError(fmt.Sprintf("server at %s disconnected", baseURL), err)
	default:
		return NewConnectionError(fmt.Sprintf("could not connect to charger at %s", baseURL), err)
	}
}

// IsConnectionError checks if an error is a connection error
func IsConnectionError(err error) bool {
	var devErr *DeviceError
	if errors.As(err, &devErr) {
		return devErr.Type == ErrTypeConnection
	}
	return false
}

// IsAuthError checks if an error is an authentication error
func IsAuthError(err error) bool {
	var devErr *DeviceError
	if errors.As(err, &devErr) {
		return devErr.Type == ErrTypeAuth
	}
	return false
}

// IsChannelError checks if an error is a missing-channel error
func IsChannelError(err error) bool {
	var devErr *DeviceError
	if errors.As(err, &devErr) {
		return devErr.Type == ErrTypeChannel
	}
	return false
}

// IsHTTPError checks if an error is an HTTP error
func IsHTTPError(err error) bool {
	var devErr *DeviceError
	if errors.As(err, &devErr) {
		return devErr.Type == ErrTypeHTTP
	}
	return false
}

// IsParseError checks if an error is a parse error
func IsParseError(err error) bool {
	var devErr *DeviceError
	if errors.As(err, &devErr) {
		return devErr.Type == ErrTypeParse
	}
	return false
}
