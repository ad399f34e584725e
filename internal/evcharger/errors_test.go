package evcharger

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestDeviceError_Error(t *testing.T) {
	err := NewHTTPError(500, "request failed with status 500")
	if !strings.Contains(err.Error(), "HTTP Error") {
		t.Errorf("Error() = %q, should contain the error type name", err.Error())
	}

	wrapped := NewConnectionError("could not connect", errors.New("dial tcp: refused"))
	if !strings.Contains(wrapped.Error(), "caused by") {
		t.Errorf("Error() = %q, should include the underlying cause", wrapped.Error())
	}
}

func TestDeviceError_Unwrap(t *testing.T) {
	cause := errors.New("underlying")
	err := NewConnectionError("request failed", cause)

	if !errors.Is(err, cause) {
		t.Error("errors.Is should find the wrapped cause")
	}
}

func TestErrorPredicates(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		predicate func(error) bool
		want      bool
	}{
		{"auth error matches", NewAuthError("rejected"), IsAuthError, true},
		{"auth error is not connection", NewAuthError("rejected"), IsConnectionError, false},
		{"connection error matches", NewConnectionError("timeout", nil), IsConnectionError, true},
		{"channel error matches", NewChannelError("missing"), IsChannelError, true},
		{"http error matches", NewHTTPError(500, "boom"), IsHTTPError, true},
		{"parse error matches", NewParseError("bad json", nil), IsParseError, true},
		{"plain error matches nothing", errors.New("plain"), IsAuthError, false},
		{"wrapped device error still matches", fmt.Errorf("context: %w", NewAuthError("rejected")), IsAuthError, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.predicate(tt.err); got != tt.want {
				t.Errorf("predicate = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestErrorType_String(t *testing.T) {
	tests := []struct {
		errType ErrorType
		want    string
	}{
		{ErrTypeConnection, "Connection Error"},
		{ErrTypeAuth, "Authentication Error"},
		{ErrTypeChannel, "Channel Error"},
		{ErrTypeHTTP, "HTTP Error"},
		{ErrTypeParse, "Parse Error"},
		{ErrorType(99), "ErrorType(99)"},
	}

	for _, tt := range tests {
		if got := tt.errType.String(); got != tt.want {
			t.Errorf("ErrorType(%d).String() = %q, want %q", tt.errType, got, tt.want)
		}
	}
}
