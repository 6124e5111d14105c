package tools

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"github.com/purl-logs/purl-explorer/internal/scope"
	"github.com/purl-logs/purl-explorer/pkg/client"
)

// Error codes for MCP tool responses.
const (
	ErrCodeNotFound     = "NOT_FOUND"
	ErrCodeBackendError = "BACKEND_ERROR"
	ErrCodeInvalidInput = "INVALID_INPUT"
	ErrCodeTimeout      = "TIMEOUT"
	ErrCodeSuperseded   = "SUPERSEDED"
)

// CodedError is an error with an associated error code.
type CodedError struct {
	Code    string
	Message string
	Cause   error
}

func (e *CodedError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *CodedError) Unwrap() error {
	return e.Cause
}

// WrapBackendError converts an engine or client error to a coded error.
// Cancellations map to SUPERSEDED and are logged at Debug only.
func WrapBackendError(err error) error {
	if err == nil {
		return nil
	}

	var coded *CodedError
	if errors.As(err, &coded) {
		return coded
	}

	var apiErr *client.APIError
	var netErr net.Error
	switch {
	case errors.Is(err, scope.ErrSuperseded):
		coded = &CodedError{Code: ErrCodeSuperseded, Message: "superseded by a newer request", Cause: err}
	case scope.IsCanceled(err):
		coded = &CodedError{Code: ErrCodeSuperseded, Message: "request canceled", Cause: err}
	case errors.As(err, &apiErr):
		code := ErrCodeBackendError
		if apiErr.StatusCode == http.StatusNotFound {
			code = ErrCodeNotFound
		}
		coded = &CodedError{Code: code, Message: apiErr.Message, Cause: err}
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr) && netErr.Timeout():
		coded = &CodedError{Code: ErrCodeTimeout, Message: "request timed out", Cause: err}
	default:
		coded = &CodedError{Code: ErrCodeBackendError, Message: err.Error(), Cause: err}
	}

	level := slog.LevelWarn
	if coded.Code == ErrCodeSuperseded {
		level = slog.LevelDebug
	}
	slog.Log(context.Background(), level, "purl tool error",
		slog.String("code", coded.Code),
		slog.String("message", coded.Message),
	)

	return coded
}

// ErrNotFound creates a not found error.
func ErrNotFound(resource, id string) error {
	return &CodedError{
		Code:    ErrCodeNotFound,
		Message: fmt.Sprintf("%s not found: %s", resource, id),
	}
}

// ErrInvalidInput creates an invalid input error.
func ErrInvalidInput(message string) error {
	return &CodedError{
		Code:    ErrCodeInvalidInput,
		Message: message,
	}
}
