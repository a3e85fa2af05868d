// Package iagon provides an HTTP client for the Iagon storage gateway API
// with typed error classification. Every operation is a single request —
// the client never retries; authentication refresh is the session's job.
package iagon

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors for HTTP status code classification.
// Use errors.Is(err, iagon.ErrNotFound) to check.
var (
	ErrValidation      = errors.New("iagon: bad request")
	ErrUnauthorized    = errors.New("iagon: unauthorized")
	ErrNotFound        = errors.New("iagon: not found")
	ErrDirectoryExists = errors.New("iagon: directory already exists")
	ErrQuotaExceeded   = errors.New("iagon: storage quota exceeded")
	ErrServerError     = errors.New("iagon: server error")
)

// APIError wraps a sentinel error with the HTTP status code, the operation
// that failed, and the gateway's error message body for debugging.
type APIError struct {
	Op         string // operation name, e.g. "upload"
	StatusCode int
	Message    string
	Err        error // sentinel, for errors.Is()
}

func (e *APIError) Error() string {
	return fmt.Sprintf("iagon: %s: HTTP %d: %s", e.Op, e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error {
	return e.Err
}

// TransportError wraps a network-level failure (connection refused, DNS,
// timeout, canceled context). The remote service was never reached or never
// answered, so the request may or may not have had any effect.
type TransportError struct {
	Op  string
	URL string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("iagon: %s: transport failure for %s: %v", e.Op, e.URL, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// classifyStatus maps an HTTP status code to a sentinel error.
// Returns nil for 2xx success codes.
func classifyStatus(code int) error {
	switch code {
	case http.StatusBadRequest:
		return ErrValidation
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusNotFound:
		return ErrNotFound
	case http.StatusConflict:
		return ErrDirectoryExists
	case http.StatusPaymentRequired,
		http.StatusRequestEntityTooLarge,
		http.StatusInsufficientStorage:
		return ErrQuotaExceeded
	default:
		if code >= http.StatusInternalServerError {
			return ErrServerError
		}

		return nil
	}
}
