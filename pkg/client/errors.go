package client

import (
	"errors"
	"fmt"
)

// Kind classifies a request failure. Every error leaving Perform is
// one of these five kinds; callers are expected to map NetworkUnusable
// and Timeout to offline/slow-connection messaging and Unauthorized to
// a re-authentication prompt.
type Kind string

const (
	// KindUnauthorized means the stored credential is invalid or
	// expired. Never served from cache: stale data must not mask an
	// expired session.
	KindUnauthorized Kind = "unauthorized"

	// KindTimeout means the per-endpoint deadline elapsed.
	// Cache-fallback-eligible.
	KindTimeout Kind = "timeout"

	// KindNetworkUnusable means connectivity was unusable and no cached
	// response was available.
	KindNetworkUnusable Kind = "network_unusable"

	// KindServerError means a non-2xx response or a transport failure.
	// Cache-fallback-eligible.
	KindServerError Kind = "server_error"

	// KindDecodeError means a success response carried a malformed
	// payload. Treated like a server error for fallback purposes.
	KindDecodeError Kind = "decode_error"
)

// APIError is the typed failure returned by the client. The zero
// StatusCode means the failure happened before or instead of an HTTP
// response.
type APIError struct {
	Kind       Kind
	StatusCode int
	Message    string
	Err        error
}

// Error implements the error interface.
func (e *APIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("api %s error (status %d): %s: %v",
			e.Kind, e.StatusCode, e.Message, e.Err)
	}
	return fmt.Sprintf("api %s error (status %d): %s",
		e.Kind, e.StatusCode, e.Message)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *APIError) Unwrap() error {
	return e.Err
}

// ErrorKind extracts the failure kind from an error chain.
// Returns "" if err is not an APIError.
func ErrorKind(err error) Kind {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return ""
}

// IsKind reports whether err is an APIError of the given kind.
func IsKind(err error, kind Kind) bool {
	return ErrorKind(err) == kind
}

// fallbackEligible reports whether a failure of this kind may be served
// from cache before surfacing. Authorization failures are never masked
// by cache; availability failures always are an opportunity for it.
func fallbackEligible(kind Kind) bool {
	switch kind {
	case KindUnauthorized:
		return false
	case KindTimeout, KindServerError, KindDecodeError, KindNetworkUnusable:
		return true
	default:
		return false
	}
}
