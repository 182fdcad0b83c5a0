package http

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/sentinelhq/gatekeep/pkg/httpx"
)

// OAuth2-style error codes used in response bodies.
const (
	ErrorCodeInvalidRequest     = "invalid_request"
	ErrorCodeInvalidCredentials = "invalid_credentials"
	ErrorCodeInvalidGrant       = "invalid_grant"
	ErrorCodeServerError        = "server_error"
	ErrorCodeUnavailable        = "temporarily_unavailable"
)

// APIError is the uniform error response body: {error, error_description}.
// Descriptions are deliberately generic on authentication failures so that
// the response never reveals which check rejected the request.
type APIError struct {
	// StatusCode is the HTTP status code for this error
	StatusCode int `json:"-"`

	// Code is the machine-readable error code (e.g. "invalid_grant")
	Code string `json:"error"`

	// Description is a human-readable description of the error
	Description string `json:"error_description"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// WriteError writes this APIError to an HTTP response writer.
func (e *APIError) WriteError(w http.ResponseWriter) {
	httpx.NoCache(w)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(e.StatusCode)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":             e.Code,
		"error_description": e.Description,
	})
}

var (
	// ErrInvalidJSONBody is returned when the request body is not the
	// expected JSON document.
	ErrInvalidJSONBody = &APIError{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeInvalidRequest,
		Description: "request body must be valid JSON",
	}

	// ErrMissingCredentials is returned when username or password is absent.
	ErrMissingCredentials = &APIError{
		StatusCode:  http.StatusBadRequest,
		Code:        ErrorCodeInvalidRequest,
		Description: "username and password are required",
	}

	// ErrInvalidCredentials is returned for any failed login. Unknown
	// username and wrong password produce this identical response.
	ErrInvalidCredentials = &APIError{
		StatusCode:  http.StatusUnauthorized,
		Code:        ErrorCodeInvalidCredentials,
		Description: "invalid username or password",
	}

	// ErrInvalidGrant is returned for any failed refresh: missing, expired,
	// revoked, already-used, or otherwise unacceptable refresh token.
	ErrInvalidGrant = &APIError{
		StatusCode:  http.StatusUnauthorized,
		Code:        ErrorCodeInvalidGrant,
		Description: "refresh token is invalid",
	}

	// ErrServerError is returned when an unexpected condition prevented the
	// request from being fulfilled.
	ErrServerError = &APIError{
		StatusCode:  http.StatusInternalServerError,
		Code:        ErrorCodeServerError,
		Description: "internal server error",
	}

	// ErrUnavailable is returned when a backing store (user store or
	// refresh registry) cannot be reached.
	ErrUnavailable = &APIError{
		StatusCode:  http.StatusServiceUnavailable,
		Code:        ErrorCodeUnavailable,
		Description: "service temporarily unavailable",
	}
)
