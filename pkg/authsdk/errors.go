package authsdk

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// APIError is a failure response from the service, carrying the HTTP status
// and the OAuth2-style error code from the body.
type APIError struct {
	StatusCode  int
	Code        string
	Description string
}

func (e *APIError) Error() string {
	if e.Description != "" {
		return fmt.Sprintf("%s: %s", e.Code, e.Description)
	}
	return fmt.Sprintf("gatekeep: http %d", e.StatusCode)
}

// errorFromResponse parses a non-2xx response into an APIError. Bodies that
// are not the expected JSON shape still produce a usable error from the
// status code alone.
func errorFromResponse(resp *http.Response) *APIError {
	apiErr := &APIError{StatusCode: resp.StatusCode}

	var body ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err == nil {
		apiErr.Code = body.Error
		apiErr.Description = body.ErrorDescription
	}
	return apiErr
}
