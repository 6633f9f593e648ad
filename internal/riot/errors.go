package riot

import (
	"errors"
	"fmt"
	"net/http"
)

// maxErrorBody caps how much of a failed response body is kept for diagnostics.
const maxErrorBody = 100

// APIError is returned for any non-success, non-throttled response.
type APIError struct {
	StatusCode int
	URL        string
	Body       string // truncated to maxErrorBody bytes
}

func (e *APIError) Error() string {
	switch e.StatusCode {
	case http.StatusForbidden:
		return fmt.Sprintf("API returned 403 Forbidden - check if your API key is valid: %s", e.Body)
	case http.StatusNotFound:
		return fmt.Sprintf("API returned 404 Not Found - player/match may not exist: %s", e.Body)
	}
	return fmt.Sprintf("API returned status %d: %s", e.StatusCode, e.Body)
}

// StatusCode extracts the HTTP status from an *APIError anywhere in err's chain.
// Returns 0 if err is not an API error.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// IsNotFound reports whether err is a 404 from the API.
func IsNotFound(err error) bool {
	return StatusCode(err) == http.StatusNotFound
}

// IsKeyError reports whether err means the API key was rejected (401/403).
func IsKeyError(err error) bool {
	code := StatusCode(err)
	return code == http.StatusUnauthorized || code == http.StatusForbidden
}
