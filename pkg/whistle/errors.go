package whistle

import (
	"errors"
	"fmt"
	"strings"
)

// ErrNotInitialized is returned when a resource method is called before Init
// has completed successfully.
var ErrNotInitialized = errors.New("whistle: client not initialized (call Init first)")

// ErrMissingAuthToken is returned when the login response decodes fine but
// carries no auth_token field.
var ErrMissingAuthToken = errors.New("whistle: login response missing auth_token")

// APIError is returned for any response with a non-2xx status. It keeps the
// raw body for diagnostics.
type APIError struct {
	StatusCode int
	Body       []byte
}

func (e *APIError) Error() string {
	return fmt.Sprintf("whistle: api status %d: %s", e.StatusCode, bodySnippet(e.Body))
}

// DecodeError is returned when a response body is not valid JSON.
type DecodeError struct {
	Resource string
	Err      error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("whistle: decode %s response: %v", e.Resource, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// bodySnippet truncates a response body for error messages.
func bodySnippet(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	if len(body) > 512 {
		body = body[:512]
	}
	return strings.TrimSpace(string(body))
}
