package nvapi

import (
	"errors"
	"fmt"
)

// StatusError indicates a non-2xx response without a decodable envelope.
type StatusError struct {
	Endpoint   string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("nvapi http status=%d endpoint=%s", e.StatusCode, e.Endpoint)
}

// APIError indicates an envelope-level failure reported by the API itself.
type APIError struct {
	Endpoint string
	Status   int    // meta.status
	Code     string // meta.errorCode, e.g. "NOT_FOUND", "EXPIRED_TOKEN"
}

func (e *APIError) Error() string {
	if e.Code == "" {
		return fmt.Sprintf("nvapi error status=%d endpoint=%s", e.Status, e.Endpoint)
	}
	return fmt.Sprintf("nvapi error status=%d code=%s endpoint=%s", e.Status, e.Code, e.Endpoint)
}

// IsCode reports whether err carries an *APIError with the given error code.
func IsCode(err error, code string) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Code == code
}
