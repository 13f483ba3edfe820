package client

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/famomatic/nicov1/internal/comments"
	"github.com/famomatic/nicov1/internal/nvapi"
	"github.com/famomatic/nicov1/internal/session"
	"github.com/famomatic/nicov1/internal/types"
	"github.com/famomatic/nicov1/internal/watch"
)

var (
	// ErrInvalidInput indicates malformed input (not a video ID/url).
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnavailable indicates the video is deleted, hidden or otherwise not viewable.
	ErrUnavailable = errors.New("video unavailable")
	// ErrNotFound indicates the requested resource does not exist.
	ErrNotFound = errors.New("not found")
	// ErrLoginRequired indicates an authenticated session is required.
	ErrLoginRequired = errors.New("login required")
	// ErrPaymentRequired indicates the video needs a purchase or premium plan.
	ErrPaymentRequired = errors.New("payment required")
	// ErrAuthFailed indicates the account credentials were rejected.
	ErrAuthFailed = errors.New("authentication failed")
	// ErrMFARequired indicates login needs a one-time password.
	ErrMFARequired = errors.New("one-time password required")
	// ErrSessionExpired indicates the stored session is no longer valid.
	ErrSessionExpired = errors.New("session expired")
	// ErrRateLimited indicates the service asked us to back off. Requests
	// hitting this are never retried automatically.
	ErrRateLimited = errors.New("rate limited")
	// ErrUpstream indicates a server-side failure at the service.
	ErrUpstream = errors.New("upstream error")
	// ErrNoStreamAvailable indicates no stream matched the quality preference.
	ErrNoStreamAvailable = errors.New("no stream available")
	// ErrExternalToolMissing indicates a required external binary was not found.
	ErrExternalToolMissing = errors.New("external tool missing")
	// ErrIO indicates a local filesystem failure.
	ErrIO = errors.New("io failure")
	// ErrIteratorDone is returned by CommentIterator.Next after the last comment.
	ErrIteratorDone = errors.New("iterator done")
)

// VideoUnavailableError carries the watch page's refusal details. It
// unwraps to ErrUnavailable, ErrNotFound, ErrLoginRequired or
// ErrPaymentRequired depending on the reason.
type VideoUnavailableError struct {
	VideoID    string
	ReasonCode string
	StatusCode int

	sentinel error
}

func (e *VideoUnavailableError) Error() string {
	if e.ReasonCode != "" {
		return fmt.Sprintf("video %s unavailable: %s", e.VideoID, e.ReasonCode)
	}
	return fmt.Sprintf("video %s unavailable: status=%d", e.VideoID, e.StatusCode)
}

func (e *VideoUnavailableError) Unwrap() error { return e.sentinel }

// APIStatusError reports a non-success answer from the metadata API. It
// unwraps to the sentinel matching its status class.
type APIStatusError struct {
	Endpoint   string
	StatusCode int
	Code       string

	sentinel error
}

func (e *APIStatusError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("api error: %s (status=%d endpoint=%s)", e.Code, e.StatusCode, e.Endpoint)
	}
	return fmt.Sprintf("api error: status=%d endpoint=%s", e.StatusCode, e.Endpoint)
}

func (e *APIStatusError) Unwrap() error { return e.sentinel }

// ExternalToolError reports a missing external dependency such as ffmpeg.
type ExternalToolError struct {
	Tool string
	Path string
}

func (e *ExternalToolError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s not found at %s", e.Tool, e.Path)
	}
	return fmt.Sprintf("%s not found in PATH", e.Tool)
}

func (e *ExternalToolError) Unwrap() error { return ErrExternalToolMissing }

// IOError reports a local read/write failure during download or export.
type IOError struct {
	Op   string
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *IOError) Unwrap() []error { return []error{ErrIO, e.Err} }

func wrapIOError(op, path string, err error) error {
	if err == nil {
		return nil
	}
	return &IOError{Op: op, Path: path, Err: err}
}

// mapError translates internal errors into the package's public error
// taxonomy. Errors it does not recognize pass through unchanged.
func mapError(err error) error {
	if err == nil {
		return nil
	}

	var unavailableErr *watch.UnavailableError
	if errors.As(err, &unavailableErr) {
		mapped := &VideoUnavailableError{
			VideoID:    unavailableErr.VideoID,
			ReasonCode: unavailableErr.ReasonCode,
			StatusCode: unavailableErr.StatusCode,
			sentinel:   ErrUnavailable,
		}
		switch {
		case unavailableErr.RequiresLogin():
			mapped.sentinel = ErrLoginRequired
		case unavailableErr.RequiresPayment():
			mapped.sentinel = ErrPaymentRequired
		case unavailableErr.IsNotFound():
			mapped.sentinel = ErrNotFound
		}
		return mapped
	}

	var apiErr *nvapi.APIError
	if errors.As(err, &apiErr) {
		return &APIStatusError{
			Endpoint:   apiErr.Endpoint,
			StatusCode: apiErr.Status,
			Code:       apiErr.Code,
			sentinel:   sentinelForStatus(apiErr.Status),
		}
	}
	var statusErr *nvapi.StatusError
	if errors.As(err, &statusErr) {
		return &APIStatusError{
			Endpoint:   statusErr.Endpoint,
			StatusCode: statusErr.StatusCode,
			sentinel:   sentinelForStatus(statusErr.StatusCode),
		}
	}

	switch {
	case errors.Is(err, session.ErrAuthFailed):
		return ErrAuthFailed
	case errors.Is(err, session.ErrMFARequired):
		return ErrMFARequired
	case errors.Is(err, session.ErrSessionExpired):
		return ErrSessionExpired
	case errors.Is(err, comments.ErrDone):
		return ErrIteratorDone
	case errors.Is(err, types.ErrVideoUnavailable):
		return ErrUnavailable
	case errors.Is(err, types.ErrLoginRequired):
		return ErrLoginRequired
	case errors.Is(err, types.ErrPaymentRequired):
		return ErrPaymentRequired
	}

	return err
}

func sentinelForStatus(status int) error {
	switch {
	case status == http.StatusTooManyRequests:
		return ErrRateLimited
	case status == http.StatusNotFound:
		return ErrNotFound
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return ErrLoginRequired
	case status >= 500:
		return ErrUpstream
	default:
		return nil
	}
}
