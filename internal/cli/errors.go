package cli

import (
	"context"
	"errors"

	"github.com/famomatic/nicov1/client"
)

// errorKind names the taxonomy bucket printed on the error: line.
// Unclassified errors out of the client are upstream interaction
// failures by definition.
func errorKind(err error) string {
	switch {
	case errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded):
		return "interrupted"
	case errors.Is(err, client.ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, client.ErrExternalToolMissing):
		return "tool_missing"
	case errors.Is(err, client.ErrNoStreamAvailable):
		return "no_stream"
	case errors.Is(err, client.ErrSessionExpired):
		return "session_expired"
	case errors.Is(err, client.ErrMFARequired), errors.Is(err, client.ErrAuthFailed):
		return "auth_failed"
	case errors.Is(err, client.ErrLoginRequired):
		return "login_required"
	case errors.Is(err, client.ErrPaymentRequired):
		return "payment_required"
	case errors.Is(err, client.ErrRateLimited):
		return "rate_limited"
	case errors.Is(err, client.ErrNotFound):
		return "not_found"
	case errors.Is(err, client.ErrUnavailable):
		return "unavailable"
	case errors.Is(err, client.ErrIO):
		return "io"
	default:
		return "upstream"
	}
}
