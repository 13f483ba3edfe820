package watch

import (
	"fmt"
	"strings"

	"github.com/famomatic/nicov1/internal/types"
)

// UnavailableError is returned when the watch page refuses to serve a video.
// ReasonCode carries the upstream code ("NOT_FOUND", "FORBIDDEN",
// "NEED_LOGIN", "PPV_VIDEO", "DOMESTIC_VIDEO", ...).
type UnavailableError struct {
	VideoID    string
	StatusCode int
	ReasonCode string
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("watch unavailable video=%s status=%d reason=%s", e.VideoID, e.StatusCode, e.ReasonCode)
}

// Unwrap surfaces the refusal class as a shared sentinel, so callers can
// errors.Is without inspecting reason codes.
func (e *UnavailableError) Unwrap() error {
	switch {
	case e.RequiresLogin():
		return types.ErrLoginRequired
	case e.RequiresPayment():
		return types.ErrPaymentRequired
	default:
		return types.ErrVideoUnavailable
	}
}

func (e *UnavailableError) IsNotFound() bool {
	return e.StatusCode == 404 || strings.Contains(strings.ToUpper(e.ReasonCode), "NOT_FOUND")
}

func (e *UnavailableError) RequiresLogin() bool {
	s := strings.ToUpper(e.ReasonCode)
	return strings.Contains(s, "LOGIN") || strings.Contains(s, "AUTHENTICATION")
}

func (e *UnavailableError) RequiresPayment() bool {
	s := strings.ToUpper(e.ReasonCode)
	return strings.Contains(s, "PPV") || strings.Contains(s, "PAYMENT") || strings.Contains(s, "PREMIUM_ONLY") || strings.Contains(s, "ADMISSION")
}
