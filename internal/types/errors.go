package types

import "errors"

var (
	// ErrVideoUnavailable indicates that the video is unavailable (deleted, private, hidden).
	ErrVideoUnavailable = errors.New("video unavailable")

	// ErrLoginRequired indicates that the video requires an authenticated session to view.
	ErrLoginRequired = errors.New("login required")

	// ErrPaymentRequired indicates that the video is paid content (ppv or channel membership).
	ErrPaymentRequired = errors.New("payment required")
)
