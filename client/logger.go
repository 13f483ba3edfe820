package client

import "github.com/rs/zerolog"

// Logger is an optional package logger used for non-fatal warnings.
type Logger interface {
	// Warnf logs a formatted warning message.
	Warnf(format string, args ...any)
}

type nopLogger struct{}

func (nopLogger) Warnf(string, ...any) {}

// ZerologLogger adapts a zerolog.Logger to the Logger interface.
type ZerologLogger struct {
	L zerolog.Logger
}

func (z ZerologLogger) Warnf(format string, args ...any) {
	z.L.Warn().Msgf(format, args...)
}
