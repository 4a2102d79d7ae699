// Package zerologger adapts a zerolog.Logger to the authkit.Logger
// interface.
package zerologger

import (
	"os"

	"github.com/rs/zerolog"

	authkit "github.com/jandrikus/go-authkit"
)

// Logger forwards engine log lines to zerolog.
type Logger struct {
	log zerolog.Logger
}

var _ authkit.Logger = (*Logger)(nil)

// New wraps an existing zerolog.Logger.
func New(log zerolog.Logger) *Logger {
	return &Logger{log: log}
}

// NewDefault builds a JSON logger on stdout tagged with a component field.
func NewDefault(component string) *Logger {
	log := zerolog.New(os.Stdout).With().
		Timestamp().
		Str("component", component).
		Logger()
	return &Logger{log: log}
}

// Debug implements authkit.Logger.
func (l *Logger) Debug(format string, args ...any) {
	l.log.Debug().Msgf(format, args...)
}

// Info implements authkit.Logger.
func (l *Logger) Info(format string, args ...any) {
	l.log.Info().Msgf(format, args...)
}

// Warn implements authkit.Logger.
func (l *Logger) Warn(format string, args ...any) {
	l.log.Warn().Msgf(format, args...)
}

// Error implements authkit.Logger.
func (l *Logger) Error(format string, args ...any) {
	l.log.Error().Msgf(format, args...)
}
