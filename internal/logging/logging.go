// Package logging configures structured logging for smartmail.
//
// All packages log through log/slog. This package owns handler setup and the
// attribute names shared across the codebase, and keeps credentials and raw
// email addresses out of log lines.
package logging

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"log/slog"
	"strings"
)

// Common log attribute keys.
const (
	KeyOperation = "operation"
	KeyMethod    = "method"
	KeyPath      = "path"
	KeyStatus    = "status"
	KeyDuration  = "duration"
	KeyJobID     = "job_id"
	KeyProfile   = "profile"
	KeyUserHash  = "user_hash"
	KeyError     = "error"
)

// ParseLevel maps a config string to a slog level. Unknown values map to warn.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "error":
		return slog.LevelError
	default:
		return slog.LevelWarn
	}
}

// New returns a logger writing to w with a text or JSON handler.
func New(level, format string, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: ParseLevel(level)}
	var h slog.Handler
	if strings.EqualFold(format, "json") {
		h = slog.NewJSONHandler(w, opts)
	} else {
		h = slog.NewTextHandler(w, opts)
	}
	return slog.New(h)
}

// Setup builds a logger and installs it as the slog default.
func Setup(level, format string, w io.Writer) *slog.Logger {
	logger := New(level, format, w)
	slog.SetDefault(logger)
	return logger
}

// WithOperation returns a logger with the operation attribute set.
func WithOperation(logger *slog.Logger, operation string) *slog.Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return logger.With(KeyOperation, operation)
}

// UserHash returns a short stable hash of an email address so log lines can
// be correlated without recording the address itself.
func UserHash(email string) slog.Attr {
	sum := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(email))))
	return slog.String(KeyUserHash, hex.EncodeToString(sum[:])[:12])
}

// Err returns an error attribute, or an empty attribute for nil.
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}

// Discard returns a logger that drops everything.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
