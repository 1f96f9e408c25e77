// Package logger provides structured, component-tagged logging used
// throughout the runtime. It wraps the standard library's slog rather than
// a third-party structured logger, mirroring the teacher's own choice to
// hand-roll this same CF ("component + fields") API on top of nothing more
// than fmt/log in its call sites.
package logger

import (
	"log/slog"
	"os"
)

var base = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

// SetLevel adjusts the minimum emitted level at runtime (e.g. from config).
func SetLevel(level slog.Level) {
	base = slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func attrs(component string, fields map[string]any) []any {
	out := make([]any, 0, 2+2*len(fields))
	out = append(out, "component", component)
	for k, v := range fields {
		out = append(out, k, v)
	}
	return out
}

// DebugCF logs at debug level, tagged with component and structured fields.
func DebugCF(component, msg string, fields map[string]any) {
	base.Debug(msg, attrs(component, fields)...)
}

// InfoCF logs at info level, tagged with component and structured fields.
func InfoCF(component, msg string, fields map[string]any) {
	base.Info(msg, attrs(component, fields)...)
}

// WarnCF logs at warn level, tagged with component and structured fields.
func WarnCF(component, msg string, fields map[string]any) {
	base.Warn(msg, attrs(component, fields)...)
}

// ErrorCF logs at error level, tagged with component and structured fields.
// Pass the error under the "error" key by convention.
func ErrorCF(component, msg string, fields map[string]any) {
	base.Error(msg, attrs(component, fields)...)
}
