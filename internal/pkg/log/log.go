package log

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync/atomic"

	"github.com/davecgh/go-spew/spew"
	"github.com/fatih/color"
)

type contextKey string

const contextKeyRequestID contextKey = "request_id"

var (
	debugEnabled atomic.Bool
	output       io.Writer = os.Stdout
)

// SetDebug toggles Debug and DebugStruct output.
func SetDebug(enabled bool) {
	debugEnabled.Store(enabled)
}

// SetOutput redirects all log lines. Not safe to call while logging.
func SetOutput(w io.Writer) {
	output = w
}

// WithRequestID adds request ID to context for logging
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, contextKeyRequestID, requestID)
}

// RequestID retrieves request ID from context
func RequestID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if id, ok := ctx.Value(contextKeyRequestID).(string); ok {
		return id
	}
	return ""
}

// formatLog formats log message with optional request ID
func formatLog(requestID string, format string, a ...interface{}) string {
	msg := fmt.Sprintf(format, a...)
	if requestID != "" {
		return fmt.Sprintf("[req_id=%s] %s", requestID, msg)
	}
	return msg
}

func write(label func(a ...interface{}) string, tag string, msg string) {
	fmt.Fprintf(output, "%s %s\n", label(tag), msg)
}

var (
	infoLabel  = color.New(color.FgWhite, color.BgGreen).SprintFunc()
	warnLabel  = color.New(color.FgWhite, color.BgYellow).SprintFunc()
	errorLabel = color.New(color.FgRed).SprintFunc()
	debugLabel = color.New(color.FgCyan).SprintFunc()
)

// Info log information
func Info(format string, a ...interface{}) {
	write(infoLabel, "[INFO] ", formatLog("", format, a...))
}

// InfoWithContext logs information with context (includes request ID if available)
func InfoWithContext(ctx context.Context, format string, a ...interface{}) {
	write(infoLabel, "[INFO] ", formatLog(RequestID(ctx), format, a...))
}

// Warn log warning
func Warn(format string, a ...interface{}) {
	write(warnLabel, "[WARN] ", formatLog("", format, a...))
}

// WarnWithContext logs warning with context (includes request ID if available)
func WarnWithContext(ctx context.Context, format string, a ...interface{}) {
	write(warnLabel, "[WARN] ", formatLog(RequestID(ctx), format, a...))
}

// Error log error
func Error(format string, a ...interface{}) {
	write(errorLabel, "[Error]", formatLog("", format, a...))
}

// ErrorWithContext logs error with context (includes request ID if available)
func ErrorWithContext(ctx context.Context, format string, a ...interface{}) {
	write(errorLabel, "[Error]", formatLog(RequestID(ctx), format, a...))
}

// Debug logs only when debug output is enabled
func Debug(format string, a ...interface{}) {
	if !debugEnabled.Load() {
		return
	}
	write(debugLabel, "[DEBUG]", formatLog("", format, a...))
}

// DebugStruct dumps values with spew when debug output is enabled
func DebugStruct(a ...interface{}) {
	if !debugEnabled.Load() {
		return
	}
	write(debugLabel, "[DEBUG]", spew.Sdump(a...))
}
