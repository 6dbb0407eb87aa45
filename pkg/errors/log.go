package errors

import (
	"go.uber.org/zap"

	"github.com/go-drift/behaviors/pkg/logging"
)

// LogHandler is an ErrorHandler that writes errors to the package logger.
type LogHandler struct {
	// Verbose enables detailed output including stack traces.
	Verbose bool
}

// HandleError logs a BehaviorError.
func (h *LogHandler) HandleError(err *BehaviorError) {
	if err == nil {
		return
	}
	fields := []zap.Field{
		zap.String("op", err.Op),
		zap.Stringer("kind", err.Kind),
		zap.Error(err.Err),
	}
	if err.Host != "" {
		fields = append(fields, zap.String("host", err.Host))
	}
	if err.Member != "" {
		fields = append(fields, zap.String("member", err.Member))
	}
	if h.Verbose && err.StackTrace != "" {
		fields = append(fields, zap.String("stack", err.StackTrace))
	}
	logging.Logger().Error("behavior error", fields...)
}

// HandlePanic logs a PanicError.
func (h *LogHandler) HandlePanic(err *PanicError) {
	if err == nil {
		return
	}
	fields := []zap.Field{
		zap.String("op", err.Op),
		zap.Any("value", err.Value),
	}
	if h.Verbose && err.StackTrace != "" {
		fields = append(fields, zap.String("stack", err.StackTrace))
	}
	logging.Logger().Error("behavior panic", fields...)
}
