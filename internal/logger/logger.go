package logger

import (
	"context"

	"github.com/flexprice/usagebilling/internal/config"
	"github.com/flexprice/usagebilling/internal/types"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps zap.SugaredLogger to provide logging functionality
type Logger struct {
	*zap.SugaredLogger
}

// Global logger for convenience
var L *Logger

// NewLogger creates and returns a new Logger instance using the configured level
func NewLogger(cfg *config.Configuration) (*Logger, error) {
	zapConfig := zap.NewProductionConfig()
	zapConfig.EncoderConfig.TimeKey = "timestamp"
	zapConfig.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	zapConfig.Level = zap.NewAtomicLevelAt(parseLevel(cfg))

	zapLogger, err := zapConfig.Build()
	if err != nil {
		return nil, err
	}

	return &Logger{
		SugaredLogger: zapLogger.Sugar(),
	}, nil
}

// NewNopLogger returns a logger discarding every entry, useful in tests
func NewNopLogger() *Logger {
	return &Logger{SugaredLogger: zap.NewNop().Sugar()}
}

// Initialize default logger and set it as global while also using Dependency Injection
// Given logger is a heavily used object it is exposed as a global for scripts
// but everywhere else it should be injected.
func init() {
	L, _ = NewLogger(config.GetDefaultConfig())
	if L == nil {
		L = NewNopLogger()
	}
}

func parseLevel(cfg *config.Configuration) zapcore.Level {
	if cfg == nil {
		return zapcore.InfoLevel
	}
	switch cfg.Logging.Level {
	case types.LogLevelDebug:
		return zapcore.DebugLevel
	case types.LogLevelWarn:
		return zapcore.WarnLevel
	case types.LogLevelError:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// WithContext returns a child logger annotated with the request scoped identifiers
func (l *Logger) WithContext(ctx context.Context) *Logger {
	if ctx == nil {
		return l
	}

	fields := make([]interface{}, 0, 6)
	if tenantID := types.GetTenantID(ctx); tenantID != "" {
		fields = append(fields, "tenant_id", tenantID)
	}
	if requestID := types.GetRequestID(ctx); requestID != "" {
		fields = append(fields, "request_id", requestID)
	}
	if runID := types.GetBillingRunID(ctx); runID != "" {
		fields = append(fields, "billing_run_id", runID)
	}
	if len(fields) == 0 {
		return l
	}

	return &Logger{SugaredLogger: l.SugaredLogger.With(fields...)}
}
