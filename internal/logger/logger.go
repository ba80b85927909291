package logger

import (
	"context"
	"strings"

	"github.com/go-chi/chi/v5/middleware"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a sugared zap logger. mode "prod" selects JSON output.
func New(mode, level string) (*zap.SugaredLogger, error) {
	var cfg zap.Config
	switch strings.ToLower(mode) {
	case "prod", "production":
		cfg = zap.NewProductionConfig()
	default:
		cfg = zap.NewDevelopmentConfig()
	}

	lvl := zapcore.InfoLevel
	if level != "" {
		if err := lvl.UnmarshalText([]byte(level)); err != nil {
			return nil, err
		}
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	zapLogger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return zapLogger.Sugar(), nil
}

// WithContext returns log enriched with the trace id and request id carried by ctx.
func WithContext(ctx context.Context, log *zap.SugaredLogger) *zap.SugaredLogger {
	var kv []interface{}
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		kv = append(kv, "trace_id", sc.TraceID().String())
	}
	if reqID := middleware.GetReqID(ctx); reqID != "" {
		kv = append(kv, "request_id", reqID)
	}
	if len(kv) == 0 {
		return log
	}
	return log.With(kv...)
}
