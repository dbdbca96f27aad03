package observability

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/upb/campus-eats/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds a JSON or console logger from the observability config
func NewLogger(cfg config.ObservabilityConfig, environment string) (*zap.Logger, error) {
	var zcfg zap.Config
	if strings.EqualFold(cfg.LogFormat, "console") || strings.EqualFold(cfg.LogFormat, "text") {
		zcfg = zap.NewDevelopmentConfig()
		zcfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zcfg.DisableStacktrace = true
	} else {
		zcfg = zap.NewProductionConfig()
		zcfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}
	zcfg.Level = zap.NewAtomicLevelAt(ParseLevel(cfg.LogLevel))
	zcfg.EncoderConfig.EncodeCaller = zapcore.ShortCallerEncoder

	logger, err := zcfg.Build()
	if err != nil {
		return nil, err
	}
	return logger.With(zap.String("service", "campus-eats"), zap.String("env", environment)), nil
}

// ParseLevel maps a level name to a zap level, defaulting to info
func ParseLevel(level string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// WithRequestID returns logger tagged with the chi request id found in ctx
func WithRequestID(ctx context.Context, logger *zap.Logger) *zap.Logger {
	if id := middleware.GetReqID(ctx); id != "" {
		return logger.With(zap.String("request_id", id))
	}
	return logger
}

// Redact keeps only a short prefix of a secret value for log correlation
func Redact(secret string) string {
	if len(secret) <= 6 {
		return "***"
	}
	return secret[:6] + "***"
}

// AccessLog writes one structured line per request
func AccessLog(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			WithRequestID(r.Context(), logger).Info("request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.Int("status", status),
				zap.Int("bytes", ww.BytesWritten()),
				zap.Duration("duration", time.Since(start)),
				zap.String("remote", r.RemoteAddr))
		})
	}
}
