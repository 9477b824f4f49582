package utils

import (
	"context"
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
)

// Logger is the logging surface used by the HTTP layer
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
	With(args ...any) Logger
	Slog() *slog.Logger
}

type slogLogger struct {
	logger *slog.Logger
}

// NewSlogLogger adapts a *slog.Logger
func NewSlogLogger(logger *slog.Logger) Logger {
	return &slogLogger{logger: logger}
}

func (l *slogLogger) Debug(msg string, args ...any) { l.logger.Debug(msg, args...) }
func (l *slogLogger) Info(msg string, args ...any)  { l.logger.Info(msg, args...) }
func (l *slogLogger) Warn(msg string, args ...any)  { l.logger.Warn(msg, args...) }
func (l *slogLogger) Error(msg string, args ...any) { l.logger.Error(msg, args...) }

func (l *slogLogger) With(args ...any) Logger {
	return &slogLogger{logger: l.logger.With(args...)}
}

func (l *slogLogger) Slog() *slog.Logger {
	return l.logger
}

type loggerKey struct{}

const ginLoggerKey = "logger"

// WithLogger stores a logger in ctx
func WithLogger(ctx context.Context, logger Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// FromContext returns the request logger, or fallback when none is set
func FromContext(ctx context.Context, fallback Logger) Logger {
	if logger, ok := ctx.Value(loggerKey{}).(Logger); ok {
		return logger
	}
	return fallback
}

// GetLogger returns the request-scoped logger of a gin context
func GetLogger(c *gin.Context, fallback Logger) Logger {
	if v, ok := c.Get(ginLoggerKey); ok {
		if logger, ok := v.(Logger); ok {
			return logger
		}
	}
	return fallback
}

// ContextLogger attaches a logger carrying the request id to the request
func ContextLogger(logger Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		requestLogger := logger.With("request_id", c.GetString("request_id"))
		c.Set(ginLoggerKey, requestLogger)
		c.Request = c.Request.WithContext(WithLogger(c.Request.Context(), requestLogger))
		c.Next()
	}
}

// LoggerMiddleware logs one line per request once it is handled
func LoggerMiddleware(logger Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		c.Next()

		status := c.Writer.Status()
		args := []any{
			"method", c.Request.Method,
			"path", path,
			"status", status,
			"latency_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		}
		if userID := c.GetString("user_id"); userID != "" {
			args = append(args, "user_id", userID)
		}
		if len(c.Errors) > 0 {
			args = append(args, "errors", c.Errors.String())
		}

		requestLogger := GetLogger(c, logger)
		switch {
		case status >= 500:
			requestLogger.Error("Request failed", args...)
		case status >= 400:
			requestLogger.Warn("Request rejected", args...)
		default:
			requestLogger.Info("Request handled", args...)
		}
	}
}
