package middleware

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/otel/trace"
)

func RequestLogger(log *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		reqLog := log
		if sc := trace.SpanContextFromContext(c.Request.Context()); sc.HasTraceID() {
			reqLog = log.With("trace_id", sc.TraceID().String())
		}
		c.Set(loggerKey, reqLog)

		c.Next()

		attrs := []any{
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
		}
		if id, ok := IdentityFrom(c); ok {
			attrs = append(attrs, "user_id", id.UserID)
		}
		if c.Writer.Status() >= 500 {
			reqLog.Error("request", attrs...)
			return
		}
		reqLog.Info("request", attrs...)
	}
}
