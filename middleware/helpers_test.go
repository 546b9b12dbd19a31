package middleware

import (
	"bytes"
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/junaidrashid-git/storefront-api/pkg/logging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

func init() {
	otel.SetTextMapPropagator(propagation.TraceContext{})
}

func spanTraceID(c *gin.Context) string {
	return trace.SpanContextFromContext(c.Request.Context()).TraceID().String()
}

type jsonLines struct {
	lines [][]byte
}

func (j *jsonLines) Write(p []byte) (int, error) {
	j.lines = append(j.lines, bytes.TrimSpace(append([]byte(nil), p...)))
	return len(p), nil
}

func (j *jsonLines) logger() *slog.Logger {
	return logging.NewWithWriter(j, "info")
}
