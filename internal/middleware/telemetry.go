package middleware

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// TracingMiddleware traces HTTP requests with otelgin and decorates the
// server span with the viewer and feed parameters. Use with r.Use(TracingMiddleware(name)...).
func TracingMiddleware(serviceName string) []gin.HandlerFunc {
	return []gin.HandlerFunc{otelgin.Middleware(serviceName), spanAttributes}
}

func spanAttributes(c *gin.Context) {
	span := trace.SpanFromContext(c.Request.Context())
	if !span.IsRecording() {
		c.Next()
		return
	}

	if feedType := c.Query("type"); feedType != "" {
		span.SetAttributes(attribute.String("feed.type", feedType))
	}
	if limit := c.Query("limit"); limit != "" {
		span.SetAttributes(attribute.String("query.limit", limit))
	}

	c.Next()

	// user_id is only known once the auth middleware further down has run
	if userID := c.GetString("user_id"); userID != "" {
		span.SetAttributes(attribute.String("user.id", userID))
	}
	for _, ginErr := range c.Errors {
		if ginErr.Err != nil {
			span.RecordError(ginErr.Err)
			span.SetStatus(codes.Error, ginErr.Error())
		}
	}
}
