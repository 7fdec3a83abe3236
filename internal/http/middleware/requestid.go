package middleware

import (
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"printdesk/internal/logger"
)

const (
	// RequestIDHeader is the standard header name used to propagate request IDs.
	RequestIDHeader = "X-Request-ID"
	// RequestIDLocalKey is the key used to store the request ID in Fiber's context locals.
	RequestIDLocalKey = "request_id"
)

// RequestID ensures every request has a request ID.
//
// Behavior:
// - Reads X-Request-ID from the incoming request header, generating a UUID if missing.
// - Stores the value in Fiber context locals under RequestIDLocalKey.
// - Echoes X-Request-ID on the response.
// - Attaches a logger carrying request_id (and trace_id when a span is active)
//   to the request's user context.
func RequestID(base *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := c.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}

		c.Locals(RequestIDLocalKey, id)
		c.Set(RequestIDHeader, id)
		ctx := c.UserContext()
		l := base.With(zap.String("request_id", id))
		if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
			l = l.With(zap.String("trace_id", sc.TraceID().String()))
		}
		c.SetUserContext(logger.WithContext(ctx, l))

		return c.Next()
	}
}

// RequestIDFromCtx returns the request ID stored by RequestID, or "".
func RequestIDFromCtx(c *fiber.Ctx) string {
	id, _ := c.Locals(RequestIDLocalKey).(string)
	return id
}
