package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"printdesk/internal/auth"
	"printdesk/internal/http/middleware"
	"printdesk/internal/logger"
)

// errorPayload defines the standardized error response body.
type errorPayload struct {
	RequestID string        `json:"request_id"`
	Error     errorEnvelope `json:"error"`
}

type errorEnvelope struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// printErrorPayload is errorPayload with the success flag the print page reads.
type printErrorPayload struct {
	Success bool `json:"success"`
	errorPayload
}

// writeError writes a standardized JSON error response without leaking internal errors.
//
// Parameters:
// - status: HTTP status code to return
// - code: machine-readable short error code (e.g., "INVALID_ID", "NOT_FOUND", "INTERNAL_ERROR")
// - message: human-readable safe message (no internal details)
func writeError(c *fiber.Ctx, status int, code, message string) error {
	res := errorPayload{
		RequestID: middleware.RequestIDFromCtx(c),
		Error: errorEnvelope{
			Code:    code,
			Message: message,
		},
	}
	return c.Status(status).JSON(res)
}

// writePrintError is writeError for the print API.
func writePrintError(c *fiber.Ctx, status int, code, message string) error {
	res := printErrorPayload{
		Success: false,
		errorPayload: errorPayload{
			RequestID: middleware.RequestIDFromCtx(c),
			Error: errorEnvelope{
				Code:    code,
				Message: message,
			},
		},
	}
	return c.Status(status).JSON(res)
}

// writeInternal logs err with the request-scoped logger and answers 500.
func writeInternal(c *fiber.Ctx, err error, write func(*fiber.Ctx, int, string, string) error) error {
	logger.FromContext(c.UserContext()).Error("request failed",
		zap.String("path", c.Path()),
		zap.Error(err),
	)
	return write(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
}

// Unauthorized answers a rejected bearer token on the document API.
func Unauthorized(c *fiber.Ctx, err error) error {
	return writeError(c, fiber.StatusUnauthorized, "UNAUTHORIZED", unauthorizedMessage(err))
}

// PrintUnauthorized answers a rejected bearer token on the print API.
func PrintUnauthorized(c *fiber.Ctx, err error) error {
	return writePrintError(c, fiber.StatusUnauthorized, "UNAUTHORIZED", unauthorizedMessage(err))
}

func unauthorizedMessage(err error) string {
	switch {
	case errors.Is(err, middleware.ErrMissingBearer):
		return "missing bearer token"
	case errors.Is(err, auth.ErrExpiredToken):
		return "token has expired"
	default:
		return "invalid token"
	}
}

// ErrorHandler returns a Fiber global error handler that standardizes error responses.
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		var e *fiber.Error
		if errors.As(err, &e) {
			status = e.Code
		}

		switch status {
		case fiber.StatusBadRequest:
			return writeError(c, status, "BAD_REQUEST", "bad request")
		case fiber.StatusNotFound:
			return writeError(c, status, "NOT_FOUND", "resource not found")
		case fiber.StatusMethodNotAllowed:
			return writeError(c, status, "METHOD_NOT_ALLOWED", "method not allowed")
		case fiber.StatusRequestEntityTooLarge:
			return writeError(c, status, "PAYLOAD_TOO_LARGE", "request body too large")
		default:
			return writeInternal(c, err, writeError)
		}
	}
}
