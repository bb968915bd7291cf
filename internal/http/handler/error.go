package handler

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"bms/internal/http/middleware"
	"bms/internal/service"
)

// errorPayload defines the standardized error response body.
type errorPayload struct {
	RequestID string        `json:"request_id"`
	Error     errorEnvelope `json:"error"`
}

type errorEnvelope struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

// requestIDFromCtx extracts request_id previously stored by middleware.RequestID.
func requestIDFromCtx(c *fiber.Ctx) string {
	if v := c.Locals(middleware.RequestIDLocalKey); v != nil {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

func debugErrors(c *fiber.Ctx) bool {
	on, _ := c.Locals(middleware.DebugErrorsLocalKey).(bool)
	return on
}

// writeError writes a standardized JSON error response without leaking internal errors.
//
// Parameters:
// - status: HTTP status code to return
// - code: machine-readable short error code (e.g., "VALIDATION_ERROR", "NOT_FOUND", "INTERNAL_ERROR")
// - message: human-readable safe message (no internal details)
func writeError(c *fiber.Ctx, status int, code, message string) error {
	return c.Status(status).JSON(errorPayload{
		RequestID: requestIDFromCtx(c),
		Error: errorEnvelope{
			Code:    code,
			Message: message,
		},
	})
}

// writeServiceError maps a service error onto the envelope. Unclassified errors become a 500
// with the generic fallback message; their text is attached only when debug errors are on.
func writeServiceError(c *fiber.Ctx, err error, fallback string) error {
	var verr *service.ValidationError
	switch {
	case errors.Is(err, service.ErrNoActiveLease):
		return writeError(c, fiber.StatusBadRequest, "NO_ACTIVE_LEASE", err.Error())
	case errors.Is(err, service.ErrInvalidRole):
		return writeError(c, fiber.StatusBadRequest, "INVALID_ROLE", err.Error())
	case errors.As(err, &verr):
		return writeError(c, fiber.StatusBadRequest, "VALIDATION_ERROR", verr.Message)
	case errors.Is(err, service.ErrUnauthorized):
		return writeError(c, fiber.StatusUnauthorized, "UNAUTHORIZED", "unauthorized")
	case errors.Is(err, service.ErrNotFound):
		return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "document not found")
	case errors.Is(err, service.ErrInvalidTransition):
		return writeError(c, fiber.StatusConflict, "INVALID_TRANSITION", err.Error())
	}

	res := errorPayload{
		RequestID: requestIDFromCtx(c),
		Error: errorEnvelope{
			Code:    "INTERNAL_ERROR",
			Message: fallback,
		},
	}
	if debugErrors(c) {
		res.Error.Details = err.Error()
	}
	return c.Status(fiber.StatusInternalServerError).JSON(res)
}

// ErrorHandler returns a Fiber global error handler that standardizes error responses.
func ErrorHandler() fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status := fiber.StatusInternalServerError
		var fe *fiber.Error
		if errors.As(err, &fe) {
			status = fe.Code
		}

		switch status {
		case fiber.StatusBadRequest:
			return writeError(c, status, "BAD_REQUEST", "bad request")
		case fiber.StatusUnauthorized:
			msg := "unauthorized"
			if fe != nil && fe.Message != "" {
				msg = fe.Message
			}
			return writeError(c, status, "UNAUTHORIZED", msg)
		case fiber.StatusNotFound:
			return writeError(c, status, "NOT_FOUND", "resource not found")
		case fiber.StatusMethodNotAllowed:
			return writeError(c, status, "METHOD_NOT_ALLOWED", "method not allowed")
		case fiber.StatusLengthRequired:
			return writeError(c, status, "LENGTH_REQUIRED", "content length required")
		case fiber.StatusRequestEntityTooLarge:
			// An upload over the body limit is an oversize file as far as the client is concerned.
			if c.Path() == UploadPath {
				return writeError(c, fiber.StatusBadRequest, "VALIDATION_ERROR", service.ErrFileTooLarge.Message)
			}
			return writeError(c, status, "PAYLOAD_TOO_LARGE", "request body too large")
		default:
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		}
	}
}
