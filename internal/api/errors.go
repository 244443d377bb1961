package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/mwfilho/mcp-pdpj/internal/pdpj"
)

const (
	msgNotFound       = "Endpoint não encontrado"
	msgAuthFailed     = "Falha de autenticação no PDPJ"
	msgUpstreamFailed = "Erro ao consultar o PDPJ"
	msgInternal       = "Internal Server Error"
)

// classify maps an operation error to the HTTP status and body returned to the caller.
// The upstream status is reported in the body only; the response itself is a 500.
func classify(err error) (int, ErrorResponse) {
	var (
		vErr    *pdpj.ValidationError
		authErr *pdpj.AuthenticationError
		upErr   *pdpj.UpstreamError
		fErr    *fiber.Error
	)
	resp := ErrorResponse{Timestamp: timestamp()}

	switch {
	case errors.As(err, &vErr):
		resp.Error = vErr.Message
		return fiber.StatusBadRequest, resp
	case errors.As(err, &authErr):
		resp.Error = msgAuthFailed
		resp.Details = err.Error()
	case errors.As(err, &upErr):
		resp.Error = msgUpstreamFailed
		resp.Details = err.Error()
		resp.UpstreamStatus = upErr.Status
	case errors.As(err, &fErr):
		resp.Error = fErr.Message
		if fErr.Code == fiber.StatusNotFound {
			resp.Error = msgNotFound
		}
		return fErr.Code, resp
	default:
		resp.Error = msgInternal
		resp.Details = err.Error()
	}
	return fiber.StatusInternalServerError, resp
}

// ErrorHandler is the Fiber error handler: every error leaves as a JSON body.
func ErrorHandler(logger *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		status, body := classify(err)
		if status >= fiber.StatusInternalServerError {
			logger.Error("api.request_failed",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.Int("status", status),
				zap.Error(err))
		}
		return c.Status(status).JSON(body)
	}
}

// NotFound answers every request no route matched.
func NotFound(c *fiber.Ctx) error {
	return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
		Error:     msgNotFound,
		Timestamp: timestamp(),
	})
}
