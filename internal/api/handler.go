package api

import (
	"context"
	"net/url"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/mwfilho/mcp-pdpj/internal/pdpj"
)

// ProcessService is the dispatcher behind both transports.
type ProcessService interface {
	ConsultarProcesso(ctx context.Context, numero string) (pdpj.ProcessRecord, error)
	ListarDocumentos(ctx context.Context, numero string) ([]pdpj.DocumentRecord, error)
}

// ProcessHandler serves the REST process endpoints.
type ProcessHandler struct {
	logger  *zap.Logger
	service ProcessService
}

// NewProcessHandler creates a new ProcessHandler.
func NewProcessHandler(logger *zap.Logger, service ProcessService) *ProcessHandler {
	return &ProcessHandler{
		logger:  logger,
		service: service,
	}
}

// ConsultarProcesso handles GET /api/processo/:numero.
// The upstream record is relayed byte-for-byte.
func (h *ProcessHandler) ConsultarProcesso(c *fiber.Ctx) error {
	numero := numeroParam(c)
	if err := pdpj.ValidateNumero(numero); err != nil {
		return h.fail(c, ActionConsultarProcesso, numero, err)
	}

	record, err := h.service.ConsultarProcesso(c.Context(), numero)
	if err != nil {
		return h.fail(c, ActionConsultarProcesso, numero, err)
	}

	c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSONCharsetUTF8)
	return c.Status(fiber.StatusOK).Send(record)
}

// ListarDocumentos handles GET /api/documentos/:numero.
func (h *ProcessHandler) ListarDocumentos(c *fiber.Ctx) error {
	numero := numeroParam(c)
	if err := pdpj.ValidateNumero(numero); err != nil {
		return h.fail(c, ActionListarDocumentos, numero, err)
	}

	docs, err := h.service.ListarDocumentos(c.Context(), numero)
	if err != nil {
		return h.fail(c, ActionListarDocumentos, numero, err)
	}

	return c.Status(fiber.StatusOK).JSON(documentList(docs))
}

func (h *ProcessHandler) fail(c *fiber.Ctx, action, numero string, err error) error {
	status, body := classify(err)
	if status >= fiber.StatusInternalServerError {
		h.logger.Error("api."+action+".failed",
			zap.String("numero", numero),
			zap.Error(err))
	}
	return c.Status(status).JSON(body)
}

// numeroParam returns the decoded :numero path segment.
func numeroParam(c *fiber.Ctx) string {
	raw := c.Params("numero")
	if decoded, err := url.PathUnescape(raw); err == nil {
		return decoded
	}
	return raw
}
