package api

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"
	"github.com/google/uuid"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"github.com/mwfilho/mcp-pdpj/internal/metrics"
	"github.com/mwfilho/mcp-pdpj/internal/pdpj"
	"github.com/mwfilho/mcp-pdpj/internal/sse"
)

// DefaultHeartbeatInterval is the gap between heartbeat events.
const DefaultHeartbeatInterval = 30 * time.Second

// SSEHandler serves /sse: a connected event, at most one operation result, then
// heartbeats until the client goes away or the server shuts down.
type SSEHandler struct {
	logger    *zap.Logger
	service   ProcessService
	heartbeat time.Duration
	done      <-chan struct{}
}

// NewSSEHandler creates a new SSEHandler. Closing done ends every open stream.
func NewSSEHandler(logger *zap.Logger, service ProcessService, heartbeat time.Duration, done <-chan struct{}) *SSEHandler {
	if heartbeat <= 0 {
		heartbeat = DefaultHeartbeatInterval
	}
	return &SSEHandler{
		logger:    logger,
		service:   service,
		heartbeat: heartbeat,
		done:      done,
	}
}

// Stream handles GET /sse[?action=...&numero=...].
func (h *SSEHandler) Stream(c *fiber.Ctx) error {
	// Query values point into fasthttp buffers that are recycled once the handler returns.
	action := utils.CopyString(c.Query("action"))
	numero := utils.CopyString(c.Query("numero"))
	connID := uuid.NewString()

	c.Set(fiber.HeaderContentType, sse.ContentType)
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		h.stream(w, connID, action, numero)
	}))
	return nil
}

// sseResult is a finished operation waiting to be written.
type sseResult struct {
	event   string
	payload any
}

func (h *SSEHandler) stream(w *bufio.Writer, connID, action, numero string) {
	metrics.SSEActiveConnections.Inc()
	defer metrics.SSEActiveConnections.Dec()

	log := h.logger.With(zap.String("conn_id", connID))
	log.Info("api.sse.connected",
		zap.String("action", action),
		zap.String("numero", numero))

	enc := sse.NewEncoder(w)
	send := func(event string, payload any) bool {
		if err := enc.EncodeJSON(event, payload); err != nil {
			log.Debug("api.sse.write_failed", zap.String("event", event), zap.Error(err))
			return false
		}
		if err := w.Flush(); err != nil {
			log.Debug("api.sse.write_failed", zap.String("event", event), zap.Error(err))
			return false
		}
		metrics.IncSSEEvent(event)
		return true
	}

	if !send(EventConnected, ConnectedPayload{
		Message:      "Conectado ao MCP-PDPJ via SSE",
		ConnectionID: connID,
		Capabilities: Capabilities,
		Timestamp:    timestamp(),
	}) {
		return
	}

	var results chan sseResult
	if action != "" && numero != "" {
		ch := make(chan sseResult, 1)
		go func() { ch <- h.dispatch(action, numero) }()
		results = ch
	}

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case r := <-results:
			results = nil
			if !send(r.event, r.payload) {
				log.Info("api.sse.disconnected")
				return
			}
		case <-ticker.C:
			if !send(EventHeartbeat, HeartbeatPayload{Timestamp: timestamp()}) {
				log.Info("api.sse.disconnected")
				return
			}
		case <-h.done:
			log.Info("api.sse.server_closing")
			return
		}
	}
}

// dispatch runs one operation to completion; a client leaving mid-call does not cancel it.
func (h *SSEHandler) dispatch(action, numero string) sseResult {
	ctx := context.Background()

	var (
		event     string
		resultado any
		err       error
	)
	switch action {
	case ActionConsultarProcesso:
		event = EventProcessoConsultado
		resultado, err = h.service.ConsultarProcesso(ctx, numero)
	case ActionListarDocumentos:
		event = EventDocumentosListados
		var docs []pdpj.DocumentRecord
		docs, err = h.service.ListarDocumentos(ctx, numero)
		resultado = documentList(docs)
	default:
		err = fmt.Errorf("ação desconhecida: %q", action)
	}

	if err != nil {
		h.logger.Warn("api.sse.action_failed",
			zap.String("action", action),
			zap.String("numero", numero),
			zap.Error(err))
		payload := ErrorPayload{
			Action:    action,
			Numero:    numero,
			Error:     err.Error(),
			Timestamp: timestamp(),
		}
		var upErr *pdpj.UpstreamError
		if errors.As(err, &upErr) {
			payload.UpstreamStatus = upErr.Status
		}
		return sseResult{event: EventError, payload: payload}
	}

	return sseResult{event: event, payload: ResultPayload{
		Action:    action,
		Numero:    numero,
		Resultado: resultado,
		Timestamp: timestamp(),
	}}
}
