package api

import (
	"time"

	"github.com/mwfilho/mcp-pdpj/internal/pdpj"
)

// now is swapped in tests for deterministic timestamps.
var now = time.Now

// timestamp renders the current instant the way JavaScript's toISOString does.
func timestamp() string {
	return now().UTC().Format("2006-01-02T15:04:05.000Z07:00")
}

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Error          string `json:"error"`
	Details        string `json:"details,omitempty"`
	UpstreamStatus int    `json:"upstreamStatus,omitempty"`
	Timestamp      string `json:"timestamp"`
}

// ServiceInfo is served at / and /api.
type ServiceInfo struct {
	Message     string            `json:"message"`
	Description string            `json:"description"`
	Endpoints   map[string]string `json:"endpoints"`
	Version     string            `json:"version"`
	Timestamp   string            `json:"timestamp"`
}

// NewServiceInfo builds the metadata document for the given version.
func NewServiceInfo(version string) ServiceInfo {
	return ServiceInfo{
		Message:     "MCP-PDPJ API",
		Description: "API para consulta de processos no PDPJ",
		Endpoints: map[string]string{
			"/api/processo/:numero":   "Consultar processo específico",
			"/api/documentos/:numero": "Listar documentos de um processo",
			"/sse":                    "Stream SSE (action=consultar_processo|listar_documentos, numero)",
			"/health":                 "Health check",
		},
		Version: version,
	}
}

// HealthResponse is served at /health.
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

// SSE event names.
const (
	EventConnected          = "connected"
	EventHeartbeat          = "heartbeat"
	EventProcessoConsultado = "processo_consultado"
	EventDocumentosListados = "documentos_listados"
	EventError              = "error"
)

// SSE actions, named after the operations they trigger.
const (
	ActionConsultarProcesso = "consultar_processo"
	ActionListarDocumentos  = "listar_documentos"
)

// Capabilities lists the actions accepted on /sse.
var Capabilities = []string{ActionConsultarProcesso, ActionListarDocumentos}

// ConnectedPayload is the data of the connected event.
type ConnectedPayload struct {
	Message      string   `json:"message"`
	ConnectionID string   `json:"connectionId"`
	Capabilities []string `json:"capabilities"`
	Timestamp    string   `json:"timestamp"`
}

// HeartbeatPayload is the data of the heartbeat event.
type HeartbeatPayload struct {
	Timestamp string `json:"timestamp"`
}

// ResultPayload is the data of processo_consultado and documentos_listados.
type ResultPayload struct {
	Action    string `json:"action"`
	Numero    string `json:"numero"`
	Resultado any    `json:"resultado"`
	Timestamp string `json:"timestamp"`
}

// ErrorPayload is the data of the error event.
type ErrorPayload struct {
	Action         string `json:"action"`
	Numero         string `json:"numero"`
	Error          string `json:"error"`
	UpstreamStatus int    `json:"upstreamStatus,omitempty"`
	Timestamp      string `json:"timestamp"`
}

// documentList keeps an empty result serialised as [] rather than null.
func documentList(docs []pdpj.DocumentRecord) []pdpj.DocumentRecord {
	if docs == nil {
		return []pdpj.DocumentRecord{}
	}
	return docs
}
