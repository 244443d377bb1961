package pdpj

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"go.uber.org/zap"

	"github.com/mwfilho/mcp-pdpj/internal/httpclient"
	"github.com/mwfilho/mcp-pdpj/internal/metrics"
	"github.com/mwfilho/mcp-pdpj/internal/rate"
)

const (
	processosPath = "/api/v2/processos/"
	rateLimitKey  = "pdpj"
	// maxErrorBody bounds how much of an upstream error body is kept on UpstreamError.
	maxErrorBody = 2048
)

// Authenticator supplies the Authorization header for upstream calls.
type Authenticator interface {
	AuthHeader(ctx context.Context) (http.Header, error)
	Invalidate()
}

// Client issues authenticated calls to the PDPJ process API. Upstream failures are
// returned immediately; nothing is retried.
type Client struct {
	logger  *zap.Logger
	baseURL string
	auth    Authenticator
	exec    *httpclient.Executor
}

// NewClient constructs a PDPJ client. rateMgr may be nil to disable throttling.
func NewClient(logger *zap.Logger, baseURL string, auth Authenticator, rateMgr *rate.Manager, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	exec := httpclient.New(logger, rateMgr, httpClient, "pdpj", func(status int, body []byte) error {
		logger.Warn("pdpj.client.upstream_error",
			zap.Int("status", status),
			zap.Int("body_len", len(body)))
		if len(body) > maxErrorBody {
			body = body[:maxErrorBody]
		}
		return &UpstreamError{Status: status, Body: string(body)}
	})
	return &Client{
		logger:  logger,
		baseURL: strings.TrimRight(baseURL, "/"),
		auth:    auth,
		exec:    exec,
	}
}

// ValidateNumero rejects an empty (or blank) process number.
func ValidateNumero(numero string) error {
	if err := validation.Validate(strings.TrimSpace(numero), validation.Required); err != nil {
		return &ValidationError{Field: "numero", Message: MsgNumeroObrigatorio}
	}
	return nil
}

// ConsultarProcesso fetches a process by its CNJ number.
// GET /api/v2/processos/{numero}
func (c *Client) ConsultarProcesso(ctx context.Context, numero string) (ProcessRecord, error) {
	if err := ValidateNumero(numero); err != nil {
		return nil, err
	}

	header, err := c.auth.AuthHeader(ctx)
	if err != nil {
		return nil, fmt.Errorf("pdpj: get auth header: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+processosPath+url.PathEscape(numero), nil)
	if err != nil {
		return nil, err
	}
	req.Header = header
	req.Header.Set("Accept", "application/json")

	start := time.Now()
	res, err := c.exec.Do(ctx, req, rateLimitKey)
	if err != nil {
		var upErr *UpstreamError
		if errors.As(err, &upErr) {
			metrics.ObserveUpstream("processos", upErr.Status, start)
			if upErr.Status == http.StatusUnauthorized {
				c.auth.Invalidate()
			}
		} else {
			metrics.ObserveUpstream("processos", 0, start)
		}
		c.logger.Error("pdpj.consultar_processo.failed",
			zap.String("numero", numero),
			zap.Error(err))
		return nil, err
	}
	metrics.ObserveUpstream("processos", res.Status, start)

	body := bytes.TrimSpace(res.Body)
	if !json.Valid(body) {
		return nil, &UpstreamError{Status: res.Status, Err: errors.New("response body is not valid JSON")}
	}

	c.logger.Debug("pdpj.consultar_processo.ok",
		zap.String("numero", numero),
		zap.Duration("elapsed", res.Elapsed))
	return ProcessRecord(body), nil
}

// ListarDocumentos returns the "documentos" list of a process. A missing or null list
// yields an empty, non-nil slice.
func (c *Client) ListarDocumentos(ctx context.Context, numero string) ([]DocumentRecord, error) {
	record, err := c.ConsultarProcesso(ctx, numero)
	if err != nil {
		return nil, err
	}
	return extractDocumentos(record)
}

// extractDocumentos reads the "documentos" field of record. A record that is not a JSON
// object has no such field and yields an empty list.
func extractDocumentos(record ProcessRecord) ([]DocumentRecord, error) {
	docs := []DocumentRecord{}

	var p processDocuments
	if !bytes.HasPrefix(bytes.TrimSpace(record), []byte("{")) || json.Unmarshal(record, &p) != nil {
		return docs, nil
	}
	if len(p.Documentos) == 0 || string(p.Documentos) == "null" {
		return docs, nil
	}
	if err := json.Unmarshal(p.Documentos, &docs); err != nil {
		return nil, &UpstreamError{Status: http.StatusOK, Err: fmt.Errorf("documentos is not a list: %w", err)}
	}
	if docs == nil {
		docs = []DocumentRecord{}
	}
	return docs, nil
}
