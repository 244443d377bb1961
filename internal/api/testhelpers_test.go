package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/mwfilho/mcp-pdpj/internal/pdpj"
)

const (
	testNumero    = "123-45.2023.1.01.0001"
	testProcess   = `{"numero":"123-45.2023.1.01.0001","documentos":[{"id":1}]}`
	testTimestamp = "2025-05-10T09:00:00.000Z"
)

var errBoom = errors.New("boom")

// ─── Mock service ─────────────────────────────────────────────────────────────

type mockProcessService struct {
	mu          sync.Mutex
	numeros     []string
	consultarFn func(ctx context.Context, numero string) (pdpj.ProcessRecord, error)
	listarFn    func(ctx context.Context, numero string) ([]pdpj.DocumentRecord, error)
}

func (m *mockProcessService) record(numero string) {
	m.mu.Lock()
	m.numeros = append(m.numeros, numero)
	m.mu.Unlock()
}

func (m *mockProcessService) calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.numeros...)
}

func (m *mockProcessService) ConsultarProcesso(ctx context.Context, numero string) (pdpj.ProcessRecord, error) {
	m.record(numero)
	if m.consultarFn != nil {
		return m.consultarFn(ctx, numero)
	}
	return pdpj.ProcessRecord(testProcess), nil
}

func (m *mockProcessService) ListarDocumentos(ctx context.Context, numero string) ([]pdpj.DocumentRecord, error) {
	m.record(numero)
	if m.listarFn != nil {
		return m.listarFn(ctx, numero)
	}
	return []pdpj.DocumentRecord{pdpj.DocumentRecord(`{"id":1}`)}, nil
}

// ─── Test app helpers ─────────────────────────────────────────────────────────

// freezeTime pins timestamps to testTimestamp for the duration of the test.
func freezeTime(t *testing.T) {
	t.Helper()
	prev := now
	now = func() time.Time { return time.Date(2025, 5, 10, 9, 0, 0, 0, time.UTC) }
	t.Cleanup(func() { now = prev })
}

func newTestApp(t *testing.T, svc ProcessService) (*fiber.App, chan struct{}) {
	t.Helper()
	done := make(chan struct{})
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler:          ErrorHandler(zap.NewNop()),
	})
	RegisterRoutes(app,
		NewServiceInfo("1.0.0"),
		NewProcessHandler(zap.NewNop(), svc),
		NewSSEHandler(zap.NewNop(), svc, 20*time.Millisecond, done),
	)
	return app, done
}

func doRequest(t *testing.T, app *fiber.App, method, target string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, target, nil)
	require.NoError(t, err)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, body
}

func decodeError(t *testing.T, body []byte) ErrorResponse {
	t.Helper()
	var e ErrorResponse
	require.NoError(t, json.Unmarshal(body, &e), string(body))
	return e
}

func nopLogger() *zap.Logger { return zap.NewNop() }
