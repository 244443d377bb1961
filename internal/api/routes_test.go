package api

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealth(t *testing.T) {
	freezeTime(t)
	app, _ := newTestApp(t, &mockProcessService{})

	resp, body := doRequest(t, app, http.MethodGet, "/health")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.JSONEq(t, `{"status":"ok","timestamp":"`+testTimestamp+`"}`, string(body))
}

func TestServiceInfo(t *testing.T) {
	freezeTime(t)
	app, _ := newTestApp(t, &mockProcessService{})

	for _, path := range []string{"/", "/api"} {
		resp, body := doRequest(t, app, http.MethodGet, path)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode, path)

		var info ServiceInfo
		require.NoError(t, json.Unmarshal(body, &info))
		assert.Equal(t, "MCP-PDPJ API", info.Message)
		assert.Equal(t, "1.0.0", info.Version)
		assert.Equal(t, testTimestamp, info.Timestamp)
		assert.Contains(t, info.Endpoints, "/api/processo/:numero")
		assert.Contains(t, info.Endpoints, "/api/documentos/:numero")
	}
}

func TestNotFound(t *testing.T) {
	freezeTime(t)
	app, _ := newTestApp(t, &mockProcessService{})

	for _, target := range []string{"/nope", "/api/outra/1", "/api/processo/a/b"} {
		resp, body := doRequest(t, app, http.MethodGet, target)
		assert.Equal(t, fiber.StatusNotFound, resp.StatusCode, target)
		assert.JSONEq(t, `{"error":"Endpoint não encontrado","timestamp":"`+testTimestamp+`"}`, string(body))
		assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	}
}

func TestOptions_PreflightOnAnyRoute(t *testing.T) {
	svc := &mockProcessService{}
	app, _ := newTestApp(t, svc)

	for _, target := range []string{"/api/processo/" + testNumero, "/sse", "/whatever"} {
		resp, body := doRequest(t, app, http.MethodOptions, target)
		assert.Equal(t, fiber.StatusOK, resp.StatusCode, target)
		assert.Empty(t, body)
		assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
		assert.Equal(t, "GET, POST, OPTIONS", resp.Header.Get("Access-Control-Allow-Methods"))
		assert.Equal(t, "Content-Type", resp.Header.Get("Access-Control-Allow-Headers"))
	}
	assert.Empty(t, svc.calls(), "preflight never reaches the dispatcher")
}

func TestMetricsExposed(t *testing.T) {
	app, _ := newTestApp(t, &mockProcessService{})

	resp, body := doRequest(t, app, http.MethodGet, "/metrics")
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "sse_active_connections")
}

func TestErrorHandler_FiberError(t *testing.T) {
	app := fiber.New(fiber.Config{ErrorHandler: ErrorHandler(nopLogger())})
	app.Get("/teapot", func(*fiber.Ctx) error { return fiber.NewError(fiber.StatusTeapot, "short and stout") })
	app.Get("/panic-free", func(*fiber.Ctx) error { return errBoom })

	resp, body := doRequest(t, app, http.MethodGet, "/teapot")
	assert.Equal(t, fiber.StatusTeapot, resp.StatusCode)
	assert.Equal(t, "short and stout", decodeError(t, body).Error)

	resp, body = doRequest(t, app, http.MethodGet, "/panic-free")
	assert.Equal(t, fiber.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, msgInternal, decodeError(t, body).Error)

	resp, body = doRequest(t, app, http.MethodGet, "/missing")
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)
	assert.Equal(t, msgNotFound, decodeError(t, body).Error)
}
