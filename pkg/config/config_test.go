package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setCreds(t *testing.T) {
	t.Helper()
	t.Setenv("PDPJ_CLIENT_ID", "portaldeservicos-pdpj-frontend")
	t.Setenv("PDPJ_CPF", "12345678900")
	t.Setenv("PDPJ_SENHA", "s3cret")
}

func TestLoad_Defaults(t *testing.T) {
	setCreds(t)

	cfg := Load()
	assert.Equal(t, "pdpj-proxy", cfg.ServiceName)
	assert.Equal(t, 3000, cfg.Port)
	assert.Equal(t, DefaultBaseURL, cfg.BaseURL)
	assert.Equal(t, DefaultTokenURL, cfg.TokenURL)
	assert.Equal(t, 60*time.Second, cfg.TokenMargin)
	assert.Equal(t, 30*time.Second, cfg.SSEHeartbeatInterval)
	assert.Zero(t, cfg.HTTPWriteTimeout, "write timeout must default to none so SSE streams stay open")
	assert.Equal(t, "portaldeservicos-pdpj-frontend", cfg.ClientID)
	assert.False(t, cfg.UsesSecretsManager())
	require.NoError(t, cfg.Validate())
}

func TestLoad_Overrides(t *testing.T) {
	setCreds(t)
	t.Setenv("PORT", "8080")
	t.Setenv("PDPJ_TOKEN_MARGIN", "90")
	t.Setenv("SSE_HEARTBEAT_INTERVAL", "5s")
	t.Setenv("PDPJ_BASE_URL", "  https://pdpj.example.test  ")

	cfg := Load()
	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, 90*time.Second, cfg.TokenMargin)
	assert.Equal(t, 5*time.Second, cfg.SSEHeartbeatInterval)
	assert.Equal(t, "https://pdpj.example.test", cfg.BaseURL)
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	setCreds(t)
	t.Setenv("PORT", "not-a-port")
	t.Setenv("SSE_HEARTBEAT_INTERVAL", "soon")

	cfg := Load()
	assert.Equal(t, 3000, cfg.Port)
	assert.Equal(t, 30*time.Second, cfg.SSEHeartbeatInterval)
}

func TestValidate_MissingCredentials(t *testing.T) {
	t.Setenv("PDPJ_CLIENT_ID", "")
	t.Setenv("PDPJ_CPF", "")
	t.Setenv("PDPJ_SENHA", "")
	t.Setenv("PDPJ_SECRET_NAME", "")

	err := Load().Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ClientID")
	assert.Contains(t, err.Error(), "Senha")
}

func TestValidate_SecretNameReplacesEnvCredentials(t *testing.T) {
	t.Setenv("PDPJ_CLIENT_ID", "")
	t.Setenv("PDPJ_CPF", "")
	t.Setenv("PDPJ_SENHA", "")
	t.Setenv("PDPJ_SECRET_NAME", "prod/pdpj/credentials")

	cfg := Load()
	assert.True(t, cfg.UsesSecretsManager())
	require.NoError(t, cfg.Validate())
}

func TestValidate_BadURL(t *testing.T) {
	setCreds(t)
	t.Setenv("PDPJ_TOKEN_URL", "not a url")

	err := Load().Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TokenURL")
}
