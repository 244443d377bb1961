package config

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/joho/godotenv"
)

const (
	// DefaultBaseURL is the PDPJ services portal hosting the process API.
	DefaultBaseURL = "https://portaldeservicos.pdpj.jus.br"
	// DefaultTokenURL is the Keycloak token endpoint of the PJe SSO realm.
	DefaultTokenURL = "https://sso.cloud.pje.jus.br/auth/realms/pje/protocol/openid-connect/token"
)

// Config holds the runtime configuration for the pdpj-proxy.
type Config struct {
	ServiceName string
	Env         string
	LogLevel    string
	Version     string

	Port             int
	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration // 0 disables; SSE streams must not be cut by the server
	HTTPIdleTimeout  time.Duration
	HTTPBodyLimit    int

	// Upstream
	BaseURL         string
	TokenURL        string
	TokenMargin     time.Duration
	UpstreamTimeout time.Duration
	AuthTimeout     time.Duration
	RateLimitRPS    int
	RateLimitBurst  int

	// Credentials. Either the three PDPJ_* values or SecretName must be set.
	ClientID   string
	CPF        string
	Senha      string
	SecretName string
	AWSRegion  string

	CacheTTL    time.Duration
	CleanupFreq time.Duration

	SSEHeartbeatInterval time.Duration
}

// Load loads configuration from environment variables and optional .env file.
func Load() *Config {
	_ = godotenv.Load()

	return &Config{
		ServiceName:          GetEnv("SERVICE_NAME", "pdpj-proxy"),
		Env:                  GetEnv("ENV", "dev"),
		LogLevel:             GetEnv("LOG_LEVEL", "info"),
		Version:              "1.0.0",
		Port:                 GetEnvInt("PORT", 3000),
		HTTPReadTimeout:      GetEnvDuration("HTTP_READ_TIMEOUT", 10*time.Second),
		HTTPWriteTimeout:     GetEnvDuration("HTTP_WRITE_TIMEOUT", 0),
		HTTPIdleTimeout:      GetEnvDuration("HTTP_IDLE_TIMEOUT", 60*time.Second),
		HTTPBodyLimit:        GetEnvInt("HTTP_BODY_LIMIT", 1*1024*1024),
		BaseURL:              GetEnv("PDPJ_BASE_URL", DefaultBaseURL),
		TokenURL:             GetEnv("PDPJ_TOKEN_URL", DefaultTokenURL),
		TokenMargin:          GetEnvDuration("PDPJ_TOKEN_MARGIN", 60*time.Second),
		UpstreamTimeout:      GetEnvDuration("PDPJ_UPSTREAM_TIMEOUT", 30*time.Second),
		AuthTimeout:          GetEnvDuration("PDPJ_AUTH_TIMEOUT", 10*time.Second),
		RateLimitRPS:         GetEnvInt("PDPJ_RATE_LIMIT_RPS", 10),
		RateLimitBurst:       GetEnvInt("PDPJ_RATE_LIMIT_BURST", 20),
		ClientID:             GetEnv("PDPJ_CLIENT_ID", ""),
		CPF:                  GetEnv("PDPJ_CPF", ""),
		Senha:                GetEnv("PDPJ_SENHA", ""),
		SecretName:           GetEnv("PDPJ_SECRET_NAME", ""),
		AWSRegion:            GetEnv("AWS_REGION", "sa-east-1"),
		CacheTTL:             GetEnvDuration("CACHE_TTL", 1*time.Hour),
		CleanupFreq:          GetEnvDuration("CACHE_CLEANUP_FREQ", 10*time.Minute),
		SSEHeartbeatInterval: GetEnvDuration("SSE_HEARTBEAT_INTERVAL", 30*time.Second),
	}
}

// UsesSecretsManager reports whether credentials are resolved from AWS Secrets Manager
// instead of the PDPJ_* environment variables.
func (c *Config) UsesSecretsManager() bool {
	return c.SecretName != ""
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	envCreds := validation.When(!c.UsesSecretsManager(), validation.Required)

	return validation.ValidateStruct(c,
		validation.Field(&c.BaseURL, validation.Required, is.URL),
		validation.Field(&c.TokenURL, validation.Required, is.URL),
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
		validation.Field(&c.SSEHeartbeatInterval, validation.Required),
		validation.Field(&c.TokenMargin, validation.Min(time.Duration(0))),
		validation.Field(&c.ClientID, envCreds),
		validation.Field(&c.CPF, envCreds),
		validation.Field(&c.Senha, envCreds),
		validation.Field(&c.AWSRegion, validation.When(c.UsesSecretsManager(), validation.Required)),
	)
}
