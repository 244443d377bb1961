package secrets

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/mwfilho/mcp-pdpj/internal/pdpj"
	pkgsecrets "github.com/mwfilho/mcp-pdpj/pkg/secrets"
	"github.com/mwfilho/mcp-pdpj/pkg/utils"
)

// AWSResolver resolves the SSO credentials from a single AWS Secrets Manager secret,
// caching them locally so that only logins, not every call, reach AWS.
//
// Secret JSON format: {"client_id": "...", "cpf": "...", "senha": "..."}
type AWSResolver struct {
	logger     *zap.Logger
	secretName string
	provider   pkgsecrets.Provider
	cache      *pkgsecrets.Cache[pdpj.Credentials]
}

// NewAWSResolver constructs a credentials resolver for secretName.
func NewAWSResolver(
	logger *zap.Logger,
	secretName string,
	provider pkgsecrets.Provider,
	cache *pkgsecrets.Cache[pdpj.Credentials],
) *AWSResolver {
	return &AWSResolver{
		logger:     logger,
		secretName: secretName,
		provider:   provider,
		cache:      cache,
	}
}

// Credentials implements pdpj.CredentialsProvider.
func (r *AWSResolver) Credentials(ctx context.Context) (pdpj.Credentials, error) {
	if creds, ok := r.cache.Get(r.secretName); ok {
		return creds, nil
	}

	secretMap, err := r.provider.GetSecret(ctx, r.secretName)
	if err != nil {
		r.logger.Warn("aws.secret_fetch_failed",
			zap.String("key", r.secretName),
			zap.Error(err))
		return pdpj.Credentials{}, fmt.Errorf("resolve pdpj credentials: %w", err)
	}

	creds, err := parseCredentials(secretMap)
	if err != nil {
		return pdpj.Credentials{}, fmt.Errorf("parse secret %q: %w", r.secretName, err)
	}

	r.cache.Put(r.secretName, creds)
	r.logger.Info("aws.credentials_resolved",
		zap.String("key", r.secretName),
		zap.String("user", utils.MaskCPF(creds.Username)))
	return creds, nil
}

// Invalidate implements pdpj.Invalidator; the next login re-reads the secret.
func (r *AWSResolver) Invalidate() {
	r.cache.Bust(r.secretName)
}

// parseCredentials extracts Credentials from the raw secret map.
func parseCredentials(m map[string]string) (pdpj.Credentials, error) {
	creds := pdpj.Credentials{
		ClientID: m["client_id"],
		Username: m["cpf"],
		Password: m["senha"],
	}
	if creds.ClientID == "" {
		return pdpj.Credentials{}, fmt.Errorf("missing required field 'client_id'")
	}
	if creds.Username == "" {
		return pdpj.Credentials{}, fmt.Errorf("missing required field 'cpf'")
	}
	if creds.Password == "" {
		return pdpj.Credentials{}, fmt.Errorf("missing required field 'senha'")
	}
	return creds, nil
}
