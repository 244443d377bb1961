package pdpj

import (
	"context"
	"encoding/json"
)

// Credentials are the SSO password-grant inputs.
// Username is the user's CPF; Password is the portal password.
type Credentials struct {
	ClientID string
	Username string
	Password string
}

// CredentialsProvider supplies login credentials. Implementations may also satisfy
// Invalidator to drop cached credentials after the SSO rejects them.
type CredentialsProvider interface {
	Credentials(ctx context.Context) (Credentials, error)
}

// Invalidator is implemented by anything holding a cached credential that can be dropped.
type Invalidator interface {
	Invalidate()
}

// StaticCredentials serves fixed credentials, typically read from the environment.
type StaticCredentials Credentials

// Credentials implements CredentialsProvider.
func (s StaticCredentials) Credentials(context.Context) (Credentials, error) {
	return Credentials(s), nil
}

// ProcessRecord is the upstream process document, kept byte-for-byte.
type ProcessRecord = json.RawMessage

// DocumentRecord is one element of a process's "documentos" list.
type DocumentRecord = json.RawMessage

// processDocuments is the only part of a ProcessRecord this service interprets.
type processDocuments struct {
	Documentos json.RawMessage `json:"documentos"`
}
