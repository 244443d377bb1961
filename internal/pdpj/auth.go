package pdpj

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/sync/singleflight"

	"github.com/mwfilho/mcp-pdpj/internal/metrics"
	"github.com/mwfilho/mcp-pdpj/pkg/utils"
)

const (
	// DefaultExpiryMargin is subtracted from the token lifetime so a token is never
	// presented right at its expiry.
	DefaultExpiryMargin = 60 * time.Second
	// defaultTokenLifetime is assumed when neither expires_in nor a JWT exp claim is present.
	defaultTokenLifetime = time.Hour
)

// TokenManager holds the single bearer token used for every PDPJ call and refreshes it
// through a password-grant login when it is missing or past its expiry.
type TokenManager struct {
	logger   *zap.Logger
	client   *http.Client
	tokenURL string
	creds    CredentialsProvider
	margin   time.Duration
	now      func() time.Time

	mu        sync.RWMutex
	token     string
	expiresAt time.Time

	logins singleflight.Group
}

// TokenManagerOption customises a TokenManager.
type TokenManagerOption func(*TokenManager)

// WithHTTPClient sets the client used to reach the token endpoint.
func WithHTTPClient(c *http.Client) TokenManagerOption {
	return func(m *TokenManager) { m.client = c }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) TokenManagerOption {
	return func(m *TokenManager) { m.now = now }
}

// WithExpiryMargin overrides DefaultExpiryMargin.
func WithExpiryMargin(d time.Duration) TokenManagerOption {
	return func(m *TokenManager) { m.margin = d }
}

// NewTokenManager creates a TokenManager logging in at tokenURL with creds.
func NewTokenManager(logger *zap.Logger, tokenURL string, creds CredentialsProvider, opts ...TokenManagerOption) *TokenManager {
	m := &TokenManager{
		logger:   logger,
		client:   &http.Client{Timeout: 10 * time.Second},
		tokenURL: tokenURL,
		creds:    creds,
		margin:   DefaultExpiryMargin,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Token returns the cached bearer token, logging in first when none is held or the
// current instant is past the stored expiry. Concurrent callers share a single login.
func (m *TokenManager) Token(ctx context.Context) (string, error) {
	if tok, ok := m.cached(); ok {
		return tok, nil
	}

	v, err, _ := m.logins.Do("login", func() (any, error) {
		// A login that finished while we were queued is good enough.
		if tok, ok := m.cached(); ok {
			return tok, nil
		}
		return m.login(context.WithoutCancel(ctx))
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// AuthHeader returns the Authorization header for an upstream call.
func (m *TokenManager) AuthHeader(ctx context.Context) (http.Header, error) {
	tok, err := m.Token(ctx)
	if err != nil {
		return nil, err
	}
	h := make(http.Header)
	h.Set("Authorization", "Bearer "+tok)
	return h, nil
}

// Invalidate drops the cached token so the next call logs in again.
func (m *TokenManager) Invalidate() {
	m.mu.Lock()
	m.token = ""
	m.expiresAt = time.Time{}
	m.mu.Unlock()
}

// ExpiresAt returns the instant after which the cached token is no longer used.
func (m *TokenManager) ExpiresAt() time.Time {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.expiresAt
}

func (m *TokenManager) cached() (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.token == "" || m.now().After(m.expiresAt) {
		return "", false
	}
	return m.token, true
}

// login performs the password grant. On failure the previously held token is left as is.
func (m *TokenManager) login(ctx context.Context) (string, error) {
	creds, err := m.creds.Credentials(ctx)
	if err != nil {
		metrics.IncAuthLogin("failure")
		return "", &AuthenticationError{Err: fmt.Errorf("resolve credentials: %w", err)}
	}

	conf := &oauth2.Config{
		ClientID: creds.ClientID,
		Endpoint: oauth2.Endpoint{
			TokenURL:  m.tokenURL,
			AuthStyle: oauth2.AuthStyleInParams,
		},
	}

	start := m.now()
	tok, err := conf.PasswordCredentialsToken(
		context.WithValue(ctx, oauth2.HTTPClient, m.client),
		creds.Username,
		creds.Password,
	)
	if err != nil {
		metrics.IncAuthLogin("failure")
		authErr := &AuthenticationError{Err: err}
		var re *oauth2.RetrieveError
		if errors.As(err, &re) && re.Response != nil {
			authErr.Status = re.Response.StatusCode
		}
		if authErr.Status == http.StatusBadRequest || authErr.Status == http.StatusUnauthorized {
			if inv, ok := m.creds.(Invalidator); ok {
				inv.Invalidate()
			}
		}
		m.logger.Error("pdpj.auth.login_failed",
			zap.String("user", utils.MaskCPF(creds.Username)),
			zap.Int("status", authErr.Status),
			zap.Error(err))
		return "", authErr
	}

	lifetime := tokenLifetime(tok, start)
	expiresAt := start.Add(lifetime - m.margin)

	m.mu.Lock()
	m.token = tok.AccessToken
	m.expiresAt = expiresAt
	m.mu.Unlock()

	metrics.IncAuthLogin("success")
	m.logger.Info("pdpj.auth.token_refreshed",
		zap.String("user", utils.MaskCPF(creds.Username)),
		zap.String("token", utils.MaskToken(tok.AccessToken)),
		zap.Duration("lifetime", lifetime),
		zap.Time("expires_at", expiresAt))

	return tok.AccessToken, nil
}

// tokenLifetime reads the lifetime from expires_in, then from the exp claim of a JWT
// access token, and otherwise falls back to defaultTokenLifetime.
func tokenLifetime(tok *oauth2.Token, issuedAt time.Time) time.Duration {
	if tok.ExpiresIn > 0 {
		return time.Duration(tok.ExpiresIn) * time.Second
	}

	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(tok.AccessToken, &claims); err == nil &&
		claims.ExpiresAt != nil && claims.ExpiresAt.After(issuedAt) {
		return claims.ExpiresAt.Sub(issuedAt)
	}
	return defaultTokenLifetime
}
