package pdpj

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/zap"
)

// fakeClock is a manually advanced clock.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 5, 10, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

// ssoServer is a fake Keycloak token endpoint.
type ssoServer struct {
	*httptest.Server
	logins atomic.Int32

	mu        sync.Mutex
	status    int
	body      string
	delay     time.Duration
	lastForm  map[string]string
	nextToken func(n int32) string
}

func newSSOServer(t *testing.T, expiresIn int) *ssoServer {
	t.Helper()
	s := &ssoServer{status: http.StatusOK}
	s.nextToken = func(n int32) string { return "access-token-" + strconv.Itoa(int(n)) }
	s.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := s.logins.Add(1)
		_ = r.ParseForm()

		s.mu.Lock()
		s.lastForm = map[string]string{}
		for k := range r.PostForm {
			s.lastForm[k] = r.PostForm.Get(k)
		}
		status, body, delay, nextToken := s.status, s.body, s.delay, s.nextToken
		s.mu.Unlock()

		if delay > 0 {
			time.Sleep(delay)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if body != "" {
			_, _ = w.Write([]byte(body))
			return
		}
		resp := map[string]any{
			"access_token": nextToken(n),
			"token_type":   "Bearer",
		}
		if expiresIn > 0 {
			resp["expires_in"] = expiresIn
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(s.Close)
	return s
}

func (s *ssoServer) respond(status int, body string) {
	s.mu.Lock()
	s.status, s.body = status, body
	s.mu.Unlock()
}

func (s *ssoServer) issue(next func(n int32) string) {
	s.mu.Lock()
	s.nextToken = next
	s.mu.Unlock()
}

func (s *ssoServer) form() map[string]string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastForm
}

// fakeCredentials records invalidations.
type fakeCredentials struct {
	creds       Credentials
	err         error
	invalidated atomic.Int32
}

func (f *fakeCredentials) Credentials(context.Context) (Credentials, error) {
	return f.creds, f.err
}

func (f *fakeCredentials) Invalidate() { f.invalidated.Add(1) }

func testCredentials() *fakeCredentials {
	return &fakeCredentials{creds: Credentials{
		ClientID: "portaldeservicos-pdpj-frontend",
		Username: "12345678900",
		Password: "s3cret",
	}}
}

func newTestTokenManager(t *testing.T, sso *ssoServer, creds CredentialsProvider, clk *fakeClock) *TokenManager {
	t.Helper()
	return NewTokenManager(zap.NewNop(), sso.URL+"/token", creds,
		WithHTTPClient(sso.Client()),
		WithClock(clk.Now),
	)
}

// stubAuth is an Authenticator with a fixed outcome.
type stubAuth struct {
	token       string
	err         error
	calls       atomic.Int32
	invalidated atomic.Int32
}

func (s *stubAuth) AuthHeader(context.Context) (http.Header, error) {
	s.calls.Add(1)
	if s.err != nil {
		return nil, s.err
	}
	h := http.Header{}
	h.Set("Authorization", "Bearer "+s.token)
	return h, nil
}

func (s *stubAuth) Invalidate() { s.invalidated.Add(1) }

// upstream is a fake PDPJ process API recording every request URI.
type upstream struct {
	*httptest.Server
	mu     sync.Mutex
	uris   []string
	auth   []string
	status int
	body   string
}

func newUpstream(t *testing.T, status int, body string) *upstream {
	t.Helper()
	u := &upstream{status: status, body: body}
	u.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		u.mu.Lock()
		u.uris = append(u.uris, r.Method+" "+r.URL.RequestURI())
		u.auth = append(u.auth, r.Header.Get("Authorization"))
		u.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(u.status)
		_, _ = w.Write([]byte(u.body))
	}))
	t.Cleanup(u.Close)
	return u
}

func (u *upstream) authHeaders() []string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]string(nil), u.auth...)
}

func (u *upstream) requests() []string {
	u.mu.Lock()
	defer u.mu.Unlock()
	return append([]string(nil), u.uris...)
}

func newTestClient(u *upstream, auth Authenticator) *Client {
	return NewClient(zap.NewNop(), u.URL, auth, nil, u.Client())
}

var errBoom = errors.New("boom")

func newTestLogger() *zap.Logger { return zap.NewNop() }
