package rate

import (
	"context"
	"sync"

	xrate "golang.org/x/time/rate"
)

// Config defines rate limiting parameters for an upstream key.
// RequestsPerSecond <= 0 disables limiting.
type Config struct {
	RequestsPerSecond int
	Burst             int
}

// New creates a token-bucket limiter starting with a full bucket.
func New(cfg Config) *xrate.Limiter {
	if cfg.RequestsPerSecond <= 0 {
		return xrate.NewLimiter(xrate.Inf, 0)
	}
	burst := cfg.Burst
	if burst < 1 {
		burst = 1
	}
	return xrate.NewLimiter(xrate.Limit(cfg.RequestsPerSecond), burst)
}

// Manager holds one limiter per key, created lazily from the defaults.
type Manager struct {
	mu       sync.Mutex
	limiters map[string]*xrate.Limiter
	defaults Config
}

func NewManager(defaults Config) *Manager {
	return &Manager{
		limiters: make(map[string]*xrate.Limiter),
		defaults: defaults,
	}
}

func (m *Manager) GetLimiter(key string) *xrate.Limiter {
	m.mu.Lock()
	defer m.mu.Unlock()
	lim, ok := m.limiters[key]
	if !ok {
		lim = New(m.defaults)
		m.limiters[key] = lim
	}
	return lim
}

// Wait blocks until key may issue a request, in arrival order, or ctx is done.
func (m *Manager) Wait(ctx context.Context, key string) error {
	return m.GetLimiter(key).Wait(ctx)
}
