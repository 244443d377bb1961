package httpclient

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/mwfilho/mcp-pdpj/internal/rate"
)

// ErrorHandler turns a non-2xx response into an error.
type ErrorHandler func(status int, body []byte) error

// Result is a completed exchange with a 2xx status.
type Result struct {
	Status  int
	Body    []byte
	Elapsed time.Duration
}

// Executor sends rate-limited requests. Each request gets exactly one attempt.
type Executor struct {
	logger       *zap.Logger
	rateMgr      *rate.Manager
	http         *http.Client
	tag          string
	errorHandler ErrorHandler
}

// New creates an Executor. rateMgr may be nil to disable throttling. errorHandler maps
// a non-2xx response to an error; if nil, a generic error carrying the status is returned.
func New(
	logger *zap.Logger,
	rateMgr *rate.Manager,
	httpClient *http.Client,
	tag string,
	errorHandler ErrorHandler,
) *Executor {
	return &Executor{
		logger:       logger,
		rateMgr:      rateMgr,
		http:         httpClient,
		tag:          tag,
		errorHandler: errorHandler,
	}
}

// Do executes req and returns the body of a 2xx response.
// rateLimitKey scopes the rate limiter.
func (e *Executor) Do(ctx context.Context, req *http.Request, rateLimitKey string) (*Result, error) {
	if e.rateMgr != nil {
		if err := e.rateMgr.Wait(ctx, rateLimitKey); err != nil {
			return nil, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	start := time.Now()
	resp, err := e.http.Do(req)
	if err != nil {
		e.logger.Warn(e.tag+".http_failed",
			zap.String("url", req.URL.String()),
			zap.Error(err))
		return nil, fmt.Errorf("%s request failed: %w", e.tag, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	elapsed := time.Since(start)
	if err != nil {
		return nil, fmt.Errorf("%s read body: %w", e.tag, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if e.errorHandler != nil {
			return nil, e.errorHandler(resp.StatusCode, body)
		}
		return nil, fmt.Errorf("%s returned %d", e.tag, resp.StatusCode)
	}

	e.logger.Debug(e.tag+".http_success",
		zap.String("url", req.URL.String()),
		zap.Int("status", resp.StatusCode),
		zap.Duration("elapsed", elapsed))

	return &Result{Status: resp.StatusCode, Body: body, Elapsed: elapsed}, nil
}
