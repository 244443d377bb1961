// Package probe is a smoke-test client for a running pdpj-proxy, covering both the
// REST endpoints and the SSE stream.
package probe

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/mwfilho/mcp-pdpj/internal/api"
	"github.com/mwfilho/mcp-pdpj/internal/sse"
)

// ErrEventError is returned when the stream reports an error event.
var ErrEventError = errors.New("probe: stream reported an error event")

// Probe talks to one proxy instance.
type Probe struct {
	opts    *Options
	client  *http.Client
	out     io.Writer
	baseURL string
}

// New creates a Probe.
func New(opts *Options, client *http.Client, out io.Writer) *Probe {
	return &Probe{
		opts:    opts,
		client:  client,
		out:     out,
		baseURL: strings.TrimRight(opts.URL, "/"),
	}
}

// Run exercises the selected transport.
func (p *Probe) Run(ctx context.Context) error {
	if p.opts.Transport == TransportREST {
		return p.REST(ctx)
	}
	return p.SSE(ctx)
}

// REST checks /health and, when a numero is set, the endpoint matching the action.
func (p *Probe) REST(ctx context.Context) error {
	if err := p.get(ctx, "/health"); err != nil {
		return err
	}
	if p.opts.Numero == "" {
		return nil
	}

	path := "/api/processo/"
	if p.opts.Action == api.ActionListarDocumentos {
		path = "/api/documentos/"
	}
	return p.get(ctx, path+url.PathEscape(p.opts.Numero))
}

func (p *Probe) get(ctx context.Context, path string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+path, nil)
	if err != nil {
		return err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("GET %s: read body: %w", path, err)
	}
	fmt.Fprintf(p.out, "GET %s -> %d\n%s\n", path, resp.StatusCode, body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: unexpected status %d", path, resp.StatusCode)
	}
	return nil
}

// SSE opens /sse and prints events until the operation result arrives. Without a
// numero it stops after the connected event.
func (p *Probe) SSE(ctx context.Context) error {
	q := url.Values{}
	if p.opts.Numero != "" {
		q.Set("action", p.opts.Action)
		q.Set("numero", p.opts.Numero)
	}
	target := p.baseURL + "/sse"
	if len(q) > 0 {
		target += "?" + q.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", sse.ContentType)

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("open stream: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("open stream: unexpected status %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, sse.ContentType) {
		return fmt.Errorf("open stream: unexpected content type %q", ct)
	}

	dec := sse.NewDecoder(resp.Body)
	for {
		ev, err := dec.Next()
		if err != nil {
			if ctx.Err() != nil {
				return fmt.Errorf("waiting for events: %w", ctx.Err())
			}
			return fmt.Errorf("read event: %w", err)
		}
		fmt.Fprintf(p.out, "event: %s\n%s\n", ev.Name, ev.Data)

		switch ev.Name {
		case api.EventConnected:
			if p.opts.Numero == "" {
				return nil
			}
		case api.EventProcessoConsultado, api.EventDocumentosListados:
			return nil
		case api.EventError:
			return ErrEventError
		}
	}
}
