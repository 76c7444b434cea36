// internal/api/client.go
//
// Per-browser API client.
//
// Context
// -------
// Each browser session owns one Client.  SetToken installs a default
// `Authorization: Bearer …` header that every subsequent call carries, so
// endpoint helpers never repeat it.  ClearToken removes it.  The Client
// holds no other state and is safe for concurrent use.

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
)

// Client talks to the job-board API on behalf of one browser.
type Client struct {
	t *Transport

	mu    sync.RWMutex
	token string
}

// SetToken sets the default bearer header.
func (c *Client) SetToken(tok string) {
	c.mu.Lock()
	c.token = tok
	c.mu.Unlock()
}

// ClearToken removes the default bearer header.
func (c *Client) ClearToken() { c.SetToken("") }

// Token returns the current bearer token, or "".
func (c *Client) Token() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.token
}

// do sends body (may be nil) with contentType and returns the 2xx reply
// body.  Non-2xx replies become *Error.
func (c *Client) do(ctx context.Context, op, method, path, contentType string, body io.Reader) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.t.endpoint(path), body)
	if err != nil {
		return nil, fmt.Errorf("api %s: build request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if tok := c.Token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	rep, err := c.t.send(ctx, op, req)
	if err != nil {
		return nil, err
	}
	if rep.status < 200 || rep.status > 299 {
		return nil, newError(op, rep.status, rep.body)
	}
	return rep.body, nil
}

// doJSON marshals in (when non-nil) and unmarshals the reply into out (when
// non-nil).
func (c *Client) doJSON(ctx context.Context, op, method, path string, in, out any) error {
	var body io.Reader
	ct := ""
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("api %s: encode: %w", op, err)
		}
		body, ct = bytes.NewReader(b), "application/json"
	}
	raw, err := c.do(ctx, op, method, path, ct, body)
	if err != nil {
		return err
	}
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("%w: %s: %v", ErrBadResponse, op, err)
	}
	return nil
}
