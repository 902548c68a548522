// Package ledgerrpc implements ledger.Client over the upstream ledger
// node's JSON-RPC 2.0 HTTP endpoint.
package ledgerrpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/ledgergate/ledgergate/internal/eventbus"
	"github.com/ledgergate/ledgergate/internal/events"
	"github.com/ledgergate/ledgergate/internal/ledger"
)

// Client speaks JSON-RPC 2.0 to a single upstream endpoint. It is safe for
// concurrent use. It imposes its own per-call timeout only when the caller's
// context carries no deadline.
type Client struct {
	endpoint string
	opts     *Options
	nextID   atomic.Int64
}

var _ ledger.Client = (*Client)(nil)

// New creates a client for the given endpoint URL.
func New(endpoint string, opts ...Option) *Client {
	o := defaultOptions()
	for _, f := range opts {
		f(o)
	}
	return &Client{endpoint: endpoint, opts: o}
}

type rpcRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int64  `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("rpc error %d: %s", e.Code, e.Message)
}

// call performs one JSON-RPC call and decodes its result into out.
func (c *Client) call(ctx context.Context, method string, params []any, out any) error {
	if _, ok := ctx.Deadline(); !ok && c.opts.RPCTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.opts.RPCTimeout)
		defer cancel()
	}

	start := time.Now()
	eventbus.Publish(ctx, events.RPCCallStart{Method: method, Endpoint: c.endpoint})
	err := c.do(ctx, method, params, out)
	eventbus.Publish(ctx, events.RPCCallFinish{
		Method:   method,
		Endpoint: c.endpoint,
		Err:      err,
		Duration: time.Since(start),
	})
	return err
}

func (c *Client) do(ctx context.Context, method string, params []any, out any) error {
	if params == nil {
		params = []any{}
	}
	body, err := json.Marshal(rpcRequest{
		JSONRPC: "2.0",
		ID:      c.nextID.Add(1),
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return fmt.Errorf("%s: encode request: %w", method, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%s: build request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, vs := range c.opts.Headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := c.opts.HTTPClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		// Drain a little for error context; upstream faults stay opaque.
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return fmt.Errorf("%s: upstream status %d: %s", method, resp.StatusCode, bytes.TrimSpace(snippet))
	}

	var rr rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&rr); err != nil {
		return fmt.Errorf("%s: decode response: %w", method, err)
	}
	if rr.Error != nil {
		return fmt.Errorf("%s: %w", method, rr.Error)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(rr.Result, out); err != nil {
		return fmt.Errorf("%s: decode result: %w", method, err)
	}
	return nil
}
