package kodi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/cockroachdb/errors"
)

// Client talks JSON-RPC 2.0 to a Kodi instance over HTTP POST. It is
// safe for concurrent use.
type Client struct {
	endpoint string
	hc       *http.Client
	log      *slog.Logger
	nextID   atomic.Int64
}

// NewClient creates a client for the given endpoint, typically
// http://host:8080/jsonrpc. The timeout bounds each individual call.
func NewClient(endpoint string, timeout time.Duration, log *slog.Logger) *Client {
	return &Client{
		endpoint: endpoint,
		hc:       &http.Client{Timeout: timeout},
		log:      log,
	}
}

// RPCError is an error returned by Kodi itself, as opposed to a
// transport failure.
type RPCError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data,omitempty"`
}

func (e *RPCError) Error() string {
	return fmt.Sprintf("kodi error %d: %s", e.Code, e.Message)
}

type request struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int64  `json:"id"`
	Method  string `json:"method"`
	Params  any    `json:"params,omitempty"`
}

type response struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      int64           `json:"id"`
	Result  json.RawMessage `json:"result"`
	Error   *RPCError       `json:"error"`
}

// Call invokes method with params and unmarshals the result into
// result, which may be nil when the caller does not care about it.
func (c *Client) Call(ctx context.Context, method string, params, result any) error {
	id := c.nextID.Add(1)
	body, err := json.Marshal(request{
		JSONRPC: "2.0",
		ID:      id,
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return errors.Wrapf(err, "encode %s request", method)
	}
	c.log.Debug("kodi call", "method", method, "id", id)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(body))
	if err != nil {
		return errors.Wrapf(err, "build %s request", method)
	}
	req.Header.Set("Content-Type", "application/json")

	httpResp, err := c.hc.Do(req)
	if err != nil {
		return errors.Wrapf(err, "call %s", method)
	}
	defer httpResp.Body.Close()

	if httpResp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, httpResp.Body)
		return errors.Newf("call %s: unexpected status %s", method, httpResp.Status)
	}

	var resp response
	if err := json.NewDecoder(httpResp.Body).Decode(&resp); err != nil {
		return errors.Wrapf(err, "decode %s response", method)
	}
	if resp.Error != nil {
		c.log.Debug("kodi error", "method", method, "code", resp.Error.Code, "message", resp.Error.Message)
		return errors.Wrapf(resp.Error, "call %s", method)
	}
	if result == nil {
		return nil
	}
	if err := json.Unmarshal(resp.Result, result); err != nil {
		return errors.Wrapf(err, "decode %s result", method)
	}
	return nil
}
