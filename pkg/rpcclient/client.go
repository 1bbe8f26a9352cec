/*
Package rpcclient implements the JSON-RPC client side of the eth_*
namespace used to talk to EVM nodes.

The Client type handles plain request/response methods over HTTP, WSClient
adds push subscriptions on top of a web-socket connection. Both are safe for
use from multiple goroutines.
*/
package rpcclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"go.uber.org/atomic"
	"go.uber.org/zap"

	"github.com/mexyusef/fmus-fintech/pkg/evmrpc"
)

const (
	defaultDialTimeout    = 4 * time.Second
	defaultRequestTimeout = 4 * time.Second
)

// Client represents the middleman for executing JSON RPC calls to remote
// EVM nodes. Client is thread-safe and can be used from multiple
// goroutines.
type Client struct {
	cli      *http.Client
	endpoint *url.URL
	ctx      context.Context
	opts     Options
	log      *zap.Logger
	requestF func(*evmrpc.Request) (*evmrpc.Response, error)

	latestReqID *atomic.Uint64
	// getNextRequestID returns an ID to be used for the subsequent request
	// creation. It is defined on Client so that testing code can override it
	// for more predictable request ID generation.
	getNextRequestID func() uint64
}

// Options defines options for the RPC client. All values are optional. If
// any duration is not specified, a default of 4 seconds will be used.
type Options struct {
	DialTimeout    time.Duration
	RequestTimeout time.Duration
	// MaxConnsPerHost limits the total number of connections per host. No
	// limit by default.
	MaxConnsPerHost int
	// Logger is used for client diagnostics, a no-op logger by default.
	Logger *zap.Logger
}

// New returns a new Client ready to use.
func New(ctx context.Context, endpoint string, opts Options) (*Client, error) {
	cl := new(Client)
	err := initClient(ctx, cl, endpoint, opts)
	if err != nil {
		return nil, err
	}
	return cl, nil
}

func initClient(ctx context.Context, cl *Client, endpoint string, opts Options) error {
	url, err := url.Parse(endpoint)
	if err != nil {
		return err
	}

	if opts.DialTimeout <= 0 {
		opts.DialTimeout = defaultDialTimeout
	}

	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = defaultRequestTimeout
	}

	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}

	httpClient := &http.Client{
		Transport: &http.Transport{
			DialContext: (&net.Dialer{
				Timeout: opts.DialTimeout,
			}).DialContext,
			MaxConnsPerHost: opts.MaxConnsPerHost,
		},
		Timeout: opts.RequestTimeout,
	}

	cl.ctx = ctx
	cl.cli = httpClient
	cl.endpoint = url
	cl.log = opts.Logger
	cl.latestReqID = atomic.NewUint64(0)
	cl.getNextRequestID = (cl).getRequestID
	cl.opts = opts
	cl.requestF = cl.makeHTTPRequest
	return nil
}

func (c *Client) getRequestID() uint64 {
	return c.latestReqID.Inc()
}

// Endpoint returns the Client's endpoint URL.
func (c *Client) Endpoint() string {
	return c.endpoint.String()
}

// Close closes unused underlying network connections.
func (c *Client) Close() {
	c.cli.CloseIdleConnections()
}

func (c *Client) performRequest(method string, p []any, v any) error {
	if p == nil {
		p = []any{}
	}
	var r = evmrpc.Request{
		JSONRPC: evmrpc.JSONRPCVersion,
		Method:  method,
		Params:  p,
		ID:      c.getNextRequestID(),
	}

	start := time.Now()
	raw, err := c.requestF(&r)
	observeRequest(method, time.Since(start), err != nil || (raw != nil && raw.Error != nil))

	if raw != nil && raw.Error != nil {
		c.log.Debug("RPC error response",
			zap.String("method", method),
			zap.Int64("code", raw.Error.Code),
			zap.String("message", raw.Error.Message))
		return fmt.Errorf("%s: %w", method, raw.Error)
	} else if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	} else if raw == nil || raw.Result == nil {
		return fmt.Errorf("%s: no result returned", method)
	}
	if v == nil {
		return nil
	}
	if err := json.Unmarshal(raw.Result, v); err != nil {
		return fmt.Errorf("%s: unmarshalling result: %w", method, err)
	}
	return nil
}

func (c *Client) makeHTTPRequest(r *evmrpc.Request) (*evmrpc.Response, error) {
	var (
		buf = new(bytes.Buffer)
		raw = new(evmrpc.Response)
	)

	if err := json.NewEncoder(buf).Encode(r); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(c.ctx, http.MethodPost, c.endpoint.String(), buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.cli.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	// The node might send us a proper JSON anyway, so look there first and
	// if it parses, it has more relevant data than the HTTP error code.
	err = json.NewDecoder(resp.Body).Decode(raw)
	if err != nil {
		if resp.StatusCode != http.StatusOK {
			err = fmt.Errorf("HTTP %d/%s", resp.StatusCode, http.StatusText(resp.StatusCode))
		} else {
			err = fmt.Errorf("JSON decoding: %w", err)
		}
	}
	if err != nil {
		return nil, err
	}
	return raw, nil
}

// Ping attempts to create a TCP connection to the configured endpoint and
// returns an error if it fails.
func (c *Client) Ping() error {
	conn, err := net.DialTimeout("tcp", c.endpoint.Host, c.opts.DialTimeout)
	if err != nil {
		return err
	}
	_ = conn.Close()
	return nil
}

// IsConnected reports whether the node behind the endpoint is reachable and
// answers requests.
func (c *Client) IsConnected() bool {
	_, err := c.BlockNumber()
	return err == nil
}
