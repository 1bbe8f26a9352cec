package rpcclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/atomic"
	"go.uber.org/zap"

	"github.com/mexyusef/fmus-fintech/pkg/evmrpc"
	"github.com/mexyusef/fmus-fintech/pkg/evmrpc/result"
)

// WSClient is a websocket-enabled RPC client that can be used with appropriate
// servers. It's supposed to be used once, i.e. after Close it can't be used
// again and a new client needs to be created instead. It exposes the same
// request methods as the regular Client and adds eth_subscribe push events on
// top of them. Subscription event channels are written to from the connection
// reader, so the receiver has to read them timely, otherwise it'll block event
// processing for the whole client.
type WSClient struct {
	Client

	ws          *websocket.Conn
	wsOpts      WSOptions
	closeCalled atomic.Bool
	closeErr    error
	shutdown    chan struct{}
	readerDone  chan struct{}
	writerDone  chan struct{}
	requests    chan *evmrpc.Request

	respLock     sync.RWMutex
	respChannels map[uint64]chan *evmrpc.Response

	subscriptionsLock sync.RWMutex
	subscriptions     map[string]notificationReceiver
}

// WSOptions defines websocket-specific options for the client. It inherits
// Options.
type WSOptions struct {
	Options
}

// notificationReceiver delivers raw eth_subscription payloads to a
// subscriber-provided typed channel.
type notificationReceiver interface {
	deliver(raw json.RawMessage, shutdown chan struct{}) error
}

type headerReceiver struct {
	ch chan<- *result.Header
}

func (r headerReceiver) deliver(raw json.RawMessage, shutdown chan struct{}) error {
	h := new(result.Header)
	if err := json.Unmarshal(raw, h); err != nil {
		return err
	}
	select {
	case r.ch <- h:
	case <-shutdown:
	}
	return nil
}

type logReceiver struct {
	ch chan<- *result.Log
}

func (r logReceiver) deliver(raw json.RawMessage, shutdown chan struct{}) error {
	l := new(result.Log)
	if err := json.Unmarshal(raw, l); err != nil {
		return err
	}
	select {
	case r.ch <- l:
	case <-shutdown:
	}
	return nil
}

// wsIncoming covers both response and notification messages coming from the
// server, they're distinguished by the Method field.
type wsIncoming struct {
	evmrpc.HeaderAndError
	Method string                    `json:"method,omitempty"`
	Params evmrpc.NotificationParams `json:"params,omitempty"`
	Result json.RawMessage           `json:"result,omitempty"`
}

const (
	// wsPongLimit is a timeout for WS connection liveness check.
	wsPongLimit = 60 * time.Second
	// wsPingPeriod is the inactivity period after which the server connection
	// is pinged.
	wsPingPeriod = wsPongLimit / 2
	// wsWriteLimit is the timeout for a single message write.
	wsWriteLimit = wsPingPeriod / 2
)

// ErrWSConnLost is a WSClient-specific error returned for attempts to use an
// already closed (or broken) connection.
var ErrWSConnLost = errors.New("connection lost before registering response channel")

// NewWS returns a new WSClient ready to use (with established websocket
// connection). You need to use websocket URL for it like `ws://1.2.3.4/ws`.
func NewWS(ctx context.Context, endpoint string, opts WSOptions) (*WSClient, error) {
	dialer := websocket.Dialer{HandshakeTimeout: opts.DialTimeout}
	ws, resp, err := dialer.DialContext(ctx, endpoint, nil)
	if resp != nil && resp.Body != nil {
		defer resp.Body.Close()
	}
	if err != nil {
		return nil, err
	}

	wsc := &WSClient{
		ws:            ws,
		wsOpts:        opts,
		shutdown:      make(chan struct{}),
		readerDone:    make(chan struct{}),
		writerDone:    make(chan struct{}),
		requests:      make(chan *evmrpc.Request),
		respChannels:  make(map[uint64]chan *evmrpc.Response),
		subscriptions: make(map[string]notificationReceiver),
	}

	err = initClient(ctx, &wsc.Client, endpoint, opts.Options)
	if err != nil {
		return nil, err
	}
	wsc.Client.cli = nil
	wsc.Client.requestF = wsc.makeWsRequest
	go wsc.wsReader()
	go wsc.wsWriter()
	return wsc, nil
}

// Close closes connection to the remote side rendering this client instance
// unusable.
func (c *WSClient) Close() {
	if c.closeCalled.CompareAndSwap(false, true) {
		// Closing shutdown channel sends a signal to wsWriter to break out of
		// the loop. In doing so it does ws.Close() closing the network
		// connection which in turn makes wsReader receive an err from
		// ws.ReadMessage() and also break out of the loop.
		close(c.shutdown)
	}
	<-c.readerDone
}

// Err returns the error that caused the connection loss, if any. It's only
// valid to call it after the client is closed.
func (c *WSClient) Err() error {
	return c.closeErr
}

func (c *WSClient) setCloseErr(err error) {
	if c.closeErr == nil {
		c.closeErr = err
	}
}

func (c *WSClient) wsReader() {
	_ = c.ws.SetReadDeadline(time.Now().Add(wsPongLimit))
	c.ws.SetPongHandler(func(string) error { return c.ws.SetReadDeadline(time.Now().Add(wsPongLimit)) })
readloop:
	for {
		in := new(wsIncoming)
		err := c.ws.ReadJSON(in)
		if err != nil {
			// Timeout/connection loss/malformed response.
			c.setCloseErr(fmt.Errorf("failed to read JSON response: %w", err))
			break readloop
		}
		_ = c.ws.SetReadDeadline(time.Now().Add(wsPongLimit))
		if in.Method == "eth_subscription" {
			c.subscriptionsLock.RLock()
			rcvr, ok := c.subscriptions[in.Params.Subscription]
			c.subscriptionsLock.RUnlock()
			if !ok {
				// Events for subscriptions being unsubscribed can leak here,
				// they're harmless.
				continue
			}
			if err := rcvr.deliver(in.Params.Result, c.shutdown); err != nil {
				c.log.Warn("failed to deliver subscription event",
					zap.String("subscription", in.Params.Subscription),
					zap.Error(err))
			}
			continue
		}
		var id uint64
		if err := json.Unmarshal(in.ID, &id); err != nil {
			c.setCloseErr(fmt.Errorf("failed to parse response ID: %w", err))
			break readloop
		}
		ch := c.getResponseChannel(id)
		if ch == nil {
			c.setCloseErr(fmt.Errorf("unknown response ID: %d", id))
			break readloop
		}
		resp := new(evmrpc.Response)
		resp.Header = in.Header
		resp.Error = in.Error
		resp.Result = in.Result
		ch <- resp
	}
	close(c.readerDone)
	c.respLock.Lock()
	for _, ch := range c.respChannels {
		close(ch)
	}
	c.respChannels = nil
	c.respLock.Unlock()
	c.Close()
}

func (c *WSClient) wsWriter() {
	pingTicker := time.NewTicker(wsPingPeriod)
	defer c.ws.Close()
	defer pingTicker.Stop()
	defer close(c.writerDone)
	for {
		select {
		case <-c.shutdown:
			return
		case <-c.readerDone:
			return
		case req := <-c.requests:
			if err := c.ws.SetWriteDeadline(time.Now().Add(c.opts.RequestTimeout)); err != nil {
				c.setCloseErr(fmt.Errorf("failed to set request write deadline: %w", err))
				return
			}
			if err := c.ws.WriteJSON(req); err != nil {
				c.setCloseErr(fmt.Errorf("failed to write JSON request: %w", err))
				return
			}
		case <-pingTicker.C:
			if err := c.ws.SetWriteDeadline(time.Now().Add(wsWriteLimit)); err != nil {
				c.setCloseErr(fmt.Errorf("failed to set ping write deadline: %w", err))
				return
			}
			if err := c.ws.WriteMessage(websocket.PingMessage, []byte{}); err != nil {
				c.setCloseErr(fmt.Errorf("failed to write ping message: %w", err))
				return
			}
		}
	}
}

func (c *WSClient) getResponseChannel(id uint64) chan *evmrpc.Response {
	c.respLock.RLock()
	defer c.respLock.RUnlock()
	return c.respChannels[id]
}

func (c *WSClient) makeWsRequest(r *evmrpc.Request) (*evmrpc.Response, error) {
	ch := make(chan *evmrpc.Response, 1)
	c.respLock.Lock()
	select {
	case <-c.readerDone:
		c.respLock.Unlock()
		return nil, ErrWSConnLost
	default:
		c.respChannels[r.ID] = ch
		c.respLock.Unlock()
	}
	defer func() {
		c.respLock.Lock()
		delete(c.respChannels, r.ID)
		c.respLock.Unlock()
	}()
	select {
	case <-c.readerDone:
		return nil, ErrWSConnLost
	case <-c.writerDone:
		return nil, ErrWSConnLost
	case c.requests <- r:
	}
	select {
	case <-c.readerDone:
		return nil, ErrWSConnLost
	case resp, ok := <-ch:
		if !ok {
			return nil, ErrWSConnLost
		}
		return resp, nil
	}
}

func (c *WSClient) performSubscription(params []any, rcvr notificationReceiver) (string, error) {
	var resp string

	// The lock is held across the request, so that events the server pushes
	// right behind the subscribe acknowledgment can't slip past the reader
	// before the receiver is in the map: the reader blocks on the lookup
	// until registration is done. Nothing is registered on error, so there
	// is nothing to undo.
	c.subscriptionsLock.Lock()
	defer c.subscriptionsLock.Unlock()

	if err := c.performRequest("eth_subscribe", params, &resp); err != nil {
		return "", err
	}

	c.subscriptions[resp] = rcvr
	return resp, nil
}

// SubscribeNewHeads subscribes to new block header events, headers are sent
// to the given channel. The returned value is the subscription ID that can be
// used to unsubscribe.
func (c *WSClient) SubscribeNewHeads(ch chan<- *result.Header) (string, error) {
	return c.performSubscription([]any{"newHeads"}, headerReceiver{ch: ch})
}

// SubscribeLogs subscribes to contract log events matching the given filter,
// logs are sent to the given channel. The returned value is the subscription
// ID that can be used to unsubscribe.
func (c *WSClient) SubscribeLogs(filter evmrpc.LogFilter, ch chan<- *result.Log) (string, error) {
	return c.performSubscription([]any{"logs", filter}, logReceiver{ch: ch})
}

// Unsubscribe removes the subscription with the given ID, no more events will
// be sent to its channel.
func (c *WSClient) Unsubscribe(id string) error {
	c.subscriptionsLock.Lock()
	_, ok := c.subscriptions[id]
	delete(c.subscriptions, id)
	c.subscriptionsLock.Unlock()
	if !ok {
		return fmt.Errorf("unknown subscription ID: %s", id)
	}

	var resp bool
	if err := c.performRequest("eth_unsubscribe", []any{id}, &resp); err != nil {
		return err
	}
	if !resp {
		return fmt.Errorf("failed to unsubscribe: %s", id)
	}
	return nil
}
