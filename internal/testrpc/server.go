/*
Package testrpc runs a canned JSON-RPC server for client tests: handlers
are registered per method and calls are counted, so tests can both shape
node behavior and assert on the traffic.
*/
package testrpc

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/mexyusef/fmus-fintech/pkg/evmrpc"
)

// Handler produces the result (or wire error) for one request, given its
// raw positional parameters.
type Handler func(params []json.RawMessage) (any, *evmrpc.Error)

// Server is a fake JSON-RPC node. Register handlers with On and friends,
// point a client at URL.
type Server struct {
	*httptest.Server

	mu       sync.Mutex
	handlers map[string]Handler
	calls    map[string]int
}

// New starts a fake node, it's shut down automatically when the test ends.
func New(t *testing.T) *Server {
	s := &Server{
		handlers: make(map[string]Handler),
		calls:    make(map[string]int),
	}
	s.Server = httptest.NewServer(http.HandlerFunc(s.handle))
	t.Cleanup(s.Close)
	return s
}

// On registers a handler for the given method, replacing any previous one.
func (s *Server) On(method string, h Handler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[method] = h
}

// OnResult registers a fixed successful result for the given method.
func (s *Server) OnResult(method string, result any) {
	s.On(method, func(_ []json.RawMessage) (any, *evmrpc.Error) {
		return result, nil
	})
}

// OnError registers a fixed wire error for the given method.
func (s *Server) OnError(method string, code int64, message string) {
	s.On(method, func(_ []json.RawMessage) (any, *evmrpc.Error) {
		return nil, evmrpc.NewError(code, message, "")
	})
}

// Calls returns how many times the given method has been requested.
func (s *Server) Calls(method string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[method]
}

type request struct {
	JSONRPC string            `json:"jsonrpc"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
	ID      uint64            `json:"id"`
}

// response always carries the result key so that "not found" null results
// reach the client the way real nodes send them.
type response struct {
	JSONRPC string        `json:"jsonrpc"`
	ID      uint64        `json:"id"`
	Result  any           `json:"result"`
	Error   *evmrpc.Error `json:"error,omitempty"`
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	var req request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	s.calls[req.Method]++
	h, ok := s.handlers[req.Method]
	s.mu.Unlock()

	resp := response{JSONRPC: evmrpc.JSONRPCVersion, ID: req.ID}
	if !ok {
		resp.Error = evmrpc.NewError(evmrpc.MethodNotFoundCode, "method not found", req.Method)
	} else if result, rpcErr := h(req.Params); rpcErr != nil {
		resp.Error = rpcErr
	} else {
		resp.Result = result
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}
