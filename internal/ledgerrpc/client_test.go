package ledgerrpc

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgergate/ledgergate/internal/ledger"
)

// rpcStub is an httptest JSON-RPC endpoint with canned results per method.
type rpcStub struct {
	mu       sync.Mutex
	results  map[string]any
	requests []rpcRequest
	headers  http.Header
	status   int
	rpcErr   *rpcError
}

func newRPCStub() *rpcStub {
	return &rpcStub{results: map[string]any{}}
}

func (s *rpcStub) handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		s.mu.Lock()
		s.requests = append(s.requests, req)
		s.headers = r.Header.Clone()
		s.mu.Unlock()

		if s.status != 0 {
			http.Error(w, "boom", s.status)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		if s.rpcErr != nil {
			_ = json.NewEncoder(w).Encode(map[string]any{
				"jsonrpc": "2.0", "id": req.ID, "error": s.rpcErr,
			})
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"jsonrpc": "2.0", "id": req.ID, "result": s.results[req.Method],
		})
	}
}

func (s *rpcStub) lastRequest(t *testing.T) rpcRequest {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	require.NotEmpty(t, s.requests)
	return s.requests[len(s.requests)-1]
}

func TestMultiGetTransactionsDecodesKinds(t *testing.T) {
	stub := newRPCStub()
	stub.results["ledger_multiGetTransactions"] = []map[string]any{
		{
			"digest": "t1", "sender": "alice", "gasBudget": 100, "success": true,
			"kind": map[string]any{"type": "transfer", "recipient": "bob", "amount": 7},
		},
		{
			"digest": "t2", "sender": "bob",
			"kind":       map[string]any{"type": "call", "package": "0x2", "module": "coin", "function": "mint"},
			"checkpoint": "cp9",
		},
		{
			"digest": "t3", "sender": "eve",
			"kind": map[string]any{"type": "upgrade"},
		},
	}
	srv := httptest.NewServer(stub.handler())
	defer srv.Close()

	c := New(srv.URL)
	txs, err := c.MultiGetTransactions(context.Background(), []string{"t1", "t2", "t3"})
	require.NoError(t, err)
	require.Len(t, txs, 3)

	transfer, ok := txs[0].Kind.(ledger.TransferKind)
	require.True(t, ok)
	assert.Equal(t, "bob", transfer.Recipient)
	assert.Equal(t, uint64(7), transfer.Amount)
	assert.True(t, txs[0].Success)
	assert.Nil(t, txs[0].CheckpointDigest)

	call, ok := txs[1].Kind.(ledger.CallKind)
	require.True(t, ok)
	assert.Equal(t, "coin", call.Module)
	require.NotNil(t, txs[1].CheckpointDigest)
	assert.Equal(t, "cp9", *txs[1].CheckpointDigest)

	unknown, ok := txs[2].Kind.(ledger.UnknownKind)
	require.True(t, ok)
	assert.Equal(t, "upgrade", unknown.Tag)

	req := stub.lastRequest(t)
	assert.Equal(t, "2.0", req.JSONRPC)
	assert.Equal(t, []any{[]any{"t1", "t2", "t3"}}, req.Params)
}

func TestListCheckpointsParams(t *testing.T) {
	stub := newRPCStub()
	stub.results["ledger_getCheckpoints"] = map[string]any{
		"data": []map[string]any{
			{"digest": "cp1", "sequenceNumber": 1, "epoch": 0},
			{"digest": "cp2", "sequenceNumber": 2, "epoch": 0},
		},
		"nextCursor":  "2",
		"hasNextPage": true,
	}
	srv := httptest.NewServer(stub.handler())
	defer srv.Close()

	c := New(srv.URL)
	cursor := "0"
	page, err := c.ListCheckpoints(context.Background(), &cursor, 2, true)
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.Equal(t, uint64(2), page.Items[1].SequenceNumber)
	require.NotNil(t, page.NextCursor)
	assert.Equal(t, "2", *page.NextCursor)
	assert.True(t, page.HasNextPage)

	req := stub.lastRequest(t)
	assert.Equal(t, "ledger_getCheckpoints", req.Method)
	assert.Equal(t, []any{"0", float64(2), true}, req.Params)
}

func TestListTransactionsOmitsEmptyFilter(t *testing.T) {
	stub := newRPCStub()
	stub.results["ledger_getTransactions"] = map[string]any{"data": []any{}}
	srv := httptest.NewServer(stub.handler())
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.ListTransactions(context.Background(), ledger.TransactionFilter{}, nil, 20, false)
	require.NoError(t, err)

	req := stub.lastRequest(t)
	assert.Equal(t, []any{nil, nil, float64(20), false}, req.Params)

	seq := uint64(4)
	_, err = c.ListTransactions(context.Background(), ledger.TransactionFilter{Sender: "alice", Checkpoint: &seq}, nil, 20, false)
	require.NoError(t, err)

	req = stub.lastRequest(t)
	assert.Equal(t, map[string]any{"sender": "alice", "checkpoint": float64(4)}, req.Params[0])
}

func TestEventPayloadPreservedAsJSON(t *testing.T) {
	stub := newRPCStub()
	stub.results["ledger_getEvents"] = map[string]any{
		"data": []map[string]any{
			{"txDigest": "t1", "eventSeq": 0, "type": "Mint", "payload": map[string]any{"amount": 5}},
			{"txDigest": "t1", "eventSeq": 1, "type": "Ping"},
		},
	}
	srv := httptest.NewServer(stub.handler())
	defer srv.Close()

	c := New(srv.URL)
	page, err := c.ListEvents(context.Background(), ledger.EventFilter{TxDigest: "t1"}, nil, 10, false)
	require.NoError(t, err)
	require.Len(t, page.Items, 2)
	assert.JSONEq(t, `{"amount":5}`, page.Items[0].PayloadJSON)
	assert.Empty(t, page.Items[1].PayloadJSON)
}

func TestRPCErrorSurfaces(t *testing.T) {
	stub := newRPCStub()
	stub.rpcErr = &rpcError{Code: -32000, Message: "checkpoint pruned"}
	srv := httptest.NewServer(stub.handler())
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.MultiGetCheckpoints(context.Background(), []string{"cp1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "checkpoint pruned")
	assert.False(t, ledger.IsNotFound(err))
}

func TestHTTPErrorSurfaces(t *testing.T) {
	stub := newRPCStub()
	stub.status = http.StatusBadGateway
	srv := httptest.NewServer(stub.handler())
	defer srv.Close()

	c := New(srv.URL)
	_, err := c.MultiGetObjects(context.Background(), []string{"o1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 502")
}

func TestHeadersAndTimeoutOptions(t *testing.T) {
	stub := newRPCStub()
	stub.results["ledger_getEpochs"] = map[string]any{"data": []any{}}
	srv := httptest.NewServer(stub.handler())
	defer srv.Close()

	c := New(srv.URL,
		WithHeader("Authorization", "Bearer token"),
		WithRPCTimeout(time.Second),
	)
	_, err := c.ListEpochs(context.Background(), nil, 50)
	require.NoError(t, err)
	assert.Equal(t, "Bearer token", stub.headers.Get("Authorization"))
	assert.Equal(t, "application/json", stub.headers.Get("Content-Type"))
}

func TestCallTimeout(t *testing.T) {
	blocked := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-blocked
	}))
	defer srv.Close()
	defer close(blocked)

	c := New(srv.URL, WithRPCTimeout(20*time.Millisecond))
	_, err := c.MultiGetFunctions(context.Background(), []string{"p,m,f"})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
