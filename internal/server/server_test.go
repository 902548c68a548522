package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgergate/ledgergate/internal/epochs"
	"github.com/ledgergate/ledgergate/internal/graph"
	"github.com/ledgergate/ledgergate/internal/ledger"
)

// stubLedger serves one checkpoint; everything else is empty.
type stubLedger struct{}

func (stubLedger) MultiGetCheckpoints(_ context.Context, digests []string) ([]*ledger.Checkpoint, error) {
	var out []*ledger.Checkpoint
	for _, d := range digests {
		if d == "cp1" {
			out = append(out, &ledger.Checkpoint{Digest: "cp1", SequenceNumber: 1})
		}
	}
	return out, nil
}

func (stubLedger) MultiGetTransactions(context.Context, []string) ([]*ledger.Transaction, error) {
	return nil, nil
}

func (stubLedger) MultiGetObjects(context.Context, []string) ([]*ledger.Object, error) {
	return nil, nil
}

func (stubLedger) MultiGetFunctions(context.Context, []string) ([]*ledger.Function, error) {
	return nil, nil
}

func (stubLedger) ListCheckpoints(context.Context, *string, int, bool) (ledger.Page[*ledger.Checkpoint], error) {
	return ledger.Page[*ledger.Checkpoint]{}, nil
}

func (stubLedger) ListTransactions(context.Context, ledger.TransactionFilter, *string, int, bool) (ledger.Page[*ledger.Transaction], error) {
	return ledger.Page[*ledger.Transaction]{}, nil
}

func (stubLedger) ListEvents(context.Context, ledger.EventFilter, *string, int, bool) (ledger.Page[*ledger.Event], error) {
	return ledger.Page[*ledger.Event]{}, nil
}

func (stubLedger) ListOwnedObjects(context.Context, string, *string, int) (ledger.Page[*ledger.Object], error) {
	return ledger.Page[*ledger.Object]{}, nil
}

func (stubLedger) ListEpochs(context.Context, *string, int) (ledger.Page[*ledger.Epoch], error) {
	return ledger.Page[*ledger.Epoch]{}, nil
}

func newTestHandler(t *testing.T, opts ...Option) *Handler {
	t.Helper()
	client := stubLedger{}
	exec, err := graph.NewExecutor(graph.NewResolver(client, epochs.NewIndex(client)))
	require.NoError(t, err)
	return New(exec, opts...)
}

const checkpointQuery = `{"query":"{ checkpoint(digest: \"cp1\") { digest } }"}`

func TestPostQuery(t *testing.T) {
	h := newTestHandler(t)
	req := httptest.NewRequest(http.MethodPost, "/graphql", strings.NewReader(checkpointQuery))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"data":{"checkpoint":{"digest":"cp1"}}}`, rec.Body.String())
}

func TestGetQuery(t *testing.T) {
	h := newTestHandler(t)
	req := httptest.NewRequest(http.MethodGet, `/graphql?query={checkpoint(digest:"cp1"){digest}}`, nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"data":{"checkpoint":{"digest":"cp1"}}}`, rec.Body.String())
}

func TestGraphiQLPage(t *testing.T) {
	h := newTestHandler(t)
	req := httptest.NewRequest(http.MethodGet, "/graphql", nil)
	req.Header.Set("Accept", "text/html")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
	assert.Contains(t, rec.Body.String(), "graphiql")
}

func TestGraphiQLDisabled(t *testing.T) {
	h := newTestHandler(t, WithGraphiQL(false))
	req := httptest.NewRequest(http.MethodGet, "/graphql", nil)
	req.Header.Set("Accept", "text/html")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMissingQuery(t *testing.T) {
	h := newTestHandler(t)
	req := httptest.NewRequest(http.MethodPost, "/graphql", strings.NewReader(`{}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "missing 'query'")
}

func TestMethodNotAllowed(t *testing.T) {
	h := newTestHandler(t)
	req := httptest.NewRequest(http.MethodDelete, "/graphql", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestUnsupportedContentType(t *testing.T) {
	h := newTestHandler(t)
	req := httptest.NewRequest(http.MethodPost, "/graphql", strings.NewReader("query=x"))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "unsupported Content-Type")
}

func TestBodyTooLarge(t *testing.T) {
	h := newTestHandler(t, WithMaxBodyBytes(16))
	req := httptest.NewRequest(http.MethodPost, "/graphql", strings.NewReader(checkpointQuery))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}

func TestBatchRequest(t *testing.T) {
	h := newTestHandler(t)
	body := `[
		{"query": "{ checkpoint(digest: \"cp1\") { digest } }"},
		{"query": "{ checkpoint(digest: \"cp1\") { sequenceNumber } }"}
	]`
	req := httptest.NewRequest(http.MethodPost, "/graphql", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var out []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	require.Len(t, out, 2)
	assert.Equal(t, map[string]any{"checkpoint": map[string]any{"digest": "cp1"}}, out[0]["data"])
	assert.Equal(t, map[string]any{"checkpoint": map[string]any{"sequenceNumber": "1"}}, out[1]["data"])
}

func TestEmptyBatchRejected(t *testing.T) {
	h := newTestHandler(t)
	req := httptest.NewRequest(http.MethodPost, "/graphql", strings.NewReader(`[]`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	h := newTestHandler(t, WithCORS("https://app.example.com"))
	req := httptest.NewRequest(http.MethodOptions, "/graphql", nil)
	req.Header.Set("Origin", "https://app.example.com")
	req.Header.Set("Access-Control-Request-Headers", "content-type")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "content-type", rec.Header().Get("Access-Control-Allow-Headers"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Methods"), "POST")
}

func TestCORSDisallowedOrigin(t *testing.T) {
	h := newTestHandler(t, WithCORS("https://app.example.com"))
	req := httptest.NewRequest(http.MethodPost, "/graphql", strings.NewReader(checkpointQuery))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Origin", "https://evil.example.com")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestCORSWildcard(t *testing.T) {
	h := newTestHandler(t, WithCORS("*"))
	req := httptest.NewRequest(http.MethodPost, "/graphql", strings.NewReader(checkpointQuery))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Origin", "https://anywhere.example.com")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}
