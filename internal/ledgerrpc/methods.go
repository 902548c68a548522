package ledgerrpc

import (
	"context"
	"encoding/json"

	"github.com/ledgergate/ledgergate/internal/ledger"
)

func (c *Client) MultiGetCheckpoints(ctx context.Context, digests []string) ([]*ledger.Checkpoint, error) {
	var out []*wireCheckpoint
	if err := c.call(ctx, "ledger_multiGetCheckpoints", []any{digests}, &out); err != nil {
		return nil, err
	}
	return mapSlice(out, (*wireCheckpoint).domain), nil
}

func (c *Client) MultiGetTransactions(ctx context.Context, digests []string) ([]*ledger.Transaction, error) {
	var out []*wireTransaction
	if err := c.call(ctx, "ledger_multiGetTransactions", []any{digests}, &out); err != nil {
		return nil, err
	}
	return mapSlice(out, (*wireTransaction).domain), nil
}

func (c *Client) MultiGetObjects(ctx context.Context, ids []string) ([]*ledger.Object, error) {
	var out []*wireObject
	if err := c.call(ctx, "ledger_multiGetObjects", []any{ids}, &out); err != nil {
		return nil, err
	}
	return mapSlice(out, (*wireObject).domain), nil
}

func (c *Client) MultiGetFunctions(ctx context.Context, refs []string) ([]*ledger.Function, error) {
	var out []*wireFunction
	if err := c.call(ctx, "ledger_multiGetFunctions", []any{refs}, &out); err != nil {
		return nil, err
	}
	return mapSlice(out, (*wireFunction).domain), nil
}

func (c *Client) ListCheckpoints(ctx context.Context, cursor *string, limit int, descending bool) (ledger.Page[*ledger.Checkpoint], error) {
	var out wirePage[*wireCheckpoint]
	if err := c.call(ctx, "ledger_getCheckpoints", []any{cursor, limit, descending}, &out); err != nil {
		return ledger.Page[*ledger.Checkpoint]{}, err
	}
	return mapPage(out, (*wireCheckpoint).domain), nil
}

type wireTransactionFilter struct {
	Sender     string  `json:"sender,omitempty"`
	Checkpoint *uint64 `json:"checkpoint,omitempty"`
}

func (c *Client) ListTransactions(ctx context.Context, filter ledger.TransactionFilter, cursor *string, limit int, descending bool) (ledger.Page[*ledger.Transaction], error) {
	var wf any
	if filter != (ledger.TransactionFilter{}) {
		wf = wireTransactionFilter{Sender: filter.Sender, Checkpoint: filter.Checkpoint}
	}
	var out wirePage[*wireTransaction]
	if err := c.call(ctx, "ledger_getTransactions", []any{wf, cursor, limit, descending}, &out); err != nil {
		return ledger.Page[*ledger.Transaction]{}, err
	}
	return mapPage(out, (*wireTransaction).domain), nil
}

type wireEventFilter struct {
	TxDigest string `json:"txDigest,omitempty"`
	Sender   string `json:"sender,omitempty"`
}

func (c *Client) ListEvents(ctx context.Context, filter ledger.EventFilter, cursor *string, limit int, descending bool) (ledger.Page[*ledger.Event], error) {
	var wf any
	if filter != (ledger.EventFilter{}) {
		wf = wireEventFilter{TxDigest: filter.TxDigest, Sender: filter.Sender}
	}
	var out wirePage[*wireEvent]
	if err := c.call(ctx, "ledger_getEvents", []any{wf, cursor, limit, descending}, &out); err != nil {
		return ledger.Page[*ledger.Event]{}, err
	}
	return mapPage(out, (*wireEvent).domain), nil
}

func (c *Client) ListOwnedObjects(ctx context.Context, owner string, cursor *string, limit int) (ledger.Page[*ledger.Object], error) {
	var out wirePage[*wireObject]
	if err := c.call(ctx, "ledger_getOwnedObjects", []any{owner, cursor, limit}, &out); err != nil {
		return ledger.Page[*ledger.Object]{}, err
	}
	return mapPage(out, (*wireObject).domain), nil
}

func (c *Client) ListEpochs(ctx context.Context, cursor *string, limit int) (ledger.Page[*ledger.Epoch], error) {
	var out wirePage[*wireEpoch]
	if err := c.call(ctx, "ledger_getEpochs", []any{cursor, limit}, &out); err != nil {
		return ledger.Page[*ledger.Epoch]{}, err
	}
	return mapPage(out, (*wireEpoch).domain), nil
}

func mapSlice[W, D any](in []W, f func(W) D) []D {
	out := make([]D, len(in))
	for i, w := range in {
		out[i] = f(w)
	}
	return out
}

func mapPage[W, D any](p wirePage[W], f func(W) D) ledger.Page[D] {
	return ledger.Page[D]{
		Items:       mapSlice(p.Data, f),
		NextCursor:  p.NextCursor,
		HasNextPage: p.HasNextPage,
	}
}

func marshalPayload(v any) string {
	if v == nil {
		return ""
	}
	b, err := json.Marshal(v)
	if err != nil {
		return ""
	}
	return string(b)
}
