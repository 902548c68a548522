package graph

import (
	"context"
	"strconv"

	"github.com/ledgergate/ledgergate/internal/ledger"
	"github.com/ledgergate/ledgergate/internal/pagination"
)

// Cursor derivation per entity type. Each is a pure function of the
// entity's own fields: checkpoints order by sequence number, transactions
// and objects by their unique ids. Events have no single unique field, so
// their cursor is the composite of emitting transaction and sequence.

func checkpointCursor(c *ledger.Checkpoint) string {
	return strconv.FormatUint(c.SequenceNumber, 10)
}

func transactionCursor(t *ledger.Transaction) string { return t.Digest }

func objectCursor(o *ledger.Object) string { return o.ID }

func eventCursor(e *ledger.Event) string {
	return e.TxDigest + "," + strconv.FormatUint(e.EventSeq, 10)
}

func (r *Resolver) registerQuery() {
	r.register("Query", "checkpoint", func(ctx context.Context, _ any, args map[string]any) (any, error) {
		return LoadersFrom(ctx).Checkpoints.Load(ctx, stringArg(args, "digest"))
	})
	r.register("Query", "transaction", func(ctx context.Context, _ any, args map[string]any) (any, error) {
		return LoadersFrom(ctx).Transactions.Load(ctx, stringArg(args, "digest"))
	})
	r.register("Query", "object", func(ctx context.Context, _ any, args map[string]any) (any, error) {
		return LoadersFrom(ctx).Objects.Load(ctx, stringArg(args, "id"))
	})
	r.register("Query", "account", func(ctx context.Context, _ any, args map[string]any) (any, error) {
		return Account{Address: stringArg(args, "address")}, nil
	})
	r.register("Query", "epoch", func(ctx context.Context, _ any, args map[string]any) (any, error) {
		number, err := uint64Arg(args, "number")
		if err != nil {
			return nil, err
		}
		return r.epochs.Get(ctx, number)
	})
	r.register("Query", "function", func(ctx context.Context, _ any, args map[string]any) (any, error) {
		pkg, module, name, err := ledger.ParseFunctionRef(stringArg(args, "ref"))
		if err != nil {
			return nil, err
		}
		return LoadersFrom(ctx).Functions.Load(ctx, pkg+","+module+","+name)
	})

	r.register("Query", "checkpoints", func(ctx context.Context, _ any, args map[string]any) (any, error) {
		return pagination.Paginate(ctx, connectionArgs(args), boolArg(args, "descending"), r.client.ListCheckpoints, checkpointCursor)
	})
	r.register("Query", "transactions", func(ctx context.Context, _ any, args map[string]any) (any, error) {
		filter := ledger.TransactionFilter{Sender: stringArg(args, "sender")}
		return pagination.Paginate(ctx, connectionArgs(args), false, r.transactionFetch(filter), transactionCursor)
	})
	r.register("Query", "events", func(ctx context.Context, _ any, args map[string]any) (any, error) {
		filter := ledger.EventFilter{TxDigest: stringArg(args, "txDigest"), Sender: stringArg(args, "sender")}
		return pagination.Paginate(ctx, connectionArgs(args), false, r.eventFetch(filter), eventCursor)
	})
}

func (r *Resolver) registerCheckpoint() {
	r.register("Checkpoint", "previousDigest", func(_ context.Context, source any, _ map[string]any) (any, error) {
		cp := source.(*ledger.Checkpoint)
		if cp.PreviousDigest == "" {
			return nil, nil
		}
		return cp.PreviousDigest, nil
	})
	r.register("Checkpoint", "epoch", func(ctx context.Context, source any, _ map[string]any) (any, error) {
		return r.epochs.Get(ctx, source.(*ledger.Checkpoint).Epoch)
	})
	r.register("Checkpoint", "transactions", func(ctx context.Context, source any, args map[string]any) (any, error) {
		cp := source.(*ledger.Checkpoint)
		filter := ledger.TransactionFilter{Checkpoint: &cp.SequenceNumber}
		return pagination.Paginate(ctx, connectionArgs(args), false, r.transactionFetch(filter), transactionCursor)
	})
}

func (r *Resolver) registerTransaction() {
	r.register("Transaction", "sender", func(_ context.Context, source any, _ map[string]any) (any, error) {
		return accountOrNil(source.(*ledger.Transaction).Sender), nil
	})
	r.register("Transaction", "checkpoint", func(ctx context.Context, source any, _ map[string]any) (any, error) {
		tx := source.(*ledger.Transaction)
		if tx.CheckpointDigest == nil {
			return nil, nil
		}
		return LoadersFrom(ctx).Checkpoints.Load(ctx, *tx.CheckpointDigest)
	})
	r.register("Transaction", "events", func(ctx context.Context, source any, args map[string]any) (any, error) {
		filter := ledger.EventFilter{TxDigest: source.(*ledger.Transaction).Digest}
		return pagination.Paginate(ctx, connectionArgs(args), false, r.eventFetch(filter), eventCursor)
	})

	r.register("CallTransaction", "target", func(ctx context.Context, source any, _ map[string]any) (any, error) {
		call := source.(ledger.CallKind)
		fn, err := LoadersFrom(ctx).Functions.Load(ctx, call.Package+","+call.Module+","+call.Function)
		if ledger.IsNotFound(err) {
			// A dangling ref is a null link, not a field error.
			return nil, nil
		}
		return fn, err
	})
}

func (r *Resolver) registerObject() {
	r.register("Object", "owner", func(_ context.Context, source any, _ map[string]any) (any, error) {
		return accountOrNil(source.(*ledger.Object).Owner), nil
	})
	r.register("Object", "previousTransaction", func(ctx context.Context, source any, _ map[string]any) (any, error) {
		obj := source.(*ledger.Object)
		if obj.PreviousTransaction == "" {
			return nil, nil
		}
		return LoadersFrom(ctx).Transactions.Load(ctx, obj.PreviousTransaction)
	})
}

func (r *Resolver) registerAccount() {
	r.register("Account", "objects", func(ctx context.Context, source any, args map[string]any) (any, error) {
		owner := source.(Account).Address
		fetch := func(ctx context.Context, cursor *string, limit int, _ bool) (ledger.Page[*ledger.Object], error) {
			return r.client.ListOwnedObjects(ctx, owner, cursor, limit)
		}
		return pagination.Paginate(ctx, connectionArgs(args), false, fetch, objectCursor)
	})
	r.register("Account", "transactions", func(ctx context.Context, source any, args map[string]any) (any, error) {
		filter := ledger.TransactionFilter{Sender: source.(Account).Address}
		return pagination.Paginate(ctx, connectionArgs(args), false, r.transactionFetch(filter), transactionCursor)
	})
}

func (r *Resolver) registerEvent() {
	r.register("Event", "sender", func(_ context.Context, source any, _ map[string]any) (any, error) {
		return accountOrNil(source.(*ledger.Event).Sender), nil
	})
	r.register("Event", "payload", func(_ context.Context, source any, _ map[string]any) (any, error) {
		e := source.(*ledger.Event)
		if e.PayloadJSON == "" {
			return nil, nil
		}
		return e.PayloadJSON, nil
	})
}

func (r *Resolver) transactionFetch(filter ledger.TransactionFilter) pagination.FetchFunc[*ledger.Transaction] {
	return func(ctx context.Context, cursor *string, limit int, descending bool) (ledger.Page[*ledger.Transaction], error) {
		return r.client.ListTransactions(ctx, filter, cursor, limit, descending)
	}
}

func (r *Resolver) eventFetch(filter ledger.EventFilter) pagination.FetchFunc[*ledger.Event] {
	return func(ctx context.Context, cursor *string, limit int, descending bool) (ledger.Page[*ledger.Event], error) {
		return r.client.ListEvents(ctx, filter, cursor, limit, descending)
	}
}

func accountOrNil(address string) any {
	if address == "" {
		return nil
	}
	return Account{Address: address}
}
