package ledger

import "context"

// Page is one page of a paged upstream listing. NextCursor is an opaque
// resume token understood only by the upstream; it is nil on the last page.
type Page[T any] struct {
	Items       []T
	NextCursor  *string
	HasNextPage bool
}

// Client is the upstream collaborator surface this gateway depends on.
//
// Batch calls may return entities in any order and may omit entities whose
// keys do not exist; callers must re-associate results by identity, never
// by position. Paged calls require an explicit limit and report whether
// more pages exist beyond the returned cursor.
type Client interface {
	MultiGetCheckpoints(ctx context.Context, digests []string) ([]*Checkpoint, error)
	MultiGetTransactions(ctx context.Context, digests []string) ([]*Transaction, error)
	MultiGetObjects(ctx context.Context, ids []string) ([]*Object, error)
	MultiGetFunctions(ctx context.Context, refs []string) ([]*Function, error)

	ListCheckpoints(ctx context.Context, cursor *string, limit int, descending bool) (Page[*Checkpoint], error)
	ListTransactions(ctx context.Context, filter TransactionFilter, cursor *string, limit int, descending bool) (Page[*Transaction], error)
	ListEvents(ctx context.Context, filter EventFilter, cursor *string, limit int, descending bool) (Page[*Event], error)
	ListOwnedObjects(ctx context.Context, owner string, cursor *string, limit int) (Page[*Object], error)

	// ListEpochs only walks forward; the upstream has no by-number epoch
	// lookup and no descending iteration for epochs.
	ListEpochs(ctx context.Context, cursor *string, limit int) (Page[*Epoch], error)
}
