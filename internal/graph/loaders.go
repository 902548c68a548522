package graph

import (
	"context"
	"time"

	"github.com/ledgergate/ledgergate/internal/eventbus"
	"github.com/ledgergate/ledgergate/internal/events"
	"github.com/ledgergate/ledgergate/internal/ledger"
	"github.com/ledgergate/ledgergate/internal/loader"
)

// Loader tuning shared by every entity type. The wait window only needs to
// outlast one scheduling pass of sibling resolvers; the batch cap matches
// what the upstream accepts per multi-get call.
var loaderConfig = loader.Config{Wait: 2 * time.Millisecond, MaxBatch: 50}

// Loaders bundles the per-request entity loaders. A bundle is created for
// each incoming operation and discarded with it, so deduplication never
// leaks across requests.
type Loaders struct {
	Checkpoints  *loader.Loader[string, *ledger.Checkpoint]
	Transactions *loader.Loader[string, *ledger.Transaction]
	Objects      *loader.Loader[string, *ledger.Object]
	Functions    *loader.Loader[string, *ledger.Function]
}

// NewLoaders builds a fresh bundle over client.
func NewLoaders(client ledger.Client) *Loaders {
	return &Loaders{
		Checkpoints: loader.New(instrumented(ledger.KindCheckpoint, loader.ByKey(
			client.MultiGetCheckpoints,
			func(c *ledger.Checkpoint) string { return c.Digest },
			func(key string) error { return ledger.NotFound(ledger.KindCheckpoint, key) },
		)), loaderConfig),
		Transactions: loader.New(instrumented(ledger.KindTransaction, loader.ByKey(
			client.MultiGetTransactions,
			func(t *ledger.Transaction) string { return t.Digest },
			func(key string) error { return ledger.NotFound(ledger.KindTransaction, key) },
		)), loaderConfig),
		Objects: loader.New(instrumented(ledger.KindObject, loader.ByKey(
			client.MultiGetObjects,
			func(o *ledger.Object) string { return o.ID },
			func(key string) error { return ledger.NotFound(ledger.KindObject, key) },
		)), loaderConfig),
		Functions: loader.New(instrumented(ledger.KindFunction, loader.ByKey(
			client.MultiGetFunctions,
			func(f *ledger.Function) string { return f.Ref() },
			func(key string) error { return ledger.NotFound(ledger.KindFunction, key) },
		)), loaderConfig),
	}
}

// instrumented publishes a LoaderBatch event for every settled batch.
func instrumented[V any](entity string, fetch loader.FetchFunc[string, V]) loader.FetchFunc[string, V] {
	return func(ctx context.Context, keys []string) ([]V, []error) {
		start := time.Now()
		values, errs := fetch(ctx, keys)
		misses := 0
		for _, err := range errs {
			if ledger.IsNotFound(err) {
				misses++
			}
		}
		eventbus.Publish(ctx, events.LoaderBatch{
			Entity:   entity,
			Keys:     len(keys),
			Misses:   misses,
			Duration: time.Since(start),
		})
		return values, errs
	}
}

type loadersKey struct{}

// WithLoaders stores a bundle in ctx for the duration of one operation.
func WithLoaders(ctx context.Context, l *Loaders) context.Context {
	return context.WithValue(ctx, loadersKey{}, l)
}

// LoadersFrom extracts the bundle of the current operation. It panics when
// absent: resolvers only ever run under a context prepared by Execute.
func LoadersFrom(ctx context.Context) *Loaders {
	l, ok := ctx.Value(loadersKey{}).(*Loaders)
	if !ok {
		panic("graph: no loaders in context")
	}
	return l
}
