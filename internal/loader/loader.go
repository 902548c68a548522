// Package loader coalesces by-key lookups issued while one request is
// being resolved into batched upstream calls.
//
// Calls to Load made within the wait window (or until the batch size cap
// is reached) are collected into a single fetch. Duplicate keys share one
// batch slot, results are handed back per caller in the order the keys
// were requested, and a key with no entity fails only its own callers.
package loader

import (
	"context"
	"sync"
	"time"
)

// FetchFunc resolves a batch of distinct keys. It must return one value or
// one error per key, index-aligned with keys: results[i] and errs[i]
// correspond to keys[i]. A total upstream failure is expressed by setting
// the same error at every index.
type FetchFunc[K comparable, V any] func(ctx context.Context, keys []K) ([]V, []error)

// Config tunes batching behavior.
type Config struct {
	// Wait is how long the first Load in a batch waits for siblings
	// before the fetch fires.
	Wait time.Duration

	// MaxBatch caps keys per fetch. 0 means no cap.
	MaxBatch int
}

// Loader batches and deduplicates keyed lookups. The zero value is not
// usable; construct with New. A Loader caches resolved values for its own
// lifetime, so one Loader must not outlive the request it serves.
type Loader[K comparable, V any] struct {
	fetch    FetchFunc[K, V]
	wait     time.Duration
	maxBatch int

	mu    sync.Mutex
	cache map[K]V
	batch *batch[K, V]
}

// New creates a Loader backed by fetch.
func New[K comparable, V any](fetch FetchFunc[K, V], cfg Config) *Loader[K, V] {
	wait := cfg.Wait
	if wait <= 0 {
		wait = 2 * time.Millisecond
	}
	return &Loader[K, V]{fetch: fetch, wait: wait, maxBatch: cfg.MaxBatch}
}

type batch[K comparable, V any] struct {
	ctx     context.Context
	keys    []K
	values  []V
	errs    []error
	closing bool
	done    chan struct{}
}

// Load resolves one key, blocking until its batch settles.
func (l *Loader[K, V]) Load(ctx context.Context, key K) (V, error) {
	return l.LoadThunk(ctx, key)()
}

// LoadThunk registers key in the current batch and returns a function that
// blocks until the batch settles. It lets a caller register many keys
// before forcing any of them.
func (l *Loader[K, V]) LoadThunk(ctx context.Context, key K) func() (V, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if v, ok := l.cache[key]; ok {
		return func() (V, error) { return v, nil }
	}
	if l.batch == nil {
		l.batch = &batch[K, V]{ctx: ctx, done: make(chan struct{})}
	}
	b := l.batch
	pos := b.keyIndex(l, key)

	return func() (V, error) {
		<-b.done

		var v V
		if pos < len(b.values) {
			v = b.values[pos]
		}
		var err error
		if pos < len(b.errs) {
			err = b.errs[pos]
		}
		if err != nil {
			return v, err
		}

		l.mu.Lock()
		l.unsafeSet(key, v)
		l.mu.Unlock()
		return v, nil
	}
}

// LoadAll resolves many keys at once. The returned slices are index-aligned
// with keys, for any permutation or duplication of keys.
func (l *Loader[K, V]) LoadAll(ctx context.Context, keys []K) ([]V, []error) {
	thunks := make([]func() (V, error), len(keys))
	for i, key := range keys {
		thunks[i] = l.LoadThunk(ctx, key)
	}
	values := make([]V, len(keys))
	errs := make([]error, len(keys))
	for i, thunk := range thunks {
		values[i], errs[i] = thunk()
	}
	return values, errs
}

// Prime seeds the cache with a known value. It reports whether the value
// was stored; an existing entry wins.
func (l *Loader[K, V]) Prime(key K, value V) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, found := l.cache[key]; found {
		return false
	}
	l.unsafeSet(key, value)
	return true
}

func (l *Loader[K, V]) unsafeSet(key K, value V) {
	if l.cache == nil {
		l.cache = map[K]V{}
	}
	l.cache[key] = value
}

// keyIndex returns the slot of key in the batch, registering it if absent.
// The first key arms the wait timer; hitting the batch cap seals the batch
// so the next Load starts a fresh one.
func (b *batch[K, V]) keyIndex(l *Loader[K, V], key K) int {
	for i, existing := range b.keys {
		if key == existing {
			return i
		}
	}

	pos := len(b.keys)
	b.keys = append(b.keys, key)
	if pos == 0 {
		go b.startTimer(l)
	}
	if l.maxBatch != 0 && pos >= l.maxBatch-1 && !b.closing {
		b.closing = true
		l.batch = nil
		go b.settle(l)
	}
	return pos
}

func (b *batch[K, V]) startTimer(l *Loader[K, V]) {
	time.Sleep(l.wait)
	l.mu.Lock()
	if b.closing {
		// batch cap already sealed this batch
		l.mu.Unlock()
		return
	}
	l.batch = nil
	l.mu.Unlock()
	b.settle(l)
}

func (b *batch[K, V]) settle(l *Loader[K, V]) {
	b.values, b.errs = l.fetch(b.ctx, b.keys)
	close(b.done)
}
