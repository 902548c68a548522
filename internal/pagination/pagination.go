// Package pagination bridges the upstream's "limit + opaque cursor +
// has-more" paging protocol into GraphQL cursor connections.
package pagination

import (
	"context"
	"errors"
	"fmt"

	"github.com/ledgergate/ledgergate/internal/ledger"
)

// ErrBackwardPagination is returned for any request that pages backward.
// The upstream only iterates forward, so this is a defined error rather
// than a capability.
var ErrBackwardPagination = errors.New("backward pagination is not supported")

const (
	// DefaultPageSize applies when the caller gives no usable page size.
	// The upstream requires an explicit limit on every paged call.
	DefaultPageSize = 20

	// MaxPageSize caps what we forward upstream regardless of `first`.
	MaxPageSize = 50
)

// Args are the standard connection arguments of a plural field.
type Args struct {
	First  *int
	After  *string
	Last   *int
	Before *string
}

// Edge pairs one node with the cursor that resumes iteration after it.
type Edge[T any] struct {
	Node   T
	Cursor string
}

// PageInfo describes the position of a connection page.
// HasPreviousPage is always false: backward iteration is unsupported.
type PageInfo struct {
	HasNextPage     bool
	HasPreviousPage bool
	StartCursor     *string
	EndCursor       *string
}

// Connection is the edges/pageInfo envelope for one page of results.
type Connection[T any] struct {
	Edges    []Edge[T]
	PageInfo PageInfo
}

// FetchFunc retrieves one upstream page. The descending flag is handed
// through untouched so listings that want newest-first order can flip the
// upstream iteration while the connection's edge order still reflects
// what the caller asked for.
type FetchFunc[T any] func(ctx context.Context, cursor *string, limit int, descending bool) (ledger.Page[T], error)

// Paginate drives exactly one fetch and folds the page into a connection.
// It never loops: protocol-level progress is the caller re-invoking the
// field with pageInfo.endCursor as the next `after`.
//
// cursorOf must be a pure function of the entity's own fields so the same
// entity always yields the same cursor, independent of page position.
func Paginate[T any](ctx context.Context, args Args, descending bool, fetch FetchFunc[T], cursorOf func(T) string) (*Connection[T], error) {
	limit, err := pageLimit(args)
	if err != nil {
		return nil, err
	}
	if limit == 0 {
		return &Connection[T]{Edges: []Edge[T]{}}, nil
	}

	page, err := fetch(ctx, args.After, limit, descending)
	if err != nil {
		return nil, err
	}

	conn := &Connection[T]{Edges: make([]Edge[T], 0, len(page.Items))}
	for _, item := range page.Items {
		conn.Edges = append(conn.Edges, Edge[T]{Node: item, Cursor: cursorOf(item)})
	}
	conn.PageInfo.HasNextPage = page.HasNextPage
	if n := len(conn.Edges); n > 0 {
		start, end := conn.Edges[0].Cursor, conn.Edges[n-1].Cursor
		conn.PageInfo.StartCursor = &start
		conn.PageInfo.EndCursor = &end
	}
	return conn, nil
}

// pageLimit resolves the page size from connection arguments. `before`
// always fails; `first` and `last` together, or neither, fall back to the
// default since the upstream cannot page without a limit.
func pageLimit(args Args) (int, error) {
	if args.Before != nil {
		return 0, ErrBackwardPagination
	}
	if args.First != nil && *args.First < 0 {
		return 0, fmt.Errorf("first must be non-negative, got %d", *args.First)
	}
	limit := DefaultPageSize
	if args.First != nil && args.Last == nil {
		limit = *args.First
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	return limit, nil
}
