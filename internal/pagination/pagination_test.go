package pagination

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ledgergate/ledgergate/internal/ledger"
)

type item struct {
	ID string
}

func itemCursor(it *item) string { return it.ID }

// recordingFetch captures every upstream call and serves a canned page.
type recordingFetch struct {
	calls      int
	cursor     *string
	limit      int
	descending bool
	page       ledger.Page[*item]
	err        error
}

func (f *recordingFetch) fetch(_ context.Context, cursor *string, limit int, descending bool) (ledger.Page[*item], error) {
	f.calls++
	f.cursor = cursor
	f.limit = limit
	f.descending = descending
	return f.page, f.err
}

func intp(n int) *int       { return &n }
func strp(s string) *string { return &s }

func TestBeforeFailsWithoutUpstreamCall(t *testing.T) {
	f := &recordingFetch{}
	_, err := Paginate(context.Background(), Args{Before: strp("x")}, false, f.fetch, itemCursor)
	require.ErrorIs(t, err, ErrBackwardPagination)
	assert.Equal(t, 0, f.calls)

	// before loses even when first is also given
	_, err = Paginate(context.Background(), Args{First: intp(5), Before: strp("x")}, false, f.fetch, itemCursor)
	require.ErrorIs(t, err, ErrBackwardPagination)
	assert.Equal(t, 0, f.calls)
}

func TestDefaultPageSize(t *testing.T) {
	f := &recordingFetch{}
	_, err := Paginate(context.Background(), Args{}, false, f.fetch, itemCursor)
	require.NoError(t, err)
	require.Equal(t, 1, f.calls)
	assert.Equal(t, DefaultPageSize, f.limit)
	assert.Nil(t, f.cursor)
}

func TestFirstAndLastTogetherFallBackToDefault(t *testing.T) {
	f := &recordingFetch{}
	_, err := Paginate(context.Background(), Args{First: intp(3), Last: intp(3)}, false, f.fetch, itemCursor)
	require.NoError(t, err)
	assert.Equal(t, DefaultPageSize, f.limit)
}

func TestFirstClampedToMax(t *testing.T) {
	f := &recordingFetch{}
	_, err := Paginate(context.Background(), Args{First: intp(500)}, false, f.fetch, itemCursor)
	require.NoError(t, err)
	assert.Equal(t, MaxPageSize, f.limit)
}

func TestNegativeFirstFails(t *testing.T) {
	f := &recordingFetch{}
	_, err := Paginate(context.Background(), Args{First: intp(-1)}, false, f.fetch, itemCursor)
	require.Error(t, err)
	assert.Equal(t, 0, f.calls)
}

func TestZeroFirstShortCircuits(t *testing.T) {
	f := &recordingFetch{}
	conn, err := Paginate(context.Background(), Args{First: intp(0)}, false, f.fetch, itemCursor)
	require.NoError(t, err)
	assert.Empty(t, conn.Edges)
	assert.False(t, conn.PageInfo.HasNextPage)
	assert.Equal(t, 0, f.calls)
}

func TestSingleFetchBuildsConnection(t *testing.T) {
	next := "resume-token"
	f := &recordingFetch{page: ledger.Page[*item]{
		Items:       []*item{{ID: "i1"}, {ID: "i2"}, {ID: "i3"}},
		NextCursor:  &next,
		HasNextPage: true,
	}}

	conn, err := Paginate(context.Background(), Args{First: intp(3), After: strp("a0")}, false, f.fetch, itemCursor)
	require.NoError(t, err)
	require.Equal(t, 1, f.calls, "paginate must issue exactly one upstream fetch")
	require.NotNil(t, f.cursor)
	assert.Equal(t, "a0", *f.cursor)
	assert.Equal(t, 3, f.limit)

	require.Len(t, conn.Edges, 3)
	for i, e := range conn.Edges {
		assert.Equal(t, "i"+strconv.Itoa(i+1), e.Node.ID)
		assert.Equal(t, e.Node.ID, e.Cursor)
	}
	assert.True(t, conn.PageInfo.HasNextPage)
	assert.False(t, conn.PageInfo.HasPreviousPage)
	require.NotNil(t, conn.PageInfo.StartCursor)
	require.NotNil(t, conn.PageInfo.EndCursor)
	assert.Equal(t, "i1", *conn.PageInfo.StartCursor)
	assert.Equal(t, "i3", *conn.PageInfo.EndCursor)
}

func TestEmptyPage(t *testing.T) {
	f := &recordingFetch{}
	conn, err := Paginate(context.Background(), Args{First: intp(10)}, false, f.fetch, itemCursor)
	require.NoError(t, err)
	assert.Empty(t, conn.Edges)
	assert.Nil(t, conn.PageInfo.StartCursor)
	assert.Nil(t, conn.PageInfo.EndCursor)
	assert.False(t, conn.PageInfo.HasNextPage)
}

func TestDescendingIsPassedThrough(t *testing.T) {
	f := &recordingFetch{}
	_, err := Paginate(context.Background(), Args{First: intp(1)}, true, f.fetch, itemCursor)
	require.NoError(t, err)
	assert.True(t, f.descending)
}

func TestUpstreamErrorPropagates(t *testing.T) {
	upstream := errors.New("upstream unavailable")
	f := &recordingFetch{err: upstream}
	_, err := Paginate(context.Background(), Args{First: intp(1)}, false, f.fetch, itemCursor)
	assert.ErrorIs(t, err, upstream)
}

// Walking a listing page by page must visit every item exactly once, in the
// upstream order, with each page's endCursor used as the next after.
func TestWalkVisitsEveryItemOnce(t *testing.T) {
	all := make([]*item, 7)
	for i := range all {
		all[i] = &item{ID: fmt.Sprintf("i%02d", i)}
	}
	fetch := func(_ context.Context, cursor *string, limit int, _ bool) (ledger.Page[*item], error) {
		start := 0
		if cursor != nil {
			for i, it := range all {
				if it.ID == *cursor {
					start = i + 1
					break
				}
			}
		}
		end := start + limit
		if end > len(all) {
			end = len(all)
		}
		page := ledger.Page[*item]{Items: all[start:end], HasNextPage: end < len(all)}
		if page.HasNextPage {
			page.NextCursor = strp(all[end-1].ID)
		}
		return page, nil
	}

	var walked []string
	args := Args{First: intp(3)}
	for {
		conn, err := Paginate(context.Background(), args, false, fetch, itemCursor)
		require.NoError(t, err)
		for _, e := range conn.Edges {
			walked = append(walked, e.Node.ID)
		}
		if !conn.PageInfo.HasNextPage {
			break
		}
		args.After = conn.PageInfo.EndCursor
	}

	want := make([]string, len(all))
	for i, it := range all {
		want[i] = it.ID
	}
	assert.Equal(t, want, walked)
}
