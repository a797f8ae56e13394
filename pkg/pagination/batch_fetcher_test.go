package pagination

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Sternrassler/dex-browser/pkg/catalog"
	"github.com/Sternrassler/dex-browser/pkg/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeDetails resolves "id/<n>" summaries without a network.
type fakeDetails struct {
	delay    map[int]time.Duration
	fail     map[int]bool
	inFlight atomic.Int32
	peak     atomic.Int32
}

func (f *fakeDetails) FetchDetail(ctx context.Context, ref source.Summary) (catalog.Record, error) {
	n := f.inFlight.Add(1)
	defer f.inFlight.Add(-1)
	for {
		p := f.peak.Load()
		if n <= p || f.peak.CompareAndSwap(p, n) {
			break
		}
	}

	id, err := strconv.Atoi(strings.TrimPrefix(ref.URL, "id/"))
	if err != nil {
		return catalog.Record{}, err
	}
	if d := f.delay[id]; d > 0 {
		select {
		case <-time.After(d):
		case <-ctx.Done():
			return catalog.Record{}, ctx.Err()
		}
	}
	if f.fail[id] {
		return catalog.Record{}, fmt.Errorf("detail %d: not found", id)
	}
	return catalog.Record{ID: id, Name: fmt.Sprintf("mon-%d", id)}, nil
}

func refs(ids ...int) []source.Summary {
	out := make([]source.Summary, len(ids))
	for i, id := range ids {
		out[i] = source.Summary{URL: fmt.Sprintf("id/%d", id)}
	}
	return out
}

func recordIDs(records []catalog.Record) []int {
	out := make([]int, len(records))
	for i, r := range records {
		out[i] = r.ID
	}
	return out
}

func TestFetchBatch_PreservesInputOrder(t *testing.T) {
	f := &fakeDetails{delay: map[int]time.Duration{
		1: 60 * time.Millisecond,
		2: 30 * time.Millisecond,
	}}
	bf := NewBatchFetcher(f, Config{MaxConcurrency: 4, Timeout: time.Second})

	results := bf.FetchBatch(context.Background(), refs(1, 2, 3))

	require.Len(t, results, 3)
	for i, r := range results {
		assert.Equal(t, i, r.Index)
		assert.NoError(t, r.Err)
	}
	assert.Equal(t, []int{1, 2, 3}, recordIDs(Records(results)))
}

func TestFetchBatch_OmitsFailedItems(t *testing.T) {
	f := &fakeDetails{fail: map[int]bool{2: true}}
	bf := NewBatchFetcher(f, DefaultConfig())

	results := bf.FetchBatch(context.Background(), refs(1, 2, 3))

	require.Len(t, results, 3)
	assert.Error(t, results[1].Err)
	assert.Equal(t, "id/2", results[1].Ref.URL)
	assert.Equal(t, []int{1, 3}, recordIDs(Records(results)))
}

func TestFetchBatch_AllFailed(t *testing.T) {
	f := &fakeDetails{fail: map[int]bool{1: true, 2: true}}
	bf := NewBatchFetcher(f, DefaultConfig())

	results := bf.FetchBatch(context.Background(), refs(1, 2))

	assert.Empty(t, Records(results))
}

func TestFetchBatch_Empty(t *testing.T) {
	bf := NewBatchFetcher(&fakeDetails{}, DefaultConfig())
	assert.Empty(t, bf.FetchBatch(context.Background(), nil))
}

func TestFetchBatch_BoundsConcurrency(t *testing.T) {
	delay := map[int]time.Duration{}
	for id := 1; id <= 12; id++ {
		delay[id] = 20 * time.Millisecond
	}
	f := &fakeDetails{delay: delay}
	bf := NewBatchFetcher(f, Config{MaxConcurrency: 3, Timeout: time.Second})

	results := bf.FetchBatch(context.Background(), refs(1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12))

	assert.Len(t, Records(results), 12)
	assert.LessOrEqual(t, f.peak.Load(), int32(3))
}

func TestFetchBatch_ItemTimeout(t *testing.T) {
	f := &fakeDetails{delay: map[int]time.Duration{2: time.Second}}
	bf := NewBatchFetcher(f, Config{MaxConcurrency: 2, Timeout: 20 * time.Millisecond})

	results := bf.FetchBatch(context.Background(), refs(1, 2))

	assert.True(t, errors.Is(results[1].Err, context.DeadlineExceeded))
	assert.Equal(t, []int{1}, recordIDs(Records(results)))
}

func TestFetchBatch_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	bf := NewBatchFetcher(&fakeDetails{}, DefaultConfig())

	results := bf.FetchBatch(ctx, refs(1, 2))

	for _, r := range results {
		assert.ErrorIs(t, r.Err, context.Canceled)
	}
}

func TestNewBatchFetcher_Defaults(t *testing.T) {
	bf := NewBatchFetcher(&fakeDetails{}, Config{})
	assert.Equal(t, DefaultConfig(), bf.config)
}
