package browser

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/Sternrassler/dex-browser/pkg/catalog"
	"github.com/Sternrassler/dex-browser/pkg/compare"
	"github.com/Sternrassler/dex-browser/pkg/pagination"
	"github.com/Sternrassler/dex-browser/pkg/source"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// memorySource pages over an in-memory list of names.
type memorySource struct {
	mu       sync.Mutex
	names    []string
	failList int
}

func (s *memorySource) ListPage(_ context.Context, page, pageSize int) ([]source.Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failList > 0 {
		s.failList--
		return nil, errors.New("listing unavailable")
	}
	out := []source.Summary{}
	for i := (page - 1) * pageSize; i < page*pageSize && i < len(s.names); i++ {
		out = append(out, source.Summary{URL: strconv.Itoa(i + 1)})
	}
	return out, nil
}

func (s *memorySource) FetchDetail(_ context.Context, ref source.Summary) (catalog.Record, error) {
	id, err := strconv.Atoi(ref.URL)
	if err != nil {
		return catalog.Record{}, err
	}
	name := s.names[id-1]
	return catalog.Record{
		ID:    id,
		Name:  name,
		Types: []catalog.Type{{Slot: 1, Name: "normal"}},
		Stats: []catalog.Stat{{Name: "hp", BaseValue: 10 * id}},
	}, nil
}

var starters = []string{
	"bulbasaur", "ivysaur", "venusaur",
	"charmander", "charmeleon", "charizard",
	"squirtle", "wartortle", "blastoise",
}

func newBrowser(t *testing.T, src *memorySource, pageSize int) *Browser {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Pagination.PageSize = pageSize
	b := New(src, cfg)
	t.Cleanup(b.Unmount)
	return b
}

func names(records []catalog.Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.Name
	}
	return out
}

var atBottom = pagination.Viewport{ScrollTop: 400, ViewportHeight: 100, ContentHeight: 500}

func TestBrowser_MountAndScroll(t *testing.T) {
	b := newBrowser(t, &memorySource{names: starters}, 3)

	assert.True(t, b.Snapshot().Busy, "busy until the first page is in")
	require.NoError(t, b.Mount(context.Background()))

	snap := b.Snapshot()
	assert.False(t, snap.Busy)
	assert.Equal(t, []string{"bulbasaur", "ivysaur", "venusaur"}, names(snap.Records))
	assert.Equal(t, 2, snap.Cursor)

	assert.False(t, b.Scroll(pagination.Viewport{ScrollTop: 10, ViewportHeight: 100, ContentHeight: 1000}))
	assert.True(t, b.Scroll(atBottom))
	b.Wait()

	snap = b.Snapshot()
	assert.Equal(t, 6, snap.Total)
	assert.Equal(t, 3, snap.Cursor)
}

func TestBrowser_MountFailureRecovers(t *testing.T) {
	b := newBrowser(t, &memorySource{names: starters, failList: 1}, 3)

	err := b.Mount(context.Background())
	require.Error(t, err)
	assert.False(t, b.Snapshot().Busy)
	assert.Zero(t, b.Snapshot().Total)

	b.Scroll(atBottom)
	b.Wait()

	assert.Equal(t, 3, b.Snapshot().Total)
}

func TestBrowser_SearchFollowsLoads(t *testing.T) {
	b := newBrowser(t, &memorySource{names: starters}, 3)
	require.NoError(t, b.Mount(context.Background()))

	b.SetQuery("CHAR")
	assert.Empty(t, b.Records())
	assert.Equal(t, "char", b.Snapshot().Query)

	require.NoError(t, b.LoadMore(context.Background()))

	assert.Equal(t, []string{"charmander", "charmeleon", "charizard"}, names(b.Records()))

	b.SetQuery("")
	assert.Len(t, b.Records(), 6)
}

func TestBrowser_ToggleDetails(t *testing.T) {
	b := newBrowser(t, &memorySource{names: starters}, 3)
	require.NoError(t, b.Mount(context.Background()))

	require.NoError(t, b.ToggleDetails(2))
	rec, ok := b.Record(2)
	require.True(t, ok)
	assert.True(t, rec.UI.DetailsExpanded)

	b.SetQuery("ivy")
	require.Len(t, b.Records(), 1)
	assert.True(t, b.Records()[0].UI.DetailsExpanded)

	assert.ErrorIs(t, b.ToggleDetails(99), ErrUnknownRecord)
}

func TestBrowser_Comparison(t *testing.T) {
	b := newBrowser(t, &memorySource{names: starters}, 9)
	require.NoError(t, b.Mount(context.Background()))

	changed, err := b.Select(1)
	require.NoError(t, err)
	assert.False(t, changed, "ignored while comparison mode is off")

	b.SetCompareMode(true)
	_, err = b.Select(1)
	require.NoError(t, err)
	_, err = b.Select(4)
	require.NoError(t, err)

	snap := b.Snapshot()
	assert.Equal(t, compare.StateTwoSelected, snap.CompareState)
	assert.Equal(t, []int{1, 4}, snap.Selected)
	require.NotNil(t, snap.Comparison)
	assert.Equal(t, "bulbasaur", snap.Comparison.A.Name)
	assert.Equal(t, "charmander", snap.Comparison.B.Name)

	changed, err = b.Select(7)
	require.NoError(t, err)
	assert.False(t, changed)

	b.SetCompareMode(false)
	snap = b.Snapshot()
	assert.Equal(t, compare.StateDisabled, snap.CompareState)
	assert.Empty(t, snap.Selected)
	assert.Nil(t, snap.Comparison)

	_, err = b.Select(42)
	assert.ErrorIs(t, err, ErrUnknownRecord)
}

func TestBrowser_ConcurrentReadsDuringLoads(t *testing.T) {
	many := make([]string, 60)
	for i := range many {
		many[i] = fmt.Sprintf("mon-%d", i+1)
	}
	b := newBrowser(t, &memorySource{names: many}, 10)
	require.NoError(t, b.Mount(context.Background()))

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 20; j++ {
				b.Scroll(atBottom)
				snap := b.Snapshot()
				for _, r := range snap.Records {
					assert.True(t, strings.HasPrefix(r.Name, "mon-"))
				}
			}
		}()
	}
	wg.Wait()
	b.Wait()

	ids := map[int]bool{}
	for _, r := range b.Records() {
		assert.False(t, ids[r.ID], "record %d appears twice", r.ID)
		ids[r.ID] = true
	}
}

func TestBrowser_SearchKeepsQuery(t *testing.T) {
	b := newBrowser(t, &memorySource{names: starters}, 9)
	require.NoError(t, b.Mount(context.Background()))
	b.SetQuery("saur")

	assert.Equal(t, []string{"charmander", "charmeleon", "charizard"}, names(b.Search("CHAR")))
	assert.Equal(t, "saur", b.Snapshot().Query)
	assert.Len(t, b.Records(), 3)
}
