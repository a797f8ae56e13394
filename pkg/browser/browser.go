// Package browser composes the catalog store, search filter, scroll
// paginator and comparison selector into one owned application state with
// a mount/unmount lifecycle. Frontends (terminal, HTTP) drive a Browser and
// render its Snapshot.
package browser

import (
	"context"
	"errors"
	"fmt"

	"github.com/Sternrassler/dex-browser/pkg/catalog"
	"github.com/Sternrassler/dex-browser/pkg/compare"
	"github.com/Sternrassler/dex-browser/pkg/logging"
	"github.com/Sternrassler/dex-browser/pkg/pagination"
	"github.com/Sternrassler/dex-browser/pkg/source"
	"github.com/rs/zerolog"
)

// ErrUnknownRecord is returned for operations on an id the store does not hold.
var ErrUnknownRecord = errors.New("unknown record")

// Config holds browser configuration.
type Config struct {
	Pagination pagination.PaginatorConfig
}

// DefaultConfig returns the default browser configuration.
func DefaultConfig() Config {
	return Config{Pagination: pagination.DefaultPaginatorConfig()}
}

// Comparison is the visible comparison pair.
type Comparison struct {
	A catalog.Record `json:"a"`
	B catalog.Record `json:"b"`
}

// Snapshot is a consistent read of everything a frontend renders.
type Snapshot struct {
	Records      []catalog.Record `json:"records"`
	Query        string           `json:"query"`
	Total        int              `json:"total"`
	Busy         bool             `json:"busy"`
	Cursor       int              `json:"next_page"`
	Exhausted    bool             `json:"exhausted"`
	CompareMode  bool             `json:"compare_mode"`
	CompareState compare.State    `json:"compare_state"`
	Selected     []int            `json:"selected"`
	Comparison   *Comparison      `json:"comparison,omitempty"`
}

// Browser owns the state of one browsing session.
type Browser struct {
	store     *catalog.Store
	filter    *catalog.Filter
	paginator *pagination.Paginator
	selector  *compare.Selector
	feed      *pagination.ViewportFeed
	logger    zerolog.Logger
}

// New creates an unmounted browser over src.
func New(src source.RecordSource, cfg Config) *Browser {
	store := catalog.NewStore()
	return &Browser{
		store:     store,
		filter:    catalog.NewFilter(store),
		paginator: pagination.NewPaginator(src, store, cfg.Pagination),
		selector:  compare.NewSelector(),
		feed:      pagination.NewViewportFeed(),
		logger:    logging.NewLogger("browser"),
	}
}

// Mount loads the first page and starts listening for scroll signals. A
// failed first page is returned but leaves the browser usable: the next
// at-bottom scroll retries it.
func (b *Browser) Mount(ctx context.Context) error {
	if err := b.paginator.Mount(ctx, b.feed); err != nil {
		if errors.Is(err, pagination.ErrAlreadyMounted) || errors.Is(err, pagination.ErrUnmounted) {
			return err
		}
		b.logger.Warn().Err(err).Msg("Initial page failed")
		return fmt.Errorf("mount: %w", err)
	}
	b.logger.Info().Int("records", b.store.Len()).Msg("Browser mounted")
	return nil
}

// Unmount stops listening for scroll signals and waits for an in-flight
// page load.
func (b *Browser) Unmount() {
	b.paginator.Unmount()
	b.logger.Info().Int("records", b.store.Len()).Msg("Browser unmounted")
}

// Scroll publishes a viewport notification. A notification at the bottom
// of the content starts the next page load when none is in flight. It
// reports whether v counts as at the bottom under the configured tolerance.
func (b *Browser) Scroll(v pagination.Viewport) bool {
	b.feed.Publish(v)
	return b.paginator.AtBottom(v)
}

// LoadMore synchronously loads the next page.
func (b *Browser) LoadMore(ctx context.Context) error {
	return b.paginator.LoadNext(ctx)
}

// Wait blocks until background page loads have finished.
func (b *Browser) Wait() {
	b.paginator.Wait()
}

// SetQuery replaces the search text.
func (b *Browser) SetQuery(text string) {
	b.filter.SetQuery(text)
}

// Records returns the records matching the current query.
func (b *Browser) Records() []catalog.Record {
	return b.filter.Filtered()
}

// Search returns the records whose names contain text without changing the
// current query.
func (b *Browser) Search(text string) []catalog.Record {
	return b.filter.Match(text)
}

// Record returns the record with the given id.
func (b *Browser) Record(id int) (catalog.Record, bool) {
	return b.store.ByID(id)
}

// ToggleDetails flips the expanded flag of a record.
func (b *Browser) ToggleDetails(id int) error {
	if !b.store.ToggleDetails(id) {
		return fmt.Errorf("toggle details %d: %w", id, ErrUnknownRecord)
	}
	return nil
}

// SetCompareMode switches comparison mode.
func (b *Browser) SetCompareMode(enabled bool) {
	b.selector.SetModeEnabled(enabled)
}

// Select feeds the record with the given id to the comparison selector. It
// reports whether the selection changed.
func (b *Browser) Select(id int) (bool, error) {
	rec, ok := b.store.ByID(id)
	if !ok {
		return false, fmt.Errorf("select %d: %w", id, ErrUnknownRecord)
	}
	return b.selector.Select(rec), nil
}

// Comparison returns the visible pair, or nil when none is shown.
func (b *Browser) Comparison() *Comparison {
	if !b.selector.ShowComparison() {
		return nil
	}
	a, bb, ok := b.selector.Pair()
	if !ok {
		return nil
	}
	return &Comparison{A: a, B: bb}
}

// Snapshot returns the current state for rendering.
func (b *Browser) Snapshot() Snapshot {
	slots := b.selector.Slots()
	selected := []int{}
	if slots.A != nil {
		selected = append(selected, slots.A.ID)
	}
	if slots.B != nil {
		selected = append(selected, slots.B.ID)
	}

	return Snapshot{
		Records:      b.filter.Filtered(),
		Query:        b.filter.Query(),
		Total:        b.store.Len(),
		Busy:         b.paginator.Busy(),
		Cursor:       b.paginator.Cursor(),
		Exhausted:    b.paginator.Exhausted(),
		CompareMode:  b.selector.Enabled(),
		CompareState: b.selector.State(),
		Selected:     selected,
		Comparison:   b.Comparison(),
	}
}
