package pagination

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Sternrassler/dex-browser/pkg/catalog"
	"github.com/Sternrassler/dex-browser/pkg/logging"
	"github.com/Sternrassler/dex-browser/pkg/source"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// DefaultPageSize is the number of records requested per page.
const DefaultPageSize = 151

var (
	// ErrBusy is returned by LoadNext while another page load is in flight.
	ErrBusy = errors.New("page load already in flight")

	// ErrUnmounted is returned once the paginator has been torn down.
	ErrUnmounted = errors.New("paginator unmounted")

	// ErrAlreadyMounted is returned by a second Mount.
	ErrAlreadyMounted = errors.New("paginator already mounted")
)

// PaginatorConfig holds paginator configuration.
type PaginatorConfig struct {
	// PageSize is the number of summaries requested per page
	PageSize int

	// BottomTolerance loosens the at-bottom check. Zero means exact equality.
	BottomTolerance float64

	// Batch configures the detail fetches of one page
	Batch Config
}

// DefaultPaginatorConfig returns the default paginator configuration.
func DefaultPaginatorConfig() PaginatorConfig {
	return PaginatorConfig{
		PageSize: DefaultPageSize,
		Batch:    DefaultConfig(),
	}
}

type mountState int

const (
	stateNew mountState = iota
	stateMounted
	stateUnmounted
)

// Paginator turns scroll signals into page loads.
//
// The busy flag is the only guard against overlapping loads: it is taken
// synchronously before a load starts and released after the page is
// appended or the load failed, so at most one page is ever in flight and
// pages are appended in cursor order. Signals arriving while busy are
// dropped, not queued.
type Paginator struct {
	src     source.RecordSource
	fetcher *BatchFetcher
	store   *catalog.Store
	config  PaginatorConfig
	logger  zerolog.Logger

	busy atomic.Bool
	wg   sync.WaitGroup

	mu          sync.Mutex
	state       mountState
	loadCtx     context.Context
	unsubscribe func()
	cursor      int
	exhausted   bool
	lastErr     error
}

// NewPaginator creates a paginator that appends to store. It reads as busy
// until Mount has completed the initial load.
func NewPaginator(src source.RecordSource, store *catalog.Store, config PaginatorConfig) *Paginator {
	if config.PageSize <= 0 {
		config.PageSize = DefaultPageSize
	}
	if config.BottomTolerance < 0 {
		config.BottomTolerance = 0
	}

	p := &Paginator{
		src:     src,
		fetcher: NewBatchFetcher(src, config.Batch),
		store:   store,
		config:  config,
		logger:  logging.NewLogger("pagination"),
		cursor:  1,
	}
	p.busy.Store(true)
	return p
}

// Mount loads the first page unconditionally and then subscribes to
// viewport, which may be nil. The returned error is the initial load's; the
// paginator stays mounted and the next at-bottom signal retries page 1.
//
// Loads triggered by scroll signals run on a context derived from ctx that
// is never cancelled: once started, a page load runs to completion.
func (p *Paginator) Mount(ctx context.Context, viewport ViewportSource) error {
	p.mu.Lock()
	switch p.state {
	case stateMounted:
		p.mu.Unlock()
		return ErrAlreadyMounted
	case stateUnmounted:
		p.mu.Unlock()
		return ErrUnmounted
	}
	p.state = stateMounted
	p.loadCtx = context.WithoutCancel(ctx)
	p.wg.Add(1)
	p.mu.Unlock()

	// busy is held since construction
	err := p.load(ctx)
	p.wg.Done()

	if viewport != nil {
		unsubscribe := viewport.Subscribe(func(v Viewport) { p.OnScroll(v) })
		p.mu.Lock()
		if p.state == stateUnmounted {
			p.mu.Unlock()
			unsubscribe()
		} else {
			p.unsubscribe = unsubscribe
			p.mu.Unlock()
		}
	}

	return err
}

// OnScroll handles one viewport notification. When the viewport is at the
// bottom and no load is in flight it starts loading the next page in the
// background and returns true.
func (p *Paginator) OnScroll(v Viewport) bool {
	if !p.AtBottom(v) {
		return false
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != stateMounted {
		return false
	}
	if !p.busy.CompareAndSwap(false, true) {
		scrollSignalsDroppedTotal.Inc()
		p.logger.Debug().Int("page", p.cursor).Msg("Scroll signal dropped, page load in flight")
		return false
	}

	ctx := p.loadCtx
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		_ = p.load(ctx)
	}()
	return true
}

// AtBottom reports whether v is at the bottom under the configured
// tolerance.
func (p *Paginator) AtBottom(v Viewport) bool {
	return v.AtBottom(p.config.BottomTolerance)
}

// LoadNext synchronously loads the page at the cursor. It returns ErrBusy
// when a load is already in flight.
func (p *Paginator) LoadNext(ctx context.Context) error {
	p.mu.Lock()
	if p.state != stateMounted {
		p.mu.Unlock()
		if p.stateIs(stateUnmounted) {
			return ErrUnmounted
		}
		return fmt.Errorf("paginator not mounted")
	}
	if !p.busy.CompareAndSwap(false, true) {
		p.mu.Unlock()
		return ErrBusy
	}
	p.wg.Add(1)
	p.mu.Unlock()

	defer p.wg.Done()
	return p.load(ctx)
}

// load runs one page load. The caller must hold the busy flag; load
// releases it on every path.
func (p *Paginator) load(ctx context.Context) error {
	defer p.busy.Store(false)

	start := time.Now()

	p.mu.Lock()
	page := p.cursor
	p.mu.Unlock()

	logger := p.logger.With().
		Str("load_id", uuid.NewString()).
		Int("page", page).
		Logger()
	logger.Info().Int("page_size", p.config.PageSize).Msg("Loading page")

	refs, err := p.src.ListPage(ctx, page, p.config.PageSize)
	if err != nil {
		pageFailuresTotal.Inc()
		logger.Warn().Err(err).Msg("Page listing failed, page not consumed")
		p.mu.Lock()
		p.lastErr = err
		p.mu.Unlock()
		return fmt.Errorf("load page %d: %w", page, err)
	}

	results := p.fetcher.FetchBatch(ctx, refs)
	records := Records(results)
	added := p.store.Append(records)

	exhausted := len(refs) < p.config.PageSize

	p.mu.Lock()
	p.cursor++
	p.exhausted = exhausted
	p.lastErr = nil
	p.mu.Unlock()

	pagesLoadedTotal.Inc()
	pageLoadDuration.Observe(time.Since(start).Seconds())

	logger.Info().
		Int("requested", len(refs)).
		Int("appended", added).
		Int("failed", len(results)-len(records)).
		Dur("duration", time.Since(start)).
		Msg("Page loaded")

	if exhausted {
		logger.Info().Int("returned", len(refs)).Msg("Short page, remote collection exhausted")
	}

	return nil
}

// Unmount releases the viewport subscription and ignores further signals.
// It waits for an in-flight load to finish, the initial one included.
func (p *Paginator) Unmount() {
	p.mu.Lock()
	p.state = stateUnmounted
	unsubscribe := p.unsubscribe
	p.unsubscribe = nil
	p.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	p.wg.Wait()
}

// Wait blocks until loads started by OnScroll or LoadNext have finished.
func (p *Paginator) Wait() {
	p.wg.Wait()
}

// Busy reports whether a page load is in flight.
func (p *Paginator) Busy() bool {
	return p.busy.Load()
}

// Cursor returns the page that the next load will request.
func (p *Paginator) Cursor() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.cursor
}

// Exhausted reports whether the last loaded page came back short. It is
// informational: pagination continues on the next at-bottom signal.
func (p *Paginator) Exhausted() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.exhausted
}

// LastError returns the error of the most recent failed listing, cleared by
// the next successful page.
func (p *Paginator) LastError() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.lastErr
}

func (p *Paginator) stateIs(s mountState) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state == s
}
