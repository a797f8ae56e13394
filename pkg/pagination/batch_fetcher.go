package pagination

import (
	"context"
	"sync"
	"time"

	"github.com/Sternrassler/dex-browser/pkg/catalog"
	"github.com/Sternrassler/dex-browser/pkg/source"
	"github.com/rs/zerolog/log"
)

// Config holds batch fetcher configuration
type Config struct {
	// MaxConcurrency is the maximum number of parallel detail requests
	MaxConcurrency int
	// Timeout per detail fetch
	Timeout time.Duration
}

// DefaultConfig returns the default batch fetcher configuration
func DefaultConfig() Config {
	return Config{
		MaxConcurrency: 16,
		Timeout:        15 * time.Second,
	}
}

// DetailFetcher resolves one summary into a full record. source.RecordSource
// satisfies it.
type DetailFetcher interface {
	FetchDetail(ctx context.Context, ref source.Summary) (catalog.Record, error)
}

// Result is the outcome of one detail fetch, at the same index as its
// summary in the batch.
type Result struct {
	Index  int
	Ref    source.Summary
	Record catalog.Record
	Err    error
}

// BatchFetcher resolves a page of summaries concurrently
type BatchFetcher struct {
	fetcher DetailFetcher
	config  Config
}

// NewBatchFetcher creates a new batch fetcher
func NewBatchFetcher(fetcher DetailFetcher, config Config) *BatchFetcher {
	if config.MaxConcurrency <= 0 {
		config.MaxConcurrency = 16
	}
	if config.Timeout <= 0 {
		config.Timeout = 15 * time.Second
	}

	return &BatchFetcher{
		fetcher: fetcher,
		config:  config,
	}
}

// FetchBatch fetches the detail of every summary in parallel and waits for
// all of them to settle. The returned slice is indexed like refs, whatever
// order the fetches complete in. Failures are reported per item.
func (bf *BatchFetcher) FetchBatch(ctx context.Context, refs []source.Summary) []Result {
	results := make([]Result, len(refs))
	if len(refs) == 0 {
		return results
	}

	start := time.Now()

	queue := make(chan int, len(refs))
	for i := range refs {
		queue <- i
	}
	close(queue)

	workers := bf.config.MaxConcurrency
	if workers > len(refs) {
		workers = len(refs)
	}

	itemResults := make(chan Result, len(refs))
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go bf.worker(ctx, refs, queue, itemResults, &wg, i)
	}

	go func() {
		wg.Wait()
		close(itemResults)
	}()

	failed := 0
	for r := range itemResults {
		if r.Err != nil {
			failed++
			detailFailuresTotal.Inc()
			log.Warn().
				Err(r.Err).
				Int("index", r.Index).
				Str("url", r.Ref.URL).
				Msg("Detail fetch failed, record omitted")
		}
		results[r.Index] = r
	}

	log.Debug().
		Int("requested", len(refs)).
		Int("failed", failed).
		Int("workers", workers).
		Dur("duration", time.Since(start)).
		Msg("Batch settled")

	return results
}

// worker processes batch indexes from the queue
func (bf *BatchFetcher) worker(ctx context.Context, refs []source.Summary, queue <-chan int, results chan<- Result, wg *sync.WaitGroup, workerID int) {
	defer wg.Done()
	processed := 0

	for idx := range queue {
		ref := refs[idx]

		if err := ctx.Err(); err != nil {
			results <- Result{Index: idx, Ref: ref, Err: err}
			continue
		}

		itemCtx, cancel := context.WithTimeout(ctx, bf.config.Timeout)
		rec, err := bf.fetcher.FetchDetail(itemCtx, ref)
		cancel()

		results <- Result{Index: idx, Ref: ref, Record: rec, Err: err}
		processed++
	}

	log.Debug().
		Int("worker_id", workerID).
		Int("processed", processed).
		Msg("Worker completed")
}

// Records returns the successfully fetched records in batch order.
func Records(results []Result) []catalog.Record {
	out := make([]catalog.Record, 0, len(results))
	for _, r := range results {
		if r.Err == nil {
			out = append(out, r.Record)
		}
	}
	return out
}
