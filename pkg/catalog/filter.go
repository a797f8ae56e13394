package catalog

import (
	"strings"
	"sync"
)

// Filter derives the subsequence of a store whose names contain the current
// query, case-insensitively. The result is memoized on the store version and
// the query, so repeated reads between changes do no work.
type Filter struct {
	store *Store

	mu       sync.Mutex
	query    string
	cached   []Record
	cachedAt uint64
	cachedQ  string
	valid    bool
}

// NewFilter creates a filter over store with an empty query.
func NewFilter(store *Store) *Filter {
	return &Filter{store: store}
}

// SetQuery stores the case-folded query.
func (f *Filter) SetQuery(text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.query = strings.ToLower(text)
}

// Query returns the current case-folded query.
func (f *Filter) Query() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.query
}

// Filtered returns the matching records in catalog order. An empty query
// matches everything.
func (f *Filter) Filtered() []Record {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.valid && f.cachedQ == f.query && f.cachedAt == f.store.Version() {
		return cloneRecords(f.cached)
	}

	records, version := f.store.snapshot()
	out := match(records, f.query)

	f.cached = out
	f.cachedAt = version
	f.cachedQ = f.query
	f.valid = true
	return cloneRecords(out)
}

// Match returns the records whose names contain text, case-insensitively,
// without touching the current query or its memoized result.
func (f *Filter) Match(text string) []Record {
	records, _ := f.store.snapshot()
	return match(records, strings.ToLower(text))
}

// match expects a case-folded query.
func match(records []Record, query string) []Record {
	if query == "" {
		return records
	}
	out := make([]Record, 0, len(records))
	for _, rec := range records {
		if strings.Contains(strings.ToLower(rec.Name), query) {
			out = append(out, rec)
		}
	}
	return out
}

func cloneRecords(in []Record) []Record {
	out := make([]Record, len(in))
	for i, rec := range in {
		out[i] = rec.Clone()
	}
	return out
}
