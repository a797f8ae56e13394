package catalog

import (
	"sync"

	"github.com/elliotchance/orderedmap/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	catalogRecords = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "dex_catalog_records",
		Help: "Number of records currently held in the catalog store",
	})

	catalogDuplicatesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "dex_catalog_duplicates_total",
		Help: "Total number of records dropped on append because their id was already present",
	})
)

// Store is the append-only, ordered record collection.
//
// Records keep the order in which they were appended. An id already present
// is never re-appended, so the first copy wins. Every change bumps Version,
// which derived views use to decide whether to recompute. Records go in and
// come out as deep copies: callers never share Stats or Types with the store.
type Store struct {
	mu      sync.RWMutex
	records *orderedmap.OrderedMap[int, *Record]
	version uint64
}

// NewStore creates an empty store.
func NewStore() *Store {
	return &Store{
		records: orderedmap.NewOrderedMap[int, *Record](),
	}
}

// Append adds records in order, skipping ids that are already stored.
// It returns the number of records actually added.
func (s *Store) Append(records []Record) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	added := 0
	for i := range records {
		rec := records[i].Clone()
		if _, exists := s.records.Get(rec.ID); exists {
			catalogDuplicatesTotal.Inc()
			continue
		}
		s.records.Set(rec.ID, &rec)
		added++
	}

	if added > 0 {
		s.version++
		catalogRecords.Set(float64(s.records.Len()))
	}
	return added
}

// ToggleDetails flips the expanded flag of the record with the given id.
// It reports false when no such record exists.
func (s *Store) ToggleDetails(id int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.records.Get(id)
	if !ok {
		return false
	}
	rec.UI.DetailsExpanded = !rec.UI.DetailsExpanded
	s.version++
	return true
}

// All returns a copy of every record in catalog order.
func (s *Store) All() []Record {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Record, 0, s.records.Len())
	for el := s.records.Front(); el != nil; el = el.Next() {
		out = append(out, el.Value.Clone())
	}
	return out
}

// ByID returns a copy of the record with the given id.
func (s *Store) ByID(id int) (Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.records.Get(id)
	if !ok {
		return Record{}, false
	}
	return rec.Clone(), true
}

// Len returns the number of stored records.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.records.Len()
}

// Version changes whenever the stored sequence or a record's UI state changes.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// snapshot returns the records together with the version they belong to.
func (s *Store) snapshot() ([]Record, uint64) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Record, 0, s.records.Len())
	for el := s.records.Front(); el != nil; el = el.Next() {
		out = append(out, el.Value.Clone())
	}
	return out, s.version
}
