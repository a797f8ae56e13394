// Package testutil provides testing utilities for the dex browser.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"
)

// MockRecord is one record served by MockDexAPI.
type MockRecord struct {
	ID     int
	Name   string
	Weight int
	Types  []string
	Stats  map[string]int
}

// MockDexAPI is a configurable mock of the paginated record API.
//
// Listing: GET /api/v2/pokemon/?offset=N&limit=M
// Detail:  GET /api/v2/pokemon/{id}/
type MockDexAPI struct {
	server *httptest.Server

	mu           sync.RWMutex
	records      []MockRecord
	detailDelay  map[int]time.Duration
	detailFail   map[int]int
	listFailures int
	listDelay    time.Duration
	listGate     chan struct{}
	maxAge       int

	// Tracking
	listCalls   map[int]int // offset -> calls
	detailCalls map[int]int // id -> calls
	notModified int
}

// NewMockDexAPI starts a mock server holding records 1..total named
// "mon-<id>".
func NewMockDexAPI(total int) *MockDexAPI {
	records := make([]MockRecord, total)
	for i := range records {
		id := i + 1
		records[i] = MockRecord{
			ID:     id,
			Name:   fmt.Sprintf("mon-%d", id),
			Weight: id * 10,
			Types:  []string{"normal"},
			Stats:  map[string]int{"hp": 40 + id%50, "attack": 50},
		}
	}
	return NewMockDexAPIWithRecords(records)
}

// NewMockDexAPIWithRecords starts a mock server holding the given records in
// listing order.
func NewMockDexAPIWithRecords(records []MockRecord) *MockDexAPI {
	m := &MockDexAPI{
		records:     records,
		detailDelay: make(map[int]time.Duration),
		detailFail:  make(map[int]int),
		listCalls:   make(map[int]int),
		detailCalls: make(map[int]int),
		maxAge:      86400,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/v2/pokemon/", m.handle)
	m.server = httptest.NewServer(mux)
	return m
}

// BaseURL returns the API base URL, e.g. http://127.0.0.1:1234/api/v2.
func (m *MockDexAPI) BaseURL() string {
	return m.server.URL + "/api/v2"
}

// Close shuts down the mock server. A held listing gate is released first.
func (m *MockDexAPI) Close() {
	m.ReleaseListings()
	m.server.Close()
}

// SetDetailDelay delays the detail response for id.
func (m *MockDexAPI) SetDetailDelay(id int, d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.detailDelay[id] = d
}

// FailDetail makes the detail endpoint for id answer 404 forever.
func (m *MockDexAPI) FailDetail(id int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.detailFail[id] = -1
}

// FailListings makes the next n listing calls answer 404.
func (m *MockDexAPI) FailListings(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listFailures = n
}

// SetListDelay delays every listing response.
func (m *MockDexAPI) SetListDelay(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.listDelay = d
}

// HoldListings blocks listing responses until ReleaseListings is called.
func (m *MockDexAPI) HoldListings() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listGate == nil {
		m.listGate = make(chan struct{})
	}
}

// ReleaseListings unblocks listings held by HoldListings.
func (m *MockDexAPI) ReleaseListings() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.listGate != nil {
		close(m.listGate)
		m.listGate = nil
	}
}

// SetMaxAge sets the Cache-Control max-age of detail responses. Zero makes
// every cached detail stale at once, forcing revalidation.
func (m *MockDexAPI) SetMaxAge(seconds int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.maxAge = seconds
}

// NotModifiedCount returns how many detail requests were answered 304.
func (m *MockDexAPI) NotModifiedCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.notModified
}

// ListCalls returns how many listing requests hit the given offset.
func (m *MockDexAPI) ListCalls(offset int) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.listCalls[offset]
}

// TotalListCalls returns the number of listing requests.
func (m *MockDexAPI) TotalListCalls() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	total := 0
	for _, n := range m.listCalls {
		total += n
	}
	return total
}

// DetailCalls returns how many detail requests hit id.
func (m *MockDexAPI) DetailCalls(id int) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.detailCalls[id]
}

func (m *MockDexAPI) handle(w http.ResponseWriter, r *http.Request) {
	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/api/v2/pokemon"), "/")
	if rest == "" {
		m.handleList(w, r)
		return
	}

	id, err := strconv.Atoi(rest)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	m.handleDetail(w, r, id)
}

func (m *MockDexAPI) handleList(w http.ResponseWriter, r *http.Request) {
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	m.mu.Lock()
	m.listCalls[offset]++
	fail := m.listFailures > 0
	if fail {
		m.listFailures--
	}
	delay := m.listDelay
	gate := m.listGate
	m.mu.Unlock()

	if gate != nil {
		<-gate
	}
	if delay > 0 {
		time.Sleep(delay)
	}
	if fail {
		http.NotFound(w, r)
		return
	}

	m.mu.RLock()
	total := len(m.records)
	type result struct {
		Name string `json:"name"`
		URL  string `json:"url"`
	}
	results := []result{}
	for i := offset; i < offset+limit && i < total; i++ {
		rec := m.records[i]
		results = append(results, result{
			Name: rec.Name,
			URL:  fmt.Sprintf("%s/pokemon/%d/", m.BaseURL(), rec.ID),
		})
	}
	m.mu.RUnlock()

	writeJSON(w, map[string]any{
		"count":   total,
		"results": results,
	})
}

func (m *MockDexAPI) handleDetail(w http.ResponseWriter, r *http.Request, id int) {
	etag := fmt.Sprintf(`W/"%d"`, id)

	m.mu.Lock()
	m.detailCalls[id]++
	delay := m.detailDelay[id]
	failing := m.detailFail[id] != 0
	cacheControl := fmt.Sprintf("public, max-age=%d", m.maxAge)
	var rec *MockRecord
	for i := range m.records {
		if m.records[i].ID == id {
			rec = &m.records[i]
			break
		}
	}
	m.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	if failing || rec == nil {
		http.NotFound(w, r)
		return
	}

	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", cacheControl)

	if r.Header.Get("If-None-Match") == etag {
		m.mu.Lock()
		m.notModified++
		m.mu.Unlock()
		w.WriteHeader(http.StatusNotModified)
		return
	}

	type named struct {
		Name string `json:"name"`
	}
	type stat struct {
		BaseStat int   `json:"base_stat"`
		Effort   int   `json:"effort"`
		Stat     named `json:"stat"`
	}
	type slot struct {
		Slot int   `json:"slot"`
		Type named `json:"type"`
	}

	stats := []stat{}
	for _, name := range []string{"hp", "attack", "defense", "special-attack", "special-defense", "speed"} {
		if v, ok := rec.Stats[name]; ok {
			stats = append(stats, stat{BaseStat: v, Stat: named{Name: name}})
		}
	}
	types := make([]slot, len(rec.Types))
	for i, t := range rec.Types {
		types[i] = slot{Slot: i + 1, Type: named{Name: t}}
	}

	writeJSON(w, map[string]any{
		"id":     rec.ID,
		"name":   rec.Name,
		"weight": rec.Weight,
		"stats":  stats,
		"types":  types,
		"sprites": map[string]any{
			"front_default": fmt.Sprintf("https://sprites.example/%d.png", id),
		},
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(v)
}
