package source

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/Sternrassler/dex-browser/pkg/catalog"
	"github.com/Sternrassler/dex-browser/pkg/client"
)

// DefaultBaseURL is the public API root.
const DefaultBaseURL = "https://pokeapi.co/api/v2"

// Getter is the transport the HTTP source needs. *client.Client implements it.
type Getter interface {
	Get(ctx context.Context, op, rawURL string) ([]byte, error)
}

// HTTPSource is a RecordSource backed by the REST API.
type HTTPSource struct {
	getter  Getter
	baseURL string
}

// NewHTTPSource creates a source rooted at baseURL. An empty baseURL uses
// DefaultBaseURL.
func NewHTTPSource(getter Getter, baseURL string) *HTTPSource {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &HTTPSource{
		getter:  getter,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

type listResponse struct {
	Results []Summary `json:"results"`
}

type namedRef struct {
	Name string `json:"name"`
}

type detailResponse struct {
	ID     int    `json:"id"`
	Name   string `json:"name"`
	Weight int    `json:"weight"`
	Stats  []struct {
		BaseStat int      `json:"base_stat"`
		Stat     namedRef `json:"stat"`
	} `json:"stats"`
	Types []struct {
		Slot int      `json:"slot"`
		Type namedRef `json:"type"`
	} `json:"types"`
	Sprites struct {
		FrontDefault string `json:"front_default"`
	} `json:"sprites"`
}

// PageURL returns the listing URL for a 1-based page.
func (s *HTTPSource) PageURL(page, pageSize int) string {
	q := url.Values{}
	q.Set("offset", strconv.Itoa((page-1)*pageSize))
	q.Set("limit", strconv.Itoa(pageSize))
	return s.baseURL + "/pokemon/?" + q.Encode()
}

// ListPage fetches the summaries of one page.
func (s *HTTPSource) ListPage(ctx context.Context, page, pageSize int) ([]Summary, error) {
	if page < 1 || pageSize < 1 {
		return nil, fmt.Errorf("%w: page=%d size=%d", ErrInvalidPage, page, pageSize)
	}

	pageURL := s.PageURL(page, pageSize)
	body, err := s.getter.Get(ctx, "list", pageURL)
	if err != nil {
		return nil, err
	}

	var resp listResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, client.NewDecodeError("list", pageURL, err)
	}
	return resp.Results, nil
}

// FetchDetail resolves a summary into a full record.
func (s *HTTPSource) FetchDetail(ctx context.Context, ref Summary) (catalog.Record, error) {
	body, err := s.getter.Get(ctx, "detail", ref.URL)
	if err != nil {
		return catalog.Record{}, err
	}

	var d detailResponse
	if err := json.Unmarshal(body, &d); err != nil {
		return catalog.Record{}, client.NewDecodeError("detail", ref.URL, err)
	}
	if d.ID == 0 || d.Name == "" {
		return catalog.Record{}, client.NewDecodeError("detail", ref.URL, fmt.Errorf("missing id or name"))
	}

	rec := catalog.Record{
		ID:     d.ID,
		Name:   d.Name,
		Weight: d.Weight,
		Stats:  make([]catalog.Stat, 0, len(d.Stats)),
		Types:  make([]catalog.Type, 0, len(d.Types)),
		Sprite: d.Sprites.FrontDefault,
	}
	for _, st := range d.Stats {
		rec.Stats = append(rec.Stats, catalog.Stat{Name: st.Stat.Name, BaseValue: st.BaseStat})
	}
	for _, t := range d.Types {
		rec.Types = append(rec.Types, catalog.Type{Slot: t.Slot, Name: t.Type.Name})
	}
	return rec, nil
}
