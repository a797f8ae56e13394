// Package source abstracts the remote paginated record API.
package source

import (
	"context"
	"errors"

	"github.com/Sternrassler/dex-browser/pkg/catalog"
)

// ErrInvalidPage is returned for a page index or page size below 1.
var ErrInvalidPage = errors.New("invalid page request")

// Summary is the minimal handle returned by a page listing.
type Summary struct {
	URL string `json:"url"`
}

// RecordSource lists pages of summaries and resolves summaries into full
// records. Both calls fail with a *client.TransportError on network, status
// or parse failure.
//
// ListPage returns fewer than pageSize summaries, possibly none, once the
// remote collection is exhausted.
type RecordSource interface {
	ListPage(ctx context.Context, page, pageSize int) ([]Summary, error)
	FetchDetail(ctx context.Context, ref Summary) (catalog.Record, error)
}
