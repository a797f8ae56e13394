// Package pagination turns scroll position into page loads against a
// RecordSource.
//
// A page load lists one page of summaries, resolves every summary's detail
// in parallel, and appends the successful records to the catalog store in
// listing order. Individual detail failures are logged and the record is
// left out; a listing failure aborts the page without advancing the cursor,
// so the next at-bottom signal requests the same page again.
//
// Example usage:
//
//	store := catalog.NewStore()
//	feed := pagination.NewViewportFeed()
//	p := pagination.NewPaginator(src, store, pagination.DefaultPaginatorConfig())
//	if err := p.Mount(ctx, feed); err != nil {
//		log.Warn().Err(err).Msg("initial page failed")
//	}
//	defer p.Unmount()
//
//	feed.Publish(pagination.Viewport{ScrollTop: 900, ViewportHeight: 100, ContentHeight: 1000})
//
// The paginator:
//   - Loads page 1 on Mount regardless of scroll position
//   - Starts one background load per at-bottom signal while idle
//   - Drops signals that arrive while a load is in flight
//   - Marks the catalog exhausted when a page comes back short
package pagination
