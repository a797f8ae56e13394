// Package cache provides an HTTP response cache for the record API with a
// Redis backend.
//
// Features:
//
// - Freshness from Cache-Control max-age, then Expires, then DefaultTTL
// - Stale entries kept for revalidation with If-None-Match / If-Modified-Since
// - Deterministic cache keys built from the request URL
// - Prometheus metrics for observability
//
// # Basic Usage
//
//	redisClient := redis.NewClient(&redis.Options{Addr: "localhost:6379"})
//	manager := cache.NewManager(redisClient)
//
//	u, _ := url.Parse("https://pokeapi.co/api/v2/pokemon/25/")
//	key := cache.KeyFromURL(u)
//
//	entry, err := manager.Get(ctx, key)
//	switch {
//	case err == cache.ErrCacheMiss:
//		// fetch from the API
//	case !entry.IsExpired():
//		// serve entry.Data
//	case entry.CanRevalidate():
//		cache.AddConditionalHeaders(req, entry)
//		// a 304 answer means entry.Data is still valid: cache.Refresh(entry, resp.Header)
//	}
//
// # Metrics
//
//   - dex_cache_hits_total{freshness} - Cache hits (fresh or stale)
//   - dex_cache_misses_total - Cache misses
//   - dex_cache_writes_total - Stored entries
//   - dex_cache_bytes_written_total - Serialized bytes stored
//   - dex_304_responses_total - Successful revalidations
//   - dex_cache_errors_total{operation} - Cache operation errors
//
// Caching is an optimization of the transport only. Nothing here survives
// as catalog state: every session still builds its catalog page by page.
package cache
