package cache

import (
	"fmt"
	"net/url"
	"sort"
	"strings"
)

// keyPrefix namespaces every cache key in Redis.
const keyPrefix = "dex"

// CacheKey identifies a cached API response.
type CacheKey struct {
	// Host is the API host (e.g., "pokeapi.co")
	Host string

	// Path is the request path (e.g., "/api/v2/pokemon/25/")
	Path string

	// QueryParams are the query parameters (e.g., {"offset": "151", "limit": "151"})
	QueryParams url.Values
}

// KeyFromURL builds the cache key for a request URL.
func KeyFromURL(u *url.URL) CacheKey {
	return CacheKey{
		Host:        strings.ToLower(u.Host),
		Path:        u.Path,
		QueryParams: u.Query(),
	}
}

// String generates a deterministic cache key string.
// Format: dex:host/path:query1=val1:query2=val2
//
// Example:
//
//	dex:pokeapi.co/api/v2/pokemon:limit=151:offset=0
func (k CacheKey) String() string {
	parts := []string{keyPrefix}

	target := strings.Trim(k.Path, "/")
	if k.Host != "" {
		target = strings.TrimSuffix(k.Host+"/"+target, "/")
	}
	if target != "" {
		parts = append(parts, target)
	}

	// Sorted for determinism
	if len(k.QueryParams) > 0 {
		queryKeys := make([]string, 0, len(k.QueryParams))
		for key := range k.QueryParams {
			queryKeys = append(queryKeys, key)
		}
		sort.Strings(queryKeys)

		for _, key := range queryKeys {
			parts = append(parts, fmt.Sprintf("%s=%s", key, k.QueryParams.Get(key)))
		}
	}

	return strings.Join(parts, ":")
}
