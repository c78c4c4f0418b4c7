// Package cache provides a Redis-backed cache for artworks API responses.
//
// Cached pages are shared across sessions and processes that point at the
// same Redis. Entries live until the Expires header of the response (or
// DefaultTTL when the API sends none) and carry the validators needed for
// conditional requests.
//
// # Basic Usage
//
//	manager := cache.NewManager(redisClient)
//
//	key := cache.CacheKey{
//		Endpoint:    "/artworks",
//		QueryParams: url.Values{"page": []string{"2"}, "limit": []string{"12"}},
//	}
//
//	entry, err := manager.Get(ctx, key)
//	if errors.Is(err, cache.ErrCacheMiss) {
//		// fetch from the API
//	}
//
// # Conditional Requests
//
//	if cache.ShouldMakeConditionalRequest(entry) {
//		cache.AddConditionalHeaders(req, entry)
//		// a 304 means the cached body is still current
//	}
//
// # Metrics
//
//   - artic_cache_hits_total{layer="redis"}
//   - artic_cache_misses_total
//   - artic_cache_size_bytes{layer="redis"}
//   - artic_304_responses_total
//   - artic_conditional_requests_total
//   - artic_cache_errors_total{operation}
package cache
