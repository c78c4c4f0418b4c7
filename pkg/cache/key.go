package cache

import (
	"net/url"
	"slices"
	"strings"
)

// KeyPrefix namespaces response entries in Redis, apart from the rate limit keys.
const KeyPrefix = "artic:cache"

// CacheKey identifies a cached API response.
type CacheKey struct {
	// Endpoint is the request path, e.g. "/api/v1/artworks"
	Endpoint string

	QueryParams url.Values
}

// String renders the Redis key: the prefix, the trimmed path, then every
// query parameter in name order. Repeated values are joined with commas.
//
//	artic:cache:artworks:fields=id,title:limit=12:page=2
func (k CacheKey) String() string {
	var b strings.Builder
	b.WriteString(KeyPrefix)

	if p := strings.Trim(k.Endpoint, "/"); p != "" {
		b.WriteByte(':')
		b.WriteString(p)
	}

	names := make([]string, 0, len(k.QueryParams))
	for name := range k.QueryParams {
		names = append(names, name)
	}
	slices.Sort(names)

	for _, name := range names {
		b.WriteByte(':')
		b.WriteString(name)
		b.WriteByte('=')
		b.WriteString(strings.Join(k.QueryParams[name], ","))
	}
	return b.String()
}
