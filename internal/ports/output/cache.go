package output

import "fmt"

// CacheKey identifies one assembled payload.
type CacheKey struct {
	Screen   string
	Language string
	Variant  string
}

func (k CacheKey) String() string {
	return fmt.Sprintf("%s_%s_%s", k.Variant, k.Screen, k.Language)
}

// CacheStats is the introspection view of a ContentCache.
type CacheStats struct {
	Entries int      `json:"keys_count"`
	Hits    uint64   `json:"hits"`
	Misses  uint64   `json:"misses"`
	HitRate float64  `json:"hit_rate"`
	Keys    []string `json:"keys"`
}

// ContentCache memoises assembled payloads for a bounded time. Get has no
// side effect on a miss; the caller populates with Put.
type ContentCache interface {
	Get(key CacheKey) (any, bool)
	Put(key CacheKey, value any)
	Delete(key CacheKey)
	Clear() int
	Stats() CacheStats
}
