// Package cache provides a generic LRU cache with a strict capacity.
//
//	faces := cache.New[uint64, *font.Face](32)
//	face, err := faces.GetOrCreate(id, func() (*font.Face, error) {
//		return font.NewFace(f), nil
//	})
//
// The least recently used entry is evicted as soon as an insert exceeds the
// capacity; an optional callback observes evictions.
//
// # Thread Safety
//
// Cache is safe for concurrent use and must not be copied after creation.
// Values returned from the cache are shared, not copied.
package cache
