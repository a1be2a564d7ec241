// Package cache provides a generic LRU cache.
//
// Cache[K, V] keeps at most a fixed number of entries and evicts the least
// recently used one on overflow. The editing engine uses it for decoded
// media frames and for font faces per size.
//
//	frames := cache.New[int64, *image.RGBA](64)
//	frames.Set(120, img)
//	img, ok := frames.Get(120)
//
// # Thread Safety
//
// Cache is safe for concurrent use and must not be copied after creation.
package cache
