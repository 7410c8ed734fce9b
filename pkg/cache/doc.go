// Package cache provides a generic, thread-safe LRU cache with optional
// per-entry expiry.
//
// The cache evicts the least recently used entry once it grows past its
// capacity. Entries stored with PutWithTTL expire after the given duration;
// expired entries are dropped when they are read or when Purge runs. All
// operations are O(1) except Purge and Clear.
//
// # Usage
//
//	answers := cache.NewLRUCache[string, bool](10_000)
//	answers.PutWithTTL("NL:123456789B01", true, time.Hour)
//
//	if valid, ok := answers.Get("NL:123456789B01"); ok {
//		// cached registry answer
//	}
//
// An eviction callback registered with SetEvictCallback runs for every entry
// leaving the cache, whether through eviction, expiry, Remove or Clear. The
// callback is called with the cache lock held and must not call back into the
// cache.
package cache
