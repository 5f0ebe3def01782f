// Package cache provides the TTL response cache for the community API
// client.
//
// The store keeps JSON response payloads in a namespaced key-value
// backend (see pkg/storage) with the following behavior:
//
//   - Per-entry TTL measured from write time; an entry is never
//     returned once expired
//   - Lazy eviction: reading an expired (or corrupt) entry deletes it;
//     there is no background sweep
//   - Best-effort writes: a failing backend is logged and swallowed,
//     never surfaced to the originating request
//   - Deterministic keys: canonical (sorted) option serialization plus
//     an xxhash digest, including the active API base target
//   - Prometheus metrics for hits, misses, evictions, and errors
//
// # Basic usage
//
//	store := cache.NewStore(storage.NewMemory(), logger)
//
//	key := cache.Key{
//		Base:     "https://api.townsquared.com",
//		Endpoint: "/api/tags",
//	}
//
//	data, err := store.Get(ctx, key)
//	if err == cache.ErrCacheMiss {
//		// fetch from the network, then:
//		store.Set(ctx, key, payload, ttlPolicy.For("/api/tags"))
//	}
//
// # TTL policy
//
// The endpoint family → TTL mapping is an explicit ordered rule table
// (TTLPolicy), evaluated first match wins. It is independent of the
// request timeout table in pkg/timeout: how long a response stays
// useful and how long to wait for one are different axes.
//
// # Diagnostics
//
// Size and Has exist for instrumentation only. Has ignores expiry (it
// reports physical record presence) and must not be used to make
// freshness decisions.
package cache
