// Package cache provides the dispatcher's response cache and the hashing
// used to key it.
//
// MemoryCache is bounded (least-recently-accessed eviction), time-expiring
// (lazy expiry on Get plus an optional periodic sweep), and copies responses
// in and out. DefaultKeyer derives 16-character SHA-256 fingerprints from a
// request and its writing context; on failure it degrades to SentinelHash,
// and the cache treats sentinel-keyed entries with a shorter TTL and a cap.
package cache
