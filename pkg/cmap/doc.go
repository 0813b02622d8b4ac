// Package cmap provides a sharded concurrent map keyed by strings.
//
// Keys are distributed over shards with murmur3, each shard guarded by its
// own RWMutex. The replay cache uses it to hold recently seen token digests.
//
// Usage:
//
//	m := cmap.New[time.Time]()
//	if m.SetIfAbsent(digest, expiresAt) {
//		// first sighting
//	}
//
// Thread Safety:
//
// All operations are thread-safe. Get, Has, Count and Range take read
// locks; everything else takes the shard write lock.
package cmap
