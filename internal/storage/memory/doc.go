// Package memory provides the in-memory replay cache for pgpauth.
//
// NonceStore keeps replay keys in a sharded concurrent map with a
// per-entry expiry. Expired entries are removed by a background sweeper
// and are treated as absent before the sweeper reaches them.
//
// Capacity:
//
// The store never evicts a live entry to make room. Once the configured
// capacity is reached, new keys are rejected with a storage error until
// the sweeper frees space. Evicting live keys would let a captured token
// be replayed inside its acceptance window.
//
// Thread Safety:
//
// Remember is atomic per key: concurrent calls for the same key see
// exactly one fresh result.
package memory
