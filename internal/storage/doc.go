// Package storage provides persistent replay-cache storage for pgpauth.
//
// BadgerNonceStore keeps replay keys in an embedded Badger database with
// per-entry TTLs, so a restarted verifier still rejects tokens it accepted
// before the restart. The in-memory alternative lives in storage/memory.
//
// Maintenance:
//
//   - Value log GC runs on a fixed interval
//   - LSM and value log sizes are exported as Prometheus gauges
package storage
