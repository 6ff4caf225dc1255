// Package storage persists movie collections in a per-user data directory.
//
// # Overview
//
// Store is the fail-soft adapter the list store writes through. It encodes
// a collection as a JSON array of movie records and hands the bytes to a
// Backend. Read and Write never return errors: an absent key, an unreadable
// backend, or a corrupt document all read as an empty collection, and a
// failed write is logged while the in-memory state stays authoritative.
//
// # Backends
//
//   - FileBackend (default): one <key>.json file per key, replaced
//     atomically via renameio. Keys must match ^[a-z0-9_]+$.
//   - BadgerBackend: an embedded badger database with keys under "movies:".
//   - MemoryBackend: a map, for tests and ephemeral sessions.
//
// Open selects a backend by the configured name ("file", "badger", "memory").
package storage
