// Package lists holds the user's movie collections: watch later, watched,
// and favorites.
//
// # Overview
//
// Store is the single source of truth for collection membership. The UI
// reads copies through Collection, Recent, Contains, Counts, and Snapshot,
// and changes membership only through Toggle.
//
// # Toggle Semantics
//
// Toggle is keyed by movie id:
//
//	present → removed
//	absent  → appended (stored exactly as supplied)
//
// Toggling the same movie twice restores the original collection. A removed
// movie that is added again goes to the end. Records are never merged: the
// record supplied to an adding toggle replaces nothing and is kept verbatim.
//
// # Persistence
//
// Each toggle writes the affected collection through the Persister (normally
// *storage.Store) while the lock is held, so the persisted sequence always
// matches memory after the call returns. Persistence failures are absorbed
// by the persister; the in-memory state stays authoritative.
//
// # Concurrency
//
// A sync.RWMutex guards the collections. Readers get defensive copies.
// Subscribers registered with Subscribe run after the lock is released, in
// registration order. Deliveries are serialized and each carries the counts
// current when it starts, so the last delivery matches the final state even
// when toggles race. Subscribers may read the store or unsubscribe but must
// not call Toggle.
package lists
