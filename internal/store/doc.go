// Package store owns the durable collections of active and archived print
// requests and every mutating operation on them.
//
// A single Store guards both collections with one mutex so that the archive
// move is observed atomically: no concurrent reader ever sees a request in
// both collections or in neither. Every mutation is written through a
// snapshot backend before the operation returns; when the durable write
// fails, the in-memory change is rolled back so the store always matches the
// last persisted state.
//
// Two backends satisfy the snapshot contract: atomic-rename JSON documents
// (the default, human-inspectable) and SQLite. Both replace the affected
// collection wholesale; nothing relies on partial or append-only writes.
package store
