// Package request defines the print-request domain model and the status
// state machine that governs its lifecycle.
//
// A Request moves through queued -> in_progress -> done while it lives in the
// active collection, then out of active view entirely when archived. Archival
// is positional rather than a status: an archived request keeps its final
// done status and gains an ArchivedAt timestamp. The only legal status edges
// are the two listed in transitions; everything else is rejected centrally by
// the store.
//
// Treat this package as the single source of truth for lifecycle semantics;
// when you add a status, extend transitions here rather than checking edges
// at call sites.
package request
