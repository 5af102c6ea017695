// Package retention enforces the temporal rules of the request lifecycle:
// done requests are swept into the archive, archived requests past the
// retention horizon are purged, and payload artifacts of week-old completed
// requests are expired from upload storage.
//
// The engine owns policy only; all record mutation goes through the store,
// and artifact deletion failures degrade to warnings rather than touching
// request state.
package retention
