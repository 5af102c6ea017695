// Package notifications delivers push notifications for request lifecycle
// events via ntfy, or silently discards them when no topic is configured.
//
// Delivery is fire-and-forget relative to the store: the Dispatcher consumes
// store events on its own goroutine and reports failures as warnings, never
// as store-mutation failures.
package notifications
