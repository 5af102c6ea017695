// Package daemon coordinates the long-running printq process.
//
// It wires configuration, the request store, the notification dispatcher,
// the retention scheduler, and the HTTP API into a single lifecycle with
// flock-based locking to prevent multiple instances. Keep orchestration
// logic here: domain behavior belongs to the store, retention, and
// notifications packages while the daemon focuses on startup, shutdown,
// and scheduling.
package daemon
