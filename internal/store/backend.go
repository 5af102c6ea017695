package store

import (
	"fmt"

	"printq/internal/config"
	"printq/internal/request"
)

// Snapshot holds the durable state of both collections in order.
type Snapshot struct {
	Active  []*request.Request
	Archive []*request.Request
}

// Backend persists whole-collection snapshots. Each Save call replaces the
// affected collection's durable representation atomically; a crash mid-write
// must leave the previous durable state intact.
type Backend interface {
	Load() (Snapshot, error)
	SaveActive(active []*request.Request) error
	SaveArchive(archive []*request.Request) error
	Close() error
}

func newBackend(cfg *config.Config) (Backend, error) {
	switch cfg.Store.Backend {
	case "", "json":
		return newFSBackend(cfg.Paths.DataDir)
	case "sqlite":
		return newSQLiteBackend(cfg.Paths.DataDir)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Store.Backend)
	}
}
