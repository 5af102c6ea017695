package retention

import (
	"context"
	"log/slog"
	"time"

	"printq/internal/config"
	"printq/internal/logging"
	"printq/internal/request"
	"printq/internal/store"
)

// ArtifactRemover deletes payload bytes from external storage. A missing
// artifact is not an error.
type ArtifactRemover interface {
	Remove(path string) error
}

// Result reports what a cleanup pass did.
type Result struct {
	Archived int `json:"archived"`
	Purged   int `json:"purged"`
}

// Engine applies the archival, purge, and artifact-expiry rules to a store.
type Engine struct {
	store     *store.Store
	artifacts ArtifactRemover
	logger    *slog.Logger

	archiveRetention time.Duration
	artifactExpiry   time.Duration
	now              func() time.Time
}

// NewEngine builds a retention engine from configuration.
func NewEngine(cfg *config.Config, st *store.Store, artifacts ArtifactRemover, logger *slog.Logger) *Engine {
	return &Engine{
		store:            st,
		artifacts:        artifacts,
		logger:           logging.NewComponentLogger(logger, "retention"),
		archiveRetention: time.Duration(cfg.Retention.ArchiveRetentionDays) * 24 * time.Hour,
		artifactExpiry:   time.Duration(cfg.Retention.ArtifactExpiryDays) * 24 * time.Hour,
		now:              func() time.Time { return time.Now().UTC() },
	}
}

// WithClock overrides the engine time source, primarily for tests.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	if now != nil {
		e.now = now
	}
	return e
}

// Cleanup runs the archival sweep followed by the purge sweep. Running it
// twice with no intervening mutation yields {0, 0} the second time.
func (e *Engine) Cleanup(ctx context.Context) (Result, error) {
	if err := ctx.Err(); err != nil {
		return Result{}, err
	}

	archived, err := e.store.ArchiveCompleted()
	if err != nil {
		return Result{}, err
	}

	purged, err := e.store.DeleteExpiredArchive(e.archiveRetention)
	if err != nil {
		return Result{Archived: archived}, err
	}

	result := Result{Archived: archived, Purged: purged}
	if archived > 0 || purged > 0 {
		e.logger.Info("cleanup completed",
			logging.Int("archived", result.Archived),
			logging.Int("purged", result.Purged),
		)
	}
	return result, nil
}

// ExpireArtifacts deletes the payload files of done requests submitted more
// than the expiry window ago and clears their references. This is advisory
// cleanup of external storage: per-request failures are logged and skipped,
// never surfaced as store failures, and the request records themselves stay
// where they are.
func (e *Engine) ExpireArtifacts(ctx context.Context) (int, error) {
	cutoff := e.now().Add(-e.artifactExpiry)
	expired := 0

	candidates := append(e.store.ListActive(), e.store.ListArchived()...)
	for _, req := range candidates {
		if err := ctx.Err(); err != nil {
			return expired, err
		}
		if req.Status != request.StatusDone || req.Payload.Path == "" {
			continue
		}
		if !req.SubmittedAt.Before(cutoff) {
			continue
		}

		if err := e.artifacts.Remove(req.Payload.Path); err != nil {
			e.logger.Warn("artifact deletion failed; will retry next sweep",
				logging.String(logging.FieldRequestID, req.ID),
				logging.String("path", req.Payload.Path),
				logging.Error(err),
			)
			continue
		}
		if err := e.store.ClearPayloadPath(req.ID); err != nil {
			e.logger.Warn("artifact removed but reference not cleared",
				logging.String(logging.FieldRequestID, req.ID),
				logging.Error(err),
			)
			continue
		}
		expired++
	}

	if expired > 0 {
		e.logger.Info("expired payload artifacts", logging.Int("count", expired))
	}
	return expired, nil
}
