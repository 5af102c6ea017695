package store

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"printq/internal/config"
	"printq/internal/logging"
	"printq/internal/request"
)

// Store guards the active and archive collections behind a single mutex and
// writes every mutation through the snapshot backend before returning.
type Store struct {
	mu      sync.RWMutex
	active  []*request.Request
	archive []*request.Request

	backend Backend
	logger  *slog.Logger
	events  chan Event
	now     func() time.Time

	droppedEvents atomic.Uint64
}

// Option adjusts store construction.
type Option func(*Store)

// WithClock overrides the time source, primarily for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithBackend substitutes the snapshot backend instead of building one from
// config. The store takes ownership and closes it.
func WithBackend(backend Backend) Option {
	return func(s *Store) {
		if backend != nil {
			s.backend = backend
		}
	}
}

// Open loads the durable snapshot and returns a ready store. Corrupt durable
// state is fatal here: integrity cannot be assumed past a failed load.
func Open(cfg *config.Config, logger *slog.Logger, opts ...Option) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	s := &Store{
		logger: logging.NewComponentLogger(logger, "store"),
		events: make(chan Event, eventBufferSize),
		now:    func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.backend == nil {
		backend, err := newBackend(cfg)
		if err != nil {
			return nil, err
		}
		s.backend = backend
	}

	snapshot, err := s.backend.Load()
	if err != nil {
		_ = s.backend.Close()
		return nil, err
	}
	if err := s.adopt(snapshot); err != nil {
		_ = s.backend.Close()
		return nil, err
	}
	return s, nil
}

// adopt installs a loaded snapshot, repairing the one inconsistency a crash
// between the two archive-move writes can produce: a request present in both
// collections. The archive copy wins because it is written first.
func (s *Store) adopt(snapshot Snapshot) error {
	archived := make(map[string]struct{}, len(snapshot.Archive))
	for _, req := range snapshot.Archive {
		if _, dup := archived[req.ID]; dup {
			return fmt.Errorf("load store: duplicate id %s in archive collection", req.ID)
		}
		archived[req.ID] = struct{}{}
	}

	active := make([]*request.Request, 0, len(snapshot.Active))
	seen := make(map[string]struct{}, len(snapshot.Active))
	repaired := false
	for _, req := range snapshot.Active {
		if _, dup := seen[req.ID]; dup {
			return fmt.Errorf("load store: duplicate id %s in active collection", req.ID)
		}
		seen[req.ID] = struct{}{}
		if _, ok := archived[req.ID]; ok {
			s.logger.Warn("request found in both collections; keeping archive copy",
				logging.String(logging.FieldRequestID, req.ID))
			repaired = true
			continue
		}
		active = append(active, req)
	}

	s.active = active
	s.archive = snapshot.Archive

	if repaired {
		if err := s.backend.SaveActive(s.active); err != nil {
			return request.Wrap(request.ErrPersistence, "load", "repair active collection", err)
		}
	}
	return nil
}

// Close releases the backend. The event channel stays open; consumers stop
// via their own context.
func (s *Store) Close() error {
	if s == nil || s.backend == nil {
		return nil
	}
	return s.backend.Close()
}

// Create validates intake input and appends a new queued request to the
// active collection.
func (s *Store) Create(requester request.Requester, group, purpose string, payload request.Payload) (*request.Request, error) {
	group = strings.TrimSpace(group)
	purpose = strings.TrimSpace(purpose)
	if group == "" {
		return nil, request.Wrap(request.ErrValidation, "create", "group is required", nil)
	}
	if purpose == "" {
		return nil, request.Wrap(request.ErrValidation, "create", "purpose is required", nil)
	}
	if strings.TrimSpace(payload.Path) == "" {
		return nil, request.Wrap(request.ErrValidation, "create", "payload reference is required", nil)
	}
	if strings.TrimSpace(payload.Name) == "" {
		payload.Name = payload.Path
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	req := request.New(requester, group, purpose, payload)
	req.SubmittedAt = s.now()

	s.active = append(s.active, req)
	if err := s.backend.SaveActive(s.active); err != nil {
		s.active = s.active[:len(s.active)-1]
		return nil, request.Wrap(request.ErrPersistence, "create", "persist active collection", err)
	}

	s.logger.Info("request created",
		logging.String(logging.FieldRequestID, req.ID),
		logging.String("group", req.Group),
		logging.String("purpose", req.Purpose),
	)
	s.emit(Event{
		Kind:      EventCreated,
		RequestID: req.ID,
		NewStatus: req.Status,
		Recipient: req.Requester.UserID,
		Title:     req.Payload.Name,
	})
	return req.Clone(), nil
}

// Get looks up a request by id across both collections.
func (s *Store) Get(id string) (*request.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if idx := indexOf(s.active, id); idx >= 0 {
		return s.active[idx].Clone(), nil
	}
	if idx := indexOf(s.archive, id); idx >= 0 {
		return s.archive[idx].Clone(), nil
	}
	return nil, request.Wrap(request.ErrNotFound, "get", id, nil)
}

// GetActive looks up a request in the active collection only.
func (s *Store) GetActive(id string) (*request.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if idx := indexOf(s.active, id); idx >= 0 {
		return s.active[idx].Clone(), nil
	}
	return nil, request.Wrap(request.ErrNotFound, "get_active", id, nil)
}

// GetArchived looks up a request in the archive collection only.
func (s *Store) GetArchived(id string) (*request.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if idx := indexOf(s.archive, id); idx >= 0 {
		return s.archive[idx].Clone(), nil
	}
	return nil, request.Wrap(request.ErrNotFound, "get_archived", id, nil)
}

// ListActive returns a snapshot of the active collection in submission order.
func (s *Store) ListActive() []*request.Request {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneAll(s.active)
}

// ListArchived returns a snapshot of the archive in archival order.
func (s *Store) ListArchived() []*request.Request {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneAll(s.archive)
}

// ResolveID expands an id prefix (as shown in operator output) to the full
// identifier. An ambiguous prefix is a validation error.
func (s *Store) ResolveID(prefix string) (string, error) {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		return "", request.Wrap(request.ErrValidation, "resolve", "empty id", nil)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var match string
	for _, collection := range [][]*request.Request{s.active, s.archive} {
		for _, req := range collection {
			if !strings.HasPrefix(req.ID, prefix) {
				continue
			}
			if match != "" && match != req.ID {
				return "", request.Wrap(request.ErrValidation, "resolve", fmt.Sprintf("ambiguous id prefix %q", prefix), nil)
			}
			match = req.ID
		}
	}
	if match == "" {
		return "", request.Wrap(request.ErrNotFound, "resolve", prefix, nil)
	}
	return match, nil
}

// Transition applies a status edge to an active request. Illegal edges and
// attempts against archived requests fail without mutation; the current
// record is returned alongside the error so callers can display it.
func (s *Store) Transition(id string, target request.Status) (*request.Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := indexOf(s.active, id)
	if idx < 0 {
		if archIdx := indexOf(s.archive, id); archIdx >= 0 {
			return s.archive[archIdx].Clone(), request.Wrap(request.ErrInvalidTransition, "transition", "request is archived", nil)
		}
		return nil, request.Wrap(request.ErrNotFound, "transition", id, nil)
	}

	current := s.active[idx]
	if !request.CanTransition(current.Status, target) {
		return current.Clone(), request.Wrap(request.ErrInvalidTransition, "transition",
			fmt.Sprintf("%s -> %s is not a legal edge", current.Status, target), nil)
	}

	updated := current.Clone()
	updated.Status = target
	s.active[idx] = updated
	if err := s.backend.SaveActive(s.active); err != nil {
		s.active[idx] = current
		return nil, request.Wrap(request.ErrPersistence, "transition", "persist active collection", err)
	}

	s.logger.Info("request status changed",
		logging.String(logging.FieldRequestID, updated.ID),
		logging.String(logging.FieldStatus, string(updated.Status)),
	)
	if updated.Requester.Deliverable() {
		s.emit(Event{
			Kind:      EventStatusChanged,
			RequestID: updated.ID,
			NewStatus: updated.Status,
			Recipient: updated.Requester.UserID,
			Title:     updated.Payload.Name,
		})
	} else {
		s.logger.Debug("notification skipped; requester has no deliverable address",
			logging.String(logging.FieldRequestID, updated.ID))
	}
	return updated.Clone(), nil
}

// AddComment sets the operator annotation on an active request.
func (s *Store) AddComment(id, text string) (*request.Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := indexOf(s.active, id)
	if idx < 0 {
		return nil, request.Wrap(request.ErrNotFound, "add_comment", id, nil)
	}

	current := s.active[idx]
	updated := current.Clone()
	updated.Comment = strings.TrimSpace(text)
	s.active[idx] = updated
	if err := s.backend.SaveActive(s.active); err != nil {
		s.active[idx] = current
		return nil, request.Wrap(request.ErrPersistence, "add_comment", "persist active collection", err)
	}
	return updated.Clone(), nil
}

// Archive moves a done request from the active collection to the archive.
// The move is a single mutation under the store lock: no reader observes the
// request in both collections or in neither.
func (s *Store) Archive(id string) (*request.Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := indexOf(s.active, id)
	if idx < 0 {
		if archIdx := indexOf(s.archive, id); archIdx >= 0 {
			return s.archive[archIdx].Clone(), request.Wrap(request.ErrInvalidTransition, "archive", "request already archived", nil)
		}
		return nil, request.Wrap(request.ErrNotFound, "archive", id, nil)
	}

	current := s.active[idx]
	if current.Status != request.StatusDone {
		return current.Clone(), request.Wrap(request.ErrInvalidTransition, "archive",
			fmt.Sprintf("status is %s, only %s requests may be archived", current.Status, request.StatusDone), nil)
	}

	moved, err := s.moveToArchiveLocked([]int{idx})
	if err != nil {
		return nil, err
	}
	return moved[0].Clone(), nil
}

// ArchiveCompleted sweeps every done request into the archive in one pass and
// one durable write per collection.
func (s *Store) ArchiveCompleted() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var indices []int
	for i, req := range s.active {
		if req.Status == request.StatusDone {
			indices = append(indices, i)
		}
	}
	if len(indices) == 0 {
		return 0, nil
	}

	moved, err := s.moveToArchiveLocked(indices)
	if err != nil {
		return 0, err
	}
	return len(moved), nil
}

// moveToArchiveLocked stamps ArchivedAt on the requests at the given active
// indices and moves them to the archive. The archive document is written
// first; if the active write then fails, both collections are rolled back
// and the archive document restored so durable state matches memory.
func (s *Store) moveToArchiveLocked(indices []int) ([]*request.Request, error) {
	prevActive := s.active
	prevArchive := s.archive

	archivedAt := s.now()
	moving := make(map[int]struct{}, len(indices))
	for _, idx := range indices {
		moving[idx] = struct{}{}
	}

	nextActive := make([]*request.Request, 0, len(s.active)-len(indices))
	moved := make([]*request.Request, 0, len(indices))
	for i, req := range s.active {
		if _, ok := moving[i]; !ok {
			nextActive = append(nextActive, req)
			continue
		}
		archived := req.Clone()
		at := archivedAt
		archived.ArchivedAt = &at
		moved = append(moved, archived)
	}
	nextArchive := append(append([]*request.Request{}, s.archive...), moved...)

	s.active = nextActive
	s.archive = nextArchive

	if err := s.backend.SaveArchive(s.archive); err != nil {
		s.active = prevActive
		s.archive = prevArchive
		return nil, request.Wrap(request.ErrPersistence, "archive", "persist archive collection", err)
	}
	if err := s.backend.SaveActive(s.active); err != nil {
		s.active = prevActive
		s.archive = prevArchive
		if restoreErr := s.backend.SaveArchive(s.archive); restoreErr != nil {
			s.logger.Error("failed to restore archive document after aborted move; startup repair will reconcile",
				logging.Error(restoreErr))
		}
		return nil, request.Wrap(request.ErrPersistence, "archive", "persist active collection", err)
	}

	for _, req := range moved {
		s.logger.Info("request archived",
			logging.String(logging.FieldRequestID, req.ID))
		if req.Requester.Deliverable() {
			s.emit(Event{
				Kind:      EventArchived,
				RequestID: req.ID,
				NewStatus: req.Status,
				Recipient: req.Requester.UserID,
				Title:     req.Payload.Name,
			})
		}
	}
	return moved, nil
}

// DeleteExpiredArchive permanently removes archived requests whose ArchivedAt
// is older than the retention horizon. Entries without ArchivedAt are
// conservatively retained.
func (s *Store) DeleteExpiredArchive(horizon time.Duration) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-horizon)
	kept := make([]*request.Request, 0, len(s.archive))
	removed := 0
	for _, req := range s.archive {
		if req.ArchivedAt != nil && req.ArchivedAt.Before(cutoff) {
			removed++
			continue
		}
		kept = append(kept, req)
	}
	if removed == 0 {
		return 0, nil
	}

	prev := s.archive
	s.archive = kept
	if err := s.backend.SaveArchive(s.archive); err != nil {
		s.archive = prev
		return 0, request.Wrap(request.ErrPersistence, "purge", "persist archive collection", err)
	}
	s.logger.Info("expired archive entries purged", logging.Int("count", removed))
	return removed, nil
}

// ClearPayloadPath drops the artifact reference from a request in either
// collection, keeping the display name. Used after the artifact itself has
// been expired from external storage.
func (s *Store) ClearPayloadPath(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if idx := indexOf(s.active, id); idx >= 0 {
		current := s.active[idx]
		updated := current.Clone()
		updated.Payload.Path = ""
		s.active[idx] = updated
		if err := s.backend.SaveActive(s.active); err != nil {
			s.active[idx] = current
			return request.Wrap(request.ErrPersistence, "clear_payload", "persist active collection", err)
		}
		return nil
	}
	if idx := indexOf(s.archive, id); idx >= 0 {
		current := s.archive[idx]
		updated := current.Clone()
		updated.Payload.Path = ""
		s.archive[idx] = updated
		if err := s.backend.SaveArchive(s.archive); err != nil {
			s.archive[idx] = current
			return request.Wrap(request.ErrPersistence, "clear_payload", "persist archive collection", err)
		}
		return nil
	}
	return request.Wrap(request.ErrNotFound, "clear_payload", id, nil)
}

// CountByStatus counts requests with the given status, either in the active
// collection only or across both collections.
func (s *Store) CountByStatus(activeOnly bool, status request.Status) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, req := range s.active {
		if req.Status == status {
			count++
		}
	}
	if !activeOnly {
		for _, req := range s.archive {
			if req.Status == status {
				count++
			}
		}
	}
	return count
}

// Summary aggregates collection counts for status output and metrics.
type Summary struct {
	Queued     int `json:"queued"`
	InProgress int `json:"in_progress"`
	Done       int `json:"done"`
	Active     int `json:"active"`
	Archived   int `json:"archived"`
}

// Stats returns per-status counts for the active collection plus the archive
// size.
func (s *Store) Stats() Summary {
	s.mu.RLock()
	defer s.mu.RUnlock()

	summary := Summary{Active: len(s.active), Archived: len(s.archive)}
	for _, req := range s.active {
		switch req.Status {
		case request.StatusQueued:
			summary.Queued++
		case request.StatusInProgress:
			summary.InProgress++
		case request.StatusDone:
			summary.Done++
		}
	}
	return summary
}

func indexOf(requests []*request.Request, id string) int {
	for i, req := range requests {
		if req.ID == id {
			return i
		}
	}
	return -1
}

func cloneAll(requests []*request.Request) []*request.Request {
	out := make([]*request.Request, len(requests))
	for i, req := range requests {
		out[i] = req.Clone()
	}
	return out
}
