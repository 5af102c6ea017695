package store_test

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"printq/internal/logging"
	"printq/internal/request"
	"printq/internal/store"
	"printq/internal/testsupport"
)

func TestCreateAndFetch(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	req := testsupport.CreateRequest(t, st, "thesis.pdf")
	if req.Status != request.StatusQueued {
		t.Fatalf("new request status = %q, want queued", req.Status)
	}

	fetched, err := st.Get(req.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if fetched.Payload.Name != "thesis.pdf" {
		t.Fatalf("unexpected payload name %q", fetched.Payload.Name)
	}

	if _, err := st.GetActive(req.ID); err != nil {
		t.Fatalf("GetActive failed: %v", err)
	}
	if _, err := st.GetArchived(req.ID); !errors.Is(err, request.ErrNotFound) {
		t.Fatalf("GetArchived error = %v, want ErrNotFound", err)
	}
}

func TestCreateValidation(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	requester := testsupport.NewRequester("u1")
	payload := request.Payload{Name: "x", Path: "/uploads/x"}

	if _, err := st.Create(requester, "", "prototype", payload); !errors.Is(err, request.ErrValidation) {
		t.Fatalf("empty group error = %v, want ErrValidation", err)
	}
	if _, err := st.Create(requester, "lab", "  ", payload); !errors.Is(err, request.ErrValidation) {
		t.Fatalf("empty purpose error = %v, want ErrValidation", err)
	}
	if _, err := st.Create(requester, "lab", "prototype", request.Payload{Name: "x"}); !errors.Is(err, request.ErrValidation) {
		t.Fatalf("missing payload path error = %v, want ErrValidation", err)
	}
}

func TestTransitionLifecycle(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	req := testsupport.CreateRequest(t, st, "badge.stl")

	// queued -> done must be rejected without mutation
	if _, err := st.Transition(req.ID, request.StatusDone); !errors.Is(err, request.ErrInvalidTransition) {
		t.Fatalf("skip edge error = %v, want ErrInvalidTransition", err)
	}
	current, err := st.Get(req.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if current.Status != request.StatusQueued {
		t.Fatalf("status after rejected edge = %q, want queued", current.Status)
	}

	for _, target := range []request.Status{request.StatusInProgress, request.StatusDone} {
		updated, err := st.Transition(req.ID, target)
		if err != nil {
			t.Fatalf("Transition to %s failed: %v", target, err)
		}
		if updated.Status != target {
			t.Fatalf("status = %q, want %q", updated.Status, target)
		}
	}

	// done is terminal
	if _, err := st.Transition(req.ID, request.StatusQueued); !errors.Is(err, request.ErrInvalidTransition) {
		t.Fatalf("backward edge error = %v, want ErrInvalidTransition", err)
	}

	if _, err := st.Transition("no-such-id", request.StatusInProgress); !errors.Is(err, request.ErrNotFound) {
		t.Fatalf("missing id error = %v, want ErrNotFound", err)
	}
}

func TestTransitionArchivedRequest(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	req := completedRequest(t, st, "flyer.pdf")

	if _, err := st.Archive(req.ID); err != nil {
		t.Fatalf("Archive failed: %v", err)
	}

	got, err := st.Transition(req.ID, request.StatusInProgress)
	if !errors.Is(err, request.ErrInvalidTransition) {
		t.Fatalf("archived transition error = %v, want ErrInvalidTransition", err)
	}
	if got == nil || got.ID != req.ID {
		t.Fatalf("expected the archived record alongside the error, got %#v", got)
	}
}

func TestResolveID(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	req := testsupport.CreateRequest(t, st, "one.pdf")

	resolved, err := st.ResolveID(req.ID[:8])
	if err != nil {
		t.Fatalf("ResolveID failed: %v", err)
	}
	if resolved != req.ID {
		t.Fatalf("resolved %q, want %q", resolved, req.ID)
	}

	if _, err := st.ResolveID("zzzzzzzz"); !errors.Is(err, request.ErrNotFound) {
		t.Fatalf("unknown prefix error = %v, want ErrNotFound", err)
	}
	if _, err := st.ResolveID(""); !errors.Is(err, request.ErrValidation) {
		t.Fatalf("empty prefix error = %v, want ErrValidation", err)
	}
	if _, err := st.ResolveID(string(req.ID[0])); err != nil {
		// a one-character prefix may or may not be ambiguous with a single
		// request; it must at least resolve or report validation
		if !errors.Is(err, request.ErrValidation) {
			t.Fatalf("short prefix error = %v", err)
		}
	}
}

func TestArchiveRequiresDone(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	req := testsupport.CreateRequest(t, st, "pending.pdf")

	if _, err := st.Archive(req.ID); !errors.Is(err, request.ErrInvalidTransition) {
		t.Fatalf("archive of queued request error = %v, want ErrInvalidTransition", err)
	}
	if _, err := st.GetActive(req.ID); err != nil {
		t.Fatalf("request should remain active: %v", err)
	}
}

func TestArchiveStampsTimestamp(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	frozen := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	st := testsupport.MustOpenStore(t, cfg, store.WithClock(func() time.Time { return frozen }))

	req := completedRequest(t, st, "poster.pdf")
	archived, err := st.Archive(req.ID)
	if err != nil {
		t.Fatalf("Archive failed: %v", err)
	}
	if archived.ArchivedAt == nil || !archived.ArchivedAt.Equal(frozen) {
		t.Fatalf("ArchivedAt = %v, want %v", archived.ArchivedAt, frozen)
	}

	if _, err := st.GetActive(req.ID); !errors.Is(err, request.ErrNotFound) {
		t.Fatalf("archived request still active: %v", err)
	}
	if _, err := st.GetArchived(req.ID); err != nil {
		t.Fatalf("GetArchived failed: %v", err)
	}
}

func TestArchiveCompletedSweep(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	var done []*request.Request
	for i := 0; i < 3; i++ {
		done = append(done, completedRequest(t, st, fmt.Sprintf("done-%d.pdf", i)))
	}
	queued := testsupport.CreateRequest(t, st, "still-queued.pdf")

	moved, err := st.ArchiveCompleted()
	if err != nil {
		t.Fatalf("ArchiveCompleted failed: %v", err)
	}
	if moved != len(done) {
		t.Fatalf("moved %d requests, want %d", moved, len(done))
	}
	if got := len(st.ListArchived()); got != len(done) {
		t.Fatalf("archive size = %d, want %d", got, len(done))
	}
	if _, err := st.GetActive(queued.ID); err != nil {
		t.Fatalf("queued request must survive the sweep: %v", err)
	}

	// second sweep is a no-op
	moved, err = st.ArchiveCompleted()
	if err != nil || moved != 0 {
		t.Fatalf("second sweep = (%d, %v), want (0, nil)", moved, err)
	}
}

func TestDeleteExpiredArchive(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	now := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	clock := &fakeClock{now: now.Add(-16 * 24 * time.Hour)}
	st := testsupport.MustOpenStore(t, cfg, store.WithClock(clock.Now))

	old := completedRequest(t, st, "old.pdf")
	if _, err := st.Archive(old.ID); err != nil {
		t.Fatalf("Archive failed: %v", err)
	}

	clock.Set(now.Add(-13 * 24 * time.Hour))
	recent := completedRequest(t, st, "recent.pdf")
	if _, err := st.Archive(recent.ID); err != nil {
		t.Fatalf("Archive failed: %v", err)
	}

	clock.Set(now)
	removed, err := st.DeleteExpiredArchive(14 * 24 * time.Hour)
	if err != nil {
		t.Fatalf("DeleteExpiredArchive failed: %v", err)
	}
	if removed != 1 {
		t.Fatalf("removed %d entries, want 1", removed)
	}
	if _, err := st.GetArchived(old.ID); !errors.Is(err, request.ErrNotFound) {
		t.Fatalf("expired entry should be gone: %v", err)
	}
	if _, err := st.GetArchived(recent.ID); err != nil {
		t.Fatalf("recent entry should be retained: %v", err)
	}

	// idempotent once nothing is past the horizon
	removed, err = st.DeleteExpiredArchive(14 * 24 * time.Hour)
	if err != nil || removed != 0 {
		t.Fatalf("second purge = (%d, %v), want (0, nil)", removed, err)
	}
}

func TestDeleteExpiredRetainsUnstampedEntries(t *testing.T) {
	cfg := testsupport.NewConfig(t)

	// A legacy archive entry without a timestamp must never be purged.
	entry := request.New(testsupport.NewRequester("u1"), "lab", "prototype",
		request.Payload{Name: "legacy", Path: "/uploads/legacy"})
	entry.Status = request.StatusDone
	writeCollection(t, filepath.Join(cfg.Paths.DataDir, "archive.json"), []*request.Request{entry})

	st := testsupport.MustOpenStore(t, cfg)
	removed, err := st.DeleteExpiredArchive(0)
	if err != nil {
		t.Fatalf("DeleteExpiredArchive failed: %v", err)
	}
	if removed != 0 {
		t.Fatalf("removed %d entries, want 0", removed)
	}
	if _, err := st.GetArchived(entry.ID); err != nil {
		t.Fatalf("unstamped entry should be retained: %v", err)
	}
}

func TestReloadRoundTrip(t *testing.T) {
	for _, backend := range []string{"json", "sqlite"} {
		t.Run(backend, func(t *testing.T) {
			cfg := testsupport.NewConfig(t, testsupport.WithBackend(backend))
			st := testsupport.MustOpenStore(t, cfg)

			req := testsupport.CreateRequest(t, st, "roundtrip.pdf")
			if _, err := st.Transition(req.ID, request.StatusInProgress); err != nil {
				t.Fatalf("Transition failed: %v", err)
			}
			if _, err := st.AddComment(req.ID, "  plate two  "); err != nil {
				t.Fatalf("AddComment failed: %v", err)
			}
			archived := completedRequest(t, st, "archived.pdf")
			if _, err := st.Archive(archived.ID); err != nil {
				t.Fatalf("Archive failed: %v", err)
			}
			if err := st.Close(); err != nil {
				t.Fatalf("Close failed: %v", err)
			}

			reopened := testsupport.MustOpenStore(t, cfg)
			got, err := reopened.Get(req.ID)
			if err != nil {
				t.Fatalf("Get after reload failed: %v", err)
			}
			if got.Status != request.StatusInProgress {
				t.Fatalf("status after reload = %q, want in_progress", got.Status)
			}
			if got.Comment != "plate two" {
				t.Fatalf("comment after reload = %q, want trimmed text", got.Comment)
			}
			restored, err := reopened.GetArchived(archived.ID)
			if err != nil {
				t.Fatalf("GetArchived after reload failed: %v", err)
			}
			if restored.ArchivedAt == nil {
				t.Fatal("ArchivedAt lost across reload")
			}
		})
	}
}

func TestOpenRepairsInterruptedArchiveMove(t *testing.T) {
	cfg := testsupport.NewConfig(t)

	// Simulate a crash between the archive write and the active write: the
	// same request is present in both durable collections.
	req := request.New(testsupport.NewRequester("u1"), "lab", "prototype",
		request.Payload{Name: "dup", Path: "/uploads/dup"})
	req.Status = request.StatusDone
	archivedCopy := req.Clone()
	at := time.Now().UTC()
	archivedCopy.ArchivedAt = &at

	writeCollection(t, filepath.Join(cfg.Paths.DataDir, "requests.json"), []*request.Request{req})
	writeCollection(t, filepath.Join(cfg.Paths.DataDir, "archive.json"), []*request.Request{archivedCopy})

	st := testsupport.MustOpenStore(t, cfg)
	if _, err := st.GetActive(req.ID); !errors.Is(err, request.ErrNotFound) {
		t.Fatalf("active copy should have been dropped: %v", err)
	}
	got, err := st.GetArchived(req.ID)
	if err != nil {
		t.Fatalf("GetArchived failed: %v", err)
	}
	if got.ArchivedAt == nil {
		t.Fatal("archive copy should keep its timestamp")
	}

	// the repair must be durable
	st.Close()
	reopened := testsupport.MustOpenStore(t, cfg)
	if got := len(reopened.ListActive()); got != 0 {
		t.Fatalf("active collection after repair reload = %d entries, want 0", got)
	}
}

func TestOpenRejectsCorruptSnapshot(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	if err := os.MkdirAll(cfg.Paths.DataDir, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(cfg.Paths.DataDir, "requests.json"), []byte("{nope"), 0o644); err != nil {
		t.Fatalf("write corrupt file: %v", err)
	}

	if _, err := store.Open(cfg, logging.NewNop()); err == nil {
		t.Fatal("expected error opening corrupt snapshot")
	}
}

func TestEventsEmitted(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	req := testsupport.CreateRequest(t, st, "notify.pdf")
	event := <-st.Events()
	if event.Kind != store.EventCreated || event.RequestID != req.ID {
		t.Fatalf("unexpected event %#v", event)
	}

	if _, err := st.Transition(req.ID, request.StatusInProgress); err != nil {
		t.Fatalf("Transition failed: %v", err)
	}
	event = <-st.Events()
	if event.Kind != store.EventStatusChanged || event.NewStatus != request.StatusInProgress {
		t.Fatalf("unexpected event %#v", event)
	}
}

func TestEventsSkippedForUndeliverableRequester(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	if _, err := st.Create(request.Requester{Username: "anon"}, "lab", "prototype",
		request.Payload{Name: "a", Path: "/uploads/a"}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	// creation always emits; drain it
	<-st.Events()

	reqs := st.ListActive()
	if _, err := st.Transition(reqs[0].ID, request.StatusInProgress); err != nil {
		t.Fatalf("Transition failed: %v", err)
	}
	select {
	case event := <-st.Events():
		t.Fatalf("unexpected event for undeliverable requester: %#v", event)
	default:
	}
}

func TestStats(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	testsupport.CreateRequest(t, st, "q1.pdf")
	inProgress := testsupport.CreateRequest(t, st, "p1.pdf")
	if _, err := st.Transition(inProgress.ID, request.StatusInProgress); err != nil {
		t.Fatalf("Transition failed: %v", err)
	}
	completedRequest(t, st, "d1.pdf")
	archived := completedRequest(t, st, "a1.pdf")
	if _, err := st.Archive(archived.ID); err != nil {
		t.Fatalf("Archive failed: %v", err)
	}

	summary := st.Stats()
	want := store.Summary{Queued: 1, InProgress: 1, Done: 1, Active: 3, Archived: 1}
	if summary != want {
		t.Fatalf("Stats = %+v, want %+v", summary, want)
	}

	if got := st.CountByStatus(true, request.StatusDone); got != 1 {
		t.Fatalf("active done count = %d, want 1", got)
	}
	if got := st.CountByStatus(false, request.StatusDone); got != 2 {
		t.Fatalf("total done count = %d, want 2", got)
	}
}

func TestConcurrentMutations(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)

	const workers = 8
	ids := make([]string, workers)
	for i := range ids {
		ids[i] = testsupport.CreateRequest(t, st, fmt.Sprintf("c-%d.pdf", i)).ID
	}

	// A reader running alongside the writers must only ever observe full
	// snapshots with intact records, never a partially mutated collection.
	stop := make(chan struct{})
	var readers sync.WaitGroup
	readers.Add(1)
	go func() {
		defer readers.Done()
		for {
			select {
			case <-stop:
				return
			default:
			}
			snapshot := st.ListActive()
			if len(snapshot) != workers {
				t.Errorf("concurrent snapshot has %d entries, want %d", len(snapshot), workers)
				return
			}
			for _, req := range snapshot {
				if req.ID == "" {
					t.Error("concurrent snapshot contains a record without an id")
					return
				}
				if _, ok := request.ParseStatus(string(req.Status)); !ok {
					t.Errorf("concurrent snapshot contains invalid status %q", req.Status)
					return
				}
			}
		}
	}()

	var wg sync.WaitGroup
	for _, id := range ids {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			if _, err := st.Transition(id, request.StatusInProgress); err != nil {
				t.Errorf("Transition to in_progress failed: %v", err)
				return
			}
			if _, err := st.Transition(id, request.StatusDone); err != nil {
				t.Errorf("Transition to done failed: %v", err)
			}
		}(id)
	}
	wg.Wait()
	close(stop)
	readers.Wait()

	summary := st.Stats()
	if summary.Done != workers || summary.Active != workers {
		t.Fatalf("Stats after concurrent transitions = %+v", summary)
	}
}

func TestPersistFailureRollsBackCreate(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	backend := &faultBackend{}
	st := testsupport.MustOpenStore(t, cfg, store.WithBackend(backend))

	testsupport.CreateRequest(t, st, "first.pdf")

	backend.SetFailActive(true)
	_, err := st.Create(testsupport.NewRequester("u2"), "engineering", "prototype",
		request.Payload{Name: "second.pdf", Path: "/uploads/second.pdf"})
	if !errors.Is(err, request.ErrPersistence) {
		t.Fatalf("Create with failing backend error = %v, want ErrPersistence", err)
	}
	if got := len(st.ListActive()); got != 1 {
		t.Fatalf("active collection after failed create = %d entries, want 1", got)
	}
}

func TestPersistFailureRollsBackTransition(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	backend := &faultBackend{}
	st := testsupport.MustOpenStore(t, cfg, store.WithBackend(backend))
	req := testsupport.CreateRequest(t, st, "rollback.pdf")

	backend.SetFailActive(true)
	if _, err := st.Transition(req.ID, request.StatusInProgress); !errors.Is(err, request.ErrPersistence) {
		t.Fatalf("Transition with failing backend error = %v, want ErrPersistence", err)
	}
	got, err := st.GetActive(req.ID)
	if err != nil {
		t.Fatalf("GetActive failed: %v", err)
	}
	if got.Status != request.StatusQueued {
		t.Fatalf("status after failed persist = %q, want queued", got.Status)
	}

	// the store must recover once the backend does
	backend.SetFailActive(false)
	updated, err := st.Transition(req.ID, request.StatusInProgress)
	if err != nil {
		t.Fatalf("Transition after backend recovery failed: %v", err)
	}
	if updated.Status != request.StatusInProgress {
		t.Fatalf("status after recovery = %q, want in_progress", updated.Status)
	}
}

func TestPersistFailureRollsBackComment(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	backend := &faultBackend{}
	st := testsupport.MustOpenStore(t, cfg, store.WithBackend(backend))
	req := testsupport.CreateRequest(t, st, "comment.pdf")

	backend.SetFailActive(true)
	if _, err := st.AddComment(req.ID, "two copies"); !errors.Is(err, request.ErrPersistence) {
		t.Fatalf("AddComment with failing backend error = %v, want ErrPersistence", err)
	}
	got, err := st.GetActive(req.ID)
	if err != nil {
		t.Fatalf("GetActive failed: %v", err)
	}
	if got.Comment != "" {
		t.Fatalf("comment after failed persist = %q, want empty", got.Comment)
	}
}

func TestPersistFailureRollsBackArchive(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	backend := &faultBackend{}
	st := testsupport.MustOpenStore(t, cfg, store.WithBackend(backend))
	req := completedRequest(t, st, "move.pdf")

	// failure writing the archive document: nothing moves
	backend.SetFailArchive(true)
	if _, err := st.Archive(req.ID); !errors.Is(err, request.ErrPersistence) {
		t.Fatalf("Archive with failing archive write error = %v, want ErrPersistence", err)
	}
	if _, err := st.GetActive(req.ID); err != nil {
		t.Fatalf("request must remain active after failed archive write: %v", err)
	}
	if got := len(st.ListArchived()); got != 0 {
		t.Fatalf("archive after failed move = %d entries, want 0", got)
	}

	// failure writing the active document after the archive write: both
	// collections roll back and the durable archive copy is restored
	backend.SetFailArchive(false)
	backend.SetFailActive(true)
	if _, err := st.Archive(req.ID); !errors.Is(err, request.ErrPersistence) {
		t.Fatalf("Archive with failing active write error = %v, want ErrPersistence", err)
	}
	got, err := st.GetActive(req.ID)
	if err != nil {
		t.Fatalf("request must remain active after aborted move: %v", err)
	}
	if got.ArchivedAt != nil {
		t.Fatal("aborted move left an ArchivedAt stamp on the active record")
	}
	if got := len(st.ListArchived()); got != 0 {
		t.Fatalf("archive after aborted move = %d entries, want 0", got)
	}
	if got := backend.ArchiveLen(); got != 0 {
		t.Fatalf("durable archive after aborted move = %d entries, want 0", got)
	}

	backend.SetFailActive(false)
	if _, err := st.Archive(req.ID); err != nil {
		t.Fatalf("Archive after backend recovery failed: %v", err)
	}
}

func TestPersistFailureRollsBackPurge(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	backend := &faultBackend{}
	clock := &fakeClock{now: time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)}
	st := testsupport.MustOpenStore(t, cfg, store.WithBackend(backend), store.WithClock(clock.Now))

	req := completedRequest(t, st, "stale.pdf")
	if _, err := st.Archive(req.ID); err != nil {
		t.Fatalf("Archive failed: %v", err)
	}
	clock.Set(clock.Now().Add(20 * 24 * time.Hour))

	backend.SetFailArchive(true)
	if _, err := st.DeleteExpiredArchive(14 * 24 * time.Hour); !errors.Is(err, request.ErrPersistence) {
		t.Fatal("expected ErrPersistence from purge with failing backend")
	}
	if _, err := st.GetArchived(req.ID); err != nil {
		t.Fatalf("entry must survive a failed purge: %v", err)
	}
}

func completedRequest(t *testing.T, st *store.Store, name string) *request.Request {
	t.Helper()
	req := testsupport.CreateRequest(t, st, name)
	if _, err := st.Transition(req.ID, request.StatusInProgress); err != nil {
		t.Fatalf("Transition to in_progress failed: %v", err)
	}
	updated, err := st.Transition(req.ID, request.StatusDone)
	if err != nil {
		t.Fatalf("Transition to done failed: %v", err)
	}
	return updated
}

func writeCollection(t *testing.T, path string, requests []*request.Request) {
	t.Helper()
	data, err := json.MarshalIndent(requests, "", "  ")
	if err != nil {
		t.Fatalf("marshal collection: %v", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write collection: %v", err)
	}
}

// faultBackend keeps snapshots in memory and fails saves on demand, standing
// in for a storage medium that goes away mid-operation.
type faultBackend struct {
	mu          sync.Mutex
	failActive  bool
	failArchive bool
	active      []*request.Request
	archive     []*request.Request
}

func (b *faultBackend) Load() (store.Snapshot, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return store.Snapshot{Active: b.active, Archive: b.archive}, nil
}

func (b *faultBackend) SaveActive(active []*request.Request) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failActive {
		return errors.New("storage unavailable")
	}
	b.active = append([]*request.Request(nil), active...)
	return nil
}

func (b *faultBackend) SaveArchive(archive []*request.Request) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.failArchive {
		return errors.New("storage unavailable")
	}
	b.archive = append([]*request.Request(nil), archive...)
	return nil
}

func (b *faultBackend) Close() error { return nil }

func (b *faultBackend) SetFailActive(fail bool) {
	b.mu.Lock()
	b.failActive = fail
	b.mu.Unlock()
}

func (b *faultBackend) SetFailArchive(fail bool) {
	b.mu.Lock()
	b.failArchive = fail
	b.mu.Unlock()
}

func (b *faultBackend) ArchiveLen() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.archive)
}

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Set(now time.Time) {
	c.mu.Lock()
	c.now = now
	c.mu.Unlock()
}
