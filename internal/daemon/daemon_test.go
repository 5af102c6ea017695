package daemon

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"printq/internal/logging"
	"printq/internal/request"
	"printq/internal/retention"
	"printq/internal/store"
	"printq/internal/testsupport"
)

func newTestDaemon(t *testing.T) *Daemon {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	st := testsupport.MustOpenStore(t, cfg)
	d, err := New(cfg, st, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	return d
}

func TestStartEnforcesSingleInstance(t *testing.T) {
	d := newTestDaemon(t)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := d.Start(ctx); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer d.Stop()

	second, err := New(d.cfg, d.store, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	// the API port is taken and so is the lock; the lock must fail first
	second.api = nil
	if err := second.Start(ctx); err == nil {
		second.Stop()
		t.Fatal("second daemon instance acquired the lock")
	}
}

func TestStatusReportsCounts(t *testing.T) {
	d := newTestDaemon(t)
	testsupport.CreateRequest(t, d.store, "one.pdf")

	status := d.Status()
	if status.Running {
		t.Fatal("daemon should not report running before Start")
	}
	if status.Requests.Queued != 1 || status.Requests.Active != 1 {
		t.Fatalf("unexpected counts %+v", status.Requests)
	}
	if status.LockFilePath == "" {
		t.Fatal("lock file path missing")
	}
}

func TestRunCleanup(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	frozen := time.Now().UTC()
	st := testsupport.MustOpenStore(t, cfg, store.WithClock(func() time.Time { return frozen }))
	d, err := New(cfg, st, logging.NewNop())
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}

	req := testsupport.CreateRequest(t, st, "cleanup.pdf")
	for _, target := range []request.Status{request.StatusInProgress, request.StatusDone} {
		if _, err := st.Transition(req.ID, target); err != nil {
			t.Fatalf("Transition failed: %v", err)
		}
	}

	result, err := d.RunCleanup(context.Background())
	if err != nil {
		t.Fatalf("RunCleanup failed: %v", err)
	}
	if result != (retention.Result{Archived: 1}) {
		t.Fatalf("RunCleanup = %+v, want {1 0}", result)
	}
	if _, err := st.GetArchived(req.ID); err != nil {
		t.Fatalf("request not archived: %v", err)
	}
}

func TestRunBackupWritesSnapshot(t *testing.T) {
	d := newTestDaemon(t)
	testsupport.CreateRequest(t, d.store, "backup.pdf")

	if err := d.RunBackup(); err != nil {
		t.Fatalf("RunBackup failed: %v", err)
	}

	entries, err := readDir(d.cfg.Paths.ExportDir)
	if err != nil {
		t.Fatalf("read export dir: %v", err)
	}
	found := false
	for _, name := range entries {
		if strings.HasPrefix(name, "backup_") && strings.HasSuffix(name, ".csv") {
			found = true
		}
	}
	if !found {
		t.Fatalf("no backup file in export dir, got %v", entries)
	}
}

func readDir(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		names = append(names, entry.Name())
	}
	return names, nil
}

func TestAPIStatusEndpoint(t *testing.T) {
	d := newTestDaemon(t)
	testsupport.CreateRequest(t, d.store, "api.pdf")

	rec := httptest.NewRecorder()
	d.api.handleStatus(rec, httptest.NewRequest(http.MethodGet, "/api/status", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status code = %d", rec.Code)
	}

	var status Status
	if err := json.NewDecoder(rec.Body).Decode(&status); err != nil {
		t.Fatalf("decode status: %v", err)
	}
	if status.Requests.Queued != 1 {
		t.Fatalf("queued = %d, want 1", status.Requests.Queued)
	}
}

func TestAPIRequestLifecycle(t *testing.T) {
	d := newTestDaemon(t)

	body := `{"requester":{"user_id":"u9"},"group":"lab","purpose":"prototype","payload":{"name":"api.pdf","path":"/uploads/api.pdf"}}`
	rec := httptest.NewRecorder()
	d.api.handleRequests(rec, httptest.NewRequest(http.MethodPost, "/api/requests", strings.NewReader(body)))
	if rec.Code != http.StatusCreated {
		t.Fatalf("create status = %d: %s", rec.Code, rec.Body.String())
	}
	var created request.Request
	if err := json.NewDecoder(rec.Body).Decode(&created); err != nil {
		t.Fatalf("decode created: %v", err)
	}

	// advance twice through the lifecycle using the id prefix
	for _, wantStatus := range []request.Status{request.StatusInProgress, request.StatusDone} {
		rec = httptest.NewRecorder()
		d.api.handleRequest(rec, httptest.NewRequest(http.MethodPost, "/api/requests/"+created.ID[:8]+"/advance", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("advance status = %d: %s", rec.Code, rec.Body.String())
		}
		var updated request.Request
		if err := json.NewDecoder(rec.Body).Decode(&updated); err != nil {
			t.Fatalf("decode updated: %v", err)
		}
		if updated.Status != wantStatus {
			t.Fatalf("status = %q, want %q", updated.Status, wantStatus)
		}
	}

	// a third advance has nowhere to go
	rec = httptest.NewRecorder()
	d.api.handleRequest(rec, httptest.NewRequest(http.MethodPost, "/api/requests/"+created.ID+"/advance", nil))
	if rec.Code != http.StatusConflict {
		t.Fatalf("terminal advance status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	d.api.handleRequest(rec, httptest.NewRequest(http.MethodPost, "/api/requests/"+created.ID+"/archive", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("archive status = %d: %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	d.api.handleRequests(rec, httptest.NewRequest(http.MethodGet, "/api/requests?scope=archive", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	var list requestListResponse
	if err := json.NewDecoder(rec.Body).Decode(&list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if list.Total != 1 || len(list.Requests) != 1 {
		t.Fatalf("archive list = %+v", list)
	}
}

func TestAPIListPagination(t *testing.T) {
	d := newTestDaemon(t)
	for i := 0; i < 12; i++ {
		testsupport.CreateRequest(t, d.store, "page.pdf")
	}

	rec := httptest.NewRecorder()
	d.api.handleRequests(rec, httptest.NewRequest(http.MethodGet, "/api/requests?page=3", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	var list requestListResponse
	if err := json.NewDecoder(rec.Body).Decode(&list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if list.Page != 3 || list.Pages != 3 || list.Total != 12 || len(list.Requests) != 2 {
		t.Fatalf("page 3 = %+v", list)
	}
}

func TestAPIErrorsMapToHTTPStatus(t *testing.T) {
	d := newTestDaemon(t)

	rec := httptest.NewRecorder()
	d.api.handleRequest(rec, httptest.NewRequest(http.MethodGet, "/api/requests/ffffffff", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unknown id status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	d.api.handleRequests(rec, httptest.NewRequest(http.MethodPost, "/api/requests", strings.NewReader(`{"group":"lab"}`)))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("invalid create status = %d", rec.Code)
	}

	req := testsupport.CreateRequest(t, d.store, "conflict.pdf")
	rec = httptest.NewRecorder()
	d.api.handleRequest(rec, httptest.NewRequest(http.MethodPost, "/api/requests/"+req.ID+"/archive", nil))
	if rec.Code != http.StatusConflict {
		t.Fatalf("queued archive status = %d", rec.Code)
	}
}

func TestAuthMiddleware(t *testing.T) {
	handler := authMiddleware("secret", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})

	rec := httptest.NewRecorder()
	handler(rec, httptest.NewRequest(http.MethodGet, "/api/status", nil))
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("missing token status = %d", rec.Code)
	}

	withToken := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	withToken.Header.Set("Authorization", "Bearer wrong")
	rec = httptest.NewRecorder()
	handler(rec, withToken)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("wrong token status = %d", rec.Code)
	}

	withToken = httptest.NewRequest(http.MethodGet, "/api/status", nil)
	withToken.Header.Set("Authorization", "Bearer secret")
	rec = httptest.NewRecorder()
	handler(rec, withToken)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("valid token status = %d", rec.Code)
	}

	open := authMiddleware("", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	rec = httptest.NewRecorder()
	open(rec, httptest.NewRequest(http.MethodGet, "/api/status", nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("empty token should disable auth, status = %d", rec.Code)
	}
}

func TestMetricsObserveSummary(t *testing.T) {
	d := newTestDaemon(t)
	testsupport.CreateRequest(t, d.store, "m.pdf")
	d.metrics.observeSummary(d.store.Stats())

	rec := httptest.NewRecorder()
	d.metrics.handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics status = %d", rec.Code)
	}
	body := rec.Body.String()
	if !strings.Contains(body, `printq_active_requests{status="queued"} 1`) {
		t.Fatalf("metrics output missing queued gauge:\n%s", body)
	}
}
