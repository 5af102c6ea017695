package testsupport

import (
	"testing"

	"printq/internal/config"
	"printq/internal/logging"
	"printq/internal/request"
	"printq/internal/store"
)

// MustOpenStore opens a store.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config, opts ...store.Option) *store.Store {
	t.Helper()

	st, err := store.Open(cfg, logging.NewNop(), opts...)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		st.Close()
	})
	return st
}

// NewRequester returns a deliverable requester identity for tests.
func NewRequester(userID string) request.Requester {
	return request.Requester{
		UserID:    userID,
		Username:  "tester",
		FirstName: "Test",
		LastName:  "User",
	}
}

// CreateRequest creates a queued request for tests using the provided store.
func CreateRequest(t testing.TB, st *store.Store, name string) *request.Request {
	t.Helper()

	req, err := st.Create(NewRequester("user-1"), "engineering", "prototype", request.Payload{
		Name: name,
		Path: "/uploads/" + name,
	})
	if err != nil {
		t.Fatalf("store.Create: %v", err)
	}
	return req
}
