package request

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Status represents the lifecycle of an active request.
type Status string

const (
	StatusQueued     Status = "queued"
	StatusInProgress Status = "in_progress"
	StatusDone       Status = "done"
)

var allStatuses = []Status{
	StatusQueued,
	StatusInProgress,
	StatusDone,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// transitions is the adjacency table of legal status edges. Transitions are
// monotonic: there is no backward edge and no edge that skips a state.
var transitions = map[Status]Status{
	StatusQueued:     StatusInProgress,
	StatusInProgress: StatusDone,
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// Label returns the operator-facing description of a status.
func (s Status) Label() string {
	switch s {
	case StatusQueued:
		return "queued"
	case StatusInProgress:
		return "in progress"
	case StatusDone:
		return "ready for pickup"
	default:
		return string(s)
	}
}

// CanTransition reports whether the edge from -> to is legal.
func CanTransition(from, to Status) bool {
	next, ok := transitions[from]
	return ok && next == to
}

// Next returns the status that follows s, if any.
func Next(s Status) (Status, bool) {
	next, ok := transitions[s]
	return next, ok
}

// Requester identifies the user a request was submitted on behalf of.
// UserID is the external messaging identity notifications are addressed to;
// it may be empty, in which case notification delivery is skipped.
type Requester struct {
	UserID    string `json:"user_id"`
	Username  string `json:"username,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

// DisplayName returns a human-readable name for the requester.
func (r Requester) DisplayName() string {
	name := strings.TrimSpace(strings.TrimSpace(r.FirstName) + " " + strings.TrimSpace(r.LastName))
	if name != "" {
		return name
	}
	if r.Username != "" {
		return "@" + r.Username
	}
	return r.UserID
}

// Deliverable reports whether notifications can be addressed to the requester.
func (r Requester) Deliverable() bool {
	return strings.TrimSpace(r.UserID) != ""
}

// Payload references the externally stored print artifact.
type Payload struct {
	Name string `json:"name"`
	Path string `json:"path"`
}

// Request is a single print-job record tracked through its lifecycle.
type Request struct {
	ID          string     `json:"id"`
	SubmittedAt time.Time  `json:"submitted_at"`
	Requester   Requester  `json:"requester"`
	Group       string     `json:"group"`
	Purpose     string     `json:"purpose"`
	Payload     Payload    `json:"payload"`
	Status      Status     `json:"status"`
	Comment     string     `json:"comment,omitempty"`
	ArchivedAt  *time.Time `json:"archived_at,omitempty"`
}

// New constructs a queued request with a fresh identifier.
func New(requester Requester, group, purpose string, payload Payload) *Request {
	return &Request{
		ID:          uuid.NewString(),
		SubmittedAt: time.Now().UTC(),
		Requester:   requester,
		Group:       strings.TrimSpace(group),
		Purpose:     strings.TrimSpace(purpose),
		Payload:     payload,
		Status:      StatusQueued,
	}
}

// ShortID returns the identifier prefix used in operator-facing output.
func (r *Request) ShortID() string {
	if len(r.ID) <= 8 {
		return r.ID
	}
	return r.ID[:8]
}

// Archived reports whether the request has been moved to the archive.
func (r *Request) Archived() bool {
	return r.ArchivedAt != nil
}

// Clone returns a deep copy safe to hand to concurrent readers.
func (r *Request) Clone() *Request {
	if r == nil {
		return nil
	}
	cp := *r
	if r.ArchivedAt != nil {
		at := *r.ArchivedAt
		cp.ArchivedAt = &at
	}
	return &cp
}
