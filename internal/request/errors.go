package request

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrValidation marks malformed input rejected before any mutation.
	ErrValidation = errors.New("validation error")
	// ErrNotFound marks a lookup for an id absent from the expected collection.
	ErrNotFound = errors.New("request not found")
	// ErrInvalidTransition marks a status edge or archive precondition that
	// violates the state machine. The prior state is untouched.
	ErrInvalidTransition = errors.New("invalid transition")
	// ErrPersistence marks a failed durable write. The in-memory state has
	// been rolled back to the last persisted snapshot.
	ErrPersistence = errors.New("persistence error")
)

// Wrap tags an error with one of the sentinel markers above while keeping
// operation context for the caller. The marker must remain matchable with
// errors.Is after wrapping.
func Wrap(marker error, operation, message string, err error) error {
	detail := buildDetail(operation, message)
	if marker == nil {
		marker = ErrPersistence
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

func buildDetail(operation, message string) string {
	parts := make([]string, 0, 2)
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "store failure"
	}
	return strings.Join(parts, ": ")
}
