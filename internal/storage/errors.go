package storage

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound matches any *NotFoundError via errors.Is.
	ErrNotFound = errors.New("entry not found")

	// ErrUnavailable wraps failures to open or initialize the database.
	ErrUnavailable = errors.New("store unavailable")

	// ErrIndexUnavailable wraps full-text query failures. Callers fall back
	// to substring matching.
	ErrIndexUnavailable = errors.New("full-text index unavailable")
)

// NotFoundError reports an operation on an id that does not exist.
type NotFoundError struct {
	ID int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("entry %d not found", e.ID)
}

// Is lets errors.Is(err, ErrNotFound) match.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}
