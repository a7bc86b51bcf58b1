package order

import (
	"fmt"

	"github.com/go-faster/errors"
)

// Kind is a stable, client-facing classification of a failure.
type Kind string

const (
	KindValidation  Kind = "validation"
	KindNotFound    Kind = "not_found"
	KindPersistence Kind = "persistence"
	KindInternal    Kind = "internal"
)

// ValidationError reports a missing or malformed checkout field. It is
// always returned before any storage work begins.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NotFoundError indicates that no order exists with the requested id.
type NotFoundError struct {
	ID int64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("order %d not found", e.ID)
}

// PersistenceError wraps a storage engine failure. For creation the
// transaction has already been rolled back when this error is returned.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// KindOf classifies err. Unknown errors are KindInternal.
func KindOf(err error) Kind {
	var (
		vErr  *ValidationError
		nfErr *NotFoundError
		pErr  *PersistenceError
	)
	switch {
	case errors.As(err, &vErr):
		return KindValidation
	case errors.As(err, &nfErr):
		return KindNotFound
	case errors.As(err, &pErr):
		return KindPersistence
	default:
		return KindInternal
	}
}
