package listsync

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// ErrorKind classifies failures surfaced to the view binding.
type ErrorKind int

const (
	// KindNetwork means the transport could not reach the backend. Retryable.
	KindNetwork ErrorKind = iota + 1
	// KindServer means the backend answered with a 4xx/5xx status.
	KindServer
	// KindStale marks a response for a superseded generation. Never surfaced.
	KindStale
	// KindConflict means an optimistic mutation was rejected and reverted.
	KindConflict
	// KindNotFound means the backend reported the item missing.
	KindNotFound
)

// Sentinels usable with errors.Is against any *Error.
var (
	ErrNetwork  = errors.New("network error")
	ErrServer   = errors.New("server error")
	ErrStale    = errors.New("stale response")
	ErrConflict = errors.New("mutation conflict")
	ErrNotFound = errors.New("not found")
)

func (k ErrorKind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindServer:
		return "server"
	case KindStale:
		return "stale"
	case KindConflict:
		return "conflict"
	case KindNotFound:
		return "not_found"
	default:
		return "unknown"
	}
}

func (k ErrorKind) sentinel() error {
	switch k {
	case KindNetwork:
		return ErrNetwork
	case KindServer:
		return ErrServer
	case KindStale:
		return ErrStale
	case KindConflict:
		return ErrConflict
	case KindNotFound:
		return ErrNotFound
	default:
		return nil
	}
}

// Error is the only error type that leaves the controller.
type Error struct {
	Kind ErrorKind
	Op   string // list, create, update, delete
	ID   string // item id for mutations
	Err  error
}

func newError(kind ErrorKind, op, id string, err error) *Error {
	return &Error{Kind: kind, Op: op, ID: id, Err: err}
}

func (e *Error) Error() string {
	if e == nil {
		return "<nil>"
	}
	subject := e.Op
	if e.ID != "" {
		subject = fmt.Sprintf("%s %s", e.Op, e.ID)
	}
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", subject, e.Kind.sentinel())
	}
	return fmt.Sprintf("%s: %s: %v", subject, e.Kind.sentinel(), e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is the sentinel for e.Kind.
func (e *Error) Is(target error) bool {
	return target != nil && target == e.Kind.sentinel()
}

// Retryable reports whether re-issuing the same request may succeed.
func (e *Error) Retryable() bool {
	return e != nil && e.Kind == KindNetwork
}

// Classify maps a transport error onto the taxonomy. Errors exposing
// StatusCode() are server errors (404 becomes KindNotFound); anything else
// failed before the backend answered.
func Classify(err error) ErrorKind {
	if err == nil {
		return 0
	}
	var le *Error
	if errors.As(err, &le) {
		return le.Kind
	}
	var status interface{ StatusCode() int }
	if errors.As(err, &status) {
		if status.StatusCode() == http.StatusNotFound {
			return KindNotFound
		}
		return KindServer
	}
	if errors.Is(err, context.Canceled) {
		return KindStale
	}
	return KindNetwork
}
