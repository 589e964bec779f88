// Package errors provides the cluster's structured, kind-discriminated
// error type: every RPC reply is either a successful structured reply or a
// single error carrying a human-readable message and a Kind.
package errors

import (
	"errors"
	"fmt"
)

// Kind discriminates the cluster's error taxonomy.
type Kind string

const (
	// KindNotOwner means the hash ring has no owner for the key (empty ring).
	KindNotOwner Kind = "not_owner"
	// KindForwardConnect means the local node could not reach the peer owner.
	KindForwardConnect Kind = "forward_connect"
	// KindForwardRemote means the peer owner itself returned an error.
	KindForwardRemote Kind = "forward_remote"
	// KindBackendError means the durable store failed.
	KindBackendError Kind = "backend_error"
	// KindInvalid means malformed input, e.g. an empty key.
	KindInvalid Kind = "invalid"
)

// Sentinel causes wrapped by Error for errors.Is matching.
var (
	ErrEmptyRing = errors.New("hash ring has no owner for this key")
	ErrEmptyKey  = errors.New("key must not be empty")
)

// Error is the cluster's structured error: a Kind plus the underlying
// cause, if any.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds a structured error of the given kind.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap builds a structured error of the given kind around an underlying
// cause.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// NotOwner reports that the ring has no owner for a key.
func NotOwner() *Error {
	return Wrap(KindNotOwner, "ring has no owner for this key", ErrEmptyRing)
}

// BackendError wraps a durable-store failure.
func BackendError(err error) *Error {
	return Wrap(KindBackendError, "backing store operation failed", err)
}

// ForwardConnect wraps a failure to reach the owning peer.
func ForwardConnect(peer string, err error) *Error {
	return Wrap(KindForwardConnect, fmt.Sprintf("could not reach peer %s", peer), err)
}

// ForwardRemote wraps an error the owning peer itself returned.
func ForwardRemote(peer string, err error) *Error {
	return Wrap(KindForwardRemote, fmt.Sprintf("peer %s returned an error", peer), err)
}

// Invalid reports malformed input with no further classified cause (e.g. a
// request body that failed to decode).
func Invalid(message string) *Error {
	return New(KindInvalid, message)
}

// EmptyKey reports the specific case of a request made with an empty key,
// wrapping ErrEmptyKey so callers can match it with errors.Is.
func EmptyKey() *Error {
	return Wrap(KindInvalid, "key must not be empty", ErrEmptyKey)
}

// KindOf extracts the Kind from err, defaulting to KindBackendError for
// unclassified errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindBackendError
}

// IsRetryable reports whether err is a transient backend condition worth
// an internal retry (used only by the store driver, never on the forward
// path — the spec requires forwarding failures to surface immediately).
func IsRetryable(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == KindBackendError
	}
	return false
}
