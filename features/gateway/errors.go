package gateway

import (
	"errors"
	"fmt"
)

// Kind classifies why a fetch produced no items.
type Kind string

const (
	// KindNetworkBlocked means the request never produced a response, for example
	// because a client-side content blocker refused it or the host was unreachable.
	KindNetworkBlocked Kind = "NETWORK_BLOCKED"
	// KindHTTP means a response arrived but signalled failure or was not a listing.
	KindHTTP Kind = "HTTP_ERROR"
	// KindEmptyResult means the source answered with no non-pinned items.
	KindEmptyResult Kind = "EMPTY_RESULT"
)

var (
	ErrNetworkBlocked = errors.New("request could not be dispatched")
	ErrHTTP           = errors.New("upstream returned an error response")
	ErrEmptyResult    = errors.New("upstream returned no items")
)

// Error is returned by Fetch for every failed fetch.
type Error struct {
	Kind       Kind
	URL        string
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s: %s (status %d): %v", e.Kind, e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Kind, e.URL, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is lets errors.Is match an *Error against the sentinel for its kind.
func (e *Error) Is(target error) bool {
	return target == sentinel(e.Kind)
}

func sentinel(k Kind) error {
	switch k {
	case KindNetworkBlocked:
		return ErrNetworkBlocked
	case KindHTTP:
		return ErrHTTP
	case KindEmptyResult:
		return ErrEmptyResult
	}
	return nil
}

// KindOf extracts the failure kind of err, or "" when err is not a fetch error.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return ""
}
