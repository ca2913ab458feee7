package api

import (
	"errors"
	"fmt"
)

var (
	// ErrFailed is wrapped by every error this package returns. Callers that
	// only need "did it work" check errors.Is(err, ErrFailed).
	ErrFailed = errors.New("request failed")
	// ErrNotFound marks a lookup by id that resolved to nothing.
	ErrNotFound = errors.New("not found")
)

// Kind records which stage failed. It is for logs; callers should not
// branch on it.
type Kind int

const (
	KindTransport Kind = iota + 1
	KindStatus
	KindDecode
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindStatus:
		return "status"
	case KindDecode:
		return "decode"
	}
	return "unknown"
}

// Error is the single failure type returned by Client.
type Error struct {
	Op     string
	Kind   Kind
	Status int
	Err    error
}

func (e *Error) Error() string {
	if e.Kind == KindStatus {
		return fmt.Sprintf("%s: %s: HTTP %d", e.Op, e.Kind, e.Status)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() []error {
	if e.Err == nil {
		return []error{ErrFailed}
	}
	return []error{ErrFailed, e.Err}
}

// DecodeError describes a response body that did not match the expected
// shape.
type DecodeError struct {
	Field  string
	Reason string
}

func (e *DecodeError) Error() string {
	if e.Field == "" {
		return "malformed response: " + e.Reason
	}
	return fmt.Sprintf("malformed response: %s: %s", e.Field, e.Reason)
}

func transportError(op string, err error) error {
	return &Error{Op: op, Kind: KindTransport, Err: err}
}

func statusError(op string, status int) error {
	return &Error{Op: op, Kind: KindStatus, Status: status}
}

func decodeError(op string, err error) error {
	return &Error{Op: op, Kind: KindDecode, Err: err}
}
