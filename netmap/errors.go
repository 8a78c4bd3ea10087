// Copyright 2024 The go-netmap Authors. All rights reserved.
//
// Use of this source code is governed by MIT license which
// can be found in the LICENSE file in the root of the source
// tree.

package netmap

import (
	"errors"
	"fmt"
	"io"
)

// ErrorKind is a closed taxonomy of failure kinds produced by this
// package. The comment on each constant says what that kind means.
type ErrorKind int

const (
	// KindIO wraps a platform error from a sync, close or interface
	// listing call, or the cause stored when an endpoint is poisoned.
	KindIO ErrorKind = iota
	// KindWouldBlock means the operation cannot make progress now.
	KindWouldBlock
	// KindBindFail means the open call failed (bad name, perms,
	// unknown device).
	KindBindFail
	// KindInvalidRingIndex means the ring index is >= the effective
	// ring count.
	KindInvalidRingIndex
	// KindPacketTooLarge means the payload exceeds nr_buf_size.
	KindPacketTooLarge
	// KindInsufficientSpace means the TX ring is full for the
	// requested size.
	KindInsufficientSpace
	// KindUnsupportedPlatform means the framework isn't available at
	// build/run time.
	KindUnsupportedPlatform
	// KindFallbackUnsupported means the requested feature isn't
	// available outside the framework.
	KindFallbackUnsupported
	// KindAlreadyCommitted means Commit was called a second time on
	// the same reservation.
	KindAlreadyCommitted
)

func (k ErrorKind) String() string {
	switch k {
	case KindIO:
		return "I/O"
	case KindWouldBlock:
		return "would block"
	case KindBindFail:
		return "bind failed"
	case KindInvalidRingIndex:
		return "invalid ring index"
	case KindPacketTooLarge:
		return "packet too large"
	case KindInsufficientSpace:
		return "insufficient space"
	case KindUnsupportedPlatform:
		return "unsupported platform"
	case KindFallbackUnsupported:
		return "fallback unsupported"
	case KindAlreadyCommitted:
		return "already committed"
	default:
		return "unknown"
	}
}

// Error is the concrete error type returned by this package's
// recoverable operations. Its Kind distinguishes the closed taxonomy
// of failures this package reports; Len, Index and Ident carry
// kind-specific detail.
type Error struct {
	Kind  ErrorKind
	Len   int
	Index int
	Ident string
	Err   error
}

func newError(kind ErrorKind, ident string, cause error) *Error {
	return &Error{Kind: kind, Ident: ident, Err: cause}
}

func (e *Error) Error() string {
	switch e.Kind {
	case KindIO:
		return fmt.Sprintf("netmap: I/O error: %v", e.Err)
	case KindBindFail:
		return fmt.Sprintf("netmap: failed to bind %q: %v", e.Ident, e.Err)
	case KindInvalidRingIndex:
		return fmt.Sprintf("netmap: invalid ring index %d", e.Index)
	case KindPacketTooLarge:
		return fmt.Sprintf("netmap: packet too large: %d bytes", e.Len)
	case KindInsufficientSpace:
		return "netmap: insufficient space in ring"
	case KindWouldBlock:
		return "netmap: operation would block"
	case KindUnsupportedPlatform:
		return fmt.Sprintf("netmap: unsupported platform: %v", e.Err)
	case KindFallbackUnsupported:
		return fmt.Sprintf("netmap: feature not supported without the framework: %v", e.Err)
	case KindAlreadyCommitted:
		return "netmap: reservation already committed"
	default:
		return "netmap: error"
	}
}

// Unwrap exposes the wrapped cause, if any, for errors.Is/errors.As.
func (e *Error) Unwrap() error {
	return e.Err
}

// errPacketTooLarge reports length verbatim so the caller can decide
// how to fragment or otherwise handle the oversize payload without
// re-deriving it from the original buffer.
func errPacketTooLarge(length int) *Error {
	return &Error{Kind: KindPacketTooLarge, Len: length}
}

func errInsufficientSpace() *Error {
	return &Error{Kind: KindInsufficientSpace}
}

func errAlreadyCommitted() *Error {
	return &Error{Kind: KindAlreadyCommitted}
}

func errInvalidRingIndex(index int) *Error {
	return &Error{Kind: KindInvalidRingIndex, Index: index}
}

func errBindFail(ident string, cause error) *Error {
	return &Error{Kind: KindBindFail, Ident: ident, Err: cause}
}

func errIO(cause error) *Error {
	return &Error{Kind: KindIO, Err: cause}
}

// AsIOError converts a recoverable Error into a plain I/O error at the
// public boundary, for callers embedding this package into a
// byte-stream protocol. A KindIO error with a cause is replaced by
// that cause; any other *Error is wrapped with %w in a plain error
// whose message is prefixed "netmap: ", so errors.As still recovers
// the original *Error. Errors that are not an *Error pass through
// unchanged.
func AsIOError(err error) error {
	if err == nil {
		return nil
	}

	var nmErr *Error
	if errors.As(err, &nmErr) {
		if nmErr.Kind == KindIO && nmErr.Err != nil {
			return nmErr.Err
		}
		return fmt.Errorf("netmap: %w", wrapOther(nmErr))
	}

	return err
}

// wrapOther returns err unchanged; AsIOError wraps its result with %w
// so the formatted error still participates in errors.Is/errors.As
// against the original *Error.
func wrapOther(err *Error) error {
	return err
}

// IsEAgain reports whether err indicates the operation should be
// retried (analogous to the framework's EAGAIN/WouldBlock signal).
func IsEAgain(err error) bool {
	var nmErr *Error
	if errors.As(err, &nmErr) {
		return nmErr.Kind == KindWouldBlock
	}
	return errors.Is(err, io.ErrNoProgress)
}
