// Copyright 2021 The httptask Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package httptask

import (
	"context"
	"errors"
	"fmt"

	"github.com/gogama/httptask/transient"
)

// An ErrorKind classifies an *Error delivered to a task's handler chain.
type ErrorKind int

const (
	// KindTransport is a network or connection failure reported by the
	// transport, a failure reported by a DataTask provider, or a request
	// that could not be built for sending, such as one with an invalid
	// method or an unparseable URL.
	KindTransport ErrorKind = iota
	// KindCancelled is synthesized when a task is cancelled.
	KindCancelled
	// KindDecode is a failure to decode a response body. The cause is
	// ErrEmptyBody when there was no body at all.
	KindDecode
	// KindEncoding is a failure to serialize request parameters or a
	// JSON body. The cause is a *request.EncodingError.
	KindEncoding
	// KindHandler is an error returned by, or a panic raised inside, a
	// user stage. Error.Stage records the kind of stage.
	KindHandler
)

var errorKindNames = []string{"TransportError", "CancelledError", "DecodeError", "EncodingError", "HandlerError"}

// String returns the name of the error kind.
func (k ErrorKind) String() string {
	if k < 0 || int(k) >= len(errorKindNames) {
		return fmt.Sprintf("ErrorKind(%d)", int(k))
	}
	return errorKindNames[k]
}

// ErrEmptyBody is the cause of a KindDecode error when the response had
// no body to decode.
var ErrEmptyBody = errors.New("httptask: empty response body")

// An Error is the failure value carried through a task's handler chain.
// Use errors.As to obtain it from the error passed to an error-handling
// stage, or IsKind to test its kind.
type Error struct {
	// Kind classifies the failure.
	Kind ErrorKind
	// Stage is the kind of stage that raised the error. It is only
	// meaningful when Kind is KindHandler.
	Stage StageKind
	// Err is the underlying cause. It may be nil.
	Err error
}

func (e *Error) Error() string {
	var s string
	if e.Kind == KindHandler {
		s = fmt.Sprintf("httptask: %s in %s stage", e.Kind, e.Stage)
	} else {
		s = "httptask: " + e.Kind.String()
	}
	if e.Err != nil {
		s += ": " + e.Err.Error()
	}
	return s
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Err
}

// EmptyBody indicates whether e is a decode failure caused by a missing
// or empty response body, as opposed to a malformed one.
func (e *Error) EmptyBody() bool {
	return e.Kind == KindDecode && errors.Is(e.Err, ErrEmptyBody)
}

// Category returns the transience category of the underlying cause.
func (e *Error) Category() transient.Category {
	return transient.Categorize(e.Err)
}

// Timeout indicates whether the underlying cause is a timeout.
func (e *Error) Timeout() bool {
	return e.Category() == transient.Timeout
}

// IsKind reports whether err is, or wraps, an *Error of kind k.
func IsKind(err error, k ErrorKind) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == k
}

func cancelledError() *Error {
	return &Error{Kind: KindCancelled, Err: context.Canceled}
}

// stageError wraps an error returned by a user stage. Errors that are
// already an *Error pass through unchanged so that, for example, a
// decode failure stays a decode failure.
func stageError(kind StageKind, err error) error {
	var e *Error
	if errors.As(err, &e) {
		return err
	}
	return &Error{Kind: KindHandler, Stage: kind, Err: err}
}

type panicError struct {
	value interface{}
}

func (p panicError) Error() string {
	return fmt.Sprintf("panic: %v", p.value)
}

func (p panicError) Unwrap() error {
	if err, ok := p.value.(error); ok {
		return err
	}
	return nil
}
