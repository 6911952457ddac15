// Copyright 2021 The httptask Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package httptask

import (
	"net/http"
)

// An Operation is the control surface shared by Task and DataTask. It
// identifies the task to a Passthrough.
type Operation interface {
	ID() string
	State() State
	Metrics() Metrics
	Resume()
	Suspend()
	Cancel()
}

// A Passthrough observes task lifecycle events for logging or metrics.
// It is a pure side channel: nothing it does, including panicking, can
// change the outcome of a task.
//
// Each hook is called exactly once per event. UpdateUIBegin and
// UpdateUIEnd are called in the UI context; every other hook is called
// on whichever goroutine produced the event. Implementations must be
// safe for concurrent use by multiple goroutines.
//
// Embed NopPassthrough to implement only some of the hooks.
type Passthrough interface {
	// RequestSent is called before a Task's encoded request is handed
	// to the transport.
	RequestSent(op Operation, r *http.Request)
	// ResponseReceived is called when the transport delivers a Task's
	// outcome. Exactly one of resp and err is non-nil.
	ResponseReceived(op Operation, resp *Response, err error)
	// UpdateUIBegin is called before each UI stage.
	UpdateUIBegin(op Operation)
	// UpdateUIEnd is called after each UI stage.
	UpdateUIEnd(op Operation)
	// ResultFailure is called whenever a new failure enters the
	// handler chain, including failures no stage ever handles.
	ResultFailure(op Operation, err error)
	// MetricsCollected is called once the operation's outcome has been
	// accepted.
	MetricsCollected(op Operation, m Metrics)
}

// NopPassthrough is a Passthrough whose hooks do nothing.
type NopPassthrough struct{}

func (NopPassthrough) RequestSent(Operation, *http.Request)         {}
func (NopPassthrough) ResponseReceived(Operation, *Response, error) {}
func (NopPassthrough) UpdateUIBegin(Operation)                      {}
func (NopPassthrough) UpdateUIEnd(Operation)                        {}
func (NopPassthrough) ResultFailure(Operation, error)               {}
func (NopPassthrough) MetricsCollected(Operation, Metrics)          {}

// observe calls f against p, swallowing any panic.
func observe(p Passthrough, f func(Passthrough)) {
	if p == nil {
		return
	}
	defer func() {
		_ = recover()
	}()
	f(p)
}
