// Copyright 2021 The httptask Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package httptask

import (
	"net/http"
)

// A Notice describes one lifecycle event delivered to a Handler. Only
// the fields relevant to the event are set.
type Notice struct {
	// Op is the task the event occurred on. It is never nil.
	Op Operation
	// Request is set for RequestSent.
	Request *http.Request
	// Response is set for a successful ResponseReceived.
	Response *Response
	// Err is set for ResultFailure, and for ResponseReceived when the
	// transport failed.
	Err error
	// Metrics is set for MetricsCollected.
	Metrics Metrics
}

// A HandlerGroup is a Passthrough made of event handler chains. Each
// event runs its chain in the order the handlers were pushed.
//
// Handlers must be pushed before the group is installed in a Client.
type HandlerGroup struct {
	handlers [][]Handler
}

// PushBack adds an event handler to the back of the event handler chain
// for a specific event type.
func (g *HandlerGroup) PushBack(evt Event, h Handler) {
	if h == nil {
		panic("httptask: nil handler")
	}

	if g.handlers == nil {
		g.handlers = make([][]Handler, numEvents)
	}

	g.handlers[evt] = append(g.handlers[evt], h)
}

func (g *HandlerGroup) run(evt Event, n *Notice) {
	i := int(evt)
	if i < len(g.handlers) {
		run(g.handlers[i], evt, n)
	}
}

func run(chain []Handler, evt Event, n *Notice) {
	for _, h := range chain {
		h.Handle(evt, n)
	}
}

// RequestSent runs the RequestSent handler chain.
func (g *HandlerGroup) RequestSent(op Operation, r *http.Request) {
	g.run(RequestSent, &Notice{Op: op, Request: r})
}

// ResponseReceived runs the ResponseReceived handler chain.
func (g *HandlerGroup) ResponseReceived(op Operation, resp *Response, err error) {
	g.run(ResponseReceived, &Notice{Op: op, Response: resp, Err: err})
}

// UpdateUIBegin runs the UpdateUIBegin handler chain.
func (g *HandlerGroup) UpdateUIBegin(op Operation) {
	g.run(UpdateUIBegin, &Notice{Op: op})
}

// UpdateUIEnd runs the UpdateUIEnd handler chain.
func (g *HandlerGroup) UpdateUIEnd(op Operation) {
	g.run(UpdateUIEnd, &Notice{Op: op})
}

// ResultFailure runs the ResultFailure handler chain.
func (g *HandlerGroup) ResultFailure(op Operation, err error) {
	g.run(ResultFailure, &Notice{Op: op, Err: err})
}

// MetricsCollected runs the MetricsCollected handler chain.
func (g *HandlerGroup) MetricsCollected(op Operation, m Metrics) {
	g.run(MetricsCollected, &Notice{Op: op, Metrics: m})
}

// A Handler handles the occurrence of a task lifecycle event.
type Handler interface {
	Handle(Event, *Notice)
}

// The HandlerFunc type is an adapter to allow the use of ordinary
// functions as event handlers. If f is a function with appropriate
// signature, then HandlerFunc(f) is a Handler that calls f.
type HandlerFunc func(Event, *Notice)

// Handle calls f(evt, n).
func (f HandlerFunc) Handle(evt Event, n *Notice) {
	f(evt, n)
}
