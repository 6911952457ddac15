// Copyright 2021 The httptask Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package httptask

// An Event identifies a task lifecycle event reported to a Passthrough.
type Event int

const (
	// RequestSent identifies the event that occurs just before a Task
	// hands its encoded request to the transport.
	RequestSent Event = iota
	// ResponseReceived identifies the event that occurs when the
	// transport delivers a Task's outcome, whether a response or an
	// error. It does not occur for outcomes discarded because the task
	// was already cancelled.
	ResponseReceived
	// UpdateUIBegin identifies the event that occurs in the UI context
	// immediately before each UI-update or UI-error-update stage runs.
	UpdateUIBegin
	// UpdateUIEnd identifies the event that occurs in the UI context
	// immediately after each UI-update or UI-error-update stage runs.
	UpdateUIEnd
	// ResultFailure identifies the event that occurs whenever a new
	// failure enters a handler chain: a transport or encoding failure,
	// a cancellation, or a failing stage.
	ResultFailure
	// MetricsCollected identifies the event that occurs once the
	// operation's outcome has been accepted and both metrics timestamps
	// are set.
	MetricsCollected
	// eventSentinel provides the total number of events typed as an
	// Event.
	eventSentinel

	// numEvents provides the total number of events types as an int.
	numEvents = int(eventSentinel)
)

var eventNames = []string{
	"RequestSent",
	"ResponseReceived",
	"UpdateUIBegin",
	"UpdateUIEnd",
	"ResultFailure",
	"MetricsCollected",
}

// Events returns a slice containing all events.
func Events() []Event {
	return []Event{
		RequestSent,
		ResponseReceived,
		UpdateUIBegin,
		UpdateUIEnd,
		ResultFailure,
		MetricsCollected,
	}
}

// Name returns the name of the event.
func (evt Event) Name() string {
	return eventNames[int(evt)]
}

// String returns the name of the event.
func (evt Event) String() string {
	return evt.Name()
}
