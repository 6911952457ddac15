// Copyright 2021 The httptask Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package httptask

import (
	"fmt"
	"time"
)

// A State is the lifecycle state of a Task or DataTask.
//
// The legal transitions are Suspended → Running → Completed,
// Running → Canceling → Completed, Suspended → Canceling → Completed,
// and Running → Suspended → Running. Nothing leaves Completed.
type State int

const (
	// Suspended is the initial state, and the state of a task paused
	// by Suspend.
	Suspended State = iota
	// Running means the task has been resumed and its operation is in
	// flight.
	Running
	// Canceling is the brief state between a call to Cancel and the
	// task becoming Completed.
	Canceling
	// Completed means the task has its final outcome. Handler stages
	// run only in this state.
	Completed
)

var stateNames = []string{"Suspended", "Running", "Canceling", "Completed"}

// String returns the name of the state.
func (s State) String() string {
	if s < 0 || int(s) >= len(stateNames) {
		return fmt.Sprintf("State(%d)", int(s))
	}
	return stateNames[s]
}

// Metrics holds the timing of a task's operation.
type Metrics struct {
	// FetchStart is when the task was first resumed. It is zero until
	// then.
	FetchStart time.Time
	// ResponseEnd is when the operation delivered its outcome. It stays
	// zero if the task was cancelled first.
	ResponseEnd time.Time
}

// ResponseTime returns ResponseEnd minus FetchStart. The second return
// value is false unless both times are set.
func (m Metrics) ResponseTime() (time.Duration, bool) {
	if m.FetchStart.IsZero() || m.ResponseEnd.IsZero() {
		return 0, false
	}
	return m.ResponseEnd.Sub(m.FetchStart), true
}
