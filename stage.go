// Copyright 2021 The httptask Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package httptask

import (
	"fmt"

	"github.com/gogama/httptask/result"
)

// A StageKind selects when a handler stage runs, where it runs, and
// whether its output replaces the current result.
type StageKind int

const (
	// StageProcess runs on the background worker when the current
	// result is empty or a value, and its output replaces the result.
	// Process stages see the raw transport response.
	StageProcess StageKind = iota
	// StageTransform runs on the background worker when the current
	// result is empty or a value, and its output replaces the result.
	StageTransform
	// StageErrorHandler runs on the background worker when the current
	// result is a failure. It observes the failure without clearing it.
	StageErrorHandler
	// StageRecover runs on the background worker when the current
	// result is a failure. Its output replaces the failure, which lets
	// it recover with a value or fail differently.
	StageRecover
	// StageUIUpdate runs in the UI context when the current result is
	// empty or a value. It observes only.
	StageUIUpdate
	// StageUIErrorUpdate runs in the UI context when the current result
	// is a failure. It observes only.
	StageUIErrorUpdate
	// stageSentinel provides the total number of stage kinds.
	stageSentinel
)

var stageNames = []string{"Process", "Transform", "ErrorHandler", "Recover", "UIUpdate", "UIErrorUpdate"}

// String returns the name of the stage kind.
func (k StageKind) String() string {
	if !k.valid() {
		return fmt.Sprintf("StageKind(%d)", int(k))
	}
	return stageNames[k]
}

func (k StageKind) valid() bool {
	return k >= 0 && k < stageSentinel
}

// accepts reports whether a stage of kind k runs given input r.
func (k StageKind) accepts(r result.Result) bool {
	switch k {
	case StageErrorHandler, StageRecover, StageUIErrorUpdate:
		return r.Failed()
	default:
		return !r.Failed()
	}
}

// replaces reports whether the output of a stage of kind k becomes the
// current result. Observing stages can still change the result by
// failing.
func (k StageKind) replaces() bool {
	return k == StageProcess || k == StageTransform || k == StageRecover
}

func (k StageKind) ui() bool {
	return k == StageUIUpdate || k == StageUIErrorUpdate
}

// A StageFunc is the executor of one handler stage. It receives the
// current result and returns the next one. Returning a non-nil error,
// or panicking, fails the result with an *Error of kind KindHandler,
// unless the error is itself an *Error, which is kept as is.
type StageFunc func(in result.Result) (result.Result, error)
