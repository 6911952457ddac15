// Copyright 2021 The httptask Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package httptask

import (
	"errors"
	"testing"
	"time"

	"github.com/gogama/httptask/result"
	"github.com/stretchr/testify/assert"
)

func TestStageKind(t *testing.T) {
	t.Run("String", func(t *testing.T) {
		assert.Equal(t, "Process", StageProcess.String())
		assert.Equal(t, "Transform", StageTransform.String())
		assert.Equal(t, "ErrorHandler", StageErrorHandler.String())
		assert.Equal(t, "Recover", StageRecover.String())
		assert.Equal(t, "UIUpdate", StageUIUpdate.String())
		assert.Equal(t, "UIErrorUpdate", StageUIErrorUpdate.String())
		assert.Equal(t, "StageKind(6)", stageSentinel.String())
		assert.Equal(t, "StageKind(-1)", StageKind(-1).String())
	})
	t.Run("accepts", func(t *testing.T) {
		fail := result.Fail(errors.New("x"))
		for _, k := range []StageKind{StageProcess, StageTransform, StageUIUpdate} {
			assert.True(t, k.accepts(result.None()), k.String())
			assert.True(t, k.accepts(result.Value(1)), k.String())
			assert.False(t, k.accepts(fail), k.String())
		}
		for _, k := range []StageKind{StageErrorHandler, StageRecover, StageUIErrorUpdate} {
			assert.False(t, k.accepts(result.None()), k.String())
			assert.False(t, k.accepts(result.Value(1)), k.String())
			assert.True(t, k.accepts(fail), k.String())
		}
	})
	t.Run("replaces", func(t *testing.T) {
		assert.True(t, StageProcess.replaces())
		assert.True(t, StageTransform.replaces())
		assert.True(t, StageRecover.replaces())
		assert.False(t, StageErrorHandler.replaces())
		assert.False(t, StageUIUpdate.replaces())
		assert.False(t, StageUIErrorUpdate.replaces())
	})
	t.Run("ui", func(t *testing.T) {
		assert.True(t, StageUIUpdate.ui())
		assert.True(t, StageUIErrorUpdate.ui())
		assert.False(t, StageProcess.ui())
		assert.False(t, StageRecover.ui())
	})
}

func TestState(t *testing.T) {
	assert.Equal(t, "Suspended", Suspended.String())
	assert.Equal(t, "Running", Running.String())
	assert.Equal(t, "Canceling", Canceling.String())
	assert.Equal(t, "Completed", Completed.String())
	assert.Equal(t, "State(4)", State(4).String())
}

func TestMetrics_ResponseTime(t *testing.T) {
	start := time.Unix(100, 0)
	end := start.Add(250 * time.Millisecond)

	d, ok := Metrics{FetchStart: start, ResponseEnd: end}.ResponseTime()
	assert.True(t, ok)
	assert.Equal(t, 250*time.Millisecond, d)

	_, ok = Metrics{FetchStart: start}.ResponseTime()
	assert.False(t, ok)
	_, ok = Metrics{}.ResponseTime()
	assert.False(t, ok)
}
