// Copyright 2021 The httptask Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package httptask

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEvents(t *testing.T) {
	assert.Len(t, eventNames, numEvents)
	assert.Len(t, Events(), numEvents)
	events := Events()
	assert.Equal(t, RequestSent, events[RequestSent])
	assert.Equal(t, ResponseReceived, events[ResponseReceived])
	assert.Equal(t, UpdateUIBegin, events[UpdateUIBegin])
	assert.Equal(t, UpdateUIEnd, events[UpdateUIEnd])
	assert.Equal(t, ResultFailure, events[ResultFailure])
	assert.Equal(t, MetricsCollected, events[MetricsCollected])
}

func TestEvent_Name(t *testing.T) {
	assert.Equal(t, "RequestSent", RequestSent.Name())
	assert.Equal(t, "ResponseReceived", ResponseReceived.Name())
	assert.Equal(t, "UpdateUIBegin", UpdateUIBegin.Name())
	assert.Equal(t, "UpdateUIEnd", UpdateUIEnd.Name())
	assert.Equal(t, "ResultFailure", ResultFailure.Name())
	assert.Equal(t, "MetricsCollected", MetricsCollected.Name())
	assert.Equal(t, "MetricsCollected", MetricsCollected.String())
}
