// Copyright 2021 The httptask Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package httptask

import (
	"context"
	"errors"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDataTask(t *testing.T) {
	t.Run("nil provider", func(t *testing.T) {
		assert.PanicsWithValue(t, "httptask: nil provider", func() { NewDataTask(nil, Inline, nil) })
	})
	t.Run("provider runs on resume", testDataTaskProviderOnResume)
	t.Run("synchronous delivery", testDataTaskSynchronousDelivery)
	t.Run("asynchronous delivery", testDataTaskAsynchronousDelivery)
	t.Run("empty delivery", testDataTaskEmptyDelivery)
	t.Run("delivery while suspended", testDataTaskDeliveryWhileSuspended)
	t.Run("cancel before resume", testDataTaskCancelBeforeResume)
	t.Run("cancel while running", testDataTaskCancelWhileRunning)
	t.Run("only first delivery counts", testDataTaskFirstDeliveryOnly)
	t.Run("provider error", testDataTaskProviderError)
	t.Run("stages", testDataTaskStages)
	t.Run("passthrough", testDataTaskPassthrough)
	t.Run("wait timeout", testDataTaskWaitTimeout)
}

// controlledProvider captures the deliver callback so the test decides
// when the provider finishes.
type controlledProvider struct {
	lock    sync.Mutex
	calls   int
	deliver func(v interface{}, err error)
}

func (p *controlledProvider) provide(deliver func(v interface{}, err error)) {
	p.lock.Lock()
	defer p.lock.Unlock()
	p.calls++
	p.deliver = deliver
}

func (p *controlledProvider) count() int {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.calls
}

func (p *controlledProvider) finish(v interface{}, err error) {
	p.lock.Lock()
	deliver := p.deliver
	p.lock.Unlock()
	deliver(v, err)
}

func testDataTaskProviderOnResume(t *testing.T) {
	p := &controlledProvider{}
	d := NewDataTask(p.provide, Inline, nil)

	assert.Equal(t, Suspended, d.State())
	assert.NotEmpty(t, d.ID())
	assert.Equal(t, 0, p.count())

	d.Resume()
	d.Resume()
	d.Suspend()
	d.Resume()

	assert.Equal(t, Running, d.State())
	assert.Equal(t, 1, p.count())
	assert.False(t, d.Metrics().FetchStart.IsZero())
}

func testDataTaskSynchronousDelivery(t *testing.T) {
	d := NewDataTask(func(deliver func(interface{}, error)) {
		deliver(42, nil)
	}, Inline, nil)

	d.Resume()

	assert.Equal(t, Completed, d.State())
	r, err := d.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, r.Value())
	_, ok := d.Metrics().ResponseTime()
	assert.True(t, ok)
}

func testDataTaskAsynchronousDelivery(t *testing.T) {
	d := NewDataTask(func(deliver func(interface{}, error)) {
		go func() {
			time.Sleep(10 * time.Millisecond)
			deliver("later", nil)
		}()
	}, Inline, nil)

	d.Resume()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	r, err := d.Wait(ctx)
	require.NoError(t, err)
	assert.Equal(t, "later", r.Value())
	assert.Equal(t, Completed, d.State())
}

func testDataTaskEmptyDelivery(t *testing.T) {
	var uiRan bool
	d := NewDataTask(func(deliver func(interface{}, error)) {
		deliver(nil, nil)
	}, Inline, nil)
	d.UpdateUI(func(v interface{}) {
		uiRan = true
		assert.Nil(t, v)
	})

	d.Resume()

	r, err := d.Wait(context.Background())
	require.NoError(t, err)
	assert.True(t, r.IsEmpty())
	assert.True(t, uiRan)
}

func testDataTaskDeliveryWhileSuspended(t *testing.T) {
	p := &controlledProvider{}
	d := NewDataTask(p.provide, Inline, nil)
	var ran int32
	d.Transform(func(v interface{}) (interface{}, error) {
		atomic.AddInt32(&ran, 1)
		return v, nil
	})
	d.Resume()
	d.Suspend()

	p.finish("buffered", nil)

	assert.Equal(t, Suspended, d.State())
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := d.Wait(ctx)
	assert.Equal(t, context.DeadlineExceeded, err)
	assert.Equal(t, int32(0), atomic.LoadInt32(&ran))

	d.Resume()

	assert.Equal(t, Completed, d.State())
	r, err := d.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "buffered", r.Value())
	assert.Equal(t, int32(1), atomic.LoadInt32(&ran))
	assert.Equal(t, 1, p.count())
}

func testDataTaskCancelBeforeResume(t *testing.T) {
	p := &controlledProvider{}
	d := NewDataTask(p.provide, Inline, nil)

	d.Cancel()
	d.Resume()

	assert.Equal(t, Completed, d.State())
	assert.Equal(t, 0, p.count())
	r, err := d.Wait(context.Background())
	require.NoError(t, err)
	assert.True(t, IsKind(r.Err(), KindCancelled))
}

func testDataTaskCancelWhileRunning(t *testing.T) {
	p := &controlledProvider{}
	d := NewDataTask(p.provide, Inline, nil)
	d.Resume()

	d.Cancel()
	p.finish("ignored", nil)

	r, err := d.Wait(context.Background())
	require.NoError(t, err)
	assert.True(t, IsKind(r.Err(), KindCancelled))
	assert.True(t, d.Metrics().ResponseEnd.IsZero())
}

func testDataTaskFirstDeliveryOnly(t *testing.T) {
	d := NewDataTask(func(deliver func(interface{}, error)) {
		deliver("first", nil)
		deliver("second", nil)
		deliver(nil, errors.New("third"))
	}, Inline, nil)

	d.Resume()

	r, err := d.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "first", r.Value())
}

func testDataTaskProviderError(t *testing.T) {
	t.Run("plain error", func(t *testing.T) {
		cause := errors.New("disk full")
		d := NewDataTask(func(deliver func(interface{}, error)) {
			deliver(nil, cause)
		}, Inline, nil)

		d.Resume()

		r, err := d.Wait(context.Background())
		require.NoError(t, err)
		var e *Error
		require.ErrorAs(t, r.Err(), &e)
		assert.Equal(t, KindTransport, e.Kind)
		assert.Same(t, cause, e.Err)
	})
	t.Run("already an *Error", func(t *testing.T) {
		cause := &Error{Kind: KindDecode, Err: ErrEmptyBody}
		d := NewDataTask(func(deliver func(interface{}, error)) {
			deliver(nil, cause)
		}, Inline, nil)

		d.Resume()

		r, err := d.Wait(context.Background())
		require.NoError(t, err)
		assert.Same(t, cause, r.Err())
	})
}

func testDataTaskStages(t *testing.T) {
	d := NewDataTask(func(deliver func(interface{}, error)) {
		deliver(2, nil)
	}, Inline, nil)
	var caught, uiCaught error
	var uiRan bool
	d.
		Then(StageProcess, nopStage).
		Transform(func(v interface{}) (interface{}, error) { return v.(int) * 10, nil }).
		Transform(func(v interface{}) (interface{}, error) { return nil, errors.New("too big") }).
		UpdateUI(func(interface{}) { uiRan = true }).
		Catch(func(err error) { caught = err }).
		UpdateUIError(func(err error) { uiCaught = err }).
		Recover(func(err error) (interface{}, error) { return 20, nil })

	d.Resume()

	r, err := d.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 20, r.Value())
	assert.False(t, uiRan)
	require.Error(t, caught)
	assert.Same(t, caught, uiCaught)
	assert.True(t, IsKind(caught, KindHandler))
}

func testDataTaskPassthrough(t *testing.T) {
	rec := &recorder{}
	d := NewDataTask(func(deliver func(interface{}, error)) {
		deliver(nil, errors.New("nope"))
	}, Inline, rec)

	d.Resume()

	_, err := d.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []Event{MetricsCollected, ResultFailure}, rec.all())
	assert.Same(t, d, rec.ops[0])
}

func testDataTaskWaitTimeout(t *testing.T) {
	p := &controlledProvider{}
	d := NewDataTask(p.provide, Inline, nil)
	d.Resume()
	before := runtime.NumGoroutine()

	for i := 0; i < 100; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond)
		_, err := d.Wait(ctx)
		cancel()
		assert.Equal(t, context.DeadlineExceeded, err)
	}

	assert.Eventually(t, func() bool {
		return runtime.NumGoroutine() <= before+5
	}, 5*time.Second, 10*time.Millisecond)

	p.finish("done", nil)
	r, err := d.Wait(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "done", r.Value())
}
