// Copyright 2021 The httptask Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package httptask

import (
	"context"
	"sync"

	"github.com/gogama/httptask/result"
	"github.com/google/uuid"
)

// A Provider is an arbitrary asynchronous operation driven by a
// DataTask. It must eventually call deliver with its outcome, from any
// goroutine, either before or after returning. A nil v with a nil err
// is an empty result. Only the first call to deliver counts.
type Provider func(deliver func(v interface{}, err error))

// A DataTask runs the same state machine as Task, but its operation is
// a Provider instead of a transport request.
//
// The provider is called at most once, on the first Resume. If it
// delivers while the task is suspended, the outcome is held and the
// task completes on the next Resume; the outcome is never dropped or
// delivered twice. Suspending a task whose provider is in flight does
// not affect the provider.
//
// Cancel always completes the task synchronously with a KindCancelled
// failure, even before the first Resume, in which case the provider
// never runs.
//
// Provider errors reach the handler chain as an *Error of kind
// KindTransport unless they are already an *Error.
type DataTask struct {
	m        machine
	provider Provider
	once     sync.Once
}

// NewDataTask creates a suspended DataTask for provider. The UI
// dispatcher defaults to Main() if nil, and obs may be nil.
func NewDataTask(provider Provider, ui Dispatcher, obs Passthrough) *DataTask {
	if provider == nil {
		panic("httptask: nil provider")
	}
	if ui == nil {
		ui = Main()
	}
	d := &DataTask{provider: provider}
	d.m = machine{
		id:    uuid.NewString(),
		owner: d,
		op:    (*dataOp)(d),
		ui:    ui,
		obs:   obs,
	}
	return d
}

// ID returns a unique identifier for the task.
func (d *DataTask) ID() string { return d.m.id }

// State returns the current state.
func (d *DataTask) State() State { return d.m.State() }

// Metrics returns the task's timing metrics.
func (d *DataTask) Metrics() Metrics { return d.m.Metrics() }

// Resume starts the task, or continues it after Suspend.
func (d *DataTask) Resume() { d.m.resume() }

// Suspend pauses a running task.
func (d *DataTask) Suspend() { d.m.suspend() }

// Cancel completes the task with a KindCancelled failure.
func (d *DataTask) Cancel() { d.m.cancel() }

// Wait blocks until the task has completed and every stage registered
// before the call has run, in the manner of Task.Wait.
func (d *DataTask) Wait(ctx context.Context) (result.Result, error) {
	return d.m.wait(ctx)
}

// Then appends a stage of the given kind to the handler chain. A
// process stage behaves like a transform stage, since there is no
// transport response.
func (d *DataTask) Then(kind StageKind, fn StageFunc) *DataTask {
	d.m.addStage(kind, fn)
	return d
}

// Transform appends a transform stage. See Task.Transform.
func (d *DataTask) Transform(fn func(v interface{}) (interface{}, error)) *DataTask {
	return d.Then(StageTransform, transform(fn))
}

// Catch appends an error-handler stage. See Task.Catch.
func (d *DataTask) Catch(fn func(err error)) *DataTask {
	return d.Then(StageErrorHandler, catch(fn))
}

// Recover appends a recover stage. See Task.Recover.
func (d *DataTask) Recover(fn func(err error) (interface{}, error)) *DataTask {
	return d.Then(StageRecover, recoverWith(fn))
}

// UpdateUI appends a UI-update stage. See Task.UpdateUI.
func (d *DataTask) UpdateUI(fn func(v interface{})) *DataTask {
	return d.Then(StageUIUpdate, updateUI(fn))
}

// UpdateUIError appends a UI-error-update stage. See Task.UpdateUIError.
func (d *DataTask) UpdateUIError(fn func(err error)) *DataTask {
	return d.Then(StageUIErrorUpdate, catch(fn))
}

type dataOp DataTask

func (o *dataOp) start() {
	d := (*DataTask)(o)
	d.provider(d.deliver)
}

// A provider cannot be paused or stopped once called; Suspend and
// Cancel only gate what happens to its outcome.
func (o *dataOp) pause()   {}
func (o *dataOp) unpause() {}
func (o *dataOp) abort()   {}

func (d *DataTask) deliver(v interface{}, err error) {
	first := false
	d.once.Do(func() { first = true })
	if !first {
		return
	}
	var r result.Result
	if err != nil {
		if _, ok := err.(*Error); !ok {
			err = &Error{Kind: KindTransport, Err: err}
		}
		r = result.Fail(err)
	} else {
		r = result.Value(v)
	}
	ready, ok := d.m.accept(r, nil)
	if !ok {
		return
	}
	m := d.Metrics()
	observe(d.m.obs, func(p Passthrough) { p.MetricsCollected(d, m) })
	if ready {
		d.m.complete(r)
	}
}
