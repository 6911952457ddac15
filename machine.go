// Copyright 2021 The httptask Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package httptask

import (
	"context"
	"sync"
	"time"

	"github.com/gogama/httptask/internal/pipeline"
	"github.com/gogama/httptask/result"
)

const nilStageMsg = "httptask: nil stage func"

// An operation is the underlying work a machine drives: a transport
// request for Task, a provider call for DataTask.
type operation interface {
	// start begins the work. It is called at most once, on the first
	// resume, without the machine lock held. It may deliver its outcome
	// before returning.
	start()
	// pause and unpause are best-effort pass-throughs of Suspend and
	// Resume after the work has started.
	pause()
	unpause()
	// abort is called once if the task is cancelled after start.
	abort()
}

// A machine is the state machine shared by Task and DataTask.
//
// The lock guards state, started, pending, raw and metrics. The
// pipeline has its own lock and is never touched with the machine lock
// held, so stages may call back into the task freely.
type machine struct {
	id    string
	owner Operation
	op    operation
	ui    Dispatcher
	obs   Passthrough

	lock    sync.Mutex
	state   State
	started bool
	pending *result.Result
	raw     *Response
	metrics Metrics

	pipe pipeline.Pipeline
}

func (m *machine) State() State {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.state
}

func (m *machine) Metrics() Metrics {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.metrics
}

func (m *machine) response() *Response {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.raw
}

func (m *machine) resume() {
	m.lock.Lock()
	if m.state != Suspended {
		m.lock.Unlock()
		return
	}
	m.state = Running
	first := !m.started
	if first {
		m.started = true
		m.metrics.FetchStart = time.Now()
	}
	pending := m.pending
	if pending != nil {
		m.pending = nil
		m.state = Completed
	}
	m.lock.Unlock()

	switch {
	case pending != nil:
		m.complete(*pending)
	case first:
		m.op.start()
	default:
		m.op.unpause()
	}
}

func (m *machine) suspend() {
	m.lock.Lock()
	if m.state != Running {
		m.lock.Unlock()
		return
	}
	m.state = Suspended
	m.lock.Unlock()
	m.op.pause()
}

func (m *machine) cancel() {
	m.lock.Lock()
	if m.state != Suspended && m.state != Running {
		m.lock.Unlock()
		return
	}
	m.state = Canceling
	m.pending = nil
	started := m.started
	m.lock.Unlock()

	if started {
		m.op.abort()
	}

	m.lock.Lock()
	m.state = Completed
	m.lock.Unlock()
	m.complete(result.Fail(cancelledError()))
}

// accept records the operation's outcome. It returns false if the
// outcome must be discarded, because the task was cancelled or has
// already completed. Otherwise ready reports whether the task completed
// and the caller must call complete; if not, the outcome is buffered
// until the next resume.
func (m *machine) accept(r result.Result, raw *Response) (ready, ok bool) {
	m.lock.Lock()
	defer m.lock.Unlock()
	switch {
	case m.state == Running:
		m.state = Completed
		ready = true
	case m.state == Suspended && m.pending == nil:
		m.pending = &r
	default:
		return false, false
	}
	m.raw = raw
	m.metrics.ResponseEnd = time.Now()
	return ready, true
}

// complete releases the handler chain with the task's final outcome.
// The state machine calls it exactly once per task, so a failure is
// reported before any stage can see it.
func (m *machine) complete(r result.Result) {
	if r.Failed() {
		observe(m.obs, func(p Passthrough) { p.ResultFailure(m.owner, r.Err()) })
	}
	m.pipe.Release(r)
}

func (m *machine) addStage(kind StageKind, fn StageFunc) {
	if !kind.valid() {
		panic("httptask: invalid stage kind")
	}
	mustFunc(fn != nil)
	m.pipe.Append(func(in result.Result) result.Result {
		if !kind.accepts(in) {
			return in
		}
		var out result.Result
		var fresh bool
		if kind.ui() {
			out, fresh = m.runUI(kind, fn, in)
		} else {
			out, fresh = invoke(kind, fn, in)
		}
		if fresh {
			observe(m.obs, func(p Passthrough) { p.ResultFailure(m.owner, out.Err()) })
		}
		return out
	})
}

func (m *machine) runUI(kind StageKind, fn StageFunc, in result.Result) (out result.Result, fresh bool) {
	done := make(chan struct{})
	m.ui.Dispatch(func() {
		defer close(done)
		observe(m.obs, func(p Passthrough) { p.UpdateUIBegin(m.owner) })
		out, fresh = invoke(kind, fn, in)
		observe(m.obs, func(p Passthrough) { p.UpdateUIEnd(m.owner) })
	})
	<-done
	return
}

// invoke runs one stage executor, converting a returned error or a
// panic into a failure. fresh reports whether the stage produced a new
// failure.
func invoke(kind StageKind, fn StageFunc, in result.Result) (out result.Result, fresh bool) {
	defer func() {
		if p := recover(); p != nil {
			out = result.Fail(&Error{Kind: KindHandler, Stage: kind, Err: panicError{p}})
			fresh = true
		}
	}()
	r, err := fn(in)
	if err != nil {
		return result.Fail(stageError(kind, err)), true
	}
	if kind.replaces() {
		return r, r.Failed()
	}
	return in, false
}

// wait blocks until the task has completed and every stage registered
// so far has run, or until ctx is done.
func (m *machine) wait(ctx context.Context) (result.Result, error) {
	if err := m.pipe.WaitContext(ctx); err != nil {
		return result.Result{}, err
	}
	r, _ := m.pipe.Current()
	return r, nil
}
