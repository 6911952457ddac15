// Copyright 2021 The httptask Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package httptask

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/gogama/httptask/jsonvalue"
	"github.com/gogama/httptask/request"
	"github.com/gogama/httptask/result"
	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// A Response is the successful outcome of a Task's transport operation.
type Response struct {
	// StatusCode is the HTTP status code, or zero if the transport
	// delivered no response metadata.
	StatusCode int
	// Header holds the response headers. It may be nil.
	Header http.Header
	// Body is the fully-buffered response body. It may be nil.
	Body []byte
	// Raw is the response metadata delivered by the transport. Its
	// body has already been consumed into Body. It may be nil.
	Raw *http.Response

	once    sync.Once
	jsonVal jsonvalue.Value
	jsonErr error
}

func newResponse(body []byte, meta *http.Response) *Response {
	r := &Response{Body: body, Raw: meta}
	if meta != nil {
		r.StatusCode = meta.StatusCode
		r.Header = meta.Header
	}
	return r
}

// JSON parses the body as JSON. The body is parsed at most once; later
// calls return the cached outcome. A missing or empty body yields an
// *Error of kind KindDecode wrapping ErrEmptyBody, and a malformed body
// yields an *Error of kind KindDecode wrapping the parse error.
func (r *Response) JSON() (jsonvalue.Value, error) {
	r.once.Do(func() {
		if len(r.Body) == 0 {
			r.jsonErr = &Error{Kind: KindDecode, Err: ErrEmptyBody}
			return
		}
		v, err := jsonvalue.Parse(r.Body)
		if err == jsonvalue.ErrEmpty {
			err = ErrEmptyBody
		}
		if err != nil {
			r.jsonErr = &Error{Kind: KindDecode, Err: err}
			return
		}
		r.jsonVal = v
	})
	return r.jsonVal, r.jsonErr
}

// A Task is a chainable handle on one HTTP request sent through a
// Transport.
//
// A Task starts Suspended. Its request is encoded and handed to the
// transport on the first call to Resume. When the transport delivers
// its outcome, the task becomes Completed and its handler stages run in
// registration order on a single background worker, each receiving the
// previous stage's result. The first stage receives result.Value of the
// *Response, or a failure of kind KindTransport.
//
// Stages may be added at any time, including after completion, in which
// case they run as soon as the stages before them have finished.
// Resume, Suspend, and Cancel are safe to call from any goroutine and
// are no-ops when the transition is not legal. Cancel completes the
// task with a KindCancelled failure before returning.
//
// A failure that no stage handles is dropped after being reported to
// the passthrough's ResultFailure hook.
type Task struct {
	m         machine
	req       *request.Request
	transport Transport
	ctx       context.Context

	hlock     sync.Mutex
	handle    Handle
	cancelled bool
}

func newTask(req *request.Request, t Transport, ui Dispatcher, obs Passthrough) *Task {
	if t == nil {
		panic("httptask: nil transport")
	}
	if ui == nil {
		ui = Main()
	}
	task := &Task{
		req:       req,
		transport: t,
		ctx:       context.Background(),
	}
	task.m = machine{
		id:    uuid.NewString(),
		owner: task,
		op:    (*taskOp)(task),
		ui:    ui,
		obs:   obs,
	}
	return task
}

// ID returns a unique identifier for the task.
func (t *Task) ID() string { return t.m.id }

// Request returns the request the task sends.
func (t *Task) Request() *request.Request { return t.req }

// State returns the current state.
func (t *Task) State() State { return t.m.State() }

// Metrics returns the task's timing metrics.
func (t *Task) Metrics() Metrics { return t.m.Metrics() }

// Response returns the transport's response, or nil if the transport
// has not delivered one or failed.
func (t *Task) Response() *Response { return t.m.response() }

// Resume starts the task, or continues it after Suspend.
func (t *Task) Resume() { t.m.resume() }

// Suspend pauses a running task. The transport request is not
// cancelled; if it finishes while the task is suspended, the outcome is
// held and the handler stages do not run until the next Resume.
func (t *Task) Suspend() { t.m.suspend() }

// Cancel cancels the transport request, if any, and completes the task
// with a KindCancelled failure.
func (t *Task) Cancel() { t.m.cancel() }

// Wait blocks until the task has completed and every stage registered
// before the call has run, then returns the last stage's result. It
// returns early with ctx.Err() if ctx is done first. Wait never returns
// on its own for a task that is never resumed or cancelled.
func (t *Task) Wait(ctx context.Context) (result.Result, error) {
	return t.m.wait(ctx)
}

// Then appends a stage of the given kind to the handler chain.
func (t *Task) Then(kind StageKind, fn StageFunc) *Task {
	t.m.addStage(kind, fn)
	return t
}

// Process appends a process stage. The function receives the raw
// transport response and its return value becomes the current result,
// where nil means empty.
func (t *Task) Process(fn func(r *Response) (interface{}, error)) *Task {
	mustFunc(fn != nil)
	return t.Then(StageProcess, func(_ result.Result) (result.Result, error) {
		v, err := fn(t.Response())
		return result.Value(v), err
	})
}

// Transform appends a transform stage. The function receives the
// current value, nil if the result is empty, and its return value
// becomes the current result.
func (t *Task) Transform(fn func(v interface{}) (interface{}, error)) *Task {
	return t.Then(StageTransform, transform(fn))
}

// Catch appends an error-handler stage that observes a failure without
// clearing it.
func (t *Task) Catch(fn func(err error)) *Task {
	return t.Then(StageErrorHandler, catch(fn))
}

// Recover appends a recover stage. Returning a value replaces the
// failure with it, where nil means empty; returning an error fails
// again with that error.
func (t *Task) Recover(fn func(err error) (interface{}, error)) *Task {
	return t.Then(StageRecover, recoverWith(fn))
}

// UpdateUI appends a UI-update stage, which runs in the UI context with
// the current value when no failure is present.
func (t *Task) UpdateUI(fn func(v interface{})) *Task {
	return t.Then(StageUIUpdate, updateUI(fn))
}

// UpdateUIError appends a UI-error-update stage, which runs in the UI
// context with the current failure.
func (t *Task) UpdateUIError(fn func(err error)) *Task {
	return t.Then(StageUIErrorUpdate, catch(fn))
}

// ResponseJSON appends a process stage that parses the response body
// as JSON and hands the parsed document to fn, which may be nil. The
// parsed document becomes the current result. A missing, empty, or
// malformed body fails with an *Error of kind KindDecode; an error
// returned by fn fails with kind KindHandler.
func (t *Task) ResponseJSON(fn func(v jsonvalue.Value) error) *Task {
	return t.Then(StageProcess, func(_ result.Result) (result.Result, error) {
		resp := t.Response()
		if resp == nil {
			return result.None(), &Error{Kind: KindDecode, Err: ErrEmptyBody}
		}
		v, err := resp.JSON()
		if err != nil {
			return result.None(), err
		}
		if fn != nil {
			if err = fn(v); err != nil {
				return result.None(), err
			}
		}
		return result.Value(v), nil
	})
}

// ResponseAs appends a process stage to t that decodes the response
// body as JSON into a value of type T and hands it to fn, which may be
// nil. The decoded value becomes the current result.
func ResponseAs[T any](t *Task, fn func(v T) error) *Task {
	return t.Then(StageProcess, func(_ result.Result) (result.Result, error) {
		resp := t.Response()
		if resp == nil || len(resp.Body) == 0 {
			return result.None(), &Error{Kind: KindDecode, Err: ErrEmptyBody}
		}
		var v T
		if err := json.Unmarshal(resp.Body, &v); err != nil {
			return result.None(), &Error{Kind: KindDecode, Err: err}
		}
		if fn != nil {
			if err := fn(v); err != nil {
				return result.None(), err
			}
		}
		return result.Value(v), nil
	})
}

// taskOp drives the transport on behalf of the task's machine.
type taskOp Task

func (o *taskOp) start() {
	t := (*Task)(o)
	req, err := t.req.Encode(t.ctx)
	if err != nil {
		kind := KindTransport
		var ee *request.EncodingError
		if errors.As(err, &ee) {
			kind = KindEncoding
		}
		t.settle(result.Fail(&Error{Kind: kind, Err: err}), nil, false)
		return
	}
	observe(t.m.obs, func(p Passthrough) { p.RequestSent(t, req) })
	h := t.transport.Send(req, t.finish)
	t.hlock.Lock()
	t.handle = h
	cancelled := t.cancelled
	t.hlock.Unlock()
	if h == nil {
		return
	}
	if cancelled {
		h.Cancel()
	} else {
		h.Resume()
	}
}

func (o *taskOp) pause() {
	if h := (*Task)(o).currentHandle(); h != nil {
		h.Suspend()
	}
}

func (o *taskOp) unpause() {
	if h := (*Task)(o).currentHandle(); h != nil {
		h.Resume()
	}
}

func (o *taskOp) abort() {
	t := (*Task)(o)
	t.hlock.Lock()
	t.cancelled = true
	h := t.handle
	t.hlock.Unlock()
	if h != nil {
		h.Cancel()
	}
}

func (t *Task) currentHandle() Handle {
	t.hlock.Lock()
	defer t.hlock.Unlock()
	return t.handle
}

// finish is the transport completion callback.
func (t *Task) finish(body []byte, meta *http.Response, err error) {
	if err != nil {
		t.settle(result.Fail(&Error{Kind: KindTransport, Err: err}), nil, true)
		return
	}
	resp := newResponse(body, meta)
	t.settle(result.Value(resp), resp, true)
}

// settle accepts the task's outcome. sent is false when the request
// never reached the transport, in which case ResponseReceived is not
// reported.
func (t *Task) settle(r result.Result, resp *Response, sent bool) {
	ready, ok := t.m.accept(r, resp)
	if !ok {
		return
	}
	if sent {
		err := r.Err()
		observe(t.m.obs, func(p Passthrough) { p.ResponseReceived(t, resp, err) })
	}
	m := t.Metrics()
	observe(t.m.obs, func(p Passthrough) { p.MetricsCollected(t, m) })
	if ready {
		t.m.complete(r)
	}
}

func transform(fn func(v interface{}) (interface{}, error)) StageFunc {
	mustFunc(fn != nil)
	return func(in result.Result) (result.Result, error) {
		v, err := fn(in.Value())
		return result.Value(v), err
	}
}

func catch(fn func(err error)) StageFunc {
	mustFunc(fn != nil)
	return func(in result.Result) (result.Result, error) {
		fn(in.Err())
		return in, nil
	}
}

func recoverWith(fn func(err error) (interface{}, error)) StageFunc {
	mustFunc(fn != nil)
	return func(in result.Result) (result.Result, error) {
		v, err := fn(in.Err())
		return result.Value(v), err
	}
}

func updateUI(fn func(v interface{})) StageFunc {
	mustFunc(fn != nil)
	return func(in result.Result) (result.Result, error) {
		fn(in.Value())
		return in, nil
	}
}

func mustFunc(ok bool) {
	if !ok {
		panic(nilStageMsg)
	}
}
