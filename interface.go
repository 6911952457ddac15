// Copyright 2021 The httptask Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package httptask

import (
	"github.com/gogama/httptask/request"
)

// Requester is the interface that wraps the basic Request method.
//
// Request builds an HTTP request for the given method, path, and
// parameters and returns a Task for it. Client implements the Requester
// interface, and any other Requester implementation must behave
// substantially the same as Client.Request.
//
// Any Requester can be converted into an Executor via the Inflate
// function.
type Requester interface {
	Request(method request.Method, path string, params map[string]interface{}, opts ...request.Option) *Task
}

// Getter is the interface that wraps the basic Get method.
//
// Any Requester can be used to emulate a Getter via the Get function.
type Getter interface {
	Get(path string, params map[string]interface{}, opts ...request.Option) *Task
}

// Header is the interface that wraps the basic Head method.
//
// Any Requester can be used to emulate a Header via the Head function.
type Header interface {
	Head(path string, params map[string]interface{}, opts ...request.Option) *Task
}

// Poster is the interface that wraps the basic Post method.
//
// Any Requester can be used to emulate a Poster via the Post function.
type Poster interface {
	Post(path string, params map[string]interface{}, opts ...request.Option) *Task
}

// Putter is the interface that wraps the basic Put method.
//
// Any Requester can be used to emulate a Putter via the Put function.
type Putter interface {
	Put(path string, params map[string]interface{}, opts ...request.Option) *Task
}

// Patcher is the interface that wraps the basic Patch method.
//
// Any Requester can be used to emulate a Patcher via the Patch function.
type Patcher interface {
	Patch(path string, params map[string]interface{}, opts ...request.Option) *Task
}

// Deleter is the interface that wraps the basic Delete method.
//
// Any Requester can be used to emulate a Deleter via the Delete
// function.
type Deleter interface {
	Delete(path string, params map[string]interface{}, opts ...request.Option) *Task
}

// IdleCloser is the interface that wraps the basic CloseIdleConnections
// method.
//
// If the underlying implementation supports it, CloseIdleConnections
// closes any connections which were previously connected from previous
// requests but are now sitting idle in a "keep-alive" state. It does
// not interrupt any connections currently in use.
//
// If the underlying implementation does not support this ability,
// CloseIdleConnections does nothing.
type IdleCloser interface {
	CloseIdleConnections()
}

// Executor is the interface that groups the basic Request, Get, Head,
// Post, Put, Patch, Delete, and CloseIdleConnections methods.
//
// Any Requester can be converted into an Executor via the Inflate
// function.
type Executor interface {
	Requester
	Getter
	Header
	Poster
	Putter
	Patcher
	Deleter
	IdleCloser
}

// Get uses the specified Requester to issue a GET.
func Get(r Requester, path string, params map[string]interface{}, opts ...request.Option) *Task {
	return r.Request(request.GET, path, params, opts...)
}

// Head uses the specified Requester to issue a HEAD.
func Head(r Requester, path string, params map[string]interface{}, opts ...request.Option) *Task {
	return r.Request(request.HEAD, path, params, opts...)
}

// Post uses the specified Requester to issue a POST.
func Post(r Requester, path string, params map[string]interface{}, opts ...request.Option) *Task {
	return r.Request(request.POST, path, params, opts...)
}

// Put uses the specified Requester to issue a PUT.
func Put(r Requester, path string, params map[string]interface{}, opts ...request.Option) *Task {
	return r.Request(request.PUT, path, params, opts...)
}

// Patch uses the specified Requester to issue a PATCH.
func Patch(r Requester, path string, params map[string]interface{}, opts ...request.Option) *Task {
	return r.Request(request.PATCH, path, params, opts...)
}

// Delete uses the specified Requester to issue a DELETE.
func Delete(r Requester, path string, params map[string]interface{}, opts ...request.Option) *Task {
	return r.Request(request.DELETE, path, params, opts...)
}

// Inflate converts any non-nil Requester into an Executor. This may be
// helpful for interop across library boundaries, i.e. if code that only
// has access to a Requester needs to call a function that requires an
// Executor.
func Inflate(r Requester) Executor {
	if r == nil {
		panic("httptask: nil requester")
	}

	if e, ok := r.(Executor); ok {
		return e
	}

	return inflated{r}
}

type inflated struct {
	requester Requester
}

func (i inflated) Request(method request.Method, path string, params map[string]interface{}, opts ...request.Option) *Task {
	return i.requester.Request(method, path, params, opts...)
}

func (i inflated) Get(path string, params map[string]interface{}, opts ...request.Option) *Task {
	return Get(i.requester, path, params, opts...)
}

func (i inflated) Head(path string, params map[string]interface{}, opts ...request.Option) *Task {
	return Head(i.requester, path, params, opts...)
}

func (i inflated) Post(path string, params map[string]interface{}, opts ...request.Option) *Task {
	return Post(i.requester, path, params, opts...)
}

func (i inflated) Put(path string, params map[string]interface{}, opts ...request.Option) *Task {
	return Put(i.requester, path, params, opts...)
}

func (i inflated) Patch(path string, params map[string]interface{}, opts ...request.Option) *Task {
	return Patch(i.requester, path, params, opts...)
}

func (i inflated) Delete(path string, params map[string]interface{}, opts ...request.Option) *Task {
	return Delete(i.requester, path, params, opts...)
}

func (i inflated) CloseIdleConnections() {
	if ic, ok := i.requester.(IdleCloser); ok {
		ic.CloseIdleConnections()
	}
}
