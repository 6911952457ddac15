// Copyright 2021 The httptask Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package httptask

import "sync"

// A Dispatcher is the UI-affinity execution context. UI-update stages
// and the passthrough's UI hooks are handed to Dispatch, which must run
// each function exactly once, in the order dispatched, never two at
// the same time.
type Dispatcher interface {
	Dispatch(fn func())
}

// The DispatcherFunc type is an adapter to allow the use of ordinary
// functions as dispatchers.
type DispatcherFunc func(fn func())

// Dispatch calls f(fn).
func (f DispatcherFunc) Dispatch(fn func()) {
	f(fn)
}

// Inline is a Dispatcher that runs each function immediately on the
// calling goroutine, which is a task's background worker. It is useful
// in tests and in programs with no UI thread.
var Inline Dispatcher = DispatcherFunc(func(fn func()) { fn() })

// A MainQueue is a Dispatcher backed by a single dedicated goroutine
// which runs dispatched functions in FIFO order.
//
// Dispatch never blocks. After Close, functions already queued still
// run, and later calls to Dispatch run the function on the caller's
// goroutine so that nothing waiting on it is stranded.
type MainQueue struct {
	lock   sync.Mutex
	cond   *sync.Cond
	queue  []func()
	closed bool
	done   chan struct{}
}

// NewMainQueue creates a MainQueue and starts its goroutine.
func NewMainQueue() *MainQueue {
	q := &MainQueue{done: make(chan struct{})}
	q.cond = sync.NewCond(&q.lock)
	go q.loop()
	return q
}

var (
	mainOnce  sync.Once
	mainQueue *MainQueue
)

// Main returns the process-wide MainQueue, creating it on first use.
// Clients with no configured dispatcher use it for UI stages.
func Main() *MainQueue {
	mainOnce.Do(func() {
		mainQueue = NewMainQueue()
	})
	return mainQueue
}

// Dispatch queues fn to run on the queue's goroutine.
func (q *MainQueue) Dispatch(fn func()) {
	q.lock.Lock()
	if q.closed {
		q.lock.Unlock()
		fn()
		return
	}
	q.queue = append(q.queue, fn)
	q.cond.Signal()
	q.lock.Unlock()
}

// Close stops the queue once every function already dispatched has run,
// and waits for that to happen. Close must not be called from a
// function running on the queue.
func (q *MainQueue) Close() {
	q.lock.Lock()
	if !q.closed {
		q.closed = true
		q.cond.Signal()
	}
	q.lock.Unlock()
	<-q.done
}

func (q *MainQueue) loop() {
	defer close(q.done)
	q.lock.Lock()
	for {
		for len(q.queue) == 0 && !q.closed {
			q.cond.Wait()
		}
		if len(q.queue) == 0 {
			q.lock.Unlock()
			return
		}
		fn := q.queue[0]
		q.queue[0] = nil
		q.queue = q.queue[1:]
		q.lock.Unlock()
		fn()
		q.lock.Lock()
	}
}
