// Copyright 2021 The httptask Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package pipeline implements the ordered single-worker stage queue
// behind every task.
//
// Stages may be appended at any time. None run until the pipeline is
// released with an initial result. After release, stages run one at a
// time in append order on a single background goroutine, each receiving
// the previous stage's output as its input.
package pipeline

import (
	"context"
	"sync"

	"github.com/gogama/httptask/result"
)

// A Stage consumes the current result and produces the next one.
type Stage func(in result.Result) result.Result

// A Pipeline is a FIFO of stages gated on an initial result. Its zero
// value is an empty, unreleased pipeline ready for use.
type Pipeline struct {
	lock     sync.Mutex
	stages   []Stage
	value    result.Result
	released bool
	draining bool
	idle     *sync.Cond
}

// Append adds a stage to the back of the pipeline. If the pipeline has
// been released and no worker is active, a worker is started.
func (p *Pipeline) Append(s Stage) {
	if s == nil {
		panic("httptask/pipeline: nil stage")
	}
	p.lock.Lock()
	p.stages = append(p.stages, s)
	start := p.kick()
	p.lock.Unlock()
	if start {
		go p.drain()
	}
}

// Release supplies the initial result and allows queued stages to run.
// Only the first call has any effect; it returns false on later calls.
func (p *Pipeline) Release(initial result.Result) bool {
	p.lock.Lock()
	if p.released {
		p.lock.Unlock()
		return false
	}
	p.released = true
	p.value = initial
	start := p.kick()
	p.lock.Unlock()
	if start {
		go p.drain()
	}
	return true
}

// Released indicates whether Release has been called.
func (p *Pipeline) Released() bool {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.released
}

// Current returns the output of the most recently finished stage, or
// the initial result if no stage has finished yet. The second return
// value is false if the pipeline has not been released.
func (p *Pipeline) Current() (result.Result, bool) {
	p.lock.Lock()
	defer p.lock.Unlock()
	return p.value, p.released
}

// Wait blocks until the pipeline is released and every stage appended
// so far has finished.
func (p *Pipeline) Wait() {
	_ = p.WaitContext(context.Background())
}

// WaitContext is like Wait but gives up when ctx is done, returning
// ctx.Err(). It returns nil if the pipeline became idle first.
func (p *Pipeline) WaitContext(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() {
		p.lock.Lock()
		p.cond().Broadcast()
		p.lock.Unlock()
	})
	defer stop()
	p.lock.Lock()
	defer p.lock.Unlock()
	for !p.released || p.draining || len(p.stages) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		p.cond().Wait()
	}
	return nil
}

// kick reports whether the caller must start a worker. It must be
// called with the lock held.
func (p *Pipeline) kick() bool {
	if !p.released || p.draining || len(p.stages) == 0 {
		p.cond().Broadcast()
		return false
	}
	p.draining = true
	return true
}

func (p *Pipeline) cond() *sync.Cond {
	if p.idle == nil {
		p.idle = sync.NewCond(&p.lock)
	}
	return p.idle
}

func (p *Pipeline) drain() {
	p.lock.Lock()
	for len(p.stages) > 0 {
		s := p.stages[0]
		p.stages[0] = nil
		p.stages = p.stages[1:]
		in := p.value
		p.lock.Unlock()
		out := s(in)
		p.lock.Lock()
		p.value = out
	}
	p.draining = false
	p.cond().Broadcast()
	p.lock.Unlock()
}
