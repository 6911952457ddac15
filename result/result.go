// Copyright 2021 The httptask Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package result contains Result, the value passed from one stage of a
// task's handler chain to the next.
//
// A Result is exactly one of three things: empty, a value, or a
// failure.
//
//	r := result.Value(body)
//	if r.Failed() {
//		log.Println(r.Err())
//	}
package result

import "fmt"

// A Kind identifies which of the three forms a Result takes.
type Kind int

const (
	// Empty is a successful result carrying no value.
	Empty Kind = iota
	// Val is a successful result carrying a value.
	Val
	// Failure is an unsuccessful result carrying an error.
	Failure
)

var kindNames = []string{"Empty", "Value", "Failure"}

// String returns the name of the kind.
func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// A Result is the immutable output of one handler stage. Its zero value
// is an empty result.
type Result struct {
	kind  Kind
	value interface{}
	err   error
}

// None returns an empty result.
func None() Result {
	return Result{}
}

// Value returns a result carrying v. If v is nil, the result is empty.
func Value(v interface{}) Result {
	if v == nil {
		return Result{}
	}
	return Result{kind: Val, value: v}
}

// Fail returns a failed result carrying err, which may not be nil.
func Fail(err error) Result {
	if err == nil {
		panic("httptask/result: nil error")
	}
	return Result{kind: Failure, err: err}
}

// Kind reports which form the result takes.
func (r Result) Kind() Kind {
	return r.kind
}

// Failed indicates whether the result is a failure.
func (r Result) Failed() bool {
	return r.kind == Failure
}

// IsEmpty indicates whether the result is empty.
func (r Result) IsEmpty() bool {
	return r.kind == Empty
}

// Value returns the value carried by the result, or nil if the result
// is empty or failed.
func (r Result) Value() interface{} {
	return r.value
}

// Err returns the error carried by a failed result, or nil.
func (r Result) Err() error {
	return r.err
}

// String returns a short description of the result.
func (r Result) String() string {
	switch r.kind {
	case Val:
		return fmt.Sprintf("Value(%v)", r.value)
	case Failure:
		return fmt.Sprintf("Failure(%v)", r.err)
	default:
		return "Empty"
	}
}
