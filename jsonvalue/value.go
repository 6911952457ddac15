// Copyright 2021 The httptask Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package jsonvalue represents an arbitrary decoded JSON document as a
// tagged variant: null, bool, number, string, array, or object.
//
// Parse a response body and walk it without type assertions:
//
//	v, err := jsonvalue.Parse(body)
//	...
//	name := v.Get("brewery").Get("name").String()
package jsonvalue

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	jsoniter "github.com/json-iterator/go"
)

// A Kind identifies the JSON type held by a Value.
type Kind int

const (
	Null Kind = iota
	Bool
	Number
	String
	Array
	Object
)

var kindNames = []string{"null", "bool", "number", "string", "array", "object"}

// String returns the JSON name of the kind.
func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return fmt.Sprintf("Kind(%d)", int(k))
	}
	return kindNames[k]
}

// A Value is one node of a decoded JSON document. The zero value is
// JSON null.
//
// Accessors never panic: asking a Value for a type it does not hold
// returns that type's zero value. Use Kind to tell a genuine zero from
// a mismatch.
type Value struct {
	kind Kind
	b    bool
	s    string // string contents, or the literal text of a number
	a    []Value
	keys []string
	o    map[string]Value
}

// ErrEmpty is returned by Parse when the input holds no JSON value.
var ErrEmpty = errors.New("httptask/jsonvalue: empty input")

// ErrTooDeep is returned by Parse when arrays and objects nest more
// than MaxDepth levels deep.
var ErrTooDeep = errors.New("httptask/jsonvalue: nesting too deep")

// MaxDepth is the deepest nesting of arrays and objects Parse accepts.
const MaxDepth = 10000

var errTrailing = errors.New("httptask/jsonvalue: trailing data after value")

// Parse decodes a single JSON value from data. Trailing content other
// than whitespace is an error, as is truncated input.
func Parse(data []byte) (Value, error) {
	// A trailing space guarantees that reading any complete value
	// stops short of the end of the buffer, so io.EOF during the read
	// can only mean truncation.
	buf := make([]byte, len(data)+1)
	copy(buf, data)
	buf[len(data)] = ' '
	iter := jsoniter.ParseBytes(jsoniter.ConfigDefault, buf)
	if iter.WhatIsNext() == jsoniter.InvalidValue && iter.Error == io.EOF {
		return Value{}, ErrEmpty
	}
	v := read(iter, 0)
	if iter.Error == io.EOF {
		return Value{}, io.ErrUnexpectedEOF
	} else if iter.Error != nil {
		return Value{}, iter.Error
	}
	iter.WhatIsNext()
	if iter.Error == nil {
		return Value{}, errTrailing
	}
	return v, nil
}

func read(iter *jsoniter.Iterator, depth int) Value {
	next := iter.WhatIsNext()
	if (next == jsoniter.ArrayValue || next == jsoniter.ObjectValue) && depth >= MaxDepth {
		if iter.Error == nil {
			iter.Error = ErrTooDeep
		}
		return Value{}
	}
	switch next {
	case jsoniter.NilValue:
		iter.ReadNil()
		return Value{}
	case jsoniter.BoolValue:
		return Value{kind: Bool, b: iter.ReadBool()}
	case jsoniter.NumberValue:
		return Value{kind: Number, s: string(iter.ReadNumber())}
	case jsoniter.StringValue:
		return Value{kind: String, s: iter.ReadString()}
	case jsoniter.ArrayValue:
		v := Value{kind: Array, a: []Value{}}
		for iter.ReadArray() {
			v.a = append(v.a, read(iter, depth+1))
			if iter.Error != nil {
				break
			}
		}
		return v
	case jsoniter.ObjectValue:
		v := Value{kind: Object, o: map[string]Value{}}
		iter.ReadObjectCB(func(it *jsoniter.Iterator, key string) bool {
			if _, dup := v.o[key]; !dup {
				v.keys = append(v.keys, key)
			}
			v.o[key] = read(it, depth+1)
			return it.Error == nil
		})
		return v
	default:
		iter.ReportError("read", "unexpected character")
		return Value{}
	}
}

// Kind returns the JSON type held by v.
func (v Value) Kind() Kind { return v.kind }

// IsNull indicates whether v is JSON null.
func (v Value) IsNull() bool { return v.kind == Null }

// Bool returns the boolean held by v.
func (v Value) Bool() bool { return v.b }

// String returns the string held by v, or the literal text of a number.
func (v Value) String() string {
	if v.kind == String || v.kind == Number {
		return v.s
	}
	return ""
}

// Float returns the number held by v as a float64.
func (v Value) Float() float64 {
	if v.kind != Number {
		return 0
	}
	f, _ := strconv.ParseFloat(v.s, 64)
	return f
}

// Int returns the number held by v as an int64. Numbers with a
// fractional part are truncated.
func (v Value) Int() int64 {
	if v.kind != Number {
		return 0
	}
	if i, err := strconv.ParseInt(v.s, 10, 64); err == nil {
		return i
	}
	return int64(v.Float())
}

// Len returns the number of elements of an array or members of an
// object.
func (v Value) Len() int {
	switch v.kind {
	case Array:
		return len(v.a)
	case Object:
		return len(v.keys)
	}
	return 0
}

// Index returns the i'th element of an array, or null if v is not an
// array or i is out of range.
func (v Value) Index(i int) Value {
	if v.kind != Array || i < 0 || i >= len(v.a) {
		return Value{}
	}
	return v.a[i]
}

// Elements returns the elements of an array.
func (v Value) Elements() []Value {
	if v.kind != Array {
		return nil
	}
	return v.a
}

// Get returns the member of an object named key, or null.
func (v Value) Get(key string) Value {
	if v.kind != Object {
		return Value{}
	}
	return v.o[key]
}

// Lookup returns the member of an object named key and whether it is
// present.
func (v Value) Lookup(key string) (Value, bool) {
	if v.kind != Object {
		return Value{}, false
	}
	m, ok := v.o[key]
	return m, ok
}

// Keys returns the member names of an object in document order.
func (v Value) Keys() []string {
	if v.kind != Object {
		return nil
	}
	return v.keys
}

// Interface converts v to the plain Go representation used by
// encoding/json: nil, bool, float64, string, []interface{}, and
// map[string]interface{}.
func (v Value) Interface() interface{} {
	switch v.kind {
	case Bool:
		return v.b
	case Number:
		return v.Float()
	case String:
		return v.s
	case Array:
		a := make([]interface{}, len(v.a))
		for i := range v.a {
			a[i] = v.a[i].Interface()
		}
		return a
	case Object:
		o := make(map[string]interface{}, len(v.o))
		for k, m := range v.o {
			o[k] = m.Interface()
		}
		return o
	}
	return nil
}
