// Copyright 2021 The httptask Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package timeout

import (
	"net/http"
	"strings"
	"time"
)

// A Policy decides the timeout for one HTTP request sent by the
// transport.
//
// Implementations of Policy must be safe for concurrent use by multiple
// goroutines.
type Policy interface {
	// Timeout returns the timeout to set on the request. A zero or
	// negative value means no timeout.
	Timeout(r *http.Request) time.Duration
}

// DefaultPolicy is the default timeout policy. It sets a fixed timeout
// of 5 seconds on each request.
var DefaultPolicy Policy = Fixed(5 * time.Second)

// Infinite is a built-in timeout policy which never times out.
var Infinite Policy = Fixed(1<<63 - 1)

// Fixed constructs a timeout policy that uses the same value for every
// request.
func Fixed(d time.Duration) Policy {
	return fixed(d)
}

type fixed time.Duration

func (p fixed) Timeout(_ *http.Request) time.Duration {
	return time.Duration(p)
}

// ByMethod constructs a timeout policy that looks up the timeout by
// request method, falling back to usual for methods not present in
// overrides. Method names are matched case-insensitively.
//
// For example, to give uploads more time than everything else:
//
//	p := timeout.ByMethod(5*time.Second, map[string]time.Duration{
//		"POST": time.Minute,
//		"PUT":  time.Minute,
//	})
func ByMethod(usual time.Duration, overrides map[string]time.Duration) Policy {
	p := byMethod{usual: usual, overrides: make(map[string]time.Duration, len(overrides))}
	for m, d := range overrides {
		p.overrides[strings.ToUpper(m)] = d
	}
	return p
}

type byMethod struct {
	usual     time.Duration
	overrides map[string]time.Duration
}

func (p byMethod) Timeout(r *http.Request) time.Duration {
	m := "GET"
	if r != nil && r.Method != "" {
		m = strings.ToUpper(r.Method)
	}
	if d, ok := p.overrides[m]; ok {
		return d
	}
	return p.usual
}
