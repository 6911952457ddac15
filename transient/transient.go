// Copyright 2021 The httptask Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package transient

import (
	"context"
	"errors"
	"fmt"
	"syscall"
)

// A Category is the transience category of a transport error, as
// reported by Categorize.
//
// The categories Not and Canceled mean that sending the same request
// again is not expected to turn out differently. Every other category
// means a new attempt has some prospect of success.
type Category int

const (
	// Not indicates any non-transient error.
	Not Category = iota
	// Timeout indicates a client-side timeout, either from the
	// transport's own deadline or because a wrapped cause reports
	// Timeout() == true.
	Timeout
	// ConnRefused indicates the remote host refused the connection
	// (syscall.ECONNREFUSED). The remote service may still be starting.
	ConnRefused
	// ConnReset indicates the remote host reset a previously active
	// connection (syscall.ECONNRESET).
	ConnReset
	// Canceled indicates the request was abandoned by the client, for
	// example because its task was cancelled. It is reported when the
	// error or a wrapped cause is context.Canceled.
	Canceled
)

var categoryNames = []string{"Not", "Timeout", "ConnRefused", "ConnReset", "Canceled"}

// String returns the name of the category.
func (c Category) String() string {
	if c < 0 || int(c) >= len(categoryNames) {
		return fmt.Sprintf("Category(%d)", int(c))
	}
	return categoryNames[c]
}

// Categorize returns the transience category of the given error. A nil
// error and an error that is not transient both produce Not.
//
// Categorize looks at wrapped cause errors contained within err, not
// just err itself. A timeout takes precedence over every other
// category. Categorize never consults Temporary().
func Categorize(err error) Category {
	if err == nil {
		return Not
	}

	var hasTimeout hasTimeout
	if errors.As(err, &hasTimeout) && hasTimeout.Timeout() {
		return Timeout
	}

	var errno syscall.Errno
	if errors.As(err, &errno) {
		if errno == syscall.ECONNRESET {
			return ConnReset
		} else if errno == syscall.ECONNREFUSED {
			return ConnRefused
		}
	}

	if errors.Is(err, context.Canceled) {
		return Canceled
	}

	return Not
}

type hasTimeout interface {
	Timeout() bool
}
