// Copyright 2021 The httptask Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package transient

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCategorize(t *testing.T) {
	testCases := []struct {
		name     string
		err      error
		expected Category
	}{
		{"nil", nil, Not},
		{"plain", errors.New("foo"), Not},
		{"wrapped nil", fmt.Errorf("send: %w", nil), Not},
		{"wrapped plain", fmt.Errorf("send: %w", errors.New("bar")), Not},
		{"ETIMEDOUT", syscall.ETIMEDOUT, Timeout},
		{"deadline", context.DeadlineExceeded, Timeout},
		{"url deadline", &url.Error{Op: "Get", URL: "http://x", Err: context.DeadlineExceeded}, Timeout},
		{"url timeout flag", &url.Error{Op: "Post", Err: deadline{true, nil}}, Timeout},
		{"wrapped url timeout", fmt.Errorf("task: %w", &url.Error{Err: syscall.ETIMEDOUT}), Timeout},
		{"timeout beats reset", deadline{true, syscall.ECONNRESET}, Timeout},
		{"timeout beats canceled", deadline{true, context.Canceled}, Timeout},
		{"reset", syscall.ECONNRESET, ConnReset},
		{"url reset", &url.Error{Op: "Get", Err: syscall.ECONNRESET}, ConnReset},
		{"reset under non-timeout", deadline{false, syscall.ECONNRESET}, ConnReset},
		{"refused", syscall.ECONNREFUSED, ConnRefused},
		{"deep refused", &url.Error{Err: fmt.Errorf("dial: %w", deadline{false, syscall.ECONNREFUSED})}, ConnRefused},
		{"other errno", syscall.EPIPE, Not},
		{"canceled", context.Canceled, Canceled},
		{"url canceled", &url.Error{Op: "Delete", Err: context.Canceled}, Canceled},
	}
	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			assert.Equal(t, testCase.expected, Categorize(testCase.err))
		})
	}
}

func TestCategory_String(t *testing.T) {
	assert.Equal(t, "Not", Not.String())
	assert.Equal(t, "Timeout", Timeout.String())
	assert.Equal(t, "ConnRefused", ConnRefused.String())
	assert.Equal(t, "ConnReset", ConnReset.String())
	assert.Equal(t, "Canceled", Canceled.String())
	assert.Equal(t, "Category(-1)", Category(-1).String())
	assert.Equal(t, "Category(5)", Category(5).String())
}

// deadline is an error with an explicit Timeout answer.
type deadline struct {
	timeout bool
	cause   error
}

func (err deadline) Error() string {
	return fmt.Sprintf("deadline (timeout %t): %v", err.timeout, err.cause)
}

func (err deadline) Timeout() bool {
	return err.timeout
}

func (err deadline) Unwrap() error {
	return err.cause
}
