// Copyright 2021 The httptask Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package httptask

import (
	"errors"
	"net/http"

	"go.uber.org/zap"
)

// A ZapPassthrough is a Passthrough that writes one structured log
// entry per task lifecycle event to a zap.Logger.
//
// Requests and responses are logged at Debug level, failures at Warn,
// and UI stage boundaries not at all. A nil Logger logs nothing.
type ZapPassthrough struct {
	Logger *zap.Logger
}

// NewZapPassthrough returns a ZapPassthrough that logs to l under the
// name "httptask".
func NewZapPassthrough(l *zap.Logger) *ZapPassthrough {
	if l == nil {
		return &ZapPassthrough{}
	}
	return &ZapPassthrough{Logger: l.Named("httptask")}
}

func (z *ZapPassthrough) logger(op Operation) *zap.Logger {
	if z.Logger == nil {
		return zap.NewNop()
	}
	return z.Logger.With(zap.String("task", op.ID()))
}

// RequestSent logs the method and URL of r.
func (z *ZapPassthrough) RequestSent(op Operation, r *http.Request) {
	z.logger(op).Debug("request sent",
		zap.String("method", r.Method),
		zap.String("url", r.URL.String()))
}

// ResponseReceived logs the status code, or the transport error.
func (z *ZapPassthrough) ResponseReceived(op Operation, resp *Response, err error) {
	l := z.logger(op)
	if err != nil {
		l.Warn("transport failed", errorFields(err)...)
		return
	}
	l.Debug("response received",
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(resp.Body)))
}

// UpdateUIBegin does nothing.
func (z *ZapPassthrough) UpdateUIBegin(Operation) {}

// UpdateUIEnd does nothing.
func (z *ZapPassthrough) UpdateUIEnd(Operation) {}

// ResultFailure logs err with its kind and transience category.
func (z *ZapPassthrough) ResultFailure(op Operation, err error) {
	z.logger(op).Warn("task failed", errorFields(err)...)
}

// MetricsCollected logs the response time, if known.
func (z *ZapPassthrough) MetricsCollected(op Operation, m Metrics) {
	d, ok := m.ResponseTime()
	if !ok {
		return
	}
	z.logger(op).Debug("metrics collected", zap.Duration("response_time", d))
}

func errorFields(err error) []zap.Field {
	fields := []zap.Field{zap.Error(err)}
	var e *Error
	if errors.As(err, &e) {
		fields = append(fields,
			zap.Stringer("kind", e.Kind),
			zap.Stringer("category", e.Category()))
		if e.Kind == KindHandler {
			fields = append(fields, zap.Stringer("stage", e.Stage))
		}
	}
	return fields
}
