// Copyright 2021 The httptask Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package httptask

import (
	"context"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gogama/httptask/timeout"
	"golang.org/x/net/http2"
)

// A Completion receives the outcome of one transport operation: either
// the fully-buffered body and the response metadata, or an error. The
// metadata's Body has already been consumed and closed.
type Completion func(body []byte, meta *http.Response, err error)

// A Transport performs HTTP requests on behalf of tasks.
//
// Send registers r and returns a Handle controlling it. The request
// must not start until the first call to Handle.Resume. The transport
// calls done exactly once, from any goroutine, unless the request is
// cancelled, in which case calling done is optional and any late call
// is ignored. Send may return nil if it has already called done.
//
// Implementations must be safe for concurrent use by multiple
// goroutines.
type Transport interface {
	Send(r *http.Request, done Completion) Handle
}

// A Handle controls one in-flight transport operation. All methods must
// be safe to call more than once and from any goroutine.
type Handle interface {
	Resume()
	Suspend()
	Cancel()
}

// An HTTPDoer implements a Do method in the same manner as the GoLang
// standard library http.Client from the net/http package.
type HTTPDoer interface {
	// Do sends an HTTP request and returns an HTTP response following
	// policy (such as redirects, cookies, auth) configured on the
	// HTTPDoer.
	//
	// The Do method must follow the contract documented on the GoLang
	// standard library http.Client from the net/http package.
	Do(r *http.Request) (*http.Response, error)
}

// An HTTPTransport is a Transport that sends requests through an
// HTTPDoer, one goroutine per request. Its zero value is a valid
// configuration.
//
// The zero value uses http.DefaultClient as the HTTPDoer and
// timeout.DefaultPolicy as the timeout policy.
//
// HTTPTransport cannot pause a request on the wire, so Handle.Suspend
// does nothing; the owning task holds the outcome instead. Cancel
// aborts the request through its context.
type HTTPTransport struct {
	// HTTPDoer specifies the mechanics of sending HTTP requests and
	// receiving responses.
	//
	// If HTTPDoer is nil, http.DefaultClient from the standard net/http
	// package is used.
	HTTPDoer HTTPDoer
	// TimeoutPolicy specifies the timeout of each request, which covers
	// reading the whole body.
	//
	// If TimeoutPolicy is nil, timeout.DefaultPolicy is used.
	TimeoutPolicy timeout.Policy
}

// Send implements the Transport interface.
func (t *HTTPTransport) Send(r *http.Request, done Completion) Handle {
	if r == nil {
		panic("httptask: nil request")
	}
	if done == nil {
		panic("httptask: nil completion")
	}
	policy := t.TimeoutPolicy
	if policy == nil {
		policy = timeout.DefaultPolicy
	}
	var ctx context.Context
	var cancel context.CancelFunc
	if d := policy.Timeout(r); d > 0 {
		ctx, cancel = context.WithTimeout(r.Context(), d)
	} else {
		ctx, cancel = context.WithCancel(r.Context())
	}
	return &httpHandle{
		doer:   t.doer(),
		req:    r.WithContext(ctx),
		cancel: cancel,
		done:   done,
	}
}

// CloseIdleConnections invokes the same method on the transport's
// underlying HTTPDoer, if it has one.
func (t *HTTPTransport) CloseIdleConnections() {
	if ic, ok := t.doer().(IdleCloser); ok {
		ic.CloseIdleConnections()
	}
}

func (t *HTTPTransport) doer() HTTPDoer {
	if t.HTTPDoer == nil {
		return http.DefaultClient
	}

	return t.HTTPDoer
}

type httpHandle struct {
	doer   HTTPDoer
	req    *http.Request
	cancel context.CancelFunc
	done   Completion

	startOnce sync.Once
	doneOnce  sync.Once
}

func (h *httpHandle) Resume() {
	h.startOnce.Do(func() {
		go h.run()
	})
}

func (h *httpHandle) Suspend() {}

func (h *httpHandle) Cancel() {
	h.startOnce.Do(func() {})
	h.cancel()
	h.complete(nil, nil, urlErrorWrap(h.req, context.Canceled))
}

func (h *httpHandle) run() {
	defer h.cancel()
	resp, err := h.doer.Do(h.req)
	if err != nil {
		h.complete(nil, nil, urlErrorWrap(h.req, err))
		return
	}
	body, err := readBody(resp)
	if err != nil {
		h.complete(nil, resp, urlErrorWrap(h.req, err))
		return
	}
	h.complete(body, resp, nil)
}

func (h *httpHandle) complete(body []byte, meta *http.Response, err error) {
	h.doneOnce.Do(func() {
		h.done(body, meta, err)
	})
}

func readBody(resp *http.Response) ([]byte, error) {
	defer func() {
		_ = resp.Body.Close()
	}()
	return io.ReadAll(resp.Body)
}

func urlErrorWrap(r *http.Request, err error) error {
	if _, ok := err.(*url.Error); ok {
		return err
	}

	return &url.Error{
		Op:  urlErrorOp(r.Method),
		URL: r.URL.String(),
		Err: err,
	}
}

// urlErrorOp is lifted verbatim from net/http/client.go
func urlErrorOp(method string) string {
	if method == "" {
		return "Get"
	}
	return method[:1] + strings.ToLower(method[1:])
}

// NewHTTPDoer returns an *http.Client with its own connection pool,
// with HTTP/2 enabled over TLS. The dial and TLS handshake timeouts are
// bounded by connect; per-request timeouts belong to the timeout policy.
func NewHTTPDoer(connect time.Duration) (*http.Client, error) {
	tr := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   connect,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   connect,
		ExpectContinueTimeout: 1 * time.Second,
	}
	if err := http2.ConfigureTransport(tr); err != nil {
		return nil, err
	}
	return &http.Client{Transport: tr}, nil
}
