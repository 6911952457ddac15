// Copyright 2021 The httptask Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package httptask

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/gogama/httptask/config"
	"github.com/gogama/httptask/request"
)

// A Client is the entry point for issuing chainable HTTP tasks against
// one service. It resolves request paths against a base URL, applies
// default headers and parameter encoding, and hands each request to its
// Transport as a new Task.
//
// Client has no transport of its own: the caller supplies one, which is
// typically an *HTTPTransport built once at program start-up and shared
// by every Client. Client is safe for concurrent use by multiple
// goroutines.
//
// Client's HTTP methods take a path, an optional parameter map, and
// optional request options:
//
//	task := client.Get("/breweries", map[string]interface{}{"page": 2}).
//		ResponseJSON(nil).
//		UpdateUI(func(v interface{}) { render(v.(jsonvalue.Value)) }).
//		UpdateUIError(showError)
//
// By default the returned task has already been resumed. Set
// config.Config.StartTasksImmediately to false to receive suspended
// tasks instead, so that stages can be registered before the request
// is sent.
type Client struct {
	transport Transport
	base      *url.URL
	start     bool
	encoding  request.ParameterEncoding
	headers   map[string]string
	ui        Dispatcher
	obs       Passthrough
}

// A ClientOption configures a Client collaborator that has no place in
// a config file.
type ClientOption func(*Client)

// WithDispatcher sets the UI-affinity context in which UI stages run.
// The default is Main().
func WithDispatcher(d Dispatcher) ClientOption {
	return func(c *Client) {
		c.ui = d
	}
}

// WithPassthrough sets the observer notified of every task's lifecycle
// events. The default is no observer.
func WithPassthrough(p Passthrough) ClientOption {
	return func(c *Client) {
		c.obs = p
	}
}

// NewClient creates a Client that sends requests through t, configured
// by cfg. It returns an error if cfg.BaseURL is set but is not an
// absolute URL.
func NewClient(t Transport, cfg config.Config, opts ...ClientOption) (*Client, error) {
	if t == nil {
		panic("httptask: nil transport")
	}
	c := &Client{
		transport: t,
		start:     cfg.StartTasksImmediately,
		encoding:  cfg.ParameterEncoding,
		headers:   make(map[string]string, len(cfg.Headers)),
	}
	for k, v := range cfg.Headers {
		c.headers[k] = v
	}
	if cfg.BaseURL != "" {
		u, err := url.Parse(cfg.BaseURL)
		if err != nil {
			return nil, fmt.Errorf("httptask: invalid base URL: %w", err)
		}
		if !u.IsAbs() || u.Host == "" {
			return nil, fmt.Errorf("httptask: base URL %q is not absolute", cfg.BaseURL)
		}
		c.base = u
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	if c.ui == nil {
		c.ui = Main()
	}
	return c, nil
}

// AbsoluteURL resolves path against the client's base URL. An absolute
// URL passes through unchanged. A relative path is appended to the base
// URL's path, so with a base of "http://host/api/", both "users" and
// "/users" resolve to "http://host/api/users". A query string in path
// is kept.
func (c *Client) AbsoluteURL(path string) string {
	if c.base == nil {
		return path
	}
	ref, err := url.Parse(path)
	if err != nil || ref.IsAbs() {
		return path
	}
	u := *c.base
	u.RawPath = ""
	u.Path = strings.TrimSuffix(c.base.Path, "/") + "/" + strings.TrimPrefix(ref.Path, "/")
	if ref.RawQuery != "" {
		u.RawQuery = ref.RawQuery
	}
	u.Fragment = ref.Fragment
	return u.String()
}

// Request builds a request for method and path with the given
// parameters, which may be nil, and starts a Task for it. The options
// are applied after the client's defaults, so they take precedence.
func (c *Client) Request(method request.Method, path string, params map[string]interface{}, opts ...request.Option) *Task {
	defaults := []request.Option{
		request.SetHeaders(c.headers),
		request.SetParameterEncoding(c.encoding),
		request.SetParameters(params),
	}
	r := request.New(method, c.AbsoluteURL(path)).WithOptions(append(defaults, opts...)...)
	return c.Do(r)
}

// Do starts a Task for a pre-built request. The request's URL is used
// as is.
func (c *Client) Do(r *request.Request) *Task {
	if r == nil {
		panic("httptask: nil request")
	}
	t := newTask(r, c.transport, c.ui, c.obs)
	if c.start {
		t.Resume()
	}
	return t
}

// Data starts a DataTask for provider, sharing the client's UI context
// and passthrough.
func (c *Client) Data(provider Provider) *DataTask {
	d := NewDataTask(provider, c.ui, c.obs)
	if c.start {
		d.Resume()
	}
	return d
}

// Get issues a GET. Parameters are added to the query string.
func (c *Client) Get(path string, params map[string]interface{}, opts ...request.Option) *Task {
	return c.Request(request.GET, path, params, opts...)
}

// Head issues a HEAD. Parameters are added to the query string.
func (c *Client) Head(path string, params map[string]interface{}, opts ...request.Option) *Task {
	return c.Request(request.HEAD, path, params, opts...)
}

// Post issues a POST. Parameters are encoded into the body.
func (c *Client) Post(path string, params map[string]interface{}, opts ...request.Option) *Task {
	return c.Request(request.POST, path, params, opts...)
}

// Put issues a PUT. Parameters are encoded into the body.
func (c *Client) Put(path string, params map[string]interface{}, opts ...request.Option) *Task {
	return c.Request(request.PUT, path, params, opts...)
}

// Patch issues a PATCH. Parameters are encoded into the body.
func (c *Client) Patch(path string, params map[string]interface{}, opts ...request.Option) *Task {
	return c.Request(request.PATCH, path, params, opts...)
}

// Delete issues a DELETE. Parameters are added to the query string.
func (c *Client) Delete(path string, params map[string]interface{}, opts ...request.Option) *Task {
	return c.Request(request.DELETE, path, params, opts...)
}

// CloseIdleConnections invokes the same method on the client's
// Transport.
//
// If the Transport has no CloseIdleConnections method, this method does
// nothing.
func (c *Client) CloseIdleConnections() {
	if ic, ok := c.transport.(IdleCloser); ok {
		ic.CloseIdleConnections()
	}
}
