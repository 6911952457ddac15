// Copyright 2021 The httptask Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package httptask provides chainable HTTP request tasks: an HTTP request
is issued as a Task, and the caller attaches a pipeline of handler
stages that transform or inspect the outcome, with the final stages
delivered to a UI-affinity execution context.

Create a Client with a Transport and a config, then issue requests.

	transport := &httptask.HTTPTransport{}
	client, err := httptask.NewClient(transport, config.Config{
		BaseURL:               "https://api.example.com/v1/",
		StartTasksImmediately: true,
	})
	...
	client.Get("breweries", map[string]interface{}{"page": 2}).
		ResponseJSON(func(v jsonvalue.Value) error {
			log.Printf("got %d breweries", v.Len())
			return nil
		}).
		UpdateUI(func(v interface{}) { view.Show(v.(jsonvalue.Value)) }).
		UpdateUIError(func(err error) { view.Alert(err) })

Stages run one at a time in registration order on a background
worker, each receiving the result of the one before. A result is empty,
a value, or a failure. Value stages (Process, Transform, UpdateUI) are
skipped while a failure is present, and failure stages (Catch, Recover,
UpdateUIError) are skipped while it is absent, so a failure
short-circuits to the next error handler. Recover can turn a failure
back into a value.

UI stages run in the client's Dispatcher, which defaults to the
process-wide MainQueue returned by Main. Use Inline to run them on the
background worker instead.

Every failure in a chain is an *Error, whose Kind tells a transport
failure from a cancellation, a decode failure, an encoding failure, or a
failing stage:

	task.Catch(func(err error) {
		if httptask.IsKind(err, httptask.KindCancelled) {
			return
		}
		...
	})

A Task starts Suspended and is resumed by the Client unless
StartTasksImmediately is false. It can be suspended, resumed, and
cancelled from any goroutine; cancelling completes it immediately with a
KindCancelled failure. A DataTask has the same lifecycle and stages but
drives an arbitrary asynchronous Provider instead of an HTTP request.

To observe task lifecycles for logging or metrics, install a
Passthrough. ZapPassthrough logs to a zap.Logger, and HandlerGroup fans
each event out to a chain of handlers:

	handlers := &httptask.HandlerGroup{}
	handlers.PushBack(httptask.RequestSent, httptask.HandlerFunc(
		func(_ httptask.Event, n *httptask.Notice) {
			log.Printf("Sending %s", n.Request.URL)
		}),
	)
	client, err := httptask.NewClient(transport, cfg,
		httptask.WithPassthrough(handlers))

HTTPTransport sends requests through an HTTPDoer such as an
*http.Client, applying a per-request timeout policy from package
timeout. NewHTTPDoer builds a dedicated HTTP/2-capable client.

Package httptask provides basic interfaces for each method of the client
(Requester, Getter, Header, Poster, Putter, Patcher, Deleter, and
IdleCloser); a combined interface that composes all of them (Executor);
and utility functions for working with a Requester (Inflate, Get, Head,
Post, Put, Patch, and Delete).
*/
package httptask
