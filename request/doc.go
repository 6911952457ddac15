// Copyright 2021 The httptask Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package request contains Request, the immutable description of an HTTP
request submitted to a task, and the options used to derive variants
of it.

Build a request and derive a variant with options:

	r := request.New(request.POST, "https://example.com/things")
	r = r.WithOptions(
		request.SetParameters(map[string]interface{}{"name": "ham"}),
		request.SetParameterEncoding(request.JSON),
		request.SetHeader("X-Trace", "abc"),
	)

A Request is never modified once built. WithOptions always returns a
copy, so a Request may be shared between goroutines and submitted to
more than one task.

Parameters are carried in the URL query string for GET, HEAD, and
DELETE requests and in the body for every other method. Body parameters
are either percent-encoded as a form (the default) or serialized as a
JSON object, depending on the parameter encoding. Encode performs this
conversion and produces the *http.Request a transport sends.
*/
package request
