// Copyright 2021 The httptask Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

// Package timeout defines policies for bounding how long the HTTP
// transport waits for a single request. A generic interface for timeout
// policies is provided, Policy, along with policy generating functions
// and built-in policies.
//
// Timeouts are the transport's responsibility. Tasks themselves have no
// deadline; a request that times out reaches its task as a transport
// failure.
package timeout
