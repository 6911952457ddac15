// Copyright 2021 The httptask Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package config loads httptask client settings from a TOML file.

A config file looks like:

	base_url = "https://api.example.com/v1/"
	timeout = "10s"
	parameter_encoding = "json"

	[method_timeouts]
	POST = "1m"

	[headers]
	Accept = "application/json"

	[log]
	level = "debug"
	outputs = ["stderr", "/var/log/httptask.log"]

	[log.rotation]
	enable = true

Every setting is optional. A missing file yields Default().
*/
package config
