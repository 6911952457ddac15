// Copyright 2021 The httptask Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

/*
Package transient classifies transport errors by how likely it is that
sending the same request again would succeed.

Use Categorize on the cause of a transport failure:

	if transient.Categorize(err) == transient.Timeout {
		...
	}
*/
package transient
