// Copyright 2021 The httptask Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"fmt"
	"io"
	"net/url"
)

// A BodyTypeError reports a raw body value of a type BodyBytes cannot
// convert.
type BodyTypeError struct {
	Value interface{}
}

func (e *BodyTypeError) Error() string {
	return fmt.Sprintf("httptask/request: invalid body type %T "+
		"(use nil, string, []byte, url.Values, or io.Reader)", e.Value)
}

// BodyBytes converts a raw body value to the bytes sent on the wire.
//
// A nil body gives a nil slice. A string or []byte is used as is, and
// url.Values is form-encoded. An io.Reader is read to the end and, if
// it is also an io.Closer, closed; a read or close error is returned
// wrapped. Any other type yields a *BodyTypeError.
func BodyBytes(body interface{}) ([]byte, error) {
	switch x := body.(type) {
	case nil:
		return nil, nil
	case string:
		return []byte(x), nil
	case []byte:
		return x, nil
	case url.Values:
		return []byte(x.Encode()), nil
	case io.Reader:
		return readAll(x)
	default:
		return nil, &BodyTypeError{Value: body}
	}
}

func readAll(r io.Reader) ([]byte, error) {
	b, err := io.ReadAll(r)
	if c, ok := r.(io.Closer); ok {
		if cerr := c.Close(); err == nil {
			err = cerr
		}
	}
	if err != nil {
		return nil, fmt.Errorf("httptask/request: read body: %w", err)
	}
	return b, nil
}
