// Copyright 2021 The httptask Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"strings"

	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// A Method is an HTTP request method.
type Method string

const (
	GET    Method = "GET"
	HEAD   Method = "HEAD"
	POST   Method = "POST"
	PUT    Method = "PUT"
	PATCH  Method = "PATCH"
	DELETE Method = "DELETE"
)

// Methods returns every method a Request may carry.
func Methods() []Method {
	return []Method{GET, HEAD, POST, PUT, PATCH, DELETE}
}

// Valid indicates whether m is one of the methods returned by Methods.
func (m Method) Valid() bool {
	switch m {
	case GET, HEAD, POST, PUT, PATCH, DELETE:
		return true
	}
	return false
}

// EncodesInURL indicates whether parameters for requests using method m
// belong in the URL query string rather than in the body.
func (m Method) EncodesInURL() bool {
	return m == GET || m == HEAD || m == DELETE
}

// A ParameterEncoding selects how body parameters are serialized.
type ParameterEncoding int

const (
	// Percent encodes parameters as an application/x-www-form-urlencoded
	// form. It is the default.
	Percent ParameterEncoding = iota
	// JSON encodes parameters as a JSON object.
	JSON
)

// String returns the name of the encoding.
func (e ParameterEncoding) String() string {
	switch e {
	case Percent:
		return "percent"
	case JSON:
		return "json"
	default:
		return fmt.Sprintf("ParameterEncoding(%d)", int(e))
	}
}

// ParseParameterEncoding converts the output of ParameterEncoding.String
// back into a ParameterEncoding. The empty string means Percent.
func ParseParameterEncoding(s string) (ParameterEncoding, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "percent":
		return Percent, nil
	case "json":
		return JSON, nil
	default:
		return Percent, fmt.Errorf("httptask/request: unknown parameter encoding %q", s)
	}
}

// A CachePolicy is a caching hint passed to the server and to any
// caching layer in the transport via the Cache-Control header. The
// library itself never caches.
type CachePolicy int

const (
	// UseProtocolCachePolicy sends no caching hint.
	UseProtocolCachePolicy CachePolicy = iota
	// ReloadIgnoringCache asks for a fresh response.
	ReloadIgnoringCache
	// ReturnCacheElseLoad accepts a stale cached response.
	ReturnCacheElseLoad
	// ReturnCacheDontLoad accepts only a cached response.
	ReturnCacheDontLoad
)

var cacheControl = []string{"", "no-cache", "max-stale", "only-if-cached"}

// A Request is an immutable description of an HTTP request.
//
// Build a Request with New and derive variants with WithOptions. The
// exported fields may be read freely but should not be written to once
// the Request has been handed to a task.
type Request struct {
	// Method is the HTTP method. It is always one of the values
	// returned by Methods.
	Method Method

	// URL is the absolute URL to request, before any parameters are
	// added to its query string.
	URL string

	// Header contains the request header fields. Names are canonical,
	// so lookups are case-insensitive.
	Header http.Header

	// Body is the raw request body. It is replaced by the encoded
	// parameters when the method carries parameters in the body and
	// the parameter map is non-empty.
	Body []byte

	// Parameters are the request parameters.
	Parameters map[string]interface{}

	// ParameterEncoding selects how Parameters are serialized when
	// they are carried in the body.
	ParameterEncoding ParameterEncoding

	// CachePolicy is the request's caching hint.
	CachePolicy CachePolicy

	// err records the first failure of an option that could not be
	// reported when it was applied. Encode returns it.
	err error
}

// New returns a Request for the given method and URL with percent
// parameter encoding and no headers, body, or parameters.
//
// If method is empty, GET is used.
func New(method Method, url string) *Request {
	if method == "" {
		method = GET
	}
	r := &Request{
		Method:     method,
		URL:        url,
		Header:     make(http.Header),
		Parameters: make(map[string]interface{}),
	}
	if !method.Valid() {
		r.err = fmt.Errorf("httptask/request: invalid method %q", method)
	}
	return r
}

// WithOptions returns a copy of r with each option applied in order.
// Where two options set the same field, the later one wins.
func (r *Request) WithOptions(opts ...Option) *Request {
	r2 := r.Clone()
	for _, opt := range opts {
		if opt != nil {
			opt(r2)
		}
	}
	return r2
}

// Clone returns a deep copy of r. Parameter values are copied
// shallowly.
func (r *Request) Clone() *Request {
	r2 := new(Request)
	*r2 = *r
	r2.Header = r.Header.Clone()
	if r2.Header == nil {
		r2.Header = make(http.Header)
	}
	r2.Parameters = make(map[string]interface{}, len(r.Parameters))
	for k, v := range r.Parameters {
		r2.Parameters[k] = v
	}
	if r.Body != nil {
		r2.Body = append([]byte(nil), r.Body...)
	}
	return r2
}

// Err returns the first error recorded while applying options, if any.
func (r *Request) Err() error {
	return r.err
}

// An Option modifies a Request being derived by WithOptions.
type Option func(*Request)

// SetHeader sets a header, replacing any existing value for the same
// case-insensitive name.
func SetHeader(name, value string) Option {
	return func(r *Request) {
		r.Header.Set(name, value)
	}
}

// SetHeaders sets every header in h, in the manner of SetHeader.
func SetHeaders(h map[string]string) Option {
	return func(r *Request) {
		for name, value := range h {
			r.Header.Set(name, value)
		}
	}
}

// SetParameters merges params into the request parameters, replacing
// existing values for the same key.
func SetParameters(params map[string]interface{}) Option {
	return func(r *Request) {
		for k, v := range params {
			r.Parameters[k] = v
		}
	}
}

// SetParameterEncoding sets the parameter encoding. Setting JSON also
// sets the Content-Type header to application/json unless it is
// already set.
func SetParameterEncoding(e ParameterEncoding) Option {
	return func(r *Request) {
		r.ParameterEncoding = e
		if e == JSON && r.Header.Get(contentType) == "" {
			r.Header.Set(contentType, jsonContentType)
		}
	}
}

// SetCachePolicy sets the caching hint.
func SetCachePolicy(p CachePolicy) Option {
	return func(r *Request) {
		r.CachePolicy = p
	}
}

// SetBody sets the raw body. The body may be any of the types accepted
// by BodyBytes. A conversion error is reported by Encode.
func SetBody(body interface{}) Option {
	return func(r *Request) {
		b, err := BodyBytes(body)
		if err != nil {
			r.fail(err)
			return
		}
		r.Body = b
	}
}

// SetBodyFromJSON sets the body to the JSON serialization of v and the
// Content-Type header to application/json unless it is already set. A
// serialization failure is reported by Encode as an *EncodingError.
func SetBodyFromJSON(v interface{}) Option {
	return func(r *Request) {
		b, err := json.Marshal(v)
		if err != nil {
			r.fail(&EncodingError{Encoding: JSON, Err: err})
			return
		}
		r.Body = b
		if r.Header.Get(contentType) == "" {
			r.Header.Set(contentType, jsonContentType)
		}
	}
}

// SetBasicAuth sets the Authorization header to use HTTP Basic
// Authentication with the provided username and password.
func SetBasicAuth(username, password string) Option {
	return func(r *Request) {
		r.Header.Set("Authorization", "Basic "+basicAuth(username, password))
	}
}

func (r *Request) fail(err error) {
	if r.err == nil {
		r.err = err
	}
}

// basicAuth is lifted verbatim from net/http/client.go.
//
// See 2 (end of page 4) https://www.ietf.org/rfc/rfc2617.txt
// "To receive authorization, the client sends the userid and password,
// separated by a single colon (":") character, within a base64
// encoded string in the credentials."
// It is not meant to be urlencoded.
func basicAuth(username, password string) string {
	auth := username + ":" + password
	return base64.StdEncoding.EncodeToString([]byte(auth))
}
