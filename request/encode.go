// Copyright 2021 The httptask Authors. All rights reserved.
// Use of this source code is governed by an MIT-style
// license that can be found in the LICENSE file.

package request

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	urlpkg "net/url"
	"reflect"
	"sort"
	"strconv"
	"strings"
)

const (
	contentType     = "Content-Type"
	jsonContentType = "application/json"
	formContentType = "application/x-www-form-urlencoded; charset=utf-8"
	nilCtxMsg       = "httptask/request: nil context"
)

// An EncodingError reports a failure to serialize request parameters
// or a JSON request body.
type EncodingError struct {
	Encoding ParameterEncoding
	Err      error
}

func (e *EncodingError) Error() string {
	return fmt.Sprintf("httptask/request: %s encoding failed: %v", e.Encoding, e.Err)
}

func (e *EncodingError) Unwrap() error {
	return e.Err
}

// Encode converts r into an *http.Request ready for a transport, with
// its context set to ctx, which may not be nil.
//
// For GET, HEAD, and DELETE, the parameters are percent-encoded and
// appended to the URL query string. For other methods, non-empty
// parameters replace the body and are serialized according to the
// parameter encoding; the Content-Type header is set to match unless
// already present. A request using JSON parameter encoding always
// carries a Content-Type of application/json unless one is set.
//
// If any option applied to r failed, or the parameters cannot be
// serialized, Encode returns a nil request and the error. Serialization
// failures are of type *EncodingError.
func (r *Request) Encode(ctx context.Context) (*http.Request, error) {
	if ctx == nil {
		return nil, errors.New(nilCtxMsg)
	}
	if r.err != nil {
		return nil, r.err
	}
	u, err := urlpkg.Parse(r.URL)
	if err != nil {
		return nil, err
	}
	u.Host = removeEmptyPort(u.Host)
	header := r.Header.Clone()
	if header == nil {
		header = make(http.Header)
	}
	body := r.Body

	if len(r.Parameters) > 0 {
		if r.Method.EncodesInURL() {
			q, err := PercentEncode(r.Parameters)
			if err != nil {
				return nil, err
			}
			if u.RawQuery != "" {
				u.RawQuery += "&" + q
			} else {
				u.RawQuery = q
			}
		} else if r.ParameterEncoding == JSON {
			if err = checkParameters(r.Parameters); err == nil {
				body, err = json.Marshal(r.Parameters)
			}
			if err != nil {
				return nil, &EncodingError{Encoding: JSON, Err: err}
			}
		} else {
			q, err := PercentEncode(r.Parameters)
			if err != nil {
				return nil, err
			}
			body = []byte(q)
			if header.Get(contentType) == "" {
				header.Set(contentType, formContentType)
			}
		}
	}
	if r.ParameterEncoding == JSON && header.Get(contentType) == "" {
		header.Set(contentType, jsonContentType)
	}

	if r.CachePolicy > 0 && int(r.CachePolicy) < len(cacheControl) && header.Get("Cache-Control") == "" {
		header.Set("Cache-Control", cacheControl[r.CachePolicy])
	}

	var rd io.Reader
	if len(body) > 0 {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, string(r.Method), u.String(), rd)
	if err != nil {
		return nil, err
	}
	req.Header = header
	if len(body) > 0 {
		req.GetBody = func() (io.ReadCloser, error) {
			return io.NopCloser(bytes.NewReader(body)), nil
		}
	}
	return req, nil
}

// PercentEncode serializes params as a query string. Keys are emitted in
// sorted order. Nested maps produce keys of the form key[sub] and
// slices produce repeated key[] pairs. Spaces are encoded as %20 and all
// reserved query characters are escaped.
//
// If params contains itself, or nests deeper than the encoder allows,
// PercentEncode returns an *EncodingError.
func PercentEncode(params map[string]interface{}) (string, error) {
	if err := checkParameters(params); err != nil {
		return "", &EncodingError{Encoding: Percent, Err: err}
	}
	var pairs []string
	for _, k := range sortedKeys(params) {
		pairs = appendComponents(pairs, k, params[k])
	}
	return strings.Join(pairs, "&"), nil
}

const maxParameterDepth = 1000

var (
	errCyclicParameters = errors.New("parameters contain a cycle")
	errParametersDepth  = fmt.Errorf("parameters nested deeper than %d", maxParameterDepth)
)

type visit struct {
	ptr uintptr
	typ reflect.Type
	len int
}

// checkParameters walks params looking for reference cycles and
// excessive nesting, either of which would exhaust the stack of a
// recursive encoder.
func checkParameters(params map[string]interface{}) error {
	return walkParameter(reflect.ValueOf(params), make(map[visit]struct{}), 0)
}

func walkParameter(v reflect.Value, path map[visit]struct{}, depth int) error {
	if depth > maxParameterDepth {
		return errParametersDepth
	}
	var key visit
	switch v.Kind() {
	case reflect.Map, reflect.Ptr:
		if v.IsNil() {
			return nil
		}
		key = visit{v.Pointer(), v.Type(), 0}
	case reflect.Slice:
		if v.Len() == 0 {
			return nil
		}
		key = visit{v.Pointer(), v.Type(), v.Len()}
	case reflect.Interface:
		if v.IsNil() {
			return nil
		}
		return walkParameter(v.Elem(), path, depth)
	case reflect.Array:
		for i := 0; i < v.Len(); i++ {
			if err := walkParameter(v.Index(i), path, depth+1); err != nil {
				return err
			}
		}
		return nil
	case reflect.Struct:
		for i := 0; i < v.NumField(); i++ {
			if err := walkParameter(v.Field(i), path, depth+1); err != nil {
				return err
			}
		}
		return nil
	default:
		return nil
	}

	if _, ok := path[key]; ok {
		return errCyclicParameters
	}
	path[key] = struct{}{}
	defer delete(path, key)

	switch v.Kind() {
	case reflect.Map:
		iter := v.MapRange()
		for iter.Next() {
			if err := walkParameter(iter.Value(), path, depth+1); err != nil {
				return err
			}
		}
	case reflect.Ptr:
		return walkParameter(v.Elem(), path, depth+1)
	case reflect.Slice:
		for i := 0; i < v.Len(); i++ {
			if err := walkParameter(v.Index(i), path, depth+1); err != nil {
				return err
			}
		}
	}
	return nil
}

func appendComponents(pairs []string, key string, value interface{}) []string {
	switch v := value.(type) {
	case map[string]interface{}:
		for _, k := range sortedKeys(v) {
			pairs = appendComponents(pairs, key+"["+k+"]", v[k])
		}
		return pairs
	case []interface{}:
		for _, x := range v {
			pairs = appendComponents(pairs, key+"[]", x)
		}
		return pairs
	case []string:
		for _, x := range v {
			pairs = appendComponents(pairs, key+"[]", x)
		}
		return pairs
	}
	return append(pairs, Escape(key)+"="+Escape(scalarString(value)))
}

func scalarString(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case bool:
		return strconv.FormatBool(v)
	case fmt.Stringer:
		return v.String()
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return strconv.FormatUint(rv.Uint(), 10)
	case reflect.Float32, reflect.Float64:
		return strconv.FormatFloat(rv.Float(), 'f', -1, 64)
	}
	return fmt.Sprint(value)
}

// Escape percent-encodes s for use as a query string key or value.
// Unlike url.QueryEscape, a space becomes %20 rather than +.
func Escape(s string) string {
	return strings.ReplaceAll(urlpkg.QueryEscape(s), "+", "%20")
}

func sortedKeys(m map[string]interface{}) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// hasPort is lifted verbatim from net/http/http.go
//
// Given a string of the form "host", "host:port", or "[ipv6::address]:port",
// return true if the string includes a port.
func hasPort(s string) bool { return strings.LastIndex(s, ":") > strings.LastIndex(s, "]") }

// removeEmptyPort is lifted verbatim from net/http/http.go
//
// removeEmptyPort strips the empty port in ":port" to ""
// as mandated by RFC 3986 Section 6.2.3.
func removeEmptyPort(host string) string {
	if hasPort(host) {
		return strings.TrimSuffix(host, ":")
	}
	return host
}
