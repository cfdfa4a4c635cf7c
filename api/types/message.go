/*
 * Copyright 2024 The RuleGo Authors.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package types

import (
	"context"
	"errors"
	"net/http"
	"net/textproto"
)

// Keys understood by Request.Get and usable as parameter sources or as the
// first segment of a nested key.
const (
	KeyMethod     = "method"
	KeyPath       = "path"
	KeyURL        = "url"
	KeyRemoteAddr = "remoteAddr"
	KeyParams     = "params"
	KeyQuery      = "query"
	KeyHeaders    = "headers"
	KeyBody       = "body"
	KeyLocals     = "locals"
	KeyStatus     = "status"
)

// ErrAlreadySent is returned by Response.Send when a response was already written.
var ErrAlreadySent = errors.New("response already sent")

// Request is the map-like view of an incoming request. It is created per call
// and never shared between requests.
// Request 请求消息
type Request struct {
	Method     string
	Path       string
	URL        string
	RemoteAddr string
	// Params are the path parameters. Coercers overwrite the raw strings in place.
	Params map[string]interface{}
	// Query are the query string values, a string or a []string for repeated keys.
	Query map[string]interface{}
	// Headers are the first value of each header, keyed by canonical name.
	Headers map[string]interface{}
	// Body is the decoded request body.
	Body interface{}
	// Locals carry values set by middleware, reachable as request properties.
	Locals map[string]interface{}

	ctx context.Context
	raw *http.Request
}

// NewRequest creates an empty request.
func NewRequest(ctx context.Context, method, path string) *Request {
	return &Request{
		Method:  method,
		Path:    path,
		URL:     path,
		Params:  make(map[string]interface{}),
		Query:   make(map[string]interface{}),
		Headers: make(map[string]interface{}),
		Locals:  make(map[string]interface{}),
		ctx:     ctx,
	}
}

// Context returns the request context, never nil.
func (r *Request) Context() context.Context {
	if r.ctx == nil {
		return context.Background()
	}
	return r.ctx
}

// WithContext replaces the request context.
func (r *Request) WithContext(ctx context.Context) *Request {
	r.ctx = ctx
	return r
}

// Raw returns the underlying http request, nil outside the http adapter.
func (r *Request) Raw() *http.Request {
	return r.raw
}

// SetRaw attaches the underlying http request.
func (r *Request) SetRaw(raw *http.Request) {
	r.raw = raw
}

// Header returns the first value of the header key, compared canonically.
func (r *Request) Header(key string) string {
	if v, ok := r.Headers[textproto.CanonicalMIMEHeaderKey(key)]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}

// Param returns the path parameter name.
func (r *Request) Param(name string) (interface{}, bool) {
	v, ok := r.Params[name]
	return v, ok
}

// Set stores a local value, reachable through Get and as a parameter source.
func (r *Request) Set(key string, value interface{}) {
	if r.Locals == nil {
		r.Locals = make(map[string]interface{})
	}
	r.Locals[key] = value
}

// Get returns the request property key. Unknown keys fall back to Locals.
func (r *Request) Get(key string) (interface{}, bool) {
	switch key {
	case KeyMethod:
		return r.Method, true
	case KeyPath:
		return r.Path, true
	case KeyURL:
		return r.URL, true
	case KeyRemoteAddr:
		return r.RemoteAddr, true
	case KeyParams:
		return r.Params, r.Params != nil
	case KeyQuery:
		return r.Query, r.Query != nil
	case KeyHeaders:
		return r.Headers, r.Headers != nil
	case KeyBody:
		return r.Body, r.Body != nil
	case KeyLocals:
		return r.Locals, r.Locals != nil
	}
	v, ok := r.Locals[key]
	return v, ok
}

// Values returns the request as a plain map, used as an expression environment.
func (r *Request) Values() map[string]interface{} {
	return map[string]interface{}{
		KeyMethod:     r.Method,
		KeyPath:       r.Path,
		KeyURL:        r.URL,
		KeyRemoteAddr: r.RemoteAddr,
		KeyParams:     r.Params,
		KeyQuery:      r.Query,
		KeyHeaders:    r.Headers,
		KeyBody:       r.Body,
		KeyLocals:     r.Locals,
	}
}

// ResponseWriter performs the actual write of a response.
type ResponseWriter interface {
	WriteResponse(status int, header http.Header, body interface{}) error
}

// Response is the outgoing side of a dispatch. Send may be called once.
// Response 响应消息
type Response struct {
	// Locals carry values between middleware, handler and plugins.
	Locals map[string]interface{}

	header http.Header
	status int
	body   interface{}
	sent   bool
	writer ResponseWriter
}

// NewResponse creates a response writing through w. A nil writer only records the response.
func NewResponse(w ResponseWriter) *Response {
	return &Response{
		Locals: make(map[string]interface{}),
		header: make(http.Header),
		writer: w,
	}
}

// Headers returns the response headers, sent with the response.
func (r *Response) Headers() http.Header {
	if r.header == nil {
		r.header = make(http.Header)
	}
	return r.header
}

// Send writes status and body. It returns ErrAlreadySent on the second call.
func (r *Response) Send(status int, body interface{}) error {
	if r.sent {
		return ErrAlreadySent
	}
	r.sent = true
	r.status = status
	r.body = body
	if r.writer != nil {
		return r.writer.WriteResponse(status, r.Headers(), body)
	}
	return nil
}

// Sent reports whether Send was called.
func (r *Response) Sent() bool {
	return r.sent
}

// Status returns the status written by Send, 0 before.
func (r *Response) Status() int {
	return r.status
}

// Body returns the body written by Send.
func (r *Response) Body() interface{} {
	return r.body
}

// Get returns the response property key. Unknown keys fall back to Locals.
func (r *Response) Get(key string) (interface{}, bool) {
	switch key {
	case KeyStatus:
		return r.status, r.sent
	case KeyBody:
		return r.body, r.sent && r.body != nil
	case KeyHeaders:
		return r.Headers(), true
	case KeyLocals:
		return r.Locals, r.Locals != nil
	}
	v, ok := r.Locals[key]
	return v, ok
}
