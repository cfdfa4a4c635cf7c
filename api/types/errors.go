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
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"runtime/debug"
)

const (
	// ErrorField is the body field carrying the error of a failed dispatch.
	ErrorField = "error"
	// StatusField is the field carrying the status of a structured application error.
	StatusField = "status"
)

// ConfigError is returned at registration time when a route can not be built.
// It is never recovered at request time.
type ConfigError struct {
	// Route identifies the route, "GET /users/:id", may be empty.
	Route  string
	Reason string
	Err    error
}

// NewConfigError creates a ConfigError with a formatted reason.
func NewConfigError(route string, format string, args ...interface{}) *ConfigError {
	return &ConfigError{Route: route, Reason: fmt.Sprintf(format, args...)}
}

func (e *ConfigError) Error() string {
	msg := e.Reason
	if e.Route != "" {
		msg = e.Route + ": " + msg
	}
	if e.Err != nil {
		msg = msg + ": " + e.Err.Error()
	}
	return msg
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

// IsConfigError reports whether err is or wraps a ConfigError.
func IsConfigError(err error) bool {
	var target *ConfigError
	return errors.As(err, &target)
}

// StatusCoder is implemented by errors that carry a response status.
type StatusCoder interface {
	StatusCode() int
}

// ErrorBodier is implemented by errors that carry the value of the "error" body field.
type ErrorBodier interface {
	ErrorBody() interface{}
}

// ApplicationError is a handler result that describes a failure with its own status.
// It is sent as {"error": ErrorBody()} with StatusCode().
type ApplicationError interface {
	StatusCoder
	ErrorBodier
}

// StatusError is an error with a response status and an optional body.
// It can be returned as an error or as the handler result.
type StatusError struct {
	Status int
	// Body is the "error" field, defaulting to the status text.
	Body interface{}
	Err  error
}

// NewStatusError creates a StatusError with body.
func NewStatusError(status int, body interface{}) *StatusError {
	return &StatusError{Status: status, Body: body}
}

func (e StatusError) Error() string {
	switch b := e.Body.(type) {
	case nil:
	case string:
		return b
	case error:
		return b.Error()
	default:
		return fmt.Sprint(b)
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return http.StatusText(e.StatusCode())
}

func (e StatusError) Unwrap() error {
	return e.Err
}

// StatusCode returns Status, 500 when it is not a valid status.
func (e StatusError) StatusCode() int {
	if e.Status < 100 || e.Status > 999 {
		return http.StatusInternalServerError
	}
	return e.Status
}

// ErrorBody returns Body, or the error message when Body is nil.
func (e StatusError) ErrorBody() interface{} {
	if e.Body != nil {
		return e.Body
	}
	return e.Error()
}

// AsApplicationError reports whether the handler result v is a structured
// application error and returns its status and "error" field. Besides
// ApplicationError values a map with a non-empty "error" and a non-zero
// "status" is accepted.
func AsApplicationError(v interface{}) (int, interface{}, bool) {
	switch t := v.(type) {
	case nil:
		return 0, nil, false
	case ApplicationError:
		//类型化的nil指针不是错误
		if rv := reflect.ValueOf(t); rv.Kind() == reflect.Ptr && rv.IsNil() {
			return 0, nil, false
		}
		return t.StatusCode(), t.ErrorBody(), true
	case map[string]interface{}:
		body, ok := t[ErrorField]
		if !ok || isEmpty(body) {
			return 0, nil, false
		}
		status := toStatus(t[StatusField])
		if status == 0 {
			return 0, nil, false
		}
		return status, body, true
	}
	return 0, nil, false
}

// PanicError is a recovered panic of a handler or a transform.
type PanicError struct {
	Value interface{}
	Stack []byte
}

// NewPanicError captures the current stack for the recovered value v.
func NewPanicError(v interface{}) *PanicError {
	return &PanicError{Value: v, Stack: debug.Stack()}
}

func (e *PanicError) Error() string {
	if err, ok := e.Value.(error); ok {
		return err.Error()
	}
	return fmt.Sprint(e.Value)
}

func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// ErrorResponse maps a failure to its status and body. The status comes from a
// StatusCoder in the chain, else 500. The body is always {"error": ...}.
func ErrorResponse(err error) (int, map[string]interface{}) {
	status := http.StatusInternalServerError
	var field interface{} = err.Error()
	var coder StatusCoder
	if errors.As(err, &coder) {
		status = coder.StatusCode()
	}
	var bodier ErrorBodier
	if errors.As(err, &bodier) {
		if b := bodier.ErrorBody(); b != nil {
			field = b
		}
	}
	return status, map[string]interface{}{ErrorField: field}
}

func isEmpty(v interface{}) bool {
	switch t := v.(type) {
	case nil:
		return true
	case string:
		return t == ""
	case bool:
		return !t
	}
	return false
}

func toStatus(v interface{}) int {
	switch t := v.(type) {
	case int:
		return t
	case int32:
		return int(t)
	case int64:
		return int(t)
	case float64:
		return int(t)
	case float32:
		return int(t)
	case uint:
		return int(t)
	}
	return 0
}
