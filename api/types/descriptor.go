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
	"net/http"
	"strings"
)

const (
	// PathParamMarker prefixes a named path segment, e.g. /users/:id
	PathParamMarker = ':'
	// CatchAllMarker prefixes a catch-all path segment, e.g. /files/*filepath
	CatchAllMarker = '*'
	// PathSeparator separates path segments.
	PathSeparator = "/"
	// KeySeparator separates the segments of a nested parameter key.
	KeySeparator = "."
)

const (
	// SourceRequest selects the request object.
	SourceRequest = "request"
	// SourceResponse selects the response object.
	SourceResponse = "response"
)

// Middleware is a pre-request step. Returning false stops the chain; the
// middleware is then responsible for the response.
// Middleware 前置处理函数，返回false不执行后续处理
type Middleware func(req *Request, res *Response) bool

// Transform is an "after" step applied to the handler result.
type Transform func(result interface{}) (interface{}, error)

// Coercer converts a raw path parameter into a typed value.
type Coercer func(raw string) (interface{}, error)

// ParamKind is the closed set of parameter sources.
type ParamKind int

const (
	// ParamAuto classifies the parameter from Source at dispatcher construction.
	ParamAuto ParamKind = iota
	// ParamRequest resolves to the request, drilled by Key.
	ParamRequest
	// ParamResponse resolves to the response, drilled by Key.
	ParamResponse
	// ParamPlugin resolves to the bound callback of the server plugin owning Source.
	ParamPlugin
	// ParamProperty resolves to request[Source], drilled by Key.
	ParamProperty
)

var paramKindNames = map[ParamKind]string{
	ParamAuto:     "auto",
	ParamRequest:  "request",
	ParamResponse: "response",
	ParamPlugin:   "plugin",
	ParamProperty: "property",
}

func (k ParamKind) String() string {
	if s, ok := paramKindNames[k]; ok {
		return s
	}
	return "unknown"
}

// ParseParamKind returns the kind named s. An empty string is ParamAuto.
func ParseParamKind(s string) (ParamKind, bool) {
	if s == "" {
		return ParamAuto, true
	}
	for k, name := range paramKindNames {
		if strings.EqualFold(name, s) {
			return k, true
		}
	}
	return ParamAuto, false
}

// ParamDescriptor declares where one handler argument comes from.
type ParamDescriptor struct {
	// Source is "request", "response", a plugin parameter name or a request property.
	Source string
	// Key is an optional dot separated path drilled into the selected object.
	Key string
	// Kind forces the classification of Source. ParamAuto keeps the default rules.
	Kind ParamKind
}

// Param is a shorthand for an auto classified ParamDescriptor.
func Param(source string, key ...string) ParamDescriptor {
	p := ParamDescriptor{Source: source}
	if len(key) > 0 {
		p.Key = key[0]
	}
	return p
}

// MethodDescriptor is the declarative description of one handler.
// MethodDescriptor 处理函数描述
type MethodDescriptor struct {
	// Name is the handler name, used for the default path.
	Name string
	// Alias defaults to Name.
	Alias string
	// Action is the http verb: get, post, put, patch, delete, head, options.
	Action string
	// Path is the route path, defaulting to "/"+Name. Named segments start with ':'.
	Path string
	// Params declares the handler arguments in order. Empty means (req, res).
	Params []ParamDescriptor
	// Types are the path parameter coercers, applied positionally.
	Types []Coercer
	// Before runs after the controller BeforeAll middleware.
	Before []Middleware
	// After transforms the handler result from left to right.
	After []Transform
	// Status is the success status, 0 means 200.
	Status int
	// Handler is the function to invoke.
	Handler interface{}
}

// RoutePath returns Path, or "/"+Name when Path is empty.
func (m *MethodDescriptor) RoutePath() string {
	if m.Path != "" {
		return m.Path
	}
	return PathSeparator + m.Name
}

// DisplayName returns Alias, or Name when Alias is empty.
func (m *MethodDescriptor) DisplayName() string {
	if m.Alias != "" {
		return m.Alias
	}
	return m.Name
}

// HTTPMethod returns the upper-case verb, GET when Action is empty.
func (m *MethodDescriptor) HTTPMethod() string {
	if m.Action == "" {
		return http.MethodGet
	}
	return strings.ToUpper(m.Action)
}

// SuccessStatus returns Status, or 200 when it is not set.
func (m *MethodDescriptor) SuccessStatus() int {
	if m.Status > 0 {
		return m.Status
	}
	return http.StatusOK
}

// PathParams returns the names of the path parameters of RoutePath in template order.
func (m *MethodDescriptor) PathParams() []string {
	return PathParamNames(m.RoutePath())
}

// PathParamNames splits a path template and returns its named segments in order.
func PathParamNames(template string) []string {
	var names []string
	for _, segment := range strings.Split(template, PathSeparator) {
		if segment == "" {
			continue
		}
		if segment[0] == PathParamMarker || segment[0] == CatchAllMarker {
			names = append(names, segment[1:])
		}
	}
	return names
}

// Controller is the target that owns a group of handlers.
// Controller 控制器
type Controller struct {
	// Name identifies the controller in logs and in the route DSL.
	Name string
	// Path is the mount prefix of every method.
	Path string
	// BeforeAll runs before the Before middleware of every method.
	BeforeAll []Middleware
	// Instance is the controller object, handed to server plugins in Load.
	Instance interface{}
	// Methods are the handlers of the controller.
	Methods []*MethodDescriptor
}

// FullPath joins the controller path and the method path.
func (c *Controller) FullPath(m *MethodDescriptor) string {
	var prefix string
	if c != nil {
		prefix = strings.TrimSuffix(c.Path, PathSeparator)
	}
	full := prefix + m.RoutePath()
	if full == "" {
		return PathSeparator
	}
	if !strings.HasPrefix(full, PathSeparator) {
		full = PathSeparator + full
	}
	return full
}
