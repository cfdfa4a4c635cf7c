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

// Package dsl describes routes in yaml or json and builds controller
// descriptors from them. Handlers are bound by "Controller.method" name.
//
// 路由DSL示例：
//
//	controllers:
//	  - name: Users
//	    path: /users
//	    beforeAll: [noCache]
//	    methods:
//	      - name: get
//	        path: /:id
//	        types: [int]
//	        params: [params.id]
//	        after: [wrapData]
package dsl

import (
	"fmt"
	"os"
	"strings"

	"github.com/dancespiele/pyrite-server/api/types"
	"github.com/dancespiele/pyrite-server/builtin/coercer"
	"github.com/dancespiele/pyrite-server/builtin/processor"
	"github.com/dancespiele/pyrite-server/builtin/transform"
	"github.com/dancespiele/pyrite-server/utils/maps"
	"gopkg.in/yaml.v3"
)

// Handlers maps "Controller.method" to a handler function.
type Handlers map[string]interface{}

// RoutesDsl 路由定义
type RoutesDsl struct {
	Controllers []ControllerDsl `json:"controllers" yaml:"controllers"`
}

// ControllerDsl 控制器定义
type ControllerDsl struct {
	Name string `json:"name" yaml:"name"`
	Path string `json:"path" yaml:"path"`
	// BeforeAll are processor names or "expr:" guards.
	BeforeAll []string    `json:"beforeAll" yaml:"beforeAll"`
	Methods   []MethodDsl `json:"methods" yaml:"methods"`
}

// MethodDsl 处理函数定义
type MethodDsl struct {
	Name   string `json:"name" yaml:"name"`
	Alias  string `json:"alias" yaml:"alias"`
	Action string `json:"action" yaml:"action"`
	Path   string `json:"path" yaml:"path"`
	Status int    `json:"status" yaml:"status"`
	// Handler overrides the "Controller.method" handler key.
	Handler string `json:"handler" yaml:"handler"`
	// Params are "source", "source.key.path" or {source, key, kind} objects.
	Params []interface{} `json:"params" yaml:"params"`
	// Types are coercer names or "expr:" expressions, "-" leaves a parameter as a string.
	Types []string `json:"types" yaml:"types"`
	// Before are processor names or "expr:" guards.
	Before []string `json:"before" yaml:"before"`
	// After are transform names, "expr:" or "js:" transforms.
	After []string `json:"after" yaml:"after"`
}

// ParamDsl 参数定义
type ParamDsl struct {
	Source string `json:"source" yaml:"source"`
	Key    string `json:"key" yaml:"key"`
	Kind   string `json:"kind" yaml:"kind"`
}

// Parse decodes a yaml or json route definition.
func Parse(data []byte) (RoutesDsl, error) {
	var def RoutesDsl
	var raw interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return def, fmt.Errorf("parse routes: %w", err)
	}
	if raw == nil {
		return def, nil
	}
	if err := maps.Map2Struct(raw, &def); err != nil {
		return def, fmt.Errorf("parse routes: %w", err)
	}
	return def, nil
}

// Load reads and parses the route definition file.
func Load(file string) (RoutesDsl, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return RoutesDsl{}, err
	}
	return Parse(data)
}

// HandlerKey returns the key of the handler of m in Handlers.
func (c ControllerDsl) HandlerKey(m MethodDsl) string {
	if m.Handler != "" {
		return m.Handler
	}
	return c.Name + "." + m.Name
}

// Routes returns the "ACTION /full/path" lines of every method.
func (d RoutesDsl) Routes() []string {
	var lines []string
	for _, c := range d.Controllers {
		target := &types.Controller{Name: c.Name, Path: c.Path}
		for _, m := range c.Methods {
			md := &types.MethodDescriptor{Name: m.Name, Action: m.Action, Path: m.Path}
			lines = append(lines, md.HTTPMethod()+" "+target.FullPath(md))
		}
	}
	return lines
}

// Build creates the controllers, resolving handlers and builtin names.
func (d RoutesDsl) Build(handlers Handlers, config types.Config) ([]*types.Controller, error) {
	var targets []*types.Controller
	for _, c := range d.Controllers {
		target, err := c.build(handlers, config)
		if err != nil {
			return nil, err
		}
		targets = append(targets, target)
	}
	return targets, nil
}

func (c ControllerDsl) build(handlers Handlers, config types.Config) (*types.Controller, error) {
	target := &types.Controller{Name: c.Name, Path: c.Path}
	for _, name := range c.BeforeAll {
		p, err := processor.Builtins.Parse(name)
		if err != nil {
			return nil, types.NewConfigError(c.Name, "beforeAll: %v", err)
		}
		target.BeforeAll = append(target.BeforeAll, p)
	}
	for _, m := range c.Methods {
		md, err := c.buildMethod(target, m, handlers, config)
		if err != nil {
			return nil, err
		}
		target.Methods = append(target.Methods, md)
	}
	return target, nil
}

func (c ControllerDsl) buildMethod(target *types.Controller, m MethodDsl, handlers Handlers, config types.Config) (*types.MethodDescriptor, error) {
	md := &types.MethodDescriptor{
		Name:   m.Name,
		Alias:  m.Alias,
		Action: m.Action,
		Path:   m.Path,
		Status: m.Status,
	}
	routeName := md.HTTPMethod() + " " + target.FullPath(md)
	key := c.HandlerKey(m)
	handler, ok := handlers[key]
	if !ok || handler == nil {
		return nil, types.NewConfigError(routeName, "handler not found. name=%s", key)
	}
	md.Handler = handler
	for i, raw := range m.Params {
		p, err := parseParam(raw)
		if err != nil {
			return nil, types.NewConfigError(routeName, "param %d: %v", i, err)
		}
		md.Params = append(md.Params, p)
	}
	for _, name := range m.Types {
		cv, err := coercer.Builtins.Parse(name)
		if err != nil {
			return nil, types.NewConfigError(routeName, "types: %v", err)
		}
		md.Types = append(md.Types, cv)
	}
	for _, name := range m.Before {
		p, err := processor.Builtins.Parse(name)
		if err != nil {
			return nil, types.NewConfigError(routeName, "before: %v", err)
		}
		md.Before = append(md.Before, p)
	}
	for _, name := range m.After {
		t, err := transform.Builtins.Parse(config, name)
		if err != nil {
			return nil, types.NewConfigError(routeName, "after: %v", err)
		}
		md.After = append(md.After, t)
	}
	return md, nil
}

// parseParam accepts "source", "source.key.path" or a ParamDsl object.
func parseParam(raw interface{}) (types.ParamDescriptor, error) {
	var def ParamDsl
	switch v := raw.(type) {
	case string:
		def.Source, def.Key, _ = strings.Cut(v, types.KeySeparator)
	default:
		if err := maps.Map2Struct(v, &def); err != nil {
			return types.ParamDescriptor{}, err
		}
	}
	if def.Source == "" {
		return types.ParamDescriptor{}, fmt.Errorf("empty source")
	}
	kind, ok := types.ParseParamKind(def.Kind)
	if !ok {
		return types.ParamDescriptor{}, fmt.Errorf("unknown param kind %q", def.Kind)
	}
	return types.ParamDescriptor{Source: def.Source, Key: def.Key, Kind: kind}, nil
}
