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

package route

import (
	"github.com/dancespiele/pyrite-server/api/types"
	"github.com/dancespiele/pyrite-server/utils/maps"
)

type resolveFunc func(req *types.Request, res *types.Response) interface{}

// Resolver builds the argument list of a handler from a request. Every
// parameter descriptor is classified once when the resolver is built.
type Resolver struct {
	coercion  *coercion
	kinds     []types.ParamKind
	resolvers []resolveFunc
}

// Classify returns the kind of p. Without an explicit kind the rules apply in
// order: "request", "response", a Key on any other source is a drilled request
// property, a parameter name owned by a server plugin, else a plain request property.
func Classify(p types.ParamDescriptor, registry types.PluginRegistry) (types.ParamKind, error) {
	if p.Kind != types.ParamAuto {
		if p.Kind == types.ParamPlugin {
			if registry == nil {
				return 0, types.NewConfigError("", "parameter %s: no plugin registry", p.Source)
			}
			if _, ok := registry.GetByParamName(p.Source); !ok {
				return 0, types.NewConfigError("", "parameter %s: no server plugin provides it", p.Source)
			}
		}
		if p.Kind != types.ParamRequest && p.Kind != types.ParamResponse && p.Source == "" {
			return 0, types.NewConfigError("", "parameter of kind %s has no source", p.Kind)
		}
		return p.Kind, nil
	}
	switch {
	case p.Source == "":
		return 0, types.NewConfigError("", "parameter has no source")
	case p.Source == types.SourceRequest:
		return types.ParamRequest, nil
	case p.Source == types.SourceResponse:
		return types.ParamResponse, nil
	case p.Key != "":
		return types.ParamProperty, nil
	}
	if registry != nil {
		if _, ok := registry.GetByParamName(p.Source); ok {
			return types.ParamPlugin, nil
		}
	}
	return types.ParamProperty, nil
}

// PluginParams returns the plugin parameter names the method refers to, in
// declaration order and without duplicates.
func PluginParams(method *types.MethodDescriptor, registry types.PluginRegistry) ([]string, error) {
	var names []string
	seen := make(map[string]bool)
	for _, p := range method.Params {
		kind, err := Classify(p, registry)
		if err != nil {
			return nil, err
		}
		if kind == types.ParamPlugin && !seen[p.Source] {
			seen[p.Source] = true
			names = append(names, p.Source)
		}
	}
	return names, nil
}

// NewResolver compiles the parameters of method. callbacks must hold the
// callback of every plugin parameter. Coercers apply to the parameters of the
// method path only, the controller prefix keeps its raw strings.
func NewResolver(route string, method *types.MethodDescriptor, registry types.PluginRegistry, callbacks map[string]types.Callback) (*Resolver, error) {
	c, err := newCoercion(route, method.RoutePath(), method.Types)
	if err != nil {
		return nil, err
	}
	r := &Resolver{coercion: c}
	for i, p := range method.Params {
		kind, err := Classify(p, registry)
		if err != nil {
			if ce, ok := err.(*types.ConfigError); ok {
				ce.Route = route
			}
			return nil, err
		}
		fn, err := compile(p, kind, callbacks)
		if err != nil {
			return nil, types.NewConfigError(route, "parameter %d: %s", i, err.Error())
		}
		r.kinds = append(r.kinds, kind)
		r.resolvers = append(r.resolvers, fn)
	}
	return r, nil
}

func compile(p types.ParamDescriptor, kind types.ParamKind, callbacks map[string]types.Callback) (resolveFunc, error) {
	key := p.Key
	switch kind {
	case types.ParamRequest:
		return func(req *types.Request, res *types.Response) interface{} {
			return drill(req, key)
		}, nil
	case types.ParamResponse:
		return func(req *types.Request, res *types.Response) interface{} {
			return drill(res, key)
		}, nil
	case types.ParamPlugin:
		cb, ok := callbacks[p.Source]
		if !ok {
			return nil, types.NewConfigError("", "no callback loaded for plugin parameter %s", p.Source)
		}
		return func(req *types.Request, res *types.Response) interface{} {
			return cb.Bind(req, res)
		}, nil
	case types.ParamProperty:
		source := p.Source
		return func(req *types.Request, res *types.Response) interface{} {
			v, _ := req.Get(source)
			if key == "" {
				return v
			}
			return maps.GetValue(v, key)
		}, nil
	}
	return nil, types.NewConfigError("", "unknown parameter kind %s", kind)
}

// drill keeps the typed request and response when the path is empty.
func drill(v maps.Getter, key string) interface{} {
	if key == "" {
		return v
	}
	return maps.GetValue(v, key)
}

// Kinds returns the classified kind of each parameter.
func (r *Resolver) Kinds() []types.ParamKind {
	return append([]types.ParamKind(nil), r.kinds...)
}

// Resolve coerces the path parameters and returns the handler arguments.
// Without parameter descriptors the arguments are (req, res) and no coercion is done.
func (r *Resolver) Resolve(req *types.Request, res *types.Response) ([]interface{}, error) {
	if len(r.resolvers) == 0 {
		return []interface{}{req, res}, nil
	}
	if err := r.coercion.apply(req); err != nil {
		return nil, err
	}
	args := make([]interface{}, len(r.resolvers))
	for i, resolve := range r.resolvers {
		args[i] = resolve(req, res)
	}
	return args, nil
}
