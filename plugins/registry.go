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

// Package plugins holds the plugins of one host server and answers the
// lookups made by route dispatchers: plugins of a kind, the server plugin that
// owns a handler parameter name, and the ordered middleware gate.
//
// Package plugins 插件注册表，为路由分发器提供插件查询和中间件执行。
package plugins

import (
	"errors"
	"fmt"
	"sync"

	"github.com/dancespiele/pyrite-server/api/types"
)

// ErrStarted is returned by Register after Run.
var ErrStarted = errors.New("plugin registry already started")

// Registry is the plugin registry of one host server. Plugins are registered
// before the server starts and are read only afterwards.
type Registry struct {
	server      types.Server
	plugins     []types.Plugin
	names       map[string]types.Plugin
	params      map[string]types.ServerPlugin
	middlewares []types.MiddlewarePlugin
	started     bool
	lock        sync.RWMutex
}

var _ types.PluginRegistry = (*Registry)(nil)

// NewRegistry creates a registry for server and registers plugins in order.
func NewRegistry(server types.Server, plugins ...types.Plugin) (*Registry, error) {
	r := &Registry{
		server: server,
		names:  make(map[string]types.Plugin),
		params: make(map[string]types.ServerPlugin),
	}
	for _, p := range plugins {
		if err := r.Register(p); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds p. Plugin names and server parameter names must be unique.
func (r *Registry) Register(p types.Plugin) error {
	if p == nil {
		return types.NewConfigError("", "nil plugin")
	}
	r.lock.Lock()
	defer r.lock.Unlock()
	if r.started {
		return ErrStarted
	}
	if _, ok := r.names[p.Name()]; ok {
		return types.NewConfigError("", "the plugin already exists. name=%s", p.Name())
	}
	switch p.Kind() {
	case types.PluginServer:
		sp, ok := p.(types.ServerPlugin)
		if !ok {
			return types.NewConfigError("", "plugin %s of kind %s does not implement ServerPlugin", p.Name(), p.Kind())
		}
		param := sp.ParamName()
		if param == "" {
			return types.NewConfigError("", "server plugin %s has no parameter name", p.Name())
		}
		if owner, ok := r.params[param]; ok {
			return types.NewConfigError("", "parameter %s of plugin %s is already provided by %s", param, p.Name(), owner.Name())
		}
		r.params[param] = sp
	case types.PluginMiddleware:
		mp, ok := p.(types.MiddlewarePlugin)
		if !ok {
			return types.NewConfigError("", "plugin %s of kind %s does not implement MiddlewarePlugin", p.Name(), p.Kind())
		}
		r.middlewares = append(r.middlewares, mp)
	default:
		return types.NewConfigError("", "plugin %s has unknown kind %q", p.Name(), p.Kind())
	}
	r.names[p.Name()] = p
	r.plugins = append(r.plugins, p)
	return nil
}

// Get returns the plugin registered as name.
func (r *Registry) Get(name string) (types.Plugin, bool) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	p, ok := r.names[name]
	return p, ok
}

// Len returns the number of registered plugins.
func (r *Registry) Len() int {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return len(r.plugins)
}

// GetByKind returns a snapshot of the plugins of kind in registration order.
func (r *Registry) GetByKind(kind types.PluginKind) []types.Plugin {
	r.lock.RLock()
	defer r.lock.RUnlock()
	var result []types.Plugin
	for _, p := range r.plugins {
		if p.Kind() == kind {
			result = append(result, p)
		}
	}
	return result
}

// GetByParamName returns the server plugin that provides the handler parameter name.
func (r *Registry) GetByParamName(name string) (types.ServerPlugin, bool) {
	r.lock.RLock()
	defer r.lock.RUnlock()
	p, ok := r.params[name]
	return p, ok
}

// RunMiddlewares runs the middleware plugins in registration order and
// returns true as soon as one reports that it handled the request. Later
// plugins are not called. With no middleware plugin it returns false.
func (r *Registry) RunMiddlewares(req *types.Request, res *types.Response, route types.Route) bool {
	r.lock.RLock()
	middlewares := r.middlewares
	r.lock.RUnlock()
	for _, m := range middlewares {
		if m.Run(req, res, route) {
			return true
		}
	}
	return false
}

// Load calls Load on the server plugin owning each of paramNames, once per
// plugin, and returns the callbacks keyed by parameter name.
func (r *Registry) Load(target *types.Controller, method *types.MethodDescriptor, paramNames []string) (map[string]types.Callback, error) {
	callbacks := make(map[string]types.Callback, len(paramNames))
	for _, name := range paramNames {
		if _, ok := callbacks[name]; ok {
			continue
		}
		p, ok := r.GetByParamName(name)
		if !ok {
			return nil, types.NewConfigError("", "no server plugin provides parameter %s", name)
		}
		cb, err := p.Load(target, method)
		if err != nil {
			return nil, &types.ConfigError{Reason: fmt.Sprintf("plugin %s failed to load", p.Name()), Err: err}
		}
		if cb == nil {
			return nil, types.NewConfigError("", "plugin %s returned no callback", p.Name())
		}
		callbacks[name] = cb
	}
	return callbacks, nil
}

// Run calls Run on every server plugin in registration order. It is called
// once when the host server starts; a second call does nothing.
func (r *Registry) Run() error {
	r.lock.Lock()
	if r.started {
		r.lock.Unlock()
		return nil
	}
	r.started = true
	plugins := r.plugins
	r.lock.Unlock()

	for _, p := range plugins {
		sp, ok := p.(types.ServerPlugin)
		if !ok || p.Kind() != types.PluginServer {
			continue
		}
		if err := sp.Run(r.server); err != nil {
			return fmt.Errorf("run plugin %s: %w", p.Name(), err)
		}
	}
	return nil
}

// Started reports whether Run was called.
func (r *Registry) Started() bool {
	r.lock.RLock()
	defer r.lock.RUnlock()
	return r.started
}
