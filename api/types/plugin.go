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

import "net/http"

// PluginKind is the capability of a plugin.
// PluginKind 插件类型
type PluginKind string

const (
	// PluginServer plugins are loaded once per route and contribute a callback
	// bound to a named handler parameter. They also run once at server startup.
	PluginServer PluginKind = "server"
	// PluginMiddleware plugins run before every dispatch and may short-circuit it.
	PluginMiddleware PluginKind = "middleware"
)

// Plugin is the base interface of every plugin.
type Plugin interface {
	// Name identifies the plugin inside a registry.
	Name() string
	// Kind returns the plugin capability.
	Kind() PluginKind
}

// Callback is produced by a server plugin for one route. The dispatcher binds
// the current request and response before handing it to the handler.
type Callback func(req *Request, res *Response, args ...interface{}) (interface{}, error)

// BoundCallback is a Callback with the request and response already bound.
// Handlers declare a parameter of this type (or of the identical unnamed func type).
type BoundCallback func(args ...interface{}) (interface{}, error)

// Bind returns the callback with req and res as its implicit first arguments.
func (c Callback) Bind(req *Request, res *Response) BoundCallback {
	return func(args ...interface{}) (interface{}, error) {
		return c(req, res, args...)
	}
}

// ServerPlugin owns a handler parameter name.
// ServerPlugin 服务端插件，拥有一个处理函数参数名
type ServerPlugin interface {
	Plugin
	// ParamName is the handler parameter this plugin provides.
	ParamName() string
	// Load is called once per route at registration time.
	Load(target *Controller, method *MethodDescriptor) (Callback, error)
	// Run is called once per process when the host server starts.
	Run(server Server) error
}

// MiddlewarePlugin runs before every dispatch.
// MiddlewarePlugin 中间件插件，每次请求分发之前执行
type MiddlewarePlugin interface {
	Plugin
	// Run returns true when the plugin handled the request. The dispatcher then
	// stops and writes nothing: the plugin owns the response.
	Run(req *Request, res *Response, route Route) bool
}

// PluginRegistry answers plugin lookups for dispatchers.
type PluginRegistry interface {
	// GetByKind returns the plugins of kind in registration order.
	GetByKind(kind PluginKind) []Plugin
	// GetByParamName returns the server plugin that owns name.
	GetByParamName(name string) (ServerPlugin, bool)
	// RunMiddlewares runs middleware plugins in order and returns true on the first that handled the request.
	RunMiddlewares(req *Request, res *Response, route Route) bool
	// Load builds the callbacks of the named server plugins for one route.
	Load(target *Controller, method *MethodDescriptor, paramNames []string) (map[string]Callback, error)
}

// Route is the read-only view of a dispatcher given to plugins and aspects.
type Route interface {
	// Controller is the target the handler belongs to.
	Controller() *Controller
	// Method is the descriptor the dispatcher was built from.
	Method() *MethodDescriptor
	// Action is the upper-case HTTP verb.
	Action() string
	// FullPath is the controller path joined with the method path.
	FullPath() string
}

// Server is the host server that routes are registered on.
// Server 宿主服务
type Server interface {
	// Handle registers a raw http handler, used by server plugins in Run.
	Handle(method, path string, handler http.Handler)
	// Config returns the dispatch configuration.
	Config() Config
	// Plugins returns the plugin registry, nil when no plugin is registered.
	Plugins() PluginRegistry
	// OnShutdown registers fn to be called when the server stops.
	OnShutdown(fn func())
}
