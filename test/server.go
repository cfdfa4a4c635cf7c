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

// Package test provides an in-memory host server and helpers for dispatch tests.
package test

import (
	"net/http"
	"sync"

	"github.com/dancespiele/pyrite-server/api/types"
)

// Handle is a raw handler registered through Server.Handle.
type Handle struct {
	Method  string
	Path    string
	Handler http.Handler
}

// Server is an in-memory types.Server. It records the raw handlers that
// plugins register and runs shutdown hooks on Shutdown.
type Server struct {
	config   types.Config
	registry types.PluginRegistry

	lock     sync.Mutex
	handles  []Handle
	shutdown []func()
}

var _ types.Server = (*Server)(nil)

// NewServer creates a server with config. Use SetPlugins to attach a registry.
func NewServer(config types.Config) *Server {
	return &Server{config: config}
}

// SetPlugins attaches the plugin registry returned by Plugins.
func (s *Server) SetPlugins(registry types.PluginRegistry) {
	s.registry = registry
}

func (s *Server) Handle(method, path string, handler http.Handler) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.handles = append(s.handles, Handle{Method: method, Path: path, Handler: handler})
}

func (s *Server) Config() types.Config {
	return s.config
}

func (s *Server) Plugins() types.PluginRegistry {
	return s.registry
}

func (s *Server) OnShutdown(fn func()) {
	s.lock.Lock()
	defer s.lock.Unlock()
	s.shutdown = append(s.shutdown, fn)
}

// Handles returns the raw handlers registered so far.
func (s *Server) Handles() []Handle {
	s.lock.Lock()
	defer s.lock.Unlock()
	return append([]Handle(nil), s.handles...)
}

// Shutdown runs the shutdown hooks in reverse registration order.
func (s *Server) Shutdown() {
	s.lock.Lock()
	hooks := s.shutdown
	s.shutdown = nil
	s.lock.Unlock()
	for i := len(hooks) - 1; i >= 0; i-- {
		hooks[i]()
	}
}
