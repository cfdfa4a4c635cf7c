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

// Package processor holds the named "before" middleware used by the route DSL.
//
// Package processor 内置前置处理器，路由dsl通过name调用对应的处理器
package processor

import (
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/dancespiele/pyrite-server/api/types"
	"github.com/dancespiele/pyrite-server/utils/el"
)

// ExprPrefix marks a guard expression, "expr:headers['X-Role'] == 'admin'".
// The request values are the environment; a false result answers 403.
const ExprPrefix = "expr:"

// Builtins 内置处理器
var Builtins = builtins{}

func init() {
	Builtins.RegisterAll(map[string]types.Middleware{
		// noCache 禁止客户端缓存
		"noCache": func(req *types.Request, res *types.Response) bool {
			res.Headers().Set("Cache-Control", "no-store")
			return true
		},
		// cors 允许跨域访问
		"cors": func(req *types.Request, res *types.Response) bool {
			origin := req.Header("Origin")
			if origin == "" {
				origin = "*"
			}
			res.Headers().Set("Access-Control-Allow-Origin", origin)
			res.Headers().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
			return true
		},
		// requireBody 请求体不能为空
		"requireBody": func(req *types.Request, res *types.Response) bool {
			if req.Body == nil {
				_ = res.Send(http.StatusBadRequest, map[string]interface{}{types.ErrorField: "request body is required"})
				return false
			}
			return true
		},
	})
}

type builtins struct {
	processors map[string]types.Middleware
	lock       sync.RWMutex
}

// Register 注册内置处理器
func (b *builtins) Register(name string, processor types.Middleware) {
	b.lock.Lock()
	defer b.lock.Unlock()
	if b.processors == nil {
		b.processors = make(map[string]types.Middleware)
	}
	b.processors[name] = processor
}

// RegisterAll 注册内置处理器
func (b *builtins) RegisterAll(processors map[string]types.Middleware) {
	for k, v := range processors {
		b.Register(k, v)
	}
}

// Unregister 删除内置处理器
func (b *builtins) Unregister(names ...string) {
	b.lock.Lock()
	defer b.lock.Unlock()
	for _, name := range names {
		delete(b.processors, name)
	}
}

// Get 获取内置处理器
func (b *builtins) Get(name string) (types.Middleware, bool) {
	b.lock.RLock()
	defer b.lock.RUnlock()
	p, ok := b.processors[name]
	return p, ok
}

// Parse returns the processor named name, or compiles an "expr:" guard.
func (b *builtins) Parse(name string) (types.Middleware, error) {
	name = strings.TrimSpace(name)
	if strings.HasPrefix(name, ExprPrefix) {
		program, err := el.Compile(strings.TrimPrefix(name, ExprPrefix))
		if err != nil {
			return nil, fmt.Errorf("processor %q: %w", name, err)
		}
		return func(req *types.Request, res *types.Response) bool {
			ok, err := program.RunBool(req.Values())
			if err != nil {
				_ = res.Send(http.StatusInternalServerError, map[string]interface{}{types.ErrorField: err.Error()})
				return false
			}
			if !ok {
				_ = res.Send(http.StatusForbidden, map[string]interface{}{types.ErrorField: "forbidden"})
			}
			return ok
		}, nil
	}
	if p, ok := b.Get(name); ok {
		return p, nil
	}
	return nil, fmt.Errorf("processor not found. name=%s", name)
}
