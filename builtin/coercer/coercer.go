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

// Package coercer holds the named path parameter coercers used by the route DSL.
//
// Package coercer 内置路径参数类型转换器，路由dsl通过name引用。
package coercer

import (
	"fmt"
	"strings"
	"sync"

	"github.com/dancespiele/pyrite-server/api/types"
	"github.com/dancespiele/pyrite-server/utils/cast"
	"github.com/dancespiele/pyrite-server/utils/el"
	"github.com/gofrs/uuid/v5"
)

// ExprPrefix marks an expression coercer, "expr:value * 100". The raw string is bound to value.
const ExprPrefix = "expr:"

// Builtins 内置类型转换器
var Builtins = builtins{}

func init() {
	Builtins.RegisterAll(map[string]types.Coercer{
		"int": func(raw string) (interface{}, error) {
			return cast.ToIntE(raw)
		},
		"int64": func(raw string) (interface{}, error) {
			return cast.ToInt64E(raw)
		},
		"float": func(raw string) (interface{}, error) {
			return cast.ToFloat64E(raw)
		},
		"bool": func(raw string) (interface{}, error) {
			return cast.ToBoolE(raw)
		},
		"duration": func(raw string) (interface{}, error) {
			return cast.ToDurationE(raw)
		},
		"string": func(raw string) (interface{}, error) {
			return raw, nil
		},
		"uuid": func(raw string) (interface{}, error) {
			return uuid.FromString(raw)
		},
	})
}

type builtins struct {
	coercers map[string]types.Coercer
	lock     sync.RWMutex
}

// Register 注册类型转换器
func (b *builtins) Register(name string, coercer types.Coercer) {
	b.lock.Lock()
	defer b.lock.Unlock()
	if b.coercers == nil {
		b.coercers = make(map[string]types.Coercer)
	}
	b.coercers[name] = coercer
}

// RegisterAll 注册多个类型转换器
func (b *builtins) RegisterAll(coercers map[string]types.Coercer) {
	for k, v := range coercers {
		b.Register(k, v)
	}
}

// Unregister 删除类型转换器
func (b *builtins) Unregister(names ...string) {
	b.lock.Lock()
	defer b.lock.Unlock()
	for _, name := range names {
		delete(b.coercers, name)
	}
}

// Get 获取类型转换器
func (b *builtins) Get(name string) (types.Coercer, bool) {
	b.lock.RLock()
	defer b.lock.RUnlock()
	c, ok := b.coercers[name]
	return c, ok
}

// Parse returns the coercer named name, or compiles an "expr:" coercer.
// An empty name or "-" is a nil coercer that leaves the parameter as a string.
func (b *builtins) Parse(name string) (types.Coercer, error) {
	name = strings.TrimSpace(name)
	if name == "" || name == "-" {
		return nil, nil
	}
	if strings.HasPrefix(name, ExprPrefix) {
		program, err := el.Compile(strings.TrimPrefix(name, ExprPrefix))
		if err != nil {
			return nil, fmt.Errorf("coercer %q: %w", name, err)
		}
		return func(raw string) (interface{}, error) {
			return program.Run(map[string]interface{}{"value": raw})
		}, nil
	}
	if c, ok := b.Get(name); ok {
		return c, nil
	}
	return nil, fmt.Errorf("coercer not found. name=%s", name)
}
