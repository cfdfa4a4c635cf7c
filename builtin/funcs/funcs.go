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

// Package funcs holds the functions available to "expr:" and "js:" programs
// of coercers, transforms and guard processors.
package funcs

import (
	"sort"
	"strings"
	"sync"

	"github.com/gofrs/uuid/v5"
)

// ExprFunc 内置expr表达式函数
var ExprFunc funcMap

// ScriptFunc 内置js脚本函数
var ScriptFunc funcMap

var escaper = strings.NewReplacer(
	"\\", "\\\\", // 反斜杠
	"\"", "\\\"", // 双引号
	"\n", "\\n", // 换行符
	"\r", "\\r", // 回车符
	"\t", "\\t", // 制表符
)

func init() {
	builtins := map[string]interface{}{
		"escape": func(s string) string {
			return escaper.Replace(s)
		},
		"uuid": func() string {
			return uuid.Must(uuid.NewV4()).String()
		},
	}
	ExprFunc.RegisterAll(builtins)
	ScriptFunc.RegisterAll(builtins)
}

type funcMap struct {
	v map[string]interface{}
	sync.RWMutex
}

func (x *funcMap) Register(name string, value interface{}) {
	x.Lock()
	defer x.Unlock()
	if x.v == nil {
		x.v = make(map[string]interface{})
	}
	x.v[name] = value
}

func (x *funcMap) RegisterAll(values map[string]interface{}) {
	x.Lock()
	defer x.Unlock()
	if x.v == nil {
		x.v = make(map[string]interface{})
	}
	for k, v := range values {
		x.v[k] = v
	}
}

func (x *funcMap) UnRegister(name string) {
	x.Lock()
	defer x.Unlock()
	delete(x.v, name)
}

func (x *funcMap) Get(name string) (interface{}, bool) {
	x.RLock()
	defer x.RUnlock()
	f, ok := x.v[name]
	return f, ok
}

// GetAll returns a copy, programs take it once when they are compiled.
func (x *funcMap) GetAll() map[string]interface{} {
	x.RLock()
	defer x.RUnlock()
	cp := make(map[string]interface{}, len(x.v))
	for k, v := range x.v {
		cp[k] = v
	}
	return cp
}

func (x *funcMap) Names() []string {
	x.RLock()
	defer x.RUnlock()
	keys := make([]string, 0, len(x.v))
	for k := range x.v {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
