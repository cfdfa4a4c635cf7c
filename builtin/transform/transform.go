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

// Package transform holds the named "after" transforms used by the route DSL.
// Besides the registered names a transform can be an expression, "expr:...",
// evaluated with the handler result bound to result, or a script, "js:...",
// the body of a JavaScript function of result.
//
// Package transform 内置后置转换函数，支持expr表达式和js脚本。
package transform

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/dancespiele/pyrite-server/api/types"
	"github.com/dancespiele/pyrite-server/utils/el"
	"github.com/dancespiele/pyrite-server/utils/js"
	"github.com/dancespiele/pyrite-server/utils/json"
)

const (
	ExprPrefix = "expr:"
	JsPrefix   = "js:"
	// ResultKey is the name the handler result is bound to in expressions and scripts.
	ResultKey = "result"

	jsFuncName = "transform"
)

// Builtins 内置后置转换函数
var Builtins = builtins{}

func init() {
	Builtins.Register("wrapData", wrapData)
	Builtins.Register("count", count)
	Builtins.Register("first", first)
	Builtins.Register("toJson", toJson)
}

type builtins struct {
	transforms map[string]types.Transform
	lock       sync.RWMutex
}

// Register 注册后置转换函数
func (b *builtins) Register(name string, transform types.Transform) {
	b.lock.Lock()
	defer b.lock.Unlock()
	if b.transforms == nil {
		b.transforms = make(map[string]types.Transform)
	}
	b.transforms[name] = transform
}

// Unregister 删除后置转换函数
func (b *builtins) Unregister(names ...string) {
	b.lock.Lock()
	defer b.lock.Unlock()
	for _, name := range names {
		delete(b.transforms, name)
	}
}

// Get 获取后置转换函数
func (b *builtins) Get(name string) (types.Transform, bool) {
	b.lock.RLock()
	defer b.lock.RUnlock()
	t, ok := b.transforms[name]
	return t, ok
}

// Parse returns the transform named name, or compiles an "expr:" or "js:" transform.
func (b *builtins) Parse(config types.Config, name string) (types.Transform, error) {
	name = strings.TrimSpace(name)
	switch {
	case strings.HasPrefix(name, ExprPrefix):
		program, err := el.Compile(strings.TrimPrefix(name, ExprPrefix))
		if err != nil {
			return nil, fmt.Errorf("transform %q: %w", name, err)
		}
		return func(result interface{}) (interface{}, error) {
			return program.Run(map[string]interface{}{ResultKey: result})
		}, nil
	case strings.HasPrefix(name, JsPrefix):
		body := strings.TrimPrefix(name, JsPrefix)
		script := fmt.Sprintf("function %s(%s) { %s }", jsFuncName, ResultKey, body)
		engine, err := js.NewGojaJsEngine(config, script, nil)
		if err != nil {
			return nil, fmt.Errorf("transform %q: %w", name, err)
		}
		return func(result interface{}) (interface{}, error) {
			return engine.Execute(jsFuncName, result)
		}, nil
	}
	if t, ok := b.Get(name); ok {
		return t, nil
	}
	return nil, fmt.Errorf("transform not found. name=%s", name)
}

// wrapData returns {"data": result}.
func wrapData(result interface{}) (interface{}, error) {
	return map[string]interface{}{"data": result}, nil
}

// count returns the length of a slice, array, map or string result.
func count(result interface{}) (interface{}, error) {
	if result == nil {
		return 0, nil
	}
	v := reflect.ValueOf(result)
	switch v.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map, reflect.String:
		return v.Len(), nil
	}
	return nil, fmt.Errorf("count: %T has no length", result)
}

// first returns the first element of a slice result, nil when it is empty.
func first(result interface{}) (interface{}, error) {
	if result == nil {
		return nil, nil
	}
	v := reflect.ValueOf(result)
	if v.Kind() != reflect.Slice && v.Kind() != reflect.Array {
		return nil, fmt.Errorf("first: %T is not a list", result)
	}
	if v.Len() == 0 {
		return nil, nil
	}
	return v.Index(0).Interface(), nil
}

// toJson encodes the result as a json string.
func toJson(result interface{}) (interface{}, error) {
	b, err := json.Marshal(result)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}
