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

// Package maps decodes loosely typed configuration into structs and drills
// into nested values by dot separated paths.
package maps

import (
	"reflect"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"
)

// Getter is implemented by values that expose named properties, such as
// the request and response views.
type Getter interface {
	Get(key string) (interface{}, bool)
}

// Map2Struct decodes input into output, which must be a pointer to a map or struct.
// Duration fields accept strings like "5s".
func Map2Struct(input interface{}, output interface{}) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: mapstructure.StringToTimeDurationHookFunc(),
		Result:     output,
	})
	if err != nil {
		return err
	}
	return decoder.Decode(input)
}

// Get drills into value following the dot separated path and reports
// whether the value was found. An empty path returns value unchanged. Drilling
// stops with (nil, false) at the first absent or nil intermediate.
//
// Get 按照.分隔的路径获取嵌套的值，中间值不存在时返回(nil, false)
func Get(value interface{}, path string) (interface{}, bool) {
	if path == "" {
		return value, true
	}
	current := value
	for _, segment := range strings.Split(path, ".") {
		if current == nil || segment == "" {
			return nil, false
		}
		next, ok := step(current, segment)
		if !ok {
			return nil, false
		}
		current = next
	}
	return current, true
}

// GetValue is Get without the found flag. Absent values are nil.
func GetValue(value interface{}, path string) interface{} {
	v, _ := Get(value, path)
	return v
}

func step(current interface{}, segment string) (interface{}, bool) {
	switch v := current.(type) {
	case Getter:
		return v.Get(segment)
	case map[string]interface{}:
		next, ok := v[segment]
		return next, ok
	case map[string]string:
		next, ok := v[segment]
		return next, ok
	case map[string][]string:
		next, ok := v[segment]
		return next, ok
	case []interface{}:
		return index(len(v), segment, func(i int) interface{} { return v[i] })
	case []string:
		return index(len(v), segment, func(i int) interface{} { return v[i] })
	}
	rv := reflect.ValueOf(current)
	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, false
		}
		mv := rv.MapIndex(reflect.ValueOf(segment).Convert(rv.Type().Key()))
		if !mv.IsValid() {
			return nil, false
		}
		return mv.Interface(), true
	case reflect.Slice, reflect.Array:
		return index(rv.Len(), segment, func(i int) interface{} { return rv.Index(i).Interface() })
	}
	return nil, false
}

func index(length int, segment string, at func(i int) interface{}) (interface{}, bool) {
	i, err := strconv.Atoi(segment)
	if err != nil || i < 0 || i >= length {
		return nil, false
	}
	return at(i), true
}
