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

package transform

import (
	"testing"

	"github.com/dancespiele/pyrite-server/api/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func apply(t *testing.T, name string, result interface{}) (interface{}, error) {
	tr, err := Builtins.Parse(types.NewConfig(), name)
	require.NoError(t, err)
	return tr(result)
}

func TestBuiltins(t *testing.T) {
	v, err := apply(t, "wrapData", []int{1})
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"data": []int{1}}, v)

	v, err = apply(t, "count", []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, 2, v)
	v, err = apply(t, "count", nil)
	require.NoError(t, err)
	assert.Equal(t, 0, v)
	_, err = apply(t, "count", 3)
	assert.Error(t, err)

	v, err = apply(t, "first", []interface{}{"x", "y"})
	require.NoError(t, err)
	assert.Equal(t, "x", v)
	v, err = apply(t, "first", []int{})
	require.NoError(t, err)
	assert.Nil(t, v)
	_, err = apply(t, "first", "x")
	assert.Error(t, err)

	v, err = apply(t, "toJson", map[string]int{"a": 1})
	require.NoError(t, err)
	assert.Equal(t, `{"a":1}`, v)
}

func TestExprTransform(t *testing.T) {
	v, err := apply(t, "expr:{items: result, total: len(result)}", []interface{}{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"items": []interface{}{1, 2, 3}, "total": 3}, v)

	_, err = Builtins.Parse(types.NewConfig(), "expr:result +")
	assert.Error(t, err)
}

func TestJsTransform(t *testing.T) {
	v, err := apply(t, "js:return {name: result.name.toUpperCase()}", map[string]interface{}{"name": "ana"})
	require.NoError(t, err)
	assert.Equal(t, map[string]interface{}{"name": "ANA"}, v)

	_, err = Builtins.Parse(types.NewConfig(), "js:return (")
	assert.Error(t, err)
}

func TestUnknownTransform(t *testing.T) {
	_, err := Builtins.Parse(types.NewConfig(), "reverse")
	assert.Error(t, err)
}
