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

package funcs

import (
	"testing"

	"github.com/gofrs/uuid/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltinFunc(t *testing.T) {
	t.Run("TestEscapeFunc", func(t *testing.T) {
		escapeFunc, ok := ExprFunc.Get("escape")
		require.True(t, ok)
		fn, ok := escapeFunc.(func(string) string)
		require.True(t, ok)

		assert.Equal(t, "hello\\\\world", fn("hello\\world"))
		assert.Equal(t, "hello\\\"world\\\"", fn("hello\"world\""))
		assert.Equal(t, "hello\\nworld", fn("hello\nworld"))
		assert.Equal(t, "hello\\tworld", fn("hello\tworld"))
	})

	t.Run("TestUuidFunc", func(t *testing.T) {
		f, ok := ScriptFunc.Get("uuid")
		require.True(t, ok)
		id := f.(func() string)()
		_, err := uuid.FromString(id)
		assert.NoError(t, err)
		assert.NotEqual(t, id, f.(func() string)())
	})

	t.Run("TestFuncMap", func(t *testing.T) {
		var m funcMap
		assert.Empty(t, m.GetAll())
		m.RegisterAll(map[string]interface{}{
			"test": func(a int) int { return a + 1 },
		})
		m.Register("test2", func(a int) int { return a + 2 })
		assert.Equal(t, []string{"test", "test2"}, m.Names())

		cp := m.GetAll()
		m.UnRegister("test")
		_, ok := m.Get("test")
		assert.False(t, ok)
		_, ok = cp["test"]
		assert.True(t, ok)
	})
}
