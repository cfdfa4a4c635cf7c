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

package processor

import (
	"testing"

	"github.com/dancespiele/pyrite-server/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNoCacheAndCors(t *testing.T) {
	noCache, err := Builtins.Parse("noCache")
	require.NoError(t, err)
	cors, err := Builtins.Parse("cors")
	require.NoError(t, err)

	req := test.NewRequest("GET", "/")
	req.Headers["Origin"] = "https://example.org"
	res, rec := test.NewResponse()
	assert.True(t, noCache(req, res))
	assert.True(t, cors(req, res))
	assert.Equal(t, "no-store", res.Headers().Get("Cache-Control"))
	assert.Equal(t, "https://example.org", res.Headers().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, 0, rec.Writes)
}

func TestRequireBody(t *testing.T) {
	requireBody, err := Builtins.Parse("requireBody")
	require.NoError(t, err)
	res, rec := test.NewResponse()
	assert.False(t, requireBody(test.NewRequest("POST", "/"), res))
	assert.Equal(t, 400, rec.Code)

	req := test.NewRequest("POST", "/")
	req.Body = map[string]interface{}{}
	res, _ = test.NewResponse()
	assert.True(t, requireBody(req, res))
}

func TestExprGuard(t *testing.T) {
	guard, err := Builtins.Parse("expr:headers['X-Role'] == 'admin'")
	require.NoError(t, err)

	req := test.NewRequest("GET", "/")
	req.Headers["X-Role"] = "admin"
	res, rec := test.NewResponse()
	assert.True(t, guard(req, res))
	assert.Equal(t, 0, rec.Writes)

	req.Headers["X-Role"] = "guest"
	res, rec = test.NewResponse()
	assert.False(t, guard(req, res))
	assert.Equal(t, 403, rec.Code)
	assert.Equal(t, map[string]interface{}{"error": "forbidden"}, rec.Body)

	notBool, err := Builtins.Parse("expr:method")
	require.NoError(t, err)
	res, rec = test.NewResponse()
	assert.False(t, notBool(req, res))
	assert.Equal(t, 500, rec.Code)

	_, err = Builtins.Parse("expr:(")
	assert.Error(t, err)
	_, err = Builtins.Parse("unknown")
	assert.Error(t, err)
}
