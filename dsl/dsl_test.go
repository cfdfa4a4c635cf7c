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

package dsl

import (
	"testing"

	"github.com/dancespiele/pyrite-server/api/types"
	"github.com/dancespiele/pyrite-server/route"
	"github.com/dancespiele/pyrite-server/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const routesYaml = `
controllers:
  - name: Users
    path: /users
    beforeAll: [noCache]
    methods:
      - name: get
        path: /:id
        types: [int]
        params: [params.id, {source: query, key: verbose}]
        after: [wrapData]
      - name: create
        action: post
        path: /
        status: 201
        params: [body]
        before: ["expr: body != nil"]
        after: ["expr: result.name"]
`

func handlers() Handlers {
	return Handlers{
		"Users.get": func(id int, verbose interface{}) map[string]interface{} {
			return map[string]interface{}{"id": id, "verbose": verbose}
		},
		"Users.create": func(body interface{}) interface{} { return body },
	}
}

func TestParseYaml(t *testing.T) {
	def, err := Parse([]byte(routesYaml))
	require.NoError(t, err)
	require.Len(t, def.Controllers, 1)
	c := def.Controllers[0]
	assert.Equal(t, "Users", c.Name)
	assert.Equal(t, []string{"noCache"}, c.BeforeAll)
	require.Len(t, c.Methods, 2)
	assert.Equal(t, 201, c.Methods[1].Status)
	assert.Equal(t, "Users.create", c.HandlerKey(c.Methods[1]))
	assert.Equal(t, []string{"GET /users/:id", "POST /users/"}, def.Routes())
}

func TestParseJson(t *testing.T) {
	def, err := Parse([]byte(`{"controllers":[{"name":"System","methods":[{"name":"health","handler":"health"}]}]}`))
	require.NoError(t, err)
	require.Len(t, def.Controllers, 1)
	assert.Equal(t, "health", def.Controllers[0].HandlerKey(def.Controllers[0].Methods[0]))
	assert.Equal(t, []string{"GET /health"}, def.Routes())

	empty, err := Parse(nil)
	require.NoError(t, err)
	assert.Empty(t, empty.Controllers)

	_, err = Parse([]byte("controllers: [`"))
	assert.Error(t, err)
}

func TestBuild(t *testing.T) {
	def, err := Parse([]byte(routesYaml))
	require.NoError(t, err)
	config := types.NewConfig(types.WithLogger(types.DiscardLogger()))
	targets, err := def.Build(handlers(), config)
	require.NoError(t, err)
	require.Len(t, targets, 1)
	target := targets[0]
	assert.Len(t, target.BeforeAll, 1)
	require.Len(t, target.Methods, 2)
	assert.Equal(t, []types.ParamDescriptor{
		{Source: "params", Key: "id"},
		{Source: "query", Key: "verbose"},
	}, target.Methods[0].Params)

	server := test.NewServer(config)
	get, err := route.New(server, target, target.Methods[0])
	require.NoError(t, err)
	req := test.NewRequest("GET", "/users/7", "id", "7")
	req.Query["verbose"] = "1"
	res, rec := test.NewResponse()
	get.Serve(req, res)
	assert.Equal(t, 200, rec.Code)
	assert.Equal(t, map[string]interface{}{"data": map[string]interface{}{"id": 7, "verbose": "1"}}, rec.Body)
	assert.Equal(t, "no-store", rec.Header.Get("Cache-Control"))

	create, err := route.New(server, target, target.Methods[1])
	require.NoError(t, err)
	req = test.NewRequest("POST", "/users/")
	req.Body = map[string]interface{}{"name": "ann"}
	res, rec = test.NewResponse()
	create.Serve(req, res)
	assert.Equal(t, 201, rec.Code)
	assert.Equal(t, "ann", rec.Body)

	res, rec = test.NewResponse()
	create.Serve(test.NewRequest("POST", "/users/"), res)
	assert.Equal(t, 403, rec.Code)
}

func TestBuildErrors(t *testing.T) {
	config := types.NewConfig(types.WithLogger(types.DiscardLogger()))
	cases := map[string]string{
		"handler":   `{"controllers":[{"name":"A","methods":[{"name":"missing"}]}]}`,
		"coercer":   `{"controllers":[{"name":"Users","methods":[{"name":"get","types":["nope"]}]}]}`,
		"transform": `{"controllers":[{"name":"Users","methods":[{"name":"get","after":["nope"]}]}]}`,
		"before":    `{"controllers":[{"name":"Users","methods":[{"name":"get","before":["nope"]}]}]}`,
		"beforeAll": `{"controllers":[{"name":"Users","beforeAll":["nope"],"methods":[]}]}`,
		"kind":      `{"controllers":[{"name":"Users","methods":[{"name":"get","params":[{"source":"x","kind":"nope"}]}]}]}`,
		"source":    `{"controllers":[{"name":"Users","methods":[{"name":"get","params":[""]}]}]}`,
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			def, err := Parse([]byte(src))
			require.NoError(t, err)
			_, err = def.Build(handlers(), config)
			require.Error(t, err)
			assert.True(t, types.IsConfigError(err))
		})
	}
}
