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

package rest

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/dancespiele/pyrite-server/api/types"
	"github.com/dancespiele/pyrite-server/utils/json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func atoi(raw string) (interface{}, error) {
	return strconv.Atoi(raw)
}

func usersController() *types.Controller {
	return &types.Controller{
		Name: "Users",
		Path: "/api/users",
		Methods: []*types.MethodDescriptor{
			{
				Name:   "get",
				Path:   "/:id",
				Types:  []types.Coercer{atoi},
				Params: []types.ParamDescriptor{types.Param("params", "id"), types.Param("query", "fields")},
				Handler: func(id int, fields interface{}) map[string]interface{} {
					return map[string]interface{}{"id": id, "fields": fields}
				},
			},
			{
				Name:    "create",
				Action:  "post",
				Path:    "/",
				Status:  http.StatusCreated,
				Params:  []types.ParamDescriptor{types.Param("body")},
				Handler: func(body interface{}) interface{} { return body },
			},
			{
				Name:   "remove",
				Action: "delete",
				Path:   "/:id",
				Handler: func(req *types.Request) error {
					return types.NewStatusError(http.StatusNotFound, "no user "+req.Params["id"].(string))
				},
			},
			{
				Name:    "name",
				Path:    "/:id/name",
				Handler: func() string { return "ann" },
			},
		},
	}
}

func newTestServer(t *testing.T) (*Rest, *httptest.Server) {
	r := New(Config{}, types.NewConfig(types.WithLogger(types.DiscardLogger())))
	require.NoError(t, r.Mount(usersController()))
	ts := httptest.NewServer(r.Handler())
	t.Cleanup(ts.Close)
	return r, ts
}

func do(t *testing.T, method, url, contentType, body string) (int, http.Header, []byte) {
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	if contentType != "" {
		req.Header.Set(ContentTypeKey, contentType)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp.StatusCode, resp.Header, b
}

func decode(t *testing.T, b []byte) map[string]interface{} {
	var v map[string]interface{}
	require.NoError(t, json.Unmarshal(b, &v))
	return v
}

func TestRestDispatch(t *testing.T) {
	r, ts := newTestServer(t)
	assert.Len(t, r.Routes(), 4)
	assert.Equal(t, "GET /api/users/:id", r.Routes()[0].String())

	status, header, body := do(t, "GET", ts.URL+"/api/users/7?fields=name", "", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, JsonContextType, header.Get(ContentTypeKey))
	assert.Equal(t, map[string]interface{}{"id": float64(7), "fields": "name"}, decode(t, body))

	status, _, body = do(t, "GET", ts.URL+"/api/users/abc", "", "")
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, decode(t, body)["error"], "invalid path parameter id")

	status, _, body = do(t, "POST", ts.URL+"/api/users/", JsonContextType, `{"name":"ann"}`)
	assert.Equal(t, http.StatusCreated, status)
	assert.Equal(t, map[string]interface{}{"name": "ann"}, decode(t, body))

	status, _, body = do(t, "DELETE", ts.URL+"/api/users/9", "", "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, map[string]interface{}{"error": "no user 9"}, decode(t, body))

	status, header, body = do(t, "GET", ts.URL+"/api/users/1/name", "", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, TextContentType, header.Get(ContentTypeKey))
	assert.Equal(t, "ann", string(body))
}

func TestRestBody(t *testing.T) {
	_, ts := newTestServer(t)

	status, _, body := do(t, "POST", ts.URL+"/api/users/", JsonContextType, `{"name":`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, decode(t, body)["error"], "invalid json body")

	status, _, body = do(t, "POST", ts.URL+"/api/users/", FormContentType, "name=ann&tag=a&tag=b")
	assert.Equal(t, http.StatusCreated, status)
	assert.Equal(t, map[string]interface{}{"name": "ann", "tag": []interface{}{"a", "b"}}, decode(t, body))

	status, _, body = do(t, "POST", ts.URL+"/api/users/", "text/plain", "hello")
	assert.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "hello", string(body))
}

func TestRestBodyLimit(t *testing.T) {
	r := New(Config{MaxBodyBytes: 8}, types.NewConfig(types.WithLogger(types.DiscardLogger())))
	require.NoError(t, r.Mount(usersController()))
	ts := httptest.NewServer(r.Handler())
	defer ts.Close()
	status, _, _ := do(t, "POST", ts.URL+"/api/users/", JsonContextType, `{"name":"a long name"}`)
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestRestUnencodableResult(t *testing.T) {
	r := New(Config{}, types.NewConfig(types.WithLogger(types.DiscardLogger())))
	require.NoError(t, r.Mount(&types.Controller{Path: "/api", Methods: []*types.MethodDescriptor{
		{Name: "chan", Handler: func() interface{} { return make(chan int) }},
	}}))
	ts := httptest.NewServer(r.Handler())
	defer ts.Close()
	status, header, body := do(t, "GET", ts.URL+"/api/chan", "", "")
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, JsonContextType, header.Get(ContentTypeKey))
	assert.Contains(t, decode(t, body)["error"], "unsupported type")
}

func TestRestMountConflict(t *testing.T) {
	r, _ := newTestServer(t)
	err := r.Mount(&types.Controller{Path: "/api/users", Methods: []*types.MethodDescriptor{
		{Name: "dup", Path: "/:id", Handler: func() {}},
	}})
	require.Error(t, err)
	assert.True(t, types.IsConfigError(err))

	err = r.Mount(&types.Controller{Methods: []*types.MethodDescriptor{
		{Name: "bad", Action: "fetch", Handler: func() {}},
	}})
	assert.True(t, types.IsConfigError(err))
}

type hookPlugin struct {
	started bool
}

func (p *hookPlugin) Name() string           { return "hook" }
func (p *hookPlugin) Kind() types.PluginKind { return types.PluginServer }
func (p *hookPlugin) ParamName() string      { return "hook" }
func (p *hookPlugin) Load(*types.Controller, *types.MethodDescriptor) (types.Callback, error) {
	return func(req *types.Request, res *types.Response, args ...interface{}) (interface{}, error) {
		return "hooked", nil
	}, nil
}
func (p *hookPlugin) Run(server types.Server) error {
	p.started = true
	server.Handle(http.MethodGet, "/hook/raw", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("raw"))
	}))
	return nil
}

func TestRestStartStop(t *testing.T) {
	r := New(Config{Server: "127.0.0.1:0"}, types.NewConfig(types.WithLogger(types.DiscardLogger())))
	hook := &hookPlugin{}
	require.NoError(t, r.Use(hook))
	require.NoError(t, r.Mount(&types.Controller{Methods: []*types.MethodDescriptor{{
		Name:    "hooked",
		Params:  []types.ParamDescriptor{types.Param("hook")},
		Handler: func(cb types.BoundCallback) (interface{}, error) { return cb() },
	}}}))
	stopped := false
	r.OnShutdown(func() { stopped = true })

	require.NoError(t, r.Start())
	assert.True(t, hook.started)
	assert.Equal(t, ErrServerStarted, r.Start())
	base := "http://" + r.Addr()

	status, _, body := do(t, "GET", base+"/hooked", "", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "hooked", string(body))
	status, _, body = do(t, "GET", base+"/hook/raw", "", "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "raw", string(body))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, r.Stop(ctx))
	assert.True(t, stopped)
	assert.Equal(t, "", r.Addr())
	assert.Error(t, r.Use(&hookPlugin{}))
}
