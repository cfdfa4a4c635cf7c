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

package server

import (
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dancespiele/pyrite-server/api/types"
	"github.com/dancespiele/pyrite-server/plugins"
	"github.com/dancespiele/pyrite-server/route"
	"github.com/dancespiele/pyrite-server/test"
	"github.com/dancespiele/pyrite-server/utils/json"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T, ps ...types.Plugin) (*test.Server, *plugins.Registry) {
	server := test.NewServer(types.NewConfig(types.WithLogger(types.DiscardLogger())))
	registry, err := plugins.NewRegistry(server, ps...)
	require.NoError(t, err)
	server.SetPlugins(registry)
	return server, registry
}

func TestBroadcast(t *testing.T) {
	p, err := plugins.Builtins.New(BroadcastName, types.Configuration{"path": "/events"})
	require.NoError(t, err)
	b := p.(*Broadcast)
	server, registry := newServer(t, b)
	require.NoError(t, registry.Run())

	handles := server.Handles()
	require.Len(t, handles, 1)
	assert.Equal(t, "GET", handles[0].Method)
	assert.Equal(t, "/events", handles[0].Path)

	ts := httptest.NewServer(handles[0].Handler)
	defer ts.Close()
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http"), nil)
	require.NoError(t, err)
	defer conn.Close()
	require.Eventually(t, func() bool { return b.Clients() == 1 }, time.Second, 10*time.Millisecond)

	target := &types.Controller{Name: "Users", Path: "/users"}
	d, err := route.New(server, target, &types.MethodDescriptor{
		Name:   "create",
		Action: "post",
		Path:   "/",
		Params: []types.ParamDescriptor{types.Param(EmitParam), types.Param("body")},
		Handler: func(emit types.BoundCallback, body interface{}) (interface{}, error) {
			return emit("created", body)
		},
	})
	require.NoError(t, err)

	req := test.NewRequest("POST", "/users/")
	req.Body = map[string]interface{}{"name": "ann"}
	res, rec := test.NewResponse()
	d.Serve(req, res)
	assert.Equal(t, 200, rec.Code)
	assert.Equal(t, 1, rec.Body)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	_, msg, err := conn.ReadMessage()
	require.NoError(t, err)
	var event Event
	require.NoError(t, json.Unmarshal(msg, &event))
	assert.Equal(t, "created", event.Event)
	assert.Equal(t, "POST /users/", event.Route)
	assert.Equal(t, map[string]interface{}{"name": "ann"}, event.Data)

	server.Shutdown()
	assert.Equal(t, 0, b.Clients())
}

func TestBroadcastWithoutClients(t *testing.T) {
	b, err := NewBroadcast(nil)
	require.NoError(t, err)
	assert.Equal(t, "/ws", b.Config.Path)
	n, err := b.Send(Event{Event: "noop"})
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	cb, err := b.Load(nil, &types.MethodDescriptor{Name: "x"})
	require.NoError(t, err)
	_, err = cb(nil, nil)
	assert.Error(t, err)
}

func TestScheduler(t *testing.T) {
	p, err := plugins.Builtins.New(SchedulerName, nil)
	require.NoError(t, err)
	s := p.(*Scheduler)
	server, registry := newServer(t, s)
	require.NoError(t, registry.Run())
	defer server.Shutdown()

	var ticks int32
	d, err := route.New(server, nil, &types.MethodDescriptor{
		Name:   "jobs",
		Action: "post",
		Params: []types.ParamDescriptor{types.Param(ScheduleParam)},
		Handler: func(schedule types.BoundCallback) (interface{}, error) {
			return schedule("@every 1s", func() { atomic.AddInt32(&ticks, 1) })
		},
		Status: 201,
	})
	require.NoError(t, err)

	res, rec := test.NewResponse()
	d.Serve(test.NewRequest("POST", "/jobs"), res)
	require.Equal(t, 201, rec.Code)
	id, ok := rec.Body.(int)
	require.True(t, ok)
	assert.Equal(t, 1, s.Entries())
	require.Eventually(t, func() bool { return atomic.LoadInt32(&ticks) > 0 }, 3*time.Second, 50*time.Millisecond)

	cb, err := s.Load(nil, &types.MethodDescriptor{Name: "jobs"})
	require.NoError(t, err)
	_, err = cb(nil, nil, "remove", id)
	require.NoError(t, err)
	assert.Equal(t, 0, s.Entries())
}

func TestSchedulerErrors(t *testing.T) {
	s, err := NewScheduler(types.Configuration{"withSeconds": false})
	require.NoError(t, err)
	_, err = s.Add("not a spec", func() {})
	assert.Error(t, err)
	_, err = s.Add("* * * * *", "job")
	assert.Error(t, err)
	id, err := s.Add("* * * * *", func() error { return nil })
	require.NoError(t, err)
	assert.True(t, id > 0)

	cb, err := s.Load(nil, &types.MethodDescriptor{Name: "jobs"})
	require.NoError(t, err)
	_, err = cb(nil, nil, "@every 1s")
	assert.Error(t, err)
}
