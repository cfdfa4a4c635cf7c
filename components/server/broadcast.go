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

//插件配置示例：
//{
//  "name": "broadcast",
//  "config": {
//    "path": "/ws",
//    "writeTimeout": "5s",
//    "checkOrigin": false
//  }
//}
import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/dancespiele/pyrite-server/api/types"
	"github.com/dancespiele/pyrite-server/plugins"
	"github.com/dancespiele/pyrite-server/utils/cast"
	"github.com/dancespiele/pyrite-server/utils/json"
	"github.com/dancespiele/pyrite-server/utils/maps"
	"github.com/gorilla/websocket"
)

const (
	BroadcastName = "broadcast"
	// EmitParam is the handler parameter receiving the broadcast callback.
	EmitParam = "emit"
)

func init() {
	plugins.Builtins.Register(BroadcastName, func(config types.Configuration) (types.Plugin, error) {
		return NewBroadcast(config)
	})
}

// BroadcastConfiguration 广播插件配置
type BroadcastConfiguration struct {
	// Path is the websocket endpoint clients connect to, default /ws.
	Path string
	// WriteTimeout bounds the write to one client, default 5s.
	WriteTimeout time.Duration
	// CheckOrigin rejects cross origin upgrades when true.
	CheckOrigin bool
}

// Event is the message sent to every websocket client.
type Event struct {
	Event string      `json:"event"`
	Route string      `json:"route"`
	Data  interface{} `json:"data,omitempty"`
}

// Broadcast serves a websocket endpoint and gives handlers an "emit"
// callback: emit(event, data) sends an Event to every connected client and
// returns the number of clients reached.
// 广播插件：处理函数通过emit参数向所有websocket客户端推送事件
type Broadcast struct {
	Config   BroadcastConfiguration
	Upgrader websocket.Upgrader

	lock    sync.Mutex
	clients map[*websocket.Conn]*sync.Mutex
	logger  types.Logger
}

var _ types.ServerPlugin = (*Broadcast)(nil)

func NewBroadcast(configuration types.Configuration) (*Broadcast, error) {
	x := &Broadcast{
		Config:  BroadcastConfiguration{Path: "/ws", WriteTimeout: 5 * time.Second},
		clients: make(map[*websocket.Conn]*sync.Mutex),
		logger:  types.DefaultLogger(),
	}
	if err := maps.Map2Struct(configuration, &x.Config); err != nil {
		return nil, err
	}
	if x.Config.Path == "" {
		x.Config.Path = "/ws"
	}
	if !x.Config.CheckOrigin {
		x.Upgrader.CheckOrigin = func(r *http.Request) bool {
			return true
		}
	}
	return x, nil
}

func (x *Broadcast) Name() string {
	return BroadcastName
}

func (x *Broadcast) Kind() types.PluginKind {
	return types.PluginServer
}

func (x *Broadcast) ParamName() string {
	return EmitParam
}

// Load returns the emit callback of one route.
func (x *Broadcast) Load(target *types.Controller, method *types.MethodDescriptor) (types.Callback, error) {
	routeName := method.HTTPMethod() + " " + target.FullPath(method)
	return func(req *types.Request, res *types.Response, args ...interface{}) (interface{}, error) {
		if len(args) == 0 {
			return nil, fmt.Errorf("emit: missing event name")
		}
		event := Event{Event: cast.ToString(args[0]), Route: routeName}
		if len(args) > 1 {
			event.Data = args[1]
		}
		return x.Send(event)
	}, nil
}

// Run mounts the websocket endpoint and closes every client on shutdown.
func (x *Broadcast) Run(server types.Server) error {
	x.logger = types.NewLogger(server.Config().Logger)
	server.Handle(http.MethodGet, x.Config.Path, http.HandlerFunc(x.serveWs))
	server.OnShutdown(x.Close)
	return nil
}

func (x *Broadcast) serveWs(w http.ResponseWriter, r *http.Request) {
	c, err := x.Upgrader.Upgrade(w, r, nil)
	if err != nil {
		x.logger.Printf("broadcast upgrade error: %v", err)
		return
	}
	x.lock.Lock()
	x.clients[c] = &sync.Mutex{}
	x.lock.Unlock()

	defer x.remove(c)
	for {
		// clients only listen; reading keeps control frames flowing
		if _, _, err := c.ReadMessage(); err != nil {
			return
		}
	}
}

// Send writes event to every client and returns the number of clients reached.
// A client whose write fails is dropped.
func (x *Broadcast) Send(event Event) (int, error) {
	body, err := json.Marshal(event)
	if err != nil {
		return 0, err
	}
	x.lock.Lock()
	clients := make(map[*websocket.Conn]*sync.Mutex, len(x.clients))
	for c, l := range x.clients {
		clients[c] = l
	}
	x.lock.Unlock()

	sent := 0
	for c, l := range clients {
		l.Lock()
		_ = c.SetWriteDeadline(time.Now().Add(x.Config.WriteTimeout))
		err := c.WriteMessage(websocket.TextMessage, body)
		l.Unlock()
		if err != nil {
			x.logger.Printf("broadcast write error: %v", err)
			x.remove(c)
			continue
		}
		sent++
	}
	return sent, nil
}

// Clients returns the number of connected clients.
func (x *Broadcast) Clients() int {
	x.lock.Lock()
	defer x.lock.Unlock()
	return len(x.clients)
}

// Close disconnects every client.
func (x *Broadcast) Close() {
	x.lock.Lock()
	clients := x.clients
	x.clients = make(map[*websocket.Conn]*sync.Mutex)
	x.lock.Unlock()
	for c := range clients {
		_ = c.Close()
	}
}

func (x *Broadcast) remove(c *websocket.Conn) {
	x.lock.Lock()
	delete(x.clients, c)
	x.lock.Unlock()
	_ = c.Close()
}
