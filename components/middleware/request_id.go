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

package middleware

import (
	"github.com/dancespiele/pyrite-server/api/types"
	"github.com/dancespiele/pyrite-server/plugins"
	"github.com/dancespiele/pyrite-server/utils/maps"
	"github.com/gofrs/uuid/v5"
)

const (
	RequestIdName = "requestId"
	// RequestIdKey is the request local and response local holding the id.
	RequestIdKey = "requestId"
)

func init() {
	plugins.Builtins.Register(RequestIdName, func(config types.Configuration) (types.Plugin, error) {
		return NewRequestId(config)
	})
}

// RequestIdConfiguration 请求ID插件配置
type RequestIdConfiguration struct {
	// Header carries the id in both directions, default X-Request-Id.
	Header string
	// Trust keeps an id sent by the client instead of generating one.
	Trust bool
}

// RequestId tags every request with an id, reachable by handlers as the
// "requestId" parameter and echoed in the response header. It never
// short-circuits.
type RequestId struct {
	Config RequestIdConfiguration
}

var _ types.MiddlewarePlugin = (*RequestId)(nil)

func NewRequestId(configuration types.Configuration) (*RequestId, error) {
	x := &RequestId{Config: RequestIdConfiguration{Header: "X-Request-Id"}}
	if err := maps.Map2Struct(configuration, &x.Config); err != nil {
		return nil, err
	}
	if x.Config.Header == "" {
		x.Config.Header = "X-Request-Id"
	}
	return x, nil
}

func (x *RequestId) Name() string {
	return RequestIdName
}

func (x *RequestId) Kind() types.PluginKind {
	return types.PluginMiddleware
}

func (x *RequestId) Run(req *types.Request, res *types.Response, route types.Route) bool {
	id := ""
	if x.Config.Trust {
		id = req.Header(x.Config.Header)
	}
	if id == "" {
		uuId, err := uuid.NewV4()
		if err != nil {
			return false
		}
		id = uuId.String()
	}
	req.Set(RequestIdKey, id)
	res.Locals[RequestIdKey] = id
	res.Headers().Set(x.Config.Header, id)
	return false
}
