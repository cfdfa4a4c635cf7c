/*
 * Copyright 2023 The RuleGo Authors.
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

package aspect

import (
	"github.com/dancespiele/pyrite-server/api/types"
)

var (
	_ types.LoadAspect      = (*AccessLog)(nil)
	_ types.CompletedAspect = (*AccessLog)(nil)
)

// AccessLog logs "Loading route: GET /users/:id" when a route is built and
// one line per completed request.
type AccessLog struct {
	Logger types.Logger
}

// NewAccessLog creates an AccessLog writing to logger, the default logger when nil.
func NewAccessLog(logger types.Logger) *AccessLog {
	return &AccessLog{Logger: types.NewLogger(logger)}
}

func (a *AccessLog) Order() int {
	return 10
}

func (a *AccessLog) OnLoad(route types.Route) {
	a.Logger.Printf("Loading route: %s %s", route.Action(), route.FullPath())
}

func (a *AccessLog) OnCompleted(route types.Route, req *types.Request, res *types.Response, outcome types.Outcome) {
	switch {
	case outcome.ShortCircuit:
		a.Logger.Printf("%s %s %d %s (short-circuit)", route.Action(), req.Path, outcome.Status, outcome.Elapsed)
	case outcome.Err != nil:
		a.Logger.Printf("%s %s %d %s error=%s", route.Action(), req.Path, outcome.Status, outcome.Elapsed, outcome.Err)
	default:
		a.Logger.Printf("%s %s %d %s", route.Action(), req.Path, outcome.Status, outcome.Elapsed)
	}
}
