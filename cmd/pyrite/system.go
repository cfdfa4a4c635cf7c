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

package main

import (
	"github.com/dancespiele/pyrite-server/api/types/metrics"
	"github.com/dancespiele/pyrite-server/builtin/aspect"
	"github.com/dancespiele/pyrite-server/dsl"
)

// systemRoutes are always mounted.
const systemRoutes = `
controllers:
  - name: System
    path: /system
    beforeAll: [noCache]
    methods:
      - name: health
      - name: echo
        action: post
        params: [body, requestId]
      - name: stats
        after: [wrapData]
`

// extraHandlers are bound by routes files next to the system handlers.
// Files added to this package fill it from init.
var extraHandlers = dsl.Handlers{}

// systemHandlers are the handlers a route file can bind by name.
func systemHandlers(stats *aspect.MetricsAspect) dsl.Handlers {
	return dsl.Handlers{
		"System.health": func() map[string]interface{} {
			return map[string]interface{}{"status": "ok", "version": version}
		},
		"System.echo": func(body interface{}, requestId interface{}) map[string]interface{} {
			return map[string]interface{}{"body": body, "requestId": requestId}
		},
		"System.stats": func() metrics.DispatchMetrics {
			return stats.GetMetrics().Get()
		},
	}
}
