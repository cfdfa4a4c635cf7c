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

package aspect

import (
	"github.com/dancespiele/pyrite-server/api/types"
	"github.com/dancespiele/pyrite-server/api/types/metrics"
)

var (
	_ types.DispatchAspect  = (*MetricsAspect)(nil)
	_ types.CompletedAspect = (*MetricsAspect)(nil)
)

// MetricsAspect counts the requests of every route built with its Config.
type MetricsAspect struct {
	metrics *metrics.DispatchMetrics
}

// NewMetricsAspect creates the aspect, with new counters when m is nil.
func NewMetricsAspect(m *metrics.DispatchMetrics) *MetricsAspect {
	if m == nil {
		m = metrics.NewDispatchMetrics()
	}
	return &MetricsAspect{metrics: m}
}

func (a *MetricsAspect) Order() int {
	return 20
}

func (a *MetricsAspect) OnDispatch(route types.Route, req *types.Request) {
	a.metrics.IncrementCurrent()
}

func (a *MetricsAspect) OnCompleted(route types.Route, req *types.Request, res *types.Response, outcome types.Outcome) {
	a.metrics.IncrementTotal()
	switch {
	case outcome.ShortCircuit:
		// OnDispatch is not called for short-circuited requests
		a.metrics.IncrementShortCircuited()
		return
	case outcome.Err != nil:
		a.metrics.IncrementFailed()
	default:
		a.metrics.IncrementSuccess()
	}
	a.metrics.DecrementCurrent()
}

// GetMetrics returns the counters.
func (a *MetricsAspect) GetMetrics() *metrics.DispatchMetrics {
	return a.metrics
}
