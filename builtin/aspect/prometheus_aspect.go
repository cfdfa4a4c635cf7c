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
	"strconv"

	"github.com/dancespiele/pyrite-server/api/types"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	_ types.LoadAspect      = (*PrometheusAspect)(nil)
	_ types.DispatchAspect  = (*PrometheusAspect)(nil)
	_ types.CompletedAspect = (*PrometheusAspect)(nil)
)

const namespace = "pyrite"

// PrometheusAspect exports dispatch metrics labelled by route and action.
type PrometheusAspect struct {
	routes        *prometheus.GaugeVec
	requests      *prometheus.CounterVec
	shortCircuits *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	inFlight      *prometheus.GaugeVec
}

// NewPrometheusAspect creates the collectors and registers them with registerer,
// prometheus.DefaultRegisterer when nil.
func NewPrometheusAspect(registerer prometheus.Registerer) (*PrometheusAspect, error) {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}
	a := &PrometheusAspect{
		routes: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "routes",
			Help:      "Number of loaded routes.",
		}, []string{"action"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dispatch_total",
			Help:      "Dispatched requests by route, action and status.",
		}, []string{"route", "action", "status"}),
		shortCircuits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "short_circuit_total",
			Help:      "Requests ended by a middleware before the handler.",
		}, []string{"route", "action"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "dispatch_duration_seconds",
			Help:      "Time spent in the dispatch pipeline.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "action"}),
		inFlight: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "in_flight",
			Help:      "Requests past the middleware gate and not completed.",
		}, []string{"route", "action"}),
	}
	for _, c := range []prometheus.Collector{a.routes, a.requests, a.shortCircuits, a.duration, a.inFlight} {
		if err := registerer.Register(c); err != nil {
			return nil, err
		}
	}
	return a, nil
}

func (a *PrometheusAspect) Order() int {
	return 30
}

func (a *PrometheusAspect) OnLoad(route types.Route) {
	a.routes.WithLabelValues(route.Action()).Inc()
}

func (a *PrometheusAspect) OnDispatch(route types.Route, req *types.Request) {
	a.inFlight.WithLabelValues(route.FullPath(), route.Action()).Inc()
}

func (a *PrometheusAspect) OnCompleted(route types.Route, req *types.Request, res *types.Response, outcome types.Outcome) {
	path, action := route.FullPath(), route.Action()
	a.requests.WithLabelValues(path, action, strconv.Itoa(outcome.Status)).Inc()
	a.duration.WithLabelValues(path, action).Observe(outcome.Elapsed.Seconds())
	if outcome.ShortCircuit {
		a.shortCircuits.WithLabelValues(path, action).Inc()
		return
	}
	a.inFlight.WithLabelValues(path, action).Dec()
}
