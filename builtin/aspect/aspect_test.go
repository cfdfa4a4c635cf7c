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
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/dancespiele/pyrite-server/api/types"
	"github.com/dancespiele/pyrite-server/route"
	"github.com/dancespiele/pyrite-server/test"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type bufferLogger struct {
	lock  sync.Mutex
	lines []string
}

func (l *bufferLogger) Printf(format string, v ...interface{}) {
	l.lock.Lock()
	defer l.lock.Unlock()
	l.lines = append(l.lines, fmt.Sprintf(format, v...))
}

func newRoute(t *testing.T, config types.Config, method *types.MethodDescriptor) *route.Dispatcher {
	d, err := route.New(test.NewServer(config), &types.Controller{Path: "/api"}, method)
	require.NoError(t, err)
	return d
}

func TestAccessLog(t *testing.T) {
	logger := &bufferLogger{}
	config := types.NewConfig(types.WithLogger(types.DiscardLogger()), types.WithAspects(NewAccessLog(logger)))
	d := newRoute(t, config, &types.MethodDescriptor{Name: "users", Path: "/users/:id", Handler: func() string { return "ok" }})
	res, _ := test.NewResponse()
	d.Serve(test.NewRequest("GET", "/api/users/1", "id", "1"), res)

	require.Len(t, logger.lines, 2)
	assert.Equal(t, "Loading route: GET /api/users/:id", logger.lines[0])
	assert.True(t, strings.HasPrefix(logger.lines[1], "GET /api/users/1 200 "), logger.lines[1])
}

func TestMetricsAspect(t *testing.T) {
	a := NewMetricsAspect(nil)
	config := types.NewConfig(types.WithLogger(types.DiscardLogger()), types.WithAspects(a))
	ok := newRoute(t, config, &types.MethodDescriptor{Name: "ok", Handler: func() {}})
	fail := newRoute(t, config, &types.MethodDescriptor{Name: "fail", Handler: func() error { return errors.New("x") }})
	denied := newRoute(t, config, &types.MethodDescriptor{
		Name:    "denied",
		Before:  []types.Middleware{func(req *types.Request, res *types.Response) bool { return false }},
		Handler: func() {},
	})
	for _, d := range []*route.Dispatcher{ok, ok, fail, denied} {
		res, _ := test.NewResponse()
		d.Serve(test.NewRequest("GET", d.FullPath()), res)
	}
	m := a.GetMetrics().Get()
	assert.Equal(t, int64(4), m.Total)
	assert.Equal(t, int64(2), m.Success)
	assert.Equal(t, int64(1), m.Failed)
	assert.Equal(t, int64(1), m.ShortCircuited)
	assert.Equal(t, int64(0), m.Current)
}

func TestPrometheusAspect(t *testing.T) {
	registry := prometheus.NewRegistry()
	a, err := NewPrometheusAspect(registry)
	require.NoError(t, err)
	config := types.NewConfig(types.WithLogger(types.DiscardLogger()), types.WithAspects(a))
	d := newRoute(t, config, &types.MethodDescriptor{Name: "items", Action: "post", Status: 201, Handler: func() {}})

	for i := 0; i < 3; i++ {
		res, _ := test.NewResponse()
		d.Serve(test.NewRequest("POST", "/api/items"), res)
	}
	assert.Equal(t, float64(1), testutil.ToFloat64(a.routes.WithLabelValues("POST")))
	assert.Equal(t, float64(3), testutil.ToFloat64(a.requests.WithLabelValues("/api/items", "POST", "201")))
	assert.Equal(t, float64(0), testutil.ToFloat64(a.inFlight.WithLabelValues("/api/items", "POST")))
	assert.Equal(t, 1, testutil.CollectAndCount(a.duration))

	_, err = NewPrometheusAspect(registry)
	assert.Error(t, err)
}
