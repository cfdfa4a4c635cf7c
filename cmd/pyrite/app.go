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
	"net/http"

	"github.com/dancespiele/pyrite-server/api/types"
	"github.com/dancespiele/pyrite-server/builtin/aspect"
	"github.com/dancespiele/pyrite-server/config"
	"github.com/dancespiele/pyrite-server/dsl"
	"github.com/dancespiele/pyrite-server/endpoint/rest"
	"github.com/dancespiele/pyrite-server/plugins"
	"github.com/dancespiele/pyrite-server/utils/pool"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	//注册内置插件
	_ "github.com/dancespiele/pyrite-server/components/middleware"
	_ "github.com/dancespiele/pyrite-server/components/server"
)

// app is a configured server with the resources it owns.
type app struct {
	server *rest.Rest
	pool   *pool.WorkerPool
	stats  *aspect.MetricsAspect
}

// newApp builds the server of c. handlers are bound by the routes file next
// to the system handlers.
func newApp(c config.Config, logger types.Logger, registry *prometheus.Registry, handlers dsl.Handlers) (*app, error) {
	promAspect, err := aspect.NewPrometheusAspect(registry)
	if err != nil {
		return nil, err
	}
	a := &app{stats: aspect.NewMetricsAspect(nil)}
	opts := append(c.Options(),
		types.WithLogger(logger),
		types.WithAspects(aspect.NewAccessLog(logger), a.stats, promAspect),
	)
	if c.MaxWorkers > 0 {
		a.pool = pool.NewWorkerPool(c.MaxWorkers)
		a.pool.Start()
		opts = append(opts, types.WithPool(a.pool))
	}
	a.server = rest.New(rest.Config{
		Server:       c.Server,
		CertFile:     c.CertFile,
		CertKeyFile:  c.CertKeyFile,
		MaxBodyBytes: c.MaxBodyBytes,
	}, types.NewConfig(opts...))

	if err := a.mount(c, handlers); err != nil {
		a.Close()
		return nil, err
	}
	if c.MetricsPath != "" {
		a.server.Handle(http.MethodGet, c.MetricsPath, promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	}
	return a, nil
}

func (a *app) mount(c config.Config, handlers dsl.Handlers) error {
	for _, p := range c.Plugins {
		plugin, err := plugins.Builtins.New(p.Name, p.Config)
		if err != nil {
			return err
		}
		if err := a.server.Use(plugin); err != nil {
			return err
		}
	}
	def, err := dsl.Parse([]byte(systemRoutes))
	if err != nil {
		return err
	}
	if c.Routes != "" {
		extra, err := dsl.Load(c.Routes)
		if err != nil {
			return err
		}
		def.Controllers = append(def.Controllers, extra.Controllers...)
	}
	bound := systemHandlers(a.stats)
	for key, h := range handlers {
		if _, ok := bound[key]; ok {
			return types.NewConfigError(key, "handler name is reserved")
		}
		bound[key] = h
	}
	targets, err := def.Build(bound, a.server.Config())
	if err != nil {
		return err
	}
	for _, target := range targets {
		if err := a.server.Mount(target); err != nil {
			return err
		}
	}
	return nil
}

// Close releases the worker pool.
func (a *app) Close() {
	if a.pool != nil {
		a.pool.Stop()
	}
}
