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

// Package route builds the dispatch pipeline of one handler: the middleware
// chain, the parameter resolver and the main step that invokes the handler and
// answers with its result.
//
// Package route 构建单个处理函数的分发流程：中间件链、参数解析和主处理步骤。
package route

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/dancespiele/pyrite-server/api/types"
	"github.com/dancespiele/pyrite-server/api/types/metrics"
)

var actions = map[string]bool{
	http.MethodGet:     true,
	http.MethodPost:    true,
	http.MethodPut:     true,
	http.MethodPatch:   true,
	http.MethodDelete:  true,
	http.MethodHead:    true,
	http.MethodOptions: true,
}

// Dispatcher is the compiled pipeline of one route. It is immutable after New
// and serves concurrent requests.
type Dispatcher struct {
	config   types.Config
	registry types.PluginRegistry
	target   *types.Controller
	method   *types.MethodDescriptor
	action   string
	fullPath string
	name     string

	callbacks map[string]types.Callback
	resolver  *Resolver
	handler   *handler
	after     []types.Transform
	chain     []types.Middleware

	dispatchAspects  []types.DispatchAspect
	completedAspects []types.CompletedAspect
	metrics          *metrics.DispatchMetrics
}

var _ types.Route = (*Dispatcher)(nil)

// New builds the dispatcher of method on target. Plugin callbacks are loaded
// here, once per route. Any malformed descriptor is a *types.ConfigError.
func New(server types.Server, target *types.Controller, method *types.MethodDescriptor) (*Dispatcher, error) {
	if server == nil {
		return nil, types.NewConfigError("", "no host server")
	}
	if method == nil {
		return nil, types.NewConfigError("", "no method descriptor")
	}
	if target == nil {
		target = &types.Controller{}
	}
	d := &Dispatcher{
		config:   server.Config(),
		registry: server.Plugins(),
		target:   target,
		method:   method,
		action:   method.HTTPMethod(),
		fullPath: target.FullPath(method),
		after:    method.After,
		metrics:  metrics.NewDispatchMetrics(),
	}
	d.name = d.action + " " + d.fullPath
	if !actions[d.action] {
		return nil, types.NewConfigError(d.name, "unsupported action %s", method.Action)
	}

	names, err := PluginParams(method, d.registry)
	if err != nil {
		return nil, withRoute(err, d.name)
	}
	d.callbacks = make(map[string]types.Callback, len(names))
	if len(names) > 0 {
		if d.callbacks, err = d.registry.Load(target, method, names); err != nil {
			return nil, withRoute(err, d.name)
		}
	}
	if d.resolver, err = NewResolver(d.name, method, d.registry, d.callbacks); err != nil {
		return nil, err
	}
	if d.handler, err = newHandler(d.name, method.Handler, len(method.Params)); err != nil {
		return nil, err
	}

	d.chain = make([]types.Middleware, 0, len(target.BeforeAll)+len(method.Before)+1)
	d.chain = append(d.chain, target.BeforeAll...)
	d.chain = append(d.chain, method.Before...)
	d.chain = append(d.chain, d.main)

	for _, aspect := range d.config.SortedAspects() {
		if a, ok := aspect.(types.DispatchAspect); ok {
			d.dispatchAspects = append(d.dispatchAspects, a)
		}
		if a, ok := aspect.(types.CompletedAspect); ok {
			d.completedAspects = append(d.completedAspects, a)
		}
		if a, ok := aspect.(types.LoadAspect); ok {
			a.OnLoad(d)
		}
	}
	return d, nil
}

func withRoute(err error, route string) error {
	var ce *types.ConfigError
	if errors.As(err, &ce) && ce.Route == "" {
		ce.Route = route
	}
	return err
}

// Controller returns the target the handler belongs to.
func (d *Dispatcher) Controller() *types.Controller {
	return d.target
}

// Method returns the descriptor the dispatcher was built from.
func (d *Dispatcher) Method() *types.MethodDescriptor {
	return d.method
}

// Action returns the upper-case http verb.
func (d *Dispatcher) Action() string {
	return d.action
}

// FullPath returns the controller path joined with the method path.
func (d *Dispatcher) FullPath() string {
	return d.fullPath
}

// String returns "ACTION /full/path".
func (d *Dispatcher) String() string {
	return d.name
}

// Callbacks returns a copy of the plugin callbacks, keyed by parameter name.
func (d *Dispatcher) Callbacks() map[string]types.Callback {
	callbacks := make(map[string]types.Callback, len(d.callbacks))
	for k, v := range d.callbacks {
		callbacks[k] = v
	}
	return callbacks
}

// Chain returns a copy of the middleware chain. The last step is the main step.
func (d *Dispatcher) Chain() []types.Middleware {
	return append([]types.Middleware(nil), d.chain...)
}

// Resolver returns the parameter resolver.
func (d *Dispatcher) Resolver() *Resolver {
	return d.resolver
}

// Metrics returns the request counters of the route.
func (d *Dispatcher) Metrics() *metrics.DispatchMetrics {
	return d.metrics
}

// Serve runs the chain for one request. A middleware returning false ends it.
func (d *Dispatcher) Serve(req *types.Request, res *types.Response) {
	start := time.Now()
	d.metrics.IncrementTotal()
	d.metrics.IncrementCurrent()
	defer d.metrics.DecrementCurrent()

	var outcome types.Outcome
	stopped := false
	for _, m := range d.chain[:len(d.chain)-1] {
		if !m(req, res) {
			stopped = true
			outcome = types.Outcome{ShortCircuit: true, Status: res.Status()}
			break
		}
	}
	if !stopped {
		outcome = d.dispatch(req, res)
	}
	outcome.Elapsed = time.Since(start)

	switch {
	case outcome.ShortCircuit:
		d.metrics.IncrementShortCircuited()
	case outcome.Err != nil:
		d.metrics.IncrementFailed()
	default:
		d.metrics.IncrementSuccess()
	}
	if d.config.Debug {
		d.config.Printf("%s completed status=%d elapsed=%s", d.name, outcome.Status, outcome.Elapsed)
	}
	for _, a := range d.completedAspects {
		a.OnCompleted(d, req, res, outcome)
	}
}

// main is the last step of the chain.
func (d *Dispatcher) main(req *types.Request, res *types.Response) bool {
	d.dispatch(req, res)
	return false
}

func (d *Dispatcher) dispatch(req *types.Request, res *types.Response) types.Outcome {
	if d.registry != nil && d.registry.RunMiddlewares(req, res, d) {
		if !res.Sent() {
			d.config.Printf("%s: request handled by a middleware plugin without a response", d.name)
		}
		return types.Outcome{ShortCircuit: true, Status: res.Status()}
	}
	for _, a := range d.dispatchAspects {
		a.OnDispatch(d, req)
	}
	if err := d.process(req, res); err != nil {
		return d.fail(res, err)
	}
	return types.Outcome{Status: res.Status()}
}

// process resolves, invokes, transforms and responds. Every error and panic
// on the way ends in fail.
func (d *Dispatcher) process(req *types.Request, res *types.Response) (err error) {
	defer func() {
		if v := recover(); v != nil {
			err = types.NewPanicError(v)
		}
	}()
	args, err := d.resolver.Resolve(req, res)
	if err != nil {
		return err
	}
	result, err := d.invoke(req.Context(), args)
	if err != nil {
		return err
	}
	for i, transform := range d.after {
		if result, err = transform(result); err != nil {
			return fmt.Errorf("after %d: %w", i, err)
		}
	}
	return d.respond(res, result)
}

type invokeResult struct {
	value interface{}
	err   error
}

// invoke runs the handler as one task on the configured pool and waits for it.
func (d *Dispatcher) invoke(ctx context.Context, args []interface{}) (interface{}, error) {
	done := make(chan invokeResult, 1)
	task := func() {
		defer func() {
			if v := recover(); v != nil {
				done <- invokeResult{err: types.NewPanicError(v)}
			}
		}()
		value, err := d.handler.call(ctx, args)
		done <- invokeResult{value: value, err: err}
	}
	if d.config.Pool != nil {
		if err := d.config.Pool.Submit(task); err != nil {
			return nil, &types.StatusError{Status: http.StatusServiceUnavailable, Err: err}
		}
	} else {
		go task()
	}
	r := <-done
	return r.value, r.err
}

// respond writes the result unless the handler already sent a response.
func (d *Dispatcher) respond(res *types.Response, result interface{}) error {
	if res.Sent() {
		return nil
	}
	if status, body, ok := types.AsApplicationError(result); ok {
		return res.Send(status, map[string]interface{}{types.ErrorField: body})
	}
	return res.Send(d.method.SuccessStatus(), result)
}

func (d *Dispatcher) fail(res *types.Response, err error) types.Outcome {
	status, body := types.ErrorResponse(err)
	var pe *types.PanicError
	if errors.As(err, &pe) {
		d.config.Printf("%s panic: %v\n%s", d.name, pe.Value, pe.Stack)
	} else {
		d.config.Printf("%s error: %v", d.name, err)
	}
	if res.Sent() {
		return types.Outcome{Status: res.Status(), Err: err}
	}
	if werr := res.Send(status, body); werr != nil {
		d.config.Printf("%s write error response: %v", d.name, werr)
	}
	return types.Outcome{Status: status, Err: err}
}
