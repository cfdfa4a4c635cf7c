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

package types

import "time"

// Aspects are hooks attached to every dispatcher built with a Config. They observe
// route registration and request dispatch without changing the pipeline.
//
// 切面：在不修改分发逻辑的情况下，观察路由注册和请求分发（日志、指标等）。

// Aspect is the base interface for dispatch advice
// Aspect 增强点接口的基类
type Aspect interface {
	// Order returns the execution order, the smaller the value, the higher the priority
	Order() int
}

// LoadAspect is called once per route after its dispatcher is constructed.
type LoadAspect interface {
	Aspect
	OnLoad(route Route)
}

// DispatchAspect is called when a request enters the dispatcher main step,
// after the middleware gate let it through.
type DispatchAspect interface {
	Aspect
	OnDispatch(route Route, req *Request)
}

// CompletedAspect is called once per request when the pipeline has finished,
// including short-circuited requests.
type CompletedAspect interface {
	Aspect
	OnCompleted(route Route, req *Request, res *Response, outcome Outcome)
}

// Outcome summarises one pass through the dispatch pipeline.
type Outcome struct {
	// Status is the status code written by the dispatcher, or by whoever sent the response.
	Status int
	// Err is the error recovered by the failure boundary, nil on success.
	Err error
	// ShortCircuit is true when a middleware plugin or a before middleware ended the chain.
	ShortCircuit bool
	// Elapsed is the time spent in the pipeline.
	Elapsed time.Duration
}
