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

// Package aspect provides the built-in dispatch aspects. An aspect is attached
// to a Config with types.WithAspects and observes every route built with it.
//
// Package aspect 提供内置的分发切面，通过types.WithAspects添加到配置中。
//
// Available Built-in Aspects:
// 可用的内置切面：
//
//   - AccessLog: logs each loaded route and each completed request
//     AccessLog：记录路由加载和请求完成日志
//
//   - MetricsAspect: atomic dispatch counters shared by all routes
//     MetricsAspect：所有路由共享的原子计数器
//
//   - PrometheusAspect: request counters, latency histogram and in-flight gauge
//     PrometheusAspect：Prometheus请求计数、耗时直方图和并发请求数
//
// Aspect Execution Order:
// 切面执行顺序：
//  1. AccessLog (order: 10)
//  2. MetricsAspect (order: 20)
//  3. PrometheusAspect (order: 30)
//
// Usage:
//
//	prom, err := aspect.NewPrometheusAspect(prometheus.NewRegistry())
//	if err != nil {
//		return err
//	}
//	config := types.NewConfig(types.WithAspects(aspect.NewAccessLog(logger), prom))
package aspect
