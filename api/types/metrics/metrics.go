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

package metrics

import (
	"sync/atomic"
)

// DispatchMetrics holds the request counters of one or more dispatchers.
type DispatchMetrics struct {
	Current        int64 // Number of requests inside the pipeline
	Total          int64 // Total number of dispatched requests
	Failed         int64 // Number of requests that ended in the failure path
	Success        int64 // Number of requests answered with the handler result
	ShortCircuited int64 // Number of requests stopped by a middleware
}

// NewDispatchMetrics creates a new instance of DispatchMetrics.
func NewDispatchMetrics() *DispatchMetrics {
	return &DispatchMetrics{}
}

// IncrementCurrent increases the count of in-flight requests.
func (m *DispatchMetrics) IncrementCurrent() {
	atomic.AddInt64(&m.Current, 1)
}

// DecrementCurrent decreases the count of in-flight requests.
func (m *DispatchMetrics) DecrementCurrent() {
	atomic.AddInt64(&m.Current, -1)
}

// IncrementTotal increases the total count of requests.
func (m *DispatchMetrics) IncrementTotal() {
	atomic.AddInt64(&m.Total, 1)
}

// IncrementFailed increases the count of failed requests.
func (m *DispatchMetrics) IncrementFailed() {
	atomic.AddInt64(&m.Failed, 1)
}

// IncrementSuccess increases the count of successful requests.
func (m *DispatchMetrics) IncrementSuccess() {
	atomic.AddInt64(&m.Success, 1)
}

// IncrementShortCircuited increases the count of requests ended by a middleware.
func (m *DispatchMetrics) IncrementShortCircuited() {
	atomic.AddInt64(&m.ShortCircuited, 1)
}

// Get returns a consistent-per-field copy of the counters.
func (m *DispatchMetrics) Get() DispatchMetrics {
	return DispatchMetrics{
		Current:        atomic.LoadInt64(&m.Current),
		Total:          atomic.LoadInt64(&m.Total),
		Failed:         atomic.LoadInt64(&m.Failed),
		Success:        atomic.LoadInt64(&m.Success),
		ShortCircuited: atomic.LoadInt64(&m.ShortCircuited),
	}
}

// Reset resets all counters to zero.
func (m *DispatchMetrics) Reset() {
	atomic.StoreInt64(&m.Current, 0)
	atomic.StoreInt64(&m.Total, 0)
	atomic.StoreInt64(&m.Failed, 0)
	atomic.StoreInt64(&m.Success, 0)
	atomic.StoreInt64(&m.ShortCircuited, 0)
}
