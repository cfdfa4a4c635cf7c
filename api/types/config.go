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

import (
	"sort"
	"time"
)

// Configuration is a loosely typed component configuration, decoded into a typed
// config struct with maps.Map2Struct.
// Configuration 组件配置类型
type Configuration map[string]interface{}

// Pool runs handler invocations. If it is not configured, a new goroutine is used per task.
// It is compatible with ants and similar goroutine pools.
type Pool interface {
	Submit(task func()) error
}

// Config is the dispatch configuration shared by every route mounted on a host server.
// Config 路由分发配置
type Config struct {
	// Logger is the logging interface, defaulting to `DefaultLogger()`.
	Logger Logger
	// Pool runs the handler invocation task of every request. Nil means `go task()`.
	Pool Pool
	// Aspects are the dispatch hooks: route loaded, dispatch started, dispatch completed.
	Aspects []Aspect
	// ScriptMaxExecutionTime bounds `js:` transforms, defaulting to 2000 milliseconds.
	ScriptMaxExecutionTime time.Duration
	// Debug enables per-request completion log lines.
	Debug bool
}

// NewConfig creates a new Config with default values and applies the provided options.
func NewConfig(opts ...Option) Config {
	c := &Config{
		ScriptMaxExecutionTime: time.Millisecond * 2000,
		Logger:                 DefaultLogger(),
	}
	for _, opt := range opts {
		_ = opt(c)
	}
	return *c
}

// Printf logs through the configured logger, ignoring a nil logger.
func (c Config) Printf(format string, v ...interface{}) {
	if c.Logger != nil {
		c.Logger.Printf(format, v...)
	}
}

// SortedAspects returns a copy of the aspects ordered by Order(), smallest first.
func (c Config) SortedAspects() []Aspect {
	aspects := make([]Aspect, len(c.Aspects))
	copy(aspects, c.Aspects)
	sort.SliceStable(aspects, func(i, j int) bool {
		return aspects[i].Order() < aspects[j].Order()
	})
	return aspects
}
