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

package server

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dancespiele/pyrite-server/api/types"
	"github.com/dancespiele/pyrite-server/plugins"
	"github.com/dancespiele/pyrite-server/utils/cast"
	"github.com/dancespiele/pyrite-server/utils/maps"
	"github.com/robfig/cron/v3"
)

const (
	SchedulerName = "scheduler"
	// ScheduleParam is the handler parameter receiving the schedule callback.
	ScheduleParam = "schedule"
)

func init() {
	plugins.Builtins.Register(SchedulerName, func(config types.Configuration) (types.Plugin, error) {
		return NewScheduler(config)
	})
}

// SchedulerConfiguration 定时任务插件配置
type SchedulerConfiguration struct {
	// WithSeconds accepts six field cron expressions, seconds first. Default true.
	WithSeconds bool
	// StopTimeout bounds the wait for running jobs on shutdown, default 10s.
	StopTimeout time.Duration
}

// Scheduler gives handlers a "schedule" callback backed by robfig/cron:
// schedule(spec, job) adds a job and returns its entry id, schedule("remove", id)
// removes it. Jobs are func() or func() error.
// 定时任务插件：处理函数通过schedule参数注册cron任务
type Scheduler struct {
	Config SchedulerConfiguration

	cron   *cron.Cron
	lock   sync.RWMutex
	logger types.Logger
}

var _ types.ServerPlugin = (*Scheduler)(nil)

func NewScheduler(configuration types.Configuration) (*Scheduler, error) {
	x := &Scheduler{
		Config: SchedulerConfiguration{WithSeconds: true, StopTimeout: 10 * time.Second},
		logger: types.DefaultLogger(),
	}
	if err := maps.Map2Struct(configuration, &x.Config); err != nil {
		return nil, err
	}
	opts := []cron.Option{cron.WithChain(cron.Recover(cron.PrintfLogger(x)))}
	if x.Config.WithSeconds {
		opts = append(opts, cron.WithSeconds())
	}
	x.cron = cron.New(opts...)
	return x, nil
}

func (x *Scheduler) Name() string {
	return SchedulerName
}

func (x *Scheduler) Kind() types.PluginKind {
	return types.PluginServer
}

func (x *Scheduler) ParamName() string {
	return ScheduleParam
}

func (x *Scheduler) Load(target *types.Controller, method *types.MethodDescriptor) (types.Callback, error) {
	return func(req *types.Request, res *types.Response, args ...interface{}) (interface{}, error) {
		if len(args) < 2 {
			return nil, fmt.Errorf("schedule: expected (spec, job) or (\"remove\", id)")
		}
		spec := cast.ToString(args[0])
		if spec == "remove" {
			id, err := cast.ToIntE(args[1])
			if err != nil {
				return nil, fmt.Errorf("schedule: %w", err)
			}
			x.Remove(cron.EntryID(id))
			return id, nil
		}
		return x.Add(spec, args[1])
	}, nil
}

// Add schedules job, a func() or func() error, and returns its entry id.
func (x *Scheduler) Add(spec string, job interface{}) (int, error) {
	var fn func()
	switch j := job.(type) {
	case func():
		fn = j
	case func() error:
		fn = func() {
			if err := j(); err != nil {
				x.Printf("scheduled job %s error: %v", spec, err)
			}
		}
	default:
		return 0, fmt.Errorf("schedule: job is %T, expected func() or func() error", job)
	}
	id, err := x.cron.AddFunc(spec, fn)
	if err != nil {
		return 0, fmt.Errorf("schedule %q: %w", spec, err)
	}
	return int(id), nil
}

// Remove removes the job with entry id.
func (x *Scheduler) Remove(id cron.EntryID) {
	x.cron.Remove(id)
}

// Entries returns the number of scheduled jobs.
func (x *Scheduler) Entries() int {
	return len(x.cron.Entries())
}

// Run starts the cron loop and stops it on server shutdown.
func (x *Scheduler) Run(server types.Server) error {
	x.lock.Lock()
	x.logger = types.NewLogger(server.Config().Logger)
	x.lock.Unlock()
	x.cron.Start()
	server.OnShutdown(x.Stop)
	return nil
}

// Stop stops the cron loop and waits for running jobs up to StopTimeout.
func (x *Scheduler) Stop() {
	ctx := x.cron.Stop()
	timeout := x.Config.StopTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	waitCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	select {
	case <-ctx.Done():
	case <-waitCtx.Done():
		x.Printf("scheduler stop timeout after %s", timeout)
	}
}

// Printf logs through the server logger, also used by cron.
func (x *Scheduler) Printf(format string, v ...interface{}) {
	x.lock.RLock()
	logger := x.logger
	x.lock.RUnlock()
	logger.Printf(format, v...)
}
