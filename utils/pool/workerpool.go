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

// Package pool bounds the number of concurrently running handler tasks.
//
// Package pool 限制并发执行的处理函数任务数量。
package pool

import (
	"errors"
	"sync"
)

var (
	// ErrNoIdleWorkers is returned by Submit when MaxWorkersCount tasks are running.
	ErrNoIdleWorkers = errors.New("no idle workers")
	// ErrPoolStopped is returned by Submit after Stop.
	ErrPoolStopped = errors.New("worker pool stopped")
)

// WorkerPool runs each submitted task on its own goroutine, at most
// MaxWorkersCount at a time. Submit never blocks.
type WorkerPool struct {
	// MaxWorkersCount is the maximum number of running tasks, 0 means no limit.
	MaxWorkersCount int

	lock    sync.Mutex
	running int
	stopped bool
	wg      sync.WaitGroup
}

// NewWorkerPool creates a started pool.
func NewWorkerPool(maxWorkersCount int) *WorkerPool {
	wp := &WorkerPool{MaxWorkersCount: maxWorkersCount}
	wp.Start()
	return wp
}

// Start makes the pool accept tasks again after Stop.
func (wp *WorkerPool) Start() {
	wp.lock.Lock()
	wp.stopped = false
	wp.lock.Unlock()
}

// Submit runs fn on a new goroutine.
func (wp *WorkerPool) Submit(fn func()) error {
	wp.lock.Lock()
	if wp.stopped {
		wp.lock.Unlock()
		return ErrPoolStopped
	}
	if wp.MaxWorkersCount > 0 && wp.running >= wp.MaxWorkersCount {
		wp.lock.Unlock()
		return ErrNoIdleWorkers
	}
	wp.running++
	wp.wg.Add(1)
	wp.lock.Unlock()

	go func() {
		defer func() {
			wp.lock.Lock()
			wp.running--
			wp.lock.Unlock()
			wp.wg.Done()
		}()
		fn()
	}()
	return nil
}

// Running returns the number of running tasks.
func (wp *WorkerPool) Running() int {
	wp.lock.Lock()
	defer wp.lock.Unlock()
	return wp.running
}

// Stop rejects new tasks and waits for the running ones.
func (wp *WorkerPool) Stop() {
	wp.lock.Lock()
	wp.stopped = true
	wp.lock.Unlock()
	wp.wg.Wait()
}

// Release is an alias of Stop.
func (wp *WorkerPool) Release() {
	wp.Stop()
}
