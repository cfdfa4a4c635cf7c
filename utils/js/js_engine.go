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

// Package js runs JavaScript functions with goja. Each engine owns one
// compiled script and a pool of VMs that already evaluated it, so a function
// defined by the script can be called concurrently.
package js

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dancespiele/pyrite-server/api/types"
	"github.com/dancespiele/pyrite-server/builtin/funcs"
	"github.com/dop251/goja"
)

// ErrTimeout is the interrupt value of a call that exceeded ScriptMaxExecutionTime.
var ErrTimeout = errors.New("execution timeout")

// GojaJsEngine goja js engine
type GojaJsEngine struct {
	vmPool  sync.Pool
	config  types.Config
	program *goja.Program
	vars    map[string]interface{}
}

// NewGojaJsEngine compiles script and evaluates it once to report script errors early.
// The functions of funcs.ScriptFunc and vars are set as globals on every VM,
// vars taking precedence.
func NewGojaJsEngine(config types.Config, script string, vars map[string]interface{}) (*GojaJsEngine, error) {
	program, err := goja.Compile("", script, true)
	if err != nil {
		return nil, err
	}
	globals := funcs.ScriptFunc.GetAll()
	for k, v := range vars {
		globals[k] = v
	}
	g := &GojaJsEngine{
		config:  config,
		program: program,
		vars:    globals,
	}
	vm, err := g.newVm()
	if err != nil {
		return nil, err
	}
	g.vmPool.Put(vm)
	g.vmPool.New = func() interface{} {
		vm, err := g.newVm()
		if err != nil {
			config.Printf("js vm error: %s", err.Error())
			return goja.New()
		}
		return vm
	}
	return g, nil
}

func (g *GojaJsEngine) newVm() (*goja.Runtime, error) {
	vm := goja.New()
	for k, v := range g.vars {
		if err := vm.Set(k, v); err != nil {
			return nil, fmt.Errorf("set var %s: %w", k, err)
		}
	}
	timer := g.startTimeout(vm)
	_, err := vm.RunProgram(g.program)
	g.stopTimeout(vm, timer)
	if err != nil {
		return nil, err
	}
	return vm, nil
}

// Execute calls the script function functionName with args and exports the result.
func (g *GojaJsEngine) Execute(functionName string, args ...interface{}) (out interface{}, err error) {
	defer func() {
		if caught := recover(); caught != nil {
			err = fmt.Errorf("%s", caught)
		}
	}()

	vm := g.vmPool.Get().(*goja.Runtime)
	defer g.vmPool.Put(vm)

	f, ok := goja.AssertFunction(vm.Get(functionName))
	if !ok {
		return nil, errors.New(functionName + " is not a function")
	}

	params := make([]goja.Value, len(args))
	for i, v := range args {
		params[i] = vm.ToValue(v)
	}

	timer := g.startTimeout(vm)
	defer g.stopTimeout(vm, timer)

	res, err := f(goja.Undefined(), params...)
	if err != nil {
		var interrupted *goja.InterruptedError
		if errors.As(err, &interrupted) {
			return nil, ErrTimeout
		}
		return nil, err
	}
	return res.Export(), nil
}

func (g *GojaJsEngine) startTimeout(vm *goja.Runtime) *time.Timer {
	if g.config.ScriptMaxExecutionTime <= 0 {
		return nil
	}
	return time.AfterFunc(g.config.ScriptMaxExecutionTime, func() {
		vm.Interrupt(ErrTimeout)
	})
}

// stopTimeout stops the timer and clears a pending interrupt so the VM can be reused.
func (g *GojaJsEngine) stopTimeout(vm *goja.Runtime, timer *time.Timer) {
	if timer != nil {
		timer.Stop()
		vm.ClearInterrupt()
	}
}
