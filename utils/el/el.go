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

// Package el compiles and runs expr-lang expressions. Programs are compiled
// once at route registration and run concurrently by every request.
//
// Package el 编译并执行expr表达式，路由注册时编译，请求时并发执行。
package el

import (
	"fmt"
	"strings"

	"github.com/dancespiele/pyrite-server/builtin/funcs"
	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// Program is a compiled expression.
type Program struct {
	Src     string
	program *vm.Program
	funcs   map[string]interface{}
}

// Compile compiles src. Variables missing from the environment evaluate to nil.
// The functions registered in funcs.ExprFunc at compile time are in scope.
func Compile(src string) (*Program, error) {
	src = strings.TrimSpace(src)
	if src == "" {
		return nil, fmt.Errorf("empty expression")
	}
	program, err := expr.Compile(src, expr.AllowUndefinedVariables())
	if err != nil {
		return nil, err
	}
	return &Program{Src: src, program: program, funcs: funcs.ExprFunc.GetAll()}, nil
}

// Run evaluates the program against env. Keys of env shadow functions.
func (p *Program) Run(env map[string]interface{}) (interface{}, error) {
	if len(p.funcs) > 0 {
		merged := make(map[string]interface{}, len(p.funcs)+len(env))
		for k, v := range p.funcs {
			merged[k] = v
		}
		for k, v := range env {
			merged[k] = v
		}
		env = merged
	}
	return expr.Run(p.program, env)
}

// RunBool evaluates the program and requires a bool result.
func (p *Program) RunBool(env map[string]interface{}) (bool, error) {
	out, err := p.Run(env)
	if err != nil {
		return false, err
	}
	b, ok := out.(bool)
	if !ok {
		return false, fmt.Errorf("expression %q returned %T, expected bool", p.Src, out)
	}
	return b, nil
}

func (p *Program) String() string {
	return p.Src
}
