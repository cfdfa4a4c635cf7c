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

package route

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"reflect"

	"github.com/dancespiele/pyrite-server/api/types"
)

var (
	contextType  = reflect.TypeOf((*context.Context)(nil)).Elem()
	errorType    = reflect.TypeOf((*error)(nil)).Elem()
	requestType  = reflect.TypeOf((*types.Request)(nil))
	responseType = reflect.TypeOf((*types.Response)(nil))
)

// handler is a handler function checked once at registration and called by reflection.
//
// Accepted shapes: an optional leading context.Context, then one argument per
// parameter descriptor, or a prefix of (*Request, *Response) without
// descriptors. Results are (), (T), (error) or (T, error).
type handler struct {
	fn          reflect.Value
	in          []reflect.Type
	withContext bool
	hasValue    bool
	hasError    bool
}

func newHandler(route string, fn interface{}, params int) (*handler, error) {
	if fn == nil {
		return nil, types.NewConfigError(route, "no handler")
	}
	v := reflect.ValueOf(fn)
	t := v.Type()
	if t.Kind() != reflect.Func {
		return nil, types.NewConfigError(route, "handler is %T, not a function", fn)
	}
	if t.IsVariadic() {
		return nil, types.NewConfigError(route, "variadic handler %s is not supported", t)
	}
	h := &handler{fn: v}
	offset := 0
	if t.NumIn() > 0 && t.In(0) == contextType {
		h.withContext = true
		offset = 1
	}
	for i := offset; i < t.NumIn(); i++ {
		h.in = append(h.in, t.In(i))
	}
	if params == 0 {
		defaults := []reflect.Type{requestType, responseType}
		if len(h.in) > len(defaults) {
			return nil, types.NewConfigError(route, "handler %s without parameter descriptors takes at most (*types.Request, *types.Response)", t)
		}
		for i, in := range h.in {
			if !defaults[i].AssignableTo(in) {
				return nil, types.NewConfigError(route, "argument %d of handler %s must accept %s", i, t, defaults[i])
			}
		}
	} else if len(h.in) != params {
		return nil, types.NewConfigError(route, "handler %s takes %d arguments, %d parameters declared", t, len(h.in), params)
	}
	switch t.NumOut() {
	case 0:
	case 1:
		if t.Out(0) == errorType {
			h.hasError = true
		} else {
			h.hasValue = true
		}
	case 2:
		if t.Out(1) != errorType {
			return nil, types.NewConfigError(route, "second result of handler %s must be error", t)
		}
		h.hasValue = true
		h.hasError = true
	default:
		return nil, types.NewConfigError(route, "handler %s returns too many values", t)
	}
	return h, nil
}

// call invokes the handler. Argument mismatches are reported as 400 errors.
func (h *handler) call(ctx context.Context, args []interface{}) (interface{}, error) {
	in := make([]reflect.Value, 0, len(h.in)+1)
	if h.withContext {
		in = append(in, reflect.ValueOf(ctx))
	}
	if len(args) > len(h.in) {
		args = args[:len(h.in)]
	}
	for i, arg := range args {
		v, err := convertArg(arg, h.in[i])
		if err != nil {
			return nil, &types.StatusError{
				Status: http.StatusBadRequest,
				Body:   fmt.Sprintf("argument %d: %s", i, err.Error()),
				Err:    err,
			}
		}
		in = append(in, v)
	}
	out := h.fn.Call(in)

	var result interface{}
	var err error
	if h.hasValue {
		result = out[0].Interface()
	}
	if h.hasError {
		if e := out[len(out)-1]; !e.IsNil() {
			err = e.Interface().(error)
		}
	}
	return result, err
}

func convertArg(arg interface{}, t reflect.Type) (reflect.Value, error) {
	if arg == nil {
		return reflect.Zero(t), nil
	}
	v := reflect.ValueOf(arg)
	if v.Type().AssignableTo(t) {
		return v, nil
	}
	if isNumber(v.Kind()) && isNumber(t.Kind()) {
		return convertNumber(v, t)
	}
	if v.Kind() == reflect.Func && t.Kind() == reflect.Func && v.Type().ConvertibleTo(t) {
		return v.Convert(t), nil
	}
	return reflect.Value{}, fmt.Errorf("cannot use %T as %s", arg, t)
}

// convertNumber converts only when the value is representable in t without
// loss: no overflow, no negative unsigned and no fractional integer.
func convertNumber(v reflect.Value, t reflect.Type) (reflect.Value, error) {
	target := reflect.New(t).Elem()
	var ok bool
	switch v.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		ok = fitsInt(target, v.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		ok = fitsUint(target, v.Uint())
	default:
		f := v.Float()
		switch {
		case isFloat(t.Kind()):
			ok = !target.OverflowFloat(f)
		case math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f):
			ok = false
		case f < 0:
			ok = f >= math.MinInt64 && fitsInt(target, int64(f))
		default:
			ok = f < math.MaxUint64 && fitsUint(target, uint64(f))
		}
	}
	if !ok {
		return reflect.Value{}, fmt.Errorf("cannot use %v as %s without loss", v.Interface(), t)
	}
	return v.Convert(t), nil
}

func fitsInt(target reflect.Value, x int64) bool {
	switch {
	case isFloat(target.Kind()):
		return true
	case isUnsigned(target.Kind()):
		return x >= 0 && !target.OverflowUint(uint64(x))
	}
	return !target.OverflowInt(x)
}

func fitsUint(target reflect.Value, x uint64) bool {
	switch {
	case isFloat(target.Kind()):
		return true
	case isUnsigned(target.Kind()):
		return !target.OverflowUint(x)
	}
	return x <= math.MaxInt64 && !target.OverflowInt(int64(x))
}

func isFloat(k reflect.Kind) bool {
	return k == reflect.Float32 || k == reflect.Float64
}

func isUnsigned(k reflect.Kind) bool {
	switch k {
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return true
	}
	return false
}

func isNumber(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}
