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
	"net/http"

	"github.com/dancespiele/pyrite-server/api/types"
)

// coercion applies the method coercers to the path parameters, in the order
// the parameters appear in the path template.
type coercion struct {
	names    []string
	coercers []types.Coercer
}

// newCoercion returns nil when the method declares no coercer.
func newCoercion(route, path string, coercers []types.Coercer) (*coercion, error) {
	if len(coercers) == 0 {
		return nil, nil
	}
	names := types.PathParamNames(path)
	if len(names) != len(coercers) {
		return nil, types.NewConfigError(route, "%d type coercers for %d path parameters %v", len(coercers), len(names), names)
	}
	return &coercion{names: names, coercers: coercers}, nil
}

// apply overwrites the raw path parameters with the coerced values. A nil
// coercer leaves its parameter untouched, so does an absent parameter.
func (c *coercion) apply(req *types.Request) error {
	if c == nil {
		return nil
	}
	for i, name := range c.names {
		coerce := c.coercers[i]
		if coerce == nil {
			continue
		}
		raw, ok := req.Params[name].(string)
		if !ok {
			continue
		}
		v, err := coerce(raw)
		if err != nil {
			return &types.StatusError{
				Status: http.StatusBadRequest,
				Body:   "invalid path parameter " + name + ": " + err.Error(),
				Err:    err,
			}
		}
		req.Params[name] = v
	}
	return nil
}
