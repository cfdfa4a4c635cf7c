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

package test

import (
	"context"
	"net/http"
	"sync"

	"github.com/dancespiele/pyrite-server/api/types"
)

// Recorder is a types.ResponseWriter that keeps the written response.
type Recorder struct {
	lock   sync.Mutex
	Writes int
	Code   int
	Header http.Header
	Body   interface{}
}

func (r *Recorder) WriteResponse(status int, header http.Header, body interface{}) error {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.Writes++
	r.Code = status
	r.Header = header.Clone()
	r.Body = body
	return nil
}

// NewRequest creates a request with path parameters given as name, value pairs.
func NewRequest(method, path string, params ...string) *types.Request {
	req := types.NewRequest(context.Background(), method, path)
	for i := 0; i+1 < len(params); i += 2 {
		req.Params[params[i]] = params[i+1]
	}
	return req
}

// NewResponse creates a response writing to a new Recorder.
func NewResponse() (*types.Response, *Recorder) {
	rec := &Recorder{}
	return types.NewResponse(rec), rec
}
