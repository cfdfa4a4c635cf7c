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

// Package json encodes response bodies and decodes request bodies.
package json

import (
	"bytes"
	"encoding/json"
	"io"
)

// Marshal marshals v without escaping &, < and >.
func Marshal(v interface{}) ([]byte, error) {
	return Marshal2(v, false)
}

// Marshal2 marshals v, escaping &, < and > when escapeHTML is true.
func Marshal2(v interface{}, escapeHTML bool) ([]byte, error) {
	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetEscapeHTML(escapeHTML)
	if err := encoder.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}

// Unmarshal json data to v.
func Unmarshal(b []byte, v interface{}) error {
	return json.Unmarshal(b, v)
}

// Decode reads one json value from r. Empty input decodes to nil.
func Decode(r io.Reader) (interface{}, error) {
	var v interface{}
	err := json.NewDecoder(r).Decode(&v)
	if err == io.EOF {
		return nil, nil
	}
	return v, err
}
