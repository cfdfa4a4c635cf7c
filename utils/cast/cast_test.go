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

package cast

import (
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestToIntE(t *testing.T) {
	tests := []struct {
		name   string
		input  interface{}
		expect int
		hasErr bool
	}{
		{"int", 123, 123, false},
		{"int8", int8(12), 12, false},
		{"uint64", uint64(123), 123, false},
		{"float64", 1.9, 1, false},
		{"string", "42", 42, false},
		{"padded string", " 42 ", 42, false},
		{"negative string", "-7", -7, false},
		{"json number", json.Number("8"), 8, false},
		{"bool", true, 1, false},
		{"invalid string", "abc", 0, true},
		{"float string", "1.5", 0, true},
		{"invalid type", []int{1}, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ToIntE(tt.input)
			if tt.hasErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.expect, got)
			assert.Equal(t, tt.expect, ToInt(tt.input))
		})
	}
}

func TestToFloat64E(t *testing.T) {
	tests := []struct {
		name   string
		input  interface{}
		expect float64
		hasErr bool
	}{
		{"float", 1.5, 1.5, false},
		{"int", 3, 3, false},
		{"string", "2.25", 2.25, false},
		{"invalid", "x", 0, true},
		{"map", map[string]int{}, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ToFloat64E(tt.input)
			assert.Equal(t, tt.hasErr, err != nil)
			assert.Equal(t, tt.expect, got)
		})
	}
}

func TestToBoolE(t *testing.T) {
	tests := []struct {
		input  interface{}
		expect bool
		hasErr bool
	}{
		{true, true, false},
		{"true", true, false},
		{"0", false, false},
		{"T", true, false},
		{1, true, false},
		{0.0, false, false},
		{nil, false, false},
		{"yes", false, true},
	}
	for _, tt := range tests {
		got, err := ToBoolE(tt.input)
		assert.Equal(t, tt.hasErr, err != nil, "%v", tt.input)
		assert.Equal(t, tt.expect, got, "%v", tt.input)
	}
}

func TestToDurationE(t *testing.T) {
	d, err := ToDurationE("1m30s")
	assert.NoError(t, err)
	assert.Equal(t, 90*time.Second, d)

	d, err = ToDurationE(int64(time.Second))
	assert.NoError(t, err)
	assert.Equal(t, time.Second, d)

	_, err = ToDurationE("soon")
	assert.Error(t, err)
}

func TestToStringE(t *testing.T) {
	tests := []struct {
		input  interface{}
		expect string
	}{
		{nil, ""},
		{"a", "a"},
		{[]byte("b"), "b"},
		{false, "false"},
		{1.5, "1.5"},
		{uint8(7), "7"},
		{int64(-3), "-3"},
		{errors.New("boom"), "boom"},
		{time.Second, "1s"},
		{map[string]int{"a": 1}, `{"a":1}`},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.expect, ToString(tt.input))
	}
}
