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

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/dancespiele/pyrite-server/api/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `
server: 127.0.0.1:8080
debug: true
maxWorkers: 16
scriptMaxExecutionTime: 500ms
routes: ./routes.yaml
plugins:
  - name: requestId
  - name: rateLimit
    config:
      rps: 10
      burst: 20
`

func TestParse(t *testing.T) {
	c, err := Parse([]byte(sample))
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:8080", c.Server)
	assert.True(t, c.Debug)
	assert.Equal(t, 16, c.MaxWorkers)
	assert.Equal(t, 500*time.Millisecond, c.ScriptMaxExecutionTime)
	assert.Equal(t, "/metrics", c.MetricsPath)
	require.Len(t, c.Plugins, 2)
	assert.Equal(t, "requestId", c.Plugins[0].Name)
	assert.Equal(t, types.Configuration{"rps": 10, "burst": 20}, c.Plugins[1].Config)

	dispatch := types.NewConfig(c.Options()...)
	assert.True(t, dispatch.Debug)
	assert.Equal(t, 500*time.Millisecond, dispatch.ScriptMaxExecutionTime)
}

func TestValidate(t *testing.T) {
	for _, src := range []string{
		"server: ''",
		"maxWorkers: -1",
		"certFile: a.pem",
		"plugins: [{config: {}}]",
	} {
		_, err := Parse([]byte(src))
		assert.Error(t, err, src)
	}
	_, err := Parse([]byte("server: ["))
	assert.Error(t, err)
}

func TestLoad(t *testing.T) {
	c, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig, c)

	file := filepath.Join(t.TempDir(), "pyrite.yaml")
	require.NoError(t, os.WriteFile(file, []byte(sample), 0644))
	c, err = Load(file)
	require.NoError(t, err)
	assert.Equal(t, "./routes.yaml", c.Routes)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
