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

// Package config loads the yaml configuration of the pyrite server.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/dancespiele/pyrite-server/api/types"
	"github.com/dancespiele/pyrite-server/utils/maps"
	"gopkg.in/yaml.v3"
)

// Config 服务配置
type Config struct {
	// Server http服务器地址
	Server string `yaml:"server"`
	// CertFile/CertKeyFile 开启TLS
	CertFile    string `yaml:"certFile"`
	CertKeyFile string `yaml:"certKeyFile"`
	// LogFile 日志文件，为空则输出到标准输出
	LogFile string `yaml:"logFile"`
	//是否打印每个请求的完成日志
	Debug bool `yaml:"debug"`
	// MetricsPath prometheus指标路径，为空则不开启
	MetricsPath string `yaml:"metricsPath"`
	// MaxWorkers 处理函数协程池大小，0表示每个请求新建协程
	MaxWorkers int `yaml:"maxWorkers"`
	// MaxBodyBytes 请求体最大字节数
	MaxBodyBytes int64 `yaml:"maxBodyBytes"`
	// ScriptMaxExecutionTime js脚本最大执行时间
	ScriptMaxExecutionTime time.Duration `yaml:"scriptMaxExecutionTime"`
	// Routes 路由DSL文件
	Routes string `yaml:"routes"`
	// Plugins 按顺序注册的插件
	Plugins []Plugin `yaml:"plugins"`
}

// Plugin names a builtin plugin and its configuration.
type Plugin struct {
	Name   string              `yaml:"name"`
	Config types.Configuration `yaml:"config"`
}

// DefaultConfig 默认配置
var DefaultConfig = Config{
	Server:                 ":9090",
	MetricsPath:            "/metrics",
	MaxWorkers:             1000,
	ScriptMaxExecutionTime: 2 * time.Second,
}

// Parse decodes yaml data over DefaultConfig.
func Parse(data []byte) (Config, error) {
	c := DefaultConfig
	var raw interface{}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return c, fmt.Errorf("parse config: %w", err)
	}
	if raw != nil {
		if err := maps.Map2Struct(raw, &c); err != nil {
			return c, fmt.Errorf("parse config: %w", err)
		}
	}
	return c, c.Validate()
}

// Load reads the config file. An empty file name returns DefaultConfig.
func Load(file string) (Config, error) {
	if file == "" {
		return DefaultConfig, nil
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return DefaultConfig, err
	}
	return Parse(data)
}

// Validate checks the values that can not be defaulted.
func (c Config) Validate() error {
	if c.Server == "" {
		return fmt.Errorf("config: server is required")
	}
	if c.MaxWorkers < 0 {
		return fmt.Errorf("config: maxWorkers must not be negative")
	}
	if (c.CertFile == "") != (c.CertKeyFile == "") {
		return fmt.Errorf("config: certFile and certKeyFile must be set together")
	}
	for i, p := range c.Plugins {
		if p.Name == "" {
			return fmt.Errorf("config: plugins[%d] has no name", i)
		}
	}
	return nil
}

// Options returns the dispatch options derived from the config.
func (c Config) Options() []types.Option {
	opts := []types.Option{types.WithDebug(c.Debug)}
	if c.ScriptMaxExecutionTime > 0 {
		opts = append(opts, types.WithScriptMaxExecutionTime(c.ScriptMaxExecutionTime))
	}
	return opts
}
