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

package types

import (
	"io"
	"log"
	"os"
)

// Logger is the logging interface used by the dispatcher, the plugin registry and the host server.
// Logger 日志接口
type Logger interface {
	Printf(format string, v ...interface{})
}

var _ Logger = &log.Logger{}

// DefaultLogger returns a `Logger` implementation writing to stdout.
func DefaultLogger() *log.Logger {
	return log.New(os.Stdout, "", log.LstdFlags)
}

// NewLogger returns custom if it is not nil, otherwise DefaultLogger.
func NewLogger(custom Logger) Logger {
	if custom != nil {
		return custom
	}
	return DefaultLogger()
}

// NewFileLogger opens (or creates) file in append mode and returns a logger writing to it.
// An empty file name yields DefaultLogger. The returned closer must be closed on shutdown.
func NewFileLogger(file string) (*log.Logger, io.Closer, error) {
	if file == "" {
		return DefaultLogger(), io.NopCloser(nil), nil
	}
	f, err := os.OpenFile(file, os.O_APPEND|os.O_WRONLY|os.O_CREATE, 0644)
	if err != nil {
		return nil, nil, err
	}
	return log.New(f, "", log.LstdFlags), f, nil
}

// discardLogger drops everything, used when a component is built without a Config.
type discardLogger struct{}

func (discardLogger) Printf(string, ...interface{}) {}

// DiscardLogger returns a Logger that drops all output.
func DiscardLogger() Logger {
	return discardLogger{}
}
