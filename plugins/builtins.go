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

package plugins

import (
	"fmt"
	"sort"
	"sync"

	"github.com/dancespiele/pyrite-server/api/types"
)

// Factory creates a plugin from its configuration.
type Factory func(config types.Configuration) (types.Plugin, error)

// Builtins are the plugin factories, the config file and the DSL create plugins by name.
// Builtins 内置插件工厂，配置文件通过name创建对应的插件
var Builtins = builtins{}

type builtins struct {
	factories map[string]Factory
	lock      sync.RWMutex
}

// Register 注册插件工厂
func (b *builtins) Register(name string, factory Factory) {
	b.lock.Lock()
	defer b.lock.Unlock()
	if b.factories == nil {
		b.factories = make(map[string]Factory)
	}
	b.factories[name] = factory
}

// Unregister 删除插件工厂
func (b *builtins) Unregister(names ...string) {
	b.lock.Lock()
	defer b.lock.Unlock()
	for _, name := range names {
		delete(b.factories, name)
	}
}

// Get 获取插件工厂
func (b *builtins) Get(name string) (Factory, bool) {
	b.lock.RLock()
	defer b.lock.RUnlock()
	f, ok := b.factories[name]
	return f, ok
}

// Names returns the registered factory names, sorted.
func (b *builtins) Names() []string {
	b.lock.RLock()
	defer b.lock.RUnlock()
	names := make([]string, 0, len(b.factories))
	for name := range b.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New creates the plugin registered as name.
func (b *builtins) New(name string, config types.Configuration) (types.Plugin, error) {
	f, ok := b.Get(name)
	if !ok {
		return nil, types.NewConfigError("", "plugin not found. name=%s", name)
	}
	p, err := f(config)
	if err != nil {
		return nil, fmt.Errorf("create plugin %s: %w", name, err)
	}
	return p, nil
}
