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

package middleware

//插件配置示例：
//{
//  "name": "rateLimit",
//  "config": {
//    "rps": 10,
//    "burst": 20,
//    "idleTTL": "10m",
//    "keyHeader": "X-Api-Key"
//  }
//}
import (
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/dancespiele/pyrite-server/api/types"
	"github.com/dancespiele/pyrite-server/plugins"
	"github.com/dancespiele/pyrite-server/utils/maps"
	"golang.org/x/time/rate"
)

const RateLimitName = "rateLimit"

func init() {
	plugins.Builtins.Register(RateLimitName, func(config types.Configuration) (types.Plugin, error) {
		return NewRateLimit(config)
	})
}

// RateLimitConfiguration 限流插件配置
type RateLimitConfiguration struct {
	// Rps is the refill rate of each client bucket, in requests per second.
	Rps float64
	// Burst is the bucket size.
	Burst int
	// IdleTTL evicts the bucket of a client idle for longer, default 10m.
	IdleTTL time.Duration
	// KeyHeader identifies the client by a request header instead of the remote address.
	KeyHeader string
}

// RateLimit answers 429 when a client exceeds its token bucket.
// 令牌桶限流，每个客户端一个桶，超出后返回429
type RateLimit struct {
	Config RateLimitConfiguration

	mu    sync.Mutex
	byKey map[string]*bucket
	hits  uint64
	now   func() time.Time
}

type bucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

var _ types.MiddlewarePlugin = (*RateLimit)(nil)

// NewRateLimit creates the plugin from its configuration. Rps and Burst must be positive.
func NewRateLimit(configuration types.Configuration) (*RateLimit, error) {
	x := &RateLimit{
		Config: RateLimitConfiguration{IdleTTL: 10 * time.Minute},
		byKey:  make(map[string]*bucket),
		now:    time.Now,
	}
	if err := maps.Map2Struct(configuration, &x.Config); err != nil {
		return nil, err
	}
	if x.Config.Rps <= 0 || x.Config.Burst <= 0 {
		return nil, types.NewConfigError("", "rateLimit: rps and burst must be positive")
	}
	if x.Config.IdleTTL <= 0 {
		x.Config.IdleTTL = 10 * time.Minute
	}
	return x, nil
}

func (x *RateLimit) Name() string {
	return RateLimitName
}

func (x *RateLimit) Kind() types.PluginKind {
	return types.PluginMiddleware
}

// Run reports true, with a 429 response already sent, when the client has no token left.
func (x *RateLimit) Run(req *types.Request, res *types.Response, route types.Route) bool {
	if x.Allow(x.key(req)) {
		return false
	}
	res.Headers().Set("Retry-After", "1")
	_ = res.Send(http.StatusTooManyRequests, map[string]interface{}{types.ErrorField: "too many requests"})
	return true
}

// Allow consumes one token of key. Idle buckets are evicted every 512 calls.
func (x *RateLimit) Allow(key string) bool {
	if key == "" {
		return true
	}
	now := x.now()
	x.mu.Lock()
	defer x.mu.Unlock()

	b, ok := x.byKey[key]
	if !ok {
		b = &bucket{limiter: rate.NewLimiter(rate.Limit(x.Config.Rps), x.Config.Burst)}
		x.byKey[key] = b
	}
	b.lastSeen = now
	allowed := b.limiter.AllowN(now, 1)

	x.hits++
	if x.hits%512 == 0 {
		cutoff := now.Add(-x.Config.IdleTTL)
		for k, v := range x.byKey {
			if v.lastSeen.Before(cutoff) {
				delete(x.byKey, k)
			}
		}
	}
	return allowed
}

func (x *RateLimit) key(req *types.Request) string {
	if x.Config.KeyHeader != "" {
		if v := strings.TrimSpace(req.Header(x.Config.KeyHeader)); v != "" {
			return v
		}
	}
	if host, _, err := net.SplitHostPort(req.RemoteAddr); err == nil {
		return host
	}
	return req.RemoteAddr
}
