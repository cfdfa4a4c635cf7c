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

// Package rest is the http host server. It mounts controllers on a
// julienschmidt/httprouter router, turning each http request into a
// types.Request and writing the dispatcher response as json.
package rest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/dancespiele/pyrite-server/api/types"
	"github.com/dancespiele/pyrite-server/plugins"
	"github.com/dancespiele/pyrite-server/route"
	"github.com/dancespiele/pyrite-server/utils/json"
	"github.com/julienschmidt/httprouter"
)

const (
	ContentTypeKey      = "Content-Type"
	JsonContextType     = "application/json"
	FormContentType     = "application/x-www-form-urlencoded"
	TextContentType     = "text/plain; charset=utf-8"
	DefaultMaxBodyBytes = 4 << 20
)

// ErrServerStarted is returned by Start when the server is already listening.
var ErrServerStarted = errors.New("server already started")

// Config Rest 服务配置
type Config struct {
	// Server is the listen address, e.g. ":9090".
	Server      string
	CertFile    string
	CertKeyFile string
	// MaxBodyBytes bounds the request body, DefaultMaxBodyBytes when 0.
	MaxBodyBytes int64
	// ReadTimeout of the underlying http.Server, none when 0.
	ReadTimeout time.Duration
}

// Rest 接收端端点，实现types.Server
type Rest struct {
	//配置
	RestConfig Config

	config      types.Config
	router      *httprouter.Router
	registry    *plugins.Registry
	lock        sync.Mutex
	dispatchers []*route.Dispatcher
	shutdown    []func()
	server      *http.Server
	listener    net.Listener
}

var _ types.Server = (*Rest)(nil)

// New creates a server with an empty plugin registry.
func New(c Config, config types.Config) *Rest {
	if config.Logger == nil {
		config.Logger = types.DefaultLogger()
	}
	r := &Rest{
		RestConfig: c,
		config:     config,
		router:     httprouter.New(),
	}
	r.registry, _ = plugins.NewRegistry(r)
	r.router.PanicHandler = r.panicHandler
	return r
}

// Use registers plugins. It must be called before Mount for server plugins
// that routes depend on.
func (r *Rest) Use(ps ...types.Plugin) error {
	for _, p := range ps {
		if err := r.registry.Register(p); err != nil {
			return err
		}
	}
	return nil
}

// Mount builds a dispatcher for every method of target and adds it to the router.
// Nothing is mounted when one of the methods fails.
func (r *Rest) Mount(target *types.Controller) error {
	var built []*route.Dispatcher
	for _, m := range target.Methods {
		d, err := route.New(r, target, m)
		if err != nil {
			return err
		}
		built = append(built, d)
	}
	for _, d := range built {
		if err := r.add(d); err != nil {
			return err
		}
	}
	return nil
}

func (r *Rest) add(d *route.Dispatcher) (err error) {
	defer func() {
		//httprouter在路由冲突时panic
		if e := recover(); e != nil {
			err = types.NewConfigError(d.String(), "%v", e)
		}
	}()
	r.router.Handle(d.Action(), d.FullPath(), r.handler(d))
	r.lock.Lock()
	r.dispatchers = append(r.dispatchers, d)
	r.lock.Unlock()
	return nil
}

// Handle registers a raw http handler.
func (r *Rest) Handle(method, path string, handler http.Handler) {
	r.router.Handler(method, path, handler)
}

func (r *Rest) Config() types.Config {
	return r.config
}

func (r *Rest) Plugins() types.PluginRegistry {
	return r.registry
}

// Registry returns the concrete plugin registry.
func (r *Rest) Registry() *plugins.Registry {
	return r.registry
}

func (r *Rest) OnShutdown(fn func()) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.shutdown = append(r.shutdown, fn)
}

// Routes returns the mounted dispatchers in mount order.
func (r *Rest) Routes() []*route.Dispatcher {
	r.lock.Lock()
	defer r.lock.Unlock()
	return append([]*route.Dispatcher(nil), r.dispatchers...)
}

// Router returns the underlying router.
func (r *Rest) Router() *httprouter.Router {
	return r.router
}

// Handler returns the router as an http.Handler.
func (r *Rest) Handler() http.Handler {
	return r.router
}

// Start runs the server plugins and starts listening in the background.
func (r *Rest) Start() error {
	r.lock.Lock()
	if r.server != nil {
		r.lock.Unlock()
		return ErrServerStarted
	}
	r.lock.Unlock()

	if err := r.registry.Run(); err != nil {
		return err
	}
	ln, err := net.Listen("tcp", r.RestConfig.Server)
	if err != nil {
		return err
	}
	server := &http.Server{Handler: r.router, ReadTimeout: r.RestConfig.ReadTimeout}
	r.lock.Lock()
	r.server = server
	r.listener = ln
	r.lock.Unlock()

	tls := r.RestConfig.CertKeyFile != "" && r.RestConfig.CertFile != ""
	if tls {
		r.config.Printf("starting server with TLS on %s", ln.Addr())
	} else {
		r.config.Printf("starting server on %s", ln.Addr())
	}
	go func() {
		var err error
		if tls {
			err = server.ServeTLS(ln, r.RestConfig.CertFile, r.RestConfig.CertKeyFile)
		} else {
			err = server.Serve(ln)
		}
		if err != nil && err != http.ErrServerClosed {
			r.config.Printf("server error: %v", err)
		}
	}()
	return nil
}

// Addr returns the listen address, empty before Start.
func (r *Rest) Addr() string {
	r.lock.Lock()
	defer r.lock.Unlock()
	if r.listener == nil {
		return ""
	}
	return r.listener.Addr().String()
}

// Stop shuts the http server down and runs the shutdown hooks in reverse order.
func (r *Rest) Stop(ctx context.Context) error {
	r.lock.Lock()
	server := r.server
	hooks := r.shutdown
	r.server = nil
	r.listener = nil
	r.shutdown = nil
	r.lock.Unlock()

	var err error
	if server != nil {
		err = server.Shutdown(ctx)
	}
	for i := len(hooks) - 1; i >= 0; i-- {
		hooks[i]()
	}
	return err
}

func (r *Rest) handler(d *route.Dispatcher) httprouter.Handle {
	return func(w http.ResponseWriter, hr *http.Request, params httprouter.Params) {
		res := types.NewResponse(&responseWriter{w: w})
		req, err := r.NewRequest(w, hr, params)
		if err != nil {
			_ = res.Send(http.StatusBadRequest, map[string]interface{}{types.ErrorField: err.Error()})
			return
		}
		d.Serve(req, res)
	}
}

func (r *Rest) panicHandler(w http.ResponseWriter, hr *http.Request, e interface{}) {
	r.config.Printf("rest handler err :%v", e)
	w.Header().Set(ContentTypeKey, JsonContextType)
	w.WriteHeader(http.StatusInternalServerError)
	body, _ := json.Marshal(map[string]interface{}{types.ErrorField: fmt.Sprint(e)})
	_, _ = w.Write(body)
}

// NewRequest converts an http request with its path parameters.
func (r *Rest) NewRequest(w http.ResponseWriter, hr *http.Request, params httprouter.Params) (*types.Request, error) {
	req := types.NewRequest(hr.Context(), hr.Method, hr.URL.Path)
	req.URL = hr.URL.RequestURI()
	req.RemoteAddr = hr.RemoteAddr
	req.SetRaw(hr)
	for _, p := range params {
		req.Params[p.Key] = p.Value
	}
	for k, v := range hr.URL.Query() {
		req.Query[k] = flatten(v)
	}
	for k, v := range hr.Header {
		if len(v) > 0 {
			req.Headers[k] = v[0]
		}
	}
	if hr.Body == nil || hr.Body == http.NoBody {
		return req, nil
	}
	limit := r.RestConfig.MaxBodyBytes
	if limit <= 0 {
		limit = DefaultMaxBodyBytes
	}
	defer hr.Body.Close()
	raw, err := io.ReadAll(http.MaxBytesReader(w, hr.Body, limit))
	if err != nil {
		return nil, fmt.Errorf("read request body: %w", err)
	}
	body, err := decodeBody(hr.Header.Get(ContentTypeKey), raw)
	if err != nil {
		return nil, err
	}
	req.Body = body
	return req, nil
}

func decodeBody(contentType string, raw []byte) (interface{}, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil
	}
	switch {
	case contentType == "" || strings.Contains(contentType, "json"):
		v, err := json.Decode(bytes.NewReader(raw))
		if err != nil {
			return nil, fmt.Errorf("invalid json body: %w", err)
		}
		return v, nil
	case strings.HasPrefix(contentType, FormContentType):
		values, err := url.ParseQuery(string(raw))
		if err != nil {
			return nil, fmt.Errorf("invalid form body: %w", err)
		}
		form := make(map[string]interface{}, len(values))
		for k, v := range values {
			form[k] = flatten(v)
		}
		return form, nil
	default:
		return string(raw), nil
	}
}

func flatten(v []string) interface{} {
	if len(v) == 1 {
		return v[0]
	}
	items := make([]interface{}, len(v))
	for i, s := range v {
		items[i] = s
	}
	return items
}

// responseWriter writes a dispatcher response as json. Strings and byte
// slices are written as they are.
type responseWriter struct {
	w http.ResponseWriter
}

func (rw *responseWriter) WriteResponse(status int, header http.Header, body interface{}) error {
	dst := rw.w.Header()
	for k, v := range header {
		dst[k] = v
	}
	var payload []byte
	switch b := body.(type) {
	case nil:
	case []byte:
		payload = b
		setDefault(dst, "application/octet-stream")
	case string:
		payload = []byte(b)
		setDefault(dst, TextContentType)
	default:
		var err error
		if payload, err = json.Marshal(b); err != nil {
			dst.Set(ContentTypeKey, JsonContextType)
			rw.w.WriteHeader(http.StatusInternalServerError)
			errBody, _ := json.Marshal(map[string]interface{}{types.ErrorField: err.Error()})
			_, _ = rw.w.Write(errBody)
			return err
		}
		setDefault(dst, JsonContextType)
	}
	rw.w.WriteHeader(status)
	if len(payload) == 0 {
		return nil
	}
	_, err := rw.w.Write(payload)
	return err
}

func setDefault(h http.Header, contentType string) {
	if h.Get(ContentTypeKey) == "" {
		h.Set(ContentTypeKey, contentType)
	}
}
