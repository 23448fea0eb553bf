/*
	Copyright NetFoundry Inc.

	Licensed under the Apache License, Version 2.0 (the "License");
	you may not use this file except in compliance with the License.
	You may obtain a copy of the License at

	https://www.apache.org/licenses/LICENSE-2.0

	Unless required by applicable law or agreed to in writing, software
	distributed under the License is distributed on an "AS IS" BASIS,
	WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
	See the License for the specific language governing permissions and
	limitations under the License.
*/

package vortex

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/michaelquigley/pfxlog"
	"github.com/openziti/foundation/v2/debugz"
	"github.com/sirupsen/logrus"
)

// ServerContext is added to every request context with a key of ServerContextKey.
type ServerContext struct {
	Config *Config
}

// Server is the http.Server for a Config. Static bindings are mounted first, in declaration order, and every other
// request goes to the Dispatcher.
type Server struct {
	HttpServer     *http.Server
	Router         *mux.Router
	Dispatcher     *Dispatcher
	Statics        []StaticBinding
	Config         *Config
	OnHandlerPanic func(writer http.ResponseWriter, request *http.Request, panicVal interface{})

	logWriter *io.PipeWriter
}

// NewServer creates a new Server from a validated Config and the RouteTable built from it.
func NewServer(config *Config, table *RouteTable) (*Server, error) {
	if !config.Enabled() {
		return nil, errors.New("error creating server: configuration has not been validated")
	}

	registry := NewStaticRegistry()
	for i, static := range config.Statics {
		if err := registry.Add(static.Binding()); err != nil {
			return nil, newConfigError(StaticSection, i, err)
		}
	}

	logWriter := pfxlog.Logger().Writer()

	server := &Server{
		Dispatcher: NewDispatcher(table),
		Statics:    registry.Bindings(),
		Config:     config,
		logWriter:  logWriter,
	}

	server.Router = server.newRouter()

	serverContext := &ServerContext{Config: config}

	server.HttpServer = &http.Server{
		Addr:         config.ListenAddress(),
		WriteTimeout: config.Options.WriteTimeout,
		ReadTimeout:  config.Options.ReadTimeout,
		IdleTimeout:  config.Options.IdleTimeout,
		Handler:      server.wrapHandler(server.Router),
		ErrorLog:     log.New(logWriter, "", 0),
		BaseContext: func(_ net.Listener) context.Context {
			return context.WithValue(context.Background(), ServerContextKey, serverContext)
		},
	}

	return server, nil
}

func (server *Server) newRouter() *mux.Router {
	router := mux.NewRouter()

	//paths are matched and forwarded exactly as received
	router.SkipClean(true)

	for _, binding := range server.Statics {
		router.MatcherFunc(staticMatcher(binding)).Handler(binding.Handler())
	}

	router.PathPrefix("/").Handler(server.Dispatcher)
	router.NotFoundHandler = server.Dispatcher

	return router
}

func staticMatcher(binding StaticBinding) mux.MatcherFunc {
	return func(request *http.Request, _ *mux.RouteMatch) bool {
		return binding.Matches(request.URL.Path)
	}
}

// Handler returns the fully wrapped http.Handler, useful to serve a Server from a test listener.
func (server *Server) Handler() http.Handler {
	return server.HttpServer.Handler
}

func (server *Server) wrapHandler(handler http.Handler) http.Handler {
	//innermost/bottom -> outermost/top
	handler = server.wrapRequestId(handler)
	handler = server.wrapPanicRecovery(handler)
	if server.Config.Options.Compress {
		handler = NewCompressionHandler(handler)
	}
	return handler
}

// wrapPanicRecovery wraps a http.Handler with another http.Handler that provides recovery.
func (server *Server) wrapPanicRecovery(handler http.Handler) http.Handler {
	wrappedHandler := http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		defer func() {
			if panicVal := recover(); panicVal != nil {
				if panicVal == http.ErrAbortHandler {
					panic(panicVal)
				}

				if server.OnHandlerPanic != nil {
					server.OnHandlerPanic(writer, request, panicVal)
					return
				}
				pfxlog.Logger().Errorf("panic caught by server handler: %v\n%v", panicVal, debugz.GenerateLocalStack())
				writeText(writer, http.StatusInternalServerError, fmt.Sprintf("%v", panicVal))
			}
		}()

		handler.ServeHTTP(writer, request)
	})

	return wrappedHandler
}

// wrapRequestId assigns every request an id, stored on the context with a key of RequestIdContextKey, and logs the
// request once it has been answered.
func (server *Server) wrapRequestId(handler http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		requestId := uuid.NewString()
		start := time.Now()

		ctx := context.WithValue(request.Context(), RequestIdContextKey, requestId)
		statusWriter := &statusWriter{ResponseWriter: writer}

		handler.ServeHTTP(statusWriter, request.WithContext(ctx))

		pfxlog.Logger().WithFields(logrus.Fields{
			"requestId": requestId,
			"method":    request.Method,
			"path":      request.URL.Path,
			"status":    statusWriter.Status(),
			"duration":  time.Since(start).String(),
		}).Debug("request handled")
	})
}

// Start listens on the configured address and serves until Shutdown is called.
func (server *Server) Start() error {
	listener, err := net.Listen("tcp", server.HttpServer.Addr)
	if err != nil {
		return fmt.Errorf("error listening: %s", err)
	}

	return server.Serve(listener)
}

// Serve serves on an existing listener until Shutdown is called.
func (server *Server) Serve(listener net.Listener) error {
	pfxlog.Logger().Infof("starting server on %s", listener.Addr().String())

	if err := server.HttpServer.Serve(listener); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("error serving: %s", err)
	}

	return nil
}

// Shutdown stops the server, waiting for in-flight requests until ctx is done.
func (server *Server) Shutdown(ctx context.Context) {
	if err := server.HttpServer.Shutdown(ctx); err != nil {
		pfxlog.Logger().WithError(err).Warn("server did not shut down cleanly")
	}

	_ = server.logWriter.Close()
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	if w.status == 0 && status >= http.StatusOK {
		w.status = status
	}
	w.ResponseWriter.WriteHeader(status)
}

func (w *statusWriter) Write(p []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	return w.ResponseWriter.Write(p)
}

func (w *statusWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

func (w *statusWriter) Status() int {
	return w.status
}
