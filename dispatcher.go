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
	"net/http"
	"strconv"

	"github.com/michaelquigley/pfxlog"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const NotFoundBody = "not found"

// Dispatcher is the http.Handler that walks a RouteTable for every request. The first route whose pattern matches
// the request path runs its action, later routes are never evaluated. The matched Route is added to the request
// context with a key of RouteContextKey.
//
// Unmatched requests are answered by NotFound, by default a 404 with the body "not found". An action that fails
// before writing is answered with a 500 whose body is the failure text.
type Dispatcher struct {
	Table    *RouteTable
	NotFound http.Handler
}

var _ http.Handler = &Dispatcher{}

// NewDispatcher creates a Dispatcher over a RouteTable with the default not found behavior.
func NewDispatcher(table *RouteTable) *Dispatcher {
	return &Dispatcher{
		Table:    table,
		NotFound: http.HandlerFunc(handler404),
	}
}

func (dispatcher *Dispatcher) ServeHTTP(writer http.ResponseWriter, request *http.Request) {
	route := dispatcher.Table.Match(request.URL.Path)

	if route == nil {
		notFound := dispatcher.NotFound
		if notFound == nil {
			notFound = http.HandlerFunc(handler404)
		}
		notFound.ServeHTTP(writer, request)
		return
	}

	//store the Route on the request context, useful for logging by downstream handlers
	ctx := context.WithValue(request.Context(), RouteContextKey, route)
	request = request.WithContext(ctx)

	if err := dispatcher.execute(route, writer, request); err != nil {
		pfxlog.Logger().WithFields(logrus.Fields{
			"requestId": RequestIdFromRequestContext(ctx),
			"route":     route.Index,
			"path":      request.URL.Path,
		}).WithError(err).Error("route action failed")

		writeText(writer, http.StatusInternalServerError, err.Error())
	}
}

func (dispatcher *Dispatcher) execute(route *Route, writer http.ResponseWriter, request *http.Request) error {
	var err error

	switch action := route.Action.(type) {
	case *RespondAction:
		err = action.Respond(writer)
	case *ProxyAction:
		err = action.Forward(writer, request)
	default:
		err = errors.Errorf("route [%d] has no action", route.Index)
	}

	if err != nil {
		return &ActionError{Route: route, Err: err}
	}

	return nil
}

// LogRoutes logs every static binding and route once, in the order they are evaluated.
func (dispatcher *Dispatcher) LogRoutes(statics []StaticBinding) {
	logger := pfxlog.Logger()

	for _, binding := range statics {
		logger.Infof("+ STATIC DIR %s %s", binding.Prefix, binding.Dir)
	}

	for _, route := range dispatcher.Table.Routes() {
		switch action := route.Action.(type) {
		case *RespondAction:
			logger.Infof("+ RESPOND TO %s", route.Pattern.String())
		case *ProxyAction:
			logger.Infof("+ PROXY TO %s -> %s", route.Pattern.String(), action.Target.String())
		}
	}
}

func handler404(writer http.ResponseWriter, _ *http.Request) {
	writeText(writer, http.StatusNotFound, NotFoundBody)
}

func writeText(writer http.ResponseWriter, status int, body string) {
	header := writer.Header()
	header.Set("Content-Type", "text/plain; charset=utf-8")
	header.Set("Content-Length", strconv.Itoa(len(body)))
	writer.WriteHeader(status)
	_, _ = writer.Write([]byte(body))
}
