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
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func serve(handler http.Handler, request *http.Request) *httptest.ResponseRecorder {
	recorder := httptest.NewRecorder()
	handler.ServeHTTP(recorder, request)
	return recorder
}

func Test_DispatcherRespond(t *testing.T) {
	table := newTestTable(t, nil,
		map[string]interface{}{
			"respond": map[string]interface{}{
				"path":         "^/teapot$",
				"content-type": "application/json",
				"status-code":  418,
				"body-string":  `{"short":"stout"}`,
			},
		},
		respondRoute("^/plain", "plain"),
	)
	dispatcher := NewDispatcher(table)

	t.Run("the configured status, content type and body are returned", func(t *testing.T) {
		response := serve(dispatcher, httptest.NewRequest(http.MethodGet, "/teapot", nil))

		req := require.New(t)
		req.Equal(418, response.Code)
		req.Equal("application/json", response.Header().Get("Content-Type"))
		req.Equal(`{"short":"stout"}`, response.Body.String())
	})

	t.Run("method, headers, query and body do not change the response", func(t *testing.T) {
		request := httptest.NewRequest(http.MethodPost, "/teapot?brew=now&sugar=2", strings.NewReader("ignored body"))
		request.Header.Set("Accept", "text/html")
		request.Header.Set("X-Custom", "value")

		response := serve(dispatcher, request)

		req := require.New(t)
		req.Equal(418, response.Code)
		req.Equal("application/json", response.Header().Get("Content-Type"))
		req.Equal(`{"short":"stout"}`, response.Body.String())
	})

	t.Run("defaults are 200 text/plain", func(t *testing.T) {
		response := serve(dispatcher, httptest.NewRequest(http.MethodDelete, "/plain/anything", nil))

		req := require.New(t)
		req.Equal(http.StatusOK, response.Code)
		req.Equal("text/plain", response.Header().Get("Content-Type"))
		req.Equal("plain", response.Body.String())
	})

	t.Run("the query string is never part of matching", func(t *testing.T) {
		response := serve(dispatcher, httptest.NewRequest(http.MethodGet, "/other?path=/teapot", nil))

		req := require.New(t)
		req.Equal(http.StatusNotFound, response.Code)
	})
}

func Test_DispatcherFallbacks(t *testing.T) {

	t.Run("an unmatched path is a 404 with body not found", func(t *testing.T) {
		dispatcher := NewDispatcher(newTestTable(t, nil, respondRoute("^/known$", "known")))

		response := serve(dispatcher, httptest.NewRequest(http.MethodGet, "/unknown", nil))

		req := require.New(t)
		req.Equal(http.StatusNotFound, response.Code)
		req.Equal("not found", response.Body.String())
	})

	t.Run("an empty table answers everything with 404", func(t *testing.T) {
		dispatcher := NewDispatcher(newTestTable(t, nil))

		response := serve(dispatcher, httptest.NewRequest(http.MethodGet, "/", nil))

		req := require.New(t)
		req.Equal(http.StatusNotFound, response.Code)
		req.Equal(NotFoundBody, response.Body.String())
	})

	t.Run("an invalid content type is a 500 with the failure text", func(t *testing.T) {
		dispatcher := NewDispatcher(newTestTable(t, nil, map[string]interface{}{
			"respond": map[string]interface{}{
				"path":         "^/broken$",
				"content-type": "not a/content type;;",
				"body-string":  "never sent",
			},
		}))

		response := serve(dispatcher, httptest.NewRequest(http.MethodGet, "/broken", nil))

		req := require.New(t)
		req.Equal(http.StatusInternalServerError, response.Code)
		req.Contains(response.Body.String(), "invalid content-type")
		req.NotContains(response.Body.String(), "never sent")
	})

	t.Run("a later route is not tried when the matched action fails", func(t *testing.T) {
		dispatcher := NewDispatcher(newTestTable(t, nil,
			map[string]interface{}{
				"respond": map[string]interface{}{
					"path":         "^/x$",
					"content-type": "",
					"body-string":  "first",
				},
			},
			respondRoute("^/x$", "second"),
		))

		response := serve(dispatcher, httptest.NewRequest(http.MethodGet, "/x", nil))

		req := require.New(t)
		req.Equal(http.StatusInternalServerError, response.Code)
		req.NotContains(response.Body.String(), "second")
	})

	t.Run("a custom not found handler is used", func(t *testing.T) {
		dispatcher := NewDispatcher(newTestTable(t, nil))
		dispatcher.NotFound = http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
			writer.WriteHeader(http.StatusGone)
		})

		response := serve(dispatcher, httptest.NewRequest(http.MethodGet, "/", nil))

		require.New(t).Equal(http.StatusGone, response.Code)
	})
}

func Test_RequestContext(t *testing.T) {

	t.Run("values are read back from the context", func(t *testing.T) {
		route := &Route{Index: 3}
		serverContext := &ServerContext{Config: NewConfig()}

		ctx := context.WithValue(context.Background(), RouteContextKey, route)
		ctx = context.WithValue(ctx, RequestIdContextKey, "id-1")
		ctx = context.WithValue(ctx, ServerContextKey, serverContext)

		req := require.New(t)
		req.Same(route, RouteFromRequestContext(ctx))
		req.Equal("id-1", RequestIdFromRequestContext(ctx))
		req.Same(serverContext, ServerContextFromRequestContext(ctx))
	})

	t.Run("missing values are zero", func(t *testing.T) {
		ctx := context.Background()

		req := require.New(t)
		req.Nil(RouteFromRequestContext(ctx))
		req.Empty(RequestIdFromRequestContext(ctx))
		req.Nil(ServerContextFromRequestContext(ctx))
	})
}
