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

import "context"

type ContextKey string

const (
	RouteContextKey     = ContextKey("vortex.Route.ContextKey")
	RequestIdContextKey = ContextKey("vortex.RequestId.ContextKey")
	ServerContextKey    = ContextKey("vortex.Server.ContextKey")
)

// RouteFromRequestContext is a utility function to retrieve the *Route the Dispatcher selected, during downstream
// http.Handler processing, from the http.Request context.
func RouteFromRequestContext(ctx context.Context) *Route {
	if val := ctx.Value(RouteContextKey); val != nil {
		if route, ok := val.(*Route); ok {
			return route
		}
	}
	return nil
}

// RequestIdFromRequestContext returns the id assigned to the request by the Server, or an empty string.
func RequestIdFromRequestContext(ctx context.Context) string {
	if val := ctx.Value(RequestIdContextKey); val != nil {
		if requestId, ok := val.(string); ok {
			return requestId
		}
	}
	return ""
}

// ServerContextFromRequestContext is a utility function to retrieve a *ServerContext reference from the http.Request
// that provides access to the Config the serving Server was built from.
func ServerContextFromRequestContext(ctx context.Context) *ServerContext {
	if val := ctx.Value(ServerContextKey); val != nil {
		if serverContext, ok := val.(*ServerContext); ok {
			return serverContext
		}
	}
	return nil
}
