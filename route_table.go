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
	"net/http"
	"regexp"

	"github.com/pkg/errors"
)

// Action is what a Route does once it matched. The set is closed: *RespondAction and *ProxyAction. The Dispatcher
// selects the behavior with a type switch.
type Action interface {
	isAction()
}

// Route is a compiled RouteConfig: its position in the table, its path pattern and its action.
type Route struct {
	Index   int
	Config  *RouteConfig
	Pattern *regexp.Regexp
	Action  Action
}

// Matches reports whether the route's pattern matches the request path.
func (route *Route) Matches(path string) bool {
	return route.Pattern.MatchString(path)
}

func (route *Route) String() string {
	return route.Config.String()
}

// RouteTable is the ordered, immutable sequence of routes. It has no write path after NewRouteTable returns and may
// be read by any number of goroutines without synchronization.
type RouteTable struct {
	routes []*Route
}

// NewRouteTable compiles route configurations, in order, into a RouteTable. Proxy routes share the given client.
// Every error returned is a *ConfigError.
func NewRouteTable(configs []*RouteConfig, client *http.Client) (*RouteTable, error) {
	if client == nil {
		client = NewUpstreamClient(DefaultProxyTimeout)
	}

	table := &RouteTable{
		routes: make([]*Route, 0, len(configs)),
	}

	for i, config := range configs {
		if config == nil {
			return nil, newConfigError(RoutesSection, i, errors.New("a nil route was processed"))
		}

		if err := config.Validate(); err != nil {
			return nil, newConfigError(RoutesSection, i, err)
		}

		route := &Route{
			Index:   i,
			Config:  config,
			Pattern: config.Pattern(),
		}

		switch config.Kind {
		case RouteKindRespond:
			route.Action = &RespondAction{
				ContentType: config.Respond.ContentType,
				StatusCode:  config.Respond.StatusCode,
				Body:        []byte(config.Respond.Body),
			}
		case RouteKindProxy:
			route.Action = &ProxyAction{
				Target: config.Proxy.targetURL,
				Client: client,
			}
		}

		table.routes = append(table.routes, route)
	}

	return table, nil
}

// Match returns the first route, in declaration order, whose pattern matches path. A nil result is the normal
// outcome for an unrouted path.
func (table *RouteTable) Match(path string) *Route {
	for _, route := range table.routes {
		if route.Matches(path) {
			return route
		}
	}
	return nil
}

// Routes returns a copy of the routes in declaration order.
func (table *RouteTable) Routes() []*Route {
	result := make([]*Route, len(table.routes))
	copy(result, table.routes)
	return result
}

// Len is the number of routes in the table.
func (table *RouteTable) Len() int {
	return len(table.routes)
}
