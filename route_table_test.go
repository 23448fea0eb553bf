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
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func respondRoute(path, body string) map[string]interface{} {
	return map[string]interface{}{
		"respond": map[string]interface{}{
			"path":        path,
			"body-string": body,
		},
	}
}

func proxyRoute(path, target string) map[string]interface{} {
	return map[string]interface{}{
		"proxy": map[string]interface{}{
			"path":   path,
			"target": target,
		},
	}
}

// newTestTable parses route maps the way a configuration file would present them and compiles them.
func newTestTable(t *testing.T, client *http.Client, routes ...map[string]interface{}) *RouteTable {
	t.Helper()

	var routeVals []interface{}
	for _, route := range routes {
		routeVals = append(routeVals, route)
	}

	config := &Config{}
	req := require.New(t)
	req.NoError(config.Parse(map[string]interface{}{RoutesSection: routeVals}))
	req.NoError(config.Validate())

	table, err := NewRouteTable(config.Routes, client)
	req.NoError(err)

	return table
}

func Test_RouteTable(t *testing.T) {

	t.Run("an empty table matches nothing", func(t *testing.T) {
		table := newTestTable(t, nil)

		req := require.New(t)
		req.Equal(0, table.Len())
		req.Nil(table.Match("/"))
	})

	t.Run("the first matching route in declaration order wins", func(t *testing.T) {
		table := newTestTable(t, nil,
			respondRoute("^/a/b$", "specific"),
			respondRoute("^/a", "general"),
			respondRoute(".*", "catch all"),
		)

		req := require.New(t)
		req.Equal(0, table.Match("/a/b").Index)
		req.Equal(1, table.Match("/a/c").Index)
		req.Equal(2, table.Match("/z").Index)
	})

	t.Run("an earlier general route shadows a later specific one", func(t *testing.T) {
		table := newTestTable(t, nil,
			respondRoute("^/a", "general"),
			respondRoute("^/a/b$", "specific"),
		)

		route := table.Match("/a/b")

		req := require.New(t)
		req.NotNil(route)
		req.Equal(0, route.Index)
		req.Equal([]byte("general"), route.Action.(*RespondAction).Body)
	})

	t.Run("unanchored patterns match anywhere in the path", func(t *testing.T) {
		table := newTestTable(t, nil, respondRoute("users", "u"))

		req := require.New(t)
		req.NotNil(table.Match("/api/users/1"))
		req.Nil(table.Match("/api/groups"))
	})

	t.Run("routes carry the pattern compiled at validation", func(t *testing.T) {
		table := newTestTable(t, nil, respondRoute("^/x$", "x"))

		route := table.Routes()[0]

		req := require.New(t)
		req.Same(route.Config.Pattern(), route.Pattern)
	})

	t.Run("proxy routes share the client", func(t *testing.T) {
		client := NewUpstreamClient(DefaultProxyTimeout)
		table := newTestTable(t, client,
			proxyRoute("^/one", "http://one.example"),
			proxyRoute("^/two", "http://two.example"),
		)

		routes := table.Routes()

		req := require.New(t)
		req.Same(client, routes[0].Action.(*ProxyAction).Client)
		req.Same(client, routes[1].Action.(*ProxyAction).Client)
		req.Equal("one.example", routes[0].Action.(*ProxyAction).Target.Host)
	})

	t.Run("Routes returns a copy", func(t *testing.T) {
		table := newTestTable(t, nil, respondRoute("^/x$", "x"))

		routes := table.Routes()
		routes[0] = nil

		require.New(t).NotNil(table.Match("/x"))
	})

	t.Run("an unvalidated invalid route is a config error", func(t *testing.T) {
		_, err := NewRouteTable([]*RouteConfig{
			{Kind: RouteKindRespond, Path: "(", Respond: &RespondConfig{StatusCode: 200}},
		}, nil)

		var configErr *ConfigError
		req := require.New(t)
		req.Error(err)
		req.True(errors.As(err, &configErr))
		req.Equal(0, configErr.Index)
	})
}
