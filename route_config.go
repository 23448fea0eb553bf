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
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"sort"

	"github.com/pkg/errors"
)

// RouteKind names the action a RouteConfig declares. The set is closed: respond and proxy.
type RouteKind string

const (
	RouteKindRespond RouteKind = "respond"
	RouteKindProxy   RouteKind = "proxy"

	DefaultContentType = "text/plain"
	DefaultStatusCode  = http.StatusOK
)

// RouteConfig is a single entry of the routes section. Exactly one of Respond or Proxy is set, matching Kind.
//
//	routes:
//	  - respond: {path: ^/health$, body-string: ok}
//	  - proxy: {path: ^/api/, target: http://127.0.0.1:9000}
type RouteConfig struct {
	Kind    RouteKind
	Path    string
	Respond *RespondConfig
	Proxy   *ProxyConfig

	pattern *regexp.Regexp
}

// RespondConfig holds the canned response of a respond route.
type RespondConfig struct {
	ContentType string
	StatusCode  int
	Body        string
}

// ProxyConfig holds the upstream of a proxy route. Only the scheme, user info and host of Target are used.
type ProxyConfig struct {
	Target string

	targetURL *url.URL
}

// Parse the configuration map for a RouteConfig.
func (route *RouteConfig) Parse(routeMap map[string]interface{}) error {
	if len(routeMap) != 1 {
		var keys []string
		for key := range routeMap {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		return errors.Errorf("a route must declare exactly one of [%s, %s], found %v", RouteKindRespond, RouteKindProxy, keys)
	}

	for key, val := range routeMap {
		bodyMap, ok := val.(map[string]interface{})
		if !ok {
			return errors.Errorf("route [%s] must be a map", key)
		}

		path, err := requiredString(bodyMap, "path")
		if err != nil {
			return errors.Wrapf(err, "route [%s]", key)
		}
		route.Path = path

		switch RouteKind(key) {
		case RouteKindRespond:
			route.Kind = RouteKindRespond
			route.Respond = &RespondConfig{}
			if err := route.Respond.Parse(bodyMap); err != nil {
				return errors.Wrapf(err, "route [%s]", key)
			}
		case RouteKindProxy:
			route.Kind = RouteKindProxy
			route.Proxy = &ProxyConfig{}
			if err := route.Proxy.Parse(bodyMap); err != nil {
				return errors.Wrapf(err, "route [%s]", key)
			}
		default:
			return errors.Errorf("unknown route kind [%s], must be one of [%s, %s]", key, RouteKindRespond, RouteKindProxy)
		}
	}

	return nil
}

// Validate compiles the path pattern and checks the action values. It is safe to call more than once, the pattern is
// only compiled the first time.
func (route *RouteConfig) Validate() error {
	if route.pattern == nil {
		pattern, err := regexp.Compile(route.Path)
		if err != nil {
			return errors.Wrapf(err, "invalid path pattern [%s]", route.Path)
		}
		route.pattern = pattern
	}

	switch route.Kind {
	case RouteKindRespond:
		if route.Respond == nil {
			return errors.New("respond route is missing its response")
		}
		return route.Respond.Validate()
	case RouteKindProxy:
		if route.Proxy == nil {
			return errors.New("proxy route is missing its target")
		}
		return route.Proxy.Validate()
	}

	return errors.Errorf("unknown route kind [%s]", route.Kind)
}

// Pattern returns the compiled path pattern, nil until Validate has passed.
func (route *RouteConfig) Pattern() *regexp.Regexp {
	return route.pattern
}

func (route *RouteConfig) String() string {
	if route.Kind == RouteKindProxy && route.Proxy != nil {
		return fmt.Sprintf("%s %s -> %s", route.Kind, route.Path, route.Proxy.Target)
	}
	return fmt.Sprintf("%s %s", route.Kind, route.Path)
}

// Parse the configuration map for a RespondConfig.
func (respond *RespondConfig) Parse(config map[string]interface{}) error {
	respond.ContentType = DefaultContentType
	respond.StatusCode = DefaultStatusCode

	if contentTypeVal, ok := config["content-type"]; ok {
		if contentType, ok := contentTypeVal.(string); ok {
			respond.ContentType = contentType
		} else {
			return errors.New("could not use value for content-type, not a string")
		}
	}

	if statusVal, ok := config["status-code"]; ok {
		if status, ok := intValue(statusVal); ok {
			respond.StatusCode = status
		} else {
			return errors.New("could not use value for status-code, not an integer")
		}
	}

	body, err := requiredString(config, "body-string")
	if err != nil {
		return err
	}
	respond.Body = body

	return nil
}

// Validate checks the status code. The content type is deliberately left to request time, where an invalid value
// fails the request instead of the load.
func (respond *RespondConfig) Validate() error {
	if respond.StatusCode < 100 || respond.StatusCode > 599 {
		return errors.Errorf("invalid status-code [%d], must be 100-599", respond.StatusCode)
	}

	return nil
}

// Parse the configuration map for a ProxyConfig.
func (proxy *ProxyConfig) Parse(config map[string]interface{}) error {
	target, err := requiredString(config, "target")
	if err != nil {
		return err
	}
	proxy.Target = target

	return nil
}

// Validate parses the target, which must be an absolute URL with a host.
func (proxy *ProxyConfig) Validate() error {
	if proxy.targetURL != nil {
		return nil
	}

	targetURL, err := url.Parse(proxy.Target)
	if err != nil {
		return errors.Wrapf(err, "invalid target [%s]", proxy.Target)
	}

	if !targetURL.IsAbs() || targetURL.Host == "" {
		return errors.Errorf("invalid target [%s], must be an absolute URL", proxy.Target)
	}

	proxy.targetURL = targetURL

	return nil
}

func requiredString(config map[string]interface{}, key string) (string, error) {
	val, ok := config[key]
	if !ok {
		return "", errors.Errorf("%s is required", key)
	}

	str, ok := val.(string)
	if !ok {
		return "", errors.Errorf("could not use value for %s, not a string", key)
	}

	return str, nil
}
