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

/*
Package vortex provides a configurable HTTP edge server built from a declarative, ordered route table.

Basics

A Config lists routes and static directories. Each route pairs a regular expression, matched against the request
path only, with an action: respond writes a fixed status, content type and body; proxy forwards the request to an
upstream origin and relays its response. Static entries bind a URL prefix to a local directory served by
http.FileServer, with directory listings enabled unless turned off.

Configuration is presented as a map of string-to-interface{} values (see LoadConfigFile for yaml files). Each
section follows the same Parse, Default and Validate steps. Validation compiles every path pattern, checks status
codes and proxy targets, and returns a *ConfigError on the first problem. An invalid configuration never serves.

A validated Config is compiled once into a RouteTable, an immutable and ordered slice of Route's that is shared by
every request without locking. The Dispatcher walks the RouteTable for each request and runs the first matching
route's action. Later routes are never evaluated. Requests that match nothing get a 404 with the body "not found",
and an action that fails gets a 500 whose body is the failure text.

Proxying

A proxy target contributes its scheme and host only. The inbound path and query replace whatever the target
declares, so target "http://up.example:9000" and request "/a/b?x=1" go to "http://up.example:9000/a/b?x=1". The
method, headers and body are forwarded, X-Forwarded-For is set to the peer IP, and every upstream response header
except Connection is relayed with the upstream status and body. All proxy routes share one http.Client whose
timeout (100s by default) bounds each upstream exchange.

Running

Instance ties it together: LoadConfig, Build (RouteTable, Server and startup logging), Run and Shutdown. The Server
mounts static bindings ahead of the Dispatcher on a gorilla/mux router and adds request ids, panic recovery and,
when enabled, response compression.
*/
package vortex
