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
	"io"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/michaelquigley/pfxlog"
	"github.com/sirupsen/logrus"
)

const (
	XForwardedForHeader = "X-Forwarded-For"
	ConnectionHeader    = "Connection"
)

// NewUpstreamClient creates the client shared by every proxy route. It pools connections, never follows redirects
// and never negotiates compression on its own so that upstream responses are relayed as they were sent. The timeout
// bounds each upstream exchange, including reading the response body.
func NewUpstreamClient(timeout time.Duration) *http.Client {
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DisableCompression = true

	return &http.Client{
		Transport: transport,
		Timeout:   timeout,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}
}

// ProxyAction forwards a request to Target and relays the response. Target contributes its scheme, user info and
// host only: the path and query always come from the inbound request, anything configured on Target is dropped.
type ProxyAction struct {
	Target *url.URL
	Client *http.Client
}

func (action *ProxyAction) isAction() {}

// RewriteURL addresses the inbound request's path and query to Target.
func (action *ProxyAction) RewriteURL(request *http.Request) *url.URL {
	rewritten := *action.Target
	rewritten.Path = request.URL.Path
	rewritten.RawPath = request.URL.RawPath
	rewritten.RawQuery = request.URL.RawQuery
	rewritten.ForceQuery = false
	rewritten.Fragment = ""
	rewritten.RawFragment = ""
	return &rewritten
}

// NewUpstreamRequest builds the outbound request: same method, same headers, same body, addressed to the rewritten
// URL. X-Forwarded-For is set to the peer's IP, replacing any inbound value.
func (action *ProxyAction) NewUpstreamRequest(request *http.Request) (*http.Request, error) {
	upstreamRequest, err := http.NewRequestWithContext(request.Context(), request.Method, action.RewriteURL(request).String(), nil)
	if err != nil {
		return nil, err
	}

	upstreamRequest.Header = request.Header.Clone()
	if upstreamRequest.Header == nil {
		upstreamRequest.Header = http.Header{}
	}

	if request.Body != nil && request.Body != http.NoBody && request.ContentLength != 0 {
		upstreamRequest.Body = request.Body
		upstreamRequest.ContentLength = request.ContentLength
	}

	if ip := peerIP(request); ip != "" {
		upstreamRequest.Header.Set(XForwardedForHeader, ip)
	}

	return upstreamRequest, nil
}

// Forward sends the request upstream and relays the response. Any error is returned before the response head is
// written, so the caller is still free to answer. Once the head is out, body copy failures are only logged.
func (action *ProxyAction) Forward(writer http.ResponseWriter, request *http.Request) error {
	upstreamRequest, err := action.NewUpstreamRequest(request)
	if err != nil {
		return err
	}

	response, err := action.Client.Do(upstreamRequest)
	if err != nil {
		return err
	}
	defer func() { _ = response.Body.Close() }()

	copyResponseHeaders(writer.Header(), response.Header)
	writer.WriteHeader(response.StatusCode)

	var dst io.Writer = writer
	if response.ContentLength < 0 {
		dst = &flushWriter{writer: writer, controller: http.NewResponseController(writer)}
	}

	if _, err = io.Copy(dst, response.Body); err != nil {
		pfxlog.Logger().WithFields(logrus.Fields{
			"requestId": RequestIdFromRequestContext(request.Context()),
			"upstream":  upstreamRequest.URL.String(),
		}).WithError(err).Warn("upstream response body was cut short")
	}

	return nil
}

// copyResponseHeaders copies every value of every header except Connection.
func copyResponseHeaders(dst, src http.Header) {
	for key, values := range src {
		if http.CanonicalHeaderKey(key) == ConnectionHeader {
			continue
		}
		for _, value := range values {
			dst.Add(key, value)
		}
	}
}

func peerIP(request *http.Request) string {
	if request.RemoteAddr == "" {
		return ""
	}

	host, _, err := net.SplitHostPort(request.RemoteAddr)
	if err != nil {
		host = request.RemoteAddr
	}

	if ip := net.ParseIP(host); ip != nil {
		return ip.String()
	}

	return ""
}

// flushWriter pushes each chunk to the client as soon as it arrives, for upstream bodies of unknown length such as
// event streams.
type flushWriter struct {
	writer     io.Writer
	controller *http.ResponseController
}

func (w *flushWriter) Write(p []byte) (int, error) {
	n, err := w.writer.Write(p)
	if err == nil {
		_ = w.controller.Flush()
	}
	return n, err
}
