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
	"net/http"
	"strings"

	"github.com/andybalholm/brotli"
)

// NewCompressionHandler wraps a http.Handler so that responses are brotli or gzip encoded for clients that accept
// it. Responses that already carry a Content-Encoding (usually relayed from an upstream) are passed through as-is,
// as are HEAD requests, partial content and responses that cannot have a body.
func NewCompressionHandler(handler http.Handler) http.Handler {
	return http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		if request.Method == http.MethodHead || !acceptsCompression(request) {
			handler.ServeHTTP(writer, request)
			return
		}

		compressionWriter := &compressionWriter{
			ResponseWriter: writer,
			request:        request,
		}
		defer compressionWriter.close()

		handler.ServeHTTP(compressionWriter, request)
	})
}

func acceptsCompression(request *http.Request) bool {
	accept := request.Header.Get("Accept-Encoding")
	return strings.Contains(accept, "br") || strings.Contains(accept, "gzip")
}

type compressionWriter struct {
	http.ResponseWriter
	request     *http.Request
	encoder     io.WriteCloser
	wroteHeader bool
}

func (w *compressionWriter) WriteHeader(status int) {
	if w.wroteHeader {
		return
	}

	//informational responses are followed by the real one
	if status < http.StatusOK {
		w.ResponseWriter.WriteHeader(status)
		return
	}

	w.wroteHeader = true

	if shouldCompress(status, w.Header()) {
		w.Header().Del("Content-Length")
		w.encoder = brotli.HTTPCompressor(w.ResponseWriter, w.request)
	}

	w.ResponseWriter.WriteHeader(status)
}

func (w *compressionWriter) Write(p []byte) (int, error) {
	if !w.wroteHeader {
		if w.Header().Get("Content-Type") == "" {
			w.Header().Set("Content-Type", http.DetectContentType(p))
		}
		w.WriteHeader(http.StatusOK)
	}

	if w.encoder != nil {
		return w.encoder.Write(p)
	}

	return w.ResponseWriter.Write(p)
}

func (w *compressionWriter) Flush() {
	if flusher, ok := w.encoder.(interface{ Flush() error }); ok {
		_ = flusher.Flush()
	}
	_ = http.NewResponseController(w.ResponseWriter).Flush()
}

func (w *compressionWriter) Unwrap() http.ResponseWriter {
	return w.ResponseWriter
}

func (w *compressionWriter) close() {
	if w.encoder != nil {
		_ = w.encoder.Close()
	}
}

func shouldCompress(status int, header http.Header) bool {
	if status == http.StatusNoContent || status == http.StatusNotModified || status == http.StatusPartialContent {
		return false
	}

	if header.Get("Content-Encoding") != "" {
		return false
	}

	return header.Get("Content-Range") == ""
}
