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
	"mime"
	"net/http"

	"github.com/pkg/errors"
)

// RespondAction writes a fixed response. Nothing about the request is consulted.
//
// net/http sends 100, 102 and 103 as interim responses, so a route configured with one of them is followed by an
// implicit 200 carrying the body. 101 and every code from 200 to 599 reach the client as configured.
type RespondAction struct {
	ContentType string
	StatusCode  int
	Body        []byte
}

func (action *RespondAction) isAction() {}

// Respond writes the configured status, content type and body. An unparseable content type is returned before
// anything is written.
func (action *RespondAction) Respond(writer http.ResponseWriter) error {
	if _, _, err := mime.ParseMediaType(action.ContentType); err != nil {
		return errors.Wrapf(err, "invalid content-type [%s]", action.ContentType)
	}

	writer.Header().Set("Content-Type", action.ContentType)
	writer.WriteHeader(action.StatusCode)
	_, _ = writer.Write(action.Body)

	return nil
}
