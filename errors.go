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

import "fmt"

// ConfigError is returned when a configuration cannot be turned into a serving RouteTable. A ConfigError is fatal:
// an Instance must not start serving with it.
type ConfigError struct {
	Section string
	Index   int
	Err     error
}

func (e *ConfigError) Error() string {
	if e.Section == "" {
		return fmt.Sprintf("invalid configuration: %v", e.Err)
	}

	if e.Index < 0 {
		return fmt.Sprintf("invalid configuration [%s]: %v", e.Section, e.Err)
	}

	return fmt.Sprintf("invalid configuration [%s] at index [%d]: %v", e.Section, e.Index, e.Err)
}

func (e *ConfigError) Unwrap() error {
	return e.Err
}

func newConfigError(section string, index int, err error) *ConfigError {
	return &ConfigError{
		Section: section,
		Index:   index,
		Err:     err,
	}
}

// ActionError is a per-request failure of a route's action. The Dispatcher converts it into a 500 response whose
// body is the text of Err.
type ActionError struct {
	Route *Route
	Err   error
}

func (e *ActionError) Error() string {
	return e.Err.Error()
}

func (e *ActionError) Unwrap() error {
	return e.Err
}
