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
	"strings"

	"github.com/michaelquigley/pfxlog"
	"github.com/pkg/errors"
)

const (
	StaticKindDir = "dir"

	DefaultListings = true
)

// StaticConfig represents a static directory entry: files under Path are served below the URL prefix Route.
// Listings is nil when the configuration did not mention it.
type StaticConfig struct {
	Route    string
	Path     string
	Listings *bool
}

// Parse the configuration map for a StaticConfig.
func (static *StaticConfig) Parse(config map[string]interface{}) error {
	dirVal, ok := config[StaticKindDir]
	if !ok || len(config) != 1 {
		return errors.Errorf("a static entry must declare exactly one [%s]", StaticKindDir)
	}

	dirMap, ok := dirVal.(map[string]interface{})
	if !ok {
		return errors.Errorf("static [%s] must be a map", StaticKindDir)
	}

	var err error
	if static.Route, err = requiredString(dirMap, "route"); err != nil {
		return err
	}

	if static.Path, err = requiredString(dirMap, "path"); err != nil {
		return err
	}

	if listingsVal, ok := dirMap["listings"]; ok {
		if listings, ok := listingsVal.(bool); ok {
			static.Listings = &listings
		} else {
			return errors.New("could not use value for listings, not a boolean")
		}
	}

	return nil
}

// Validate this configuration object.
func (static *StaticConfig) Validate() error {
	if !strings.HasPrefix(static.Route, "/") {
		return errors.Errorf("invalid route [%s], must start with /", static.Route)
	}

	if strings.TrimSpace(static.Path) == "" {
		return errors.New("path must not be empty")
	}

	if static.Listings == nil {
		pfxlog.Logger().Debugf("static [%s] does not set listings, defaulting to %v", static.Route, DefaultListings)
	}

	return nil
}

// Binding resolves the configuration into the binding handed to the static file server.
func (static *StaticConfig) Binding() StaticBinding {
	listings := DefaultListings
	if static.Listings != nil {
		listings = *static.Listings
	}

	return StaticBinding{
		Prefix:   static.Route,
		Dir:      static.Path,
		Listings: listings,
	}
}
