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
	"context"
	"net/http"

	"github.com/michaelquigley/pfxlog"
	"github.com/pkg/errors"
)

// Instance is the lifecycle of a vortex server: configuration is loaded and validated, the RouteTable and Server
// are built from it once, then the Server runs until shut down.
type Instance interface {
	Enabled() bool
	LoadConfig(cfgmap map[string]interface{}) error
	Build() error
	Run() error
	Shutdown()
	GetConfig() *Config
	GetRouteTable() *RouteTable
}

// InstanceImpl is a basic implementation of Instance.
type InstanceImpl struct {
	Config *Config
	Client *http.Client
	table  *RouteTable
	server *Server
}

var _ Instance = &InstanceImpl{}

// NewDefaultInstance creates an Instance holding the default configuration, to be replaced by LoadConfig.
func NewDefaultInstance() *InstanceImpl {
	return &InstanceImpl{
		Config: NewConfig(),
	}
}

// NewInstance creates an Instance around an already parsed Config. The Config is validated if that has not
// happened yet.
func NewInstance(config *Config) (*InstanceImpl, error) {
	if !config.Enabled() {
		if err := config.Validate(); err != nil {
			return nil, err
		}
	}

	return &InstanceImpl{
		Config: config,
	}, nil
}

// GetConfig returns the associated Config
func (i *InstanceImpl) GetConfig() *Config {
	return i.Config
}

// GetRouteTable returns the RouteTable built by Build, nil before that
func (i *InstanceImpl) GetRouteTable() *RouteTable {
	return i.table
}

// GetServer returns the Server built by Build, nil before that
func (i *InstanceImpl) GetServer() *Server {
	return i.server
}

// Enabled returns true/false on whether the configuration has been validated
func (i *InstanceImpl) Enabled() bool {
	return i.Config != nil && i.Config.Enabled()
}

// LoadConfig parses and validates a configuration map, replacing the current Config
func (i *InstanceImpl) LoadConfig(cfgmap map[string]interface{}) error {
	config := &Config{}
	if err := config.Parse(cfgmap); err != nil {
		return err
	}

	//validate sets enabled flag to true on success
	if err := config.Validate(); err != nil {
		return err
	}

	i.Config = config

	return nil
}

// Build compiles the RouteTable, creates the shared upstream client and the Server, then logs every route.
func (i *InstanceImpl) Build() error {
	if !i.Enabled() {
		if err := i.Config.Validate(); err != nil {
			return err
		}
	}

	if i.Client == nil {
		i.Client = NewUpstreamClient(i.Config.Options.ProxyTimeout)
	}

	table, err := NewRouteTable(i.Config.Routes, i.Client)
	if err != nil {
		return err
	}

	server, err := NewServer(i.Config, table)
	if err != nil {
		return err
	}

	server.Dispatcher.LogRoutes(server.Statics)

	i.table = table
	i.server = server

	return nil
}

// Start serves the built Server, blocking until Shutdown is called or the listener fails.
func (i *InstanceImpl) Start() error {
	if i.server == nil {
		return errors.New("instance has not been built")
	}

	if err := i.server.Start(); err != nil {
		pfxlog.Logger().WithError(err).Errorf("error starting server on %s", i.Config.ListenAddress())
		return err
	}

	return nil
}

// Run builds and starts the Server
func (i *InstanceImpl) Run() error {
	if err := i.Build(); err != nil {
		return err
	}
	return i.Start()
}

// Shutdown stops the Server, giving in-flight requests up to the configured shutdown timeout
func (i *InstanceImpl) Shutdown() {
	if i.server == nil {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), i.Config.Options.ShutdownTimeout)
	defer cancel()

	i.server.Shutdown(ctx)
}
